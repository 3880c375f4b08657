package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/tuicard/internal/speech"
)

func newSpeakCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "speak TEXT...",
		Short: "Read text aloud with the configured speech engine",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSpeakCmd,
	}
}

func runSpeakCmd(cmd *cobra.Command, args []string) error {
	a, _, _, err := openCLI(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.speaker.Speak(cmd.Context(), strings.Join(args, " ")); err != nil {
		return err
	}
	a.speaker.Wait()
	a.local.Wait()
	return nil
}

func newSpeechCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "speech",
		Short: "Show or change cloud speech settings",
		Args:  cobra.NoArgs,
		RunE:  runSpeechCmd,
	}
	cmd.Flags().StringVar(&speechKey, "key", "", "cloud speech subscription key")
	cmd.Flags().StringVar(&speechRegion, "region", "", "cloud speech region (default from config)")
	cmd.Flags().BoolVar(&speechClear, "clear", false, "remove stored cloud credentials")
	return cmd
}

func runSpeechCmd(cmd *cobra.Command, _ []string) error {
	a, cfg, _, err := openCLI(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case speechClear:
		if err := a.store.SaveCredentials(ctx, "", ""); err != nil {
			return fmt.Errorf("failed to clear speech settings: %w", err)
		}
		a.speaker.SetCredentials(speech.Credentials{})
		return writeLine(out, "Speech settings cleared.")
	case cmd.Flags().Changed("key") || cmd.Flags().Changed("region"):
		creds := a.speaker.Credentials()
		if cmd.Flags().Changed("key") {
			creds.Key = strings.TrimSpace(speechKey)
		}
		if cmd.Flags().Changed("region") {
			creds.Region = strings.TrimSpace(speechRegion)
		}
		if creds.Region == "" {
			creds.Region = cfg.Speech.Region
		}
		if creds.Key == "" {
			return fmt.Errorf("--key must not be empty (use --clear to remove credentials)")
		}
		if err := a.store.SaveCredentials(ctx, creds.Key, creds.Region); err != nil {
			return fmt.Errorf("failed to save speech settings: %w", err)
		}
		a.speaker.SetCredentials(creds)
		if err := a.speaker.EnsureCloud(ctx); err != nil {
			logErrf("Saved, but cloud speech could not be initialized: %v\n", err)
			return nil
		}
		return writeLine(out, "Speech settings saved!")
	}

	return printSpeechStatus(cmd, a)
}

func printSpeechStatus(cmd *cobra.Command, a *app) error {
	out := cmd.OutOrStdout()
	creds := a.speaker.Credentials()
	local := "not found"
	if a.local.Available() {
		local = a.local.Tool()
		if v := a.speaker.Voice(); v != nil {
			local += fmt.Sprintf(" (voice %s, %s)", v.Name, v.Lang)
		}
	}
	cloud := "not configured"
	if creds.Configured() {
		cloud = fmt.Sprintf("key %s, region %s", maskKey(creds.Key), creds.Region)
	}
	lines := []string{
		"Backend: " + a.speaker.Backend().Kind().String(),
		"Local:   " + local,
		"Cloud:   " + cloud,
	}
	for _, line := range lines {
		if err := writeLine(out, line); err != nil {
			return err
		}
	}
	if !a.speaker.SpeechEnabled() && !creds.Configured() {
		return speech.ErrCapabilityUnavailable
	}
	return nil
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
