// Package main provides the CLI entrypoint for tuicard.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/tuicard/internal/bundled"
	"github.com/verte-zerg/tuicard/internal/collection"
	"github.com/verte-zerg/tuicard/internal/config"
	"github.com/verte-zerg/tuicard/internal/model"
	"github.com/verte-zerg/tuicard/internal/sampler"
	"github.com/verte-zerg/tuicard/internal/speech"
	"github.com/verte-zerg/tuicard/internal/stats"
	"github.com/verte-zerg/tuicard/internal/store"
	"github.com/verte-zerg/tuicard/internal/tui"
)

const (
	defaultLength      = sampler.DefaultSize
	defaultMode        = string(model.ModeFlip)
	defaultLang        = "sv-SE"
	defaultVoice       = "sofie"
	defaultCloudVoice  = "sv-SE-SofieNeural"
	defaultRegion      = "swedencentral"
	defaultRate        = 0.9
	defaultCurveWindow = 5
)

var (
	practiceCollection string
	practiceLength     int
	practiceMode       string
	verbose            bool

	statsCollection  string
	statsSince       string
	statsLast        int
	statsCurveWindow int

	speechKey    string
	speechRegion string
	speechClear  bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tuicard",
		Short:         "TUI vocabulary flashcard trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceCollection, "collection", "", "collection to study right away")
	rootCmd.Flags().IntVar(&practiceLength, "length", defaultLength, "cards per round")
	rootCmd.Flags().StringVar(&practiceMode, "mode", defaultMode, "study mode (flip or typing)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug details")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCollectionsCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newSpeakCmd())
	rootCmd.AddCommand(newSpeechCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

// loadConfig merges defaults, the config file and explicitly set flags.
func loadConfig(cmd *cobra.Command) (model.Config, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Lookup("length") != nil {
		applyStringConfig(cmd, "collection", &practiceCollection, fileCfg.Practice.Collection)
		applyIntConfig(cmd, "length", &practiceLength, fileCfg.Practice.Length)
		applyStringConfig(cmd, "mode", &practiceMode, fileCfg.Practice.Mode)
	} else {
		practiceLength = defaultLength
		practiceMode = defaultMode
		applyValue(&practiceLength, fileCfg.Practice.Length)
		applyValue(&practiceMode, fileCfg.Practice.Mode)
	}

	cfg := model.Config{
		Collection: strings.TrimSpace(practiceCollection),
		Length:     practiceLength,
		Mode:       model.Mode(strings.ToLower(strings.TrimSpace(practiceMode))),
		Speech: model.SpeechConfig{
			Lang:       defaultLang,
			Voice:      defaultVoice,
			CloudVoice: defaultCloudVoice,
			Region:     defaultRegion,
			Rate:       defaultRate,
		},
	}
	applyValue(&cfg.Source, fileCfg.Collections.Source)
	sp := fileCfg.Speech
	applyValue(&cfg.Speech.Lang, sp.Lang)
	applyValue(&cfg.Speech.Voice, sp.Voice)
	applyValue(&cfg.Speech.CloudVoice, sp.CloudVoice)
	applyValue(&cfg.Speech.Region, sp.Region)
	applyValue(&cfg.Speech.Command, sp.Command)
	applyValue(&cfg.Speech.Player, sp.Player)
	applyValue(&cfg.Speech.Rate, sp.Rate)
	applyValue(&cfg.Speech.Notify, sp.Notify)

	if err := config.Validate(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logFile, err := config.OpenLogFile(config.DefaultLogPath())
	if err != nil {
		return err
	}
	defer func() {
		// Best-effort close.
		_ = logFile.Close()
	}()
	logger := config.NewLogger(logFile, verbose)

	relay := &tui.Relay{}
	notifier := speech.Multi{relay, speech.NewDesktop(cfg.Speech.Notify)}
	a, err := openApp(cmd.Context(), cfg, logger, notifier, relay.Result)
	if err != nil {
		return err
	}
	defer a.close()

	if skipped := a.collections.Skipped(); len(skipped) > 0 {
		logErrf("Some bundled collections could not be loaded: %s\n", strings.Join(skipped, ", "))
	}

	m := tui.NewModel(cfg, tui.Deps{
		Collections: a.collections,
		History:     a.store,
		Credentials: a.store,
		Speaker:     a.speaker,
		Drawer:      sampler.New(),
		Logger:      logger,
	})
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	relay.Attach(program)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	a.speaker.Stop()
	return nil
}

// app bundles the opened services shared by commands.
type app struct {
	store       *store.Store
	collections *collection.Store
	speaker     *speech.Dispatcher
	local       *speech.CommandSynth
}

func openApp(ctx context.Context, cfg model.Config, logger *slog.Logger, notifier speech.Notifier, onResult func(speech.Result)) (*app, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	a := &app{store: st}

	a.collections = collection.New(st, newProvider(cfg), logger)
	if _, err := a.collections.LoadAll(ctx); err != nil {
		a.close()
		return nil, err
	}

	key, region, err := st.Credentials(ctx)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to load speech settings: %w", err)
	}
	if key != "" && region == "" {
		region = cfg.Speech.Region
	}

	a.local = speech.NewCommandSynth(cfg.Speech.Command, cfg.Speech.Rate)
	var player speech.Player
	if p := speech.NewCommandPlayer(cfg.Speech.Player); p != nil {
		player = p
	}
	a.speaker = speech.NewDispatcher(a.local, speech.NewAzure(player, cfg.Speech.Rate), speech.Options{
		Lang:           cfg.Speech.Lang,
		PreferredVoice: cfg.Speech.Voice,
		CloudVoice:     cfg.Speech.CloudVoice,
		Logger:         logger,
		Notifier:       notifier,
		OnResult:       onResult,
	})
	a.speaker.SetCredentials(speech.Credentials{Key: key, Region: region})
	if err := a.speaker.RefreshVoices(ctx); err != nil {
		logger.Warn("failed to list local voices", "err", err)
	}
	logger.Debug("speech ready", "backend", a.speaker.Backend().Kind(), "local", a.local.Tool())
	return a, nil
}

func newProvider(cfg model.Config) collection.Provider {
	if cfg.Source != "" {
		return bundled.NewHTTP(cfg.Source, bundled.DefaultNames)
	}
	return bundled.NewEmbedded()
}

func (a *app) close() {
	if a.store == nil {
		return
	}
	if cerr := a.store.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

// openCLI opens the app for a non-interactive subcommand logging to stderr.
func openCLI(cmd *cobra.Command) (*app, model.Config, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, model.Config{}, nil, err
	}
	logger := config.NewLogger(cmd.ErrOrStderr(), verbose)
	notifier := speech.NotifierFunc(func(_, message string) {
		logErrln(message)
	})
	a, err := openApp(cmd.Context(), cfg, logger, notifier, func(res speech.Result) {
		if res.Err != nil {
			logger.Error("cloud speech failed", "err", res.Err, "detail", res.Detail)
		}
	})
	if err != nil {
		return nil, model.Config{}, nil, err
	}
	return a, cfg, logger, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show study history",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsCollection, "collection", "", "collection filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N rounds")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if statsLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}

	cfg := model.StatsConfig{
		Collection:  statsCollection,
		Since:       sinceTime,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	report, err := stats.BuildReport(cmd.Context(), st, cfg)
	if err != nil {
		return err
	}
	return report.Render(cmd.OutOrStdout())
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

// applyValue copies a file value that has no matching flag.
func applyValue[T any](target, value *T) {
	if value != nil {
		*target = *value
	}
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# tuicard configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# collection = "Idioms"     # Collection to study right away
# length = %d               # Cards per round
# mode = %q             # Study mode: "flip" or "typing"

[speech]
# lang = %q            # Language spoken aloud
# voice = %q            # Preferred local voice name
# cloud-voice = %q # Cloud voice
# region = %q   # Default cloud region
# command = "espeak-ng"     # Local synthesizer (default: first found)
# player = "aplay"          # Audio player for cloud speech (default: first found)
# rate = %.1f                # Speaking rate
# notify = false            # Desktop notification when speech is unavailable

[collections]
# source = "https://example.com/datasets" # Fetch bundled collections from this URL
`,
		defaultLength,
		defaultMode,
		defaultLang,
		defaultVoice,
		defaultCloudVoice,
		defaultRegion,
		defaultRate,
	)
}

func writeLine(w io.Writer, args ...any) error {
	if _, err := fmt.Fprintln(w, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
