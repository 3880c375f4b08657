package speech

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Synthesizer commands probed in order when none is configured.
var localCommands = []string{"espeak-ng", "espeak", "say", "spd-say"}

const baseWordsPerMinute = 175

// CommandSynth speaks through a local synthesizer command. One utterance plays
// at a time; starting a new one stops the previous process.
type CommandSynth struct {
	path string
	tool string
	rate float64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCommandSynth resolves command on PATH, or the first known synthesizer
// when command is empty. The result reports unavailable if nothing resolves.
func NewCommandSynth(command string, rate float64) *CommandSynth {
	if rate <= 0 {
		rate = 1
	}
	s := &CommandSynth{rate: rate}
	candidates := localCommands
	if strings.TrimSpace(command) != "" {
		candidates = []string{strings.TrimSpace(command)}
	}
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			s.path = path
			s.tool = filepath.Base(name)
			break
		}
	}
	return s
}

// Available reports whether a synthesizer command was found.
func (s *CommandSynth) Available() bool {
	return s.path != ""
}

// Tool returns the resolved command name.
func (s *CommandSynth) Tool() string {
	return s.tool
}

// Voices lists the voices the synthesizer offers.
func (s *CommandSynth) Voices(ctx context.Context) ([]Voice, error) {
	if !s.Available() {
		return nil, ErrCapabilityUnavailable
	}
	var args []string
	var parse func(string) []Voice
	switch s.tool {
	case "espeak-ng", "espeak":
		args, parse = []string{"--voices"}, parseEspeakVoices
	case "say":
		args, parse = []string{"-v", "?"}, parseSayVoices
	case "spd-say":
		args, parse = []string{"-L"}, parseSpdVoices
	default:
		return nil, nil
	}
	out, err := exec.CommandContext(ctx, s.path, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list voices: %w", err)
	}
	return parse(string(out)), nil
}

// Speak starts reading text and returns without waiting for it to finish.
func (s *CommandSynth) Speak(ctx context.Context, text string, voice *Voice, lang string) error {
	if !s.Available() {
		return ErrCapabilityUnavailable
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	args := buildArgs(s.tool, text, voice, lang, s.rate)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	procCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(procCtx, s.path, args...)
	if err := cmd.Start(); err != nil {
		cancel()
		s.cancel = nil
		return fmt.Errorf("failed to start %s: %w", s.tool, err)
	}
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	go func() {
		_ = cmd.Wait()
		cancel()
		close(done)
	}()
	return nil
}

// Wait blocks until the current utterance finishes.
func (s *CommandSynth) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Cancel stops the utterance in progress.
func (s *CommandSynth) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func buildArgs(tool, text string, voice *Voice, lang string, rate float64) []string {
	wpm := strconv.Itoa(int(baseWordsPerMinute*rate + 0.5))
	switch tool {
	case "espeak-ng", "espeak":
		name := lang
		if voice != nil {
			name = voice.Name
		}
		args := []string{"-s", wpm}
		if name != "" {
			args = append(args, "-v", name)
		}
		return append(args, "--", text)
	case "say":
		args := []string{"-r", wpm}
		if voice != nil {
			args = append(args, "-v", voice.Name)
		}
		return append(args, "--", text)
	case "spd-say":
		rel := int(math.Round((rate - 1) * 100))
		if rel < -100 {
			rel = -100
		}
		if rel > 100 {
			rel = 100
		}
		args := []string{"-r", strconv.Itoa(rel)}
		if primary, _, _ := strings.Cut(normalizeLang(lang), "-"); primary != "" {
			args = append(args, "-l", primary)
		}
		if voice != nil {
			args = append(args, "-y", voice.Name)
		}
		return append(args, "--", text)
	default:
		return []string{text}
	}
}

// parseEspeakVoices reads `espeak --voices` output:
//
//	Pty Language       Age/Gender VoiceName          File          Other Languages
//	 5  sv              --/M      Swedish            gmw/sv
func parseEspeakVoices(out string) []Voice {
	var voices []Voice
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		voices = append(voices, Voice{Lang: fields[1], Name: fields[3]})
	}
	return voices
}

// parseSayVoices reads `say -v ?` output:
//
//	Alva                sv_SE    # Hej! Jag heter Alva.
func parseSayVoices(out string) []Voice {
	var voices []Voice
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		line, _, _ := strings.Cut(scanner.Text(), "#")
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		lang := fields[len(fields)-1]
		name := strings.Join(fields[:len(fields)-1], " ")
		voices = append(voices, Voice{Lang: lang, Name: name})
	}
	return voices
}

// parseSpdVoices reads `spd-say -L` output:
//
//	NAME                 LANGUAGE  VARIANT
//	Swedish              sv        none
func parseSpdVoices(out string) []Voice {
	var voices []Voice
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || fields[0] == "NAME" {
			continue
		}
		voices = append(voices, Voice{Lang: fields[1], Name: fields[0]})
	}
	return voices
}
