package speech

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultTokenURL issues short-lived access tokens. {region} is substituted.
	DefaultTokenURL = "https://{region}.api.cognitive.microsoft.com/sts/v1.0/issueToken"
	// DefaultSynthURL synthesizes SSML into audio. {region} is substituted.
	DefaultSynthURL = "https://{region}.tts.speech.microsoft.com/cognitiveservices/v1"

	outputFormat = "riff-24khz-16bit-mono-pcm"
	tokenTTL     = 9 * time.Minute
	maxDetail    = 200
)

// ErrNoPlayer is returned when no audio player command is found.
var ErrNoPlayer = errors.New("no audio player available")

// Player plays synthesized audio and returns when playback ends.
type Player interface {
	Play(ctx context.Context, audio []byte) error
}

// Azure speaks through the Azure text-to-speech REST API.
type Azure struct {
	TokenURL string
	SynthURL string
	Rate     float64

	client *http.Client
	player Player
	now    func() time.Time

	mu      sync.Mutex
	token   string
	tokenOf Credentials
	expires time.Time
}

// NewAzure returns a cloud synthesizer that plays audio through player.
func NewAzure(player Player, rate float64) *Azure {
	if rate <= 0 {
		rate = 1
	}
	return &Azure{
		TokenURL: DefaultTokenURL,
		SynthURL: DefaultSynthURL,
		Rate:     rate,
		client:   &http.Client{Timeout: 15 * time.Second},
		player:   player,
		now:      time.Now,
	}
}

// Init verifies the credentials by issuing an access token.
func (a *Azure) Init(ctx context.Context, creds Credentials) error {
	if !creds.Configured() {
		return ErrNotConfigured
	}
	if a.player == nil {
		return ErrNoPlayer
	}
	_, err := a.accessToken(ctx, creds)
	return err
}

// Synthesize converts text to speech with voiceID and plays it.
func (a *Azure) Synthesize(ctx context.Context, text string, creds Credentials, voiceID string) Result {
	if !creds.Configured() {
		return Result{Err: ErrNotConfigured}
	}
	token, err := a.accessToken(ctx, creds)
	if err != nil {
		return Result{Err: err}
	}

	body := buildSSML(text, voiceID, a.Rate)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, regionURL(a.SynthURL, creds.Region), strings.NewReader(body))
	if err != nil {
		return Result{Err: fmt.Errorf("failed to build synthesis request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", outputFormat)
	req.Header.Set("User-Agent", "tuicard")

	resp, err := a.client.Do(req)
	if err != nil {
		return Result{Err: fmt.Errorf("failed to request synthesis: %w", err)}
	}
	defer func() {
		// Best-effort close.
		_ = resp.Body.Close()
	}()
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Err: fmt.Errorf("failed to read audio: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized {
			a.dropToken()
		}
		return Result{Err: fmt.Errorf("synthesis failed: %s", resp.Status), Detail: detail(audio)}
	}
	if err := a.player.Play(ctx, audio); err != nil {
		return Result{Err: fmt.Errorf("failed to play audio: %w", err)}
	}
	return Result{}
}

func (a *Azure) accessToken(ctx context.Context, creds Credentials) (string, error) {
	a.mu.Lock()
	if a.token != "" && a.tokenOf == creds && a.now().Before(a.expires) {
		token := a.token
		a.mu.Unlock()
		return token, nil
	}
	a.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, regionURL(a.TokenURL, creds.Region), http.NoBody)
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", creds.Key)
	req.Header.Set("User-Agent", "tuicard")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to request token: %w", err)
	}
	defer func() {
		// Best-effort close.
		_ = resp.Body.Close()
	}()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request failed: %s: %s", resp.Status, detail(data))
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", errors.New("token request returned an empty token")
	}

	a.mu.Lock()
	a.token = token
	a.tokenOf = creds
	a.expires = a.now().Add(tokenTTL)
	a.mu.Unlock()
	return token, nil
}

func (a *Azure) dropToken() {
	a.mu.Lock()
	a.token = ""
	a.mu.Unlock()
}

func regionURL(template, region string) string {
	return strings.ReplaceAll(template, "{region}", strings.TrimSpace(region))
}

func buildSSML(text, voiceID string, rate float64) string {
	lang := voiceLang(voiceID)
	var b bytes.Buffer
	b.WriteString("<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='")
	_ = xml.EscapeText(&b, []byte(lang))
	b.WriteString("'><voice name='")
	_ = xml.EscapeText(&b, []byte(voiceID))
	b.WriteString("'><prosody rate='")
	b.WriteString(strconv.FormatFloat(rate, 'f', -1, 64))
	b.WriteString("'>")
	_ = xml.EscapeText(&b, []byte(text))
	b.WriteString("</prosody></voice></speak>")
	return b.String()
}

// voiceLang extracts "sv-SE" from "sv-SE-SofieNeural".
func voiceLang(voiceID string) string {
	parts := strings.SplitN(voiceID, "-", 3)
	if len(parts) < 2 {
		return "en-US"
	}
	return parts[0] + "-" + parts[1]
}

func detail(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxDetail {
		s = s[:maxDetail]
	}
	return s
}

// Audio player commands probed in order when none is configured.
var playerCommands = []string{"aplay", "paplay", "afplay", "ffplay"}

// CommandPlayer plays audio through an external player command.
type CommandPlayer struct {
	path string
	tool string
}

// NewCommandPlayer resolves command on PATH, or the first known player when
// command is empty. It returns nil when nothing resolves.
func NewCommandPlayer(command string) *CommandPlayer {
	candidates := playerCommands
	if strings.TrimSpace(command) != "" {
		candidates = []string{strings.TrimSpace(command)}
	}
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return &CommandPlayer{path: path, tool: filepath.Base(name)}
		}
	}
	return nil
}

// Play writes audio to a temporary file and plays it.
func (p *CommandPlayer) Play(ctx context.Context, audio []byte) error {
	if p == nil {
		return ErrNoPlayer
	}
	f, err := os.CreateTemp("", "tuicard-*.wav")
	if err != nil {
		return fmt.Errorf("failed to create audio file: %w", err)
	}
	name := f.Name()
	defer func() {
		// Best-effort cleanup.
		_ = os.Remove(name)
	}()
	if _, err := f.Write(audio); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	args := playerArgs(p.tool, name)
	if out, err := exec.CommandContext(ctx, p.path, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", p.tool, err, detail(out))
	}
	return nil
}

func playerArgs(tool, file string) []string {
	switch tool {
	case "aplay":
		return []string{"-q", file}
	case "ffplay":
		return []string{"-nodisp", "-autoexit", "-loglevel", "quiet", file}
	default:
		return []string{file}
	}
}
