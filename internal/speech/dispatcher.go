package speech

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

const unavailableNotice = "No speech engine available. Install a local synthesizer or configure cloud speech."

// Options configure a Dispatcher.
type Options struct {
	// Lang is the language tag spoken, e.g. "sv-SE".
	Lang string
	// PreferredVoice is matched against local voice names.
	PreferredVoice string
	// CloudVoice is the fixed cloud voice identity.
	CloudVoice string
	Logger     *slog.Logger
	Notifier   Notifier
	// OnResult receives cloud synthesis outcomes. It runs on the synthesis goroutine.
	OnResult func(Result)
}

// Dispatcher picks a backend for each utterance.
type Dispatcher struct {
	local LocalSynth
	cloud CloudSynth
	opts  Options

	group singleflight.Group
	wg    sync.WaitGroup

	mu    sync.Mutex
	creds Credentials
	ready bool
	gen   int
	voice *Voice
}

// NewDispatcher returns a dispatcher. Either backend may be nil.
func NewDispatcher(local LocalSynth, cloud CloudSynth, opts Options) *Dispatcher {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Notifier == nil {
		opts.Notifier = NopNotifier{}
	}
	return &Dispatcher{local: local, cloud: cloud, opts: opts}
}

// SetCredentials replaces the cloud credentials. The cloud backend has to be
// initialized again before its next use.
func (d *Dispatcher) SetCredentials(creds Credentials) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.creds = creds
	d.ready = false
	d.gen++
}

// Credentials returns the current cloud credentials.
func (d *Dispatcher) Credentials() Credentials {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.creds
}

// Voice returns the local voice picked by the last RefreshVoices.
func (d *Dispatcher) Voice() *Voice {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.voice
}

// RefreshVoices re-reads the local voice list and re-picks the voice. Call it
// again when the synthesizer reports its voices late.
func (d *Dispatcher) RefreshVoices(ctx context.Context) error {
	if !d.localAvailable() {
		return nil
	}
	voices, err := d.local.Voices(ctx)
	if err != nil {
		return err
	}
	picked := PickVoice(voices, d.opts.Lang, d.opts.PreferredVoice)
	d.mu.Lock()
	d.voice = picked
	d.mu.Unlock()
	if picked != nil {
		d.opts.Logger.Debug("picked local voice", "name", picked.Name, "lang", picked.Lang)
	}
	return nil
}

// Backend reports the variant the next utterance will try first.
func (d *Dispatcher) Backend() Backend {
	if d.localAvailable() {
		return Local()
	}
	creds := d.Credentials()
	if d.cloud != nil && creds.Configured() {
		return Cloud(creds)
	}
	return None()
}

// Ready reports whether the cloud backend is initialized for the current credentials.
func (d *Dispatcher) Ready() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ready
}

// SpeechEnabled reports whether any backend can speak right now.
func (d *Dispatcher) SpeechEnabled() bool {
	if d.localAvailable() {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cloud != nil && d.ready && d.creds.Configured()
}

// EnsureCloud initializes the cloud backend once per credentials. Concurrent
// callers with the same credentials share a single in-flight initialization.
func (d *Dispatcher) EnsureCloud(ctx context.Context) error {
	if d.cloud == nil {
		return ErrNotConfigured
	}
	d.mu.Lock()
	creds, ready, gen := d.creds, d.ready, d.gen
	d.mu.Unlock()
	if !creds.Configured() {
		return ErrNotConfigured
	}
	if ready {
		return nil
	}
	_, err, _ := d.group.Do("cloud-init:"+strconv.Itoa(gen), func() (any, error) {
		d.mu.Lock()
		done := d.ready && d.gen == gen
		d.mu.Unlock()
		if done {
			return nil, nil
		}
		if err := d.cloud.Init(ctx, creds); err != nil {
			return nil, err
		}
		d.mu.Lock()
		if d.gen == gen {
			d.ready = true
		}
		d.mu.Unlock()
		return nil, nil
	})
	return err
}

// Speak reads text aloud. It returns after dispatching; cloud playback
// completes in the background and is reported through Options.OnResult.
// When nothing can speak the user is notified and ErrCapabilityUnavailable is returned.
func (d *Dispatcher) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	logger := d.opts.Logger

	localTried := false
	if d.localAvailable() {
		localTried = true
		err := d.local.Speak(ctx, text, d.Voice(), d.opts.Lang)
		if err == nil {
			return nil
		}
		logger.Warn("local speech failed", "err", err)
	}

	creds := d.Credentials()
	if d.cloud != nil && creds.Configured() {
		if err := d.EnsureCloud(ctx); err != nil {
			logger.Warn("cloud speech unavailable", "err", err)
		} else {
			d.speakCloud(ctx, text, creds, localTried)
			return nil
		}
	}

	d.opts.Notifier.Notify("Speech", unavailableNotice)
	return ErrCapabilityUnavailable
}

func (d *Dispatcher) speakCloud(ctx context.Context, text string, creds Credentials, localTried bool) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		res := d.cloud.Synthesize(ctx, text, creds, d.opts.CloudVoice)
		if res.OK() {
			d.opts.Logger.Debug("cloud speech completed")
		} else {
			d.opts.Logger.Warn("cloud speech failed", "err", res.Err, "detail", res.Detail)
			if !localTried && d.localAvailable() {
				if err := d.local.Speak(ctx, text, d.Voice(), d.opts.Lang); err != nil {
					d.opts.Logger.Warn("local fallback failed", "err", err)
				}
			}
		}
		if d.opts.OnResult != nil {
			d.opts.OnResult(res)
		}
	}()
}

// Stop cancels local playback.
func (d *Dispatcher) Stop() {
	if d.local != nil {
		d.local.Cancel()
	}
}

// Wait blocks until background cloud requests finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) localAvailable() bool {
	return d.local != nil && d.local.Available()
}
