// Package speech reads card words aloud.
//
// Two interchangeable backends are supported: a local synthesizer running on
// the machine and a cloud text-to-speech service. The Dispatcher tries local
// synthesis first and falls back to the cloud when credentials are configured.
package speech

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrCapabilityUnavailable is returned when no backend can speak.
	ErrCapabilityUnavailable = errors.New("no speech engine available")
	// ErrNotConfigured is returned when cloud credentials are missing.
	ErrNotConfigured = errors.New("cloud speech is not configured")
)

// Kind names a backend variant.
type Kind int

const (
	// KindNone means nothing can speak.
	KindNone Kind = iota
	// KindLocal is on-device synthesis.
	KindLocal
	// KindCloud is the cloud service.
	KindCloud
)

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindCloud:
		return "cloud"
	default:
		return "none"
	}
}

// Credentials authenticate against the cloud service.
type Credentials struct {
	Key    string
	Region string
}

// Configured reports whether both fields are set.
func (c Credentials) Configured() bool {
	return strings.TrimSpace(c.Key) != "" && strings.TrimSpace(c.Region) != ""
}

// Backend is the variant selected for the next utterance.
type Backend struct {
	kind  Kind
	creds Credentials
}

// None returns the empty variant.
func None() Backend { return Backend{kind: KindNone} }

// Local returns the on-device variant.
func Local() Backend { return Backend{kind: KindLocal} }

// Cloud returns the cloud variant carrying its credentials.
func Cloud(creds Credentials) Backend { return Backend{kind: KindCloud, creds: creds} }

// Kind returns the variant tag.
func (b Backend) Kind() Kind { return b.kind }

// Credentials returns the cloud credentials for the Cloud variant.
func (b Backend) Credentials() (Credentials, bool) {
	return b.creds, b.kind == KindCloud
}

// Voice is a voice offered by a local synthesizer.
type Voice struct {
	Lang string
	Name string
}

// Result is the outcome of a cloud synthesis request.
type Result struct {
	Err    error
	Detail string
}

// OK reports whether the audio was synthesized and played.
func (r Result) OK() bool { return r.Err == nil }

// LocalSynth is an on-device synthesizer. Speak returns once the utterance is
// started and replaces any utterance still playing.
type LocalSynth interface {
	Available() bool
	Voices(ctx context.Context) ([]Voice, error)
	Speak(ctx context.Context, text string, voice *Voice, lang string) error
	Cancel()
}

// CloudSynth is a cloud text-to-speech service. Init performs the one-time
// setup needed before Synthesize can be used with the given credentials.
type CloudSynth interface {
	Init(ctx context.Context, creds Credentials) error
	Synthesize(ctx context.Context, text string, creds Credentials, voiceID string) Result
}
