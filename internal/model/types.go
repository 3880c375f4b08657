// Package model defines shared data structures.
package model

import "time"

// Mode selects the recall direction of a study session.
type Mode string

const (
	// ModeFlip shows the source word and reveals the target on demand.
	ModeFlip Mode = "flip"
	// ModeTyping shows the target word and expects the source word typed in.
	ModeTyping Mode = "typing"
)

// Card is a source/target word pair. Cards compare by value.
type Card struct {
	Source string
	Target string
}

// Config defines practice settings.
type Config struct {
	Collection string `validate:"omitempty"`
	Length     int    `validate:"gt=0"`
	Mode       Mode   `validate:"oneof=flip typing"`
	Source     string `validate:"omitempty,url"`
	Speech     SpeechConfig
}

// SpeechConfig defines text-to-speech settings.
type SpeechConfig struct {
	Lang       string  `validate:"required"`
	Voice      string  `validate:"omitempty"`
	CloudVoice string  `validate:"required"`
	Region     string  `validate:"omitempty"`
	Command    string  `validate:"omitempty"`
	Player     string  `validate:"omitempty"`
	Rate       float64 `validate:"gt=0,lte=4"`
	Notify     bool
}

// StatsConfig defines filters for stats output.
type StatsConfig struct {
	Collection  string
	Since       *time.Time
	Last        int
	CurveWindow int
}

// SessionRecord captures one completed study round.
type SessionRecord struct {
	RunID      string
	Collection string
	Mode       Mode
	Review     bool
	Total      int
	Correct    int
	StartedAt  time.Time
	EndedAt    time.Time
}

// Aggregated rows for reporting.

// SessionAggregate summarizes a stored round.
type SessionAggregate struct {
	SessionID  int64
	RunID      string
	Collection string
	Review     bool
	EndedAt    time.Time
	Total      int
	Correct    int
	DurationMs int64
}

// CollectionAggregate summarizes rounds per collection.
type CollectionAggregate struct {
	Collection string
	Rounds     int
	Total      int
	Correct    int
}
