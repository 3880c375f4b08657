// Package session implements the study session state machine.
//
// A session moves Idle -> InProgress -> Complete. A review round re-enters
// InProgress with the cards missed in the previous round. Callers observe the
// engine by reading its accessors after each operation.
package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/verte-zerg/tuicard/internal/cards"
	"github.com/verte-zerg/tuicard/internal/model"
)

// State is the session lifecycle state.
type State int

const (
	// Idle means no session has been started.
	Idle State = iota
	// InProgress means cards remain to be answered.
	InProgress
	// Complete means every drawn card has been marked.
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InProgress:
		return "in progress"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Verdict is the outcome of a typed answer.
type Verdict int

const (
	// VerdictNone means no answer has been judged for the current card.
	VerdictNone Verdict = iota
	// VerdictCorrect means the typed answer matched.
	VerdictCorrect
	// VerdictIncorrect means the typed answer did not match.
	VerdictIncorrect
)

var (
	// ErrEmptyCollection is returned when starting with no cards.
	ErrEmptyCollection = errors.New("collection has no cards")
	// ErrNotInProgress is returned for card operations outside a running round.
	ErrNotInProgress = errors.New("no session in progress")
	// ErrWrongMode is returned when an operation does not apply to the current mode.
	ErrWrongMode = errors.New("operation not available in this mode")
	// ErrNotRevealed is returned when marking a card before its answer is shown.
	ErrNotRevealed = errors.New("answer not revealed yet")
	// ErrNoIncorrect is returned when a review is requested with no missed cards.
	ErrNoIncorrect = errors.New("no incorrect cards to review")
)

// Drawer supplies randomized card orderings.
type Drawer interface {
	Draw(cards []model.Card, size int) ([]model.Card, error)
	Shuffle(cards []model.Card) []model.Card
}

// Prompt is what the current card asks and what it expects.
type Prompt struct {
	Card   model.Card
	Prompt string
	Answer string
}

// Round summarizes the cards marked in the current round.
type Round struct {
	Total     int
	Correct   int
	Incorrect int
	Review    bool
}

// Engine holds the state of one study session.
type Engine struct {
	drawer Drawer
	mode   model.Mode

	state     State
	cards     []model.Card
	index     int
	correct   int
	incorrect []model.Card
	review    bool

	flipped bool
	typed   string
	verdict Verdict
}

// New returns an idle engine.
func New(drawer Drawer, mode model.Mode) *Engine {
	if mode == "" {
		mode = model.ModeFlip
	}
	return &Engine{drawer: drawer, mode: mode}
}

// SetMode switches between flip and typing. The current card's transient state is cleared.
func (e *Engine) SetMode(mode model.Mode) error {
	if mode != model.ModeFlip && mode != model.ModeTyping {
		return fmt.Errorf("%w: unknown mode %q", ErrWrongMode, mode)
	}
	e.mode = mode
	e.clearCard()
	return nil
}

// Start draws a fresh round of at most length cards.
func (e *Engine) Start(list []model.Card, length int) error {
	if len(list) == 0 {
		return ErrEmptyCollection
	}
	drawn, err := e.drawer.Draw(list, length)
	if err != nil {
		return err
	}
	e.cards = drawn
	e.index = 0
	e.correct = 0
	e.incorrect = nil
	e.review = false
	e.state = InProgress
	e.Present()
	return nil
}

// Present moves to the current card, clearing its transient state. It reports
// false and completes the round when no cards remain.
func (e *Engine) Present() (Prompt, bool) {
	if e.state == Idle {
		return Prompt{}, false
	}
	if e.index >= len(e.cards) {
		e.state = Complete
		e.clearCard()
		return Prompt{}, false
	}
	e.clearCard()
	return e.prompt(), true
}

// Current returns the current card without changing state.
func (e *Engine) Current() (Prompt, bool) {
	if e.state != InProgress || e.index >= len(e.cards) {
		return Prompt{}, false
	}
	return e.prompt(), true
}

func (e *Engine) prompt() Prompt {
	card := e.cards[e.index]
	if e.mode == model.ModeTyping {
		return Prompt{Card: card, Prompt: card.Target, Answer: card.Source}
	}
	return Prompt{Card: card, Prompt: card.Source, Answer: card.Target}
}

// Flip reveals the answer in flip mode. Flipping twice is a no-op.
func (e *Engine) Flip() error {
	if e.state != InProgress {
		return ErrNotInProgress
	}
	if e.mode != model.ModeFlip {
		return ErrWrongMode
	}
	e.flipped = true
	return nil
}

// Submit judges a typed answer in typing mode. The expected answer only has to
// contain the submission, so partial answers are accepted. A second submission
// for the same card returns the first verdict.
func (e *Engine) Submit(text string) (Verdict, error) {
	if e.state != InProgress {
		return VerdictNone, ErrNotInProgress
	}
	if e.mode != model.ModeTyping {
		return VerdictNone, ErrWrongMode
	}
	if e.flipped {
		return e.verdict, nil
	}
	expected := cards.Fold(e.cards[e.index].Source)
	given := cards.Fold(text)
	e.typed = text
	e.flipped = true
	if given != "" && strings.Contains(expected, given) {
		e.verdict = VerdictCorrect
	} else {
		e.verdict = VerdictIncorrect
	}
	return e.verdict, nil
}

// MarkCorrect records the current card as known and advances.
func (e *Engine) MarkCorrect() error {
	if err := e.checkRevealed(); err != nil {
		return err
	}
	e.correct++
	e.advance()
	return nil
}

// MarkIncorrect records the current card as missed and advances.
func (e *Engine) MarkIncorrect() error {
	if err := e.checkRevealed(); err != nil {
		return err
	}
	e.incorrect = append(e.incorrect, e.cards[e.index])
	e.advance()
	return nil
}

func (e *Engine) checkRevealed() error {
	if e.state != InProgress {
		return ErrNotInProgress
	}
	if !e.flipped {
		return ErrNotRevealed
	}
	return nil
}

func (e *Engine) advance() {
	e.index++
	e.Present()
}

// StartReview begins a round made of the missed cards, which are then cleared.
func (e *Engine) StartReview() error {
	if len(e.incorrect) == 0 {
		return ErrNoIncorrect
	}
	e.cards = e.drawer.Shuffle(e.incorrect)
	e.index = 0
	e.correct = 0
	e.incorrect = nil
	e.review = true
	e.state = InProgress
	e.Present()
	return nil
}

// Reset discards the session and returns to Idle.
func (e *Engine) Reset() {
	e.state = Idle
	e.cards = nil
	e.index = 0
	e.correct = 0
	e.incorrect = nil
	e.review = false
	e.clearCard()
}

func (e *Engine) clearCard() {
	e.flipped = false
	e.typed = ""
	e.verdict = VerdictNone
}

// State returns the lifecycle state.
func (e *Engine) State() State { return e.state }

// Mode returns the recall mode.
func (e *Engine) Mode() model.Mode { return e.mode }

// Index returns the 0-based position of the current card.
func (e *Engine) Index() int { return e.index }

// Len returns the number of cards in the round.
func (e *Engine) Len() int { return len(e.cards) }

// CorrectCount returns the cards marked correct this round.
func (e *Engine) CorrectCount() int { return e.correct }

// IncorrectCards returns a copy of the cards missed this round.
func (e *Engine) IncorrectCards() []model.Card {
	return append([]model.Card(nil), e.incorrect...)
}

// Cards returns a copy of the cards drawn for the round.
func (e *Engine) Cards() []model.Card {
	return append([]model.Card(nil), e.cards...)
}

// IsReview reports whether the round is a review round.
func (e *Engine) IsReview() bool { return e.review }

// IsComplete reports whether every card in the round has been marked.
func (e *Engine) IsComplete() bool { return e.state == Complete }

// IsFlipped reports whether the current answer is revealed.
func (e *Engine) IsFlipped() bool { return e.flipped }

// Typed returns the submitted answer for the current card.
func (e *Engine) Typed() string { return e.typed }

// Verdict returns the typed-answer verdict for the current card.
func (e *Engine) Verdict() Verdict { return e.verdict }

// Round summarizes the marks recorded so far.
func (e *Engine) Round() Round {
	return Round{
		Total:     len(e.cards),
		Correct:   e.correct,
		Incorrect: len(e.incorrect),
		Review:    e.review,
	}
}
