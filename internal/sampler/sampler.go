// Package sampler draws randomized card subsets.
package sampler

import (
	"errors"
	"math/rand"
	"time"

	"github.com/verte-zerg/tuicard/internal/model"
)

// DefaultSize is the number of cards drawn for a session.
const DefaultSize = 10

// ErrInvalidSize is returned when a draw size is not positive.
var ErrInvalidSize = errors.New("session size must be greater than 0")

// Sampler produces random permutations and bounded draws.
type Sampler struct {
	rnd *rand.Rand
}

// New returns a Sampler seeded with the current time.
func New() *Sampler {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Sampler.
func NewWithSeed(seed int64) *Sampler {
	return &Sampler{rnd: rand.New(rand.NewSource(seed))}
}

// Shuffle returns a uniformly permuted copy of items. The input is not modified.
func Shuffle[T any](rnd *rand.Rand, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Shuffle returns a permuted copy of cards.
func (s *Sampler) Shuffle(cards []model.Card) []model.Card {
	return Shuffle(s.rnd, cards)
}

// Draw shuffles cards and keeps at most size of them.
func (s *Sampler) Draw(cards []model.Card, size int) ([]model.Card, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	shuffled := s.Shuffle(cards)
	if size < len(shuffled) {
		shuffled = shuffled[:size]
	}
	return shuffled, nil
}
