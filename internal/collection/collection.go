// Package collection keeps named card collections in memory and persists them.
package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/verte-zerg/tuicard/internal/cards"
	"github.com/verte-zerg/tuicard/internal/model"
)

var (
	// ErrValidation is returned when a name or card text is not acceptable.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned for unknown collection names.
	ErrNotFound = errors.New("collection not found")
)

// Persister reads and writes the whole collection mapping.
type Persister interface {
	LoadCollections(ctx context.Context) (map[string]string, error)
	SaveCollections(ctx context.Context, collections map[string]string) error
}

// Provider supplies bundled datasets by file name.
type Provider interface {
	Names() []string
	Fetch(ctx context.Context, name string) (string, error)
}

// Store maps collection names to raw card text.
type Store struct {
	persister Persister
	provider  Provider
	logger    *slog.Logger

	entries map[string]string
	skipped []string
}

// New returns an empty store. provider may be nil when no bundled data is wanted.
func New(persister Persister, provider Provider, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		persister: persister,
		provider:  provider,
		logger:    logger,
		entries:   map[string]string{},
	}
}

// LoadAll reads persisted collections and adds each bundled dataset whose
// label is not already taken. A dataset that fails to load is logged and
// skipped.
func (s *Store) LoadAll(ctx context.Context) (map[string]string, error) {
	persisted, err := s.persister.LoadCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load collections: %w", err)
	}
	entries := make(map[string]string, len(persisted))
	for name, text := range persisted {
		entries[name] = text
	}
	s.skipped = nil

	if s.provider != nil {
		for _, file := range s.provider.Names() {
			label := cards.DisplayName(file)
			if _, ok := entries[label]; ok {
				continue
			}
			text, err := s.provider.Fetch(ctx, file)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				s.logger.Warn("could not load bundled collection", "file", file, "err", err)
				s.skipped = append(s.skipped, file)
				continue
			}
			entries[label] = strings.TrimSpace(text)
		}
	}

	s.entries = entries
	return s.All(), nil
}

// Skipped returns the bundled files that failed during the last LoadAll.
func (s *Store) Skipped() []string {
	return append([]string(nil), s.skipped...)
}

// All returns a copy of the mapping.
func (s *Store) All() map[string]string {
	out := make(map[string]string, len(s.entries))
	for name, text := range s.entries {
		out[name] = text
	}
	return out
}

// Names returns the collection names in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select returns the raw text of a collection.
func (s *Store) Select(name string) (string, error) {
	text, ok := s.entries[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return text, nil
}

// Cards returns the parsed cards of a collection.
func (s *Store) Cards(name string) ([]model.Card, error) {
	text, err := s.Select(name)
	if err != nil {
		return nil, err
	}
	return cards.Parse(text), nil
}

// Save inserts or overwrites a collection and persists the whole mapping.
func (s *Store) Save(ctx context.Context, name, text string) error {
	name = strings.TrimSpace(name)
	text = strings.TrimSpace(text)
	if name == "" {
		return fmt.Errorf("%w: collection name is empty", ErrValidation)
	}
	if text == "" {
		return fmt.Errorf("%w: card data is empty", ErrValidation)
	}
	if _, err := cards.ParseStrict(text); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	prev, existed := s.entries[name]
	s.entries[name] = text
	if err := s.persist(ctx); err != nil {
		if existed {
			s.entries[name] = prev
		} else {
			delete(s.entries, name)
		}
		return err
	}
	return nil
}

// Delete removes a collection and persists the whole mapping.
func (s *Store) Delete(ctx context.Context, name string) error {
	prev, ok := s.entries[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(s.entries, name)
	if err := s.persist(ctx); err != nil {
		s.entries[name] = prev
		return err
	}
	return nil
}

func (s *Store) persist(ctx context.Context) error {
	if err := s.persister.SaveCollections(ctx, s.All()); err != nil {
		return fmt.Errorf("failed to save collections: %w", err)
	}
	return nil
}
