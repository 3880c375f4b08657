// Package bundled provides the default card datasets shipped with tuicard.
package bundled

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
)

// ErrNotFound is returned when a dataset does not exist in the source.
var ErrNotFound = errors.New("dataset not found")

// DefaultNames lists the shipped datasets in load order.
var DefaultNames = []string{
	"expressions-expats.csv",
	"expressions-urban.csv",
	"idioms.csv",
	"proverbs.csv",
	"vocabulary-emotions.csv",
	"vocabulary-food.csv",
	"vocabulary-travel.csv",
	"vocabulary-vardagslivert.csv",
	"vocabulary-verbs.csv",
	"vocabulary-weather.csv",
}

//go:embed data/*.csv
var dataFS embed.FS

// FS serves datasets from a file system, by default the embedded data.
type FS struct {
	fsys  fs.FS
	names []string
}

// NewEmbedded returns the provider over the shipped datasets.
func NewEmbedded() *FS {
	sub, err := fs.Sub(dataFS, "data")
	if err != nil {
		// The embed pattern guarantees the directory exists.
		panic(err)
	}
	return NewFS(sub, DefaultNames)
}

// NewFS returns a provider that reads the named files from fsys.
func NewFS(fsys fs.FS, names []string) *FS {
	return &FS{fsys: fsys, names: append([]string(nil), names...)}
}

// Names returns the dataset file names.
func (p *FS) Names() []string {
	return append([]string(nil), p.names...)
}

// Fetch returns the raw text of a dataset.
func (p *FS) Fetch(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := fs.ReadFile(p.fsys, path.Clean(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(data), nil
}
