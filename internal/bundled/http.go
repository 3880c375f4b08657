package bundled

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// HTTP serves datasets from a static web location such as a GitHub Pages site.
type HTTP struct {
	base   string
	names  []string
	client *http.Client
}

// NewHTTP returns a provider fetching base/<name> for each dataset name.
func NewHTTP(base string, names []string) *HTTP {
	return &HTTP{
		base:   strings.TrimRight(base, "/"),
		names:  append([]string(nil), names...),
		client: &http.Client{Timeout: defaultTimeout},
	}
}

// Names returns the dataset file names.
func (p *HTTP) Names() []string {
	return append([]string(nil), p.names...)
}

// Fetch downloads the raw text of a dataset.
func (p *HTTP) Fetch(ctx context.Context, name string) (string, error) {
	resp, err := p.request(ctx, p.base+"/"+url.PathEscape(name))
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("unexpected status for %s: %s", name, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(data), nil
}

func (p *HTTP) request(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "tuicard")
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}
