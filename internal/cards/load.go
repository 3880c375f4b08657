package cards

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadFile reads raw card text from path and checks that it holds at least one card.
func LoadFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only card file.
			_ = cerr
		}
	}()
	return Read(file)
}

// Read collects non-blank lines from r into raw card text.
func Read(r io.Reader) (string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	text := strings.Join(lines, "\n")
	if _, err := ParseStrict(text); err != nil {
		return "", fmt.Errorf("card file: %w", err)
	}
	return text, nil
}
