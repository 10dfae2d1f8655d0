package fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Input describes where HTML should come from. The first non-empty source
// wins: URL, then File, then Stdin.
type Input struct {
	URL   string
	File  string
	Stdin io.Reader
}

// Load returns the HTML for input. URLs go through Fetch with headers; files
// and stdin are read as is. A nil Stdin reads as empty.
func (f *Fetcher) Load(ctx context.Context, input Input, headers map[string]string) (string, error) {
	switch {
	case strings.TrimSpace(input.URL) != "":
		return f.Fetch(ctx, input.URL, headers)

	case input.File != "":
		b, err := os.ReadFile(input.File)
		if err != nil {
			return "", fmt.Errorf("read file: %w", err)
		}
		return string(b), nil

	case input.Stdin != nil:
		b, err := io.ReadAll(input.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	return "", nil
}
