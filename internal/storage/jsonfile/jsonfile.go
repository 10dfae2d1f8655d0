// Package jsonfile writes scraped records as pretty-printed JSON files.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"cardscrape/internal/extracthtml"
	"cardscrape/internal/storage"
)

func init() {
	storage.Register("json", New)
}

// Sink writes each record kind to its own file. Files are replaced
// atomically: content goes to a temp file in the same directory first.
type Sink struct {
	paths storage.Paths
}

// New returns a Sink writing to cfg.Paths. A path left empty disables that
// record kind; writing it is then an error.
func New(_ context.Context, cfg storage.Config) (storage.Sink, error) {
	return &Sink{paths: cfg.Paths}, nil
}

func (s *Sink) WriteSets(_ context.Context, sets []extracthtml.Set) error {
	if sets == nil {
		sets = []extracthtml.Set{}
	}
	return writeFile(s.paths.Sets, "sets", sets)
}

func (s *Sink) WriteCards(_ context.Context, cards []extracthtml.Card) error {
	if cards == nil {
		cards = []extracthtml.Card{}
	}
	return writeFile(s.paths.Cards, "cards", cards)
}

func (s *Sink) WriteBlockRules(_ context.Context, rules extracthtml.BlockRules) error {
	if rules.BlockX == nil {
		rules.BlockX = []extracthtml.BlockRuleEntry{}
	}
	if rules.Block4 == nil {
		rules.Block4 = []extracthtml.BlockRuleEntry{}
	}
	return writeFile(s.paths.BlockRules, "block_rules", rules)
}

func (s *Sink) Close() error { return nil }

// writeFile encodes v with 2-space indentation and non-ASCII text kept as is.
func writeFile(path, kind string, v any) (err error) {
	if path == "" {
		return fmt.Errorf("jsonfile: no output path configured for %s", kind)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("jsonfile: create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("jsonfile: create temp for %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err = enc.Encode(v); err != nil {
		return fmt.Errorf("jsonfile: encode %s: %w", kind, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("jsonfile: close %s: %w", tmp.Name(), err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("jsonfile: chmod %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("jsonfile: rename to %s: %w", path, err)
	}
	return nil
}
