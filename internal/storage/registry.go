package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cardscrape/internal/extracthtml"
)

// Paths are the output files of the json backend.
type Paths struct {
	Sets       string `json:"sets"`
	Cards      string `json:"cards"`
	BlockRules string `json:"block_rules"`
}

// Config selects and configures a backend.
//
// Kind must match a registered backend ("json", "sqlite", "postgres",
// "mssql"). DSN is passed through to SQL backends; Paths is used by json.
type Config struct {
	Kind  string
	DSN   string
	Paths Paths
}

// Sink persists scraped records.
//
// Every write replaces what the backend held for that record kind: a later
// scrape supersedes the earlier one wholesale, nothing is merged or
// deduplicated.
type Sink interface {
	WriteSets(ctx context.Context, sets []extracthtml.Set) error
	WriteCards(ctx context.Context, cards []extracthtml.Card) error
	WriteBlockRules(ctx context.Context, rules extracthtml.BlockRules) error
	Close() error
}

// Factory builds a Sink for cfg.
type Factory func(ctx context.Context, cfg Config) (Sink, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. Call it from an init
// function in the backend package.
//
// Register panics if kind is empty, f is nil, or kind is already registered.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// New builds the Sink registered under cfg.Kind.
func New(ctx context.Context, cfg Config) (Sink, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("storage: unsupported kind=%q (registered: %v)", cfg.Kind, Kinds())
	}
	return f(ctx, cfg)
}

// Kinds lists the registered backend kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
