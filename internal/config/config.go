// Package config loads and validates scraper configuration.
//
// Configuration files are JSON5. A sibling "<name>.local.<ext>" file, when
// present, is merged over the base file so machine-specific settings (DSNs,
// output paths) stay out of version control.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/titanous/json5"

	"cardscrape/internal/storage"
)

// IDPlaceholder is replaced by the set id in CardListURLTemplate.
const IDPlaceholder = "{id}"

// Config is the full scraper configuration.
type Config struct {
	// Job names the run in metrics tags.
	Job string `json:"job"`

	CatalogURL          string `json:"catalog_url"`
	CardListURLTemplate string `json:"card_list_url_template"`
	RulesURL            string `json:"rules_url"`

	Storage Storage `json:"storage"`

	// RequestHeaders are sent with every request.
	RequestHeaders map[string]string `json:"request_headers"`

	// PolitenessDelay is waited between consecutive card-list fetches,
	// e.g. "2s". RequestTimeout bounds each request.
	PolitenessDelay string `json:"politeness_delay"`
	RequestTimeout  string `json:"request_timeout"`

	// Sets, when non-empty, restricts the card scrape to these set ids.
	Sets []string `json:"sets"`
}

// Storage selects the persistence backend.
type Storage struct {
	Kind   string        `json:"kind"`
	DSN    string        `json:"dsn"`
	Output storage.Paths `json:"output"`
}

// StorageConfig converts s for storage.New.
func (s Storage) StorageConfig() storage.Config {
	return storage.Config{Kind: s.Kind, DSN: s.DSN, Paths: s.Output}
}

// Default returns the configuration used when no file overrides a field.
func Default() Config {
	return Config{
		Job:                 "cardscrape",
		CatalogURL:          "https://en.onepiece-cardgame.com/cardlist/?series=569111",
		CardListURLTemplate: "https://en.onepiece-cardgame.com/cardlist/?series=" + IDPlaceholder,
		RulesURL:            "https://en.onepiece-cardgame.com/rules/blockicon-card/",
		Storage: Storage{
			Kind: "json",
			Output: storage.Paths{
				Sets:       "sets.json",
				Cards:      "cards.json",
				BlockRules: "block_rules.json",
			},
		},
		RequestHeaders: map[string]string{
			"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		},
		PolitenessDelay: "2s",
		RequestTimeout:  "30s",
	}
}

// Read loads path and its ".local" sibling over Default().
//
// A missing path is not an error when the local file exists. If neither
// file exists, Read returns os.ErrNotExist. An empty path returns Default().
func Read(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	found := false
	for _, p := range []string{path, localPath(path)} {
		b, err := os.ReadFile(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return cfg, err
		}
		found = true

		var override Config
		if err := json5.Unmarshal(b, &override); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", p, err)
		}
		if err := mergo.Merge(&cfg, override, mergo.WithOverride); err != nil {
			return cfg, fmt.Errorf("merge %s: %w", p, err)
		}
		if p != path {
			slog.Info("merging config with local overrides", "local", p)
		}
	}

	if !found {
		return cfg, os.ErrNotExist
	}
	return cfg, nil
}

// localPath returns "dir/name.local.ext" for "dir/name.ext".
func localPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

// Delay parses PolitenessDelay. An empty value means no delay.
func (c Config) Delay() (time.Duration, error) {
	return parseDuration(c.PolitenessDelay)
}

// Timeout parses RequestTimeout. An empty value means no timeout.
func (c Config) Timeout() (time.Duration, error) {
	return parseDuration(c.RequestTimeout)
}

func parseDuration(s string) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return time.ParseDuration(strings.TrimSpace(s))
}

// CardListURL substitutes the query-escaped set id into the template.
func (c Config) CardListURL(setID string) string {
	return strings.ReplaceAll(c.CardListURLTemplate, IDPlaceholder, url.QueryEscape(setID))
}

// WantSet reports whether setID passes the Sets filter.
func (c Config) WantSet(setID string) bool {
	if len(c.Sets) == 0 {
		return true
	}
	for _, s := range c.Sets {
		if s == setID {
			return true
		}
	}
	return false
}
