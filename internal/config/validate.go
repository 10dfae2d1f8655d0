package config

import (
	"fmt"
	"net/url"
	"strings"

	"cardscrape/internal/storage"
)

// Severity classifies a validation Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding. Path uses the JSON field names.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

// Validate checks cfg and returns every issue found. Errors make the
// configuration unusable; warnings are worth a look but do not stop a run.
func Validate(cfg Config) []Issue {
	var issues []Issue
	add := func(sev Severity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	checkURL := func(path, raw string) {
		if strings.TrimSpace(raw) == "" {
			add(SeverityError, path, "must not be empty")
			return
		}
		u, err := url.Parse(raw)
		if err != nil {
			add(SeverityError, path, "invalid url: %v", err)
			return
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			add(SeverityError, path, "scheme must be http or https, got %q", u.Scheme)
		}
	}

	checkURL("catalog_url", cfg.CatalogURL)
	checkURL("rules_url", cfg.RulesURL)
	checkURL("card_list_url_template", cfg.CardListURLTemplate)
	if cfg.CardListURLTemplate != "" && !strings.Contains(cfg.CardListURLTemplate, IDPlaceholder) {
		add(SeverityError, "card_list_url_template", "must contain %s", IDPlaceholder)
	}

	if d, err := cfg.Delay(); err != nil {
		add(SeverityError, "politeness_delay", "invalid duration %q: %v", cfg.PolitenessDelay, err)
	} else if d < 0 {
		add(SeverityError, "politeness_delay", "must not be negative")
	} else if d == 0 {
		add(SeverityWarning, "politeness_delay", "no delay between card-list requests")
	}

	if d, err := cfg.Timeout(); err != nil {
		add(SeverityError, "request_timeout", "invalid duration %q: %v", cfg.RequestTimeout, err)
	} else if d < 0 {
		add(SeverityError, "request_timeout", "must not be negative")
	}

	if _, ok := cfg.RequestHeaders["User-Agent"]; !ok {
		add(SeverityWarning, "request_headers", "no User-Agent set; the site may reject default clients")
	}

	switch cfg.Storage.Kind {
	case "":
		add(SeverityError, "storage.kind", "must not be empty")
	case "json":
		o := cfg.Storage.Output
		if o.Sets == "" || o.Cards == "" || o.BlockRules == "" {
			add(SeverityError, "storage.output", "json storage needs sets, cards and block_rules paths")
		}
	default:
		if !registered(cfg.Storage.Kind) {
			add(SeverityError, "storage.kind", "unknown kind %q (registered: %v)", cfg.Storage.Kind, storage.Kinds())
		}
		if cfg.Storage.DSN == "" {
			add(SeverityError, "storage.dsn", "%s storage needs a dsn", cfg.Storage.Kind)
		}
	}

	seen := map[string]bool{}
	for i, s := range cfg.Sets {
		if strings.TrimSpace(s) == "" {
			add(SeverityError, fmt.Sprintf("sets[%d]", i), "empty set id")
		} else if seen[s] {
			add(SeverityWarning, fmt.Sprintf("sets[%d]", i), "duplicate set id %q", s)
		}
		seen[s] = true
	}

	return issues
}

// HasErrors reports whether issues contains an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// registered reports whether kind is a known backend. With no backends
// linked in (as in unit tests) every kind is accepted.
func registered(kind string) bool {
	kinds := storage.Kinds()
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
