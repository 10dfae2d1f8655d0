// Package scrape drives the extractors over fetched pages and hands the
// results to a storage sink.
//
// The card pipeline fetches the set catalog once, then each set's card list
// in discovery order, one request at a time with a fixed pause between
// card-list requests. Nothing is persisted until every fetch succeeded.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"cardscrape/internal/config"
	"cardscrape/internal/extracthtml"
	"cardscrape/internal/metrics"
	"cardscrape/internal/storage"
)

// Fetcher returns the decoded body of url.
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) (string, error)
}

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Runner holds the collaborators of a scrape.
type Runner struct {
	Config  config.Config
	Fetcher Fetcher
	Sink    storage.Sink

	// Sleep defaults to SleepContext.
	Sleep Sleeper

	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// SetCount is the number of cards found on one set's card list.
type SetCount struct {
	SetID string
	Cards int
}

// CardsResult summarizes a card scrape.
type CardsResult struct {
	Sets  []extracthtml.Set
	Cards []extracthtml.Card

	// PerSet lists the sets whose card list was fetched, in fetch order.
	PerSet []SetCount
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	return SleepContext(ctx, d)
}

// ScrapeCards fetches the set catalog and every selected set's card list,
// then writes the full set catalog and the concatenated cards to the sink.
//
// Any fetch error or a missing set selector aborts the run before anything
// is written.
func (r *Runner) ScrapeCards(ctx context.Context) (CardsResult, error) {
	log := r.logger()
	var res CardsResult

	delay, err := r.Config.Delay()
	if err != nil {
		return res, fmt.Errorf("politeness delay: %w", err)
	}

	sets, err := step("catalog", func() ([]extracthtml.Set, error) {
		return r.catalog(ctx)
	})
	if err != nil {
		return res, err
	}
	res.Sets = sets
	metrics.RecordRecords("set", len(sets))
	log.Info("set catalog loaded", "sets", len(sets), "url", r.Config.CatalogURL)

	res.Cards = []extracthtml.Card{}
	fetched := 0
	for _, s := range sets {
		if !r.Config.WantSet(s.Value) {
			log.Debug("skipping set", "set", s.Value)
			continue
		}
		if fetched > 0 {
			if err := r.sleep(ctx, delay); err != nil {
				return res, err
			}
		}
		fetched++

		cards, err := step("cards", func() ([]extracthtml.Card, error) {
			return r.cardList(ctx, s.Value)
		})
		if err != nil {
			return res, fmt.Errorf("set %s: %w", s.Value, err)
		}
		res.Cards = append(res.Cards, cards...)
		res.PerSet = append(res.PerSet, SetCount{SetID: s.Value, Cards: len(cards)})
		metrics.RecordRecords("card", len(cards))
		log.Info("set scraped", "set", s.Value, "label", s.RawText, "cards", len(cards))
	}

	if _, err := step("persist", func() (struct{}, error) {
		if err := r.Sink.WriteSets(ctx, res.Sets); err != nil {
			return struct{}{}, fmt.Errorf("write sets: %w", err)
		}
		if err := r.Sink.WriteCards(ctx, res.Cards); err != nil {
			return struct{}{}, fmt.Errorf("write cards: %w", err)
		}
		return struct{}{}, nil
	}); err != nil {
		return res, err
	}

	log.Info("card scrape finished", "sets", len(res.Sets), "sets_fetched", fetched, "cards", len(res.Cards))
	return res, nil
}

func (r *Runner) catalog(ctx context.Context) ([]extracthtml.Set, error) {
	html, err := r.Fetcher.Fetch(ctx, r.Config.CatalogURL, r.Config.RequestHeaders)
	if err != nil {
		return nil, err
	}
	doc, err := extracthtml.ParseDocument(html)
	if err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return extracthtml.ExtractSets(doc)
}

func (r *Runner) cardList(ctx context.Context, setID string) ([]extracthtml.Card, error) {
	html, err := r.Fetcher.Fetch(ctx, r.Config.CardListURL(setID), r.Config.RequestHeaders)
	if err != nil {
		return nil, err
	}
	doc, err := extracthtml.ParseDocument(html)
	if err != nil {
		return nil, fmt.Errorf("parse card list: %w", err)
	}
	return extracthtml.ExtractCards(doc), nil
}

// ScrapeBlockRules fetches the block-icon rules page and writes both groups.
// A page with fewer than two rule sections is logged as a warning, not an
// error.
func (r *Runner) ScrapeBlockRules(ctx context.Context) (extracthtml.BlockRules, error) {
	log := r.logger()

	rules, err := step("block_rules", func() (extracthtml.BlockRules, error) {
		html, err := r.Fetcher.Fetch(ctx, r.Config.RulesURL, r.Config.RequestHeaders)
		if err != nil {
			return extracthtml.BlockRules{}, err
		}
		doc, err := extracthtml.ParseDocument(html)
		if err != nil {
			return extracthtml.BlockRules{}, fmt.Errorf("parse rules: %w", err)
		}
		return extracthtml.ExtractBlockRules(doc), nil
	})
	if err != nil {
		return rules, err
	}

	if rules.Sections < 2 {
		log.Warn("rules page has fewer sections than expected",
			"found", rules.Sections, "want", 2, "selector", extracthtml.BlockSectionSelector)
	}
	metrics.RecordRecords("block_rule", len(rules.BlockX)+len(rules.Block4))

	if _, err := step("persist", func() (struct{}, error) {
		return struct{}{}, r.Sink.WriteBlockRules(ctx, rules)
	}); err != nil {
		return rules, fmt.Errorf("write block rules: %w", err)
	}

	log.Info("block rules scraped", "block_x", len(rules.BlockX), "block_4", len(rules.Block4))
	return rules, nil
}

// step runs fn and records its duration and outcome.
func step[T any](name string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	metrics.RecordStep(name, err, time.Since(start))
	return v, err
}

// IsStructureError reports whether err means the page layout changed.
func IsStructureError(err error) bool {
	var se *extracthtml.StructureNotFoundError
	return errors.As(err, &se)
}
