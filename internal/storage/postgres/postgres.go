// Package postgres stores scraped records in PostgreSQL using pgx.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cardscrape/internal/extracthtml"
	"cardscrape/internal/storage"
)

func init() {
	storage.Register("postgres", New)
}

// Dialect renders PostgreSQL DDL. Rows are loaded with COPY, so the
// placeholder form is only used by callers building their own statements.
var Dialect = storage.Dialect{
	Name:        "postgres",
	Quote:       func(id string) string { return pgx.Identifier{id}.Sanitize() },
	Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	ColumnType: func(k storage.ColumnKind) string {
		switch k {
		case storage.IntColumn:
			return "INTEGER NOT NULL"
		case storage.NullableTextColumn:
			return "TEXT"
		default:
			return "TEXT NOT NULL"
		}
	},
	CreateTable: func(table, defs string) string {
		return "CREATE TABLE IF NOT EXISTS " + pgx.Identifier{table}.Sanitize() + " (" + defs + ")"
	},
}

// Sink writes records through a pgx pool.
type Sink struct {
	pool *pgxpool.Pool
}

// New connects to cfg.DSN and creates missing tables.
func New(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	s := &Sink{pool: pool}
	if err := s.ensureTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sink) ensureTables(ctx context.Context) error {
	for _, t := range storage.Tables {
		if _, err := s.pool.Exec(ctx, storage.CreateTableSQL(t, Dialect)); err != nil {
			return fmt.Errorf("postgres: create table %s: %w", t.Name, err)
		}
	}
	return nil
}

func (s *Sink) WriteSets(ctx context.Context, sets []extracthtml.Set) error {
	rows, err := storage.SetRows(sets)
	if err != nil {
		return err
	}
	return s.replace(ctx, storage.SetsTable, rows)
}

func (s *Sink) WriteCards(ctx context.Context, cards []extracthtml.Card) error {
	rows, err := storage.CardRows(cards)
	if err != nil {
		return err
	}
	return s.replace(ctx, storage.CardsTable, rows)
}

func (s *Sink) WriteBlockRules(ctx context.Context, rules extracthtml.BlockRules) error {
	return s.replace(ctx, storage.BlockRulesTable, storage.BlockRuleRows(rules))
}

// Close closes the pool.
func (s *Sink) Close() error {
	s.pool.Close()
	return nil
}

// replace clears t and bulk-loads rows with COPY inside one transaction.
func (s *Sink) replace(ctx context.Context, t storage.Table, rows [][]any) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, storage.DeleteSQL(t, Dialect)); err != nil {
		return fmt.Errorf("postgres: clear %s: %w", t.Name, err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{t.Name}, t.ColumnNames(), pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("postgres: copy into %s: %w", t.Name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit %s: %w", t.Name, err)
	}
	slog.Debug("storage: replaced table", "backend", "postgres", "table", t.Name, "rows", n)
	return nil
}
