package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"cardscrape/internal/extracthtml"
)

// Dialect holds the SQL differences between database/sql backends.
type Dialect struct {
	Name string

	// Quote quotes an identifier.
	Quote func(ident string) string

	// Placeholder returns the bind parameter for the 1-based position n.
	Placeholder func(n int) string

	// ColumnType maps a portable column kind to a column type with nullability.
	ColumnType func(k ColumnKind) string

	// CreateTable wraps a table name and column definitions in an idempotent
	// CREATE TABLE statement.
	CreateTable func(table, defs string) string

	// MaxParams caps bind parameters per INSERT. Zero means unlimited.
	MaxParams int
}

// CreateTableSQL renders the idempotent DDL for t.
func CreateTableSQL(t Table, d Dialect) string {
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = d.Quote(c.Name) + " " + d.ColumnType(c.Kind)
	}
	return d.CreateTable(t.Name, strings.Join(defs, ", "))
}

// DeleteSQL renders a statement clearing t.
func DeleteSQL(t Table, d Dialect) string {
	return "DELETE FROM " + d.Quote(t.Name)
}

// InsertSQL renders a multi-row INSERT for n rows of t.
func InsertSQL(t Table, d Dialect, n int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.Quote(t.Name))
	b.WriteString(" (")
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.Quote(c.Name))
	}
	b.WriteString(") VALUES ")

	p := 1
	for r := 0; r < n; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range t.Columns {
			if c > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.Placeholder(p))
			p++
		}
		b.WriteByte(')')
	}
	return b.String()
}

// batchSize returns how many rows of t fit in one INSERT under d.MaxParams.
func batchSize(t Table, d Dialect, total int) int {
	if d.MaxParams <= 0 || len(t.Columns) == 0 {
		return max(total, 1)
	}
	return max(d.MaxParams/len(t.Columns), 1)
}

// DBSink is a Sink over database/sql. Each write clears the table and inserts
// the new rows in one transaction.
type DBSink struct {
	db      *sql.DB
	dialect Dialect
}

// NewDBSink creates the tables if missing and returns a sink writing to db.
// The sink owns db and closes it on Close.
func NewDBSink(ctx context.Context, db *sql.DB, d Dialect) (*DBSink, error) {
	s := &DBSink{db: db, dialect: d}
	if err := s.ensureTables(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *DBSink) ensureTables(ctx context.Context) error {
	for _, t := range Tables {
		if _, err := s.db.ExecContext(ctx, CreateTableSQL(t, s.dialect)); err != nil {
			return fmt.Errorf("%s: create table %s: %w", s.dialect.Name, t.Name, err)
		}
	}
	return nil
}

func (s *DBSink) WriteSets(ctx context.Context, sets []extracthtml.Set) error {
	rows, err := SetRows(sets)
	if err != nil {
		return err
	}
	return s.replace(ctx, SetsTable, rows)
}

func (s *DBSink) WriteCards(ctx context.Context, cards []extracthtml.Card) error {
	rows, err := CardRows(cards)
	if err != nil {
		return err
	}
	return s.replace(ctx, CardsTable, rows)
}

func (s *DBSink) WriteBlockRules(ctx context.Context, rules extracthtml.BlockRules) error {
	return s.replace(ctx, BlockRulesTable, BlockRuleRows(rules))
}

func (s *DBSink) Close() error { return s.db.Close() }

func (s *DBSink) replace(ctx context.Context, t Table, rows [][]any) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", s.dialect.Name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, DeleteSQL(t, s.dialect)); err != nil {
		return fmt.Errorf("%s: clear %s: %w", s.dialect.Name, t.Name, err)
	}

	size := batchSize(t, s.dialect, len(rows))
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		batch := rows[start:end]

		args := make([]any, 0, len(batch)*len(t.Columns))
		for _, r := range batch {
			args = append(args, r...)
		}
		if _, err = tx.ExecContext(ctx, InsertSQL(t, s.dialect, len(batch)), args...); err != nil {
			return fmt.Errorf("%s: insert into %s: %w", s.dialect.Name, t.Name, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit %s: %w", s.dialect.Name, t.Name, err)
	}
	slog.Debug("storage: replaced table", "backend", s.dialect.Name, "table", t.Name, "rows", len(rows))
	return nil
}
