// Package sqlite stores scraped records in a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"

	"cardscrape/internal/storage"
)

func init() {
	storage.Register("sqlite", New)
}

// Dialect renders SQLite statements. 999 is the bind parameter limit of
// SQLite builds before 3.32.
var Dialect = storage.Dialect{
	Name:        "sqlite",
	Quote:       sqlIdent,
	Placeholder: func(int) string { return "?" },
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
		return "CREATE TABLE IF NOT EXISTS " + sqlIdent(table) + " (" + defs + ")"
	},
	MaxParams: 999,
}

// New opens cfg.DSN (a file path or "file:" URI) and creates missing tables.
func New(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	// One writer avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	s, err := storage.NewDBSink(ctx, db, Dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func sqlIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
