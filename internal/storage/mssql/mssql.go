// Package mssql stores scraped records in SQL Server.
//
// The package does not import a driver; the binary must register one under
// the name "sqlserver" (see storage/all).
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"cardscrape/internal/storage"
)

func init() {
	storage.Register("mssql", New)
}

// Dialect renders SQL Server statements. SQL Server allows 2100 parameters
// per request.
var Dialect = storage.Dialect{
	Name:        "mssql",
	Quote:       mssqlIdent,
	Placeholder: func(n int) string { return fmt.Sprintf("@p%d", n) },
	ColumnType: func(k storage.ColumnKind) string {
		switch k {
		case storage.IntColumn:
			return "INT NOT NULL"
		case storage.NullableTextColumn:
			return "NVARCHAR(MAX) NULL"
		default:
			return "NVARCHAR(MAX) NOT NULL"
		}
	},
	CreateTable: wrapCreateIfMissing,
	MaxParams:   2000,
}

// New connects to cfg.DSN (a sqlserver:// URL) and creates missing tables.
func New(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s, err := storage.NewDBSink(ctx, db, Dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// wrapCreateIfMissing guards CREATE TABLE with OBJECT_ID since SQL Server has
// no CREATE TABLE IF NOT EXISTS.
func wrapCreateIfMissing(table, defs string) string {
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL BEGIN CREATE TABLE %s (%s); END;",
		strings.ReplaceAll(table, "'", "''"),
		mssqlIdent(table),
		defs,
	)
}

func mssqlIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}
