// Package all registers every storage backend and the SQL Server driver.
package all

import (
	_ "github.com/microsoft/go-mssqldb"

	_ "cardscrape/internal/storage/jsonfile"
	_ "cardscrape/internal/storage/mssql"
	_ "cardscrape/internal/storage/postgres"
	_ "cardscrape/internal/storage/sqlite"
)
