// Package sqlite is a document store backed by a single SQLite table. It
// serves offline runs and tests.
package sqlite

import (
	"database/sql"
	_ "embed"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// InitDB creates the entities table and its indexes if they are missing.
func InitDB(db *sql.DB) error {
	stmts := strings.Split(schemaSQL, ";")
	for _, s := range stmts {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
