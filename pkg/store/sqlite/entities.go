package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/japaniel/mythos/pkg/corpus"
	"github.com/japaniel/mythos/pkg/store"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// isUniqueConstraintErr returns true when the error indicates a unique/constraint violation
func isUniqueConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique") || strings.Contains(s, "constraint failed")
}

// InsertEntity stores a new document. An existing id fails with
// store.ErrConflict.
func InsertEntity(db DBExecutor, doc store.Document, now time.Time) error {
	if strings.TrimSpace(doc.ID) == "" {
		return fmt.Errorf("entity id must be non-empty")
	}
	body, err := corpus.Encode(doc.Fields)
	if err != nil {
		return fmt.Errorf("encode %s: %w", doc.ID, err)
	}
	_, err = db.Exec(`INSERT INTO entities (id, mythology, type, content_hash, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Mythology, doc.Type, doc.ContentHash, string(body), now, now)
	if isUniqueConstraintErr(err) {
		return fmt.Errorf("insert %s: %w", doc.ID, store.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert %s: %w", doc.ID, err)
	}
	return nil
}

// UpsertEntity replaces the body of doc.ID, keeping created_at of an
// existing row. A missing row is inserted with both timestamps set to now.
func UpsertEntity(db DBExecutor, doc store.Document, now time.Time) error {
	if strings.TrimSpace(doc.ID) == "" {
		return fmt.Errorf("entity id must be non-empty")
	}
	body, err := corpus.Encode(doc.Fields)
	if err != nil {
		return fmt.Errorf("encode %s: %w", doc.ID, err)
	}
	_, err = db.Exec(`INSERT INTO entities (id, mythology, type, content_hash, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		  mythology = excluded.mythology,
		  type = excluded.type,
		  content_hash = excluded.content_hash,
		  body = excluded.body,
		  updated_at = excluded.updated_at`,
		doc.ID, doc.Mythology, doc.Type, doc.ContentHash, string(body), now, now)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", doc.ID, err)
	}
	return nil
}

// GetEntity loads one document. A missing id fails with store.ErrNotFound.
func GetEntity(db DBExecutor, id string) (*store.Document, error) {
	var doc store.Document
	var body string
	err := db.QueryRow(`SELECT id, mythology, type, content_hash, body, created_at, updated_at FROM entities WHERE id = ?`, id).
		Scan(&doc.ID, &doc.Mythology, &doc.Type, &doc.ContentHash, &body, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	fields, err := store.DecodeFields([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	doc.Fields = fields
	return &doc, nil
}

// CountEntities counts rows whose mythology or type column equals value.
func CountEntities(db DBExecutor, field, value string) (int, error) {
	if !store.CountableFields[field] {
		return 0, fmt.Errorf("count: unsupported field %q", field)
	}
	var n int
	// field is one of the whitelisted column names.
	if err := db.QueryRow(`SELECT COUNT(*) FROM entities WHERE `+field+` = ?`, value).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s=%s: %w", field, value, err)
	}
	return n, nil
}

// ListIDs returns every stored id in order.
func ListIDs(db DBExecutor) ([]string, error) {
	rows, err := db.Query(`SELECT id FROM entities ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
