// Package store defines the document-store contract used by the upload
// driver. Backends live in the sqlite and firestore subpackages.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Classified store errors. Backends wrap their native errors so that
// errors.Is works against these.
var (
	ErrNotFound    = errors.New("store: document not found")
	ErrConflict    = errors.New("store: conflicting write")
	ErrUnavailable = errors.New("store: backend unavailable")
)

// Document is one stored entity. Fields holds the full body in
// store-native values (see DecodeFields); the two timestamps are assigned by
// the store and are not part of Fields.
type Document struct {
	ID          string
	Mythology   string
	Type        string
	ContentHash string
	Fields      map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OpKind selects how a write treats an existing document.
type OpKind int

const (
	// Insert creates the document and fails with ErrConflict if it exists.
	Insert OpKind = iota + 1
	// Update replaces the body of an existing document. CreatedAt on the
	// document is carried over unchanged.
	Update
)

func (k OpKind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Update:
		return "update"
	default:
		return fmt.Sprintf("OpKind(%d)", int(k))
	}
}

// Op is one write in a batch.
type Op struct {
	Kind OpKind
	Doc  Document
}

// Store is a keyed document collection. A Commit is all-or-nothing.
type Store interface {
	Get(ctx context.Context, id string) (*Document, error)
	Commit(ctx context.Context, ops []Op) error
	// Count returns the number of documents whose top-level field equals value.
	Count(ctx context.Context, field, value string) (int, error)
	Close() error
}

// CountableFields are the top-level fields Count accepts.
var CountableFields = map[string]bool{"mythology": true, "type": true}

// DecodeFields decodes a JSON object into store-native values: integral
// numbers become int64, other numbers float64, arrays []any and objects
// map[string]any.
func DecodeFields(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode document fields: %w", err)
	}
	return normalize(raw).(map[string]any), nil
}

func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, e := range t {
			t[k] = normalize(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalize(e)
		}
		return t
	default:
		return v
	}
}

// StringLeaves flattens every string value in fields to its dotted path,
// with array indexes in brackets.
func StringLeaves(fields map[string]any) map[string]string {
	out := map[string]string{}
	var walk func(path string, v any)
	walk = func(path string, v any) {
		switch t := v.(type) {
		case string:
			out[path] = t
		case map[string]any:
			for k, e := range t {
				p := k
				if path != "" {
					p = path + "." + k
				}
				walk(p, e)
			}
		case []any:
			for i, e := range t {
				walk(fmt.Sprintf("%s[%d]", path, i), e)
			}
		case []string:
			for i, e := range t {
				out[fmt.Sprintf("%s[%d]", path, i)] = e
			}
		}
	}
	walk("", fields)
	return out
}
