package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/japaniel/mythos/pkg/store"
)

// DefaultCollection is the collection entity documents are written to.
const DefaultCollection = "entities"

// Firestore rejects batches larger than this.
const maxBatchWrites = 500

const (
	fieldCreatedAt   = "createdAt"
	fieldUpdatedAt   = "updatedAt"
	fieldContentHash = "contentHash"
)

// Store implements store.Store over one collection.
type Store struct {
	provider   *Provider
	collection string
}

// NewStore binds a Store to a collection. An empty name selects
// DefaultCollection.
func NewStore(provider *Provider, collection string) *Store {
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{provider: provider, collection: collection}
}

func (s *Store) collectionRef(ctx context.Context) (*firestore.CollectionRef, error) {
	client, err := s.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(s.collection), nil
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, id string) (*store.Document, error) {
	coll, err := s.collectionRef(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := coll.Doc(id).Get(ctx)
	if err != nil {
		return nil, WrapError("get "+id, err)
	}
	return fromData(snap.Ref.ID, snap.Data()), nil
}

// Commit writes ops in one WriteBatch. Inserts use Create, so an existing
// document fails the batch with a conflict; updates replace the body and
// re-send the original createdAt.
func (s *Store) Commit(ctx context.Context, ops []store.Op) error {
	if len(ops) == 0 {
		return nil
	}
	if len(ops) > maxBatchWrites {
		return fmt.Errorf("firestore: batch of %d exceeds %d writes", len(ops), maxBatchWrites)
	}
	client, err := s.provider.Client(ctx)
	if err != nil {
		return err
	}
	coll := client.Collection(s.collection)
	batch := client.Batch()
	for _, op := range ops {
		ref := coll.Doc(op.Doc.ID)
		switch op.Kind {
		case store.Insert:
			batch.Create(ref, toData(op.Doc, firestore.ServerTimestamp))
		case store.Update:
			var created any = firestore.ServerTimestamp
			if !op.Doc.CreatedAt.IsZero() {
				created = op.Doc.CreatedAt
			}
			batch.Set(ref, toData(op.Doc, created))
		default:
			return fmt.Errorf("firestore: unknown op %v for %s", op.Kind, op.Doc.ID)
		}
	}
	if _, err := batch.Commit(ctx); err != nil {
		return WrapError(fmt.Sprintf("commit %d writes", len(ops)), err)
	}
	return nil
}

// Count implements store.Store. It streams document references only.
func (s *Store) Count(ctx context.Context, field, value string) (int, error) {
	if !store.CountableFields[field] {
		return 0, fmt.Errorf("firestore: count on unsupported field %q", field)
	}
	coll, err := s.collectionRef(ctx)
	if err != nil {
		return 0, err
	}
	iter := coll.Where(field, "==", value).Select().Documents(ctx)
	defer iter.Stop()
	n := 0
	for {
		_, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return 0, WrapError("count "+field, err)
		}
		n++
	}
	return n, nil
}

// Close releases the provider's client.
func (s *Store) Close() error { return s.provider.Close() }

// toData builds the document body. createdAt is either a time.Time or
// firestore.ServerTimestamp; updatedAt is always the server time.
func toData(doc store.Document, createdAt any) map[string]any {
	data := make(map[string]any, len(doc.Fields)+3)
	for k, v := range doc.Fields {
		data[k] = v
	}
	data[fieldContentHash] = doc.ContentHash
	data[fieldCreatedAt] = createdAt
	data[fieldUpdatedAt] = firestore.ServerTimestamp
	return data
}

// fromData is the inverse of toData for a fetched snapshot.
func fromData(id string, data map[string]any) *store.Document {
	doc := &store.Document{ID: id, Fields: make(map[string]any, len(data))}
	for k, v := range data {
		switch k {
		case fieldCreatedAt:
			doc.CreatedAt, _ = v.(time.Time)
		case fieldUpdatedAt:
			doc.UpdatedAt, _ = v.(time.Time)
		default:
			doc.Fields[k] = v
		}
	}
	doc.ContentHash, _ = data[fieldContentHash].(string)
	doc.Mythology, _ = data["mythology"].(string)
	doc.Type, _ = data["type"].(string)
	return doc
}
