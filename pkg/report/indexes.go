package report

import (
	"path/filepath"
)

// IndexField is one field of a composite index. Exactly one of Order and
// ArrayConfig is set.
type IndexField struct {
	FieldPath   string `json:"fieldPath"`
	Order       string `json:"order,omitempty"`
	ArrayConfig string `json:"arrayConfig,omitempty"`
}

// Index is one composite index in firestore.indexes.json form.
type Index struct {
	CollectionGroup string       `json:"collectionGroup"`
	QueryScope      string       `json:"queryScope"`
	Fields          []IndexField `json:"fields"`
}

// IndexManifest is the deployable index file.
type IndexManifest struct {
	Indexes        []Index `json:"indexes"`
	FieldOverrides []any   `json:"fieldOverrides"`
}

func asc(f string) IndexField      { return IndexField{FieldPath: f, Order: "ASCENDING"} }
func desc(f string) IndexField     { return IndexField{FieldPath: f, Order: "DESCENDING"} }
func contains(f string) IndexField { return IndexField{FieldPath: f, ArrayConfig: "CONTAINS"} }

// Indexes returns the composite indexes the entity queries need.
func Indexes(collection string) IndexManifest {
	idx := func(fields ...IndexField) Index {
		return Index{CollectionGroup: collection, QueryScope: "COLLECTION", Fields: fields}
	}
	return IndexManifest{
		Indexes: []Index{
			idx(asc("mythology"), asc("type"), desc("createdAt")),
			idx(asc("mythology"), desc("metadata.completenessScore")),
			idx(asc("type"), desc("createdAt")),
			idx(contains("tags"), desc("createdAt")),
			idx(contains("searchTerms"), asc("mythology")),
		},
		FieldOverrides: []any{},
	}
}

// WriteIndexes writes firestore.indexes.json under outDir and returns its
// path.
func WriteIndexes(outDir, collection string) (string, error) {
	p := filepath.Join(outDir, IndexesFile)
	if err := writeJSON(p, Indexes(collection)); err != nil {
		return "", err
	}
	return p, nil
}
