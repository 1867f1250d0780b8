package testsupport

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-catalog-cache/store"
)

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
// The path is relative to the test package directory.
func LoadFixtureJSON(t *testing.T, path string, dest interface{}) {
	t.Helper()

	data := LoadFixture(t, path)
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// CatalogFixture is the JSON shape of a seed file: documents grouped by
// collection, in insertion order.
type CatalogFixture map[string][]map[string]any

// SeedStore loads a catalog fixture file and inserts every document into
// the store. Documents that carry an "_id" keep it.
func SeedStore(t *testing.T, s store.Store, path string) {
	t.Helper()

	var fixture CatalogFixture
	LoadFixtureJSON(t, path, &fixture)

	ctx := context.Background()
	for collection, docs := range fixture {
		for _, raw := range docs {
			doc := make(store.Doc, len(raw))
			for k, v := range raw {
				// JSON numbers come back as float64; the stores work
				// in int64.
				if f, ok := v.(float64); ok && f == float64(int64(f)) {
					doc[k] = int64(f)
				} else {
					doc[k] = v
				}
			}
			if _, err := s.Insert(ctx, collection, doc); err != nil {
				t.Fatalf("failed to seed %s from %s: %v", collection, path, err)
			}
		}
	}
}

// MustInsert inserts a document and fails the test on error, returning
// the assigned id.
func MustInsert(t *testing.T, s store.Store, collection string, doc store.Doc) string {
	t.Helper()

	id, err := s.Insert(context.Background(), collection, doc)
	if err != nil {
		t.Fatalf("failed to insert into %s: %v", collection, err)
	}
	return id
}
