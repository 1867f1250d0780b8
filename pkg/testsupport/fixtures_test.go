package testsupport

import (
	"context"
	"testing"

	"github.com/goliatone/go-catalog-cache/catalog"
	"github.com/goliatone/go-catalog-cache/internal/memstore"
	"github.com/goliatone/go-catalog-cache/store"
)

func TestLoadFixtureJSON(t *testing.T) {
	var fixture CatalogFixture
	LoadFixtureJSON(t, FixturePath("catalog.json"), &fixture)

	if len(fixture[catalog.CollectionRestaurants]) != 2 {
		t.Errorf("expected 2 restaurants, got %d", len(fixture[catalog.CollectionRestaurants]))
	}
	if len(fixture[catalog.CollectionDishes]) != 3 {
		t.Errorf("expected 3 dishes, got %d", len(fixture[catalog.CollectionDishes]))
	}
}

func TestSeedStore(t *testing.T) {
	s := memstore.New()
	SeedStore(t, s, FixturePath("catalog.json"))

	ctx := context.Background()

	doc, err := s.GetByID(ctx, catalog.CollectionRestaurants, "rest-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got := doc.String(catalog.FieldName); got != "PapaJohns" {
		t.Errorf("expected name %q, got %q", "PapaJohns", got)
	}
	// Numeric fixture values must come back as int64 so counter math works.
	if got := doc.Int64(catalog.FieldMustTryCount); got != 1 {
		t.Errorf("expected mustTryCount 1, got %d", got)
	}

	n, err := s.Count(ctx, catalog.CollectionDishes, store.Where(store.Eq(catalog.FieldOwnerID, "owner-1")))
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 dishes for owner-1, got %d", n)
	}
}

func TestMustInsert(t *testing.T) {
	s := memstore.New()
	id := MustInsert(t, s, catalog.CollectionRestaurants, store.Doc{
		catalog.FieldOwnerID: "owner-2",
		catalog.FieldName:    "Corner Cafe",
	})
	if id == "" {
		t.Fatal("MustInsert returned empty id")
	}

	if _, err := s.GetByID(context.Background(), catalog.CollectionRestaurants, id); err != nil {
		t.Errorf("inserted document not found: %v", err)
	}
}
