package stats

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-catalog-cache/cache"
	"github.com/goliatone/go-catalog-cache/catalog"
	"github.com/goliatone/go-catalog-cache/internal/memstore"
	"github.com/goliatone/go-catalog-cache/store"
)

func seedOwner(t *testing.T, s store.Store, ownerID string, restaurants, mustTry, avoid int) {
	t.Helper()
	ctx := context.Background()

	restaurantID := ""
	for i := 0; i < restaurants; i++ {
		id, err := s.Insert(ctx, catalog.CollectionRestaurants, store.Doc{
			catalog.FieldOwnerID: ownerID,
			catalog.FieldName:    "Shop",
		})
		if err != nil {
			t.Fatalf("seed restaurant failed: %v", err)
		}
		restaurantID = id
	}

	insertDish := func(rating catalog.Rating) {
		_, err := s.Insert(ctx, catalog.CollectionDishes, store.Doc{
			catalog.FieldOwnerID:      ownerID,
			catalog.FieldRestaurantID: restaurantID,
			catalog.FieldName:         "Dish",
			catalog.FieldRating:       string(rating),
		})
		if err != nil {
			t.Fatalf("seed dish failed: %v", err)
		}
	}
	for i := 0; i < mustTry; i++ {
		insertDish(catalog.RatingMustTry)
	}
	for i := 0; i < avoid; i++ {
		insertDish(catalog.RatingAvoid)
	}
}

func TestRecompute(t *testing.T) {
	s := memstore.New()
	seedOwner(t, s, "owner-1", 2, 2, 1)
	// Another owner's records must not bleed into the counts.
	seedOwner(t, s, "owner-2", 1, 5, 0)

	c := NewCache(s, nil, nil)
	frozen := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return frozen }

	if err := c.Recompute(context.Background(), "owner-1"); err != nil {
		t.Fatalf("Recompute() failed: %v", err)
	}

	got, err := c.Get(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.TotalRestaurants != 2 {
		t.Errorf("TotalRestaurants = %d, want 2", got.TotalRestaurants)
	}
	if got.TotalDishes != 3 {
		t.Errorf("TotalDishes = %d, want 3", got.TotalDishes)
	}
	if got.MustTryCount != 2 {
		t.Errorf("MustTryCount = %d, want 2", got.MustTryCount)
	}
	// avoidCount is derived: total dishes minus must-try.
	if got.AvoidCount != 1 {
		t.Errorf("AvoidCount = %d, want 1", got.AvoidCount)
	}
	if !got.LastUpdated.Equal(frozen) {
		t.Errorf("LastUpdated = %v, want %v", got.LastUpdated, frozen)
	}
}

func TestRecompute_FullyReplacesRecord(t *testing.T) {
	s := memstore.New()
	seedOwner(t, s, "owner-1", 1, 3, 0)
	c := NewCache(s, nil, nil)
	ctx := context.Background()

	if err := c.Recompute(ctx, "owner-1"); err != nil {
		t.Fatalf("Recompute() failed: %v", err)
	}

	// Shrink the data set; the next recompute must not keep stale counts.
	n, err := s.RemoveWhere(ctx, catalog.CollectionDishes,
		store.Where(store.Eq(catalog.FieldOwnerID, "owner-1")))
	if err != nil || n != 3 {
		t.Fatalf("failed to remove dishes: n=%d err=%v", n, err)
	}
	if err := c.Recompute(ctx, "owner-1"); err != nil {
		t.Fatalf("Recompute() failed: %v", err)
	}

	got, err := c.Get(ctx, "owner-1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.TotalDishes != 0 || got.MustTryCount != 0 || got.AvoidCount != 0 {
		t.Errorf("stale counts survived: %d/%d/%d", got.TotalDishes, got.MustTryCount, got.AvoidCount)
	}
}

func TestGet_BlankOwner(t *testing.T) {
	c := NewCache(memstore.New(), nil, nil)

	_, err := c.Get(context.Background(), "")
	if catalog.Classify(err) != catalog.KindValidation {
		t.Errorf("expected validation error for blank owner, got %v", err)
	}
}

func TestGet_MissTriggersRecompute(t *testing.T) {
	s := memstore.New()
	seedOwner(t, s, "owner-1", 1, 1, 1)
	c := NewCache(s, nil, nil)
	ctx := context.Background()

	// No summary exists yet; Get must compute and persist one.
	got, err := c.Get(ctx, "owner-1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.TotalRestaurants != 1 || got.TotalDishes != 2 {
		t.Errorf("computed summary wrong: %d restaurants, %d dishes", got.TotalRestaurants, got.TotalDishes)
	}

	// The record was persisted, keyed by owner id.
	doc, err := s.GetByID(ctx, catalog.CollectionUserStats, "owner-1")
	if err != nil {
		t.Fatalf("summary record not persisted: %v", err)
	}
	if doc.Int64(catalog.FieldTotalDishes) != 2 {
		t.Errorf("persisted totalDishes = %d, want 2", doc.Int64(catalog.FieldTotalDishes))
	}
}

func TestGet_NewOwnerGetsZeroSummary(t *testing.T) {
	c := NewCache(memstore.New(), nil, nil)

	got, err := c.Get(context.Background(), "brand-new")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.TotalRestaurants != 0 || got.TotalDishes != 0 || got.MustTryCount != 0 || got.AvoidCount != 0 {
		t.Errorf("new owner should get a zero summary, got %+v", got)
	}
}

// droppingStore swallows Upserts so the post-recompute re-read misses again.
type droppingStore struct {
	store.Store
}

func (d *droppingStore) Upsert(ctx context.Context, collection, id string, doc store.Doc) error {
	return nil
}

func TestGet_SecondMissIsInconsistency(t *testing.T) {
	c := NewCache(&droppingStore{Store: memstore.New()}, nil, nil)

	_, err := c.Get(context.Background(), "owner-1")
	if !errors.Is(err, catalog.ErrInconsistency) {
		t.Fatalf("expected ErrInconsistency, got %v", err)
	}
	if catalog.Classify(err) != catalog.KindInconsistency {
		t.Errorf("Classify() = %v, want KindInconsistency", catalog.Classify(err))
	}
}

// failingCountStore fails Count for one collection.
type failingCountStore struct {
	store.Store
	failOn string
	err    error
}

func (f *failingCountStore) Count(ctx context.Context, collection string, pred store.Predicate) (int, error) {
	if collection == f.failOn {
		return 0, f.err
	}
	return f.Store.Count(ctx, collection, pred)
}

func TestRecompute_CountFailureFailsWhole(t *testing.T) {
	s := &failingCountStore{
		Store:  memstore.New(),
		failOn: catalog.CollectionDishes,
		err:    errors.New("collection scan failed"),
	}
	c := NewCache(s, nil, nil)

	err := c.Recompute(context.Background(), "owner-1")
	if !errors.Is(err, s.err) {
		t.Fatalf("expected count error to fail the recompute, got %v", err)
	}

	// No partial summary was written.
	if _, err := s.GetByID(context.Background(), catalog.CollectionUserStats, "owner-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("partial summary persisted after failed recompute: %v", err)
	}
}

func TestGet_ServesFromCache(t *testing.T) {
	s := memstore.New()
	seedOwner(t, s, "owner-1", 1, 1, 0)

	svc, err := cache.NewService(cache.Config{
		Capacity:           100,
		NumShards:          2,
		TTL:                time.Minute,
		EvictionPercentage: 10,
	})
	if err != nil {
		t.Fatalf("cache.NewService() failed: %v", err)
	}

	cs := &countingReadStore{Store: s}
	c := NewCache(cs, svc, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := c.Get(ctx, "owner-1"); err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
	}

	// One miss populates the cache; the rest are served from memory.
	if got := cs.reads(); got != 2 { // miss + post-recompute re-read
		t.Errorf("expected 2 store reads for 5 Gets, got %d", got)
	}
}

func TestRecompute_InvalidatesCache(t *testing.T) {
	s := memstore.New()
	seedOwner(t, s, "owner-1", 1, 1, 0)

	svc, err := cache.NewService(cache.Config{
		Capacity:           100,
		NumShards:          2,
		TTL:                time.Minute,
		EvictionPercentage: 10,
	})
	if err != nil {
		t.Fatalf("cache.NewService() failed: %v", err)
	}

	c := NewCache(s, svc, nil)
	ctx := context.Background()

	before, err := c.Get(ctx, "owner-1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if before.TotalDishes != 1 {
		t.Fatalf("TotalDishes = %d, want 1", before.TotalDishes)
	}

	// New data plus a recompute; the cached entry must not be served.
	seedOwner(t, s, "owner-1", 0, 1, 0)
	if err := c.Recompute(ctx, "owner-1"); err != nil {
		t.Fatalf("Recompute() failed: %v", err)
	}

	after, err := c.Get(ctx, "owner-1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if after.TotalDishes != 2 {
		t.Errorf("stale summary served after recompute: TotalDishes = %d, want 2", after.TotalDishes)
	}
}

// countingReadStore counts GetByID calls against the summary collection.
type countingReadStore struct {
	store.Store
	mu sync.Mutex
	n  int
}

func (c *countingReadStore) GetByID(ctx context.Context, collection, id string) (store.Doc, error) {
	if collection == catalog.CollectionUserStats {
		c.mu.Lock()
		c.n++
		c.mu.Unlock()
	}
	return c.Store.GetByID(ctx, collection, id)
}

func (c *countingReadStore) reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
