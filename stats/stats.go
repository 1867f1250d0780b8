// Package stats maintains the per-owner statistics summary: a denormalized
// count record kept in the store so reads never pay for a full aggregation.
// The summary is recomputed from the restaurant and dish collections on
// demand and after every count-affecting mutation.
package stats

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-catalog-cache/cache"
	"github.com/goliatone/go-catalog-cache/catalog"
	"github.com/goliatone/go-catalog-cache/store"
)

// Cache reads and recomputes owner statistics summaries. An optional
// in-process cache.Service fronts the store read; it is invalidated on every
// recompute, so within one process a mutation is immediately visible.
type Cache struct {
	store  store.Store
	cache  cache.Service
	logger *slog.Logger
	now    func() time.Time
}

// NewCache creates a stats cache. The cache service may be nil to read the
// store directly; a nil logger falls back to slog.Default().
func NewCache(s store.Store, svc cache.Service, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{store: s, cache: svc, logger: logger, now: time.Now}
}

// Get returns the owner's summary. A missing summary triggers one recompute
// followed by exactly one re-read; a second miss means the store and the
// cache disagree immediately after a write, which is surfaced as
// catalog.ErrInconsistency instead of being retried again.
func (c *Cache) Get(ctx context.Context, ownerID string) (*catalog.StatsSummary, error) {
	if ownerID == "" {
		return nil, &catalog.ValidationError{Field: "ownerId", Message: "cannot be blank"}
	}
	if c.cache == nil {
		return c.load(ctx, ownerID)
	}
	return cache.GetOrFetch(ctx, c.cache, c.key(ownerID), func(ctx context.Context) (*catalog.StatsSummary, error) {
		return c.load(ctx, ownerID)
	})
}

// Recompute rebuilds the owner's summary from the entity collections and
// fully replaces the stored record. It satisfies catalog.StatsRefresher.
func (c *Cache) Recompute(ctx context.Context, ownerID string) error {
	_, err := c.recompute(ctx, ownerID)
	return err
}

func (c *Cache) load(ctx context.Context, ownerID string) (*catalog.StatsSummary, error) {
	doc, err := c.store.GetByID(ctx, catalog.CollectionUserStats, ownerID)
	if err == nil {
		return catalog.StatsFromDoc(doc), nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	// Lazy creation: first read for an owner computes the summary, then
	// re-reads it once. Bounded on purpose, never a loop.
	if _, err := c.recompute(ctx, ownerID); err != nil {
		return nil, err
	}
	doc, err = c.store.GetByID(ctx, catalog.CollectionUserStats, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		c.logger.Error("stats summary absent after recompute", "ownerId", ownerID)
		return nil, catalog.ErrInconsistency
	}
	if err != nil {
		return nil, err
	}
	return catalog.StatsFromDoc(doc), nil
}

// recompute runs the three counting queries concurrently and fails as a
// whole if any of them fails: a partially counted summary is worse than a
// stale one.
func (c *Cache) recompute(ctx context.Context, ownerID string) (*catalog.StatsSummary, error) {
	owned := store.Eq(catalog.FieldOwnerID, ownerID)

	var restaurants, dishes, mustTry int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := c.store.Count(gctx, catalog.CollectionRestaurants, store.Where(owned))
		restaurants = n
		return err
	})
	g.Go(func() error {
		n, err := c.store.Count(gctx, catalog.CollectionDishes, store.Where(owned))
		dishes = n
		return err
	})
	g.Go(func() error {
		n, err := c.store.Count(gctx, catalog.CollectionDishes,
			store.Where(owned, store.Eq(catalog.FieldRating, string(catalog.RatingMustTry))))
		mustTry = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &catalog.StatsSummary{
		OwnerID:          ownerID,
		TotalRestaurants: restaurants,
		TotalDishes:      dishes,
		MustTryCount:     mustTry,
		AvoidCount:       dishes - mustTry,
		LastUpdated:      c.now().UTC(),
	}
	if err := c.store.Upsert(ctx, catalog.CollectionUserStats, ownerID, summary.Doc()); err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Delete(ctx, c.key(ownerID)); err != nil {
			c.logger.Warn("stats cache invalidation failed", "ownerId", ownerID, "error", err)
		}
	}
	return summary, nil
}

func (c *Cache) key(ownerID string) string {
	return cache.Key("Stats", ownerID)
}
