// Package search executes keyword search across the restaurant and dish
// collections and annotates every matched text field with highlight spans.
package search

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-catalog-cache/catalog"
	"github.com/goliatone/go-catalog-cache/store"
)

// DefaultLimit caps how many results each collection contributes.
const DefaultLimit = 20

// UnknownRestaurantName labels dish matches whose parent restaurant could
// not be resolved. Such dishes stay in the result instead of being dropped.
const UnknownRestaurantName = "Unknown restaurant"

// Config holds search engine options.
type Config struct {
	// Limit is the per-collection result cap; zero means DefaultLimit.
	Limit int
}

// Engine runs substring search against the store.
type Engine struct {
	store store.Store
	limit int
}

// NewEngine creates a search engine over the given store.
func NewEngine(s store.Store, cfg Config) *Engine {
	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Engine{store: s, limit: limit}
}

// RestaurantMatch is a restaurant hit with highlighted fields.
type RestaurantMatch struct {
	Restaurant      *catalog.Restaurant
	NameSegments    []Segment
	AddressSegments []Segment
}

// DishMatch is a dish hit with its parent restaurant's display name and a
// highlighted dish name.
type DishMatch struct {
	Dish           *catalog.Dish
	RestaurantName string
	NameSegments   []Segment
}

// Result is a merged search result across both collections.
type Result struct {
	Restaurants []RestaurantMatch
	Dishes      []DishMatch
}

// Search runs the keyword against restaurant names, restaurant addresses,
// and dish names concurrently, then merges the restaurant hits by id and
// resolves dish parent names with one batched lookup. The keyword is
// trimmed; an empty keyword returns an empty result without touching the
// store. A failure of any sub-query fails the whole search.
func (e *Engine) Search(ctx context.Context, keyword string) (*Result, error) {
	kw := strings.TrimSpace(keyword)
	if kw == "" {
		return &Result{}, nil
	}

	var byName, byAddress, dishDocs []store.Doc
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		docs, err := store.FetchAll(gctx, e.store, catalog.CollectionRestaurants,
			store.Where(store.Contains(catalog.FieldName, kw)), nil, e.limit)
		byName = docs
		return err
	})
	g.Go(func() error {
		docs, err := store.FetchAll(gctx, e.store, catalog.CollectionRestaurants,
			store.Where(store.Contains(catalog.FieldAddress, kw)), nil, e.limit)
		byAddress = docs
		return err
	})
	g.Go(func() error {
		docs, err := store.FetchAll(gctx, e.store, catalog.CollectionDishes,
			store.Where(store.Contains(catalog.FieldName, kw)), nil, e.limit)
		dishDocs = docs
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	restaurants := mergeRestaurants(byName, byAddress)

	dishes := make([]*catalog.Dish, len(dishDocs))
	for i, doc := range dishDocs {
		dishes[i] = catalog.DishFromDoc(doc)
	}
	parentNames, err := e.resolveParentNames(ctx, dishes)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Restaurants: make([]RestaurantMatch, len(restaurants)),
		Dishes:      make([]DishMatch, len(dishes)),
	}
	for i, r := range restaurants {
		result.Restaurants[i] = RestaurantMatch{
			Restaurant:      r,
			NameSegments:    Highlight(r.Name, kw),
			AddressSegments: Highlight(r.Address, kw),
		}
	}
	for i, d := range dishes {
		name, ok := parentNames[d.RestaurantID]
		if !ok {
			name = UnknownRestaurantName
		}
		result.Dishes[i] = DishMatch{
			Dish:           d,
			RestaurantName: name,
			NameSegments:   Highlight(d.Name, kw),
		}
	}
	return result, nil
}

// mergeRestaurants combines the name and address hits into one sequence
// keyed by id. Duplicates are structurally identical records, so last write
// wins and the first occurrence keeps its position.
func mergeRestaurants(byName, byAddress []store.Doc) []*catalog.Restaurant {
	var order []string
	byID := make(map[string]*catalog.Restaurant)
	for _, doc := range byName {
		r := catalog.RestaurantFromDoc(doc)
		if _, seen := byID[r.ID]; !seen {
			order = append(order, r.ID)
		}
		byID[r.ID] = r
	}
	for _, doc := range byAddress {
		r := catalog.RestaurantFromDoc(doc)
		if _, seen := byID[r.ID]; !seen {
			order = append(order, r.ID)
		}
		byID[r.ID] = r
	}

	out := make([]*catalog.Restaurant, len(order))
	for i, id := range order {
		out[i] = byID[id]
	}
	return out
}

// resolveParentNames looks up the display names for every distinct parent
// restaurant in one batched call, avoiding a per-dish lookup fan-out.
func (e *Engine) resolveParentNames(ctx context.Context, dishes []*catalog.Dish) (map[string]string, error) {
	if len(dishes) == 0 {
		return nil, nil
	}
	var ids []string
	seen := make(map[string]bool)
	for _, d := range dishes {
		if !seen[d.RestaurantID] {
			seen[d.RestaurantID] = true
			ids = append(ids, d.RestaurantID)
		}
	}

	docs, err := e.store.GetByIDs(ctx, catalog.CollectionRestaurants, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(docs))
	for _, doc := range docs {
		names[doc.String(store.FieldID)] = doc.String(catalog.FieldName)
	}
	return names, nil
}
