package catalog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/goliatone/go-catalog-cache/store"
)

// DefaultListLimit is how many records list operations fetch when the caller
// does not ask for a specific amount.
const DefaultListLimit = 100

// StatsRefresher recomputes the per-owner statistics summary. The service
// calls it after every mutation that can change counts; failures are logged
// and never fail the mutation.
type StatsRefresher interface {
	Recompute(ctx context.Context, ownerID string) error
}

// Service is the catalog façade: entity CRUD with input validation, cascade
// deletes, denormalized restaurant counters, and best-effort stats refresh.
type Service struct {
	store  store.Store
	stats  StatsRefresher
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a catalog service. The refresher may be nil, in which
// case no stats are maintained; a nil logger falls back to slog.Default().
func NewService(s store.Store, refresher StatsRefresher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: s, stats: refresher, logger: logger, now: time.Now}
}

// CreateRestaurant validates the input, inserts the record, and refreshes
// the owner's stats.
func (s *Service) CreateRestaurant(ctx context.Context, ownerID string, in CreateRestaurantInput) (*Restaurant, error) {
	if ownerID == "" {
		return nil, &ValidationError{Field: "ownerId", Message: "cannot be blank"}
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	createdAt := s.now()
	doc := store.Doc{
		FieldOwnerID:      ownerID,
		FieldName:         in.Name,
		FieldAddress:      in.Address,
		FieldMustTryCount: int64(0),
		FieldAvoidCount:   int64(0),
		FieldCreatedAt:    createdAt.UnixMilli(),
	}
	id, err := s.store.Insert(ctx, CollectionRestaurants, doc)
	if err != nil {
		return nil, err
	}
	s.refreshStats(ctx, ownerID)

	return &Restaurant{
		ID:        id,
		OwnerID:   ownerID,
		Name:      in.Name,
		Address:   in.Address,
		CreatedAt: createdAt.UTC(),
	}, nil
}

// GetRestaurant returns a restaurant by id.
func (s *Service) GetRestaurant(ctx context.Context, id string) (*Restaurant, error) {
	doc, err := s.store.GetByID(ctx, CollectionRestaurants, id)
	if err != nil {
		return nil, err
	}
	return RestaurantFromDoc(doc), nil
}

// ListRestaurants returns up to limit of the owner's restaurants, newest
// first, batching past the store's per-call ceiling.
func (s *Service) ListRestaurants(ctx context.Context, ownerID string, limit int) ([]*Restaurant, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	docs, err := store.FetchAll(ctx, s.store, CollectionRestaurants,
		store.Where(store.Eq(FieldOwnerID, ownerID)),
		&store.Ordering{Field: FieldCreatedAt, Desc: true},
		limit)
	if err != nil {
		return nil, err
	}
	out := make([]*Restaurant, len(docs))
	for i, doc := range docs {
		out[i] = RestaurantFromDoc(doc)
	}
	return out, nil
}

// UpdateRestaurant applies a partial name/address update. Neither field
// affects counts, so no stats refresh happens here.
func (s *Service) UpdateRestaurant(ctx context.Context, id string, in UpdateRestaurantInput) error {
	if id == "" {
		return &ValidationError{Field: "id", Message: "cannot be blank"}
	}
	trimPtr(in.Name)
	trimPtr(in.Address)
	if err := in.Validate(); err != nil {
		return err
	}

	fields := store.Doc{}
	if in.Name != nil {
		fields[FieldName] = *in.Name
	}
	if in.Address != nil {
		fields[FieldAddress] = *in.Address
	}
	if len(fields) == 0 {
		return nil
	}
	return s.store.Update(ctx, CollectionRestaurants, id, fields)
}

// DeleteRestaurant removes a restaurant and all of its dishes, then
// refreshes the owner's stats.
func (s *Service) DeleteRestaurant(ctx context.Context, id string) error {
	doc, err := s.store.GetByID(ctx, CollectionRestaurants, id)
	if err != nil {
		return err
	}
	ownerID := doc.String(FieldOwnerID)

	if _, err := s.store.RemoveWhere(ctx, CollectionDishes, store.Where(store.Eq(FieldRestaurantID, id))); err != nil {
		return err
	}
	if err := s.store.Remove(ctx, CollectionRestaurants, id); err != nil {
		return err
	}
	s.refreshStats(ctx, ownerID)
	return nil
}

// CreateDish validates the input, checks the parent restaurant exists,
// inserts the record, bumps the restaurant's denormalized counter, and
// refreshes the owner's stats.
func (s *Service) CreateDish(ctx context.Context, ownerID string, in CreateDishInput) (*Dish, error) {
	if ownerID == "" {
		return nil, &ValidationError{Field: "ownerId", Message: "cannot be blank"}
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Note = strings.TrimSpace(in.Note)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetByID(ctx, CollectionRestaurants, in.RestaurantID); err != nil {
		return nil, err
	}

	createdAt := s.now()
	doc := store.Doc{
		FieldOwnerID:      ownerID,
		FieldRestaurantID: in.RestaurantID,
		FieldName:         in.Name,
		FieldRating:       string(in.Rating),
		FieldNote:         in.Note,
		FieldCreatedAt:    createdAt.UnixMilli(),
	}
	id, err := s.store.Insert(ctx, CollectionDishes, doc)
	if err != nil {
		return nil, err
	}

	s.bumpCounters(ctx, in.RestaurantID, store.Doc{
		ratingCounterField(in.Rating): store.Inc(1),
	})
	s.refreshStats(ctx, ownerID)

	return &Dish{
		ID:           id,
		OwnerID:      ownerID,
		RestaurantID: in.RestaurantID,
		Name:         in.Name,
		Rating:       in.Rating,
		Note:         in.Note,
		CreatedAt:    createdAt.UTC(),
	}, nil
}

// BatchCreateDishes inserts several dishes under one restaurant. Every input
// is validated before any store write, so invalid input causes no partial
// writes. Returns how many dishes were created.
func (s *Service) BatchCreateDishes(ctx context.Context, ownerID, restaurantID string, dishes []CreateDishInput) (int, error) {
	if ownerID == "" {
		return 0, &ValidationError{Field: "ownerId", Message: "cannot be blank"}
	}
	if restaurantID == "" {
		return 0, &ValidationError{Field: "restaurantId", Message: "cannot be blank"}
	}
	if len(dishes) == 0 {
		return 0, &ValidationError{Field: "dishes", Message: "cannot be empty"}
	}
	for i := range dishes {
		dishes[i].RestaurantID = restaurantID
		dishes[i].Name = strings.TrimSpace(dishes[i].Name)
		dishes[i].Note = strings.TrimSpace(dishes[i].Note)
		if err := dishes[i].Validate(); err != nil {
			return 0, err
		}
	}
	if _, err := s.store.GetByID(ctx, CollectionRestaurants, restaurantID); err != nil {
		return 0, err
	}

	var mustTry, avoid int64
	created := 0
	for _, in := range dishes {
		doc := store.Doc{
			FieldOwnerID:      ownerID,
			FieldRestaurantID: restaurantID,
			FieldName:         in.Name,
			FieldRating:       string(in.Rating),
			FieldNote:         in.Note,
			FieldCreatedAt:    s.now().UnixMilli(),
		}
		if _, err := s.store.Insert(ctx, CollectionDishes, doc); err != nil {
			s.refreshStats(ctx, ownerID)
			return created, err
		}
		created++
		if in.Rating == RatingMustTry {
			mustTry++
		} else {
			avoid++
		}
	}

	counters := store.Doc{}
	if mustTry > 0 {
		counters[FieldMustTryCount] = store.Inc(mustTry)
	}
	if avoid > 0 {
		counters[FieldAvoidCount] = store.Inc(avoid)
	}
	s.bumpCounters(ctx, restaurantID, counters)
	s.refreshStats(ctx, ownerID)
	return created, nil
}

// GetDish returns a dish by id.
func (s *Service) GetDish(ctx context.Context, id string) (*Dish, error) {
	doc, err := s.store.GetByID(ctx, CollectionDishes, id)
	if err != nil {
		return nil, err
	}
	return DishFromDoc(doc), nil
}

// ListDishes returns a restaurant's dishes, optionally filtered by rating,
// newest first.
func (s *Service) ListDishes(ctx context.Context, restaurantID string, rating Rating) ([]*Dish, error) {
	pred := store.Where(store.Eq(FieldRestaurantID, restaurantID))
	if rating != "" {
		pred = append(pred, store.Eq(FieldRating, string(rating)))
	}
	docs, err := store.FetchAll(ctx, s.store, CollectionDishes, pred,
		&store.Ordering{Field: FieldCreatedAt, Desc: true},
		DefaultListLimit)
	if err != nil {
		return nil, err
	}
	out := make([]*Dish, len(docs))
	for i, doc := range docs {
		out[i] = DishFromDoc(doc)
	}
	return out, nil
}

// UpdateDish applies a partial update. A rating change moves the parent
// restaurant's denormalized counters and triggers a stats refresh;
// name/note-only edits do neither.
func (s *Service) UpdateDish(ctx context.Context, id string, in UpdateDishInput) error {
	if id == "" {
		return &ValidationError{Field: "id", Message: "cannot be blank"}
	}
	trimPtr(in.Name)
	trimPtr(in.Note)
	if err := in.Validate(); err != nil {
		return err
	}

	doc, err := s.store.GetByID(ctx, CollectionDishes, id)
	if err != nil {
		return err
	}
	existing := DishFromDoc(doc)

	fields := store.Doc{}
	if in.Name != nil {
		fields[FieldName] = *in.Name
	}
	if in.Note != nil {
		fields[FieldNote] = *in.Note
	}
	ratingChanged := in.Rating != nil && *in.Rating != existing.Rating
	if ratingChanged {
		fields[FieldRating] = string(*in.Rating)
	}
	if len(fields) == 0 {
		return nil
	}
	if err := s.store.Update(ctx, CollectionDishes, id, fields); err != nil {
		return err
	}

	if ratingChanged {
		s.bumpCounters(ctx, existing.RestaurantID, store.Doc{
			ratingCounterField(existing.Rating): store.Inc(-1),
			ratingCounterField(*in.Rating):      store.Inc(1),
		})
		s.refreshStats(ctx, existing.OwnerID)
	}
	return nil
}

// DeleteDish removes a dish, decrements the parent restaurant's counter,
// and refreshes the owner's stats.
func (s *Service) DeleteDish(ctx context.Context, id string) error {
	doc, err := s.store.GetByID(ctx, CollectionDishes, id)
	if err != nil {
		return err
	}
	dish := DishFromDoc(doc)

	if err := s.store.Remove(ctx, CollectionDishes, id); err != nil {
		return err
	}
	s.bumpCounters(ctx, dish.RestaurantID, store.Doc{
		ratingCounterField(dish.Rating): store.Inc(-1),
	})
	s.refreshStats(ctx, dish.OwnerID)
	return nil
}

// refreshStats recomputes the owner's summary after a mutation. The mutation
// already succeeded and is the source of truth, so a failed refresh is a
// warning, never an error for the caller.
func (s *Service) refreshStats(ctx context.Context, ownerID string) {
	if s.stats == nil {
		return
	}
	if err := s.stats.Recompute(ctx, ownerID); err != nil {
		s.logger.Warn("stats refresh failed", "ownerId", ownerID, "error", err)
	}
}

// bumpCounters adjusts a restaurant's denormalized dish counters. The dish
// collection stays authoritative, so failures here are logged and tolerated.
func (s *Service) bumpCounters(ctx context.Context, restaurantID string, counters store.Doc) {
	if len(counters) == 0 {
		return
	}
	if err := s.store.Update(ctx, CollectionRestaurants, restaurantID, counters); err != nil {
		s.logger.Warn("restaurant counter update failed", "restaurantId", restaurantID, "error", err)
	}
}

func ratingCounterField(r Rating) string {
	if r == RatingMustTry {
		return FieldMustTryCount
	}
	return FieldAvoidCount
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
