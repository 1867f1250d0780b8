package catalog

import (
	"time"

	"github.com/goliatone/go-catalog-cache/store"
)

// Collection names in the backing store.
const (
	CollectionRestaurants = "restaurants"
	CollectionDishes      = "dishes"
	CollectionUserStats   = "user_stats"
)

// Document field names shared by the catalog, stats, and search packages.
const (
	FieldOwnerID      = "ownerId"
	FieldName         = "name"
	FieldAddress      = "address"
	FieldRestaurantID = "restaurantId"
	FieldRating       = "rating"
	FieldNote         = "note"
	FieldMustTryCount = "mustTryCount"
	FieldAvoidCount   = "avoidCount"
	FieldCreatedAt    = "createdAt"

	FieldTotalRestaurants = "totalRestaurants"
	FieldTotalDishes      = "totalDishes"
	FieldLastUpdated      = "lastUpdated"
)

// Rating is the closed dish rating enumeration.
type Rating string

const (
	RatingMustTry Rating = "must-try"
	RatingAvoid   Rating = "avoid"
)

// Restaurant is a catalog entity owned by a single user. MustTryCount and
// AvoidCount are denormalized convenience counters maintained by the service;
// the authoritative source is the set of associated dishes.
type Restaurant struct {
	ID           string
	OwnerID      string
	Name         string
	Address      string
	MustTryCount int
	AvoidCount   int
	CreatedAt    time.Time
}

// Dish belongs to exactly one restaurant and is deleted with it.
type Dish struct {
	ID           string
	OwnerID      string
	RestaurantID string
	Name         string
	Rating       Rating
	Note         string
	CreatedAt    time.Time
}

// StatsSummary is the per-owner denormalized statistics record. It is a
// cache derived from the restaurant and dish collections and can be rebuilt
// at any time without data loss.
type StatsSummary struct {
	OwnerID          string
	TotalRestaurants int
	TotalDishes      int
	MustTryCount     int
	AvoidCount       int
	LastUpdated      time.Time
}

// RestaurantFromDoc decodes a restaurant record.
func RestaurantFromDoc(doc store.Doc) *Restaurant {
	return &Restaurant{
		ID:           doc.String(store.FieldID),
		OwnerID:      doc.String(FieldOwnerID),
		Name:         doc.String(FieldName),
		Address:      doc.String(FieldAddress),
		MustTryCount: int(doc.Int64(FieldMustTryCount)),
		AvoidCount:   int(doc.Int64(FieldAvoidCount)),
		CreatedAt:    timeFromMillis(doc.Int64(FieldCreatedAt)),
	}
}

// DishFromDoc decodes a dish record.
func DishFromDoc(doc store.Doc) *Dish {
	return &Dish{
		ID:           doc.String(store.FieldID),
		OwnerID:      doc.String(FieldOwnerID),
		RestaurantID: doc.String(FieldRestaurantID),
		Name:         doc.String(FieldName),
		Rating:       Rating(doc.String(FieldRating)),
		Note:         doc.String(FieldNote),
		CreatedAt:    timeFromMillis(doc.Int64(FieldCreatedAt)),
	}
}

// StatsFromDoc decodes a stats summary record.
func StatsFromDoc(doc store.Doc) *StatsSummary {
	return &StatsSummary{
		OwnerID:          doc.String(store.FieldID),
		TotalRestaurants: int(doc.Int64(FieldTotalRestaurants)),
		TotalDishes:      int(doc.Int64(FieldTotalDishes)),
		MustTryCount:     int(doc.Int64(FieldMustTryCount)),
		AvoidCount:       int(doc.Int64(FieldAvoidCount)),
		LastUpdated:      timeFromMillis(doc.Int64(FieldLastUpdated)),
	}
}

// Doc encodes the summary as a full-replace store record. The owner id is
// the record id, one summary per owner.
func (s *StatsSummary) Doc() store.Doc {
	return store.Doc{
		FieldTotalRestaurants: int64(s.TotalRestaurants),
		FieldTotalDishes:      int64(s.TotalDishes),
		FieldMustTryCount:     int64(s.MustTryCount),
		FieldAvoidCount:       int64(s.AvoidCount),
		FieldLastUpdated:      s.LastUpdated.UnixMilli(),
	}
}

func timeFromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
