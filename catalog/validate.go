package catalog

import (
	"errors"
	"regexp"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Character sets carried over from the product's input rules: CJK ideographs,
// latin letters, digits, and a small per-field punctuation allowance.
var (
	nameCharset    = regexp.MustCompile(`^[\x{4e00}-\x{9fa5}a-zA-Z0-9\-·()（）]+$`)
	addressCharset = regexp.MustCompile(`^[\x{4e00}-\x{9fa5}a-zA-Z0-9\-#/]+$`)
	noteCharset    = regexp.MustCompile(`^[\x{4e00}-\x{9fa5}a-zA-Z0-9\s，。！？、；：“”‘’（）【】…—,.!?;:()\[\]\-]+$`)
)

// Field length limits. The note limit is 50 runes; a legacy call path used
// 25 but the shared validator always allowed 50, which is the rule kept here.
const (
	maxRestaurantNameLen    = 15
	maxRestaurantAddressLen = 30
	maxDishNameLen          = 20
	maxDishNoteLen          = 50
)

// CreateRestaurantInput carries the fields for a new restaurant.
type CreateRestaurantInput struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Validate checks field constraints. No store access happens here.
func (in CreateRestaurantInput) Validate() error {
	return wrapValidation(validation.ValidateStruct(&in,
		validation.Field(&in.Name,
			validation.Required,
			validation.RuneLength(1, maxRestaurantNameLen),
			validation.Match(nameCharset)),
		validation.Field(&in.Address,
			validation.RuneLength(0, maxRestaurantAddressLen),
			validation.Match(addressCharset)),
	))
}

// UpdateRestaurantInput names only the fields being changed; nil fields are
// left untouched.
type UpdateRestaurantInput struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
}

// Validate checks the fields that are present.
func (in UpdateRestaurantInput) Validate() error {
	return wrapValidation(validation.ValidateStruct(&in,
		validation.Field(&in.Name,
			validation.NilOrNotEmpty,
			validation.RuneLength(1, maxRestaurantNameLen),
			validation.Match(nameCharset)),
		validation.Field(&in.Address,
			validation.RuneLength(0, maxRestaurantAddressLen),
			validation.Match(addressCharset)),
	))
}

// CreateDishInput carries the fields for a new dish.
type CreateDishInput struct {
	RestaurantID string `json:"restaurantId"`
	Name         string `json:"name"`
	Rating       Rating `json:"rating"`
	Note         string `json:"note"`
}

// Validate checks field constraints, including the closed rating enum.
func (in CreateDishInput) Validate() error {
	return wrapValidation(validation.ValidateStruct(&in,
		validation.Field(&in.RestaurantID, validation.Required),
		validation.Field(&in.Name,
			validation.Required,
			validation.RuneLength(1, maxDishNameLen),
			validation.Match(nameCharset)),
		validation.Field(&in.Rating,
			validation.Required,
			validation.In(RatingMustTry, RatingAvoid)),
		validation.Field(&in.Note,
			validation.RuneLength(0, maxDishNoteLen),
			validation.Match(noteCharset)),
	))
}

// UpdateDishInput names only the fields being changed; nil fields are left
// untouched.
type UpdateDishInput struct {
	Name   *string `json:"name"`
	Rating *Rating `json:"rating"`
	Note   *string `json:"note"`
}

// Validate checks the fields that are present.
func (in UpdateDishInput) Validate() error {
	return wrapValidation(validation.ValidateStruct(&in,
		validation.Field(&in.Name,
			validation.NilOrNotEmpty,
			validation.RuneLength(1, maxDishNameLen),
			validation.Match(nameCharset)),
		validation.Field(&in.Rating,
			validation.In(RatingMustTry, RatingAvoid)),
		validation.Field(&in.Note,
			validation.RuneLength(0, maxDishNoteLen),
			validation.Match(noteCharset)),
	))
}

// wrapValidation converts ozzo's error map into the layer's ValidationError,
// picking the lexically first failing field for a deterministic report.
func wrapValidation(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if errors.As(err, &errs) && len(errs) > 0 {
		fields := make([]string, 0, len(errs))
		for f := range errs {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		return &ValidationError{Field: fields[0], Message: errs[fields[0]].Error()}
	}
	return &ValidationError{Message: err.Error()}
}
