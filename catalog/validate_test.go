package catalog

import (
	"errors"
	"strings"
	"testing"
)

func TestCreateRestaurantInput_Validate(t *testing.T) {
	tests := []struct {
		name      string
		in        CreateRestaurantInput
		wantField string // empty means valid
	}{
		{
			name: "valid latin",
			in:   CreateRestaurantInput{Name: "PapaJohns", Address: "12-MainStreet"},
		},
		{
			name: "valid CJK with middle dot",
			in:   CreateRestaurantInput{Name: "小龙坎·火锅", Address: "人民路1号"},
		},
		{
			name:      "name required",
			in:        CreateRestaurantInput{Address: "12-MainStreet"},
			wantField: "name",
		},
		{
			name:      "name too long",
			in:        CreateRestaurantInput{Name: strings.Repeat("a", 16)},
			wantField: "name",
		},
		{
			name: "name at limit",
			in:   CreateRestaurantInput{Name: strings.Repeat("a", 15)},
		},
		{
			name:      "name rejects emoji",
			in:        CreateRestaurantInput{Name: "Pizza🍕"},
			wantField: "name",
		},
		{
			name: "address optional",
			in:   CreateRestaurantInput{Name: "PapaJohns"},
		},
		{
			name:      "address too long",
			in:        CreateRestaurantInput{Name: "PapaJohns", Address: strings.Repeat("a", 31)},
			wantField: "address",
		},
		{
			name:      "address rejects parens",
			in:        CreateRestaurantInput{Name: "PapaJohns", Address: "Main(St)"},
			wantField: "address",
		},
		{
			name: "address allows hash and slash",
			in:   CreateRestaurantInput{Name: "PapaJohns", Address: "B1/2#3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			checkValidation(t, err, tt.wantField)
		})
	}
}

func TestCreateDishInput_Validate(t *testing.T) {
	tests := []struct {
		name      string
		in        CreateDishInput
		wantField string
	}{
		{
			name: "valid",
			in:   CreateDishInput{RestaurantID: "r1", Name: "GarlicBread", Rating: RatingMustTry},
		},
		{
			name: "valid with note",
			in:   CreateDishInput{RestaurantID: "r1", Name: "蒜香面包", Rating: RatingAvoid, Note: "太咸了，别点！"},
		},
		{
			name:      "restaurant id required",
			in:        CreateDishInput{Name: "GarlicBread", Rating: RatingMustTry},
			wantField: "restaurantId",
		},
		{
			name:      "rating required",
			in:        CreateDishInput{RestaurantID: "r1", Name: "GarlicBread"},
			wantField: "rating",
		},
		{
			name:      "rating outside enum",
			in:        CreateDishInput{RestaurantID: "r1", Name: "GarlicBread", Rating: "spicy"},
			wantField: "rating",
		},
		{
			name:      "name too long",
			in:        CreateDishInput{RestaurantID: "r1", Name: strings.Repeat("x", 21), Rating: RatingMustTry},
			wantField: "name",
		},
		{
			name: "note at limit",
			in:   CreateDishInput{RestaurantID: "r1", Name: "Bread", Rating: RatingMustTry, Note: strings.Repeat("好", 50)},
		},
		{
			name:      "note too long",
			in:        CreateDishInput{RestaurantID: "r1", Name: "Bread", Rating: RatingMustTry, Note: strings.Repeat("好", 51)},
			wantField: "note",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			checkValidation(t, err, tt.wantField)
		})
	}
}

func TestUpdateDishInput_Validate(t *testing.T) {
	empty := ""
	long := strings.Repeat("x", 21)
	good := "NewName"
	badRating := Rating("spicy")
	goodRating := RatingAvoid

	tests := []struct {
		name      string
		in        UpdateDishInput
		wantField string
	}{
		{name: "all nil is valid", in: UpdateDishInput{}},
		{name: "rating change", in: UpdateDishInput{Rating: &goodRating}},
		{name: "empty name rejected", in: UpdateDishInput{Name: &empty}, wantField: "name"},
		{name: "long name rejected", in: UpdateDishInput{Name: &long}, wantField: "name"},
		{name: "name ok", in: UpdateDishInput{Name: &good}},
		{name: "bad rating rejected", in: UpdateDishInput{Rating: &badRating}, wantField: "rating"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			checkValidation(t, err, tt.wantField)
		})
	}
}

func checkValidation(t *testing.T, err error, wantField string) {
	t.Helper()
	if wantField == "" {
		if err != nil {
			t.Fatalf("expected valid input, got %v", err)
		}
		return
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if verr.Field != wantField {
		t.Errorf("error field = %q, want %q", verr.Field, wantField)
	}
	if Classify(err) != KindValidation {
		t.Errorf("Classify() = %v, want KindValidation", Classify(err))
	}
}
