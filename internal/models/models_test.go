package models

import (
	"errors"
	"math"
	"testing"

	"github.com/desertthunder/pawalert/internal/shared"
)

func ptr(v float64) *float64 { return &v }

func TestAgeNormalize(t *testing.T) {
	tc := []struct {
		name string
		age  Age
		want float64
	}{
		{name: "years", age: Age{Value: 3, Unit: AgeYears}, want: 3},
		{name: "default unit is years", age: Age{Value: 2}, want: 2},
		{name: "months", age: Age{Value: 18, Unit: AgeMonths}, want: 1.5},
		{name: "weeks", age: Age{Value: 26, Unit: AgeWeeks}, want: 0.5},
		{name: "days", age: Age{Value: 730, Unit: AgeDays}, want: 2},
		{name: "unit is case-insensitive", age: Age{Value: 6, Unit: "Months"}, want: 0.5},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.age.Normalize()
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Normalize() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("rejects unknown unit", func(t *testing.T) {
		if _, err := (Age{Value: 1, Unit: "decades"}).Normalize(); !errors.Is(err, shared.ErrMalformedListing) {
			t.Errorf("expected ErrMalformedListing, got %v", err)
		}
	})

	t.Run("rejects negative value", func(t *testing.T) {
		if _, err := (Age{Value: -1}).Normalize(); !errors.Is(err, shared.ErrMalformedListing) {
			t.Errorf("expected ErrMalformedListing, got %v", err)
		}
	})
}

func TestAgeString(t *testing.T) {
	if got := (Age{Value: 8, Unit: AgeWeeks}).String(); got != "8 weeks" {
		t.Errorf("String() = %q, want %q", got, "8 weeks")
	}
	if got := (Age{Value: 2.5}).String(); got != "2.5 years" {
		t.Errorf("String() = %q, want %q", got, "2.5 years")
	}
}

func TestNewListingSnapshot(t *testing.T) {
	t.Run("normalizes tags and age", func(t *testing.T) {
		snap, err := NewListingSnapshot(ListingCreatedEvent{
			ListingID: "pet-1",
			Name:      "Biscuit",
			Species:   "Dog",
			Breed:     " Golden  Retriever ",
			Age:       &Age{Value: 24, Unit: AgeMonths},
			Size:      "Large",
		})
		if err != nil {
			t.Fatalf("NewListingSnapshot() error = %v", err)
		}
		if snap.Species != "dog" || snap.Size != "large" || snap.Breed != "golden retriever" {
			t.Errorf("tags not normalized: %+v", snap)
		}
		if snap.BreedLabel != "Golden  Retriever" {
			t.Errorf("expected breed label to keep shelter spelling, got %q", snap.BreedLabel)
		}
		if snap.NormalizedAge != 2 {
			t.Errorf("expected normalized age 2, got %v", snap.NormalizedAge)
		}
	})

	tc := []struct {
		name string
		ev   ListingCreatedEvent
	}{
		{name: "missing id", ev: ListingCreatedEvent{Species: "Dog", Size: "Small", Age: &Age{Value: 1}}},
		{name: "missing species", ev: ListingCreatedEvent{ListingID: "p", Size: "Small", Age: &Age{Value: 1}}},
		{name: "missing size", ev: ListingCreatedEvent{ListingID: "p", Species: "Dog", Age: &Age{Value: 1}}},
		{name: "missing age", ev: ListingCreatedEvent{ListingID: "p", Species: "Dog", Size: "Small"}},
		{name: "bad age unit", ev: ListingCreatedEvent{ListingID: "p", Species: "Dog", Size: "Small", Age: &Age{Value: 1, Unit: "eons"}}},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewListingSnapshot(tt.ev); !errors.Is(err, shared.ErrMalformedListing) {
				t.Errorf("expected ErrMalformedListing, got %v", err)
			}
		})
	}
}

func TestAgeRangeContains(t *testing.T) {
	tc := []struct {
		name  string
		r     *AgeRange
		years float64
		want  bool
	}{
		{name: "nil range", r: nil, years: 40, want: true},
		{name: "lower bound inclusive", r: &AgeRange{Min: ptr(1), Max: ptr(3)}, years: 1, want: true},
		{name: "upper bound inclusive", r: &AgeRange{Min: ptr(1), Max: ptr(3)}, years: 3, want: true},
		{name: "below", r: &AgeRange{Min: ptr(1), Max: ptr(3)}, years: 0.5, want: false},
		{name: "above", r: &AgeRange{Min: ptr(1), Max: ptr(3)}, years: 3.01, want: false},
		{name: "open max", r: &AgeRange{Min: ptr(2)}, years: 15, want: true},
		{name: "open min", r: &AgeRange{Max: ptr(2)}, years: 0, want: true},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Contains(tt.years); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.years, got, tt.want)
			}
		})
	}
}

func TestPreferenceRecord(t *testing.T) {
	t.Run("Normalize", func(t *testing.T) {
		p := PreferenceRecord{UserID: "u1", Species: []string{"Dog", "dog"}, Breeds: nil, AgeRange: &AgeRange{}}
		p.Normalize()
		if len(p.Species) != 1 || p.Species[0] != "dog" {
			t.Errorf("unexpected species %v", p.Species)
		}
		if p.Breeds == nil {
			t.Error("breeds should be an empty non-nil set after Normalize")
		}
		if p.AgeRange != nil {
			t.Error("empty age range should collapse to nil")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name    string
			p       PreferenceRecord
			wantErr bool
		}{
			{name: "valid", p: PreferenceRecord{UserID: "u1", AgeRange: &AgeRange{Min: ptr(1), Max: ptr(2)}}},
			{name: "missing user", p: PreferenceRecord{}, wantErr: true},
			{name: "inverted range", p: PreferenceRecord{UserID: "u1", AgeRange: &AgeRange{Min: ptr(5), Max: ptr(2)}}, wantErr: true},
			{name: "negative bound", p: PreferenceRecord{UserID: "u1", AgeRange: &AgeRange{Min: ptr(-1)}}, wantErr: true},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.p.Validate()
				if (err != nil) != tt.wantErr {
					t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				}
			})
		}
	})
}

func TestUser(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		u := NewUser(1, "ada@example.com", "Ada")
		if err := u.Validate(); err == nil {
			t.Error("user without id should not validate")
		}
		u.SetID("u1")
		if err := u.Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
		u.SetEmail("not-an-email")
		if err := u.Validate(); !errors.Is(err, shared.ErrInvalidContact) {
			t.Errorf("expected ErrInvalidContact, got %v", err)
		}
	})

	t.Run("Contact", func(t *testing.T) {
		u := NewUser(1, " ada@example.com ", "Ada")
		u.SetID("u1")
		c := u.Contact()
		if c.UserID != "u1" || c.Email != "ada@example.com" || c.Name != "Ada" {
			t.Errorf("unexpected contact %+v", c)
		}
	})
}

func TestValidateEmail(t *testing.T) {
	for _, email := range []string{"", "   ", "nobody", "Ada <ada@example.com>"} {
		if err := ValidateEmail(email); !errors.Is(err, shared.ErrInvalidContact) {
			t.Errorf("ValidateEmail(%q) = %v, want ErrInvalidContact", email, err)
		}
	}
	if err := ValidateEmail("ada@example.com"); err != nil {
		t.Errorf("ValidateEmail() error = %v", err)
	}
}
