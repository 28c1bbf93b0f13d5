package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/pawalert/internal/shared"
)

// AgeUnit is the unit a shelter recorded a pet's age in.
type AgeUnit string

const (
	AgeDays   AgeUnit = "days"
	AgeWeeks  AgeUnit = "weeks"
	AgeMonths AgeUnit = "months"
	AgeYears  AgeUnit = "years"
)

// Age is a pet age as entered by the shelter.
type Age struct {
	Value float64 `json:"value"`
	Unit  AgeUnit `json:"unit,omitempty"`
}

// Normalize returns the age in years. An empty unit counts as years.
func (a Age) Normalize() (float64, error) {
	if a.Value < 0 {
		return 0, fmt.Errorf("%w: negative age %v", shared.ErrMalformedListing, a.Value)
	}
	switch AgeUnit(strings.ToLower(string(a.Unit))) {
	case AgeDays:
		return a.Value / 365, nil
	case AgeWeeks:
		return a.Value / 52, nil
	case AgeMonths:
		return a.Value / 12, nil
	case AgeYears, "":
		return a.Value, nil
	default:
		return 0, fmt.Errorf("%w: unknown age unit %q", shared.ErrMalformedListing, a.Unit)
	}
}

// String formats the age as "<value> <unit>", e.g. "8 weeks".
func (a Age) String() string {
	unit := a.Unit
	if unit == "" {
		unit = AgeYears
	}
	return strconv.FormatFloat(a.Value, 'f', -1, 64) + " " + string(unit)
}

// ListingCreatedEvent is the "pet created" event emitted by the listing subsystem.
type ListingCreatedEvent struct {
	ListingID string    `json:"listingId"`
	Name      string    `json:"name"`
	Species   string    `json:"species"`
	Breed     string    `json:"breed"`
	Age       *Age      `json:"age"`
	Size      string    `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListingSnapshot is the immutable view of a listing a matching cycle runs against.
//
// Species, Breed and Size hold normalized tags; BreedLabel keeps the shelter's spelling for messages.
type ListingSnapshot struct {
	ListingID     string
	Name          string
	Species       string
	Breed         string
	BreedLabel    string
	Age           Age
	NormalizedAge float64
	Size          string
}

// NewListingSnapshot validates ev and freezes it into a [ListingSnapshot].
//
// A missing listing id, species, size or age yields [shared.ErrMalformedListing].
func NewListingSnapshot(ev ListingCreatedEvent) (ListingSnapshot, error) {
	var missing []string
	if strings.TrimSpace(ev.ListingID) == "" {
		missing = append(missing, "listingId")
	}
	if shared.NormalizeTag(ev.Species) == "" {
		missing = append(missing, "species")
	}
	if shared.NormalizeTag(ev.Size) == "" {
		missing = append(missing, "size")
	}
	if ev.Age == nil {
		missing = append(missing, "age")
	}
	if len(missing) > 0 {
		return ListingSnapshot{}, fmt.Errorf("%w: missing %s", shared.ErrMalformedListing, strings.Join(missing, ", "))
	}

	years, err := ev.Age.Normalize()
	if err != nil {
		return ListingSnapshot{}, err
	}

	return ListingSnapshot{
		ListingID:     strings.TrimSpace(ev.ListingID),
		Name:          strings.TrimSpace(ev.Name),
		Species:       shared.NormalizeTag(ev.Species),
		Breed:         shared.NormalizeTag(ev.Breed),
		BreedLabel:    strings.TrimSpace(ev.Breed),
		Age:           *ev.Age,
		NormalizedAge: years,
		Size:          shared.NormalizeTag(ev.Size),
	}, nil
}
