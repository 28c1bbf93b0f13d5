package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/pawalert/internal/shared"
)

// AgeRange bounds a preferred age in years. A nil bound is unbounded on that side.
type AgeRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Contains reports whether years lies within the inclusive range.
func (r *AgeRange) Contains(years float64) bool {
	if r == nil {
		return true
	}
	if r.Min != nil && years < *r.Min {
		return false
	}
	if r.Max != nil && years > *r.Max {
		return false
	}
	return true
}

// PreferenceRecord is a user's standing adoption preferences.
//
// An empty facet set is a wildcard under the default matching policy.
type PreferenceRecord struct {
	UserID      string    `json:"userId"`
	WantsAlerts bool      `json:"wantsAlerts"`
	Species     []string  `json:"species"`
	Breeds      []string  `json:"breeds"`
	AgeRange    *AgeRange `json:"ageRange,omitempty"`
	Size        []string  `json:"size"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Normalize rewrites the tag facets through [shared.NormalizeTags] and drops an empty age range.
func (p *PreferenceRecord) Normalize() {
	p.Species = shared.NormalizeTags(p.Species)
	p.Breeds = shared.NormalizeTags(p.Breeds)
	p.Size = shared.NormalizeTags(p.Size)
	if p.AgeRange != nil && p.AgeRange.Min == nil && p.AgeRange.Max == nil {
		p.AgeRange = nil
	}
}

// Validate reports an unusable record: no owner, or an inverted or negative age range.
func (p PreferenceRecord) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("%w: preference user id is required", shared.ErrInvalidInput)
	}
	if r := p.AgeRange; r != nil {
		if (r.Min != nil && *r.Min < 0) || (r.Max != nil && *r.Max < 0) {
			return fmt.Errorf("%w: age bounds must not be negative", shared.ErrInvalidInput)
		}
		if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
			return fmt.Errorf("%w: age range min %v exceeds max %v", shared.ErrInvalidInput, *r.Min, *r.Max)
		}
	}
	return nil
}

// Contact is the recipient information the dispatcher needs.
type Contact struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Subscriber is a preference record joined with its owner's [Contact].
type Subscriber struct {
	Preferences PreferenceRecord `json:"preferences"`
	Contact     Contact          `json:"contact"`
}

// MatchResult pairs a matched user with the listing that matched.
type MatchResult struct {
	UserID    string `json:"userId"`
	ListingID string `json:"listingId"`
}
