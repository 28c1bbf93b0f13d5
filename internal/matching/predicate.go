package matching

import (
	"fmt"
	"slices"

	"github.com/desertthunder/pawalert/internal/models"
)

// EmptySetPolicy decides what an empty species, breed or size set means.
type EmptySetPolicy int

const (
	// Wildcard treats an empty set as "any value".
	Wildcard EmptySetPolicy = iota
	// MatchNothing treats an empty set as "no acceptable value".
	MatchNothing
)

// ParseEmptySetPolicy maps the config strings "wildcard" and "match_nothing" to a policy.
func ParseEmptySetPolicy(s string) (EmptySetPolicy, error) {
	switch s {
	case "", "wildcard":
		return Wildcard, nil
	case "match_nothing":
		return MatchNothing, nil
	default:
		return Wildcard, fmt.Errorf("unknown empty set policy %q", s)
	}
}

func (p EmptySetPolicy) String() string {
	if p == MatchNothing {
		return "match_nothing"
	}
	return "wildcard"
}

// Predicate reports whether a listing satisfies a preference record.
type Predicate func(listing models.ListingSnapshot, pref models.PreferenceRecord) bool

// Matcher evaluates listings against preferences under an [EmptySetPolicy].
type Matcher struct {
	EmptySet EmptySetPolicy
}

// Matches is the predicate under the [Wildcard] policy.
func Matches(listing models.ListingSnapshot, pref models.PreferenceRecord) bool {
	return Matcher{}.Matches(listing, pref)
}

// Matches reports whether every facet of pref accepts listing. A record with alerts off never matches.
// A listing with no breed is not filtered on breed.
func (m Matcher) Matches(listing models.ListingSnapshot, pref models.PreferenceRecord) bool {
	if !pref.WantsAlerts {
		return false
	}
	return m.facet(pref.Species, listing.Species) &&
		(listing.Breed == "" || m.facet(pref.Breeds, listing.Breed)) &&
		pref.AgeRange.Contains(listing.NormalizedAge) &&
		m.facet(pref.Size, listing.Size)
}

func (m Matcher) facet(set []string, value string) bool {
	if len(set) == 0 {
		return m.EmptySet == Wildcard
	}
	return slices.Contains(set, value)
}
