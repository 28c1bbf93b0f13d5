package matching

import (
	"context"
	"fmt"
	"iter"

	"github.com/desertthunder/pawalert/internal/models"
	"github.com/desertthunder/pawalert/internal/shared"
)

// CoarseFilter is the store-side pre-filter for a listing.
//
// A store returns every alert-enabled record whose species set is empty or contains Species
// and whose size set is empty or contains Size. It may return more than that; never less.
type CoarseFilter struct {
	Species string
	Size    string
}

// PreferenceQuerier streams candidate subscribers for a coarse filter.
type PreferenceQuerier interface {
	QueryCandidatePreferences(ctx context.Context, filter CoarseFilter) iter.Seq2[models.Subscriber, error]
}

// Selector produces the subscribers a listing should notify.
type Selector struct {
	store PreferenceQuerier
	match Predicate
}

// NewSelector creates a [Selector] over store. A nil predicate defaults to [Matches].
func NewSelector(store PreferenceQuerier, match Predicate) *Selector {
	if match == nil {
		match = Matches
	}
	return &Selector{store: store, match: match}
}

// Candidates lazily yields each matching subscriber once.
//
// Alert-disabled records are skipped before the predicate runs. A store error is yielded once and ends the sequence.
func (s *Selector) Candidates(ctx context.Context, listing models.ListingSnapshot) iter.Seq2[models.Subscriber, error] {
	return func(yield func(models.Subscriber, error) bool) {
		seen := make(map[string]struct{})
		filter := CoarseFilter{Species: listing.Species, Size: listing.Size}

		for sub, err := range s.store.QueryCandidatePreferences(ctx, filter) {
			if err != nil {
				yield(models.Subscriber{}, err)
				return
			}
			if !sub.Preferences.WantsAlerts {
				continue
			}
			if _, dup := seen[sub.Preferences.UserID]; dup {
				continue
			}
			if !s.match(listing, sub.Preferences) {
				continue
			}
			seen[sub.Preferences.UserID] = struct{}{}
			if !yield(sub, nil) {
				return
			}
		}
	}
}

// Select drains [Selector.Candidates]. Any store failure returns [shared.ErrStoreUnavailable] and no partial list.
func (s *Selector) Select(ctx context.Context, listing models.ListingSnapshot) ([]models.Subscriber, error) {
	var out []models.Subscriber
	for sub, err := range s.Candidates(ctx, listing) {
		if err != nil {
			return nil, fmt.Errorf("%w: listing %s: %v", shared.ErrStoreUnavailable, listing.ListingID, err)
		}
		out = append(out, sub)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: listing %s: %v", shared.ErrStoreUnavailable, listing.ListingID, err)
	}
	return out, nil
}
