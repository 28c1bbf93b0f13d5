package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/desertthunder/pawalert/internal/dedup"
	"github.com/desertthunder/pawalert/internal/models"
	"github.com/desertthunder/pawalert/internal/shared"
)

// CycleReport summarizes one matching cycle.
type CycleReport struct {
	ListingID  string                       `json:"listingId"`
	Phase      Phase                        `json:"phase"` // Completed, Abandoned or Duplicate
	Reason     error                        `json:"-"`
	Candidates int                          `json:"candidates"`
	Delivered  int                          `json:"delivered"`
	Failed     int                          `json:"failed"`
	Outcomes   []models.NotificationOutcome `json:"outcomes"`
	StartedAt  time.Time                    `json:"startedAt"`
	Duration   time.Duration                `json:"duration"`
}

// RunCycle runs the full Selecting -> Dispatching sequence for ev and blocks until every outcome is in.
func (e *Engine) RunCycle(ctx context.Context, ev models.ListingCreatedEvent) *CycleReport {
	report := &CycleReport{ListingID: ev.ListingID, StartedAt: time.Now()}
	defer func() {
		report.Duration = time.Since(report.StartedAt)
		e.sendProgress(finishedUpdate(report))
	}()
	logger := e.logger.With("listing_id", ev.ListingID)

	listing, err := models.NewListingSnapshot(ev)
	if err != nil {
		e.abandon(report, err)
		logger.Error("cycle abandoned: malformed listing", "err", err)
		return report
	}

	claimed, duplicate := e.claim(ctx, listing.ListingID)
	if duplicate {
		report.Phase = Duplicate
		e.stats.Duplicates.Add(1)
		logger.Info("cycle skipped: listing already handled")
		return report
	}

	e.sendProgress(selectingUpdate(listing.ListingID))
	subs, err := e.selector.Select(ctx, listing)
	if err != nil {
		if !errors.Is(err, shared.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", shared.ErrStoreUnavailable, err)
		}
		e.abandon(report, err)
		if claimed {
			e.release(listing.ListingID)
		}
		logger.Error("cycle abandoned: preference store unavailable", "err", err)
		return report
	}

	report.Candidates = len(subs)
	e.sendProgress(dispatchingUpdate(listing.ListingID, len(subs)))
	report.Outcomes = e.dispatchAll(ctx, subs, listing)

	for _, out := range report.Outcomes {
		if out.Delivered {
			report.Delivered++
		} else {
			report.Failed++
		}
	}
	report.Phase = Completed
	e.stats.Completed.Add(1)
	e.stats.Delivered.Add(int64(report.Delivered))
	e.stats.Failed.Add(int64(report.Failed))
	logger.Info("cycle completed", "candidates", report.Candidates, "delivered", report.Delivered, "failed", report.Failed)
	return report
}

func (e *Engine) abandon(report *CycleReport, reason error) {
	report.Phase = Abandoned
	report.Reason = reason
	e.stats.Abandoned.Add(1)
}

// claim reports whether this cycle owns the listing and whether another cycle already does.
// A failing claim store lets the cycle run unclaimed.
func (e *Engine) claim(ctx context.Context, listingID string) (claimed, duplicate bool) {
	if e.claims == nil {
		return false, false
	}
	ok, err := e.claims.Claim(ctx, dedup.CycleKey(listingID), e.opts.ClaimTTL)
	if err != nil {
		e.logger.Warn("claim store unavailable, running unclaimed", "listing_id", listingID, "err", err)
		return false, false
	}
	return ok, !ok
}

func (e *Engine) release(listingID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.claims.Release(ctx, dedup.CycleKey(listingID)); err != nil {
		e.logger.Warn("failed to release claim", "listing_id", listingID, "err", err)
	}
}

// dispatchAll notifies every subscriber with at most DispatchWorkers calls in flight.
// outcomes[i] always belongs to subs[i].
func (e *Engine) dispatchAll(ctx context.Context, subs []models.Subscriber, listing models.ListingSnapshot) []models.NotificationOutcome {
	outcomes := make([]models.NotificationOutcome, len(subs))
	sem := semaphore.NewWeighted(int64(e.opts.DispatchWorkers))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
	for i, sub := range subs {
		if err := sem.Acquire(ctx, 1); err != nil {
			outcomes[i] = models.NotificationOutcome{
				UserID:    sub.Preferences.UserID,
				ListingID: listing.ListingID,
				ErrorKind: models.ErrorKindCanceled,
				Err:       fmt.Errorf("%w: %w", shared.ErrDispatchFailure, err),
			}
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			out := e.dispatchOne(ctx, sub, listing)
			outcomes[i] = out

			mu.Lock()
			done++
			step := done
			mu.Unlock()
			e.sendProgress(outcomeUpdate(step, len(subs), out))
		}()
	}
	wg.Wait()
	return outcomes
}

func (e *Engine) dispatchOne(ctx context.Context, sub models.Subscriber, listing models.ListingSnapshot) (out models.NotificationOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = models.NotificationOutcome{
				UserID:    sub.Preferences.UserID,
				ListingID: listing.ListingID,
				ErrorKind: models.ErrorKindPanic,
				Err:       fmt.Errorf("%w: notifier panicked: %v", shared.ErrDispatchFailure, r),
			}
			e.logger.Error("notifier panicked", "user_id", sub.Preferences.UserID, "listing_id", listing.ListingID, "panic", r)
		}
	}()
	return e.notifier.Dispatch(ctx, sub, listing)
}
