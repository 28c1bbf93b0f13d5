package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/pawalert/internal/models"
	"github.com/desertthunder/pawalert/internal/shared"
)

// DefaultTimeout bounds a single dispatch when no timeout is configured.
const DefaultTimeout = 10 * time.Second

var errPanic = errors.New("sender panicked")

// Options tune a [Dispatcher].
type Options struct {
	Timeout   time.Duration // per dispatch; zero means [DefaultTimeout]
	RateLimit float64       // sends per second across all workers; zero disables
	Burst     int
}

// Dispatcher sends one notification per call and never retries.
type Dispatcher struct {
	sender  Sender
	logger  *log.Logger
	timeout time.Duration
	limiter *rate.Limiter
}

// NewDispatcher creates a [Dispatcher] around sender.
func NewDispatcher(sender Sender, logger *log.Logger, opts Options) *Dispatcher {
	d := &Dispatcher{sender: sender, logger: logger, timeout: opts.Timeout}
	if d.timeout <= 0 {
		d.timeout = DefaultTimeout
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return d
}

// Dispatch notifies sub about listing and reports what happened.
//
// The call returns after at most the configured timeout even if the sender ignores its context.
// A panic in the sender becomes a failed outcome with [models.ErrorKindPanic].
func (d *Dispatcher) Dispatch(ctx context.Context, sub models.Subscriber, listing models.ListingSnapshot) models.NotificationOutcome {
	start := time.Now()
	out := models.NotificationOutcome{UserID: sub.Preferences.UserID, ListingID: listing.ListingID}

	err := d.send(ctx, sub.Contact, listing)
	out.Duration = time.Since(start)

	if err != nil {
		out.ErrorKind = Classify(err)
		out.Err = fmt.Errorf("%w: %w", shared.ErrDispatchFailure, err)
		d.logger.Warn("dispatch failed", "user_id", out.UserID, "listing_id", out.ListingID, "kind", out.ErrorKind, "err", err)
		return out
	}

	out.Delivered = true
	d.logger.Debug("dispatch delivered", "user_id", out.UserID, "listing_id", out.ListingID, "took", out.Duration)
	return out
}

func (d *Dispatcher) send(ctx context.Context, to models.Contact, listing models.ListingSnapshot) error {
	if err := models.ValidateEmail(to.Email); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: rate limiter: %v", shared.ErrTimeout, err)
		}
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%w: %v", errPanic, r)
			}
		}()
		done <- d.sender.Send(ctx, to, NewListingMatch, NewTemplateData(listing))
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
