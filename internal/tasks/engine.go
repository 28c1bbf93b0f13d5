package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/pawalert/internal/dedup"
	"github.com/desertthunder/pawalert/internal/models"
	"github.com/desertthunder/pawalert/internal/shared"
)

// CandidateSelector returns the subscribers a listing should reach.
type CandidateSelector interface {
	Select(ctx context.Context, listing models.ListingSnapshot) ([]models.Subscriber, error)
}

// Notifier makes one notification attempt for one subscriber.
type Notifier interface {
	Dispatch(ctx context.Context, sub models.Subscriber, listing models.ListingSnapshot) models.NotificationOutcome
}

// Options size an [Engine]. Zero values take the defaults below.
type Options struct {
	QueueSize       int           // buffered events, default 256
	CycleWorkers    int           // concurrent cycles, default 2
	DispatchWorkers int           // concurrent dispatches per cycle, default 8
	ClaimTTL        time.Duration // how long a listing stays claimed, default 24h
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.CycleWorkers <= 0 {
		o.CycleWorkers = 2
	}
	if o.DispatchWorkers <= 0 {
		o.DispatchWorkers = 8
	}
	if o.ClaimTTL <= 0 {
		o.ClaimTTL = 24 * time.Hour
	}
	return o
}

// Engine is the long-lived listener that turns listing-created events into notification cycles.
type Engine struct {
	selector CandidateSelector
	notifier Notifier
	claims   dedup.Claimer
	logger   *log.Logger
	opts     Options

	queue   chan models.ListingCreatedEvent
	updates chan<- CycleUpdate
	stats   Stats

	mu      sync.RWMutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewEngine creates an [Engine]. A nil claimer disables duplicate-cycle protection.
func NewEngine(selector CandidateSelector, notifier Notifier, claims dedup.Claimer, logger *log.Logger, opts Options) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		selector: selector,
		notifier: notifier,
		claims:   claims,
		logger:   logger,
		opts:     opts,
		queue:    make(chan models.ListingCreatedEvent, opts.QueueSize),
	}
}

// SetUpdates attaches a progress channel. Call before [Engine.Start].
func (e *Engine) SetUpdates(ch chan<- CycleUpdate) {
	e.updates = ch
}

// Submit enqueues ev without blocking. It returns false when the queue is full or the engine is stopped.
func (e *Engine) Submit(ev models.ListingCreatedEvent) bool {
	return e.Enqueue(ev) == nil
}

// Enqueue is [Engine.Submit] reporting why an event was refused:
// [shared.ErrEngineStopped] after Stop, [shared.ErrQueueFull] when the queue has no room.
func (e *Engine) Enqueue(ev models.ListingCreatedEvent) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.stopped {
		e.stats.Dropped.Add(1)
		e.logger.Warn("event rejected", "listing_id", ev.ListingID, "err", shared.ErrEngineStopped)
		return fmt.Errorf("%w: listing %s", shared.ErrEngineStopped, ev.ListingID)
	}

	select {
	case e.queue <- ev:
		e.stats.Accepted.Add(1)
		e.logger.Debug("event accepted", "listing_id", ev.ListingID, "queue_depth", len(e.queue))
		return nil
	default:
		e.stats.Dropped.Add(1)
		e.logger.Warn("event dropped", "listing_id", ev.ListingID, "queue_size", e.opts.QueueSize, "err", shared.ErrQueueFull)
		return fmt.Errorf("%w: listing %s", shared.ErrQueueFull, ev.ListingID)
	}
}

// Start launches the cycle workers. Canceling ctx aborts in-flight cycles; calling Start twice is a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started || e.stopped {
		return
	}
	e.started = true

	ctx, e.cancel = context.WithCancel(ctx)
	for i := 0; i < e.opts.CycleWorkers; i++ {
		e.wg.Add(1)
		go e.worker(ctx, i)
	}
	e.logger.Info("engine started", "cycle_workers", e.opts.CycleWorkers, "dispatch_workers", e.opts.DispatchWorkers, "queue_size", e.opts.QueueSize)
}

// Stop refuses new events and waits for workers to drain the queue.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.queue)
	e.mu.Unlock()

	e.wg.Wait()
	if e.cancel != nil {
		e.cancel()
	}
	e.logger.Info("engine stopped", "stats", e.Stats())
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() StatsSnapshot {
	s := e.stats.snapshot()
	s.QueueDepth = len(e.queue)
	return s
}

func (e *Engine) worker(ctx context.Context, id int) {
	defer e.wg.Done()
	logger := e.logger.With("worker", id)

	for {
		select {
		case ev, ok := <-e.queue:
			if !ok {
				return
			}
			report := e.RunCycle(ctx, ev)
			logger.Debug("cycle finished", "listing_id", report.ListingID, "phase", report.Phase, "took", report.Duration)
		case <-ctx.Done():
			return
		}
	}
}

// sendProgress sends update to the progress channel without blocking.
func (e *Engine) sendProgress(update CycleUpdate) {
	if e.updates == nil {
		return
	}
	select {
	case e.updates <- update:
	default:
	}
}
