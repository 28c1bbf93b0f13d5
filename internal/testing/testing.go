// Package testing contains shared test doubles for the matching engine.
package testing

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/pawalert/internal/models"
)

// StubSelector returns a fixed candidate list or error and counts calls.
type StubSelector struct {
	Subs  []models.Subscriber
	Err   error
	calls atomic.Int32
}

func (s *StubSelector) Select(ctx context.Context, listing models.ListingSnapshot) ([]models.Subscriber, error) {
	s.calls.Add(1)
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Subs, nil
}

// Calls returns how many times Select ran.
func (s *StubSelector) Calls() int { return int(s.calls.Load()) }

// BlockingSelector blocks in Select until Release is called or the context ends.
type BlockingSelector struct {
	Entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func NewBlockingSelector() *BlockingSelector {
	return &BlockingSelector{Entered: make(chan struct{}, 16), release: make(chan struct{})}
}

func (s *BlockingSelector) Select(ctx context.Context, listing models.ListingSnapshot) ([]models.Subscriber, error) {
	s.Entered <- struct{}{}
	select {
	case <-s.release:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release unblocks every pending and future Select.
func (s *BlockingSelector) Release() { s.once.Do(func() { close(s.release) }) }

// RecordingNotifier records dispatches, fails the user ids in Fail, and tracks peak concurrency.
type RecordingNotifier struct {
	Fail  map[string]error
	Delay time.Duration
	Panic map[string]bool

	mu       sync.Mutex
	calls    []models.MatchResult
	inFlight int
	peak     int
}

func (n *RecordingNotifier) Dispatch(ctx context.Context, sub models.Subscriber, listing models.ListingSnapshot) models.NotificationOutcome {
	n.mu.Lock()
	n.calls = append(n.calls, models.MatchResult{UserID: sub.Preferences.UserID, ListingID: listing.ListingID})
	n.inFlight++
	n.peak = max(n.peak, n.inFlight)
	n.mu.Unlock()

	defer func() {
		n.mu.Lock()
		n.inFlight--
		n.mu.Unlock()
	}()

	if n.Panic[sub.Preferences.UserID] {
		panic("notifier exploded")
	}
	if n.Delay > 0 {
		time.Sleep(n.Delay)
	}

	out := models.NotificationOutcome{UserID: sub.Preferences.UserID, ListingID: listing.ListingID, Delivered: true}
	if err := n.Fail[sub.Preferences.UserID]; err != nil {
		out.Delivered = false
		out.ErrorKind = models.ErrorKindProvider
		out.Err = err
	}
	return out
}

// Calls returns a copy of every recorded dispatch.
func (n *RecordingNotifier) Calls() []models.MatchResult {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.MatchResult(nil), n.calls...)
}

// Peak returns the highest number of concurrent Dispatch calls observed.
func (n *RecordingNotifier) Peak() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.peak
}

// FailingClaimer fails every call with Err.
type FailingClaimer struct {
	Err error
}

func (c FailingClaimer) Claim(context.Context, string, time.Duration) (bool, error) { return false, c.Err }
func (c FailingClaimer) Release(context.Context, string) error { return c.Err }

// Subscriber builds a subscriber with alerts on and a valid contact.
func Subscriber(id string, pref models.PreferenceRecord) models.Subscriber {
	pref.UserID = id
	pref.WantsAlerts = true
	return models.Subscriber{
		Preferences: pref,
		Contact:     models.Contact{UserID: id, Email: id + "@example.com", Name: id},
	}
}

// ListingEvent returns a well-formed listing event for id.
func ListingEvent(id string) models.ListingCreatedEvent {
	return models.ListingCreatedEvent{
		ListingID: id,
		Name:      "Copper",
		Species:   "Dog",
		Breed:     "Beagle",
		Age:       &models.Age{Value: 2, Unit: models.AgeYears},
		Size:      "Medium",
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// Eventually polls cond until it holds or timeout elapses.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
