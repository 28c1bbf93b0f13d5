package events

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/pawalert/internal/models"
	"github.com/desertthunder/pawalert/internal/shared"
	tu "github.com/desertthunder/pawalert/internal/testing"
)

type recordingEngine struct {
	mu     sync.Mutex
	reject bool
	events []models.ListingCreatedEvent
}

func (r *recordingEngine) Submit(ev models.ListingCreatedEvent) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reject {
		return false
	}
	r.events = append(r.events, ev)
	return true
}

func (r *recordingEngine) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{name: "full event", payload: `{"listingId":"pet-1","species":"Cat","size":"Small","age":{"value":3,"unit":"months"}}`},
		{name: "no age still decodes", payload: `{"listingId":"pet-2","species":"Dog","size":"Large"}`},
		{name: "not json", payload: `listing pet-3`, wantErr: true},
		{name: "missing listing id", payload: `{"species":"Dog"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.payload)
			if tt.wantErr {
				if !errors.Is(err, shared.ErrInvalidInput) {
					t.Errorf("Decode() error = %v, want ErrInvalidInput", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Decode() unexpected error: %v", err)
			}
		})
	}
}

func TestSubscriberHandle(t *testing.T) {
	logger := log.New(io.Discard)

	t.Run("submits decoded events", func(t *testing.T) {
		engine := &recordingEngine{}
		s := NewSubscriber(nil, "", engine, logger)
		if s.channel != DefaultChannel {
			t.Errorf("expected default channel, got %s", s.channel)
		}
		if !s.Handle(`{"listingId":"pet-1","species":"Dog","size":"Medium"}`) {
			t.Fatal("expected event to be accepted")
		}
		if engine.events[0].ListingID != "pet-1" {
			t.Errorf("unexpected event %+v", engine.events[0])
		}
	})

	t.Run("drops bad payloads", func(t *testing.T) {
		engine := &recordingEngine{}
		s := NewSubscriber(nil, "listings", engine, logger)
		if s.Handle("{") {
			t.Error("bad payload should not be accepted")
		}
		if engine.count() != 0 {
			t.Error("bad payload reached the engine")
		}
	})

	t.Run("reports engine rejection", func(t *testing.T) {
		s := NewSubscriber(nil, "", &recordingEngine{reject: true}, logger)
		if s.Handle(`{"listingId":"pet-1"}`) {
			t.Error("expected rejection to be reported")
		}
	})
}

func TestNewClient(t *testing.T) {
	if _, err := NewClient("not a url"); !errors.Is(err, shared.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	c, err := NewClient("redis://127.0.0.1:6379/2")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer c.Close()
	if c.Options().DB != 2 {
		t.Errorf("expected db 2, got %d", c.Options().DB)
	}
}

// TestPubSub runs against a live server when PAWALERT_TEST_REDIS_URL is set.
func TestPubSub(t *testing.T) {
	url := os.Getenv("PAWALERT_TEST_REDIS_URL")
	if url == "" {
		t.Skip("PAWALERT_TEST_REDIS_URL not set")
	}
	client, err := NewClient(url)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()

	channel := "pawalert-test-" + time.Now().Format("150405.000000")
	engine := &recordingEngine{}
	sub := NewSubscriber(client, channel, engine, log.New(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()

	pub := NewPublisher(client, channel)
	tu.Eventually(t, 2*time.Second, func() bool {
		n, err := pub.Publish(ctx, tu.ListingEvent("pet-live"))
		return err == nil && n > 0
	}, "subscriber never received a published event")
	tu.Eventually(t, 2*time.Second, func() bool { return engine.count() > 0 }, "event was not submitted")

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
}
