package notify

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/pawalert/internal/models"
	"github.com/desertthunder/pawalert/internal/shared"
)

func quietLogger() *log.Logger { return log.New(io.Discard) }

func subscriber(id string) models.Subscriber {
	return models.Subscriber{
		Preferences: models.PreferenceRecord{UserID: id, WantsAlerts: true},
		Contact:     models.Contact{UserID: id, Email: id + "@example.com", Name: "User " + id},
	}
}

func listing() models.ListingSnapshot {
	return models.ListingSnapshot{
		ListingID:  "pet-1",
		Name:       "Copper",
		BreedLabel: "Beagle",
		Age:        models.Age{Value: 2, Unit: models.AgeYears},
	}
}

// recordingSender records every call and returns the error registered for the recipient.
type recordingSender struct {
	mu    sync.Mutex
	calls []string
	data  []TemplateData
	fail  map[string]error
}

func (s *recordingSender) Send(ctx context.Context, to models.Contact, kind TemplateKind, data TemplateData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, to.UserID)
	s.data = append(s.data, data)
	return s.fail[to.UserID]
}

func TestDispatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("failure isolation across recipients", func(t *testing.T) {
		sender := &recordingSender{fail: map[string]error{"u2": errors.New("mailbox full")}}
		d := NewDispatcher(sender, quietLogger(), Options{})

		var outcomes []models.NotificationOutcome
		for _, id := range []string{"u1", "u2", "u3"} {
			outcomes = append(outcomes, d.Dispatch(ctx, subscriber(id), listing()))
		}

		if len(outcomes) != 3 || len(sender.calls) != 3 {
			t.Fatalf("expected 3 outcomes and 3 sends, got %d and %d", len(outcomes), len(sender.calls))
		}
		if !outcomes[0].Delivered || !outcomes[2].Delivered {
			t.Error("first and third recipients should be delivered")
		}
		if outcomes[1].Delivered {
			t.Error("second recipient should have failed")
		}
		if outcomes[1].ErrorKind != models.ErrorKindProvider {
			t.Errorf("expected provider error kind, got %q", outcomes[1].ErrorKind)
		}
		if !errors.Is(outcomes[1].Err, shared.ErrDispatchFailure) {
			t.Errorf("expected ErrDispatchFailure, got %v", outcomes[1].Err)
		}
	})

	t.Run("passes template data", func(t *testing.T) {
		sender := &recordingSender{}
		d := NewDispatcher(sender, quietLogger(), Options{})
		out := d.Dispatch(ctx, subscriber("u1"), listing())

		if !out.Delivered || out.UserID != "u1" || out.ListingID != "pet-1" {
			t.Fatalf("unexpected outcome %+v", out)
		}
		want := TemplateData{PetName: "Copper", PetBreed: "Beagle", PetAge: "2 years"}
		if sender.data[0] != want {
			t.Errorf("template data = %+v, want %+v", sender.data[0], want)
		}
	})

	t.Run("invalid contact fails fast", func(t *testing.T) {
		sender := &recordingSender{}
		d := NewDispatcher(sender, quietLogger(), Options{})
		sub := subscriber("u1")
		sub.Contact.Email = ""

		out := d.Dispatch(ctx, sub, listing())
		if out.Delivered || out.ErrorKind != models.ErrorKindInvalidContact {
			t.Errorf("expected invalid_contact, got %+v", out)
		}
		if len(sender.calls) != 0 {
			t.Error("sender should not be called for an invalid contact")
		}
	})

	t.Run("timeout with a sender that ignores its context", func(t *testing.T) {
		block := make(chan struct{})
		defer close(block)
		sender := SenderFunc(func(context.Context, models.Contact, TemplateKind, TemplateData) error {
			<-block
			return nil
		})
		d := NewDispatcher(sender, quietLogger(), Options{Timeout: 20 * time.Millisecond})

		start := time.Now()
		out := d.Dispatch(ctx, subscriber("u1"), listing())
		if time.Since(start) > time.Second {
			t.Fatal("dispatch did not honor its timeout")
		}
		if out.Delivered || out.ErrorKind != models.ErrorKindTimeout {
			t.Errorf("expected timeout outcome, got %+v", out)
		}
	})

	t.Run("panic becomes a failed outcome", func(t *testing.T) {
		sender := SenderFunc(func(context.Context, models.Contact, TemplateKind, TemplateData) error {
			panic("boom")
		})
		d := NewDispatcher(sender, quietLogger(), Options{})

		out := d.Dispatch(ctx, subscriber("u1"), listing())
		if out.Delivered || out.ErrorKind != models.ErrorKindPanic {
			t.Errorf("expected panic outcome, got %+v", out)
		}
	})

	t.Run("canceled parent context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		sender := SenderFunc(func(ctx context.Context, _ models.Contact, _ TemplateKind, _ TemplateData) error {
			<-ctx.Done()
			return ctx.Err()
		})
		d := NewDispatcher(sender, quietLogger(), Options{})

		out := d.Dispatch(cctx, subscriber("u1"), listing())
		if out.ErrorKind != models.ErrorKindCanceled {
			t.Errorf("expected canceled outcome, got %+v", out)
		}
	})

	t.Run("rate limit spaces sends", func(t *testing.T) {
		sender := &recordingSender{}
		d := NewDispatcher(sender, quietLogger(), Options{RateLimit: 20, Burst: 1})

		start := time.Now()
		for _, id := range []string{"u1", "u2", "u3"} {
			if out := d.Dispatch(ctx, subscriber(id), listing()); !out.Delivered {
				t.Fatalf("unexpected failure %+v", out)
			}
		}
		if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
			t.Errorf("expected limiter to space 3 sends at 20/s, took %v", elapsed)
		}
	})
}

func TestClassify(t *testing.T) {
	tc := []struct {
		err  error
		want models.ErrorKind
	}{
		{err: nil, want: models.ErrorKindNone},
		{err: shared.ErrInvalidContact, want: models.ErrorKindInvalidContact},
		{err: context.DeadlineExceeded, want: models.ErrorKindTimeout},
		{err: shared.ErrTimeout, want: models.ErrorKindTimeout},
		{err: context.Canceled, want: models.ErrorKindCanceled},
		{err: errPanic, want: models.ErrorKindPanic},
		{err: errors.New("smtp 451"), want: models.ErrorKindProvider},
	}
	for _, tt := range tc {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestNewSender(t *testing.T) {
	tc := []struct {
		name    string
		cfg     shared.NotifyConfig
		wantErr bool
	}{
		{name: "log", cfg: shared.NotifyConfig{Driver: "log"}},
		{name: "webhook", cfg: shared.NotifyConfig{Driver: "webhook", Webhook: shared.WebhookConfig{URL: "http://localhost"}}},
		{name: "smtp", cfg: shared.NotifyConfig{Driver: "smtp", From: "alerts@example.com", SMTP: shared.SMTPConfig{Host: "localhost"}}},
		{name: "smtp bad from", cfg: shared.NotifyConfig{Driver: "smtp", From: "nope", SMTP: shared.SMTPConfig{Host: "localhost"}}, wantErr: true},
		{name: "unknown", cfg: shared.NotifyConfig{Driver: "fax"}, wantErr: true},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSender(tt.cfg, quietLogger(), nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewSender() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && s == nil {
				t.Error("expected a sender")
			}
		})
	}
}
