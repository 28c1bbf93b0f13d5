// Package events connects the engine to the listing subsystem over Redis pub/sub.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/desertthunder/pawalert/internal/models"
	"github.com/desertthunder/pawalert/internal/shared"
)

// DefaultChannel is the channel the listing subsystem publishes "pet created" events on.
const DefaultChannel = "EVENT_PET_CREATED"

// Submitter accepts decoded events without blocking.
type Submitter interface {
	Submit(ev models.ListingCreatedEvent) bool
}

// Decode parses a channel payload into a listing event.
func Decode(payload string) (models.ListingCreatedEvent, error) {
	var ev models.ListingCreatedEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return ev, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	if ev.ListingID == "" {
		return ev, fmt.Errorf("%w: event without listingId", shared.ErrInvalidInput)
	}
	return ev, nil
}

// Subscriber feeds events from a Redis channel into a [Submitter].
type Subscriber struct {
	client  *redis.Client
	channel string
	engine  Submitter
	logger  *log.Logger
}

// NewSubscriber creates a [Subscriber]. An empty channel means [DefaultChannel].
func NewSubscriber(client *redis.Client, channel string, engine Submitter, logger *log.Logger) *Subscriber {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Subscriber{client: client, channel: channel, engine: engine, logger: logger}
}

// Run blocks until ctx is canceled or the subscription fails.
func (s *Subscriber) Run(ctx context.Context) error {
	ps := s.client.Subscribe(ctx, s.channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}
	s.logger.Info("listening for listing events", "channel", s.channel)

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			s.Handle(msg.Payload)
		}
	}
}

// Handle decodes one payload and submits it. It reports whether the engine took the event.
func (s *Subscriber) Handle(payload string) bool {
	ev, err := Decode(payload)
	if err != nil {
		s.logger.Warn("dropping undecodable listing event", "channel", s.channel, "err", err)
		return false
	}
	if !s.engine.Submit(ev) {
		s.logger.Warn("engine rejected listing event", "listing_id", ev.ListingID)
		return false
	}
	return true
}

// Publisher emits listing events onto a Redis channel.
type Publisher struct {
	client  redis.Cmdable
	channel string
}

// NewPublisher creates a [Publisher]. An empty channel means [DefaultChannel].
func NewPublisher(client redis.Cmdable, channel string) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{client: client, channel: channel}
}

// Publish sends ev and returns the number of subscribers that received it.
func (p *Publisher) Publish(ctx context.Context, ev models.ListingCreatedEvent) (int64, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return 0, err
	}
	n, err := p.client.Publish(ctx, p.channel, body).Result()
	if err != nil {
		return 0, fmt.Errorf("publish %s: %w", p.channel, err)
	}
	return n, nil
}

// NewClient parses a redis:// URL into a client.
func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: redis url: %v", shared.ErrInvalidConfig, err)
	}
	return redis.NewClient(opts), nil
}
