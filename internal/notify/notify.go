// Package notify sends new-listing alerts to matched subscribers.
//
// A [Dispatcher] makes exactly one attempt per subscriber through a [Sender] and reports the result as a
// [models.NotificationOutcome]. Senders exist for SMTP ([SMTPSender]), an HTTP provider ([WebhookSender])
// and the structured log ([LogSender]).
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/pawalert/internal/models"
	"github.com/desertthunder/pawalert/internal/shared"
)

// TemplateKind names a notification template.
type TemplateKind string

// NewListingMatch tells a subscriber a listing matching their preferences was created.
const NewListingMatch TemplateKind = "new_listing_match"

// TemplateData is the data a [NewListingMatch] notification is rendered from.
type TemplateData struct {
	PetName  string `json:"petName"`
	PetBreed string `json:"petBreed"`
	PetAge   string `json:"petAge"`
}

// NewTemplateData builds the template data for listing.
func NewTemplateData(listing models.ListingSnapshot) TemplateData {
	return TemplateData{
		PetName:  listing.Name,
		PetBreed: listing.BreedLabel,
		PetAge:   listing.Age.String(),
	}
}

// Sender delivers one rendered notification to one contact.
type Sender interface {
	Send(ctx context.Context, to models.Contact, kind TemplateKind, data TemplateData) error
}

// SenderFunc adapts a function to [Sender].
type SenderFunc func(ctx context.Context, to models.Contact, kind TemplateKind, data TemplateData) error

func (f SenderFunc) Send(ctx context.Context, to models.Contact, kind TemplateKind, data TemplateData) error {
	return f(ctx, to, kind, data)
}

// NewSender builds the sender selected by cfg.Driver.
func NewSender(cfg shared.NotifyConfig, logger *log.Logger, client *http.Client) (Sender, error) {
	switch cfg.Driver {
	case "smtp":
		return NewSMTPSender(cfg.SMTP, cfg.From)
	case "webhook":
		return NewWebhookSender(cfg.Webhook, client), nil
	case "log", "":
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown notify driver %q", shared.ErrInvalidConfig, cfg.Driver)
	}
}

// Classify maps a dispatch error to an [models.ErrorKind].
func Classify(err error) models.ErrorKind {
	switch {
	case err == nil:
		return models.ErrorKindNone
	case errors.Is(err, shared.ErrInvalidContact):
		return models.ErrorKindInvalidContact
	case errors.Is(err, errPanic):
		return models.ErrorKindPanic
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, shared.ErrTimeout):
		return models.ErrorKindTimeout
	case errors.Is(err, context.Canceled):
		return models.ErrorKindCanceled
	default:
		return models.ErrorKindProvider
	}
}
