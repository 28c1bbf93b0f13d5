package models

import "time"

// ErrorKind classifies a failed dispatch.
type ErrorKind string

const (
	ErrorKindNone           ErrorKind = ""
	ErrorKindTimeout        ErrorKind = "timeout"
	ErrorKindInvalidContact ErrorKind = "invalid_contact"
	ErrorKindProvider       ErrorKind = "provider"
	ErrorKindPanic          ErrorKind = "panic"
	ErrorKindCanceled       ErrorKind = "canceled"
)

// NotificationOutcome records one dispatch attempt.
type NotificationOutcome struct {
	UserID    string        `json:"userId"`
	ListingID string        `json:"listingId"`
	Delivered bool          `json:"delivered"`
	ErrorKind ErrorKind     `json:"errorKind,omitempty"`
	Err       error         `json:"-"`
	Duration  time.Duration `json:"duration"`
}

// Message returns the failure message, or "" for a delivered outcome.
func (o NotificationOutcome) Message() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
