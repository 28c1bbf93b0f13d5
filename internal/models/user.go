package models

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/desertthunder/pawalert/internal/shared"
)

// User is an alert recipient. Its email and name form the [Contact] used for dispatch.
type User struct {
	id        string
	sequence  int
	email     string
	name      string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewUser creates a [User] with creation timestamps set to now.
func NewUser(sequence int, email, name string) *User {
	now := time.Now().UTC()
	return &User{
		sequence:  sequence,
		email:     strings.TrimSpace(email),
		name:      strings.TrimSpace(name),
		createdAt: now,
		updatedAt: now,
	}
}

func (u *User) ID() string { return u.id }
func (u *User) Sequence() int { return u.sequence }
func (u *User) Email() string { return u.email }
func (u *User) Name() string { return u.name }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }
func (u *User) DeletedAt() *time.Time { return u.deletedAt }

func (u *User) SetID(id string) { u.id = id }
func (u *User) SetSequence(seq int) { u.sequence = seq }
func (u *User) SetEmail(email string) { u.email = strings.TrimSpace(email) }
func (u *User) SetName(name string) { u.name = strings.TrimSpace(name) }
func (u *User) SetCreatedAt(t time.Time) { u.createdAt = t }
func (u *User) SetUpdatedAt(t time.Time) { u.updatedAt = t }
func (u *User) SetDeletedAt(t *time.Time) { u.deletedAt = t }

// Validate requires an id and a parseable email address.
func (u *User) Validate() error {
	if u.id == "" {
		return fmt.Errorf("%w: user id is required", shared.ErrInvalidInput)
	}
	if err := ValidateEmail(u.email); err != nil {
		return err
	}
	return nil
}

// Contact returns the recipient contact for this user.
func (u *User) Contact() Contact {
	return Contact{UserID: u.id, Email: u.email, Name: u.name}
}

// ValidateEmail reports [shared.ErrInvalidContact] for an empty or unparseable single address.
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email is empty", shared.ErrInvalidContact)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: %q is not a valid address", shared.ErrInvalidContact, email)
	}
	return nil
}
