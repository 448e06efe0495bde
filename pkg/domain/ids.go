package domain

import (
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "egresados/pkg/domain-errors"
)

// UserID identifies an account owned by the user directory. The same ID keys
// the user's profile, audit history and registrations.
type UserID uuid.UUID

// EventID identifies an institution event.
type EventID uuid.UUID

// EntryID identifies a single profile change log entry.
type EntryID uuid.UUID

func (u UserID) String() string  { return uuid.UUID(u).String() }
func (u UserID) IsNil() bool     { return uuid.UUID(u) == uuid.Nil }
func (e EventID) String() string { return uuid.UUID(e).String() }
func (e EventID) IsNil() bool    { return uuid.UUID(e) == uuid.Nil }
func (e EntryID) String() string { return uuid.UUID(e).String() }
func (e EntryID) IsNil() bool    { return uuid.UUID(e) == uuid.Nil }

func (u UserID) MarshalText() ([]byte, error)  { return uuid.UUID(u).MarshalText() }
func (e EventID) MarshalText() ([]byte, error) { return uuid.UUID(e).MarshalText() }
func (e EntryID) MarshalText() ([]byte, error) { return uuid.UUID(e).MarshalText() }

func (u *UserID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(u).UnmarshalText(b) }
func (e *EventID) UnmarshalText(b []byte) error { return (*uuid.UUID)(e).UnmarshalText(b) }
func (e *EntryID) UnmarshalText(b []byte) error { return (*uuid.UUID)(e).UnmarshalText(b) }

// NewEventID returns a random event identifier.
func NewEventID() EventID { return EventID(uuid.New()) }

// NewEntryID returns a random change log entry identifier.
func NewEntryID() EntryID { return EntryID(uuid.New()) }

// ParseUserID parses a user identifier received at a trust boundary.
//
// Errors: CodeInvalidInput when the value is empty, malformed or the nil UUID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

// ParseEventID parses an event identifier received at a trust boundary.
func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s, "event id")
	return EventID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	if !utf8.ValidString(s) {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be nil")
	}
	return u, nil
}
