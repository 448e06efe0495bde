package models

import (
	"time"

	id "egresados/pkg/domain"
)

const (
	ChangeTypeUpdate = "update"
	ChangeTypeCreate = "create"

	// FieldProfile and ValueCreated form the synthetic entry written when a profile is first created.
	FieldProfile = "perfil"
	ValueCreated = "Creado"
)

// Entry is one immutable audit record of a single field change.
type Entry struct {
	ID         id.EntryID `json:"id"`
	UserID     id.UserID  `json:"user_id"`
	ChangedBy  id.UserID  `json:"changed_by"`
	FieldName  string     `json:"field_name"`
	OldValue   *string    `json:"old_value"`
	NewValue   string     `json:"new_value"`
	ChangeType string     `json:"change_type"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewCreatedEntry builds the synthetic first-creation entry.
func NewCreatedEntry(userID, changedBy id.UserID, at time.Time) *Entry {
	return &Entry{
		ID:         id.NewEntryID(),
		UserID:     userID,
		ChangedBy:  changedBy,
		FieldName:  FieldProfile,
		NewValue:   ValueCreated,
		ChangeType: ChangeTypeCreate,
		CreatedAt:  at,
	}
}

// NewFieldEntry builds an update entry for one changed field.
func NewFieldEntry(userID, changedBy id.UserID, field string, oldValue *string, newValue string, at time.Time) *Entry {
	return &Entry{
		ID:         id.NewEntryID(),
		UserID:     userID,
		ChangedBy:  changedBy,
		FieldName:  field,
		OldValue:   oldValue,
		NewValue:   newValue,
		ChangeType: ChangeTypeUpdate,
		CreatedAt:  at,
	}
}

// EnrichedEntry is an Entry decorated at read time with the current display
// identity of its actor and subject.
type EnrichedEntry struct {
	Entry
	ChangedByEmail string `json:"changed_by_email"`
	UserEmail      string `json:"user_email,omitempty"`
}
