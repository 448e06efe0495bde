package models

import (
	"maps"
	"time"

	id "egresados/pkg/domain"
)

// Registration is a user's enrollment in one event. At most one exists per (EventID, UserID).
type Registration struct {
	EventID       id.EventID        `json:"event_id"`
	UserID        id.UserID         `json:"user_id"`
	RegisteredAt  time.Time         `json:"registered_at"`
	FormResponses map[string]string `json:"form_responses"`
	Attended      bool              `json:"attended"`
}

func (r *Registration) Clone() *Registration {
	c := *r
	c.FormResponses = maps.Clone(r.FormResponses)
	return &c
}

// Participant is a Registration joined with the registrant's directory and profile data.
type Participant struct {
	UserID            id.UserID         `json:"user_id"`
	RegisteredAt      time.Time         `json:"registered_at"`
	Email             string            `json:"email"`
	Nombre            string            `json:"nombre"`
	Telefono          string            `json:"telefono"`
	ProgramaAcademico string            `json:"programa_academico"`
	Attended          bool              `json:"attended"`
	FormResponses     map[string]string `json:"form_responses"`
}
