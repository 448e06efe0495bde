package models

import id "egresados/pkg/domain"

// Identity is the display identity of a user as owned by the identity service.
type Identity struct {
	UserID id.UserID `json:"user_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
}
