package handler

import (
	"strings"

	"egresados/internal/events/models"
	dErrors "egresados/pkg/domain-errors"
)

const maxQuestions = 50

// EventRequest is the body of create and edit calls.
// Omitting form_questions on edit keeps the current questions.
type EventRequest struct {
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Date          string            `json:"date"`
	Location      string            `json:"location"`
	ImageURL      string            `json:"image_url"`
	Image         string            `json:"image"`
	FormQuestions []models.Question `json:"form_questions"`
}

func (r *EventRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.Date = strings.TrimSpace(r.Date)
	r.Location = strings.TrimSpace(r.Location)
	r.ImageURL = strings.TrimSpace(r.ImageURL)
	if len(r.FormQuestions) > maxQuestions {
		return dErrors.New(dErrors.CodeValidation, "too many form questions")
	}
	return nil
}

func (r *EventRequest) Draft() models.Draft {
	return models.Draft{
		Title:         r.Title,
		Description:   r.Description,
		Date:          r.Date,
		Location:      r.Location,
		ImageURL:      r.ImageURL,
		Image:         r.Image,
		FormQuestions: r.FormQuestions,
	}
}

// RegisterRequest carries the answers to the event form keyed by question text.
type RegisterRequest struct {
	FormResponses map[string]string `json:"form_responses"`
}

func (r *RegisterRequest) Validate() error {
	if r.FormResponses == nil {
		r.FormResponses = map[string]string{}
	}
	return nil
}

type AttendanceRequest struct {
	Attended *bool `json:"attended"`
}

func (r *AttendanceRequest) Validate() error {
	if r.Attended == nil {
		return dErrors.New(dErrors.CodeValidation, "attended is required")
	}
	return nil
}

// RegisterResponse wraps the registration with a confirmation message.
type RegisterResponse struct {
	Message      string               `json:"message"`
	Registration *models.Registration `json:"registration"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
