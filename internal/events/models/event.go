package models

import (
	"slices"
	"time"

	id "egresados/pkg/domain"
)

// Event is an institution activity with an optional registration form.
type Event struct {
	ID            id.EventID `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Date          time.Time  `json:"date"`
	Location      string     `json:"location"`
	ImageURL      string     `json:"image_url,omitempty"`
	HasImage      bool       `json:"has_image"`
	FormQuestions []Question `json:"form_questions"`
	CreatedAt     time.Time  `json:"created_at"`

	// An uploaded image lives either in object storage under ImageKey or
	// inline in ImageData. ImageKey wins when both are set.
	ImageKey         string `json:"-"`
	ImageData        []byte `json:"-"`
	ImageContentType string `json:"-"`
}

// HasStoredImage reports whether an uploaded image can be served for the event.
func (e *Event) HasStoredImage() bool {
	return e.ImageKey != "" || len(e.ImageData) > 0
}

// Started reports whether the event date is at or before now.
func (e *Event) Started(now time.Time) bool {
	return !e.Date.After(now)
}

// Clone returns a deep copy.
func (e *Event) Clone() *Event {
	c := *e
	c.ImageData = slices.Clone(e.ImageData)
	c.FormQuestions = make([]Question, len(e.FormQuestions))
	for i, q := range e.FormQuestions {
		c.FormQuestions[i] = Question{Text: q.Text, Type: q.Type, Options: slices.Clone(q.Options)}
	}
	return &c
}

// EventView is an Event decorated for a specific viewer.
type EventView struct {
	*Event
	IsRegistered bool `json:"is_registered"`
}

// Draft carries admin input for creating or editing an event.
// Date is kept as text so an unparseable value can be reported as such.
type Draft struct {
	Title       string
	Description string
	Date        string
	Location    string
	ImageURL    string
	// Image is an uploaded image as a data URL.
	Image string
	// FormQuestions nil leaves the questions of an existing event as they are.
	FormQuestions []Question
}
