package models

import (
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies events.
type EventCategory string

const (
	CategoryTechnical EventCategory = "Technical"
	CategoryCultural  EventCategory = "Cultural"
	CategorySports    EventCategory = "Sports"
	CategoryWorkshop  EventCategory = "Workshop"
	CategorySeminar   EventCategory = "Seminar"
	CategoryOther     EventCategory = "Other"
)

// Valid reports whether the category is one of the known categories.
func (c EventCategory) Valid() bool {
	switch c {
	case CategoryTechnical, CategoryCultural, CategorySports, CategoryWorkshop, CategorySeminar, CategoryOther:
		return true
	}
	return false
}

// Event is a published campus event, created directly by Faculty/Admin or
// materialized from an approved EventRequest. For materialized events
// CreatedBy is the original requesting student, not the reviewer.
type Event struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Date          string        `json:"date"` // YYYY-MM-DD
	Time          string        `json:"time,omitempty"`
	Venue         string        `json:"venue,omitempty"`
	Description   string        `json:"description,omitempty"`
	Category      EventCategory `json:"category"`
	Capacity      int           `json:"capacity,omitempty"`
	Prerequisites string        `json:"prerequisites,omitempty"`
	CoverImage    string        `json:"cover_image,omitempty"` // base64 blob or URL after offload
	CreatedBy     uuid.UUID     `json:"created_by"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
