package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the lifecycle status of an event request.
// pending is initial; approved and rejected are terminal.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// Valid reports whether the status is one of the known request statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected:
		return true
	}
	return false
}

// EventRequest is a student's proposal for an event, reviewed once by
// Faculty/Admin.
// Invariants: Status != pending implies ReviewedBy and ReviewedAt are set;
// Status == approved implies EventID is set.
type EventRequest struct {
	ID            string        `json:"id"`
	EventName     string        `json:"event_name"`
	Date          string        `json:"date"` // YYYY-MM-DD
	Time          string        `json:"time,omitempty"`
	Venue         string        `json:"venue,omitempty"`
	Description   string        `json:"description,omitempty"`
	Category      EventCategory `json:"category"`
	Capacity      int           `json:"capacity,omitempty"`
	Prerequisites string        `json:"prerequisites,omitempty"`
	CoverImage    string        `json:"cover_image,omitempty"`
	RequestedBy   uuid.UUID     `json:"requested_by"`
	Status        RequestStatus `json:"status"`

	ReviewedBy  *uuid.UUID `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	ReviewNotes string     `json:"review_notes,omitempty"`
	EventID     string     `json:"event_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EventRequestView is an EventRequest with identity summaries for listings.
type EventRequestView struct {
	EventRequest
	Requester *UserSummary `json:"requester,omitempty"`
	Reviewer  *UserSummary `json:"reviewer,omitempty"`
}
