package models

import (
	"time"

	"github.com/google/uuid"
)

// FeedbackStatus is the handling state of a feedback entry.
type FeedbackStatus string

const (
	FeedbackPending  FeedbackStatus = "pending"
	FeedbackResolved FeedbackStatus = "resolved"
)

// Valid reports whether the status is a known feedback status.
func (s FeedbackStatus) Valid() bool {
	return s == FeedbackPending || s == FeedbackResolved
}

// Feedback is a user-submitted feedback entry.
type Feedback struct {
	ID          string         `json:"id"`
	Subject     string         `json:"subject"`
	Message     string         `json:"message"`
	Status      FeedbackStatus `json:"status"`
	SubmittedBy uuid.UUID      `json:"submitted_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// FeedbackView is a Feedback with the submitter summary for listings.
type FeedbackView struct {
	Feedback
	Submitter *UserSummary `json:"submitter,omitempty"`
}
