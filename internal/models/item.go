package models

import (
	"time"

	"github.com/google/uuid"
)

// ItemStatus is the lifecycle status of a lost & found item.
type ItemStatus string

const (
	ItemLost    ItemStatus = "lost"
	ItemFound   ItemStatus = "found"
	ItemClaimed ItemStatus = "claimed"
)

// Valid reports whether the status is one of the known item statuses.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemLost, ItemFound, ItemClaimed:
		return true
	}
	return false
}

// GeoPoint is an optional map coordinate attached to an item.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Item is a lost & found record.
// Invariant: Status == claimed implies ClaimImage and ClaimedBy are set.
type Item struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location"`
	Geo         *GeoPoint  `json:"geo,omitempty"`
	Status      ItemStatus `json:"status"`
	ReportedBy  uuid.UUID  `json:"reported_by"`
	OccurredAt  time.Time  `json:"occurred_at"`
	ImageData   string     `json:"image_data,omitempty"` // base64 blob or URL after offload

	ClaimedBy  *uuid.UUID `json:"claimed_by,omitempty"`
	ClaimedAt  *time.Time `json:"claimed_at,omitempty"`
	ClaimImage string     `json:"claim_image,omitempty"`
	ClaimNotes string     `json:"claim_notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ItemView is an Item with identity summaries attached for listings.
type ItemView struct {
	Item
	Reporter *UserSummary `json:"reporter,omitempty"`
	Claimer  *UserSummary `json:"claimer,omitempty"`
}
