package lostfound

import "github.com/campushub/backend/internal/models"

// Transitions is the allowed status transition table for items. Keeping it
// explicit (rather than implicit in the update path) lets a stricter table
// be swapped in without touching call sites.
type Transitions map[models.ItemStatus][]models.ItemStatus

// DefaultTransitions permits every status change; the only extra gate is the
// claim-proof requirement enforced by the service when entering claimed.
// TODO: decide whether claimed->lost/found should require an explicit
// unclaim step before tightening this table.
func DefaultTransitions() Transitions {
	all := []models.ItemStatus{models.ItemLost, models.ItemFound, models.ItemClaimed}
	return Transitions{
		models.ItemLost:    all,
		models.ItemFound:   all,
		models.ItemClaimed: all,
	}
}

// Allowed reports whether from -> to is permitted.
func (t Transitions) Allowed(from, to models.ItemStatus) bool {
	for _, s := range t[from] {
		if s == to {
			return true
		}
	}
	return false
}
