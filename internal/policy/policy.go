// Package policy holds the authorization rules shared by the workflow
// engines. All functions are pure: they look only at the identity and the
// resource, never at stored state beyond what is passed in.
package policy

import (
	"github.com/campushub/backend/internal/models"
)

// CanReportItem allows any authenticated identity to report an item.
func CanReportItem(id models.Identity) bool {
	return id.Role.Valid()
}

// CanMutateItem allows the reporter or an Admin to change an item.
func CanMutateItem(id models.Identity, item *models.Item) bool {
	return id.Role == models.RoleAdmin || id.ID == item.ReportedBy
}

// CanSubmitEventRequest allows only Students to submit event requests.
func CanSubmitEventRequest(id models.Identity) bool {
	return id.Role == models.RoleStudent
}

// CanReviewEventRequest allows Faculty and Admin to approve or reject.
func CanReviewEventRequest(id models.Identity) bool {
	return id.Role == models.RoleFaculty || id.Role == models.RoleAdmin
}

// CanCreateEvent allows Faculty and Admin to create events directly.
func CanCreateEvent(id models.Identity) bool {
	return id.Role == models.RoleFaculty || id.Role == models.RoleAdmin
}

// CanMutateEvent allows the creator, Faculty, or Admin to update or delete
// an event. Materialized events are owned by the requesting student, so the
// creator branch covers them too.
func CanMutateEvent(id models.Identity, event *models.Event) bool {
	if id.Role == models.RoleFaculty || id.Role == models.RoleAdmin {
		return true
	}
	return id.ID == event.CreatedBy
}

// CanDeleteOwnPendingRequest allows the requester to delete their own
// request while it is still pending. Deletion of others' requests is not
// granted to anyone, Admin included.
func CanDeleteOwnPendingRequest(id models.Identity, req *models.EventRequest) bool {
	return id.ID == req.RequestedBy && req.Status == models.RequestPending
}

// CanManageFeedback allows Admin to list feedback and set its status.
func CanManageFeedback(id models.Identity) bool {
	return id.Role == models.RoleAdmin
}
