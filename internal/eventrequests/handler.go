package eventrequests

import (
	"github.com/gin-gonic/gin"

	"github.com/campushub/backend/internal/middleware"
	"github.com/campushub/backend/internal/models"
	"github.com/campushub/backend/pkg/response"
)

// Handler handles event request HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an event request handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// SubmitRequest is the body for POST /event-requests.
type SubmitRequest struct {
	EventName     string `json:"event_name" binding:"required"`
	Date          string `json:"date" binding:"required"`
	Time          string `json:"time"`
	Venue         string `json:"venue"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	Capacity      int    `json:"capacity"`
	Prerequisites string `json:"prerequisites"`
	CoverImage    string `json:"cover_image"`
}

// ReviewRequest is the body for the approve/reject endpoints.
type ReviewRequest struct {
	ReviewNotes string `json:"review_notes"`
}

// Submit handles POST /event-requests (Students only).
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	created, err := h.svc.Submit(c.Request.Context(), middleware.IdentityFrom(c), SubmitInput{
		EventName:     req.EventName,
		Date:          req.Date,
		Time:          req.Time,
		Venue:         req.Venue,
		Description:   req.Description,
		Category:      models.EventCategory(req.Category),
		Capacity:      req.Capacity,
		Prerequisites: req.Prerequisites,
		CoverImage:    req.CoverImage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// List handles GET /event-requests with optional ?status= filter.
func (h *Handler) List(c *gin.Context) {
	views, err := h.svc.ListForCaller(c.Request.Context(), middleware.IdentityFrom(c), models.RequestStatus(c.Query("status")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, views)
}

// Approve handles PUT /event-requests/:id/approve (Faculty/Admin).
func (h *Handler) Approve(c *gin.Context) {
	h.review(c, DecisionApprove)
}

// Reject handles PUT /event-requests/:id/reject (Faculty/Admin).
func (h *Handler) Reject(c *gin.Context) {
	h.review(c, DecisionReject)
}

func (h *Handler) review(c *gin.Context, decision Decision) {
	var req ReviewRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
	}
	result, err := h.svc.Review(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"), decision, req.ReviewNotes)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Event != nil {
		response.OK(c, gin.H{"event_request": result.Request, "event": result.Event})
		return
	}
	response.OK(c, result.Request)
}

// Delete handles DELETE /event-requests/:id (requester, pending only).
func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.DeleteOwnPending(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "event request deleted"})
}
