package feedback

import (
	"github.com/gin-gonic/gin"

	"github.com/campushub/backend/internal/middleware"
	"github.com/campushub/backend/internal/models"
	"github.com/campushub/backend/pkg/response"
)

// Handler handles feedback HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a feedback handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// SubmitRequest is the body for POST /feedback.
type SubmitRequest struct {
	Subject string `json:"subject" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// StatusRequest is the body for PUT /feedback/:id/status.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Submit handles POST /feedback.
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	fb, err := h.svc.Submit(c.Request.Context(), middleware.IdentityFrom(c), req.Subject, req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, fb)
}

// List handles GET /feedback (Admin).
func (h *Handler) List(c *gin.Context) {
	views, err := h.svc.List(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, views)
}

// SetStatus handles PUT /feedback/:id/status (Admin).
func (h *Handler) SetStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	fb, err := h.svc.SetStatus(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"), models.FeedbackStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, fb)
}
