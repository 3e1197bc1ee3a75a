package events

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campushub/backend/internal/middleware"
	"github.com/campushub/backend/internal/models"
	"github.com/campushub/backend/pkg/docstore"
	"github.com/campushub/backend/pkg/queue"
	"github.com/campushub/backend/pkg/response"
)

// MediaOffloader hands inline images to the background worker.
type MediaOffloader interface {
	EnqueueMediaOffload(ctx context.Context, payload queue.MediaOffloadPayload) error
}

// Handler handles event HTTP endpoints.
type Handler struct {
	svc     *Service
	offload MediaOffloader
	logger  *zap.Logger
}

// NewHandler creates an events handler. offload may be nil when media
// storage is not configured.
func NewHandler(svc *Service, offload MediaOffloader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, offload: offload, logger: logger}
}

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Name          string `json:"name" binding:"required"`
	Date          string `json:"date" binding:"required"`
	Time          string `json:"time"`
	Venue         string `json:"venue"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	Capacity      int    `json:"capacity"`
	Prerequisites string `json:"prerequisites"`
	CoverImage    string `json:"cover_image"`
}

// Create handles POST /events (Faculty/Admin).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	event, err := h.svc.Create(c.Request.Context(), middleware.IdentityFrom(c), CreateInput{
		Name:          req.Name,
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
	h.maybeOffload(c, event.ID, "cover_image", event.CoverImage)
	response.Created(c, event)
}

// List handles GET /events. Public to any authenticated user.
func (h *Handler) List(c *gin.Context) {
	events, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, events)
}

// UpdateRequest is the body for PUT /events/:id. Omitted fields are
// left unchanged.
type UpdateRequest struct {
	Name          *string `json:"name"`
	Date          *string `json:"date"`
	Time          *string `json:"time"`
	Venue         *string `json:"venue"`
	Description   *string `json:"description"`
	Category      *string `json:"category"`
	Capacity      *int    `json:"capacity"`
	Prerequisites *string `json:"prerequisites"`
	CoverImage    *string `json:"cover_image"`
}

// Update handles PUT /events/:id.
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	in := UpdateInput{
		Name:          req.Name,
		Date:          req.Date,
		Time:          req.Time,
		Venue:         req.Venue,
		Description:   req.Description,
		Capacity:      req.Capacity,
		Prerequisites: req.Prerequisites,
		CoverImage:    req.CoverImage,
	}
	if req.Category != nil {
		category := models.EventCategory(*req.Category)
		in.Category = &category
	}
	event, err := h.svc.Update(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.maybeOffload(c, event.ID, "cover_image", event.CoverImage)
	response.OK(c, event)
}

// Delete handles DELETE /events/:id.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "event deleted"})
}

// maybeOffload enqueues a background upload when the field carries inline
// base64 data. Already-uploaded URLs pass through untouched.
func (h *Handler) maybeOffload(c *gin.Context, eventID, field, value string) {
	if h.offload == nil || value == "" || strings.HasPrefix(value, "http") {
		return
	}
	err := h.offload.EnqueueMediaOffload(c.Request.Context(), queue.MediaOffloadPayload{
		Collection: docstore.CollectionEvents,
		DocID:      eventID,
		Field:      field,
	})
	if err != nil {
		h.logger.Warn("media offload enqueue failed",
			zap.String("event_id", eventID), zap.Error(err))
	}
}
