package lostfound

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campushub/backend/internal/middleware"
	"github.com/campushub/backend/internal/models"
	"github.com/campushub/backend/pkg/docstore"
	"github.com/campushub/backend/pkg/queue"
	"github.com/campushub/backend/pkg/response"
)

// MediaOffloader enqueues inline images for asynchronous S3 offload.
type MediaOffloader interface {
	EnqueueMediaOffload(ctx context.Context, payload queue.MediaOffloadPayload) error
}

// Handler handles lost & found HTTP endpoints.
type Handler struct {
	svc     *Service
	offload MediaOffloader // nil when S3 is not configured
	logger  *zap.Logger
}

// NewHandler creates a lost & found handler.
func NewHandler(svc *Service, offload MediaOffloader, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, offload: offload, logger: logger}
}

type geoRequest struct {
	Lat float64 `json:"lat" binding:"required"`
	Lng float64 `json:"lng" binding:"required"`
}

// ReportRequest is the body for POST /lost-found/report.
type ReportRequest struct {
	Name        string      `json:"name" binding:"required"`
	Description string      `json:"description"`
	Location    string      `json:"location"`
	Status      string      `json:"status"`
	Geo         *geoRequest `json:"geo"`
	OccurredAt  *string     `json:"occurred_at"` // RFC3339
	ImageData   string      `json:"image_data"`
}

// UpdateRequest is the body for PUT /lost-found/:id.
type UpdateRequest struct {
	Status     string  `json:"status"`
	ClaimImage string  `json:"claim_image"`
	ClaimNotes string  `json:"claim_notes"`
	Location   string  `json:"location"`
	ImageData  string  `json:"image_data"`
	OccurredAt *string `json:"occurred_at"`
}

// Report handles POST /lost-found/report.
func (h *Handler) Report(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	in := ReportInput{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Status:      models.ItemStatus(req.Status),
		ImageData:   req.ImageData,
	}
	if req.Geo != nil {
		in.Geo = &models.GeoPoint{Lat: req.Geo.Lat, Lng: req.Geo.Lng}
	}
	if req.OccurredAt != nil {
		t, err := time.Parse(time.RFC3339, *req.OccurredAt)
		if err != nil {
			response.BadRequest(c, "invalid occurred_at")
			return
		}
		in.OccurredAt = &t
	}

	item, err := h.svc.Report(c.Request.Context(), middleware.IdentityFrom(c), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.maybeOffload(c, item.ID, "image_data", item.ImageData)
	response.Created(c, item)
}

// List handles GET /lost-found. Listing is public.
func (h *Handler) List(c *gin.Context) {
	views, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list items", zap.Error(err))
		response.Internal(c, "failed to list items")
		return
	}
	response.OK(c, views)
}

// Update handles PUT /lost-found/:id (owner or Admin).
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	in := UpdateInput{
		Status:     models.ItemStatus(req.Status),
		ClaimImage: req.ClaimImage,
		ClaimNotes: req.ClaimNotes,
		Location:   req.Location,
		ImageData:  req.ImageData,
	}
	if req.OccurredAt != nil {
		t, err := time.Parse(time.RFC3339, *req.OccurredAt)
		if err != nil {
			response.BadRequest(c, "invalid occurred_at")
			return
		}
		in.OccurredAt = &t
	}

	item, err := h.svc.SetStatus(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.maybeOffload(c, item.ID, "image_data", item.ImageData)
	h.maybeOffload(c, item.ID, "claim_image", item.ClaimImage)
	response.OK(c, item)
}

// maybeOffload enqueues inline base64 images for S3 offload. Best-effort:
// the document stays valid with inline data if the enqueue fails.
func (h *Handler) maybeOffload(c *gin.Context, id, field, value string) {
	if h.offload == nil || value == "" || strings.HasPrefix(value, "http") {
		return
	}
	err := h.offload.EnqueueMediaOffload(c.Request.Context(), queue.MediaOffloadPayload{
		Collection: docstore.CollectionItems,
		DocID:      id,
		Field:      field,
	})
	if err != nil {
		h.logger.Warn("media offload enqueue failed", zap.String("item_id", id), zap.Error(err))
	}
}
