// Package worker runs background jobs: offloading inline base64 images
// out of Redis documents into S3, patching the document field with the
// object URL.
package worker

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/backend/internal/models"
	"github.com/campushub/backend/pkg/docstore"
	"github.com/campushub/backend/pkg/queue"
	"github.com/campushub/backend/pkg/storage"
)

// MediaProcessor processes media offload jobs: decode the inline image,
// upload to S3, replace the document field with the URL.
type MediaProcessor struct {
	items  *docstore.Collection[models.Item]
	events *docstore.Collection[models.Event]
	s3     *storage.S3
	queue  *queue.Queue
	logger *zap.Logger
}

// NewMediaProcessor creates a media offload processor.
func NewMediaProcessor(items *docstore.Collection[models.Item], events *docstore.Collection[models.Event], s3 *storage.S3, q *queue.Queue, logger *zap.Logger) *MediaProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaProcessor{items: items, events: events, s3: s3, queue: q, logger: logger}
}

// Process executes one media offload job.
func (p *MediaProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeMediaOffload {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.MediaOffloadPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	switch payload.Collection {
	case docstore.CollectionItems:
		return offload(ctx, p, payload, p.items, itemField)
	case docstore.CollectionEvents:
		return offload(ctx, p, payload, p.events, eventField)
	default:
		return fmt.Errorf("unknown collection: %s", payload.Collection)
	}
}

// offload reads the document field, uploads the decoded image, and patches
// the field to the object URL. A field that is already a URL or has been
// cleared since enqueue is treated as done.
func offload[T any](ctx context.Context, p *MediaProcessor, payload queue.MediaOffloadPayload, coll *docstore.Collection[T], field func(*T, string) *string) error {
	doc, err := coll.GetByID(ctx, payload.DocID)
	if err != nil {
		return fmt.Errorf("document not found: %s/%s", payload.Collection, payload.DocID)
	}
	ptr := field(doc, payload.Field)
	if ptr == nil {
		return fmt.Errorf("unknown field: %s", payload.Field)
	}
	value := *ptr
	if value == "" || strings.HasPrefix(value, "http") {
		p.logger.Debug("media already offloaded or cleared",
			zap.String("doc_id", payload.DocID), zap.String("field", payload.Field))
		return nil
	}

	data, contentType, err := decodeImage(value)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	key := storage.MediaKey(payload.Collection, payload.DocID, payload.Field)
	url, err := p.s3.Upload(ctx, key, contentType, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}

	_, err = coll.Update(ctx, payload.DocID, func(d *T) error {
		target := field(d, payload.Field)
		if target == nil {
			return fmt.Errorf("unknown field: %s", payload.Field)
		}
		// A concurrent writer may have replaced the image; only patch if
		// the field still holds inline data.
		if *target != "" && !strings.HasPrefix(*target, "http") {
			*target = url
		}
		return nil
	})
	if err != nil {
		p.logger.Error("document patch failed after upload",
			zap.String("s3_key", key), zap.Error(err))
		return fmt.Errorf("patch document: %w", err)
	}

	p.logger.Info("media offload completed",
		zap.String("doc_id", payload.DocID),
		zap.String("field", payload.Field),
		zap.String("s3_key", key))
	return nil
}

func itemField(item *models.Item, field string) *string {
	switch field {
	case "image_data":
		return &item.ImageData
	case "claim_image":
		return &item.ClaimImage
	default:
		return nil
	}
}

func eventField(event *models.Event, field string) *string {
	switch field {
	case "cover_image":
		return &event.CoverImage
	default:
		return nil
	}
}

// decodeImage decodes a base64 image, with or without a data URI prefix,
// and sniffs its content type.
func decodeImage(value string) ([]byte, string, error) {
	declared := ""
	if strings.HasPrefix(value, "data:") {
		idx := strings.Index(value, ",")
		if idx < 0 {
			return nil, "", fmt.Errorf("malformed data URI")
		}
		meta := value[5:idx]
		if semi := strings.Index(meta, ";"); semi >= 0 {
			declared = meta[:semi]
		} else {
			declared = meta
		}
		value = value[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, "", err
	}
	if len(data) > storage.MaxImageSize {
		return nil, "", fmt.Errorf("image exceeds %d bytes", storage.MaxImageSize)
	}
	contentType := http.DetectContentType(data)
	if declared != "" && strings.HasPrefix(declared, "image/") {
		contentType = declared
	}
	return data, contentType, nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *MediaProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("media worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("media worker stopping")
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
