package api

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/mubashirhassanpk/react-static-magic/internal/observability"
	"github.com/mubashirhassanpk/react-static-magic/internal/storage"
)

// StorageHandler serves stored objects over HTTP. Every download and
// preview URL handed out by the build processor points back here.
type StorageHandler struct {
	blobs   storage.Storage
	buckets map[string]bool
	metrics *observability.Metrics
}

// NewStorageHandler creates a handler serving objects from the given buckets
func NewStorageHandler(blobs storage.Storage, buckets []string) *StorageHandler {
	allowed := make(map[string]bool, len(buckets))
	for _, b := range buckets {
		allowed[b] = true
	}
	return &StorageHandler{
		blobs:   blobs,
		buckets: allowed,
	}
}

// SetMetrics attaches storage metrics recording
func (h *StorageHandler) SetMetrics(m *observability.Metrics) {
	h.metrics = m
}

// DownloadObject streams a stored object to the client
// GET /storage/:bucket/*
func (h *StorageHandler) DownloadObject(c *fiber.Ctx) error {
	bucket := c.Params("bucket")
	key := c.Params("*")

	if key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "object key is required",
		})
	}

	// Only the service's own buckets are reachable through this route
	if !h.buckets[bucket] {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Bucket not found",
		})
	}

	ctx := c.Context()

	start := time.Now()
	reader, object, err := h.blobs.Download(ctx, bucket, key)
	if h.metrics != nil {
		var size int64
		if object != nil {
			size = object.Size
		}
		h.metrics.RecordStorageOperation("download", bucket, size, time.Since(start), err)
	}
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) || errors.Is(err, storage.ErrBucketNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Object not found",
			})
		}
		log.Error().Err(err).Str("bucket", bucket).Str("key", key).Msg("Failed to download object")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to download object",
		})
	}

	contentType := object.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.Set("Content-Type", contentType)
	c.Set("Content-Length", strconv.FormatInt(object.Size, 10))
	if !object.LastModified.IsZero() {
		c.Set("Last-Modified", object.LastModified.Format(time.RFC1123))
	}
	if object.ETag != "" {
		c.Set("ETag", object.ETag)
	}

	// Preview pages render in the browser, everything else downloads
	disposition := "attachment"
	if strings.HasPrefix(contentType, "text/html") {
		disposition = "inline"
	}
	c.Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, filepath.Base(key)))

	log.Debug().
		Str("bucket", bucket).
		Str("key", key).
		Int64("size", object.Size).
		Msg("Object downloaded")

	// Stream the object (SendStream will close the reader)
	return c.SendStream(reader)
}
