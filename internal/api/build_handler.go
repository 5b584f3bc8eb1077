package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mubashirhassanpk/react-static-magic/internal/jobs"
	"github.com/mubashirhassanpk/react-static-magic/internal/observability"
	"github.com/mubashirhassanpk/react-static-magic/internal/storage"
)

// BuildStore is the slice of the job store the handlers need
type BuildStore interface {
	Create(ctx context.Context, job *jobs.BuildJob) error
	Get(ctx context.Context, id uuid.UUID) (*jobs.BuildJob, error)
	List(ctx context.Context, filters *jobs.Filters) ([]*jobs.BuildJob, error)
	GetStats(ctx context.Context) (*jobs.Stats, error)
}

var _ BuildStore = (*jobs.Storage)(nil)

// BuildProcessor executes one build job to completion
type BuildProcessor interface {
	Process(ctx context.Context, jobID uuid.UUID) (*jobs.ProcessResponse, error)
}

var _ BuildProcessor = (*jobs.Processor)(nil)

// BuildHandler handles build job endpoints
type BuildHandler struct {
	store         BuildStore
	processor     BuildProcessor
	blobs         storage.Storage
	uploadBucket  string
	maxUploadSize int64
	metrics       *observability.Metrics
}

// NewBuildHandler creates a new build handler
func NewBuildHandler(store BuildStore, processor BuildProcessor, blobs storage.Storage, uploadBucket string, maxUploadSize int64) *BuildHandler {
	return &BuildHandler{
		store:         store,
		processor:     processor,
		blobs:         blobs,
		uploadBucket:  uploadBucket,
		maxUploadSize: maxUploadSize,
	}
}

// SetMetrics attaches storage metrics recording
func (h *BuildHandler) SetMetrics(m *observability.Metrics) {
	h.metrics = m
}

// UploadProject handles project archive upload and creates a pending build job
// POST /api/v1/builds
func (h *BuildHandler) UploadProject(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file is required",
		})
	}

	if h.maxUploadSize > 0 && file.Size > h.maxUploadSize {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": fmt.Sprintf("file size %d exceeds maximum allowed size %d", file.Size, h.maxUploadSize),
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to open uploaded file",
		})
	}
	defer func() { _ = src.Close() }()

	// Cheap sanity check on the magic bytes before accepting the upload;
	// a corrupt archive would otherwise only surface at process time
	head := make([]byte, 4)
	if _, err := io.ReadFull(src, head); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "project archive is empty or truncated",
		})
	}
	if head[0] != 'P' || head[1] != 'K' {
		return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
			"error": "project archive must be a ZIP file",
		})
	}

	jobID := uuid.New()
	key := fmt.Sprintf("%s/project.zip", jobID)
	ctx := c.Context()

	start := time.Now()
	_, err = h.blobs.Upload(ctx, h.uploadBucket, key,
		io.MultiReader(bytes.NewReader(head), src), file.Size,
		&storage.UploadOptions{ContentType: "application/zip"})
	if h.metrics != nil {
		h.metrics.RecordStorageOperation("upload", h.uploadBucket, file.Size, time.Since(start), err)
	}
	if err != nil {
		log.Error().Err(err).Str("bucket", h.uploadBucket).Str("key", key).Msg("Failed to store project archive")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to store project archive",
		})
	}

	job := &jobs.BuildJob{
		ID:        jobID,
		InputPath: key,
	}
	if err := h.store.Create(ctx, job); err != nil {
		reqID := getRequestID(c)
		log.Error().
			Err(err).
			Str("job_id", jobID.String()).
			Str("request_id", reqID).
			Msg("Failed to create build job")

		// The archive is already stored; drop it so nothing orphans
		if delErr := h.blobs.Delete(ctx, h.uploadBucket, key); delErr != nil {
			log.Warn().Err(delErr).Str("key", key).Msg("Failed to clean up stored archive")
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":      "Failed to create build job",
			"request_id": reqID,
		})
	}

	log.Info().
		Str("job_id", jobID.String()).
		Str("filename", file.Filename).
		Int64("size", file.Size).
		Msg("Project archive uploaded")

	return c.Status(fiber.StatusCreated).JSON(job)
}

// ProcessBuild runs the build pipeline for a previously uploaded job
// POST /api/v1/builds/process
func (h *BuildHandler) ProcessBuild(c *fiber.Ctx) error {
	var req struct {
		JobID string `json:"job_id"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.JobID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "job_id is required"})
	}

	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid job ID"})
	}

	resp, err := h.processor.Process(c.Context(), jobID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Job not found"})
	}

	// Build failures keep the response contract but signal via the status code
	if !resp.Success {
		return c.Status(500).JSON(resp)
	}

	return c.JSON(resp)
}

// GetBuild gets a build job by ID
// GET /api/v1/builds/:id
func (h *BuildHandler) GetBuild(c *fiber.Ctx) error {
	jobID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid job ID"})
	}

	job, err := h.store.Get(c.Context(), jobID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Job not found"})
	}

	return c.JSON(job)
}

// ListBuilds lists build jobs
// GET /api/v1/builds
func (h *BuildHandler) ListBuilds(c *fiber.Ctx) error {
	filters := &jobs.Filters{}

	if status := c.Query("status"); status != "" {
		s, err := jobs.ParseStatus(status)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid status: " + status})
		}
		filters.Status = &s
	}

	limit, offset := NormalizePaginationParams(
		c.QueryInt("limit", 50), c.QueryInt("offset", 0), 50, 200)
	filters.Limit = &limit
	filters.Offset = &offset

	builds, err := h.store.List(c.Context(), filters)
	if err != nil {
		reqID := getRequestID(c)
		log.Error().
			Err(err).
			Str("request_id", reqID).
			Msg("Failed to list build jobs")

		return c.Status(500).JSON(fiber.Map{
			"error":      "Failed to list build jobs",
			"request_id": reqID,
		})
	}

	return c.JSON(fiber.Map{
		"jobs":   builds,
		"limit":  limit,
		"offset": offset,
	})
}

// GetBuildStats returns aggregate build job statistics
// GET /api/v1/builds/stats
func (h *BuildHandler) GetBuildStats(c *fiber.Ctx) error {
	stats, err := h.store.GetStats(c.Context())
	if err != nil {
		reqID := getRequestID(c)
		log.Error().
			Err(err).
			Str("request_id", reqID).
			Msg("Failed to get build stats")

		return c.Status(500).JSON(fiber.Map{
			"error":      "Failed to get build stats",
			"request_id": reqID,
		})
	}

	return c.JSON(stats)
}

// getRequestID extracts the request ID set by the requestid middleware
func getRequestID(c *fiber.Ctx) string {
	requestID := c.Locals("requestid")
	if requestID != nil {
		if reqIDStr, ok := requestID.(string); ok {
			return reqIDStr
		}
	}
	return c.Get("X-Request-ID", "")
}
