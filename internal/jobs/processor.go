package jobs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mubashirhassanpk/react-static-magic/internal/builder"
	"github.com/mubashirhassanpk/react-static-magic/internal/config"
	"github.com/mubashirhassanpk/react-static-magic/internal/observability"
	"github.com/mubashirhassanpk/react-static-magic/internal/storage"
)

// JobStore is the slice of Storage the processor needs
type JobStore interface {
	Get(ctx context.Context, id uuid.UUID) (*BuildJob, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID, outputPath, previewPath string) error
	MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error
}

var _ JobStore = (*Storage)(nil)

// BlobStore is the slice of blob storage the processor needs
type BlobStore interface {
	Download(ctx context.Context, bucket, key string) (io.ReadCloser, *storage.Object, error)
	Upload(ctx context.Context, bucket, key string, data io.Reader, size int64, opts *storage.UploadOptions) (*storage.Object, error)
}

// ProcessResponse is the invocation-boundary response for one build.
// Field names are part of the wire contract consumed by upload clients.
type ProcessResponse struct {
	Success     bool           `json:"success"`
	Error       string         `json:"error,omitempty"`
	Logs        []string       `json:"logs"`
	DownloadURL string         `json:"downloadUrl,omitempty"`
	PreviewURL  string         `json:"previewUrl,omitempty"`
	Stats       *builder.Stats `json:"stats,omitempty"`
}

// Processor runs the build pipeline for one job at a time: download the
// uploaded archive, build it, upload the artifacts, and flip the job
// record's status. Failures are terminal; nothing retries automatically.
type Processor struct {
	store    JobStore
	blobs    BlobStore
	config   *config.Config
	pipeline *builder.Pipeline
	metrics  *observability.Metrics
}

// NewProcessor creates a new Processor
func NewProcessor(store JobStore, blobs BlobStore, cfg *config.Config) *Processor {
	return &Processor{
		store:  store,
		blobs:  blobs,
		config: cfg,
		pipeline: builder.New(builder.Options{
			CDNBase:     cfg.Build.CDNBase,
			AliasPrefix: cfg.Build.AliasPrefix,
			SourceRoot:  cfg.Build.SourceRoot,
		}),
	}
}

// SetMetrics attaches build metrics recording
func (p *Processor) SetMetrics(m *observability.Metrics) {
	p.metrics = m
}

// Process executes the build for the given job. A nil error with
// Success=false means the build itself failed and the job record says
// why; a non-nil error means the job could not be looked up at all.
func (p *Processor) Process(ctx context.Context, jobID uuid.UUID) (*ProcessResponse, error) {
	job, err := p.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("job_id", job.ID.String()).
		Str("input_path", job.InputPath).
		Msg("Processing build job")

	if err := p.store.MarkProcessing(ctx, job.ID); err != nil {
		return nil, err
	}

	ctx, span := observability.StartBuildSpan(ctx, observability.BuildSpanConfig{
		JobID:     job.ID.String(),
		InputPath: job.InputPath,
		Trigger:   "api",
	})
	defer span.End()

	if p.metrics != nil {
		p.metrics.BuildStarted()
	}
	start := time.Now()

	resp := p.execute(ctx, job)

	duration := time.Since(start)
	status := "completed"
	if !resp.Success {
		status = "failed"
	}
	if p.metrics != nil {
		p.metrics.RecordBuild(status, duration)
	}
	observability.SetBuildResult(ctx, status, duration, nil)

	return resp, nil
}

// execute runs download, pipeline, and upload. The job is already in
// the processing state when this is called.
func (p *Processor) execute(ctx context.Context, job *BuildJob) *ProcessResponse {
	logs := []string{}

	reader, _, err := p.blobs.Download(ctx, p.config.Storage.UploadBucket, job.InputPath)
	if err != nil {
		log.Error().
			Err(err).
			Str("job_id", job.ID.String()).
			Str("input_path", job.InputPath).
			Msg("Failed to download project archive")
		return p.fail(ctx, job, "Failed to download project archive", logs)
	}

	data, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		log.Error().Err(err).Str("job_id", job.ID.String()).Msg("Failed to read project archive")
		return p.fail(ctx, job, "Failed to download project archive", logs)
	}
	observability.AddBuildEvent(ctx, "archive.downloaded")

	buildCtx := ctx
	if p.config.Build.Timeout > 0 {
		var cancel context.CancelFunc
		buildCtx, cancel = context.WithTimeout(ctx, p.config.Build.Timeout)
		defer cancel()
	}

	res, err := p.pipeline.Run(buildCtx, data)
	logs = res.Log.Lines()
	if err != nil {
		message := fmt.Sprintf("Build failed: %v", err)
		log.Error().
			Err(err).
			Str("job_id", job.ID.String()).
			Msg("Build pipeline failed")
		observability.RecordError(ctx, err)
		return p.fail(ctx, job, message, logs)
	}
	observability.AddBuildEvent(ctx, "bundle.assembled")

	outputKey := fmt.Sprintf("%s/site.zip", job.ID)
	previewKey := fmt.Sprintf("%s/preview.html", job.ID)
	outputBucket := p.config.Storage.OutputBucket

	_, err = p.blobs.Upload(ctx, outputBucket, outputKey,
		bytes.NewReader(res.OutputZip), int64(len(res.OutputZip)),
		&storage.UploadOptions{ContentType: "application/zip"})
	if err != nil {
		log.Error().Err(err).Str("job_id", job.ID.String()).Msg("Failed to upload build output")
		return p.fail(ctx, job, "Failed to upload build output", logs)
	}

	preview := []byte(res.PreviewHTML)
	_, err = p.blobs.Upload(ctx, outputBucket, previewKey,
		bytes.NewReader(preview), int64(len(preview)),
		&storage.UploadOptions{ContentType: "text/html; charset=utf-8"})
	if err != nil {
		log.Error().Err(err).Str("job_id", job.ID.String()).Msg("Failed to upload build output")
		return p.fail(ctx, job, "Failed to upload build output", logs)
	}

	if err := p.store.MarkCompleted(ctx, job.ID, outputKey, previewKey); err != nil {
		log.Error().Err(err).Str("job_id", job.ID.String()).Msg("Failed to mark job as completed")
		return p.fail(ctx, job, "Failed to record build result", logs)
	}

	observability.AddBuildEvent(ctx, "artifacts.uploaded")

	stats := res.Stats
	if p.metrics != nil {
		p.metrics.RecordBuildArtifacts(stats.BundleSize, stats.CSSSize, stats.ZipSize, stats.ModuleCount)
	}
	observability.SetBuildArtifacts(ctx,
		int64(stats.BundleSize), int64(stats.CSSSize), int64(stats.ZipSize), stats.ModuleCount)

	log.Info().
		Str("job_id", job.ID.String()).
		Int("modules", stats.ModuleCount).
		Int("zip_bytes", stats.ZipSize).
		Msg("Build completed successfully")

	return &ProcessResponse{
		Success:     true,
		Logs:        logs,
		DownloadURL: p.publicURL(outputBucket, outputKey),
		PreviewURL:  p.publicURL(outputBucket, previewKey),
		Stats:       &stats,
	}
}

// fail marks the job failed and builds the failure response. Marking
// can itself fail (e.g. database outage); that is logged but the
// caller still gets the build failure, not the bookkeeping one.
func (p *Processor) fail(ctx context.Context, job *BuildJob, message string, logs []string) *ProcessResponse {
	if err := p.store.MarkFailed(ctx, job.ID, message); err != nil {
		log.Error().Err(err).Str("job_id", job.ID.String()).Msg("Failed to mark job as failed")
	}

	return &ProcessResponse{
		Success: false,
		Error:   message,
		Logs:    logs,
	}
}

// publicURL builds the URL under which a stored artifact is served
func (p *Processor) publicURL(bucket, key string) string {
	base := strings.TrimRight(p.config.BaseURL, "/")
	return fmt.Sprintf("%s/storage/%s/%s", base, bucket, key)
}
