package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/mubashirhassanpk/react-static-magic/internal/config"
)

// ExpiredStore is the slice of Storage the retention sweep needs
type ExpiredStore interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) ([]*BuildJob, error)
}

// ArtifactStore is the slice of blob storage the retention sweep needs
type ArtifactStore interface {
	Delete(ctx context.Context, bucket, key string) error
	DeletePrefix(ctx context.Context, bucket, prefix string) error
}

// LeaderCheck reports whether this instance should run scheduled
// sweeps. When unset, every instance sweeps.
type LeaderCheck func() bool

// Retention periodically removes terminal build jobs older than the
// configured window, together with their uploaded archives and build
// artifacts.
type Retention struct {
	store        ExpiredStore
	blobs        ArtifactStore
	uploadBucket string
	outputBucket string
	maxAge       time.Duration
	schedule     string
	cron         *cron.Cron
	isLeader     LeaderCheck
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewRetention creates a retention sweeper from the service config
func NewRetention(store ExpiredStore, blobs ArtifactStore, cfg *config.Config) *Retention {
	ctx, cancel := context.WithCancel(context.Background())

	// Standard 5-field cron expressions plus optional seconds
	parser := cron.NewParser(
		cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)

	return &Retention{
		store:        store,
		blobs:        blobs,
		uploadBucket: cfg.Storage.UploadBucket,
		outputBucket: cfg.Storage.OutputBucket,
		maxAge:       cfg.Retention.MaxAge,
		schedule:     cfg.Retention.Schedule,
		cron:         cron.New(cron.WithParser(parser)),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// SetLeaderCheck gates scheduled sweeps on leadership, so that only
// one instance of a multi-node deployment deletes expired jobs
func (r *Retention) SetLeaderCheck(check LeaderCheck) {
	r.isLeader = check
}

// Start registers the sweep schedule and starts the cron runner
func (r *Retention) Start() error {
	entryID, err := r.cron.AddFunc(r.schedule, r.Sweep)
	if err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", r.schedule, err)
	}

	r.cron.Start()

	log.Info().
		Str("schedule", r.schedule).
		Dur("max_age", r.maxAge).
		Uint("entry_id", uint(entryID)).
		Msg("Build retention sweep scheduled")

	return nil
}

// Stop gracefully shuts down the sweeper
func (r *Retention) Stop() {
	log.Info().Msg("Stopping retention sweeper")
	r.cancel()

	ctx := r.cron.Stop()

	select {
	case <-ctx.Done():
	case <-time.After(30 * time.Second):
		log.Warn().Msg("Retention shutdown timeout - a sweep may not have completed")
	}
}

// Sweep deletes expired jobs and their stored artifacts. Blob deletion
// failures leave orphaned objects behind; the job rows are already gone
// by then, so those are logged and skipped rather than retried.
func (r *Retention) Sweep() {
	if r.isLeader != nil && !r.isLeader() {
		log.Debug().Msg("Skipping retention sweep - not the leader")
		return
	}

	cutoff := time.Now().Add(-r.maxAge)

	expired, err := r.store.DeleteExpired(r.ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Failed to delete expired build jobs")
		return
	}

	if len(expired) == 0 {
		log.Debug().Time("cutoff", cutoff).Msg("No expired build jobs")
		return
	}

	for _, job := range expired {
		if job.InputPath != "" {
			if err := r.blobs.Delete(r.ctx, r.uploadBucket, job.InputPath); err != nil {
				log.Warn().
					Err(err).
					Str("job_id", job.ID.String()).
					Str("input_path", job.InputPath).
					Msg("Failed to delete uploaded archive")
			}
		}

		if err := r.blobs.DeletePrefix(r.ctx, r.outputBucket, job.ID.String()+"/"); err != nil {
			log.Warn().
				Err(err).
				Str("job_id", job.ID.String()).
				Msg("Failed to delete build artifacts")
		}
	}

	log.Info().
		Int("jobs", len(expired)).
		Time("cutoff", cutoff).
		Msg("Expired build jobs cleaned up")
}
