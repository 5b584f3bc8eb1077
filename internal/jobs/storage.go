package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mubashirhassanpk/react-static-magic/internal/database"
)

// Storage provides database operations for build jobs
type Storage struct {
	db database.Executor
}

// NewStorage creates a new Storage instance
func NewStorage(db database.Executor) *Storage {
	return &Storage{db: db}
}

// Create persists a new job. Status defaults to pending when unset.
func (s *Storage) Create(ctx context.Context, job *BuildJob) error {
	if job.Status == "" {
		job.Status = StatusPending
	}

	query := `
		INSERT INTO build_jobs (id, status, input_path)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	err := s.db.QueryRow(ctx, query, job.ID, job.Status, job.InputPath).Scan(&job.CreatedAt)
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("job already exists: %s", job.ID)
	}
	return err
}

// Get retrieves a job by ID
func (s *Storage) Get(ctx context.Context, id uuid.UUID) (*BuildJob, error) {
	query := `
		SELECT id, status, input_path, output_path, preview_path, error_message,
		       created_at, started_at, completed_at
		FROM build_jobs
		WHERE id = $1
	`

	var job BuildJob
	err := s.db.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.Status, &job.InputPath, &job.OutputPath, &job.PreviewPath,
		&job.ErrorMessage, &job.CreatedAt, &job.StartedAt, &job.CompletedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("job not found: %s", id)
		}
		return nil, err
	}

	return &job, nil
}

// List lists jobs with optional filters, newest first
func (s *Storage) List(ctx context.Context, filters *Filters) ([]*BuildJob, error) {
	query := `
		SELECT id, status, input_path, output_path, preview_path, error_message,
		       created_at, started_at, completed_at
		FROM build_jobs
		WHERE 1=1
	`

	args := []interface{}{}
	argCount := 1

	if filters != nil && filters.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, *filters.Status)
		argCount++
	}

	query += " ORDER BY created_at DESC"

	if filters != nil && filters.Limit != nil && *filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, *filters.Limit)
		argCount++

		if filters.Offset != nil && *filters.Offset > 0 {
			query += fmt.Sprintf(" OFFSET $%d", argCount)
			args = append(args, *filters.Offset)
		}
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*BuildJob
	for rows.Next() {
		var job BuildJob
		err := rows.Scan(
			&job.ID, &job.Status, &job.InputPath, &job.OutputPath, &job.PreviewPath,
			&job.ErrorMessage, &job.CreatedAt, &job.StartedAt, &job.CompletedAt,
		)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, &job)
	}

	return jobs, rows.Err()
}

// MarkProcessing transitions a job into the processing state and clears
// any previous build outcome so a job can be reprocessed.
func (s *Storage) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE build_jobs
		SET status = $1, started_at = NOW(),
		    output_path = NULL, preview_path = NULL, error_message = NULL,
		    completed_at = NULL
		WHERE id = $2
	`

	cmdTag, err := s.db.Exec(ctx, query, StatusProcessing, id)
	if err != nil {
		return err
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("job not found: %s", id)
	}

	return nil
}

// MarkCompleted marks a job as completed and records its artifact paths
func (s *Storage) MarkCompleted(ctx context.Context, id uuid.UUID, outputPath, previewPath string) error {
	query := `
		UPDATE build_jobs
		SET status = $1, output_path = $2, preview_path = $3, completed_at = NOW()
		WHERE id = $4
	`

	cmdTag, err := s.db.Exec(ctx, query, StatusCompleted, outputPath, previewPath, id)
	if err != nil {
		return err
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("job not found: %s", id)
	}

	return nil
}

// MarkFailed marks a job as failed with a human-readable error message
func (s *Storage) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE build_jobs
		SET status = $1, error_message = $2, completed_at = NOW()
		WHERE id = $3
	`

	cmdTag, err := s.db.Exec(ctx, query, StatusFailed, errorMessage, id)
	if err != nil {
		return err
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("job not found: %s", id)
	}

	return nil
}

// GetStats retrieves aggregate statistics about build jobs
func (s *Storage) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	countQuery := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending,
			COUNT(*) FILTER (WHERE status = 'processing') AS processing,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed,
			COUNT(*) FILTER (WHERE status = 'failed') AS failed,
			COALESCE(AVG(EXTRACT(EPOCH FROM (completed_at - started_at))) FILTER (WHERE completed_at IS NOT NULL AND started_at IS NOT NULL), 0) AS avg_duration
		FROM build_jobs
	`

	err := s.db.QueryRow(ctx, countQuery).Scan(
		&stats.TotalJobs, &stats.PendingJobs, &stats.ProcessingJobs,
		&stats.CompletedJobs, &stats.FailedJobs, &stats.AvgDurationSeconds,
	)
	if err != nil {
		return nil, err
	}

	dayQuery := `
		SELECT DATE(created_at) as date, COUNT(*) as count
		FROM build_jobs
		WHERE created_at >= NOW() - INTERVAL '7 days'
		GROUP BY DATE(created_at)
		ORDER BY date DESC
	`

	rows, err := s.db.Query(ctx, dayQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var dc DayCount
		var date time.Time
		if err := rows.Scan(&date, &dc.Count); err != nil {
			return nil, err
		}
		dc.Date = date.Format("2006-01-02")
		stats.JobsByDay = append(stats.JobsByDay, dc)
	}

	return stats, rows.Err()
}

// DeleteExpired removes terminal jobs created before the cutoff and
// returns the deleted rows so the caller can clean up stored artifacts.
func (s *Storage) DeleteExpired(ctx context.Context, cutoff time.Time) ([]*BuildJob, error) {
	query := `
		DELETE FROM build_jobs
		WHERE status IN ($1, $2) AND created_at < $3
		RETURNING id, status, input_path, output_path, preview_path, error_message,
		          created_at, started_at, completed_at
	`

	rows, err := s.db.Query(ctx, query, StatusCompleted, StatusFailed, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*BuildJob
	for rows.Next() {
		var job BuildJob
		err := rows.Scan(
			&job.ID, &job.Status, &job.InputPath, &job.OutputPath, &job.PreviewPath,
			&job.ErrorMessage, &job.CreatedAt, &job.StartedAt, &job.CompletedAt,
		)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, &job)
	}

	return jobs, rows.Err()
}
