package jobs

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a build job
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ParseStatus validates a status string from an API query parameter
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return Status(s), nil
	}
	return "", fmt.Errorf("invalid status: %s", s)
}

// BuildJob represents one uploaded project archive and its build outcome
type BuildJob struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Status       Status     `db:"status" json:"status"`
	InputPath    string     `db:"input_path" json:"input_path"`
	OutputPath   *string    `db:"output_path" json:"output_path,omitempty"`
	PreviewPath  *string    `db:"preview_path" json:"preview_path,omitempty"`
	ErrorMessage *string    `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	StartedAt    *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt  *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// IsTerminal reports whether the job has reached a final state
func (j *BuildJob) IsTerminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// Duration returns the wall-clock build time for jobs that have both
// started and finished
func (j *BuildJob) Duration() (time.Duration, bool) {
	if j.StartedAt == nil || j.CompletedAt == nil {
		return 0, false
	}
	return j.CompletedAt.Sub(*j.StartedAt), true
}

// Filters narrows a job listing
type Filters struct {
	Status *Status
	Limit  *int
	Offset *int
}

// Stats represents aggregate statistics about build jobs
type Stats struct {
	TotalJobs          int        `json:"total_jobs"`
	PendingJobs        int        `json:"pending_jobs"`
	ProcessingJobs     int        `json:"processing_jobs"`
	CompletedJobs      int        `json:"completed_jobs"`
	FailedJobs         int        `json:"failed_jobs"`
	AvgDurationSeconds float64    `json:"avg_duration_seconds"`
	JobsByDay          []DayCount `json:"jobs_by_day"`
}

// DayCount represents job count by day
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
