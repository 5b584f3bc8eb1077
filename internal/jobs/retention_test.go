package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mubashirhassanpk/react-static-magic/internal/config"
)

type fakeExpiredStore struct {
	jobs      []*BuildJob
	err       error
	gotCutoff time.Time
}

func (s *fakeExpiredStore) DeleteExpired(ctx context.Context, cutoff time.Time) ([]*BuildJob, error) {
	s.gotCutoff = cutoff
	if s.err != nil {
		return nil, s.err
	}
	return s.jobs, nil
}

type fakeArtifactStore struct {
	deleted         []string
	deletedPrefixes []string
}

func (s *fakeArtifactStore) Delete(ctx context.Context, bucket, key string) error {
	s.deleted = append(s.deleted, bucket+"/"+key)
	return nil
}

func (s *fakeArtifactStore) DeletePrefix(ctx context.Context, bucket, prefix string) error {
	s.deletedPrefixes = append(s.deletedPrefixes, bucket+"/"+prefix)
	return nil
}

func retentionConfig() *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{
			UploadBucket: "project-uploads",
			OutputBucket: "build-outputs",
		},
		Retention: config.RetentionConfig{
			Enabled:  true,
			MaxAge:   24 * time.Hour,
			Schedule: "0 * * * *",
		},
	}
}

func TestRetention_Sweep(t *testing.T) {
	id1 := uuid.New()
	id2 := uuid.New()
	store := &fakeExpiredStore{jobs: []*BuildJob{
		{ID: id1, Status: StatusCompleted, InputPath: id1.String() + "/project.zip"},
		{ID: id2, Status: StatusFailed, InputPath: id2.String() + "/project.zip"},
	}}
	blobs := &fakeArtifactStore{}

	r := NewRetention(store, blobs, retentionConfig())
	r.Sweep()

	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), store.gotCutoff, 5*time.Second)

	assert.Contains(t, blobs.deleted, "project-uploads/"+id1.String()+"/project.zip")
	assert.Contains(t, blobs.deleted, "project-uploads/"+id2.String()+"/project.zip")
	assert.Contains(t, blobs.deletedPrefixes, "build-outputs/"+id1.String()+"/")
	assert.Contains(t, blobs.deletedPrefixes, "build-outputs/"+id2.String()+"/")
}

func TestRetention_SweepNothingExpired(t *testing.T) {
	store := &fakeExpiredStore{}
	blobs := &fakeArtifactStore{}

	r := NewRetention(store, blobs, retentionConfig())
	r.Sweep()

	assert.Empty(t, blobs.deleted)
	assert.Empty(t, blobs.deletedPrefixes)
}

func TestRetention_SweepStoreError(t *testing.T) {
	store := &fakeExpiredStore{err: errors.New("connection refused")}
	blobs := &fakeArtifactStore{}

	r := NewRetention(store, blobs, retentionConfig())
	r.Sweep()

	assert.Empty(t, blobs.deleted, "blob cleanup should not run when the delete query fails")
	assert.Empty(t, blobs.deletedPrefixes)
}

func TestRetention_StartInvalidSchedule(t *testing.T) {
	cfg := retentionConfig()
	cfg.Retention.Schedule = "every full moon"

	r := NewRetention(&fakeExpiredStore{}, &fakeArtifactStore{}, cfg)
	err := r.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid retention schedule")
}

func TestRetention_StartAndStop(t *testing.T) {
	r := NewRetention(&fakeExpiredStore{}, &fakeArtifactStore{}, retentionConfig())
	require.NoError(t, r.Start())
	r.Stop()
}
