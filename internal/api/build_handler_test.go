package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mubashirhassanpk/react-static-magic/internal/builder"
	"github.com/mubashirhassanpk/react-static-magic/internal/jobs"
	"github.com/mubashirhassanpk/react-static-magic/internal/storage"
)

// =============================================================================
// Fakes
// =============================================================================

// fakeBuildStore is an in-memory BuildStore
type fakeBuildStore struct {
	jobs      []*jobs.BuildJob
	createErr error
	listErr   error
	statsErr  error
	stats     *jobs.Stats
}

func (s *fakeBuildStore) Create(ctx context.Context, job *jobs.BuildJob) error {
	if s.createErr != nil {
		return s.createErr
	}
	if job.Status == "" {
		job.Status = jobs.StatusPending
	}
	job.CreatedAt = time.Now()
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *fakeBuildStore) Get(ctx context.Context, id uuid.UUID) (*jobs.BuildJob, error) {
	for _, j := range s.jobs {
		if j.ID == id {
			copied := *j
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("job not found: %s", id)
}

func (s *fakeBuildStore) List(ctx context.Context, filters *jobs.Filters) ([]*jobs.BuildJob, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}

	var matched []*jobs.BuildJob
	for _, j := range s.jobs {
		if filters.Status != nil && j.Status != *filters.Status {
			continue
		}
		matched = append(matched, j)
	}

	if filters.Offset != nil && *filters.Offset < len(matched) {
		matched = matched[*filters.Offset:]
	} else if filters.Offset != nil {
		matched = nil
	}
	if filters.Limit != nil && *filters.Limit < len(matched) {
		matched = matched[:*filters.Limit]
	}

	return matched, nil
}

func (s *fakeBuildStore) GetStats(ctx context.Context) (*jobs.Stats, error) {
	if s.statsErr != nil {
		return nil, s.statsErr
	}
	return s.stats, nil
}

// fakeBuildProcessor returns a canned response and records the job ID
type fakeBuildProcessor struct {
	resp  *jobs.ProcessResponse
	err   error
	gotID uuid.UUID
}

func (p *fakeBuildProcessor) Process(ctx context.Context, jobID uuid.UUID) (*jobs.ProcessResponse, error) {
	p.gotID = jobID
	return p.resp, p.err
}

// fakeObjectStore is an in-memory storage.Storage
type fakeObjectStore struct {
	objects   map[string][]byte
	types     map[string]string
	uploadErr error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (s *fakeObjectStore) objectKey(bucket, key string) string {
	return bucket + "/" + key
}

func (s *fakeObjectStore) put(bucket, key string, data []byte, contentType string) {
	s.objects[s.objectKey(bucket, key)] = data
	s.types[s.objectKey(bucket, key)] = contentType
}

func (s *fakeObjectStore) Upload(ctx context.Context, bucket, key string, data io.Reader, size int64, opts *storage.UploadOptions) (*storage.Object, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}
	contentType := ""
	if opts != nil {
		contentType = opts.ContentType
	}
	s.put(bucket, key, buf, contentType)
	return &storage.Object{
		Key:          key,
		Bucket:       bucket,
		Size:         int64(len(buf)),
		ContentType:  contentType,
		LastModified: time.Now(),
	}, nil
}

func (s *fakeObjectStore) Download(ctx context.Context, bucket, key string) (io.ReadCloser, *storage.Object, error) {
	data, ok := s.objects[s.objectKey(bucket, key)]
	if !ok {
		return nil, nil, storage.ErrObjectNotFound
	}
	obj := &storage.Object{
		Key:          key,
		Bucket:       bucket,
		Size:         int64(len(data)),
		ContentType:  s.types[s.objectKey(bucket, key)],
		LastModified: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		ETag:         "test-etag",
	}
	return io.NopCloser(bytes.NewReader(data)), obj, nil
}

func (s *fakeObjectStore) Delete(ctx context.Context, bucket, key string) error {
	if _, ok := s.objects[s.objectKey(bucket, key)]; !ok {
		return storage.ErrObjectNotFound
	}
	delete(s.objects, s.objectKey(bucket, key))
	delete(s.types, s.objectKey(bucket, key))
	return nil
}

func (s *fakeObjectStore) DeletePrefix(ctx context.Context, bucket, prefix string) error {
	for k := range s.objects {
		if strings.HasPrefix(k, s.objectKey(bucket, prefix)) {
			delete(s.objects, k)
			delete(s.types, k)
		}
	}
	return nil
}

func (s *fakeObjectStore) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, ok := s.objects[s.objectKey(bucket, key)]
	return ok, nil
}

func (s *fakeObjectStore) GetObject(ctx context.Context, bucket, key string) (*storage.Object, error) {
	data, ok := s.objects[s.objectKey(bucket, key)]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &storage.Object{Key: key, Bucket: bucket, Size: int64(len(data))}, nil
}

func (s *fakeObjectStore) List(ctx context.Context, bucket string, opts *storage.ListOptions) (*storage.ListResult, error) {
	result := &storage.ListResult{}
	for k, data := range s.objects {
		if strings.HasPrefix(k, bucket+"/") {
			result.Objects = append(result.Objects, storage.Object{
				Key:    strings.TrimPrefix(k, bucket+"/"),
				Bucket: bucket,
				Size:   int64(len(data)),
			})
		}
	}
	return result, nil
}

func (s *fakeObjectStore) EnsureBucket(ctx context.Context, bucket string) error {
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

func newBuildTestApp(h *BuildHandler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: customErrorHandler})
	builds := app.Group("/api/v1/builds")
	builds.Post("/", h.UploadProject)
	builds.Post("/process", h.ProcessBuild)
	builds.Get("/stats", h.GetBuildStats)
	builds.Get("/:id", h.GetBuild)
	builds.Get("/", h.ListBuilds)
	return app
}

func multipartProject(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func projectArchive() []byte {
	return builder.WriteArchive(builder.FileSet{
		"demo/package.json": []byte(`{"dependencies": {"react": "^18.2.0"}}`),
		"demo/src/main.tsx": []byte(`console.log("hello")`),
	})
}

// =============================================================================
// UploadProject Tests
// =============================================================================

func TestBuildHandler_UploadProject(t *testing.T) {
	store := &fakeBuildStore{}
	blobs := newFakeObjectStore()
	handler := NewBuildHandler(store, &fakeBuildProcessor{}, blobs, "project-uploads", 10*1024*1024)
	app := newBuildTestApp(handler)

	zipData := projectArchive()
	body, contentType := multipartProject(t, "demo.zip", zipData)

	req := httptest.NewRequest("POST", "/api/v1/builds", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var job jobs.BuildJob
	respBody, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(respBody, &job))

	assert.NotEqual(t, uuid.Nil, job.ID)
	assert.Equal(t, jobs.StatusPending, job.Status)
	assert.Equal(t, job.ID.String()+"/project.zip", job.InputPath)

	// Archive landed in the upload bucket, byte for byte
	stored, ok := blobs.objects["project-uploads/"+job.InputPath]
	require.True(t, ok)
	assert.Equal(t, zipData, stored)
	assert.Equal(t, "application/zip", blobs.types["project-uploads/"+job.InputPath])

	// Job record created as pending
	require.Len(t, store.jobs, 1)
	assert.Equal(t, job.ID, store.jobs[0].ID)
}

func TestBuildHandler_UploadProject_MissingFile(t *testing.T) {
	handler := NewBuildHandler(&fakeBuildStore{}, &fakeBuildProcessor{}, newFakeObjectStore(), "project-uploads", 0)
	app := newBuildTestApp(handler)

	req := httptest.NewRequest("POST", "/api/v1/builds", strings.NewReader("not a form"))
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	respBody, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(respBody), "file is required")
}

func TestBuildHandler_UploadProject_TooLarge(t *testing.T) {
	handler := NewBuildHandler(&fakeBuildStore{}, &fakeBuildProcessor{}, newFakeObjectStore(), "project-uploads", 16)
	app := newBuildTestApp(handler)

	body, contentType := multipartProject(t, "demo.zip", projectArchive())

	req := httptest.NewRequest("POST", "/api/v1/builds", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusRequestEntityTooLarge, resp.StatusCode)

	respBody, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(respBody), "exceeds maximum allowed size")
}

func TestBuildHandler_UploadProject_NotZip(t *testing.T) {
	store := &fakeBuildStore{}
	blobs := newFakeObjectStore()
	handler := NewBuildHandler(store, &fakeBuildProcessor{}, blobs, "project-uploads", 0)
	app := newBuildTestApp(handler)

	body, contentType := multipartProject(t, "notes.txt", []byte("plain text, not an archive"))

	req := httptest.NewRequest("POST", "/api/v1/builds", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)

	respBody, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(respBody), "must be a ZIP file")

	// Nothing stored, no job created
	assert.Empty(t, blobs.objects)
	assert.Empty(t, store.jobs)
}

func TestBuildHandler_UploadProject_EmptyFile(t *testing.T) {
	handler := NewBuildHandler(&fakeBuildStore{}, &fakeBuildProcessor{}, newFakeObjectStore(), "project-uploads", 0)
	app := newBuildTestApp(handler)

	body, contentType := multipartProject(t, "empty.zip", nil)

	req := httptest.NewRequest("POST", "/api/v1/builds", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	respBody, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(respBody), "empty or truncated")
}

func TestBuildHandler_UploadProject_StoreError(t *testing.T) {
	store := &fakeBuildStore{createErr: errors.New("insert failed")}
	blobs := newFakeObjectStore()
	handler := NewBuildHandler(store, &fakeBuildProcessor{}, blobs, "project-uploads", 0)
	app := newBuildTestApp(handler)

	body, contentType := multipartProject(t, "demo.zip", projectArchive())

	req := httptest.NewRequest("POST", "/api/v1/builds", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	respBody, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(respBody), "Failed to create build job")

	// The stored archive was cleaned up again
	assert.Empty(t, blobs.objects)
}

// =============================================================================
// ProcessBuild Tests
// =============================================================================

func TestBuildHandler_ProcessBuild_Success(t *testing.T) {
	jobID := uuid.New()
	processor := &fakeBuildProcessor{
		resp: &jobs.ProcessResponse{
			Success:     true,
			Logs:        []string{"Reading project archive", "Build finished"},
			DownloadURL: "http://localhost:8080/storage/build-outputs/" + jobID.String() + "/site.zip",
			PreviewURL:  "http://localhost:8080/storage/build-outputs/" + jobID.String() + "/preview.html",
		},
	}
	handler := NewBuildHandler(&fakeBuildStore{}, processor, newFakeObjectStore(), "project-uploads", 0)
	app := newBuildTestApp(handler)

	payload := fmt.Sprintf(`{"job_id": %q}`, jobID)
	req := httptest.NewRequest("POST", "/api/v1/builds/process", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, jobID, processor.gotID)

	var result jobs.ProcessResponse
	respBody, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(respBody, &result))

	assert.True(t, result.Success)
	assert.Empty(t, result.Error)
	assert.Len(t, result.Logs, 2)
	assert.Contains(t, result.DownloadURL, "site.zip")
	assert.Contains(t, result.PreviewURL, "preview.html")
}

func TestBuildHandler_ProcessBuild_InvalidBody(t *testing.T) {
	handler := NewBuildHandler(&fakeBuildStore{}, &fakeBuildProcessor{}, newFakeObjectStore(), "project-uploads", 0)
	app := newBuildTestApp(handler)

	req := httptest.NewRequest("POST", "/api/v1/builds/process", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	respBody, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(respBody), "Invalid request body")
}

func TestBuildHandler_ProcessBuild_MissingJobID(t *testing.T) {
	handler := NewBuildHandler(&fakeBuildStore{}, &fakeBuildProcessor{}, newFakeObjectStore(), "project-uploads", 0)
	app := newBuildTestApp(handler)

	req := httptest.NewRequest("POST", "/api/v1/builds/process", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	respBody, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(respBody), "job_id is required")
}

func TestBuildHandler_ProcessBuild_InvalidJobID(t *testing.T) {
	handler := NewBuildHandler(&fakeBuildStore{}, &fakeBuildProcessor{}, newFakeObjectStore(), "project-uploads", 0)
	app := newBuildTestApp(handler)

	req := httptest.NewRequest("POST", "/api/v1/builds/process", strings.NewReader(`{"job_id": "not-a-uuid"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	respBody, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(respBody), "Invalid job ID")
}

func TestBuildHandler_ProcessBuild_JobNotFound(t *testing.T) {
	processor := &fakeBuildProcessor{err: errors.New("job not found: " + uuid.NewString())}
	handler := NewBuildHandler(&fakeBuildStore{}, processor, newFakeObjectStore(), "project-uploads", 0)
	app := newBuildTestApp(handler)

	payload := fmt.Sprintf(`{"job_id": %q}`, uuid.New())
	req := httptest.NewRequest("POST", "/api/v1/builds/process", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	respBody, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(respBody), "Job not found")
}

func TestBuildHandler_ProcessBuild_BuildFailure(t *testing.T) {
	processor := &fakeBuildProcessor{
		resp: &jobs.ProcessResponse{
			Success: false,
			Error:   "Build failed: entry point not found (expected src/main.tsx or equivalent)",
			Logs:    []string{"Reading project archive", "Entry point lookup failed"},
		},
	}
	handler := NewBuildHandler(&fakeBuildStore{}, processor, newFakeObjectStore(), "project-uploads", 0)
	app := newBuildTestApp(handler)

	payload := fmt.Sprintf(`{"job_id": %q}`, uuid.New())
	req := httptest.NewRequest("POST", "/api/v1/builds/process", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	// The full response contract survives the error status
	var result jobs.ProcessResponse
	respBody, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(respBody, &result))

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "Build failed")
	assert.Len(t, result.Logs, 2)
	assert.Empty(t, result.DownloadURL)
}

// =============================================================================
// GetBuild Tests
// =============================================================================

func TestBuildHandler_GetBuild(t *testing.T) {
	jobID := uuid.New()
	store := &fakeBuildStore{jobs: []*jobs.BuildJob{
		{ID: jobID, Status: jobs.StatusCompleted, InputPath: jobID.String() + "/project.zip"},
	}}
	handler := NewBuildHandler(store, &fakeBuildProcessor{}, newFakeObjectStore(), "project-uploads", 0)
	app := newBuildTestApp(handler)

	req := httptest.NewRequest("GET", "/api/v1/builds/"+jobID.String(), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var job jobs.BuildJob
	respBody, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(respBody, &job))

	assert.Equal(t, jobID, job.ID)
	assert.Equal(t, jobs.StatusCompleted, job.Status)
}

func TestBuildHandler_GetBuild_InvalidID(t *testing.T) {
	handler := NewBuildHandler(&fakeBuildStore{}, &fakeBuildProcessor{}, newFakeObjectStore(), "project-uploads", 0)
	app := newBuildTestApp(handler)

	req := httptest.NewRequest("GET", "/api/v1/builds/not-a-uuid", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	respBody, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(respBody), "Invalid job ID")
}

func TestBuildHandler_GetBuild_NotFound(t *testing.T) {
	handler := NewBuildHandler(&fakeBuildStore{}, &fakeBuildProcessor{}, newFakeObjectStore(), "project-uploads", 0)
	app := newBuildTestApp(handler)

	req := httptest.NewRequest("GET", "/api/v1/builds/"+uuid.NewString(), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	respBody, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(respBody), "Job not found")
}

// =============================================================================
// ListBuilds Tests
// =============================================================================

func seededBuildStore() *fakeBuildStore {
	return &fakeBuildStore{jobs: []*jobs.BuildJob{
		{ID: uuid.New(), Status: jobs.StatusCompleted},
		{ID: uuid.New(), Status: jobs.StatusCompleted},
		{ID: uuid.New(), Status: jobs.StatusFailed},
	}}
}

func TestBuildHandler_ListBuilds(t *testing.T) {
	handler := NewBuildHandler(seededBuildStore(), &fakeBuildProcessor{}, newFakeObjectStore(), "project-uploads", 0)
	app := newBuildTestApp(handler)

	req := httptest.NewRequest("GET", "/api/v1/builds", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result struct {
		Jobs   []jobs.BuildJob `json:"jobs"`
		Limit  int             `json:"limit"`
		Offset int             `json:"offset"`
	}
	respBody, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(respBody, &result))

	assert.Len(t, result.Jobs, 3)
	assert.Equal(t, 50, result.Limit)
	assert.Equal(t, 0, result.Offset)
}

func TestBuildHandler_ListBuilds_StatusFilter(t *testing.T) {
	handler := NewBuildHandler(seededBuildStore(), &fakeBuildProcessor{}, newFakeObjectStore(), "project-uploads", 0)
	app := newBuildTestApp(handler)

	req := httptest.NewRequest("GET", "/api/v1/builds?status=completed", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result struct {
		Jobs []jobs.BuildJob `json:"jobs"`
	}
	respBody, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(respBody, &result))

	assert.Len(t, result.Jobs, 2)
	for _, j := range result.Jobs {
		assert.Equal(t, jobs.StatusCompleted, j.Status)
	}
}

func TestBuildHandler_ListBuilds_InvalidStatus(t *testing.T) {
	handler := NewBuildHandler(seededBuildStore(), &fakeBuildProcessor{}, newFakeObjectStore(), "project-uploads", 0)
	app := newBuildTestApp(handler)

	req := httptest.NewRequest("GET", "/api/v1/builds?status=bogus", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	respBody, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(respBody), "Invalid status: bogus")
}

func TestBuildHandler_ListBuilds_Pagination(t *testing.T) {
	handler := NewBuildHandler(seededBuildStore(), &fakeBuildProcessor{}, newFakeObjectStore(), "project-uploads", 0)
	app := newBuildTestApp(handler)

	req := httptest.NewRequest("GET", "/api/v1/builds?limit=1&offset=1", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result struct {
		Jobs   []jobs.BuildJob `json:"jobs"`
		Limit  int             `json:"limit"`
		Offset int             `json:"offset"`
	}
	respBody, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(respBody, &result))

	assert.Len(t, result.Jobs, 1)
	assert.Equal(t, 1, result.Limit)
	assert.Equal(t, 1, result.Offset)
}

func TestBuildHandler_ListBuilds_StoreError(t *testing.T) {
	store := &fakeBuildStore{listErr: errors.New("connection refused")}
	handler := NewBuildHandler(store, &fakeBuildProcessor{}, newFakeObjectStore(), "project-uploads", 0)
	app := newBuildTestApp(handler)

	req := httptest.NewRequest("GET", "/api/v1/builds", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	respBody, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(respBody), "Failed to list build jobs")
}

// =============================================================================
// GetBuildStats Tests
// =============================================================================

func TestBuildHandler_GetBuildStats(t *testing.T) {
	store := &fakeBuildStore{stats: &jobs.Stats{
		TotalJobs:          10,
		CompletedJobs:      7,
		FailedJobs:         2,
		PendingJobs:        1,
		AvgDurationSeconds: 4.5,
	}}
	handler := NewBuildHandler(store, &fakeBuildProcessor{}, newFakeObjectStore(), "project-uploads", 0)
	app := newBuildTestApp(handler)

	req := httptest.NewRequest("GET", "/api/v1/builds/stats", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var stats jobs.Stats
	respBody, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(respBody, &stats))

	assert.Equal(t, 10, stats.TotalJobs)
	assert.Equal(t, 7, stats.CompletedJobs)
	assert.Equal(t, 2, stats.FailedJobs)
	assert.InDelta(t, 4.5, stats.AvgDurationSeconds, 0.001)
}

func TestBuildHandler_GetBuildStats_StoreError(t *testing.T) {
	store := &fakeBuildStore{statsErr: errors.New("connection refused")}
	handler := NewBuildHandler(store, &fakeBuildProcessor{}, newFakeObjectStore(), "project-uploads", 0)
	app := newBuildTestApp(handler)

	req := httptest.NewRequest("GET", "/api/v1/builds/stats", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	respBody, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(respBody), "Failed to get build stats")
}
