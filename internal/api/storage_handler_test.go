package api

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStorageTestApp(h *StorageHandler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: customErrorHandler})
	app.Get("/storage/:bucket/*", h.DownloadObject)
	return app
}

// =============================================================================
// DownloadObject Tests
// =============================================================================

func TestStorageHandler_DownloadObject_Preview(t *testing.T) {
	blobs := newFakeObjectStore()
	jobID := uuid.NewString()
	html := []byte("<!DOCTYPE html><html><body>preview</body></html>")
	blobs.put("build-outputs", jobID+"/preview.html", html, "text/html; charset=utf-8")

	handler := NewStorageHandler(blobs, []string{"project-uploads", "build-outputs"})
	app := newStorageTestApp(handler)

	req := httptest.NewRequest("GET", "/storage/build-outputs/"+jobID+"/preview.html", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, html, body)

	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "48", resp.Header.Get("Content-Length"))
	assert.Equal(t, "test-etag", resp.Header.Get("ETag"))
	assert.NotEmpty(t, resp.Header.Get("Last-Modified"))

	// HTML renders in the browser rather than downloading
	assert.Equal(t, `inline; filename="preview.html"`, resp.Header.Get("Content-Disposition"))
}

func TestStorageHandler_DownloadObject_Archive(t *testing.T) {
	blobs := newFakeObjectStore()
	jobID := uuid.NewString()
	zipData := projectArchive()
	blobs.put("build-outputs", jobID+"/site.zip", zipData, "application/zip")

	handler := NewStorageHandler(blobs, []string{"project-uploads", "build-outputs"})
	app := newStorageTestApp(handler)

	req := httptest.NewRequest("GET", "/storage/build-outputs/"+jobID+"/site.zip", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, zipData, body)

	assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="site.zip"`, resp.Header.Get("Content-Disposition"))
}

func TestStorageHandler_DownloadObject_DefaultContentType(t *testing.T) {
	blobs := newFakeObjectStore()
	blobs.put("build-outputs", "raw.bin", []byte{0x01, 0x02, 0x03}, "")

	handler := NewStorageHandler(blobs, []string{"build-outputs"})
	app := newStorageTestApp(handler)

	req := httptest.NewRequest("GET", "/storage/build-outputs/raw.bin", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="raw.bin"`, resp.Header.Get("Content-Disposition"))
}

func TestStorageHandler_DownloadObject_NotFound(t *testing.T) {
	handler := NewStorageHandler(newFakeObjectStore(), []string{"project-uploads", "build-outputs"})
	app := newStorageTestApp(handler)

	req := httptest.NewRequest("GET", "/storage/build-outputs/"+uuid.NewString()+"/site.zip", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Object not found")
}

func TestStorageHandler_DownloadObject_UnknownBucket(t *testing.T) {
	blobs := newFakeObjectStore()
	blobs.put("secrets", "credentials.txt", []byte("nope"), "text/plain")

	handler := NewStorageHandler(blobs, []string{"project-uploads", "build-outputs"})
	app := newStorageTestApp(handler)

	// Buckets outside the allowlist stay invisible even when they exist
	req := httptest.NewRequest("GET", "/storage/secrets/credentials.txt", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Bucket not found")
}

func TestStorageHandler_DownloadObject_MissingKey(t *testing.T) {
	handler := NewStorageHandler(newFakeObjectStore(), []string{"build-outputs"})
	app := newStorageTestApp(handler)

	req := httptest.NewRequest("GET", "/storage/build-outputs/", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "object key is required")
}
