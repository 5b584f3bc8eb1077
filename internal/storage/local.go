package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// LocalStorage implements the Storage interface using local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local filesystem storage provider
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	// Create base directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// Name returns the provider name
func (ls *LocalStorage) Name() string {
	return "local"
}

// Health checks if the storage is healthy
func (ls *LocalStorage) Health(ctx context.Context) error {
	// Check if base path is accessible
	if _, err := os.Stat(ls.basePath); err != nil {
		return fmt.Errorf("storage directory not accessible: %w", err)
	}

	// Try to create a test file
	testFile := filepath.Join(ls.basePath, ".health_check")
	if err := os.WriteFile(testFile, []byte("ok"), 0644); err != nil {
		return fmt.Errorf("storage directory not writable: %w", err)
	}

	// Clean up test file
	os.Remove(testFile)

	return nil
}

// getPath returns the full filesystem path for a bucket/key
func (ls *LocalStorage) getPath(bucket, key string) string {
	return filepath.Join(ls.basePath, bucket, key)
}

// Upload uploads a file to local storage
func (ls *LocalStorage) Upload(ctx context.Context, bucket, key string, data io.Reader, size int64, opts *UploadOptions) (*Object, error) {
	if opts == nil {
		opts = &UploadOptions{}
	}

	filePath := ls.getPath(bucket, key)

	// Create parent directories for the key
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	// Calculate MD5 hash while writing
	hash := md5.New()
	writer := io.MultiWriter(file, hash)

	written, err := io.Copy(writer, data)
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	etag := hex.EncodeToString(hash.Sum(nil))

	// Content type and metadata live in a sidecar file
	if len(opts.Metadata) > 0 || opts.ContentType != "" {
		metaData := ""
		for k, v := range opts.Metadata {
			metaData += fmt.Sprintf("%s=%s\n", k, v)
		}
		if opts.ContentType != "" {
			metaData += fmt.Sprintf("content-type=%s\n", opts.ContentType)
		}
		_ = os.WriteFile(filePath+".meta", []byte(metaData), 0644)
	}

	log.Debug().
		Str("bucket", bucket).
		Str("key", key).
		Int64("size", written).
		Msg("File uploaded to local storage")

	return &Object{
		Key:          key,
		Bucket:       bucket,
		Size:         info.Size(),
		ContentType:  opts.ContentType,
		LastModified: info.ModTime(),
		ETag:         etag,
		Metadata:     opts.Metadata,
	}, nil
}

// readMeta loads the sidecar metadata for a stored file
func readMeta(filePath string) (contentType string, metadata map[string]string) {
	contentType = "application/octet-stream"
	metadata = make(map[string]string)

	metaData, err := os.ReadFile(filePath + ".meta")
	if err != nil {
		return contentType, metadata
	}
	for _, line := range strings.Split(string(metaData), "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		if parts[0] == "content-type" {
			contentType = parts[1]
		} else {
			metadata[parts[0]] = parts[1]
		}
	}
	return contentType, metadata
}

// Download downloads a file from local storage
func (ls *LocalStorage) Download(ctx context.Context, bucket, key string) (io.ReadCloser, *Object, error) {
	filePath := ls.getPath(bucket, key)

	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrObjectNotFound
		}
		return nil, nil, fmt.Errorf("failed to stat file: %w", err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	contentType, metadata := readMeta(filePath)

	object := &Object{
		Key:          key,
		Bucket:       bucket,
		Size:         info.Size(),
		ContentType:  contentType,
		LastModified: info.ModTime(),
		Metadata:     metadata,
	}

	return file, object, nil
}

// Delete deletes a file from local storage
func (ls *LocalStorage) Delete(ctx context.Context, bucket, key string) error {
	filePath := ls.getPath(bucket, key)

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	// Delete metadata file if it exists
	os.Remove(filePath + ".meta")

	log.Debug().
		Str("bucket", bucket).
		Str("key", key).
		Msg("File deleted from local storage")

	return nil
}

// DeletePrefix deletes every object under the given key prefix
func (ls *LocalStorage) DeletePrefix(ctx context.Context, bucket, prefix string) error {
	if prefix == "" {
		return fmt.Errorf("refusing to delete empty prefix")
	}

	prefixPath := filepath.Join(ls.basePath, bucket, prefix)
	if _, err := os.Stat(prefixPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat prefix: %w", err)
	}

	if err := os.RemoveAll(prefixPath); err != nil {
		return fmt.Errorf("failed to delete prefix: %w", err)
	}

	log.Debug().
		Str("bucket", bucket).
		Str("prefix", prefix).
		Msg("Prefix deleted from local storage")

	return nil
}

// Exists checks if a file exists
func (ls *LocalStorage) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := os.Stat(ls.getPath(bucket, key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetObject gets object metadata without downloading the file
func (ls *LocalStorage) GetObject(ctx context.Context, bucket, key string) (*Object, error) {
	filePath := ls.getPath(bucket, key)

	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	contentType, metadata := readMeta(filePath)

	return &Object{
		Key:          key,
		Bucket:       bucket,
		Size:         info.Size(),
		ContentType:  contentType,
		LastModified: info.ModTime(),
		Metadata:     metadata,
	}, nil
}

// List lists objects in a bucket
func (ls *LocalStorage) List(ctx context.Context, bucket string, opts *ListOptions) (*ListResult, error) {
	if opts == nil {
		opts = &ListOptions{MaxKeys: 1000}
	}
	if opts.MaxKeys == 0 {
		opts.MaxKeys = 1000
	}

	bucketPath := filepath.Join(ls.basePath, bucket)
	if _, err := os.Stat(bucketPath); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBucketNotFound
		}
		return nil, err
	}

	var objects []Object
	err := filepath.Walk(bucketPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		// Skip metadata files
		if strings.HasSuffix(path, ".meta") {
			return nil
		}

		relPath, err := filepath.Rel(bucketPath, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(relPath)

		if opts.Prefix != "" && !strings.HasPrefix(key, opts.Prefix) {
			return nil
		}
		if len(objects) >= opts.MaxKeys {
			return filepath.SkipDir
		}

		objects = append(objects, Object{
			Key:          key,
			Bucket:       bucket,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	return &ListResult{
		Objects:     objects,
		IsTruncated: len(objects) == opts.MaxKeys,
	}, nil
}

// EnsureBucket creates the bucket directory if it does not already exist
func (ls *LocalStorage) EnsureBucket(ctx context.Context, bucket string) error {
	bucketPath := filepath.Join(ls.basePath, bucket)
	if err := os.MkdirAll(bucketPath, 0755); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}
