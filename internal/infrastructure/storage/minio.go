// Package storage keeps uploaded consultation audio in a MinIO bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/johnquangdev/medical-scribe/pkg/config"
)

// ErrObjectNotFound means the requested object key does not exist
var ErrObjectNotFound = errors.New("object not found")

// MinIOClient wraps MinIO operations on the audio bucket
type MinIOClient struct {
	client *minio.Client
	bucket string
	tmpDir string
	logger *zap.Logger
}

// NewMinIOClient creates a new MinIO client and makes sure the bucket exists.
// The bucket stays private: audio is only read back by the pipeline.
func NewMinIOClient(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (*MinIOClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	client := &MinIOClient{
		client: minioClient,
		bucket: cfg.BucketName,
		tmpDir: os.TempDir(),
		logger: logger,
	}

	if err := client.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return client, nil
}

func (m *MinIOClient) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	m.logger.Info("storage bucket created", zap.String("bucket", m.bucket))
	return nil
}

// PutAudio uploads an audio object
func (m *MinIOClient) PutAudio(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	return nil
}

// Exists reports whether objectName is present in the bucket
func (m *MinIOClient) Exists(ctx context.Context, objectName string) (bool, error) {
	_, err := m.client.StatObject(ctx, m.bucket, objectName, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat object: %w", err)
}

// Download copies objectName to a local temporary file for the engines.
// The returned cleanup removes the file.
func (m *MinIOClient) Download(ctx context.Context, objectName string) (string, func(), error) {
	f, err := os.CreateTemp(m.tmpDir, "audio-*"+filepath.Ext(objectName))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()
	f.Close()
	cleanup := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			m.logger.Warn("failed to remove temp audio", zap.String("path", path), zap.Error(err))
		}
	}

	if err := m.client.FGetObject(ctx, m.bucket, objectName, path, minio.GetObjectOptions{}); err != nil {
		cleanup()
		if isNotFound(err) {
			return "", nil, fmt.Errorf("%s: %w", objectName, ErrObjectNotFound)
		}
		return "", nil, fmt.Errorf("failed to download object: %w", err)
	}
	return path, cleanup, nil
}

// Remove deletes objectName; a missing object is not an error
func (m *MinIOClient) Remove(ctx context.Context, objectName string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to remove object: %w", err)
	}
	return nil
}

// Ping checks that the bucket is reachable
func (m *MinIOClient) Ping(ctx context.Context) error {
	if _, err := m.client.BucketExists(ctx, m.bucket); err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
