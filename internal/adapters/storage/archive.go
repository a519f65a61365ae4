// Package storage provides the S3-compatible archive for raw CSV uploads.
// Every imported file is kept verbatim so an import can be audited or replayed.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config defines the configuration interface for the archive.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketCSVArchive() string
	IsMinIOEnabled() bool
}

// CSVArchive stores raw CSV uploads in a MinIO bucket.
type CSVArchive struct {
	client      *minio.Client
	bucket      string
	maxFileSize int64
}

// NewCSVArchive creates the archive and ensures its bucket exists.
func NewCSVArchive(ctx context.Context, cfg Config) (*CSVArchive, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	a := &CSVArchive{
		client:      client,
		bucket:      cfg.GetMinioBucketCSVArchive(),
		maxFileSize: cfg.GetMinIOMaxFileSize(),
	}

	if err := a.ensureBucketExists(ctx); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *CSVArchive) ensureBucketExists(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
		}
	}

	return nil
}

// Archive stores one upload under a date-prefixed, collision-free key.
func (a *CSVArchive) Archive(ctx context.Context, filename string, contents []byte) error {
	if int64(len(contents)) > a.maxFileSize {
		return fmt.Errorf("file exceeds maximum archive size")
	}

	ext := path.Ext(filename)
	baseName := strings.TrimSuffix(path.Base(filename), ext)
	key := fmt.Sprintf("%s/%s_%s%s",
		time.Now().UTC().Format("2006/01/02"),
		baseName,
		uuid.New().String()[:8],
		ext,
	)

	_, err := a.client.PutObject(ctx, a.bucket, key,
		bytes.NewReader(contents), int64(len(contents)),
		minio.PutObjectOptions{ContentType: "text/csv"},
	)
	if err != nil {
		return fmt.Errorf("failed to archive %s: %w", filename, err)
	}

	return nil
}
