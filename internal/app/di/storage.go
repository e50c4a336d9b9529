package di

import (
	"context"

	s3adapter "housing_backend/internal/feature/files/adapters/s3"
	"housing_backend/internal/platform/config"
)

// NewObjectStorage creates an S3-backed ObjectStorage from the S3 settings.
func NewObjectStorage(ctx context.Context, cfg config.S3Config) (*s3adapter.Storage, error) {
	return s3adapter.NewStorage(ctx, s3adapter.Config{
		Bucket:       cfg.Bucket,
		Region:       cfg.Region,
		BaseEndpoint: cfg.BaseEndpoint,
		AccessKey:    cfg.AccessKey,
		SecretKey:    cfg.SecretKey,
		Timeout:      cfg.Timeout,
	})
}
