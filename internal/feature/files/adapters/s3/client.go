// Package s3 はAWS S3互換ストレージへのアップロードクライアントを提供します。
package s3

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"housing_backend/internal/feature/files/usecase"
	apphttp "housing_backend/internal/platform/http"
)

// Config はS3クライアントの接続設定です。
//   - BaseEndpoint: MinIOなどS3互換ストレージのURL。設定時はパススタイルでアクセス
//   - AccessKey/SecretKey: 空の場合はAWSのデフォルト認証チェーンを使用
type Config struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
	Timeout      time.Duration
}

// Storage はPutObjectでオブジェクトを保存します。
type Storage struct {
	client       *awss3.Client
	bucket       string
	region       string
	baseEndpoint string
}

// StorageがObjectStorageを実装していることをコンパイル時に検証します。
var _ usecase.ObjectStorage = (*Storage)(nil)

// NewStorage はConfigからS3クライアントを生成します。
func NewStorage(ctx context.Context, cfg Config) (*Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithHTTPClient(apphttp.NewObjectStorageClient(timeout)),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	endpoint := strings.TrimRight(cfg.BaseEndpoint, "/")
	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	return &Storage{
		client:       client,
		bucket:       cfg.Bucket,
		region:       cfg.Region,
		baseEndpoint: endpoint,
	}, nil
}

// Upload はkeyにbodyを書き込み、オブジェクトのURLを返します。
func (s *Storage) Upload(ctx context.Context, key string, body io.ReadSeeker, size int64, contentType string) (string, error) {
	in := &awss3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("s3 put object failed: %w", err)
	}
	return s.ObjectURL(key), nil
}

// ObjectURL はkeyに対応するオブジェクトのURLを組み立てます。
func (s *Storage) ObjectURL(key string) string {
	escaped := escapeKey(key)
	if s.baseEndpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.baseEndpoint, s.bucket, escaped)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, escaped)
}

// escapeKey はスラッシュを残したままキーの各セグメントをURLエスケープします。
func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
