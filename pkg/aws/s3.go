package aws

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/storage/s3/v2"
)

type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// S3 stores place images in an S3 compatible bucket.
type S3 struct {
	bucket *s3.Storage
	cfg    S3Config
}

func NewS3Bucket(cfg S3Config) *S3 {
	storage := s3.New(s3.Config{
		Endpoint: cfg.Endpoint,
		Bucket:   cfg.Bucket,
		Region:   cfg.Region,
		Credentials: s3.Credentials{
			AccessKey:       cfg.AccessKey,
			SecretAccessKey: cfg.SecretKey,
		},
		MaxAttempts:    3,
		RequestTimeout: time.Second * 10,
		Reset:          false,
	})

	return &S3{
		bucket: storage,
		cfg:    cfg,
	}
}

func (s *S3) Upload(key string, data []byte) error {
	return s.bucket.Set(key, data, 0)
}

func (s *S3) Delete(key string) error {
	return s.bucket.Delete(key)
}

// URL returns the public address of key.
func (s *S3) URL(key string) string {
	return ObjectURL(s.cfg, key)
}

func (s *S3) Close() error {
	return s.bucket.Close()
}

func ObjectURL(cfg S3Config, key string) string {
	// MinIO and other custom endpoints: endpoint/bucket/key
	if cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(cfg.Endpoint, "/"), cfg.Bucket, key)
	}

	if cfg.Region != "" {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", cfg.Bucket, cfg.Region, key)
	}

	return key
}
