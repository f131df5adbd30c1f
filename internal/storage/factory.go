package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/unalkalkan/la5asni/pkg/types"
)

// DefaultLocalPath is used when the local adapter has no base path.
const DefaultLocalPath = "./data/storage"

// NewAdapter builds the adapter that holds analyses and uploaded documents.
// An empty adapter name selects local storage.
func NewAdapter(cfg types.StorageConfig) (Adapter, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Adapter)) {
	case "", "local":
		basePath := cfg.Local.BasePath
		if basePath == "" {
			basePath = DefaultLocalPath
		}
		return NewLocalAdapter(basePath)
	case "s3":
		if cfg.S3.Bucket == "" {
			return nil, errors.New("s3 storage requires a bucket")
		}
		if cfg.S3.Region == "" && cfg.S3.Endpoint == "" {
			return nil, errors.New("s3 storage requires a region or an endpoint")
		}
		region := cfg.S3.Region
		if region == "" {
			// Path-style endpoints (MinIO) ignore the region but the SDK wants one.
			region = "us-east-1"
		}
		return NewS3Adapter(S3Options{
			Endpoint:        cfg.S3.Endpoint,
			Region:          region,
			Bucket:          cfg.S3.Bucket,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unknown storage adapter: %q", cfg.Adapter)
	}
}
