package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// StoreType selects the archive backend.
type StoreType string

const (
	StoreTypeFS  StoreType = "fs"
	StoreTypeS3  StoreType = "s3"
	StoreTypeGCS StoreType = "gcs"
)

// NewStoreFromEnv creates an archive based on environment variables.
//
//   - REPORT_ARCHIVE_TYPE: "fs" (default), "s3", or "gcs"
//   - DATA_DIR: base directory for the filesystem archive (default "data")
//   - REPORT_ARCHIVE_S3_BUCKET / _REGION / _ENDPOINT / _PREFIX
//   - REPORT_ARCHIVE_GCS_BUCKET / _PREFIX (requires -tags gcp build)
func NewStoreFromEnv(ctx context.Context) (Store, error) {
	storeType := StoreType(os.Getenv("REPORT_ARCHIVE_TYPE"))
	if storeType == "" {
		storeType = StoreTypeFS
	}

	switch storeType {
	case StoreTypeFS:
		dataDir := os.Getenv("DATA_DIR")
		if dataDir == "" {
			dataDir = "data"
		}
		return NewFileStore(filepath.Join(dataDir, "reports"))
	case StoreTypeS3:
		bucket := os.Getenv("REPORT_ARCHIVE_S3_BUCKET")
		if bucket == "" {
			return nil, fmt.Errorf("REPORT_ARCHIVE_S3_BUCKET is required for s3 archive")
		}
		region := os.Getenv("REPORT_ARCHIVE_S3_REGION")
		if region == "" {
			region = os.Getenv("AWS_REGION")
		}
		return NewS3Store(ctx, S3Config{
			Bucket:   bucket,
			Region:   region,
			Endpoint: os.Getenv("REPORT_ARCHIVE_S3_ENDPOINT"),
			Prefix:   os.Getenv("REPORT_ARCHIVE_S3_PREFIX"),
		})
	case StoreTypeGCS:
		return newGCSStoreFromEnv(ctx)
	default:
		return nil, fmt.Errorf("unsupported report archive type: %s", storeType)
	}
}
