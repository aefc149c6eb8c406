//go:build gcp

package archive

import (
	"context"
	"fmt"
	"os"
)

func newGCSStoreFromEnv(ctx context.Context) (Store, error) {
	bucket := os.Getenv("REPORT_ARCHIVE_GCS_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("REPORT_ARCHIVE_GCS_BUCKET is required for gcs archive")
	}
	return NewGCSStore(ctx, GCSConfig{
		Bucket: bucket,
		Prefix: os.Getenv("REPORT_ARCHIVE_GCS_PREFIX"),
	})
}
