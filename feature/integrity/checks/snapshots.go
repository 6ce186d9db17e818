package checks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"catalog-sync/core/storage"

	"github.com/minio/minio-go/v7"
)

// SnapshotReport summarizes the snapshots available for syncing.
type SnapshotReport struct {
	Prefix       string     `json:"prefix"`
	Count        int        `json:"count"`
	Latest       string     `json:"latest,omitempty"`
	LatestAt     *time.Time `json:"latest_at,omitempty"`
	LatestSize   int64      `json:"latest_size"`
	EmptyObjects []string   `json:"empty_objects"`
}

// CheckSnapshots lists the JSON snapshots under prefix. Zero-byte snapshots
// cannot be decoded and are reported separately.
func CheckSnapshots(ctx context.Context, client storage.Client, bucket, prefix string) (*SnapshotReport, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", bucket)
	}

	report := &SnapshotReport{Prefix: folderKey(prefix), EmptyObjects: []string{}}
	opts := minio.ListObjectsOptions{Prefix: report.Prefix, Recursive: true}

	for obj := range client.ListObjects(ctx, bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list snapshots: %w", obj.Err)
		}
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		if obj.Size == 0 {
			report.EmptyObjects = append(report.EmptyObjects, obj.Key)
			continue
		}

		report.Count++
		if report.LatestAt == nil || obj.LastModified.After(*report.LatestAt) {
			modified := obj.LastModified
			report.Latest = obj.Key
			report.LatestAt = &modified
			report.LatestSize = obj.Size
		}
	}

	return report, nil
}
