package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atlas-grag/atlas/internal/storage"
	"github.com/atlas-grag/atlas/pkg/ingest"
	"github.com/atlas-grag/atlas/pkg/leaselock"
	"github.com/atlas-grag/atlas/pkg/logger"
)

// IngestFileMsg is the payload published to the ingest queue by the API
// server and consumed by the worker.
type IngestFileMsg struct {
	Path      string `json:"path"`
	BatchSize int    `json:"batch_size"`
}

// ProcessIngestFile runs one file ingestion job. A path ending in "/"
// on object storage is expanded to every object under the prefix. The
// returned error signals the worker to retry or dead-letter the message;
// per-line ingestion errors are logged, not returned.
func ProcessIngestFile(
	ctx context.Context,
	pipeline *ingest.Pipeline,
	objects *storage.Client,
	locks *leaselock.Client,
	msgBody string,
) error {
	var msg IngestFileMsg
	if err := json.Unmarshal([]byte(msgBody), &msg); err != nil {
		return fmt.Errorf("failed to unmarshal ingest message: %w", err)
	}
	if msg.Path == "" {
		return fmt.Errorf("ingest message has no path")
	}

	paths := []string{msg.Path}
	if strings.HasPrefix(msg.Path, "s3://") && strings.HasSuffix(msg.Path, "/") {
		expanded, err := expandPrefix(ctx, objects, msg.Path)
		if err != nil {
			return err
		}
		if len(expanded) == 0 {
			logger.Warn("[Queue] No objects under prefix", "path", msg.Path)
			return nil
		}
		paths = expanded
	}

	for _, path := range paths {
		var result ingest.IngestionResult
		err := locks.WithLease(ctx, "ingest:"+path, leaselock.Options{Wait: true}, func(ctx context.Context) error {
			result = pipeline.IngestFile(ctx, path, msg.BatchSize)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to lock ingestion of %s: %w", path, err)
		}
		if !result.Success {
			return fmt.Errorf("ingestion of %s failed: %s", path, strings.Join(result.Errors, "; "))
		}
		if len(result.Errors) > 0 {
			logger.Warn("[Queue] Ingestion finished with errors",
				"path", path,
				"error_count", len(result.Errors),
			)
		}
		logger.Info("[Queue] Ingested file",
			"path", path,
			"nodes_created", result.NodesCreated,
			"relationships_created", result.RelationshipsCreated,
			"documents_added", result.DocumentsAdded,
		)
	}

	return nil
}

func expandPrefix(ctx context.Context, objects *storage.Client, path string) ([]string, error) {
	if objects == nil {
		return nil, fmt.Errorf("no object storage configured for path %s", path)
	}
	bucket, prefix, ok := strings.Cut(strings.TrimPrefix(path, "s3://"), "/")
	if !ok || bucket == "" {
		return nil, fmt.Errorf("invalid s3 path %s", path)
	}

	keys, err := objects.ListFilesWithPrefix(ctx, bucket, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects under %s: %w", path, err)
	}

	paths := make([]string, 0, len(keys))
	for _, key := range keys {
		paths = append(paths, fmt.Sprintf("s3://%s/%s", bucket, key))
	}
	return paths, nil
}
