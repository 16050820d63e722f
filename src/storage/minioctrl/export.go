package minioctrl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"evalviewer/src/storage/postgres/runctrl"
)

// ObjectStore is the part of MinioService the exporter writes through
type ObjectStore interface {
	EnsureBucketExists(ctx context.Context, bucketName string) error
	PutObject(ctx context.Context, bucketName, objectName, contentType string, data []byte) error
}

// RunExporter writes the results of an eval run as one JSONL object
type RunExporter struct {
	store  ObjectStore
	bucket string
}

func NewRunExporter(store ObjectStore, bucket string) *RunExporter {
	if bucket == "" {
		bucket = RunsBucket
	}
	return &RunExporter{store: store, bucket: bucket}
}

// Export stores results under <eval>/<job id>.jsonl and returns the object
// location as "bucket/object".
func (e *RunExporter) Export(ctx context.Context, jobID int, evalName string, results []runctrl.Result) (string, error) {
	if err := e.store.EnsureBucketExists(ctx, e.bucket); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return "", fmt.Errorf("failed to encode result %d: %v", r.ID, err)
		}
	}

	object := ObjectName(evalName, jobID)
	if err := e.store.PutObject(ctx, e.bucket, object, "application/x-ndjson", buf.Bytes()); err != nil {
		return "", err
	}
	return e.bucket + "/" + object, nil
}

// ObjectName returns the object key of a run export
func ObjectName(evalName string, jobID int) string {
	return fmt.Sprintf("%s/%d.jsonl", strings.ReplaceAll(evalName, "/", "_"), jobID)
}
