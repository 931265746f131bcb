package statements

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// BlobStore reads and writes raw statement files in a GCS bucket. Uploaded
// statements are kept so a statement can be reparsed later without a fresh
// upload.
type BlobStore struct {
	bucket string
}

// NewBlobStore binds a blob store to a bucket name.
func NewBlobStore(bucket string) *BlobStore {
	return &BlobStore{bucket: bucket}
}

// ObjectName builds a date-partitioned object name for an upload.
func (b *BlobStore) ObjectName(fileName string) string {
	return fmt.Sprintf("statements/%s/%s-%s", time.Now().UTC().Format("2006/01/02"), uuid.NewString(), fileName)
}

// Upload writes one raw statement and returns its gs:// URI. Application
// Default Credentials are assumed.
func (b *BlobStore) Upload(ctx context.Context, objectName string, r io.Reader) (string, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("Upload: create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(b.bucket).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("Upload: copying statement bytes: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Upload: finalizing upload: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", b.bucket, objectName), nil
}

// Fetch downloads the raw statement bytes at the given gs:// URI.
func Fetch(ctx context.Context, blobURI string) ([]byte, error) {
	bucket, object, err := splitURI(blobURI)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: create storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Fetch: reading bytes: %w", err)
	}
	return data, nil
}

// FileNameFromURI recovers the original upload filename from an object name
// produced by ObjectName (the uuid prefix is stripped).
func FileNameFromURI(blobURI string) string {
	base := path.Base(blobURI)
	// Object names embed a 36-character uuid before the filename.
	if len(base) > 37 {
		if _, err := uuid.Parse(base[:36]); err == nil && base[36] == '-' {
			return base[37:]
		}
	}
	return base
}

func splitURI(blobURI string) (bucket, object string, err error) {
	if !strings.HasPrefix(blobURI, "gs://") {
		return "", "", fmt.Errorf("splitURI: invalid blob URI: %s", blobURI)
	}
	trimmed := strings.TrimPrefix(blobURI, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("splitURI: no object path in URI: %s", blobURI)
	}
	return parts[0], parts[1], nil
}
