package handlers

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// uploadToGCS stores the file in the configured bucket under a
// date-partitioned key and returns its public URL. Requires GCS_BUCKET
// and application default credentials.
func uploadToGCS(ctx context.Context, file multipart.File, filename string) (string, error) {
	bucket := os.Getenv("GCS_BUCKET")
	if bucket == "" {
		return "", fmt.Errorf("GCS_BUCKET not configured")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("gcs client: %w", err)
	}
	defer client.Close()

	key := fmt.Sprintf("dpr/%s/%s_%s",
		time.Now().Format("2006/01/02"), uuid.NewString(), filepath.Base(filename))

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	wc := client.Bucket(bucket).Object(key).NewWriter(ctx)
	if _, err := io.Copy(wc, file); err != nil {
		wc.Close()
		return "", fmt.Errorf("gcs write: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("gcs close: %w", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key), nil
}
