// Package storage holds the production adapters behind the engine's
// collaborator interfaces: object storage for media and Postgres for records.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/url"
	"path"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/m3rciful/mediabot/core/logger"
)

const defaultPublicURLBase = "https://firebasestorage.googleapis.com/v0/b"

// BlobConfig configures the Cloud Storage bucket used for media.
type BlobConfig struct {
	Bucket          string
	CredentialsFile string
	// PublicURLBase prefixes public links; defaults to the Firebase download endpoint.
	PublicURLBase string
}

// GCSBlobStore writes objects into a Google Cloud Storage bucket.
type GCSBlobStore struct {
	client  *gcs.Client
	bucket  *gcs.BucketHandle
	name    string
	urlBase string
}

// NewGCSBlobStore opens a client for cfg.Bucket.
func NewGCSBlobStore(ctx context.Context, cfg BlobConfig) (*GCSBlobStore, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("storage: bucket is required")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: gcs client: %w", err)
	}
	logger.Info(ctx, "upload", "blob.connect",
		slog.String("status", "ok"),
		slog.String("bucket", cfg.Bucket),
	)
	return &GCSBlobStore{
		client:  client,
		bucket:  client.Bucket(cfg.Bucket),
		name:    cfg.Bucket,
		urlBase: publicURLBase(cfg.PublicURLBase),
	}, nil
}

// NewWriter opens an object writer; cancelling ctx before Close aborts the upload.
func (s *GCSBlobStore) NewWriter(ctx context.Context, objectPath string) (io.WriteCloser, error) {
	w := s.bucket.Object(objectPath).NewWriter(ctx)
	if ct := mime.TypeByExtension(path.Ext(objectPath)); ct != "" {
		w.ContentType = ct
	}
	return w, nil
}

// MakePublic grants read access to all users.
func (s *GCSBlobStore) MakePublic(ctx context.Context, objectPath string) error {
	if err := s.bucket.Object(objectPath).ACL().Set(ctx, gcs.AllUsers, gcs.RoleReader); err != nil {
		return fmt.Errorf("storage: make public %s: %w", objectPath, err)
	}
	return nil
}

// PublicURL derives the download link for objectPath.
func (s *GCSBlobStore) PublicURL(objectPath string) string {
	return BuildPublicURL(s.urlBase, s.name, objectPath)
}

// Close releases the underlying client.
func (s *GCSBlobStore) Close() error {
	return s.client.Close()
}

// BuildPublicURL returns <base>/<bucket>/o/<escaped path>?alt=media.
func BuildPublicURL(base, bucket, objectPath string) string {
	return fmt.Sprintf("%s/%s/o/%s?alt=media", publicURLBase(base), bucket, url.PathEscape(objectPath))
}

func publicURLBase(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return defaultPublicURLBase
	}
	return base
}
