package storage

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	cfg "github.com/studysheet/studysheet/internal/config"
	"github.com/studysheet/studysheet/internal/repository"
)

var (
	// ErrNotFound means the key does not exist in the active backend.
	ErrNotFound = errors.New("blob not found")

	// ErrUnavailable means the selected backend's configuration is
	// incomplete. Config is resolved once at startup, never per call.
	ErrUnavailable = errors.New("storage is not configured")
)

// Store is a key-addressed blob store over one of two backends, chosen at
// startup. Keys are backend-agnostic; generation records store keys only
// and URLs are derived on read, so switching backends or rotating
// credentials never requires a data migration.
type Store interface {
	// Put stores content and returns the authoritative key, which may
	// differ from desiredKey (the embedded backend generates its own).
	Put(data []byte, contentType, desiredKey string) (string, error)

	// Get returns the content and stored content type for a key.
	Get(key string) ([]byte, string, error)

	// Delete is idempotent; deleting an unknown key is not an error.
	Delete(key string) error

	// URL resolves a key to a readable URL. Callers must treat the
	// result as opaque: it is a presigned URL on the S3 backend and an
	// internal /files/{key} path on the embedded one.
	URL(key string) (string, error)
}

// New selects the backend from configuration presence: any S3 setting
// selects the S3 backend (and all required settings must then be set);
// otherwise blobs live in the database and are served by /files/{key}.
func New(c *cfg.Config, db *sqlx.DB) (Store, error) {
	if !c.UseS3() {
		slog.Info("initializing embedded blob store")
		return NewDBStore(repository.NewBlobRepository(db)), nil
	}

	if c.S3Region == "" || c.S3Bucket == "" || c.S3AccessKey == "" || c.S3SecretKey == "" {
		return nil, fmt.Errorf("%w: S3_REGION, S3_BUCKET, S3_ACCESS_KEY and S3_SECRET_KEY must all be set", ErrUnavailable)
	}

	slog.Info("initializing S3 storage",
		"bucket", c.S3Bucket,
		"region", c.S3Region,
		"endpoint", c.S3Endpoint,
	)
	return NewS3Store(S3Config{
		Region:        c.S3Region,
		Bucket:        c.S3Bucket,
		AccessKey:     c.S3AccessKey,
		SecretKey:     c.S3SecretKey,
		Endpoint:      c.S3Endpoint,
		PresignExpiry: c.S3PresignExpiry,
	})
}
