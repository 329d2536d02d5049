package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/studysheet/studysheet/internal/model"
	"github.com/studysheet/studysheet/internal/repository"
)

// DBStore implements Store on top of the blobs table. It is the fallback
// backend when no external object storage is configured. No external
// pre-signing exists, so reads are served by the internal /files/{key}
// streaming route.
type DBStore struct {
	blobs repository.BlobRepository
}

func NewDBStore(blobs repository.BlobRepository) *DBStore {
	return &DBStore{blobs: blobs}
}

// Put stores content under a store-generated key. desiredKey is ignored:
// keys here are database identifiers, not paths.
func (s *DBStore) Put(data []byte, contentType, desiredKey string) (string, error) {
	key := uuid.New().String()

	err := s.blobs.Create(&model.Blob{
		Key:         key,
		Content:     data,
		ContentType: contentType,
		Size:        int64(len(data)),
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to store blob: %w", err)
	}

	return key, nil
}

func (s *DBStore) Get(key string) ([]byte, string, error) {
	blob, err := s.blobs.ByKey(key)
	if err != nil {
		if errors.Is(err, repository.ErrBlobNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to read blob: %w", err)
	}

	return blob.Content, blob.ContentType, nil
}

func (s *DBStore) Delete(key string) error {
	return s.blobs.Delete(key)
}

func (s *DBStore) URL(key string) (string, error) {
	return "/files/" + key, nil
}
