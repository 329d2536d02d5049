package service

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/studysheet/studysheet/internal/model"
	"github.com/studysheet/studysheet/internal/repository"
	"github.com/studysheet/studysheet/internal/storage"
	"github.com/studysheet/studysheet/internal/validation"
)

// IngestionService attaches and detaches input files on a pending
// generation. Storage and metadata are not transactionally coupled, so
// the attach path carries its own two-phase cleanup: a blob written in
// step two is deleted again if the metadata write in step three fails
// for any reason.
type IngestionService struct {
	repo     repository.GenerationRepository
	store    storage.Store
	maxBytes int64
}

func NewIngestionService(repo repository.GenerationRepository, store storage.Store, maxBytes int64) *IngestionService {
	return &IngestionService{
		repo:     repo,
		store:    store,
		maxBytes: maxBytes,
	}
}

// Attach validates the upload, stores it, and appends the authoritative
// blob key to the generation's input files under the pending guard.
func (s *IngestionService) Attach(ownerID, generationID, filename string, data []byte) (*model.Generation, error) {
	g, err := s.owned(ownerID, generationID)
	if err != nil {
		return nil, err
	}
	if g.Status != model.StatusPending {
		return nil, ErrInvalidState
	}

	// Step 1: validate in memory before touching storage.
	contentType, err := validation.ValidateUpload(data, validation.UploadConstraints{MaxSize: s.maxBytes})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	// Step 2: store the blob. The desired key is advisory; the embedded
	// backend returns its own.
	desiredKey := "inputs/" + uuid.New().String() + strings.ToLower(filepath.Ext(filename))
	key, err := s.store.Put(data, contentType, desiredKey)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	// Step 3: append the key, still guarded by pending + ownership. On
	// any failure here the blob must not outlive its attachment record.
	files := append(model.StringList{}, g.InputFiles...)
	files = append(files, key)
	affected, err := s.repo.ConditionalUpdate(generationID, ownerID, model.StatusPending, repository.GenerationPatch{
		InputFiles: &files,
	})
	if err != nil || affected == 0 {
		s.compensate(key, generationID)
		if err != nil {
			return nil, fmt.Errorf("failed to attach file: %w", err)
		}
		return nil, s.attachConflict(ownerID, generationID)
	}

	slog.Info("file attached", "generation_id", generationID, "key", key, "size", len(data), "content_type", contentType)
	return s.owned(ownerID, generationID)
}

// Detach removes one input file. ref may be the raw blob key or a URL
// derived from it; presigned URLs change on every resolution, so URLs
// are matched by the key they embed. The blob delete after a successful
// detach is best effort: a leftover blob is logged, not surfaced.
func (s *IngestionService) Detach(ownerID, generationID, ref string) (*model.Generation, error) {
	g, err := s.owned(ownerID, generationID)
	if err != nil {
		return nil, err
	}
	if g.Status != model.StatusPending {
		return nil, ErrInvalidState
	}

	key, ok := matchKey(g.InputFiles, ref)
	if !ok {
		return nil, fmt.Errorf("%w: file is not attached to this generation", ErrValidation)
	}

	files := g.InputFiles.Without(key)
	affected, err := s.repo.ConditionalUpdate(generationID, ownerID, model.StatusPending, repository.GenerationPatch{
		InputFiles: &files,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to detach file: %w", err)
	}
	if affected == 0 {
		return nil, s.attachConflict(ownerID, generationID)
	}

	err = s.store.Delete(key)
	if err != nil {
		slog.Error("failed to delete blob after detach", "error", err, "key", key, "generation_id", generationID)
	}

	slog.Info("file detached", "generation_id", generationID, "key", key)
	return s.owned(ownerID, generationID)
}

// compensate deletes the blob written by a failed attach.
func (s *IngestionService) compensate(key, generationID string) {
	err := s.store.Delete(key)
	if err != nil {
		slog.Error("failed to delete blob during attach rollback", "error", err, "key", key, "generation_id", generationID)
	}
}

func (s *IngestionService) owned(ownerID, generationID string) (*model.Generation, error) {
	g, err := s.repo.Owned(generationID, ownerID)
	if err != nil {
		if err == repository.ErrGenerationNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func (s *IngestionService) attachConflict(ownerID, generationID string) error {
	_, err := s.repo.Owned(generationID, ownerID)
	if err == repository.ErrGenerationNotFound {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrInvalidState
}

// matchKey finds the stored key a caller reference points at: either the
// key itself or a derived URL containing it as a path segment.
func matchKey(keys model.StringList, ref string) (string, bool) {
	for _, key := range keys {
		if ref == key || strings.Contains(ref, key) {
			return key, true
		}
	}
	return "", false
}
