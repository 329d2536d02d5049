package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/studysheet/studysheet/internal/model"
	"github.com/studysheet/studysheet/internal/repository"
	"github.com/studysheet/studysheet/internal/storage"
)

// StyleInput is the caller's style choice. PresetID is required in preset
// mode, CustomPrompt in custom mode.
type StyleInput struct {
	Mode         string
	PresetID     string
	CustomPrompt string
}

// WorkerResult is the worker boundary's completion callback payload.
type WorkerResult struct {
	OutputFiles   []string
	PreviewImages []string
}

// GenerationService owns the generation lifecycle:
//
//	pending -> queued -> processing -> processed | failed
//
// A generation is editable only while pending; queued and later states
// belong to the worker boundary. Every mutation goes through the
// repository's conditional update, so a lost race surfaces as a conflict
// instead of a silent overwrite.
type GenerationService struct {
	repo    repository.GenerationRepository
	presets repository.PresetRepository
	store   storage.Store
}

func NewGenerationService(repo repository.GenerationRepository, presets repository.PresetRepository, store storage.Store) *GenerationService {
	return &GenerationService{
		repo:    repo,
		presets: presets,
		store:   store,
	}
}

// Current returns the owner's pending generation, creating one when none
// exists. New generations default to the first active preset by sort
// order, with the preset's title and prompt snapshotted at that moment.
func (s *GenerationService) Current(ownerID string) (*model.Generation, error) {
	g, err := s.repo.PendingByOwner(ownerID)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, repository.ErrGenerationNotFound) {
		return nil, err
	}

	preset, err := s.presets.FirstActive()
	if err != nil {
		return nil, fmt.Errorf("failed to load default style preset: %w", err)
	}

	now := time.Now()
	g = &model.Generation{
		ID:             uuid.New().String(),
		OwnerID:        ownerID,
		Status:         model.StatusPending,
		InputFiles:     model.StringList{},
		StyleMode:      model.StyleModePreset,
		PresetID:       preset.ID,
		SnapshotTitle:  preset.Title,
		SnapshotPrompt: preset.Prompt,
		OutputFiles:    model.StringList{},
		PreviewImages:  model.StringList{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.repo.Create(g)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation: %w", err)
	}

	slog.Info("generation created", "generation_id", g.ID, "owner_id", ownerID)
	return g, nil
}

// Generation returns an owned generation. A record owned by someone else
// is reported as not found, never forbidden.
func (s *GenerationService) Generation(ownerID, id string) (*model.Generation, error) {
	g, err := s.repo.Owned(id, ownerID)
	if errors.Is(err, repository.ErrGenerationNotFound) {
		return nil, ErrNotFound
	}
	return g, err
}

func (s *GenerationService) Generations(ownerID string) ([]*model.Generation, error) {
	return s.repo.ByOwner(ownerID)
}

// UpdateText replaces the free-text notes. Pending only.
func (s *GenerationService) UpdateText(ownerID, id, text string) (*model.Generation, error) {
	g, err := s.Generation(ownerID, id)
	if err != nil {
		return nil, err
	}
	if g.Status != model.StatusPending {
		return nil, ErrInvalidState
	}

	patch := repository.GenerationPatch{InputText: &text}
	return s.applyPending(ownerID, id, patch)
}

// SetStyle records the style choice and snapshots its title and prompt.
// Pending only.
func (s *GenerationService) SetStyle(ownerID, id string, input StyleInput) (*model.Generation, error) {
	g, err := s.Generation(ownerID, id)
	if err != nil {
		return nil, err
	}
	if g.Status != model.StatusPending {
		return nil, ErrInvalidState
	}

	patch := repository.GenerationPatch{StyleMode: &input.Mode}

	switch input.Mode {
	case model.StyleModePreset:
		preset, err := s.presets.ActiveByID(input.PresetID)
		if err != nil {
			if errors.Is(err, repository.ErrPresetNotFound) {
				return nil, fmt.Errorf("%w: unknown or inactive style preset", ErrValidation)
			}
			return nil, err
		}
		empty := ""
		patch.PresetID = &preset.ID
		patch.CustomPrompt = &empty
		patch.SnapshotTitle = &preset.Title
		patch.SnapshotPrompt = &preset.Prompt

	case model.StyleModeCustom:
		prompt := strings.TrimSpace(input.CustomPrompt)
		if prompt == "" {
			return nil, fmt.Errorf("%w: custom style requires a prompt", ErrValidation)
		}
		empty := ""
		title := "Custom"
		patch.PresetID = &empty
		patch.CustomPrompt = &prompt
		patch.SnapshotTitle = &title
		patch.SnapshotPrompt = &prompt

	default:
		return nil, fmt.Errorf("%w: style mode must be preset or custom", ErrValidation)
	}

	return s.applyPending(ownerID, id, patch)
}

// SetFlags updates the favourite/downloaded flags. Unlike edits these are
// allowed at any status; the write is still conditional on the status
// read just before it, so a concurrent transition shows up as a conflict.
func (s *GenerationService) SetFlags(ownerID, id string, favourite, downloaded *bool) (*model.Generation, error) {
	g, err := s.Generation(ownerID, id)
	if err != nil {
		return nil, err
	}
	if favourite == nil && downloaded == nil {
		return nil, fmt.Errorf("%w: no flags given", ErrValidation)
	}

	patch := repository.GenerationPatch{
		IsFavourite:  favourite,
		IsDownloaded: downloaded,
	}

	affected, err := s.repo.ConditionalUpdate(id, ownerID, g.Status, patch)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, s.conflictOrGone(ownerID, id)
	}

	return s.Generation(ownerID, id)
}

// Submit moves a pending generation to queued. Guards: some input is
// present, and the chosen style is still valid. Clears any stale error
// and previews from an earlier failed run. Exactly one of two concurrent
// submits wins; the loser observes a conflict.
func (s *GenerationService) Submit(ownerID, id string) (*model.Generation, error) {
	g, err := s.Generation(ownerID, id)
	if err != nil {
		return nil, err
	}
	if g.Status != model.StatusPending {
		return nil, ErrInvalidState
	}

	if strings.TrimSpace(g.InputText) == "" && len(g.InputFiles) == 0 {
		return nil, fmt.Errorf("%w: add some notes or at least one file before submitting", ErrValidation)
	}

	switch g.StyleMode {
	case model.StyleModePreset:
		_, err := s.presets.ActiveByID(g.PresetID)
		if err != nil {
			if errors.Is(err, repository.ErrPresetNotFound) {
				return nil, fmt.Errorf("%w: the chosen style preset is no longer available", ErrValidation)
			}
			return nil, err
		}
	case model.StyleModeCustom:
		if strings.TrimSpace(g.CustomPrompt) == "" {
			return nil, fmt.Errorf("%w: custom style requires a prompt", ErrValidation)
		}
	default:
		return nil, fmt.Errorf("%w: style mode must be preset or custom", ErrValidation)
	}

	queued := model.StatusQueued
	empty := ""
	noPreviews := model.StringList{}
	patch := repository.GenerationPatch{
		Status:        &queued,
		Error:         &empty,
		PreviewImages: &noPreviews,
	}

	updated, err := s.applyPending(ownerID, id, patch)
	if err != nil {
		return nil, err
	}

	slog.Info("generation submitted", "generation_id", id, "owner_id", ownerID)
	return updated, nil
}

// Delete removes a generation at any status. Referenced blobs are deleted
// first, then the record; blob deletes are best effort so a flaky backend
// never strands the record.
func (s *GenerationService) Delete(ownerID, id string) error {
	g, err := s.Generation(ownerID, id)
	if err != nil {
		return err
	}

	for _, key := range g.BlobKeys() {
		err := s.store.Delete(key)
		if err != nil {
			slog.Error("failed to delete blob during generation delete", "error", err, "key", key, "generation_id", id)
		}
	}

	affected, err := s.repo.Delete(id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete generation: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	slog.Info("generation deleted", "generation_id", id, "owner_id", ownerID)
	return nil
}

// ClaimNext hands the oldest queued generation to the worker, moving it
// to processing. The claim itself is a conditional update, so competing
// workers race over candidates until one wins or the queue drains.
func (s *GenerationService) ClaimNext() (*model.Generation, error) {
	for {
		g, err := s.repo.OldestQueued()
		if err != nil {
			if errors.Is(err, repository.ErrGenerationNotFound) {
				return nil, ErrNoQueued
			}
			return nil, err
		}

		processing := model.StatusProcessing
		affected, err := s.repo.WorkerUpdate(g.ID, model.StatusQueued, repository.GenerationPatch{Status: &processing})
		if err != nil {
			return nil, err
		}
		if affected == 1 {
			g.Status = model.StatusProcessing
			slog.Info("generation claimed", "generation_id", g.ID)
			return g, nil
		}
		// Lost the claim race; try the next candidate.
	}
}

// CompleteProcessing records the worker's output and moves the
// generation to processed. Conditional on the record still being in
// processing, so a concurrently deleted generation is not resurrected.
func (s *GenerationService) CompleteProcessing(id string, result WorkerResult) error {
	processed := model.StatusProcessed
	outputs := model.StringList(result.OutputFiles)
	previews := model.StringList(result.PreviewImages)
	if outputs == nil {
		outputs = model.StringList{}
	}
	if previews == nil {
		previews = model.StringList{}
	}

	patch := repository.GenerationPatch{
		Status:        &processed,
		OutputFiles:   &outputs,
		PreviewImages: &previews,
	}

	affected, err := s.repo.WorkerUpdate(id, model.StatusProcessing, patch)
	if err != nil {
		return err
	}
	if affected == 0 {
		return s.workerConflictOrGone(id)
	}

	slog.Info("generation processed", "generation_id", id, "output_files", len(outputs))
	return nil
}

// FailProcessing records a worker failure.
func (s *GenerationService) FailProcessing(id, message string) error {
	failed := model.StatusFailed
	patch := repository.GenerationPatch{
		Status: &failed,
		Error:  &message,
	}

	affected, err := s.repo.WorkerUpdate(id, model.StatusProcessing, patch)
	if err != nil {
		return err
	}
	if affected == 0 {
		return s.workerConflictOrGone(id)
	}

	slog.Warn("generation failed", "generation_id", id, "error", message)
	return nil
}

// applyPending runs a conditional update guarded on pending status and
// translates zero affected rows into the right domain error.
func (s *GenerationService) applyPending(ownerID, id string, patch repository.GenerationPatch) (*model.Generation, error) {
	affected, err := s.repo.ConditionalUpdate(id, ownerID, model.StatusPending, patch)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, s.conflictOrGone(ownerID, id)
	}

	return s.Generation(ownerID, id)
}

// conflictOrGone decides whether a zero-row conditional update means the
// record moved out of the expected status (conflict) or disappeared for
// this owner entirely (not found).
func (s *GenerationService) conflictOrGone(ownerID, id string) error {
	_, err := s.repo.Owned(id, ownerID)
	if errors.Is(err, repository.ErrGenerationNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrInvalidState
}

func (s *GenerationService) workerConflictOrGone(id string) error {
	_, err := s.repo.ByID(id)
	if errors.Is(err, repository.ErrGenerationNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrInvalidState
}
