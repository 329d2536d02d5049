package service

import (
	"github.com/studysheet/studysheet/internal/model"
	"github.com/studysheet/studysheet/internal/repository"
)

// PresetService exposes the style catalog: active presets only, ordered
// by sort_order. The catalog itself is managed out of band.
type PresetService struct {
	repo repository.PresetRepository
}

func NewPresetService(repo repository.PresetRepository) *PresetService {
	return &PresetService{repo: repo}
}

func (s *PresetService) Active() ([]*model.StylePreset, error) {
	return s.repo.Active()
}

func (s *PresetService) ActiveByID(id string) (*model.StylePreset, error) {
	return s.repo.ActiveByID(id)
}

func (s *PresetService) FirstActive() (*model.StylePreset, error) {
	return s.repo.FirstActive()
}
