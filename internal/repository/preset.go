package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/studysheet/studysheet/internal/model"
)

var (
	ErrPresetNotFound = errors.New("style preset not found")
)

// PresetRepository reads the style catalog. The catalog is managed out of
// band; the core only filters on is_active and orders by sort_order.
type PresetRepository interface {
	Active() ([]*model.StylePreset, error)
	ActiveByID(id string) (*model.StylePreset, error)
	FirstActive() (*model.StylePreset, error)
}

type presetRepository struct {
	db *sqlx.DB
}

func NewPresetRepository(db *sqlx.DB) PresetRepository {
	return &presetRepository{db: db}
}

func (r *presetRepository) Active() ([]*model.StylePreset, error) {
	var presets []*model.StylePreset
	query := `SELECT * FROM style_presets WHERE is_active = $1 ORDER BY sort_order ASC`

	err := r.db.Select(&presets, query, true)
	if err != nil {
		return nil, err
	}

	return presets, nil
}

func (r *presetRepository) ActiveByID(id string) (*model.StylePreset, error) {
	preset := &model.StylePreset{}
	query := `SELECT * FROM style_presets WHERE id = $1 AND is_active = $2`

	err := r.db.Get(preset, query, id, true)
	if err == sql.ErrNoRows {
		return nil, ErrPresetNotFound
	}

	return preset, err
}

func (r *presetRepository) FirstActive() (*model.StylePreset, error) {
	preset := &model.StylePreset{}
	query := `SELECT * FROM style_presets WHERE is_active = $1 ORDER BY sort_order ASC LIMIT 1`

	err := r.db.Get(preset, query, true)
	if err == sql.ErrNoRows {
		return nil, ErrPresetNotFound
	}

	return preset, err
}
