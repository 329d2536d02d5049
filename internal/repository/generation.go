package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/studysheet/studysheet/internal/model"
)

var (
	ErrGenerationNotFound = errors.New("generation not found")
)

// GenerationPatch lists the fields a conditional update may change. Nil
// fields are left untouched. updated_at is always bumped.
type GenerationPatch struct {
	Status         *string
	InputText      *string
	InputFiles     *model.StringList
	StyleMode      *string
	PresetID       *string
	CustomPrompt   *string
	SnapshotTitle  *string
	SnapshotPrompt *string
	OutputFiles    *model.StringList
	PreviewImages  *model.StringList
	Error          *string
	IsFavourite    *bool
	IsDownloaded   *bool
}

type GenerationRepository interface {
	Create(g *model.Generation) error
	ByID(id string) (*model.Generation, error)
	Owned(id, ownerID string) (*model.Generation, error)
	PendingByOwner(ownerID string) (*model.Generation, error)
	ByOwner(ownerID string) ([]*model.Generation, error)

	// ConditionalUpdate applies the patch only while the stored status
	// still matches expectedStatus. It returns the number of affected
	// rows (0 or 1); 0 means the record is gone, not owned, or the
	// status moved under a concurrent writer. This predicate is the
	// system's only concurrency control.
	ConditionalUpdate(id, ownerID, expectedStatus string, patch GenerationPatch) (int64, error)

	// WorkerUpdate is ConditionalUpdate without the owner predicate.
	// Only the worker boundary may use it.
	WorkerUpdate(id, expectedStatus string, patch GenerationPatch) (int64, error)

	// OldestQueued returns the next claim candidate for the worker.
	OldestQueued() (*model.Generation, error)

	Delete(id, ownerID string) (int64, error)
}

type generationRepository struct {
	db *sqlx.DB
}

func NewGenerationRepository(db *sqlx.DB) GenerationRepository {
	return &generationRepository{db: db}
}

func (r *generationRepository) Create(g *model.Generation) error {
	query := `INSERT INTO generations (id, owner_id, status, input_text, input_files,
	              style_mode, preset_id, custom_prompt, snapshot_title, snapshot_prompt,
	              output_files, preview_images, error, is_favourite, is_downloaded,
	              created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := r.db.Exec(query,
		g.ID,
		g.OwnerID,
		g.Status,
		g.InputText,
		g.InputFiles,
		g.StyleMode,
		g.PresetID,
		g.CustomPrompt,
		g.SnapshotTitle,
		g.SnapshotPrompt,
		g.OutputFiles,
		g.PreviewImages,
		g.Error,
		g.IsFavourite,
		g.IsDownloaded,
		g.CreatedAt,
		g.UpdatedAt,
	)

	return err
}

func (r *generationRepository) ByID(id string) (*model.Generation, error) {
	g := &model.Generation{}
	query := `SELECT * FROM generations WHERE id = $1`

	err := r.db.Get(g, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrGenerationNotFound
	}

	return g, err
}

func (r *generationRepository) Owned(id, ownerID string) (*model.Generation, error) {
	g := &model.Generation{}
	query := `SELECT * FROM generations WHERE id = $1 AND owner_id = $2`

	err := r.db.Get(g, query, id, ownerID)
	if err == sql.ErrNoRows {
		return nil, ErrGenerationNotFound
	}

	return g, err
}

func (r *generationRepository) PendingByOwner(ownerID string) (*model.Generation, error) {
	g := &model.Generation{}
	query := `SELECT * FROM generations WHERE owner_id = $1 AND status = $2 ORDER BY created_at DESC LIMIT 1`

	err := r.db.Get(g, query, ownerID, model.StatusPending)
	if err == sql.ErrNoRows {
		return nil, ErrGenerationNotFound
	}

	return g, err
}

func (r *generationRepository) ByOwner(ownerID string) ([]*model.Generation, error) {
	var generations []*model.Generation
	query := `SELECT * FROM generations WHERE owner_id = $1 ORDER BY created_at DESC`

	err := r.db.Select(&generations, query, ownerID)
	if err != nil {
		return nil, err
	}

	return generations, nil
}

func (r *generationRepository) ConditionalUpdate(id, ownerID, expectedStatus string, patch GenerationPatch) (int64, error) {
	set, args := buildPatch(patch)
	args = append(args, id, ownerID, expectedStatus)

	query := fmt.Sprintf(`UPDATE generations SET %s WHERE id = $%d AND owner_id = $%d AND status = $%d`,
		set, len(args)-2, len(args)-1, len(args))

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func (r *generationRepository) WorkerUpdate(id, expectedStatus string, patch GenerationPatch) (int64, error) {
	set, args := buildPatch(patch)
	args = append(args, id, expectedStatus)

	query := fmt.Sprintf(`UPDATE generations SET %s WHERE id = $%d AND status = $%d`,
		set, len(args)-1, len(args))

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func (r *generationRepository) OldestQueued() (*model.Generation, error) {
	g := &model.Generation{}
	query := `SELECT * FROM generations WHERE status = $1 ORDER BY updated_at ASC LIMIT 1`

	err := r.db.Get(g, query, model.StatusQueued)
	if err == sql.ErrNoRows {
		return nil, ErrGenerationNotFound
	}

	return g, err
}

func (r *generationRepository) Delete(id, ownerID string) (int64, error) {
	query := `DELETE FROM generations WHERE id = $1 AND owner_id = $2`

	result, err := r.db.Exec(query, id, ownerID)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// buildPatch turns the non-nil patch fields into a SET clause with $N
// placeholders starting at $1. updated_at is always included.
func buildPatch(patch GenerationPatch) (string, []any) {
	var sets []string
	var args []any

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.InputText != nil {
		add("input_text", *patch.InputText)
	}
	if patch.InputFiles != nil {
		add("input_files", *patch.InputFiles)
	}
	if patch.StyleMode != nil {
		add("style_mode", *patch.StyleMode)
	}
	if patch.PresetID != nil {
		add("preset_id", *patch.PresetID)
	}
	if patch.CustomPrompt != nil {
		add("custom_prompt", *patch.CustomPrompt)
	}
	if patch.SnapshotTitle != nil {
		add("snapshot_title", *patch.SnapshotTitle)
	}
	if patch.SnapshotPrompt != nil {
		add("snapshot_prompt", *patch.SnapshotPrompt)
	}
	if patch.OutputFiles != nil {
		add("output_files", *patch.OutputFiles)
	}
	if patch.PreviewImages != nil {
		add("preview_images", *patch.PreviewImages)
	}
	if patch.Error != nil {
		add("error", *patch.Error)
	}
	if patch.IsFavourite != nil {
		add("is_favourite", *patch.IsFavourite)
	}
	if patch.IsDownloaded != nil {
		add("is_downloaded", *patch.IsDownloaded)
	}

	add("updated_at", time.Now())

	return strings.Join(sets, ", "), args
}
