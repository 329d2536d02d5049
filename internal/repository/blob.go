package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/studysheet/studysheet/internal/model"
)

var (
	ErrBlobNotFound = errors.New("blob not found")
)

type BlobRepository interface {
	Create(blob *model.Blob) error
	ByKey(key string) (*model.Blob, error)
	Delete(key string) error
}

type blobRepository struct {
	db *sqlx.DB
}

func NewBlobRepository(db *sqlx.DB) BlobRepository {
	return &blobRepository{db: db}
}

func (r *blobRepository) Create(blob *model.Blob) error {
	query := `INSERT INTO blobs (key, content, content_type, size, created_at)
	          VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(query,
		blob.Key,
		blob.Content,
		blob.ContentType,
		blob.Size,
		blob.CreatedAt,
	)

	return err
}

func (r *blobRepository) ByKey(key string) (*model.Blob, error) {
	blob := &model.Blob{}
	query := `SELECT * FROM blobs WHERE key = $1`

	err := r.db.Get(blob, query, key)
	if err == sql.ErrNoRows {
		return nil, ErrBlobNotFound
	}

	return blob, err
}

// Delete is idempotent: deleting an unknown key is not an error.
func (r *blobRepository) Delete(key string) error {
	query := `DELETE FROM blobs WHERE key = $1`
	_, err := r.db.Exec(query, key)
	return err
}
