package service

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/studysheet/studysheet/internal/db"
	"github.com/studysheet/studysheet/internal/repository"
	"github.com/studysheet/studysheet/internal/storage"
)

// memStore is an in-memory storage.Store for service tests.
type memStore struct {
	mu    sync.Mutex
	blobs map[string]memBlob
}

type memBlob struct {
	data        []byte
	contentType string
}

func newMemStore() *memStore {
	return &memStore{blobs: make(map[string]memBlob)}
}

func (s *memStore) Put(data []byte, contentType, desiredKey string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := desiredKey
	if key == "" {
		key = uuid.New().String()
	}
	s.blobs[key] = memBlob{data: data, contentType: contentType}
	return key, nil
}

func (s *memStore) Get(key string) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, ok := s.blobs[key]
	if !ok {
		return nil, "", storage.ErrNotFound
	}
	return blob.data, blob.contentType, nil
}

func (s *memStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs, key)
	return nil
}

func (s *memStore) URL(key string) (string, error) {
	return "/files/" + key, nil
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}

type fixture struct {
	db      *sqlx.DB
	repo    repository.GenerationRepository
	presets repository.PresetRepository
	store   *memStore

	generations *GenerationService
	ingestion   *IngestionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	database, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))

	repo := repository.NewGenerationRepository(database)
	presets := repository.NewPresetRepository(database)
	store := newMemStore()

	return &fixture{
		db:          database,
		repo:        repo,
		presets:     presets,
		store:       store,
		generations: NewGenerationService(repo, presets, store),
		ingestion:   NewIngestionService(repo, store, 5<<20),
	}
}

var pngBytes = append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 64)...)
