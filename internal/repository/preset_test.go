package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The seed migration ships three active presets (classic, flashcards,
// cheatsheet) and one inactive (mindmap).

func TestPresetActiveOrderedBySortOrder(t *testing.T) {
	repo := NewPresetRepository(newTestDB(t))

	presets, err := repo.Active()
	require.NoError(t, err)
	require.Len(t, presets, 3)

	assert.Equal(t, "classic", presets[0].Key)
	assert.Equal(t, "flashcards", presets[1].Key)
	assert.Equal(t, "cheatsheet", presets[2].Key)
	for _, p := range presets {
		assert.True(t, p.IsActive)
	}
}

func TestPresetFirstActive(t *testing.T) {
	repo := NewPresetRepository(newTestDB(t))

	preset, err := repo.FirstActive()
	require.NoError(t, err)
	assert.Equal(t, "classic", preset.Key)
	assert.Equal(t, 1, preset.SortOrder)
	assert.NotEmpty(t, preset.Prompt)
}

func TestPresetActiveByIDExcludesInactive(t *testing.T) {
	repo := NewPresetRepository(newTestDB(t))

	presets, err := repo.Active()
	require.NoError(t, err)

	got, err := repo.ActiveByID(presets[0].ID)
	require.NoError(t, err)
	assert.Equal(t, presets[0].Key, got.Key)

	// The mindmap preset is seeded inactive.
	_, err = repo.ActiveByID("3f1c1f6e-0b5a-4a7e-9a43-6f3f4a1b2c04")
	assert.ErrorIs(t, err, ErrPresetNotFound)

	_, err = repo.ActiveByID("missing")
	assert.ErrorIs(t, err, ErrPresetNotFound)
}
