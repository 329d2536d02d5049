package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studysheet/studysheet/internal/model"
	"github.com/studysheet/studysheet/internal/repository"
	"github.com/studysheet/studysheet/internal/storage"
)

func TestCurrentCreatesWithDefaultPreset(t *testing.T) {
	f := newFixture(t)

	g, err := f.generations.Current("owner-a")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, g.Status)
	assert.Equal(t, model.StyleModePreset, g.StyleMode)
	// First active preset by sort order is "Classic Outline".
	assert.Equal(t, "Classic Outline", g.SnapshotTitle)
	assert.NotEmpty(t, g.SnapshotPrompt)
	assert.Empty(t, g.InputFiles)

	// Second access returns the same pending record.
	again, err := f.generations.Current("owner-a")
	require.NoError(t, err)
	assert.Equal(t, g.ID, again.ID)
}

func TestUpdateTextPendingOnly(t *testing.T) {
	f := newFixture(t)

	g, err := f.generations.Current("owner-a")
	require.NoError(t, err)

	updated, err := f.generations.UpdateText("owner-a", g.ID, "mitochondria notes")
	require.NoError(t, err)
	assert.Equal(t, "mitochondria notes", updated.InputText)

	_, err = f.generations.Submit("owner-a", g.ID)
	require.NoError(t, err)

	_, err = f.generations.UpdateText("owner-a", g.ID, "too late")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSetStyleCustomSnapshot(t *testing.T) {
	f := newFixture(t)

	g, err := f.generations.Current("owner-a")
	require.NoError(t, err)

	updated, err := f.generations.SetStyle("owner-a", g.ID, StyleInput{
		Mode:         model.StyleModeCustom,
		CustomPrompt: "make it colorful",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StyleModeCustom, updated.StyleMode)
	assert.Equal(t, "make it colorful", updated.CustomPrompt)
	assert.Equal(t, "Custom", updated.SnapshotTitle)
	assert.Equal(t, "make it colorful", updated.SnapshotPrompt)
	assert.Empty(t, updated.PresetID)
}

func TestSetStylePresetSnapshotFrozen(t *testing.T) {
	f := newFixture(t)

	presets, err := f.presets.Active()
	require.NoError(t, err)
	flashcards := presets[1]

	g, err := f.generations.Current("owner-a")
	require.NoError(t, err)

	updated, err := f.generations.SetStyle("owner-a", g.ID, StyleInput{
		Mode:     model.StyleModePreset,
		PresetID: flashcards.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, flashcards.Title, updated.SnapshotTitle)
	assert.Equal(t, flashcards.Prompt, updated.SnapshotPrompt)

	// A later catalog edit must not change the captured snapshot.
	_, err = f.db.Exec(`UPDATE style_presets SET title = 'Renamed', prompt = 'rewritten' WHERE id = $1`, flashcards.ID)
	require.NoError(t, err)

	got, err := f.generations.Generation("owner-a", g.ID)
	require.NoError(t, err)
	assert.Equal(t, flashcards.Title, got.SnapshotTitle)
	assert.Equal(t, flashcards.Prompt, got.SnapshotPrompt)
}

func TestSetStyleValidation(t *testing.T) {
	f := newFixture(t)

	g, err := f.generations.Current("owner-a")
	require.NoError(t, err)

	_, err = f.generations.SetStyle("owner-a", g.ID, StyleInput{Mode: model.StyleModeCustom, CustomPrompt: "   "})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.generations.SetStyle("owner-a", g.ID, StyleInput{Mode: model.StyleModePreset, PresetID: "nope"})
	assert.ErrorIs(t, err, ErrValidation)

	// The mindmap preset is seeded inactive.
	_, err = f.generations.SetStyle("owner-a", g.ID, StyleInput{Mode: model.StyleModePreset, PresetID: "3f1c1f6e-0b5a-4a7e-9a43-6f3f4a1b2c04"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.generations.SetStyle("owner-a", g.ID, StyleInput{Mode: "freestyle"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSubmitRequiresInput(t *testing.T) {
	f := newFixture(t)

	g, err := f.generations.Current("owner-a")
	require.NoError(t, err)

	_, err = f.generations.Submit("owner-a", g.ID)
	assert.ErrorIs(t, err, ErrValidation)

	// Status must be untouched by the failed submit.
	got, err := f.generations.Generation("owner-a", g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
}

func TestSubmitQueuesAndClearsStaleState(t *testing.T) {
	f := newFixture(t)

	g, err := f.generations.Current("owner-a")
	require.NoError(t, err)

	_, err = f.generations.UpdateText("owner-a", g.ID, "cell biology")
	require.NoError(t, err)

	// Simulate leftovers from an earlier failed run.
	errMsg := "model exploded"
	previews := model.StringList{"previews/old.png"}
	_, err = f.repo.ConditionalUpdate(g.ID, "owner-a", model.StatusPending, repository.GenerationPatch{
		Error:         &errMsg,
		PreviewImages: &previews,
	})
	require.NoError(t, err)

	submitted, err := f.generations.Submit("owner-a", g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusQueued, submitted.Status)
	assert.Empty(t, submitted.Error)
	assert.Empty(t, submitted.PreviewImages)

	// Double submit conflicts.
	_, err = f.generations.Submit("owner-a", g.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSubmitRejectsRetiredPreset(t *testing.T) {
	f := newFixture(t)

	g, err := f.generations.Current("owner-a")
	require.NoError(t, err)
	_, err = f.generations.UpdateText("owner-a", g.ID, "notes")
	require.NoError(t, err)

	// Retire the chosen preset between style selection and submit.
	_, err = f.db.Exec(`UPDATE style_presets SET is_active = $1 WHERE id = $2`, false, g.PresetID)
	require.NoError(t, err)

	_, err = f.generations.Submit("owner-a", g.ID)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestConcurrentSubmitExactlyOneWins(t *testing.T) {
	f := newFixture(t)

	g, err := f.generations.Current("owner-a")
	require.NoError(t, err)
	_, err = f.generations.UpdateText("owner-a", g.ID, "race me")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = f.generations.Submit("owner-a", g.ID)
		}()
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrInvalidState):
			conflicts++
		default:
			t.Fatalf("unexpected submit error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, conflicts)

	got, err := f.generations.Generation("owner-a", g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusQueued, got.Status)
	assert.Equal(t, "race me", got.InputText)
}

func TestCrossOwnerAlwaysNotFound(t *testing.T) {
	f := newFixture(t)

	g, err := f.generations.Current("owner-a")
	require.NoError(t, err)

	_, err = f.generations.Generation("owner-b", g.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.generations.UpdateText("owner-b", g.ID, "hijack")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.generations.Submit("owner-b", g.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = f.generations.Delete("owner-b", g.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetFlagsAnyStatus(t *testing.T) {
	f := newFixture(t)

	g, err := f.generations.Current("owner-a")
	require.NoError(t, err)
	_, err = f.generations.UpdateText("owner-a", g.ID, "notes")
	require.NoError(t, err)
	_, err = f.generations.Submit("owner-a", g.ID)
	require.NoError(t, err)

	fav := true
	updated, err := f.generations.SetFlags("owner-a", g.ID, &fav, nil)
	require.NoError(t, err)
	assert.True(t, updated.IsFavourite)
	assert.False(t, updated.IsDownloaded)
	assert.Equal(t, model.StatusQueued, updated.Status)

	_, err = f.generations.SetFlags("owner-a", g.ID, nil, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteCascadesBlobs(t *testing.T) {
	f := newFixture(t)

	g, err := f.generations.Current("owner-a")
	require.NoError(t, err)

	inKey, err := f.store.Put([]byte("in"), "image/png", "inputs/in.png")
	require.NoError(t, err)
	outKey, err := f.store.Put([]byte("out"), "application/pdf", "outputs/out.pdf")
	require.NoError(t, err)

	inputs := model.StringList{inKey}
	outputs := model.StringList{outKey}
	_, err = f.repo.ConditionalUpdate(g.ID, "owner-a", model.StatusPending, repository.GenerationPatch{
		InputFiles:  &inputs,
		OutputFiles: &outputs,
	})
	require.NoError(t, err)

	require.NoError(t, f.generations.Delete("owner-a", g.ID))

	_, _, err = f.store.Get(inKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, _, err = f.store.Get(outKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = f.generations.Generation("owner-a", g.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWorkerClaimCompleteFail(t *testing.T) {
	f := newFixture(t)

	_, err := f.generations.ClaimNext()
	assert.ErrorIs(t, err, ErrNoQueued)

	g, err := f.generations.Current("owner-a")
	require.NoError(t, err)
	_, err = f.generations.UpdateText("owner-a", g.ID, "notes")
	require.NoError(t, err)
	_, err = f.generations.Submit("owner-a", g.ID)
	require.NoError(t, err)

	claimed, err := f.generations.ClaimNext()
	require.NoError(t, err)
	assert.Equal(t, g.ID, claimed.ID)
	assert.Equal(t, model.StatusProcessing, claimed.Status)

	// Nothing left to claim.
	_, err = f.generations.ClaimNext()
	assert.ErrorIs(t, err, ErrNoQueued)

	err = f.generations.CompleteProcessing(g.ID, WorkerResult{
		OutputFiles:   []string{"outputs/sheet.pdf"},
		PreviewImages: []string{"previews/page1.png"},
	})
	require.NoError(t, err)

	got, err := f.generations.Generation("owner-a", g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessed, got.Status)
	assert.Equal(t, model.StringList{"outputs/sheet.pdf"}, got.OutputFiles)
	assert.Equal(t, model.StringList{"previews/page1.png"}, got.PreviewImages)
	assert.Empty(t, got.Error)

	// Completing again is a conflict, not a silent overwrite.
	err = f.generations.CompleteProcessing(g.ID, WorkerResult{OutputFiles: []string{"x"}})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestWorkerFailSetsError(t *testing.T) {
	f := newFixture(t)

	g, err := f.generations.Current("owner-a")
	require.NoError(t, err)
	_, err = f.generations.UpdateText("owner-a", g.ID, "notes")
	require.NoError(t, err)
	_, err = f.generations.Submit("owner-a", g.ID)
	require.NoError(t, err)
	_, err = f.generations.ClaimNext()
	require.NoError(t, err)

	require.NoError(t, f.generations.FailProcessing(g.ID, "upstream model timeout"))

	got, err := f.generations.Generation("owner-a", g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, got.Status)
	assert.Equal(t, "upstream model timeout", got.Error)
}

func TestWorkerCallbackOnDeletedRecord(t *testing.T) {
	f := newFixture(t)

	g, err := f.generations.Current("owner-a")
	require.NoError(t, err)
	_, err = f.generations.UpdateText("owner-a", g.ID, "notes")
	require.NoError(t, err)
	_, err = f.generations.Submit("owner-a", g.ID)
	require.NoError(t, err)
	_, err = f.generations.ClaimNext()
	require.NoError(t, err)

	// Owner deletes while the worker is processing.
	require.NoError(t, f.generations.Delete("owner-a", g.ID))

	err = f.generations.CompleteProcessing(g.ID, WorkerResult{OutputFiles: []string{"x"}})
	assert.ErrorIs(t, err, ErrNotFound)
}
