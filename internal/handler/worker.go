package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/studysheet/studysheet/internal/model"
	"github.com/studysheet/studysheet/internal/service"
	"github.com/studysheet/studysheet/internal/storage"
)

// WorkerHandler is the worker boundary: the only caller allowed to drive
// queued -> processing -> processed/failed. Routes are guarded by the
// shared worker token.
type WorkerHandler struct {
	generationService *service.GenerationService
	store             storage.Store
}

func NewWorkerHandler(generationService *service.GenerationService, store storage.Store) *WorkerHandler {
	return &WorkerHandler{
		generationService: generationService,
		store:             store,
	}
}

// claimResponse carries everything the worker needs, including the
// snapshot prompt that owner-facing responses withhold.
type claimResponse struct {
	ID             string    `json:"id"`
	InputText      string    `json:"input_text"`
	InputFiles     []string  `json:"input_files"`
	InputFileURLs  []string  `json:"input_file_urls"`
	SnapshotTitle  string    `json:"snapshot_title"`
	SnapshotPrompt string    `json:"snapshot_prompt"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// Claim hands the oldest queued generation to the worker. 204 when the
// queue is empty.
func (h *WorkerHandler) Claim(w http.ResponseWriter, r *http.Request) {
	g, err := h.generationService.ClaimNext()
	if err != nil {
		if errors.Is(err, service.ErrNoQueued) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, claimResponse{
		ID:             g.ID,
		InputText:      g.InputText,
		InputFiles:     g.InputFiles,
		InputFileURLs:  h.urls(g.InputFiles),
		SnapshotTitle:  g.SnapshotTitle,
		SnapshotPrompt: g.SnapshotPrompt,
		SubmittedAt:    g.UpdatedAt,
	})
}

// Complete records the worker's result and transitions the generation to
// processed. Conditional on expected status processing, so a record the
// owner deleted mid-flight is reported, not clobbered.
func (h *WorkerHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var body struct {
		OutputFiles   []string `json:"output_files"`
		PreviewImages []string `json:"preview_images"`
	}
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if len(body.OutputFiles) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "output_files is required"})
		return
	}

	err = h.generationService.CompleteProcessing(id, service.WorkerResult{
		OutputFiles:   body.OutputFiles,
		PreviewImages: body.PreviewImages,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Fail records a worker failure.
func (h *WorkerHandler) Fail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var body struct {
		Error string `json:"error"`
	}
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil || body.Error == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "error message is required"})
		return
	}

	err = h.generationService.FailProcessing(id, body.Error)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *WorkerHandler) urls(keys model.StringList) []string {
	if len(keys) == 0 {
		return nil
	}

	out := make([]string, 0, len(keys))
	for _, key := range keys {
		url, err := h.store.URL(key)
		if err != nil {
			continue
		}
		out = append(out, url)
	}
	return out
}
