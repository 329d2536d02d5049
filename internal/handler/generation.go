package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/studysheet/studysheet/internal/ctxkeys"
	"github.com/studysheet/studysheet/internal/model"
	"github.com/studysheet/studysheet/internal/service"
	"github.com/studysheet/studysheet/internal/storage"
)

type GenerationHandler struct {
	generationService *service.GenerationService
	store             storage.Store
}

func NewGenerationHandler(generationService *service.GenerationService, store storage.Store) *GenerationHandler {
	return &GenerationHandler{
		generationService: generationService,
		store:             store,
	}
}

type styleResponse struct {
	Mode          string `json:"mode"`
	PresetID      string `json:"preset_id,omitempty"`
	CustomPrompt  string `json:"custom_prompt,omitempty"`
	SnapshotTitle string `json:"snapshot_title"`
}

// generationResponse is the owner-facing view. File URLs are derived from
// the stored keys on every read; the snapshot prompt stays server-side
// because preset prompts are private.
type generationResponse struct {
	ID               string        `json:"id"`
	Status           string        `json:"status"`
	InputText        string        `json:"input_text"`
	InputFiles       []string      `json:"input_files"`
	InputFileURLs    []string      `json:"input_file_urls"`
	Style            styleResponse `json:"style"`
	OutputFiles      []string      `json:"output_files,omitempty"`
	OutputFileURLs   []string      `json:"output_file_urls,omitempty"`
	PreviewImageURLs []string      `json:"preview_image_urls,omitempty"`
	Error            string        `json:"error,omitempty"`
	IsFavourite      bool          `json:"is_favourite"`
	IsDownloaded     bool          `json:"is_downloaded"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

func (h *GenerationHandler) toResponse(g *model.Generation) generationResponse {
	return generationResponse{
		ID:         g.ID,
		Status:     g.Status,
		InputText:  g.InputText,
		InputFiles: g.InputFiles,
		Style: styleResponse{
			Mode:          g.StyleMode,
			PresetID:      g.PresetID,
			CustomPrompt:  g.CustomPrompt,
			SnapshotTitle: g.SnapshotTitle,
		},
		InputFileURLs:    h.urls(g.InputFiles),
		OutputFiles:      g.OutputFiles,
		OutputFileURLs:   h.urls(g.OutputFiles),
		PreviewImageURLs: h.urls(g.PreviewImages),
		Error:            g.Error,
		IsFavourite:      g.IsFavourite,
		IsDownloaded:     g.IsDownloaded,
		CreatedAt:        g.CreatedAt,
		UpdatedAt:        g.UpdatedAt,
	}
}

// urls derives read URLs for blob keys. A key that fails to resolve is
// skipped with a log line rather than failing the whole read.
func (h *GenerationHandler) urls(keys model.StringList) []string {
	if len(keys) == 0 {
		return nil
	}

	out := make([]string, 0, len(keys))
	for _, key := range keys {
		url, err := h.store.URL(key)
		if err != nil {
			slog.Error("failed to resolve blob URL", "error", err, "key", key)
			continue
		}
		out = append(out, url)
	}
	return out
}

// Current returns the owner's pending generation, creating one on first
// access to the authoring surface.
func (h *GenerationHandler) Current(w http.ResponseWriter, r *http.Request) {
	ownerID := ctxkeys.OwnerID(r.Context())

	g, err := h.generationService.Current(ownerID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(g))
}

func (h *GenerationHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := ctxkeys.OwnerID(r.Context())

	generations, err := h.generationService.Generations(ownerID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]generationResponse, 0, len(generations))
	for _, g := range generations {
		out = append(out, h.toResponse(g))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *GenerationHandler) Show(w http.ResponseWriter, r *http.Request) {
	ownerID := ctxkeys.OwnerID(r.Context())
	id := r.PathValue("id")

	g, err := h.generationService.Generation(ownerID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(g))
}

func (h *GenerationHandler) UpdateText(w http.ResponseWriter, r *http.Request) {
	ownerID := ctxkeys.OwnerID(r.Context())
	id := r.PathValue("id")

	var body struct {
		InputText string `json:"input_text"`
	}
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	g, err := h.generationService.UpdateText(ownerID, id, body.InputText)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(g))
}

func (h *GenerationHandler) UpdateStyle(w http.ResponseWriter, r *http.Request) {
	ownerID := ctxkeys.OwnerID(r.Context())
	id := r.PathValue("id")

	var body struct {
		Mode         string `json:"mode"`
		PresetID     string `json:"preset_id"`
		CustomPrompt string `json:"custom_prompt"`
	}
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	g, err := h.generationService.SetStyle(ownerID, id, service.StyleInput{
		Mode:         body.Mode,
		PresetID:     body.PresetID,
		CustomPrompt: body.CustomPrompt,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(g))
}

func (h *GenerationHandler) UpdateFlags(w http.ResponseWriter, r *http.Request) {
	ownerID := ctxkeys.OwnerID(r.Context())
	id := r.PathValue("id")

	var body struct {
		IsFavourite  *bool `json:"is_favourite"`
		IsDownloaded *bool `json:"is_downloaded"`
	}
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	g, err := h.generationService.SetFlags(ownerID, id, body.IsFavourite, body.IsDownloaded)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(g))
}

func (h *GenerationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ownerID := ctxkeys.OwnerID(r.Context())
	id := r.PathValue("id")

	g, err := h.generationService.Submit(ownerID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(g))
}

func (h *GenerationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := ctxkeys.OwnerID(r.Context())
	id := r.PathValue("id")

	err := h.generationService.Delete(ownerID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
