package handler

import (
	"net/http"

	"github.com/studysheet/studysheet/internal/service"
)

type PresetHandler struct {
	presetService *service.PresetService
}

func NewPresetHandler(presetService *service.PresetService) *PresetHandler {
	return &PresetHandler{presetService: presetService}
}

// presetResponse deliberately omits the prompt: preset prompts are
// private and never leave the server.
type presetResponse struct {
	ID        string `json:"id"`
	Key       string `json:"key"`
	Title     string `json:"title"`
	ImageURL  string `json:"image_url"`
	SortOrder int    `json:"sort_order"`
}

func (h *PresetHandler) List(w http.ResponseWriter, r *http.Request) {
	presets, err := h.presetService.Active()
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]presetResponse, 0, len(presets))
	for _, p := range presets {
		out = append(out, presetResponse{
			ID:        p.ID,
			Key:       p.Key,
			Title:     p.Title,
			ImageURL:  p.ImageURL,
			SortOrder: p.SortOrder,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
