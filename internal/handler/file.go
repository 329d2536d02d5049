package handler

import (
	"net/http"
	"strconv"

	"github.com/studysheet/studysheet/internal/storage"
)

// FileHandler streams blobs for the embedded backend, where no external
// pre-signing exists. Requires an authenticated caller; it does not
// re-check that the key is reachable from one of the caller's own
// generations (keys are unguessable UUIDs).
type FileHandler struct {
	store storage.Store
}

func NewFileHandler(store storage.Store) *FileHandler {
	return &FileHandler{store: store}
}

func (h *FileHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	data, contentType, err := h.store.Get(key)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	_, _ = w.Write(data)
}
