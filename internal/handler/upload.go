package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/studysheet/studysheet/internal/ctxkeys"
	"github.com/studysheet/studysheet/internal/service"
)

type UploadHandler struct {
	ingestionService  *service.IngestionService
	generationService *service.GenerationService
	generationHandler *GenerationHandler
	maxBytes          int64
	maxFiles          int
}

func NewUploadHandler(
	ingestionService *service.IngestionService,
	generationService *service.GenerationService,
	generationHandler *GenerationHandler,
	maxBytes int64,
	maxFiles int,
) *UploadHandler {
	return &UploadHandler{
		ingestionService:  ingestionService,
		generationService: generationService,
		generationHandler: generationHandler,
		maxBytes:          maxBytes,
		maxFiles:          maxFiles,
	}
}

// Upload attaches a multipart file to a pending generation. The file
// count ceiling lives here, on the caller side of the ingestion
// contract; the service trusts it.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ownerID := ctxkeys.OwnerID(r.Context())
	id := r.PathValue("id")

	g, err := h.generationService.Generation(ownerID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if len(g.InputFiles) >= h.maxFiles {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "maximum number of files reached"})
		return
	}

	// Bound the request body; a grossly oversized upload fails the parse
	// instead of buffering in memory.
	r.Body = http.MaxBytesReader(w, r.Body, 2*h.maxBytes+1<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "file field is required"})
		return
	}
	defer func() { _ = file.Close() }()

	// Read at most one byte past the ceiling; the validator turns the
	// overshoot into a size error.
	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read file"})
		return
	}

	updated, err := h.ingestionService.Attach(ownerID, id, header.Filename, data)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.generationHandler.toResponse(updated))
}

// Detach removes an attached file. The reference may be the raw blob key
// or a previously derived URL.
func (h *UploadHandler) Detach(w http.ResponseWriter, r *http.Request) {
	ownerID := ctxkeys.OwnerID(r.Context())
	id := r.PathValue("id")

	var body struct {
		File string `json:"file"`
	}
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil || body.File == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "file reference is required"})
		return
	}

	updated, err := h.ingestionService.Detach(ownerID, id, body.File)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.generationHandler.toResponse(updated))
}
