package routes

import (
	"net/http"

	"github.com/studysheet/studysheet/internal/app"
	"github.com/studysheet/studysheet/internal/handler"
	"github.com/studysheet/studysheet/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	generation := handler.NewGenerationHandler(app.GenerationService, app.Store)
	upload := handler.NewUploadHandler(app.IngestionService, app.GenerationService, generation, app.Cfg.UploadMaxBytes, app.Cfg.UploadMaxFiles)
	file := handler.NewFileHandler(app.Store)
	preset := handler.NewPresetHandler(app.PresetService)
	worker := handler.NewWorkerHandler(app.GenerationService, app.Store)

	mux := http.NewServeMux()

	uploadLimiter := middleware.RateLimitUploads()
	requireWorker := middleware.RequireWorker(app.Cfg.WorkerToken)

	// Style catalog
	mux.HandleFunc("GET /api/presets", middleware.RequireAuth(preset.List))

	// Generations
	mux.HandleFunc("GET /api/generation", middleware.RequireAuth(generation.Current))
	mux.HandleFunc("GET /api/generations", middleware.RequireAuth(generation.List))
	mux.HandleFunc("GET /api/generations/{id}", middleware.RequireAuth(generation.Show))
	mux.HandleFunc("PATCH /api/generations/{id}/text", middleware.RequireAuth(generation.UpdateText))
	mux.HandleFunc("PATCH /api/generations/{id}/style", middleware.RequireAuth(generation.UpdateStyle))
	mux.HandleFunc("PATCH /api/generations/{id}/flags", middleware.RequireAuth(generation.UpdateFlags))
	mux.HandleFunc("POST /api/generations/{id}/submit", middleware.RequireAuth(generation.Submit))
	mux.HandleFunc("DELETE /api/generations/{id}", middleware.RequireAuth(generation.Delete))

	// Input files
	mux.HandleFunc("POST /api/generations/{id}/files", uploadLimiter(middleware.RequireAuth(upload.Upload)))
	mux.HandleFunc("DELETE /api/generations/{id}/files", middleware.RequireAuth(upload.Detach))

	// Blob streaming (embedded storage backend)
	mux.HandleFunc("GET /files/{key}", middleware.RequireAuth(file.Serve))

	// Worker boundary
	mux.HandleFunc("POST /worker/claim", requireWorker(worker.Claim))
	mux.HandleFunc("POST /worker/generations/{id}/complete", requireWorker(worker.Complete))
	mux.HandleFunc("POST /worker/generations/{id}/fail", requireWorker(worker.Fail))

	// Global middleware
	return middleware.Chain(mux,
		middleware.RequestLogging,
		middleware.AuthMiddleware(app.AuthService),
	)
}
