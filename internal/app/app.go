package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/studysheet/studysheet/internal/config"
	"github.com/studysheet/studysheet/internal/db"
	"github.com/studysheet/studysheet/internal/repository"
	"github.com/studysheet/studysheet/internal/service"
	"github.com/studysheet/studysheet/internal/storage"
)

type App struct {
	Cfg               *config.Config
	DB                *sqlx.DB
	Store             storage.Store
	AuthService       *service.AuthService
	PresetService     *service.PresetService
	GenerationService *service.GenerationService
	IngestionService  *service.IngestionService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	generationRepository := repository.NewGenerationRepository(database)
	presetRepository := repository.NewPresetRepository(database)

	// Storage (backend chosen once from config, see storage.New)
	store, err := storage.New(cfg, database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Services
	authService := service.NewAuthService(cfg.JWTSecret, cfg.IsProduction())
	presetService := service.NewPresetService(presetRepository)
	generationService := service.NewGenerationService(generationRepository, presetRepository, store)
	ingestionService := service.NewIngestionService(generationRepository, store, cfg.UploadMaxBytes)

	return &App{
		Cfg:               cfg,
		DB:                database,
		Store:             store,
		AuthService:       authService,
		PresetService:     presetService,
		GenerationService: generationService,
		IngestionService:  ingestionService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
