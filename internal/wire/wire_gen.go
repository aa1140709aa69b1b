// Code generated manually. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package wire

import (
	"context"
	"fmt"

	"github.com/sevigo/review-keeper/internal/app"
	"github.com/sevigo/review-keeper/internal/config"
	"github.com/sevigo/review-keeper/internal/db"
	"github.com/sevigo/review-keeper/internal/jobs"
	"github.com/sevigo/review-keeper/internal/llm"
	"github.com/sevigo/review-keeper/internal/server"
	"github.com/sevigo/review-keeper/internal/storage"
)

// InitializeApp creates and wires all application dependencies.
func InitializeApp(ctx context.Context) (*app.App, func(), error) {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logWriter := provideLogWriter(cfg)
	slogLogger := provideSlogLogger(provideLoggerConfig(cfg), logWriter)

	// Database
	dbConn, dbCleanup, err := db.NewDatabase(provideDBConfig(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Run migrations
	if err := dbConn.RunMigrations(); err != nil {
		dbCleanup()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Storage
	store := storage.NewStore(dbConn.DB)

	// Review model
	model, err := NewReviewModel(ctx, cfg, slogLogger)
	if err != nil {
		dbCleanup()
		return nil, nil, fmt.Errorf("failed to create review model: %w", err)
	}

	// Prompt Manager
	promptMgr, err := llm.NewPromptManager()
	if err != nil {
		dbCleanup()
		return nil, nil, fmt.Errorf("failed to create prompt manager: %w", err)
	}

	// Review Job
	reviewJob := jobs.NewReviewJob(cfg, model, promptMgr, store, slogLogger)

	// Dispatcher
	dispatcher := provideDispatcher(cfg, reviewJob, slogLogger)

	// Server
	srv := server.NewServer(ctx, cfg, dispatcher, slogLogger)

	// App
	application := app.NewApp(cfg, dbConn, store, model, promptMgr, dispatcher, srv, slogLogger)

	cleanup := func() {
		dbCleanup()
	}

	return application, cleanup, nil
}
