// Package app initializes and orchestrates the main components of the Review
// Keeper application. It ties together the configuration, server, dispatcher,
// and database lifecycle.
package app

import (
	"log/slog"

	"github.com/sevigo/goframe/llms"

	"github.com/sevigo/review-keeper/internal/config"
	"github.com/sevigo/review-keeper/internal/core"
	"github.com/sevigo/review-keeper/internal/db"
	"github.com/sevigo/review-keeper/internal/llm"
	"github.com/sevigo/review-keeper/internal/server"
	"github.com/sevigo/review-keeper/internal/storage"
)

// App holds the main application components. Fields are exported so the CLI
// can reuse individual services without the HTTP surface.
type App struct {
	Cfg        *config.Config
	DB         *db.DB
	Store      storage.Store
	Model      llms.Model
	Prompts    *llm.PromptManager
	Dispatcher core.JobDispatcher
	Server     *server.Server
	Logger     *slog.Logger
}

// NewApp assembles the application from its already-constructed components.
func NewApp(
	cfg *config.Config,
	dbConn *db.DB,
	store storage.Store,
	model llms.Model,
	prompts *llm.PromptManager,
	dispatcher core.JobDispatcher,
	srv *server.Server,
	logger *slog.Logger,
) *App {
	return &App{
		Cfg:        cfg,
		DB:         dbConn,
		Store:      store,
		Model:      model,
		Prompts:    prompts,
		Dispatcher: dispatcher,
		Server:     srv,
		Logger:     logger,
	}
}

// Start runs the HTTP server.
func (a *App) Start() error {
	a.Logger.Info("starting Review Keeper",
		"server_port", a.Cfg.Server.Port,
		"max_workers", a.Cfg.Review.MaxWorkers)

	if err := a.Server.Start(); err != nil {
		a.Logger.Error("failed to start HTTP server", "error", err)
		return err
	}
	return nil
}

// Stop shuts down the application cleanly.
func (a *App) Stop() error {
	a.Logger.Info("shutting down Review Keeper services")

	// Stop the HTTP server first to prevent new incoming requests.
	serverErr := a.Server.Stop()
	if serverErr != nil {
		a.Logger.Error("error during HTTP server shutdown", "error", serverErr)
		// Continue to stop other components even if the server failed.
	}

	// Stop the job dispatcher, allowing in-flight jobs to finish.
	a.Dispatcher.Stop()

	if serverErr != nil {
		a.Logger.Error("Review Keeper stopped with errors", "error", serverErr)
		return serverErr
	}

	a.Logger.Info("Review Keeper stopped successfully")
	return nil
}
