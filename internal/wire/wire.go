//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"github.com/sevigo/review-keeper/internal/app"
	"github.com/sevigo/review-keeper/internal/config"
	"github.com/sevigo/review-keeper/internal/db"
	"github.com/sevigo/review-keeper/internal/jobs"
	"github.com/sevigo/review-keeper/internal/llm"
	"github.com/sevigo/review-keeper/internal/server"
	"github.com/sevigo/review-keeper/internal/storage"
)

func InitializeApp(ctx context.Context) (*app.App, func(), error) {
	wire.Build(
		app.NewApp,
		server.NewServer,
		config.LoadConfig,
		db.NewDatabase,
		storage.NewStore,
		jobs.NewReviewJob,
		llm.NewPromptManager,
		NewReviewModel,
		provideDispatcher,
		provideLoggerConfig,
		provideLogWriter,
		provideDBConfig,
		provideSlogLogger,
	)
	return &app.App{}, nil, nil
}
