// Package config loads the application's configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/review-keeper/internal/logger"
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port string
}

// GitHubConfig holds the GitHub App credentials and bot identity.
type GitHubConfig struct {
	AppID          int64
	WebhookSecret  string
	PrivateKeyPath string
	// BotLogin is the login of the App's bot user, used to recognize the
	// engine's own threads and reviewer entries on a pull request.
	BotLogin string
}

// DBConfig holds the PostgreSQL connection settings.
type DBConfig struct {
	Host            string
	Port            int
	Username        string
	Password        string
	Database        string
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// AIConfig selects and configures the generative review model.
type AIConfig struct {
	Provider       string
	OllamaHost     string
	GeminiAPIKey   string
	GeneratorModel string
	// Policy is the review policy text injected into every prompt.
	Policy string
}

// ReviewConfig carries the budgets that bound a single review run.
type ReviewConfig struct {
	MaxFilesToReview int
	MaxIssuesPerFile int
	MaxDiffBytes     int
	WarnBudget       int
	MaxWorkers       int
}

// Config holds the application's configuration values.
type Config struct {
	Server   ServerConfig
	Logging  logger.Config
	Database DBConfig
	GitHub   GitHubConfig
	AI       AIConfig
	Review   ReviewConfig
}

// LoadConfig reads configuration from environment variables and a .env file,
// sets sensible defaults, and validates required fields. It uses the Viper
// library to handle configuration loading and precedence.
func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("LOG_OUTPUT", "stdout")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_USER", "keeper")
	viper.SetDefault("DB_NAME", "review_keeper")
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	viper.SetDefault("DB_CONN_MAX_IDLE_TIME", "5m")
	viper.SetDefault("GITHUB_PRIVATE_KEY_PATH", "keys/review-keeper-app.private-key.pem")
	viper.SetDefault("GITHUB_BOT_LOGIN", "review-keeper[bot]")
	viper.SetDefault("LLM_PROVIDER", "ollama")
	viper.SetDefault("OLLAMA_HOST", "http://localhost:11434")
	viper.SetDefault("GENERATOR_MODEL_NAME", "gemma3:latest")
	viper.SetDefault("REVIEW_POLICY", "default")
	viper.SetDefault("MAX_FILES_TO_REVIEW", 50)
	viper.SetDefault("MAX_ISSUES_PER_FILE", 5)
	viper.SetDefault("MAX_DIFF_BYTES", 131072)
	viper.SetDefault("WARN_BUDGET", 3)
	viper.SetDefault("MAX_WORKERS", 5)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", "error", err)
		}
	}

	if viper.GetInt64("GITHUB_APP_ID") == 0 {
		return nil, fmt.Errorf("GITHUB_APP_ID must be set")
	}
	if viper.GetString("GITHUB_WEBHOOK_SECRET") == "" {
		return nil, fmt.Errorf("GITHUB_WEBHOOK_SECRET must be set")
	}

	// Special handling for the Gemini generator model name.
	generatorModel := viper.GetString("GENERATOR_MODEL_NAME")
	if viper.GetString("LLM_PROVIDER") == "gemini" {
		if geminiModel := viper.GetString("GEMINI_GENERATOR_MODEL_NAME"); geminiModel != "" {
			generatorModel = geminiModel
		} else {
			generatorModel = "gemini-2.5-flash"
		}
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
		},
		Logging: logger.Config{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
			Output: viper.GetString("LOG_OUTPUT"),
		},
		Database: DBConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			Username:        viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Database:        viper.GetString("DB_NAME"),
			ConnMaxLifetime: viper.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: viper.GetDuration("DB_CONN_MAX_IDLE_TIME"),
		},
		GitHub: GitHubConfig{
			AppID:          viper.GetInt64("GITHUB_APP_ID"),
			WebhookSecret:  viper.GetString("GITHUB_WEBHOOK_SECRET"),
			PrivateKeyPath: viper.GetString("GITHUB_PRIVATE_KEY_PATH"),
			BotLogin:       viper.GetString("GITHUB_BOT_LOGIN"),
		},
		AI: AIConfig{
			Provider:       viper.GetString("LLM_PROVIDER"),
			OllamaHost:     viper.GetString("OLLAMA_HOST"),
			GeminiAPIKey:   viper.GetString("GEMINI_API_KEY"),
			GeneratorModel: generatorModel,
			Policy:         viper.GetString("REVIEW_POLICY"),
		},
		Review: ReviewConfig{
			MaxFilesToReview: viper.GetInt("MAX_FILES_TO_REVIEW"),
			MaxIssuesPerFile: viper.GetInt("MAX_ISSUES_PER_FILE"),
			MaxDiffBytes:     viper.GetInt("MAX_DIFF_BYTES"),
			WarnBudget:       viper.GetInt("WARN_BUDGET"),
			MaxWorkers:       viper.GetInt("MAX_WORKERS"),
		},
	}, nil
}
