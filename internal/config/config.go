package config

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables and .env file.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	// A helper function to get a required env var. It will fail if the env var is not set.
	getEnv := func(key string) string {
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		log.Fatalf("Error: Required environment variable %s is not set.", key)
		return "" // This line is never reached
	}
	// Optional env vars fall back to an empty string; the feature they gate is disabled.
	getOptionalEnv := func(key string) string {
		return os.Getenv(key)
	}

	cfg := Config{
		DBName:        getEnv("DB_NAME"),
		MigrationsDir: "./migrations",
		Port:          getEnv("PORT"),
		// An empty secret disables auth; only sane for local development.
		JWTSecret:     getOptionalEnv("JWT_SECRET"),
		Turso: TursoConfig{
			PrimaryURL: getOptionalEnv("TURSO_PRIMARY_URL"),
			AuthToken:  getOptionalEnv("TURSO_AUTH_TOKEN"),
		},
		Email: EmailConfig{
			APIKey:  getEnv("EMAIL_API_KEY"),
			BaseURL: getOptionalEnv("EMAIL_API_BASE_URL"),
			From:    getEnv("EMAIL_FROM"),
			ReplyTo: getOptionalEnv("EMAIL_REPLY_TO"),
		},
		Slack: SlackConfig{
			Token:     getOptionalEnv("SLACK_BOT_TOKEN"),
			ChannelID: getOptionalEnv("SLACK_CHANNEL_ID"),
		},
		R2: R2Config{
			AccountID:       getOptionalEnv("R2_ACCOUNT_ID"),
			AccessKeyID:     getOptionalEnv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: getOptionalEnv("R2_SECRET_ACCESS_KEY"),
			Bucket:          getOptionalEnv("R2_BUCKET"),
			PublicBaseURL:   getOptionalEnv("R2_PUBLIC_BASE_URL"),
		},
		ProjectID: getEnv("GCP_PROJECT"),
	}
	return cfg
}
