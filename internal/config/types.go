package config

// Config holds all configuration for the application.
type Config struct {
	DBName        string
	MigrationsDir string
	Port          string
	JWTSecret     string
	Turso         TursoConfig
	Email         EmailConfig
	Slack         SlackConfig
	R2            R2Config
	ProjectID     string
}

type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}

type EmailConfig struct {
	APIKey  string
	BaseURL string
	From    string
	ReplyTo string
}

type SlackConfig struct {
	Token     string
	ChannelID string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicBaseURL   string
}
