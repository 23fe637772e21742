package config

import "github.com/kelseyhightower/envconfig"

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port        int    `envconfig:"PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	Version     string `envconfig:"VERSION" default:"dev"`
	BcryptCost  int    `envconfig:"BCRYPT_COST" default:"12"`

	SessionSecret   string `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTLHours int    `envconfig:"SESSION_TTL_HOURS" default:"72"`

	S3Region       string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Bucket       string `envconfig:"S3_BUCKET_NAME" default:""`
	S3AccessKey    string `envconfig:"S3_ACCESS_KEY" default:""`
	S3SecretKey    string `envconfig:"S3_SECRET_ACCESS_KEY" default:""`
	S3BaseEndpoint string `envconfig:"S3_BASE_ENDPOINT" default:""`
	AvatarFolder   string `envconfig:"AVATAR_FOLDER" default:"avatars"`

	GoogleClientID     string `envconfig:"OAUTH_GOOGLE_CLIENT_ID" default:""`
	GoogleClientSecret string `envconfig:"OAUTH_GOOGLE_CLIENT_SECRET" default:""`
	GithubClientID     string `envconfig:"OAUTH_GITHUB_CLIENT_ID" default:""`
	GithubClientSecret string `envconfig:"OAUTH_GITHUB_CLIENT_SECRET" default:""`
	OAuthCallbackBase  string `envconfig:"OAUTH_CALLBACK_BASE" default:"http://localhost:8080"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
