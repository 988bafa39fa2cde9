package config

import (
	"strings"
	"time"
)

type Config struct {
	Env     string
	Port    string
	LogMode string

	Database DatabaseConfig
	RedisURL string

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	// CatalogCacheTTL bounds how stale a cached topic catalog may be.
	CatalogCacheTTL time.Duration
	// MaxWriteRetries is the number of optimistic write attempts per user
	// update before a conflict is reported.
	MaxWriteRetries int
	// AchievementEvalInterval throttles explicit achievement checks per user.
	AchievementEvalInterval time.Duration
	LeaderboardSize         int
	AdminBatchConcurrency   int

	CodeRunner CodeRunnerConfig

	SeedFile    string
	SeedDefault bool
	CORSOrigins []string
}

type CodeRunnerConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
	Retries int
}

// Load reads the process configuration from the environment. The second
// return value lists variables that were set but could not be parsed.
func Load() (Config, []string) {
	r := &envReader{}
	cfg := Config{
		Env:      r.String("GO_ENV", "development"),
		Port:     r.String("PORT", "8080"),
		LogMode:  r.String("LOG_MODE", "development"),
		Database: loadDatabaseConfig(r),
		RedisURL: r.String("REDIS_URL", "redis://localhost:6379/0"),

		JWTSecret: r.String("JWT_SECRET_KEY", ""),
		JWTIssuer: r.String("JWT_ISSUER", "learnstack"),
		JWTTTL:    r.Duration("JWT_EXPIRATION_TIME", time.Hour),

		CatalogCacheTTL:         r.Duration("CATALOG_CACHE_TTL", 5*time.Minute),
		MaxWriteRetries:         r.Int("MAX_WRITE_RETRIES", 5),
		AchievementEvalInterval: r.Duration("ACHIEVEMENT_EVAL_INTERVAL", 30*time.Second),
		LeaderboardSize:         r.Int("LEADERBOARD_SIZE", 100),
		AdminBatchConcurrency:   r.Int("ADMIN_BATCH_CONCURRENCY", 8),

		CodeRunner: CodeRunnerConfig{
			URL:     r.String("CODE_RUNNER_URL", ""),
			APIKey:  r.String("CODE_RUNNER_API_KEY", ""),
			Timeout: r.Duration("CODE_RUNNER_TIMEOUT", 15*time.Second),
			Retries: r.Int("CODE_RUNNER_RETRIES", 2),
		},

		SeedFile:    r.String("SEED_FILE", ""),
		SeedDefault: r.Bool("SEED_DEFAULT", false),
		CORSOrigins: splitList(r.String("CORS_ORIGINS", "http://localhost:3000")),
	}
	if cfg.MaxWriteRetries < 1 {
		cfg.MaxWriteRetries = 1
	}
	if cfg.LeaderboardSize < 1 {
		cfg.LeaderboardSize = 100
	}
	if cfg.AdminBatchConcurrency < 1 {
		cfg.AdminBatchConcurrency = 1
	}
	return cfg, r.Invalid()
}

// Missing reports required settings that are empty outside of test mode.
func (c Config) Missing() []string {
	if c.Env == "test" {
		return nil
	}
	var missing []string
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET_KEY")
	}
	if c.Database.URI == "" {
		missing = append(missing, "MONGO_URI")
	}
	return missing
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
