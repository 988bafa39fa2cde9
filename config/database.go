package config

import (
	"time"
)

type DatabaseConfig struct {
	URI             string
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration
	DatabaseName    string
	RetryWrites     bool
}

func loadDatabaseConfig(r *envReader) DatabaseConfig {
	return DatabaseConfig{
		URI:             r.String("MONGO_URI", "mongodb://localhost:27017"),
		MaxPoolSize:     r.Uint64("MONGO_MAX_POOL_SIZE", 100),
		MinPoolSize:     r.Uint64("MONGO_MIN_POOL_SIZE", 10),
		MaxConnIdleTime: r.Duration("MONGO_MAX_CONN_IDLE_TIME", 60*time.Second),
		ConnectTimeout:  r.Duration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
		DatabaseName:    r.String("MONGO_DB", "learnstack"),
		RetryWrites:     r.Bool("MONGO_RETRY_WRITES", true),
	}
}
