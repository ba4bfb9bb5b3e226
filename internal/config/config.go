package config

import (
	"log/slog"
	"os"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port            string
	Env             string
	PostgresDSN     string
	MongoURI        string
	MongoDB         string
	RedisAddr       string
	RedisPassword   string
	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucket     string
	MinioUseSSL     bool
	JWTSecret       string
	AdminSecretCode string
	FrontendOrigin  string
}

func Load() *Config {
	cfg := &Config{
		Port:            getenv("PORT", "3000"),
		Env:             getenv("ENV", "development"),
		PostgresDSN:     getenv("POSTGRES_DSN", ""),
		MongoURI:        getenv("MONGO_URI", ""),
		MongoDB:         getenv("MONGO_DB", "adoptme"),
		RedisAddr:       getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword:   getenv("REDIS_PASSWORD", ""),
		MinioEndpoint:   getenv("MINIO_ENDPOINT", "minio:9000"),
		MinioAccessKey:  getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:  getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:     getenv("MINIO_BUCKET", "uploads"),
		MinioUseSSL:     getenv("MINIO_USE_SSL", "false") == "true",
		JWTSecret:       getenv("JWT_SECRET", "dev-secret-change-in-production"),
		AdminSecretCode: getenv("ADMIN_SECRET_CODE", ""),
		FrontendOrigin:  getenv("FRONTEND_ORIGIN", "http://localhost:5173"),
	}

	if cfg.Env == "production" && cfg.JWTSecret == "dev-secret-change-in-production" {
		slog.Error("JWT_SECRET must be set in production environment")
		os.Exit(1)
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
