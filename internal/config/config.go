package config

import (
	"os"
	"strings"
	"time"
)

// Config is shared by both binaries; each reads only the fields its own
// server composition root needs (spec §0 service topology).
type Config struct {
	ProjectServicePort string
	TaskServicePort    string

	MongoDBURI      string
	MongoDBDatabase string

	JWTSecret string

	// UserServiceURL backs the ProfileResolver (spec §1 Out of scope).
	UserServiceURL string
	// ProjectServiceURL and TaskServiceURL are how the two services call
	// each other's internal endpoints (spec §4.4, SPEC_FULL §3).
	ProjectServiceURL string
	TaskServiceURL    string
	// InternalAuthSecret guards every /internal endpoint (spec §4.4).
	InternalAuthSecret string

	// PermissionCacheTTL bounds how stale a cached role may serve.
	PermissionCacheTTL time.Duration

	NotifierWebhookURL string

	FrontendURL    string
	CORSOrigins    []string
	LogLevel       string
	Environment    string
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite string
}

func Load() *Config {
	return &Config{
		ProjectServicePort: getEnv("PROJECT_SERVICE_PORT", "8081"),
		TaskServicePort:    getEnv("TASK_SERVICE_PORT", "8082"),

		MongoDBURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDBDatabase: getEnv("MONGODB_DATABASE", "infrantery"),

		JWTSecret: getEnv("JWT_SECRET", "your-super-secret-key"),

		UserServiceURL:     getEnv("USER_SERVICE_URL", "http://localhost:8080"),
		ProjectServiceURL:  getEnv("PROJECT_SERVICE_URL", "http://localhost:8081"),
		TaskServiceURL:     getEnv("TASK_SERVICE_URL", "http://localhost:8082"),
		InternalAuthSecret: getEnv("INTERNAL_AUTH_SECRET", "shared-internal-secret"),

		PermissionCacheTTL: parseDuration(getEnv("PERMISSION_CACHE_TTL", "10s")),

		NotifierWebhookURL: getEnv("NOTIFIER_WEBHOOK_URL", ""),

		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),
		CORSOrigins:    parseCSV(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		CookieDomain:   getEnv("COOKIE_DOMAIN", "localhost"),
		CookieSecure:   getEnv("COOKIE_SECURE", "false") == "true",
		CookieSameSite: getEnv("COOKIE_SAMESITE", "lax"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

func parseCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
