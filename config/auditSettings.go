package config

import (
	"os"
	"strings"
	"time"
)

func ReportCacheEnabled() bool {
	return boolFromEnv("ENABLE_REPORT_CACHE", false)
}

func ReportCacheTTL() time.Duration {
	return time.Duration(intFromEnv("REPORT_CACHE_TTL_SECONDS", 120)) * time.Second
}

func OutboxEnabled() bool {
	return boolFromEnv("AUDIT_OUTBOX_ENABLED", true)
}

func ExportURLTTL() time.Duration {
	return time.Duration(intFromEnv("EXPORT_URL_TTL_MINUTES", 15)) * time.Minute
}

func SkipMigrations() bool {
	return boolFromEnv("SKIP_MIGRATIONS", false)
}

func IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production")
}
