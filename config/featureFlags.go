package config

import (
	"os"
	"strings"
)

func boolFromEnv(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// AllowNegativeStock controls whether committing an order line may push an
// ingredient below zero. When false the commit fails with an insufficient
// stock error and nothing is written.
//
// Set via env:
// - ALLOW_NEGATIVE_STOCK=false
func AllowNegativeStock() bool {
	return boolFromEnv("ALLOW_NEGATIVE_STOCK", true)
}

// SkipMigrations disables AutoMigrate on startup (run it as a separate job instead).
func SkipMigrations() bool {
	return boolFromEnv("SKIP_MIGRATIONS", false)
}

// PublishOrderEvents enables the outbox dispatcher. Outbox rows are always
// written; only publishing is gated.
func PublishOrderEvents() bool {
	return boolFromEnv("PUBLISH_ORDER_EVENTS", false)
}
