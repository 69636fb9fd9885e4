package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "MONGO_DATABASE", "REDIS_ADDR", "SUGGESTION_CACHE_TTL", "JWT_SECRET", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Env != "development" || cfg.IsProduction() {
		t.Errorf("Env = %q", cfg.Env)
	}
	if cfg.MongoDatabase != "memepie" {
		t.Errorf("MongoDatabase = %q", cfg.MongoDatabase)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want empty", cfg.RedisAddr)
	}
	if cfg.SuggestionCacheTTL != 5*time.Minute {
		t.Errorf("SuggestionCacheTTL = %v", cfg.SuggestionCacheTTL)
	}
	if cfg.JWTSecret == "" {
		t.Error("JWTSecret has no default")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("ENV", "production")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("SUGGESTION_CACHE_TTL", "30s")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := Load()
	if cfg.Port != "3000" || !cfg.IsProduction() {
		t.Errorf("Port=%q Env=%q", cfg.Port, cfg.Env)
	}
	if cfg.RedisAddr != "localhost:6379" || cfg.RedisDB != 2 {
		t.Errorf("redis = %q/%d", cfg.RedisAddr, cfg.RedisDB)
	}
	if cfg.SuggestionCacheTTL != 30*time.Second {
		t.Errorf("SuggestionCacheTTL = %v", cfg.SuggestionCacheTTL)
	}
	if cfg.JWTSecret != "s3cret" {
		t.Errorf("JWTSecret = %q", cfg.JWTSecret)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "two")
	t.Setenv("SUGGESTION_CACHE_TTL", "soon")

	cfg := Load()
	if cfg.RedisDB != 0 {
		t.Errorf("RedisDB = %d, want 0", cfg.RedisDB)
	}
	if cfg.SuggestionCacheTTL != 5*time.Minute {
		t.Errorf("SuggestionCacheTTL = %v, want default", cfg.SuggestionCacheTTL)
	}
}

func TestInitDBRequiresConnectionStrings(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "no postgres", cfg: Config{MongoURI: "mongodb://localhost"}},
		{name: "no mongo", cfg: Config{PostgresConnStr: "postgres://localhost"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := InitDB(&tt.cfg); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
