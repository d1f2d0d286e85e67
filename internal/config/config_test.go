package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "BACKEND_URL", "BACKEND_TIMEOUT", "MAX_SNIPPETS", "PREFERENCES_BACKEND", "LOCAL_API_SECRET"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()

	assert.Equal(t, "5174", cfg.App.Port)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.Backend.BaseURL)
	assert.Equal(t, "bolt", cfg.Preferences.Backend)
	assert.Equal(t, 120*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 5, cfg.Retrieval.MaxSnippets)
	assert.Equal(t, 6, cfg.Retrieval.MaxInsightTexts)
	assert.Equal(t, ".pdf", cfg.Retrieval.DocIDSuffix)
	assert.Equal(t, 15*time.Second, cfg.App.ViewerTimeout)
	assert.Empty(t, cfg.App.APISecret)
}

func TestGetEnv_EmptyValueIsKept(t *testing.T) {
	t.Setenv("LOCAL_API_SECRET", "")
	assert.Equal(t, "", getEnv("LOCAL_API_SECRET", "fallback"))
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("GO_ENV", "production")
	t.Setenv("BACKEND_URL", "http://backend:8000")
	t.Setenv("BACKEND_TIMEOUT", "30s")
	t.Setenv("MAX_SNIPPETS", "8")
	t.Setenv("PREFERENCES_BACKEND", "redis")

	cfg := Load()

	assert.Equal(t, "9000", cfg.App.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "http://backend:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 8, cfg.Retrieval.MaxSnippets)
	assert.Equal(t, "redis", cfg.Preferences.Backend)
}

func TestGetEnvAsInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("MAX_SNIPPETS", "many")
	assert.Equal(t, 5, getEnvAsInt("MAX_SNIPPETS", 5))
}

func TestGetEnvAsDuration_RejectsNonPositive(t *testing.T) {
	t.Setenv("BACKEND_TIMEOUT", "-1s")
	assert.Equal(t, time.Minute, getEnvAsDuration("BACKEND_TIMEOUT", time.Minute))
}
