package config

import "testing"

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("TEST_CONFIG_KEY", "custom")
	if got := getEnvOrDefault("TEST_CONFIG_KEY", "fallback"); got != "custom" {
		t.Errorf("Expected 'custom', got %q", got)
	}
	if got := getEnvOrDefault("TEST_CONFIG_MISSING", "fallback"); got != "fallback" {
		t.Errorf("Expected 'fallback', got %q", got)
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	t.Setenv("TEST_CONFIG_INT", "12")
	if got := getEnvAsIntOrDefault("TEST_CONFIG_INT", 3); got != 12 {
		t.Errorf("Expected 12, got %d", got)
	}

	t.Setenv("TEST_CONFIG_BAD_INT", "twelve")
	if got := getEnvAsIntOrDefault("TEST_CONFIG_BAD_INT", 3); got != 3 {
		t.Errorf("Expected default 3 for unparsable value, got %d", got)
	}
}

func TestMustGetEnv_PanicsWhenMissing(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for missing required variable")
		}
	}()
	mustGetEnv("TEST_CONFIG_DEFINITELY_NOT_SET")
}

func TestLoad_LiveModeRequiresSearchCredentials(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("SEARCH_MODE", SearchModeLive)
	t.Setenv("OXYLABS_API_USERNAME", "")
	t.Setenv("OXYLABS_API_PASSWORD", "")

	defer func() {
		if recover() == nil {
			t.Error("Expected panic when live mode lacks backend credentials")
		}
	}()
	Load()
}

func TestLoad_GenerativeModeNeedsNoSearchCredentials(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("SESSION_SECRET", "secret")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("SEARCH_MODE", SearchModeGenerative)
	t.Setenv("OXYLABS_API_USERNAME", "")
	t.Setenv("OXYLABS_API_PASSWORD", "")

	cfg := Load()
	if cfg.SearchMode != SearchModeGenerative {
		t.Errorf("Expected generative mode, got %q", cfg.SearchMode)
	}
	if cfg.GeminiConcurrentReqs != 5 {
		t.Errorf("Expected default concurrency 5, got %d", cfg.GeminiConcurrentReqs)
	}
}
