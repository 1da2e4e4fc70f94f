package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadPrefersEnvValues(t *testing.T) {
	cfgDir := t.TempDir()
	cfgPath := filepath.Join(cfgDir, "config.yaml")
	body := "active_provider: openai\n" +
		"provider:\n  openai:\n    options:\n      apiKey: file-key\n" +
		"wallet:\n  max_retries: 5\n  retry_interval: 3s\n" +
		"platform:\n  ai_base_url: http://file:8100\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("TUTOR_PLATFORM_AI_BASE_URL", "http://env:8100")
	t.Setenv("TUTOR_ASSISTANT_INCLUDE_DIFF", "true")

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Platform.AIBaseURL != "http://env:8100" {
		t.Fatalf("expected env override, got %q", cfg.Platform.AIBaseURL)
	}
	if !cfg.Assistant.IncludeDiff {
		t.Fatalf("expected include_diff from env")
	}
	if cfg.Wallet.MaxRetries != 5 || cfg.Wallet.RetryInterval != 3*time.Second {
		t.Fatalf("expected wallet settings from file, got %+v", cfg.Wallet)
	}

	id, opts, err := cfg.GetActiveProvider()
	if err != nil {
		t.Fatalf("active provider: %v", err)
	}
	if id != "openai" || opts.APIKey != "file-key" || opts.Model != "gpt-4o" {
		t.Fatalf("unexpected provider %s %+v", id, opts)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	if cfg.Wallet.MaxRetries != 3 || cfg.Wallet.RetryInterval != 2*time.Second {
		t.Fatalf("unexpected wallet defaults: %+v", cfg.Wallet)
	}
	if len(cfg.Wallet.DisabledViews) != 2 {
		t.Fatalf("expected default disabled views, got %v", cfg.Wallet.DisabledViews)
	}
	if cfg.Assistant.HintRetries != 2 || cfg.Assistant.HintRetryDelay != time.Second {
		t.Fatalf("unexpected assistant defaults: %+v", cfg.Assistant)
	}
	if cfg.HTTP.Addr != ":8100" {
		t.Fatalf("unexpected http addr %q", cfg.HTTP.Addr)
	}
}

func TestGetActiveProviderAutoDetects(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DEEPSEEK_API_KEY", "ds-key")
	t.Setenv("DEEPSEEK_MODEL", "deepseek-coder")

	cfg := &Config{}
	id, opts, err := cfg.GetActiveProvider()
	if err != nil {
		t.Fatalf("expected auto-detect, got %v", err)
	}
	if id != "deepseek" || opts.Model != "deepseek-coder" || opts.BaseURL != "https://api.deepseek.com" {
		t.Fatalf("unexpected detection %s %+v", id, opts)
	}
}

func TestGetActiveProviderMissing(t *testing.T) {
	cfg := &Config{ActiveProvider: "nope"}
	if _, _, err := cfg.GetActiveProvider(); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
