package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "prod" {
		t.Fatalf("expected App.Env to be prod, got %q", cfg.App.Env)
	}

	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected Redis URL: %q", cfg.Redis.URL)
	}

	if got := cfg.Sources.FetchTimeout; got != 10*time.Second {
		t.Fatalf("expected default fetch timeout 10s, got %v", got)
	}

	if got := cfg.Dashboard.FilterDebounce; got != 300*time.Millisecond {
		t.Fatalf("expected default filter debounce 300ms, got %v", got)
	}

	if cfg.PubSub.LiveSubscription != "dashboard-live-sub" {
		t.Fatalf("unexpected live subscription %q", cfg.PubSub.LiveSubscription)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestSourcesCritical(t *testing.T) {
	src := SourcesConfig{CriticalIDs: []string{"inventory", " cash_flow "}}
	if !src.IsCritical("inventory") {
		t.Fatal("expected inventory to be critical")
	}
	if !src.IsCritical("cash_flow") {
		t.Fatal("expected cash_flow to be critical despite padding")
	}
	if src.IsCritical("sales") {
		t.Fatal("sales should not be critical")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "prod")
	t.Setenv(EnvPort, "8081")
	t.Setenv(EnvSourcesBaseURL, "http://localhost:9000/api")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvGCPProjectID, "project-123")
	t.Setenv(EnvPubSubLiveSub, "dashboard-live-sub")
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}
