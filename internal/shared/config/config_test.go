package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, key := range []string{"PORT", "ENV", "RULES_SOURCE", "RULES_PATH", "OBJECT_STORE", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "MINIO_USE_SSL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" || cfg.Env != "dev" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RulesSource != "file" || cfg.RulesPath != "rules.json" {
		t.Fatalf("unexpected rules defaults: %+v", cfg)
	}
	if cfg.ObjectStoreType != "local" {
		t.Fatalf("expected local store, got %q", cfg.ObjectStoreType)
	}
	if cfg.RateLimitRPS != 10 || cfg.RateLimitBurst != 20 {
		t.Fatalf("unexpected rate limit defaults: %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
}

func TestLoadNormalizesValues(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ENV", "prod")
	t.Setenv("RULES_SOURCE", "PG")
	t.Setenv("OBJECT_STORE", "MinIO")
	t.Setenv("CORS_ALLOW_ORIGINS", " http://a.test , ,http://b.test")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("RATE_LIMIT_BURST", "nope")

	cfg := Load()
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if cfg.RulesSource != "postgres" {
		t.Fatalf("expected postgres, got %q", cfg.RulesSource)
	}
	if cfg.ObjectStoreType != "minio" || !cfg.MinioUseSSL {
		t.Fatalf("unexpected minio settings: %+v", cfg)
	}
	if len(cfg.CORSAllowOrigin) != 2 || cfg.CORSAllowOrigin[1] != "http://b.test" {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowOrigin)
	}
	if cfg.RateLimitBurst != 20 {
		t.Fatalf("invalid int should fall back to default, got %d", cfg.RateLimitBurst)
	}
}

func TestLoadEnvFilesDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("RULES_PATH=from-file.yaml\nPORT=9999\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("PORT", "7000")
	t.Setenv("RULES_PATH", "")
	os.Unsetenv("RULES_PATH")

	cfg := Load()
	if cfg.RulesPath != "from-file.yaml" {
		t.Fatalf("expected RULES_PATH from .env, got %q", cfg.RulesPath)
	}
	if cfg.Port != "7000" {
		t.Fatalf("real env should win over .env, got %q", cfg.Port)
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
