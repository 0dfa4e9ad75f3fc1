package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/gamerank")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.JWTSecret != "env-secret" {
		t.Fatalf("expected jwt secret from env, got %q", cfg.JWTSecret)
	}
	if cfg.DatabaseDriver != "postgres" {
		t.Fatalf("expected postgres driver, got %q", cfg.DatabaseDriver)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.HTTPAddr)
	}
	if cfg.JWTTTL != 168*time.Hour {
		t.Fatalf("expected default ttl 168h, got %v", cfg.JWTTTL)
	}
}

func TestLoadConfigFromDotEnv(t *testing.T) {
	// Empty env values count as unset, so the file wins.
	t.Setenv("JWT_SECRET", "")
	t.Setenv("AUTH_RATE_PER_MINUTE", "")

	dir := t.TempDir()
	content := "JWT_SECRET=file-secret\nAUTH_RATE_PER_MINUTE=30\nS3_BUCKET=covers\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.JWTSecret != "file-secret" {
		t.Fatalf("expected jwt secret from file, got %q", cfg.JWTSecret)
	}
	if cfg.AuthRatePerMinute != 30 {
		t.Fatalf("expected rate 30, got %d", cfg.AuthRatePerMinute)
	}
	if cfg.MediaEnabled() {
		t.Fatal("expected media disabled without credentials")
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "missing secret",
			env:  map[string]string{"JWT_SECRET": ""},
			want: "JWT_SECRET",
		},
		{
			name: "unknown driver",
			env:  map[string]string{"JWT_SECRET": "x", "DATABASE_DRIVER": "oracle"},
			want: "DATABASE_DRIVER",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(t.TempDir())
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}
