package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// isolate runs Load from an empty directory so a developer .env is not picked up.
func isolate(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", testSecret)

	cfg, warnings, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.Port != "8080" || cfg.JWT.TTL != 24*time.Hour || cfg.Database.Driver != "postgres" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Blob.Driver != "local" || cfg.Upload.MaxBytes != 10<<20 || !cfg.Metrics.Enabled {
		t.Errorf("unexpected blob/upload defaults: %+v", cfg)
	}
	if len(warnings) != 3 {
		t.Errorf("warnings = %v, want dsn, cors and admin password", warnings)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("ADMIN_PASSWORD", "s3cret-pass")
	t.Setenv("BLOB_DRIVER", "s3")
	t.Setenv("BLOB_S3_BUCKET", "site-photos")
	t.Setenv("BLOB_S3_PATH_STYLE", "true")

	cfg, warnings, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.Port != "9090" || cfg.JWT.TTL != 2*time.Hour {
		t.Errorf("port/ttl = %s/%s", cfg.HTTP.Port, cfg.JWT.TTL)
	}
	if cfg.Blob.S3.Bucket != "site-photos" || !cfg.Blob.S3.PathStyle {
		t.Errorf("s3 = %+v", cfg.Blob.S3)
	}
	origins := cfg.Origins()
	if len(origins) != 2 || origins[1] != "https://b.example" {
		t.Errorf("origins = %q", origins)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "memory") {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "sitedesk.yaml")
	body := "jwt:\n  secret: " + testSecret + "\nhttp:\n  port: \"7000\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, _, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.Port != "7000" || cfg.JWT.Secret != testSecret {
		t.Errorf("cfg = %+v", cfg.HTTP)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"short secret", map[string]string{"JWT_SECRET": "short"}},
		{"bad driver", map[string]string{"JWT_SECRET": testSecret, "DATABASE_DRIVER": "mysql"}},
		{"s3 without bucket", map[string]string{"JWT_SECRET": testSecret, "BLOB_DRIVER": "s3"}},
		{"bad blob driver", map[string]string{"JWT_SECRET": testSecret, "BLOB_DRIVER": "ftp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
