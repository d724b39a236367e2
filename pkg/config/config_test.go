package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/ctbkit/ctbkit/pkg/token/types"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CTBKIT_CONFIG_DIR", t.TempDir())

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Locale != "en_US" {
		t.Errorf("expected default locale en_US, got %s", cfg.Locale)
	}
	if cfg.TokenTTL != types.DefaultTTL {
		t.Errorf("expected default TTL %v, got %v", types.DefaultTTL, cfg.TokenTTL)
	}
	if cfg.Storage.Type != types.StorageTypeFile {
		t.Errorf("expected file storage default, got %s", cfg.Storage.Type)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `rest_root: https://shop.example.com/api
event_endpoint: https://shop.example.com/events
csrf_token: csrf-abc
trusted_origin: partner.example.com
locale: de_DE
brand: acme
page: product-detail
token_ttl: 10m
storage:
  type: memory
gate:
  expression: region == "us"
bridge:
  endpoint: wss://relay.example.com/frames
`
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	loader := NewLoader()
	loader.SetConfigFile(path)

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.RestRoot != "https://shop.example.com/api" {
		t.Errorf("unexpected rest root: %s", cfg.RestRoot)
	}
	if cfg.EventEndpoint != "https://shop.example.com/events" {
		t.Errorf("unexpected event endpoint: %s", cfg.EventEndpoint)
	}
	if cfg.CSRFToken != "csrf-abc" {
		t.Errorf("unexpected csrf token: %s", cfg.CSRFToken)
	}
	if cfg.TrustedOrigin != "partner.example.com" {
		t.Errorf("unexpected trusted origin: %s", cfg.TrustedOrigin)
	}
	if cfg.Locale != "de_DE" {
		t.Errorf("unexpected locale: %s", cfg.Locale)
	}
	if cfg.Brand != "acme" || cfg.Page != "product-detail" {
		t.Errorf("unexpected embedding fields: brand=%s page=%s", cfg.Brand, cfg.Page)
	}
	if cfg.TokenTTL != 10*time.Minute {
		t.Errorf("unexpected TTL: %v", cfg.TokenTTL)
	}
	if cfg.Storage.Type != types.StorageTypeMemory {
		t.Errorf("unexpected storage type: %s", cfg.Storage.Type)
	}
	if cfg.Gate.Expression != `region == "us"` {
		t.Errorf("unexpected gate expression: %s", cfg.Gate.Expression)
	}
	if cfg.Bridge.Endpoint != "wss://relay.example.com/frames" {
		t.Errorf("unexpected bridge endpoint: %s", cfg.Bridge.Endpoint)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CTBKIT_CONFIG_DIR", t.TempDir())
	t.Setenv("CTBKIT_LOCALE", "fr_FR")
	t.Setenv("CTBKIT_REST_ROOT", "https://env.example.com")

	cfg, err := NewLoader().Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Locale != "fr_FR" {
		t.Errorf("expected env locale fr_FR, got %s", cfg.Locale)
	}
	if cfg.RestRoot != "https://env.example.com" {
		t.Errorf("expected env rest root, got %s", cfg.RestRoot)
	}
}

func TestLoad_FlagOverride(t *testing.T) {
	t.Setenv("CTBKIT_CONFIG_DIR", t.TempDir())

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("locale", "", "locale")
	if err := fs.Parse([]string{"--locale", "ja_JP"}); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	loader := NewLoader()
	if err := loader.BindFlags(fs); err != nil {
		t.Fatalf("failed to bind flags: %v", err)
	}

	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Locale != "ja_JP" {
		t.Errorf("expected flag locale ja_JP, got %s", cfg.Locale)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("rest_root: [unclosed"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	loader := NewLoader()
	loader.SetConfigFile(path)

	if _, err := loader.Load(); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantError bool
	}{
		{
			name: "complete config",
			config: Config{
				RestRoot:      "https://shop.example.com/api",
				EventEndpoint: "https://shop.example.com/events",
			},
			wantError: false,
		},
		{
			name: "missing rest root",
			config: Config{
				EventEndpoint: "https://shop.example.com/events",
			},
			wantError: true,
		},
		{
			name: "missing event endpoint",
			config: Config{
				RestRoot: "https://shop.example.com/api",
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfig_String(t *testing.T) {
	cfg := Config{RestRoot: "https://shop.example.com/api", Locale: "en_US"}
	out := cfg.String()
	for _, want := range []string{"rest_root: https://shop.example.com/api", "locale: en_US"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}
