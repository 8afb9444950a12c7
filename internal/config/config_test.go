package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rustream/server/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"authorization", "media_source", "media_host", "media_port", "workers",
		"max_connections", "max_payload_size", "session_duration", "file_formats",
		"websites", "secure_session", "key_file", "cert_file", "debug", "utc_logging",
		"log_level", "log_format", "metrics_enabled", "metrics_port", "banner",
		"ENV_FILE",
	}
	for _, k := range keys {
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	os.Setenv("authorization", `{"alice":"password123"}`)
	os.Setenv("media_source", dir)

	cfg := config.Load(filepath.Join(dir, "nonexistent.env"))

	if cfg.MediaPort != 8000 {
		t.Errorf("expected default media_port 8000, got %d", cfg.MediaPort)
	}
	if cfg.SessionDuration != 3600 {
		t.Errorf("expected default session_duration 3600, got %d", cfg.SessionDuration)
	}
	if cfg.MaxPayloadSize != 100*1000*1000 && cfg.MaxPayloadSize != 100*1024*1024 {
		t.Errorf("unexpected default max_payload_size: %d", cfg.MaxPayloadSize)
	}
	if !cfg.UTCLogging {
		t.Error("expected utc_logging to default true")
	}
	if cfg.LogFormat != "console" {
		t.Errorf("expected default log_format console, got %s", cfg.LogFormat)
	}

	if _, err := os.Stat(filepath.Join(dir, "alice_SECURE_INDEX")); err != nil {
		t.Errorf("expected secure index dir to be created: %v", err)
	}
}

func TestLoad_MissingAuthorizationPanics(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	os.Setenv("media_source", dir)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on missing authorization")
		}
	}()
	config.Load(filepath.Join(dir, "nonexistent.env"))
}

func TestLoad_MissingMediaSourcePanics(t *testing.T) {
	clearEnv(t)
	os.Setenv("authorization", `{"alice":"password123"}`)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on missing media_source")
		}
	}()
	config.Load("")
}

func TestValidate_ShortUsernameRejected(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	os.Setenv("authorization", `{"ab":"password123"}`)
	os.Setenv("media_source", dir)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on short username")
		}
	}()
	config.Load(filepath.Join(dir, "nonexistent.env"))
}

func TestValidate_ShortPasswordRejected(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	os.Setenv("authorization", `{"alice":"short"}`)
	os.Setenv("media_source", dir)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on short password")
		}
	}()
	config.Load(filepath.Join(dir, "nonexistent.env"))
}

func TestValidate_NestedSecureIndexRejected(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "movies", "alice_SECURE_INDEX"), 0o755)
	os.Setenv("authorization", `{"alice":"password123"}`)
	os.Setenv("media_source", dir)

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on nested secure index directory")
		}
	}()
	config.Load(filepath.Join(dir, "nonexistent.env"))
}

func TestParseMemorySize(t *testing.T) {
	cases := map[string]int64{
		"100 MB": 100 * 1000 * 1000,
		"1KB":    1000,
		"2 GB":   2 * 1000 * 1000 * 1000,
	}
	for raw, want := range cases {
		got, err := config.ParseMemorySize(raw)
		if err != nil {
			t.Fatalf("ParseMemorySize(%q) failed: %v", raw, err)
		}
		if got != want {
			t.Errorf("ParseMemorySize(%q) = %d, want %d", raw, got, want)
		}
	}
}

func TestParseMemorySize_Invalid(t *testing.T) {
	if _, err := config.ParseMemorySize("not-a-size"); err == nil {
		t.Error("expected error for invalid memory size")
	}
}

func TestSecureIndexName(t *testing.T) {
	if got := config.SecureIndexName("bob"); got != "bob_SECURE_INDEX" {
		t.Errorf("got %q", got)
	}
}
