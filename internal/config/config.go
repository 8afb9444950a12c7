// Package config loads and validates the server's process-wide, immutable
// configuration from the environment (optionally backed by a .env file).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// SecureIndexSuffix is the sentinel suffix identifying a per-user secure
// directory: "<username>_SECURE_INDEX".
const SecureIndexSuffix = "SECURE_INDEX"

// SecureIndexName returns the directory name for a user's secure index.
func SecureIndexName(username string) string {
	return username + "_" + SecureIndexSuffix
}

// Config is the process-wide, immutable configuration loaded once at
// startup. Every field here has a corresponding row in SPEC_FULL.md §6.
type Config struct {
	Authorization   map[string]string
	MediaSource     string
	MediaHost       string
	MediaPort       uint16
	Workers         int
	MaxConnections  int
	MaxPayloadSize  int64
	SessionDuration int64 // seconds
	FileFormats     map[string]struct{}
	Websites        []string
	SecureSession   bool
	KeyFile         string
	CertFile        string
	Debug           bool
	UTCLogging      bool

	// Ambient-stack additions (SPEC_FULL.md §4.2).
	LogLevel       string
	LogFormat      string // "console" | "json"
	MetricsEnabled bool
	MetricsPort    uint16
	Banner         bool
}

// invalidValue formats the exact diagnostic spec.md §4.2 mandates:
//
//	\n<key>\n\texpected <T>, received '<raw>' [value=invalid]\n
func invalidValue(key, expectedType, raw string) error {
	return fmt.Errorf("\n%s\n\texpected %s, received '%s' [value=invalid]\n", key, expectedType, raw)
}

// Load reads envFile (if it exists; a missing optional file is not an
// error) into the process environment, then parses and validates the
// typed configuration. Parse failures panic, matching the source
// behavior: a misconfigured server should never silently start in a
// broken state.
func Load(envFile string) *Config {
	if envFile == "" {
		envFile = os.Getenv("ENV_FILE")
	}
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			panic(fmt.Sprintf("\nENV_FILE\n\texpected a readable dotenv file, received '%s' [value=invalid]\n", envFile))
		}
	}

	cfg, err := parse()
	if err != nil {
		panic(err)
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	if err := cfg.ensureSecureDirs(); err != nil {
		panic(err)
	}
	return cfg
}

func parse() (*Config, error) {
	cfg := &Config{}

	rawAuth := os.Getenv("authorization")
	if rawAuth == "" {
		return nil, invalidValue("authorization", "JSON object", rawAuth)
	}
	var auth map[string]string
	if err := json.Unmarshal([]byte(rawAuth), &auth); err != nil {
		return nil, invalidValue("authorization", "JSON object", rawAuth)
	}
	cfg.Authorization = auth

	cfg.MediaSource = os.Getenv("media_source")
	if cfg.MediaSource == "" {
		return nil, invalidValue("media_source", "directory path", cfg.MediaSource)
	}

	cfg.MediaHost = getEnvOrDefault("media_host", defaultMediaHost())
	cfg.MediaPort = uint16(getEnvUintOrDefault("media_port", "u16", 8000))
	cfg.Workers = int(getEnvUintOrDefault("workers", "usize", uint64(defaultWorkers())))
	cfg.MaxConnections = int(getEnvUintOrDefault("max_connections", "usize", 3))
	cfg.SessionDuration = int64(getEnvUintOrDefault("session_duration", "i64 seconds", 3600))

	sizeStr := getEnvOrDefault("max_payload_size", "100 MB")
	size, err := ParseMemorySize(sizeStr)
	if err != nil {
		return nil, invalidValue("max_payload_size", "memory string", sizeStr)
	}
	cfg.MaxPayloadSize = size

	formats := getEnvOrDefault("file_formats", `["mp4","mov","jpg","jpeg"]`)
	var formatList []string
	if err := json.Unmarshal([]byte(formats), &formatList); err != nil {
		return nil, invalidValue("file_formats", "JSON array", formats)
	}
	cfg.FileFormats = make(map[string]struct{}, len(formatList))
	for _, f := range formatList {
		cfg.FileFormats[strings.ToLower(strings.TrimPrefix(f, "."))] = struct{}{}
	}

	websites := getEnvOrDefault("websites", `[]`)
	var websiteList []string
	if err := json.Unmarshal([]byte(websites), &websiteList); err != nil {
		return nil, invalidValue("websites", "JSON array", websites)
	}
	cfg.Websites = websiteList

	cfg.SecureSession = getEnvBoolOrDefault("secure_session", false)
	cfg.KeyFile = os.Getenv("key_file")
	cfg.CertFile = os.Getenv("cert_file")
	cfg.Debug = getEnvBoolOrDefault("debug", false)
	cfg.UTCLogging = getEnvBoolOrDefault("utc_logging", true)

	cfg.LogLevel = getEnvOrDefault("log_level", "info")
	cfg.LogFormat = getEnvOrDefault("log_format", "console")
	cfg.MetricsEnabled = getEnvBoolOrDefault("metrics_enabled", true)
	cfg.MetricsPort = uint16(getEnvUintOrDefault("metrics_port", "u16", 9090))
	cfg.Banner = getEnvBoolOrDefault("banner", true)

	return cfg, nil
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBoolOrDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		panic(invalidValue(key, "bool", v))
	}
	return b
}

func getEnvUintOrDefault(key, typeName string, def uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		panic(invalidValue(key, typeName, v))
	}
	return n
}

// Validate checks the post-parse invariants from spec.md §4.2:
// media_source exists and is a directory; usernames ≥4 chars; passwords
// ≥8 chars; no secure-index directory below depth 1.
func (c *Config) Validate() error {
	info, err := os.Stat(c.MediaSource)
	if err != nil || !info.IsDir() {
		return invalidValue("media_source", "existing directory", c.MediaSource)
	}

	for username, password := range c.Authorization {
		if len(username) < 4 {
			return fmt.Errorf("\nauthorization\n\tusername %q must be at least 4 characters [value=invalid]\n", username)
		}
		if len(password) < 8 {
			return fmt.Errorf("\nauthorization\n\tpassword for %q must be at least 8 characters [value=invalid]\n", username)
		}
	}

	return c.checkSecureIndexDepth()
}

// checkSecureIndexDepth walks media_source looking for any *_SECURE_INDEX
// directory deeper than depth 1 (spec.md invariant #1).
func (c *Config) checkSecureIndexDepth() error {
	root := filepath.Clean(c.MediaSource)
	entries, err := os.ReadDir(root)
	if err != nil {
		return invalidValue("media_source", "readable directory", c.MediaSource)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := walkForNestedSecureIndex(filepath.Join(root, e.Name()), root); err != nil {
			return err
		}
	}
	return nil
}

func walkForNestedSecureIndex(dir, root string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil // unreadable subtree: nothing to report here
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(dir, e.Name())
		if strings.HasSuffix(e.Name(), SecureIndexSuffix) {
			return fmt.Errorf(
				"\nmedia_source\n\tsecure index %q found below depth 1; move it directly under %q or point media_source at its parent [value=invalid]\n",
				sub, root,
			)
		}
		if err := walkForNestedSecureIndex(sub, root); err != nil {
			return err
		}
	}
	return nil
}

// ensureSecureDirs creates <media_source>/<username>_SECURE_INDEX for
// every configured user, if missing (spec.md invariant #2).
func (c *Config) ensureSecureDirs() error {
	for username := range c.Authorization {
		dir := filepath.Join(c.MediaSource, SecureIndexName(username))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create secure index for %s: %w", username, err)
		}
	}
	return nil
}
