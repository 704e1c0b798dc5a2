package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// blueprintEnv lists every variable the loader reads.
var blueprintEnv = []string{
	"BLUEPRINT_CONFIG",
	"BLUEPRINT_BASE_URL",
	"BLUEPRINT_SSE_BASE_URL",
	"BLUEPRINT_RESPONSE_HEADER_TIMEOUT",
	"BLUEPRINT_HEADERS",
	"BLUEPRINT_USER_ID",
	"BLUEPRINT_USERNAME",
	"BLUEPRINT_ROLE",
	"BLUEPRINT_MARKER",
	"BLUEPRINT_READ_SIZE",
	"BLUEPRINT_MOCK_PORT",
	"BLUEPRINT_MOCK_PREFIX",
	"BLUEPRINT_MOCK_CHUNK_SIZE",
	"BLUEPRINT_MOCK_CHUNK_RATE",
	"BLUEPRINT_MOCK_OMIT_MARKER",
	"BLUEPRINT_MOCK_API_KEYS",
	"BLUEPRINT_MOCK_RATE_LIMIT",
	"BLUEPRINT_METRICS_ENABLED",
	"VITE_API_BASE_URL",
	"VITE_SSE_API_BASE_URL",
	"MOCK_PORT",
}

// isolateEnv unsets every loader variable for the duration of the test and
// moves into an empty directory so no config.yaml or .env is discovered.
func isolateEnv(t *testing.T) string {
	t.Helper()
	for _, key := range blueprintEnv {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Client.BaseURL != "http://127.0.0.1:5000/api/v1" {
		t.Errorf("default client.base_url = %q", cfg.Client.BaseURL)
	}
	if cfg.Client.SSEBaseURL != "" {
		t.Errorf("default client.sse_base_url = %q, want empty", cfg.Client.SSEBaseURL)
	}
	if cfg.Client.ResponseHeaderTimeout != 180*time.Second {
		t.Errorf("default client.response_header_timeout = %v, want 180s", cfg.Client.ResponseHeaderTimeout)
	}
	if cfg.Stream.Marker != "[[__STREAM_DONE__]]" {
		t.Errorf("default stream.marker = %q", cfg.Stream.Marker)
	}
	if cfg.Stream.ReadSize != 4096 {
		t.Errorf("default stream.read_size = %d, want 4096", cfg.Stream.ReadSize)
	}
	if cfg.Mock.Port != 5000 {
		t.Errorf("default mock.port = %d, want 5000", cfg.Mock.Port)
	}
	if cfg.Mock.Prefix != "/api/v1" {
		t.Errorf("default mock.prefix = %q, want \"/api/v1\"", cfg.Mock.Prefix)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("default logging.level = %q, want INFO", cfg.Logging.Level)
	}
	if !cfg.Observability.Metrics.Enabled || cfg.Observability.Metrics.Path != "/metrics" {
		t.Errorf("default metrics = %+v", cfg.Observability.Metrics)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	isolateEnv(t)

	yamlContent := `
client:
  base_url: https://planner.example.com/api/v1
  sse_base_url: https://sse.example.com/api/v1
  response_header_timeout: 30s
  headers:
    Authorization: Bearer abc
  user:
    id: u-42
    name: alice
    role: admin
stream:
  marker: "<<END>>"
  read_size: 512
mock:
  port: 5055
  prefix: /v2
  chunk_size: 8
  chunk_rate: 0
  omit_marker: true
logging:
  debug: stream,http
  level: DEBUG
observability:
  metrics:
    enabled: false
    path: /internal/metrics
`
	path := writeTemp(t, "config-*.yaml", yamlContent)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Client.BaseURL != "https://planner.example.com/api/v1" {
		t.Errorf("client.base_url = %q", cfg.Client.BaseURL)
	}
	if cfg.Client.SSEBase() != "https://sse.example.com/api/v1" {
		t.Errorf("SSEBase() = %q", cfg.Client.SSEBase())
	}
	if cfg.Client.ResponseHeaderTimeout != 30*time.Second {
		t.Errorf("client.response_header_timeout = %v, want 30s", cfg.Client.ResponseHeaderTimeout)
	}
	if cfg.Client.Headers["Authorization"] != "Bearer abc" {
		t.Errorf("client.headers = %v", cfg.Client.Headers)
	}
	if cfg.Client.User.UserID != "u-42" || cfg.Client.User.Username != "alice" || cfg.Client.User.Role != "admin" {
		t.Errorf("client.user = %+v", cfg.Client.User)
	}
	if cfg.Stream.Marker != "<<END>>" {
		t.Errorf("stream.marker = %q, want <<END>>", cfg.Stream.Marker)
	}
	if cfg.Stream.ReadSize != 512 {
		t.Errorf("stream.read_size = %d, want 512", cfg.Stream.ReadSize)
	}
	if cfg.Mock.Port != 5055 || cfg.Mock.Prefix != "/v2" || cfg.Mock.ChunkSize != 8 {
		t.Errorf("mock = %+v", cfg.Mock)
	}
	if cfg.Mock.ChunkRate != 0 || !cfg.Mock.OmitMarker {
		t.Errorf("mock pacing = %+v", cfg.Mock)
	}
	if cfg.Logging.Debug != "stream,http" || cfg.Logging.Level != "DEBUG" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
	if cfg.Observability.Metrics.Enabled {
		t.Error("observability.metrics.enabled should be false")
	}
}

func TestEnvOverride(t *testing.T) {
	isolateEnv(t)

	path := writeTemp(t, "config-*.yaml", `
client:
  base_url: http://from-yaml:5000/api/v1
stream:
  marker: "<<YAML>>"
`)

	t.Setenv("BLUEPRINT_BASE_URL", "http://from-env:5000/api/v1")
	t.Setenv("BLUEPRINT_MARKER", "<<ENV>>")
	t.Setenv("BLUEPRINT_RESPONSE_HEADER_TIMEOUT", "5s")
	t.Setenv("BLUEPRINT_HEADERS", `{"X-Tenant":"acme"}`)
	t.Setenv("BLUEPRINT_USER_ID", "7")
	t.Setenv("BLUEPRINT_USERNAME", "bob")
	t.Setenv("BLUEPRINT_ROLE", "user")
	t.Setenv("BLUEPRINT_MOCK_PORT", "6000")
	t.Setenv("BLUEPRINT_MOCK_CHUNK_RATE", "2.5")
	t.Setenv("BLUEPRINT_MOCK_OMIT_MARKER", "true")
	t.Setenv("BLUEPRINT_MOCK_API_KEYS", "k1, k2,,")
	t.Setenv("BLUEPRINT_MOCK_RATE_LIMIT", "30")
	t.Setenv("BLUEPRINT_METRICS_ENABLED", "false")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Client.BaseURL != "http://from-env:5000/api/v1" {
		t.Errorf("env should override YAML base_url, got %q", cfg.Client.BaseURL)
	}
	if cfg.Stream.Marker != "<<ENV>>" {
		t.Errorf("env should override YAML marker, got %q", cfg.Stream.Marker)
	}
	if cfg.Client.ResponseHeaderTimeout != 5*time.Second {
		t.Errorf("response_header_timeout = %v, want 5s", cfg.Client.ResponseHeaderTimeout)
	}
	if cfg.Client.Headers["X-Tenant"] != "acme" {
		t.Errorf("headers = %v", cfg.Client.Headers)
	}
	if cfg.Client.User.UserID != "7" || cfg.Client.User.Username != "bob" || cfg.Client.User.Role != "user" {
		t.Errorf("user = %+v", cfg.Client.User)
	}
	if cfg.Mock.Port != 6000 {
		t.Errorf("mock.port = %d, want 6000", cfg.Mock.Port)
	}
	if cfg.Mock.ChunkRate != 2.5 || !cfg.Mock.OmitMarker {
		t.Errorf("mock = %+v", cfg.Mock)
	}
	if len(cfg.Mock.APIKeys) != 2 || cfg.Mock.APIKeys[0] != "k1" || cfg.Mock.APIKeys[1] != "k2" {
		t.Errorf("mock.api_keys = %q, want [k1 k2]", cfg.Mock.APIKeys)
	}
	if cfg.Mock.RateLimit != 30 {
		t.Errorf("mock.rate_limit = %d, want 30", cfg.Mock.RateLimit)
	}
	if cfg.Observability.Metrics.Enabled {
		t.Error("metrics should be disabled by env")
	}
}

func TestEnvOverrideErrors(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{name: "bad duration", key: "BLUEPRINT_RESPONSE_HEADER_TIMEOUT", value: "soon", wantErr: "BLUEPRINT_RESPONSE_HEADER_TIMEOUT"},
		{name: "bad headers", key: "BLUEPRINT_HEADERS", value: "{not json", wantErr: "BLUEPRINT_HEADERS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load("")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestBackwardCompatEnvVars(t *testing.T) {
	isolateEnv(t)

	t.Setenv("VITE_API_BASE_URL", "http://legacy:5000/api/v1")
	t.Setenv("VITE_SSE_API_BASE_URL", "http://legacy-sse:5000/api/v1")
	t.Setenv("MOCK_PORT", "5111")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Client.BaseURL != "http://legacy:5000/api/v1" {
		t.Errorf("VITE_API_BASE_URL not applied, got %q", cfg.Client.BaseURL)
	}
	if cfg.Client.SSEBase() != "http://legacy-sse:5000/api/v1" {
		t.Errorf("VITE_SSE_API_BASE_URL not applied, got %q", cfg.Client.SSEBase())
	}
	if cfg.Mock.Port != 5111 {
		t.Errorf("MOCK_PORT not applied, got %d", cfg.Mock.Port)
	}

	// New names win over legacy names.
	t.Setenv("BLUEPRINT_BASE_URL", "http://new:5000/api/v1")
	t.Setenv("BLUEPRINT_MOCK_PORT", "5222")

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Client.BaseURL != "http://new:5000/api/v1" {
		t.Errorf("BLUEPRINT_BASE_URL should win, got %q", cfg.Client.BaseURL)
	}
	if cfg.Mock.Port != 5222 {
		t.Errorf("BLUEPRINT_MOCK_PORT should win, got %d", cfg.Mock.Port)
	}
}

func TestEnvFiles(t *testing.T) {
	dir := isolateEnv(t)

	writeFile(t, filepath.Join(dir, ".env"), "VITE_API_BASE_URL=http://dotenv:5000/api/v1\nBLUEPRINT_MARKER=<<DOTENV>>\n")
	writeFile(t, filepath.Join(dir, ".env.local"), "BLUEPRINT_MARKER=<<LOCAL>>\n")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Client.BaseURL != "http://dotenv:5000/api/v1" {
		t.Errorf(".env value not applied, got %q", cfg.Client.BaseURL)
	}
	if cfg.Stream.Marker != "<<LOCAL>>" {
		t.Errorf(".env.local should take precedence over .env, got %q", cfg.Stream.Marker)
	}
}

func TestEnvFilesDoNotOverrideProcessEnv(t *testing.T) {
	dir := isolateEnv(t)

	writeFile(t, filepath.Join(dir, ".env"), "BLUEPRINT_MARKER=<<DOTENV>>\n")
	t.Setenv("BLUEPRINT_MARKER", "<<PROCESS>>")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Stream.Marker != "<<PROCESS>>" {
		t.Errorf("process env should win over .env, got %q", cfg.Stream.Marker)
	}
}

func TestFileDiscovery(t *testing.T) {
	dir := isolateEnv(t)

	// Test 1: Explicit path.
	tmpFile := writeTemp(t, "config-*.yaml", `
client:
  base_url: http://explicit:5000/api/v1
`)

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load(explicit) error: %v", err)
	}
	if cfg.Client.BaseURL != "http://explicit:5000/api/v1" {
		t.Errorf("explicit path: base_url = %q, want explicit value", cfg.Client.BaseURL)
	}

	// Test 2: BLUEPRINT_CONFIG env var.
	envFile := writeTemp(t, "envconfig-*.yaml", `
client:
  base_url: http://env-config:5000/api/v1
`)
	t.Setenv("BLUEPRINT_CONFIG", envFile)

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load(BLUEPRINT_CONFIG) error: %v", err)
	}
	if cfg.Client.BaseURL != "http://env-config:5000/api/v1" {
		t.Errorf("BLUEPRINT_CONFIG: base_url = %q, want env config value", cfg.Client.BaseURL)
	}

	// Test 3: ./config.yaml in the working directory.
	t.Setenv("BLUEPRINT_CONFIG", "")
	writeFile(t, filepath.Join(dir, "config.yaml"), `
client:
  base_url: http://cwd:5000/api/v1
`)

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load(cwd) error: %v", err)
	}
	if cfg.Client.BaseURL != "http://cwd:5000/api/v1" {
		t.Errorf("cwd config: base_url = %q, want cwd value", cfg.Client.BaseURL)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolateEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name: "missing base_url",
			modify: func(c *Config) {
				c.Client.BaseURL = ""
			},
			wantErr: "client.base_url is required",
		},
		{
			name: "base_url without scheme",
			modify: func(c *Config) {
				c.Client.BaseURL = "localhost:5000"
			},
			wantErr: "client.base_url",
		},
		{
			name: "invalid sse_base_url",
			modify: func(c *Config) {
				c.Client.SSEBaseURL = "ftp://files.example.com"
			},
			wantErr: "client.sse_base_url",
		},
		{
			name: "negative timeout",
			modify: func(c *Config) {
				c.Client.ResponseHeaderTimeout = -time.Second
			},
			wantErr: "client.response_header_timeout",
		},
		{
			name: "empty marker",
			modify: func(c *Config) {
				c.Stream.Marker = ""
			},
			wantErr: "stream.marker must not be empty",
		},
		{
			name: "zero read size",
			modify: func(c *Config) {
				c.Stream.ReadSize = 0
			},
			wantErr: "stream.read_size",
		},
		{
			name: "invalid port",
			modify: func(c *Config) {
				c.Mock.Port = 70000
			},
			wantErr: "mock.port must be between 1 and 65535",
		},
		{
			name: "relative prefix",
			modify: func(c *Config) {
				c.Mock.Prefix = "api/v1"
			},
			wantErr: "mock.prefix",
		},
		{
			name: "zero chunk size",
			modify: func(c *Config) {
				c.Mock.ChunkSize = 0
			},
			wantErr: "mock.chunk_size",
		},
		{
			name: "negative chunk rate",
			modify: func(c *Config) {
				c.Mock.ChunkRate = -1
			},
			wantErr: "mock.chunk_rate",
		},
		{
			name: "metrics path without slash",
			modify: func(c *Config) {
				c.Observability.Metrics.Path = "metrics"
			},
			wantErr: "observability.metrics.path",
		},
		{
			name: "negative rate limit",
			modify: func(c *Config) {
				c.Mock.RateLimit = -1
			},
			wantErr: "mock.rate_limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidationJoinsErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Client.BaseURL = ""
	cfg.Stream.Marker = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "client.base_url") || !strings.Contains(msg, "stream.marker") {
		t.Errorf("expected both failures reported, got %q", msg)
	}
}

func TestYAMLDefaultsMerge(t *testing.T) {
	isolateEnv(t)

	// A partial YAML keeps every default it does not mention.
	path := writeTemp(t, "partial-*.yaml", `
mock:
  port: 5999
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Mock.Port != 5999 {
		t.Errorf("mock.port = %d, want 5999", cfg.Mock.Port)
	}
	if cfg.Mock.Prefix != "/api/v1" {
		t.Errorf("mock.prefix should keep default, got %q", cfg.Mock.Prefix)
	}
	if cfg.Stream.Marker != "[[__STREAM_DONE__]]" {
		t.Errorf("stream.marker should keep default, got %q", cfg.Stream.Marker)
	}
	if cfg.Client.ResponseHeaderTimeout != 180*time.Second {
		t.Errorf("response_header_timeout should keep default, got %v", cfg.Client.ResponseHeaderTimeout)
	}
}

func TestSSEBaseFallback(t *testing.T) {
	c := ClientConfig{BaseURL: "http://a/api/v1"}
	if got := c.SSEBase(); got != "http://a/api/v1" {
		t.Errorf("SSEBase() = %q, want base_url fallback", got)
	}
}

// writeTemp creates a temporary file with the given content and returns its path.
// The file is automatically cleaned up when the test finishes.
func writeTemp(t *testing.T, pattern, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), pattern)
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		t.Fatalf("writing temp file: %v", err)
	}
	f.Close()
	return f.Name()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}
