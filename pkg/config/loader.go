package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rhuss/blueprint/pkg/debug"
)

// envFiles are loaded in order; a variable set by an earlier file or by
// the process environment is never overwritten.
var envFiles = []string{".env.local", ".env"}

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. .env files in the working directory
//  3. YAML config file (explicit path, BLUEPRINT_CONFIG env, ./config.yaml, /etc/blueprint/config.yaml)
//  4. Legacy and BLUEPRINT_* environment variable overrides
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadEnvFiles(envFiles); err != nil {
		return nil, fmt.Errorf("loading env files: %w", err)
	}

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
		debug.Log("config", "loaded config file", "path", filePath)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// loadEnvFiles loads the given dotenv files if they exist. Missing files
// are skipped; unreadable or malformed ones are an error.
func loadEnvFiles(files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		debug.Log("config", "loaded env file", "path", f)
	}
	return nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. BLUEPRINT_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/blueprint/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("BLUEPRINT_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/blueprint/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields. The
// variable names used by the original web client are honoured first so
// an existing .env keeps working; BLUEPRINT_* names win over them.
func applyEnvOverrides(cfg *Config) error {
	// Legacy names.
	if v := os.Getenv("VITE_API_BASE_URL"); v != "" {
		cfg.Client.BaseURL = v
	}
	if v := os.Getenv("VITE_SSE_API_BASE_URL"); v != "" {
		cfg.Client.SSEBaseURL = v
	}
	if v := os.Getenv("MOCK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Mock.Port = port
		}
	}

	if v := os.Getenv("BLUEPRINT_BASE_URL"); v != "" {
		cfg.Client.BaseURL = v
	}
	if v := os.Getenv("BLUEPRINT_SSE_BASE_URL"); v != "" {
		cfg.Client.SSEBaseURL = v
	}
	if v := os.Getenv("BLUEPRINT_RESPONSE_HEADER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BLUEPRINT_RESPONSE_HEADER_TIMEOUT: %w", err)
		}
		cfg.Client.ResponseHeaderTimeout = d
	}
	if v := os.Getenv("BLUEPRINT_HEADERS"); v != "" {
		headers, err := parseHeadersJSON(v)
		if err != nil {
			return err
		}
		cfg.Client.Headers = headers
	}
	if v := os.Getenv("BLUEPRINT_USER_ID"); v != "" {
		cfg.Client.User.UserID = v
	}
	if v := os.Getenv("BLUEPRINT_USERNAME"); v != "" {
		cfg.Client.User.Username = v
	}
	if v := os.Getenv("BLUEPRINT_ROLE"); v != "" {
		cfg.Client.User.Role = v
	}

	if v := os.Getenv("BLUEPRINT_MARKER"); v != "" {
		cfg.Stream.Marker = v
	}
	if v := os.Getenv("BLUEPRINT_READ_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Stream.ReadSize = n
		}
	}

	if v := os.Getenv("BLUEPRINT_MOCK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Mock.Port = port
		}
	}
	if v := os.Getenv("BLUEPRINT_MOCK_PREFIX"); v != "" {
		cfg.Mock.Prefix = v
	}
	if v := os.Getenv("BLUEPRINT_MOCK_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Mock.ChunkSize = n
		}
	}
	if v := os.Getenv("BLUEPRINT_MOCK_CHUNK_RATE"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Mock.ChunkRate = r
		}
	}
	if v := os.Getenv("BLUEPRINT_MOCK_OMIT_MARKER"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Mock.OmitMarker = b
		}
	}

	if v := os.Getenv("BLUEPRINT_MOCK_API_KEYS"); v != "" {
		cfg.Mock.APIKeys = splitList(v)
	}
	if v := os.Getenv("BLUEPRINT_MOCK_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Mock.RateLimit = n
		}
	}

	if v := os.Getenv("BLUEPRINT_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Observability.Metrics.Enabled = b
		}
	}

	return nil
}

// splitList splits a comma-separated value and drops blank entries.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseHeadersJSON parses a JSON object of extra request headers.
func parseHeadersJSON(jsonStr string) (map[string]string, error) {
	var headers map[string]string
	if err := json.Unmarshal([]byte(jsonStr), &headers); err != nil {
		return nil, fmt.Errorf("parsing BLUEPRINT_HEADERS JSON: %w", err)
	}
	return headers, nil
}
