package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.Client.BaseURL == "" {
		errs = append(errs, fmt.Errorf("client.base_url is required"))
	} else if err := validateHTTPURL(c.Client.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("client.base_url: %w", err))
	}

	if c.Client.SSEBaseURL != "" {
		if err := validateHTTPURL(c.Client.SSEBaseURL); err != nil {
			errs = append(errs, fmt.Errorf("client.sse_base_url: %w", err))
		}
	}

	if c.Client.ResponseHeaderTimeout < 0 {
		errs = append(errs, fmt.Errorf("client.response_header_timeout must be >= 0, got %s", c.Client.ResponseHeaderTimeout))
	}

	// The marker must be identical on both ends and can never be empty.
	if c.Stream.Marker == "" {
		errs = append(errs, fmt.Errorf("stream.marker must not be empty"))
	}

	if c.Stream.ReadSize <= 0 {
		errs = append(errs, fmt.Errorf("stream.read_size must be > 0, got %d", c.Stream.ReadSize))
	}

	if c.Mock.Port <= 0 || c.Mock.Port > 65535 {
		errs = append(errs, fmt.Errorf("mock.port must be between 1 and 65535, got %d", c.Mock.Port))
	}

	if c.Mock.Prefix != "" && !strings.HasPrefix(c.Mock.Prefix, "/") {
		errs = append(errs, fmt.Errorf("mock.prefix must start with \"/\", got %q", c.Mock.Prefix))
	}

	if c.Mock.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("mock.chunk_size must be > 0, got %d", c.Mock.ChunkSize))
	}

	if c.Mock.ChunkRate < 0 {
		errs = append(errs, fmt.Errorf("mock.chunk_rate must be >= 0, got %g", c.Mock.ChunkRate))
	}

	if c.Mock.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("mock.rate_limit must be >= 0, got %d", c.Mock.RateLimit))
	}

	if c.Observability.Metrics.Enabled && !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("observability.metrics.path must start with \"/\", got %q", c.Observability.Metrics.Path))
	}

	return errors.Join(errs...)
}

// SSEBase returns the base URL for streaming analysis requests, which
// falls back to the regular base URL.
func (c *ClientConfig) SSEBase() string {
	if c.SSEBaseURL != "" {
		return c.SSEBaseURL
	}
	return c.BaseURL
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}
