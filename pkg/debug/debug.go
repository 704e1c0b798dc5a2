// Package debug provides category-based debug logging for the blueprint
// client and mock backend.
//
// Two orthogonal controls:
//   - Categories (WHAT to debug): BLUEPRINT_DEBUG env or logging.debug in config
//   - Levels (HOW MUCH detail): BLUEPRINT_LOG_LEVEL env or logging.level in config
//
// Usage:
//
//	debug.Log("client", "request", "operation", op, "url", url)
//	if debug.Enabled("stream") { /* expensive formatting */ }
//
// Categories: client, stream, config, mock, transport, all.
// Levels: ERROR, WARN, INFO, DEBUG, TRACE.
package debug

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"
)

// LevelTrace is below slog.LevelDebug for maximum verbosity.
// At TRACE, every decoded chunk is logged in full.
const LevelTrace = slog.LevelDebug - 4

// categories holds the set of enabled debug categories.
// Read-only after Init.
var categories map[string]bool

func init() {
	categories = parseCategories(os.Getenv("BLUEPRINT_DEBUG"))
}

// Init configures categories and the default slog logger. Environment
// variables take precedence over the config values. Output goes to w, or
// stderr when w is nil.
func Init(configCategories string, configLevel string, w io.Writer) {
	cats := os.Getenv("BLUEPRINT_DEBUG")
	if cats == "" {
		cats = configCategories
	}
	categories = parseCategories(cats)

	level := os.Getenv("BLUEPRINT_LOG_LEVEL")
	if level == "" {
		level = configLevel
	}

	if w == nil {
		w = os.Stderr
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})))
}

// Enabled reports whether debug output is active for the given category.
func Enabled(category string) bool {
	return categories["all"] || categories[category]
}

// Log emits a debug message for the given category.
// If the category is not enabled, this is a no-op.
func Log(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// Trace emits a trace-level message for the given category.
// Only visible when BLUEPRINT_LOG_LEVEL=TRACE.
func Trace(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Log(context.Background(), LevelTrace, msg, append([]any{"debug", category}, args...)...)
}

// TraceIsEnabled reports whether TRACE level is active for the given category.
func TraceIsEnabled(category string) bool {
	if !Enabled(category) {
		return false
	}
	return slog.Default().Enabled(context.Background(), LevelTrace)
}

// ParseLevel converts a level string to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "INFO", "":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Truncate shortens s to at most maxLen bytes without cutting a character
// in half, appending "..." when it had to cut.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	if s == "" {
		return m
	}
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			m[cat] = true
		}
	}
	return m
}
