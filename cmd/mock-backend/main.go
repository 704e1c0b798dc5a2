// Command mock-backend serves canned blueprint streams for local
// development of the client and CLI.
//
// Every /blueprint endpoint accepts the same request shape as the real
// backend, validates it, and streams a scripted markdown report in small
// paced chunks terminated by the stream marker.
//
// Configuration is read from config.yaml, .env files and BLUEPRINT_*
// environment variables (MOCK_PORT is honoured for compatibility).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"

	"github.com/rhuss/blueprint/pkg/auth"
	"github.com/rhuss/blueprint/pkg/auth/apikey"
	"github.com/rhuss/blueprint/pkg/config"
	"github.com/rhuss/blueprint/pkg/debug"
	"github.com/rhuss/blueprint/pkg/mock"
	"github.com/rhuss/blueprint/pkg/observability"
	"github.com/rhuss/blueprint/pkg/transport"
)

func main() {
	if err := run(); err != nil {
		slog.Error("mock backend failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "mock-backend",
		Usage: "Serve scripted blueprint streams for local development",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (overrides mock.port)",
			},
			&cli.BoolFlag{
				Name:  "omit-marker",
				Usage: "Close streams without sending the marker",
			},
		},
		Action: serve,
	}
	return app.Run(ctx, os.Args)
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}
	debug.Init(cfg.Logging.Debug, cfg.Logging.Level, nil)

	if cmd.IsSet("port") {
		cfg.Mock.Port = int(cmd.Int("port"))
	}
	if cmd.Bool("omit-marker") {
		cfg.Mock.OmitMarker = true
	}

	handler, inflight := newHandler(cfg, slog.Default())

	addr := ":" + strconv.Itoa(cfg.Mock.Port)
	srv := transport.NewServer(handler,
		transport.WithAddr(addr),
		transport.WithInFlight(inflight),
		transport.WithLogger(slog.Default()),
	)

	slog.Info("mock backend starting",
		"addr", addr,
		"prefix", cfg.Mock.Prefix,
		"chunk_size", cfg.Mock.ChunkSize,
		"chunk_rate", cfg.Mock.ChunkRate,
		"omit_marker", cfg.Mock.OmitMarker,
		"api_keys", len(cfg.Mock.APIKeys),
		"rate_limit", cfg.Mock.RateLimit,
	)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	slog.Info("mock backend stopped")
	return nil
}

// newHandler assembles the routed, instrumented handler for the mock.
func newHandler(cfg *config.Config, logger *slog.Logger) (http.Handler, *transport.InFlightRegistry) {
	inflight := transport.NewInFlightRegistry()
	backend := mock.New(mock.Config{
		Prefix:     cfg.Mock.Prefix,
		Marker:     cfg.Stream.Marker,
		ChunkSize:  cfg.Mock.ChunkSize,
		ChunkRate:  cfg.Mock.ChunkRate,
		OmitMarker: cfg.Mock.OmitMarker,
		InFlight:   inflight,
		Logger:     logger,
	})

	mux := http.NewServeMux()
	backend.Register(mux)
	if cfg.Observability.Metrics.Enabled {
		mux.Handle("GET "+cfg.Observability.Metrics.Path, promhttp.Handler())
	}

	middlewares := []transport.Middleware{
		transport.Recovery(logger),
		transport.RequestID(),
		transport.Logging(logger),
	}
	if mw := authMiddleware(cfg); mw != nil {
		middlewares = append(middlewares, mw)
	}

	// Metrics must sit directly on the mux so the matched route pattern
	// is visible after routing.
	return transport.Chain(middlewares...)(observability.MetricsMiddleware(mux)), inflight
}

// authMiddleware returns nil when neither API keys nor a rate limit are
// configured.
func authMiddleware(c *config.Config) transport.Middleware {
	cfg := c.Mock
	if len(cfg.APIKeys) == 0 && cfg.RateLimit == 0 {
		return nil
	}

	chain := &auth.Chain{DefaultDecision: auth.Yes}
	if len(cfg.APIKeys) > 0 {
		chain.Authenticators = []auth.Authenticator{apikey.FromKeys(cfg.APIKeys)}
		chain.DefaultDecision = auth.No
	}

	var limiter auth.RateLimiter
	if cfg.RateLimit > 0 {
		limiter = auth.NewInProcessLimiter(cfg.RateLimit)
	}
	bypass := append([]string{}, auth.DefaultBypassEndpoints...)
	bypass = append(bypass, c.Observability.Metrics.Path)
	return auth.Middleware(chain, limiter, bypass)
}
