// Command blueprint streams blueprint analyses, mind maps and proposals
// from the backend to stdout.
//
// Each subcommand maps to one backend operation. Output is written as it
// arrives; the stream marker is never printed. Interrupting with Ctrl-C
// stops the request and exits cleanly with the text received so far.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rhuss/blueprint/pkg/api"
)

func main() {
	if err := run(); err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			fmt.Fprintln(os.Stderr, "error:", apiErr.Message)
		} else {
			slog.Error("blueprint failed", "error", err)
		}
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := newApp(os.Stdout)
	return app.Run(ctx, os.Args)
}
