package main

import (
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/rhuss/blueprint/pkg/api"
	"github.com/rhuss/blueprint/pkg/client"
	"github.com/rhuss/blueprint/pkg/config"
	"github.com/rhuss/blueprint/pkg/debug"
	"github.com/rhuss/blueprint/pkg/observability"
	"github.com/rhuss/blueprint/pkg/stream"
)

// runner carries the output writer through command actions.
type runner struct {
	out io.Writer
}

func newApp(out io.Writer) *cli.Command {
	r := &runner{out: out}
	return &cli.Command{
		Name:  "blueprint",
		Usage: "Stream blueprint analyses, mind maps and proposals",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "Backend API root (overrides client.base_url)",
			},
			&cli.StringFlag{
				Name:  "metrics-file",
				Usage: "Write stream metrics in Prometheus text format to this file on exit",
			},
		},
		Commands: []*cli.Command{
			analyzeCommand(r),
			analyzeMindmapCommand(r),
			smartMindmapCommand(r),
			generateMindmapCommand(r),
			generateProposalCommand(r),
			generateSubProposalCommand(r),
		},
	}
}

func methodologyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "methodology",
			Aliases: []string{"m"},
			Usage:   "Methodology to apply (repeatable)",
		},
		&cli.StringSliceFlag{
			Name:  "custom-methodology",
			Usage: "Custom methodology to apply (repeatable)",
		},
	}
}

func analyzeCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Review a blueprint document against methodologies",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Document to analyze"},
			&cli.StringFlag{Name: "prompt", Usage: "Custom prompt"},
			&cli.StringFlag{Name: "user-id", Usage: "User ID (overrides client.user.id)"},
			&cli.StringFlag{Name: "username", Usage: "Username (overrides client.user.name)"},
			&cli.StringFlag{Name: "role", Usage: "User role (overrides client.user.role)"},
		}, methodologyFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			file, closeFile, err := openFile(cmd.String("file"))
			if err != nil {
				return err
			}
			defer closeFile()

			req := api.AnalyzeRequest{
				File:                file,
				CustomPrompt:        cmd.String("prompt"),
				Methodologies:       cmd.StringSlice("methodology"),
				CustomMethodologies: cmd.StringSlice("custom-methodology"),
			}
			if id := cmd.String("user-id"); id != "" {
				req.User = &api.UserInfo{
					UserID:   id,
					Username: cmd.String("username"),
					Role:     cmd.String("role"),
				}
			}
			return r.stream(ctx, cmd, func(c *client.Client) client.Operation {
				if req.User == nil {
					req.User = c.DefaultUser()
				}
				return client.NewAnalyzeOperation(req)
			})
		},
	}
}

func analyzeMindmapCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "analyze-mindmap",
		Usage: "Diagnose a document and render the result as a mind map",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Document to analyze"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			file, closeFile, err := openFile(cmd.String("file"))
			if err != nil {
				return err
			}
			defer closeFile()
			op := client.NewAnalyzeMindmapOperation(api.AnalyzeMindmapRequest{File: file})
			return r.stream(ctx, cmd, constOp(op))
		},
	}
}

func smartMindmapCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "smart-mindmap",
		Usage: "Render a document as a mind map",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Document to map"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			file, closeFile, err := openFile(cmd.String("file"))
			if err != nil {
				return err
			}
			defer closeFile()
			op := client.NewSmartMindmapOperation(api.SmartMindmapRequest{File: file})
			return r.stream(ctx, cmd, constOp(op))
		},
	}
}

func generateMindmapCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "generate-mindmap",
		Usage: "Convert a markdown report into a mind map",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "content", Usage: "Markdown content"},
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "Read markdown content from a file, or - for stdin"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			content := cmd.String("content")
			if path := cmd.String("input"); path != "" {
				b, err := readInput(path)
				if err != nil {
					return err
				}
				content = string(b)
			}
			op := client.NewGenerateMindmapOperation(api.GenerateMindmapRequest{Content: content})
			return r.stream(ctx, cmd, constOp(op))
		},
	}
}

func generateProposalCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "generate-proposal",
		Usage: "Draft a proposal from client needs",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "client-needs", Usage: "What the client needs"},
			&cli.StringFlag{Name: "user-ideas", Usage: "Ideas to include"},
			&cli.StringFlag{Name: "reference-file", Usage: "Reference document (sends the request as a form upload)"},
		}, methodologyFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			req := api.GenerateProposalRequest{
				ClientNeeds:         cmd.String("client-needs"),
				UserIdeas:           cmd.String("user-ideas"),
				Methodologies:       cmd.StringSlice("methodology"),
				CustomMethodologies: cmd.StringSlice("custom-methodology"),
			}
			if path := cmd.String("reference-file"); path != "" {
				file, closeFile, err := openFile(path)
				if err != nil {
					return err
				}
				defer closeFile()
				req.ReferenceFile = &file
			}
			return r.stream(ctx, cmd, constOp(client.NewGenerateProposalOperation(req)))
		},
	}
}

func generateSubProposalCommand(r *runner) *cli.Command {
	return &cli.Command{
		Name:  "generate-sub-proposal",
		Usage: "Draft one sub-plan of an existing proposal",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "parent-file", Usage: "Parent proposal document"},
			&cli.StringFlag{Name: "title", Usage: "Sub-plan title"},
			&cli.StringFlag{Name: "details", Usage: "Sub-plan details"},
		}, methodologyFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			file, closeFile, err := openFile(cmd.String("parent-file"))
			if err != nil {
				return err
			}
			defer closeFile()
			op := client.NewGenerateSubProposalOperation(api.GenerateSubProposalRequest{
				ParentFile:          file,
				SubPlanTitle:        cmd.String("title"),
				SubPlanDetails:      cmd.String("details"),
				Methodologies:       cmd.StringSlice("methodology"),
				CustomMethodologies: cmd.StringSlice("custom-methodology"),
			})
			return r.stream(ctx, cmd, constOp(op))
		},
	}
}

func constOp(op client.Operation) func(*client.Client) client.Operation {
	return func(*client.Client) client.Operation { return op }
}

// stream loads configuration, builds a client and copies the decoded
// fragments of the operation to the output. An interrupted stream is not
// an error.
func (r *runner) stream(ctx context.Context, cmd *cli.Command, build func(*client.Client) client.Operation) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}
	if path := cmd.String("metrics-file"); path != "" {
		defer func() {
			if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
				debug.Log("cli", "writing metrics file failed", "path", path, "error", err)
			}
		}()
	}
	return copyStream(r.out, c.Stream(ctx, build(c)))
}

// copyStream writes each fragment to w and terminates non-empty output
// with a newline. A write error stops the stream.
func copyStream(w io.Writer, seq iter.Seq2[string, error]) error {
	var last byte
	for fragment, err := range seq {
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, fragment); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		last = fragment[len(fragment)-1]
	}
	if last != 0 && last != '\n' {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}
	return nil
}

func newClient(cmd *cli.Command) (*client.Client, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	debug.Init(cfg.Logging.Debug, cfg.Logging.Level, nil)

	if u := cmd.String("base-url"); u != "" {
		cfg.Client.BaseURL = u
		cfg.Client.SSEBaseURL = ""
	}

	ccfg := client.Config{
		BaseURL:               cfg.Client.BaseURL,
		SSEBaseURL:            cfg.Client.SSEBase(),
		Sentinel:              cfg.Stream.Marker,
		ReadSize:              cfg.Stream.ReadSize,
		ResponseHeaderTimeout: cfg.Client.ResponseHeaderTimeout,
		Headers:               cfg.Client.Headers,
		NewObserver: func(operation string) stream.Observer {
			return observability.NewStreamObserver(operation)
		},
	}
	if cfg.Client.User.UserID != "" {
		user := cfg.Client.User
		ccfg.User = &user
	}
	return client.New(ccfg)
}

// openFile opens path as an upload. An empty path yields a zero File so
// request validation reports the missing document.
func openFile(path string) (api.File, func(), error) {
	if path == "" {
		return api.File{}, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return api.File{}, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return api.File{Name: filepath.Base(path), Content: f}, func() { f.Close() }, nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return b, nil
}
