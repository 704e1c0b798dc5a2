package client

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rhuss/blueprint/pkg/api"
	"github.com/rhuss/blueprint/pkg/debug"
	"github.com/rhuss/blueprint/pkg/stream"
)

// Config holds the settings for a Client.
type Config struct {
	// BaseURL is the backend API root, e.g. http://127.0.0.1:5000/api/v1.
	BaseURL string

	// SSEBaseURL is used for operations that report UsesSSEBase. Defaults
	// to BaseURL.
	SSEBaseURL string

	// Sentinel terminates every response stream. Defaults to
	// stream.DefaultSentinel.
	Sentinel string

	// ReadSize is the response body read buffer size.
	ReadSize int

	// ResponseHeaderTimeout bounds the wait for response headers. The
	// body itself has no deadline; its lifetime is controlled by the
	// request context.
	ResponseHeaderTimeout time.Duration

	// Headers are added to every request.
	Headers map[string]string

	// User is attached to analyze requests that carry no user of their own.
	User *api.UserInfo

	// HTTPClient overrides the client used to send requests. Its Timeout
	// should be zero.
	HTTPClient *http.Client

	// NewObserver, if set, is called once per stream to obtain an
	// observer for metrics.
	NewObserver func(operation string) stream.Observer
}

// Client performs streaming requests against the blueprint backend.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	sseBaseURL  string
	sentinel    string
	readSize    int
	headers     map[string]string
	user        *api.UserInfo
	newObserver func(operation string) stream.Observer
}

// New creates a Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("client: base URL is required")
	}
	if cfg.Sentinel == "" {
		cfg.Sentinel = stream.DefaultSentinel
	}

	// Normalize: remove trailing slash from base URLs.
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	sseBaseURL := strings.TrimRight(cfg.SSEBaseURL, "/")
	if sseBaseURL == "" {
		sseBaseURL = baseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.ResponseHeaderTimeout = cfg.ResponseHeaderTimeout
		// No client timeout: a stream can legitimately last longer than
		// any fixed deadline.
		httpClient = &http.Client{Transport: transport}
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		sseBaseURL:  sseBaseURL,
		sentinel:    cfg.Sentinel,
		readSize:    cfg.ReadSize,
		headers:     cfg.Headers,
		user:        cfg.User,
		newObserver: cfg.NewObserver,
	}, nil
}

// StartStream sends op and decodes the response body into h.
//
// Exactly one of h.OnError and h.OnComplete is called before StartStream
// returns. Validation failures, network errors, non-2xx responses and read
// errors go to h.OnError as *api.APIError and are also returned.
// Cancellation of ctx, before or during the request, resolves through
// h.OnComplete and returns nil.
func (c *Client) StartStream(ctx context.Context, op Operation, h stream.Handler) error {
	d, err := stream.NewDecoder(c.sentinel, h)
	if err != nil {
		return err
	}

	var obs stream.Observer
	if c.newObserver != nil {
		obs = c.newObserver(op.Name())
	}
	// ended reports outcomes reached before the body is pumped.
	ended := func() {
		if obs != nil {
			obs.StreamEnded(d.Outcome())
		}
	}
	fail := func(err error) error {
		debug.Log("client", "stream failed", "operation", op.Name(), "error", err)
		d.Fail(err)
		ended()
		return err
	}

	if ctx.Err() != nil {
		d.Abort()
		ended()
		return nil
	}

	body, err := op.Build()
	if err != nil {
		return fail(err)
	}

	req, err := c.newRequest(ctx, op, body)
	if err != nil {
		return fail(api.NewServerError(fmt.Sprintf("failed to create HTTP request: %s", err.Error())))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			debug.Log("client", "stream aborted before response", "operation", op.Name())
			d.Abort()
			ended()
			return nil
		}
		return fail(MapNetworkError(err))
	}
	defer resp.Body.Close()

	// Check for error status codes before starting the stream.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fail(MapHTTPError(resp))
	}

	debug.Log("client", "stream started",
		"operation", op.Name(),
		"status", resp.StatusCode,
		"request_id", req.Header.Get("X-Request-ID"),
	)

	d.SetStopper(resp.Body.Close)

	opts := []stream.PumpOption{
		stream.WithReadSize(c.readSize),
		stream.WithErrorMapper(mapReadError),
	}
	if obs != nil {
		opts = append(opts, stream.WithObserver(obs))
	}
	return stream.Pump(ctx, resp.Body, d, opts...)
}

// Stream returns the decoded fragments of op as a single-use sequence.
// Breaking out of the loop aborts the request.
func (c *Client) Stream(ctx context.Context, op Operation) iter.Seq2[string, error] {
	return stream.Sequence(ctx, func(ctx context.Context, h stream.Handler) error {
		return c.StartStream(ctx, op, h)
	})
}

func (c *Client) newRequest(ctx context.Context, op Operation, body Body) (*http.Request, error) {
	base := c.baseURL
	if op.UsesSSEBase() {
		base = c.sseBaseURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+op.Path(), body.Reader)
	if err != nil {
		return nil, err
	}

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", body.ContentType)
	req.Header.Set("Accept", "text/event-stream")
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}
	return req, nil
}

// DefaultUser returns the user attached to analyze requests that carry
// none, or nil.
func (c *Client) DefaultUser() *api.UserInfo {
	return c.user
}

// Analyze streams a blueprint review. The client's default user is
// attached when req.User is nil.
func (c *Client) Analyze(ctx context.Context, req api.AnalyzeRequest, h stream.Handler) error {
	if req.User == nil {
		req.User = c.user
	}
	return c.StartStream(ctx, NewAnalyzeOperation(req), h)
}

// AnalyzeMindmap streams a diagnosis mind map for a document.
func (c *Client) AnalyzeMindmap(ctx context.Context, req api.AnalyzeMindmapRequest, h stream.Handler) error {
	return c.StartStream(ctx, NewAnalyzeMindmapOperation(req), h)
}

// SmartMindmap streams a mind map for a document.
func (c *Client) SmartMindmap(ctx context.Context, req api.SmartMindmapRequest, h stream.Handler) error {
	return c.StartStream(ctx, NewSmartMindmapOperation(req), h)
}

// GenerateMindmap streams a mind map built from markdown content.
func (c *Client) GenerateMindmap(ctx context.Context, req api.GenerateMindmapRequest, h stream.Handler) error {
	return c.StartStream(ctx, NewGenerateMindmapOperation(req), h)
}

// GenerateProposal streams a proposal draft.
func (c *Client) GenerateProposal(ctx context.Context, req api.GenerateProposalRequest, h stream.Handler) error {
	return c.StartStream(ctx, NewGenerateProposalOperation(req), h)
}

// GenerateSubProposal streams a sub-plan of a parent proposal.
func (c *Client) GenerateSubProposal(ctx context.Context, req api.GenerateSubProposalRequest, h stream.Handler) error {
	return c.StartStream(ctx, NewGenerateSubProposalOperation(req), h)
}
