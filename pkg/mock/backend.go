package mock

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/rhuss/blueprint/pkg/api"
	"github.com/rhuss/blueprint/pkg/debug"
	"github.com/rhuss/blueprint/pkg/stream"
	"github.com/rhuss/blueprint/pkg/transport"
)

// Config holds the mock backend settings.
type Config struct {
	// Prefix is prepended to every /blueprint route, e.g. "/api/v1".
	Prefix string

	// Marker terminates every stream.
	Marker string

	// ChunkSize is the number of characters per written chunk.
	ChunkSize int

	// ChunkRate limits chunks per second. Zero disables pacing.
	ChunkRate float64

	// OmitMarker closes streams without the marker.
	OmitMarker bool

	// MaxUploadSize bounds request bodies. Defaults to 32 MB.
	MaxUploadSize int64

	// InFlight, if set, tracks active streams for cancellation.
	InFlight *transport.InFlightRegistry

	Logger *slog.Logger
}

// Backend serves the streaming endpoints.
type Backend struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Backend, filling in defaults for unset fields.
func New(cfg Config) *Backend {
	if cfg.Marker == "" {
		cfg.Marker = stream.DefaultSentinel
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 24
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = 32 << 20
	}
	cfg.Prefix = strings.TrimRight(cfg.Prefix, "/")
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{cfg: cfg, logger: logger}
}

// Register adds the backend routes to mux.
func (b *Backend) Register(mux *http.ServeMux) {
	route := func(name string, h http.HandlerFunc) {
		mux.Handle("POST "+b.cfg.Prefix+"/blueprint/"+name, h)
	}
	route("analyze", b.handleAnalyze)
	route("analyze_mindmap", b.handleAnalyzeMindmap)
	route("smart_mindmap", b.handleSmartMindmap)
	route("generate_mindmap", b.handleGenerateMindmap)
	route("generate_proposal", b.handleGenerateProposal)
	route("generate_sub_proposal", b.handleGenerateSubProposal)
	mux.HandleFunc("GET /healthz", handleHealth)
}

// Handler returns a mux with all backend routes.
func (b *Backend) Handler() http.Handler {
	mux := http.NewServeMux()
	b.Register(mux)
	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (b *Backend) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !b.parseForm(w, r) {
		return
	}
	file, _ := formFile(r, "file")
	req := api.AnalyzeRequest{
		File:                file,
		CustomPrompt:        r.FormValue("custom_prompt"),
		Methodologies:       api.NormalizeMethodologies(formValues(r, "methodologies")),
		CustomMethodologies: formValues(r, "custom_methodologies"),
	}
	if err := req.Validate(); err != nil {
		transport.WriteAPIError(w, err)
		return
	}
	up, ok := b.readUpload(w, req.File)
	if !ok {
		return
	}
	if id := r.FormValue("user_id"); id != "" {
		debug.Log("mock", "analyze requested",
			"user_id", id,
			"username", r.FormValue("username"),
			"role", r.FormValue("role"),
			"file", up.name,
		)
	}
	b.stream(w, r, "analyze", analyzeScript(up, req.CustomPrompt, req.Methodologies, req.CustomMethodologies))
}

func (b *Backend) handleAnalyzeMindmap(w http.ResponseWriter, r *http.Request) {
	up, ok := b.singleFile(w, r)
	if !ok {
		return
	}
	b.stream(w, r, "analyze_mindmap", analyzeMindmapScript(up))
}

func (b *Backend) handleSmartMindmap(w http.ResponseWriter, r *http.Request) {
	up, ok := b.singleFile(w, r)
	if !ok {
		return
	}
	b.stream(w, r, "smart_mindmap", smartMindmapScript(up))
}

func (b *Backend) handleGenerateMindmap(w http.ResponseWriter, r *http.Request) {
	var req api.GenerateMindmapRequest
	if err := decodeJSON(r, b.cfg.MaxUploadSize, &req); err != nil {
		transport.WriteAPIError(w, api.NewInvalidRequestError("content", api.MsgContentRequired))
		return
	}
	if err := req.Validate(); err != nil {
		transport.WriteAPIError(w, err)
		return
	}
	b.stream(w, r, "generate_mindmap", generateMindmapScript(req.Content))
}

func (b *Backend) handleGenerateProposal(w http.ResponseWriter, r *http.Request) {
	var req api.GenerateProposalRequest
	var ref *upload

	if isJSON(r) {
		if err := decodeJSON(r, b.cfg.MaxUploadSize, &req); err != nil {
			transport.WriteAPIError(w, api.NewInvalidRequestError("", "invalid JSON body"))
			return
		}
	} else {
		if !b.parseForm(w, r) {
			return
		}
		req.ClientNeeds = r.FormValue("client_needs")
		req.UserIdeas = r.FormValue("user_ideas")
		req.Methodologies = api.NormalizeMethodologies(formValues(r, "methodologies"))
		req.CustomMethodologies = formValues(r, "custom_methodologies")
		if f, ok := formFile(r, "reference_file", "file"); ok && f.Name != "" {
			req.ReferenceFile = &f
		}
	}

	if err := req.Validate(); err != nil {
		transport.WriteAPIError(w, err)
		return
	}
	if req.HasReferenceFile() {
		up, ok := b.readUpload(w, *req.ReferenceFile)
		if !ok {
			return
		}
		ref = &up
	}
	b.stream(w, r, "generate_proposal", proposalScript(req.ClientNeeds, req.UserIdeas,
		api.NormalizeMethodologies(req.Methodologies), req.CustomMethodologies, ref))
}

func (b *Backend) handleGenerateSubProposal(w http.ResponseWriter, r *http.Request) {
	if !b.parseForm(w, r) {
		return
	}
	parent, _ := formFile(r, "parent_file", "file")
	req := api.GenerateSubProposalRequest{
		ParentFile:          parent,
		SubPlanTitle:        r.FormValue("sub_plan_title"),
		SubPlanDetails:      r.FormValue("sub_plan_details"),
		Methodologies:       api.NormalizeMethodologies(formValues(r, "methodologies")),
		CustomMethodologies: formValues(r, "custom_methodologies"),
	}
	if err := req.Validate(); err != nil {
		transport.WriteAPIError(w, err)
		return
	}
	up, ok := b.readUpload(w, req.ParentFile)
	if !ok {
		return
	}
	b.stream(w, r, "generate_sub_proposal",
		subProposalScript(up, req.SubPlanTitle, req.SubPlanDetails, req.Methodologies, req.CustomMethodologies))
}

// singleFile handles the endpoints that take only a "file" upload.
func (b *Backend) singleFile(w http.ResponseWriter, r *http.Request) (upload, bool) {
	if !b.parseForm(w, r) {
		return upload{}, false
	}
	file, _ := formFile(r, "file")
	req := api.SmartMindmapRequest{File: file}
	if err := req.Validate(); err != nil {
		transport.WriteAPIError(w, err)
		return upload{}, false
	}
	return b.readUpload(w, req.File)
}

func (b *Backend) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, b.cfg.MaxUploadSize)
	if err := parseForm(r, b.cfg.MaxUploadSize); err != nil {
		transport.WriteAPIError(w, api.NewInvalidRequestError("", "malformed form body: "+err.Error()))
		return false
	}
	return true
}

func (b *Backend) readUpload(w http.ResponseWriter, f api.File) (upload, bool) {
	up, err := readUpload(f, b.cfg.MaxUploadSize)
	if err != nil {
		transport.WriteAPIError(w, api.NewServerError(err.Error()))
		return upload{}, false
	}
	return up, true
}

// stream writes text followed by the marker in paced chunks. It stops
// early when the client goes away or the stream is cancelled.
func (b *Backend) stream(w http.ResponseWriter, r *http.Request, operation, text string) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	id := transport.RequestIDFromContext(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	if b.cfg.InFlight != nil {
		b.cfg.InFlight.Register(id, cancel)
		defer b.cfg.InFlight.Remove(id)
	}

	payload := text
	if !b.cfg.OmitMarker {
		payload += b.cfg.Marker
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if b.cfg.ChunkRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(b.cfg.ChunkRate), 1)
	}

	ts := transport.NewTextStream(w)
	defer ts.Close()

	chunks := splitRunes(payload, b.cfg.ChunkSize)
	for i, chunk := range chunks {
		if err := limiter.Wait(ctx); err != nil {
			b.logger.Info("stream cancelled",
				slog.String("request_id", id),
				slog.String("operation", operation),
				slog.Int("sent_chunks", i),
			)
			return
		}
		if err := ts.Write(chunk); err != nil {
			debug.Log("mock", "stream write failed", "request_id", id, "error", err)
			return
		}
		if debug.TraceIsEnabled("mock") {
			debug.Trace("mock", "chunk sent", "request_id", id, "chunk", debug.Truncate(chunk, 40))
		}
	}

	debug.Log("mock", "stream finished",
		"request_id", id,
		"operation", operation,
		"chunks", len(chunks),
		"bytes", ts.Written(),
		"marker", !b.cfg.OmitMarker,
	)
}
