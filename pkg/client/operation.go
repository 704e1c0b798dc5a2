package client

import (
	"github.com/rhuss/blueprint/pkg/api"
)

// Operation names, also used as metric labels.
const (
	OpAnalyze             = "analyze"
	OpAnalyzeMindmap      = "analyze_mindmap"
	OpSmartMindmap        = "smart_mindmap"
	OpGenerateMindmap     = "generate_mindmap"
	OpGenerateProposal    = "generate_proposal"
	OpGenerateSubProposal = "generate_sub_proposal"
)

// Operation describes one kind of streaming request. Implementations only
// prepare data; sending and decoding is done by Client.StartStream.
type Operation interface {
	// Name identifies the operation in logs and metrics.
	Name() string
	// Path is appended to the base URL.
	Path() string
	// UsesSSEBase reports whether the request goes to the SSE base URL.
	UsesSSEBase() bool
	// Build validates the request and encodes its body. Validation
	// failures are returned as *api.APIError.
	Build() (Body, error)
}

func blueprintPath(name string) string {
	return "/blueprint/" + name
}

// NewAnalyzeOperation reviews a blueprint document against methodologies.
func NewAnalyzeOperation(req api.AnalyzeRequest) Operation {
	return analyzeOp{req: req}
}

type analyzeOp struct{ req api.AnalyzeRequest }

func (analyzeOp) Name() string      { return OpAnalyze }
func (analyzeOp) Path() string      { return blueprintPath(OpAnalyze) }
func (analyzeOp) UsesSSEBase() bool { return true }

func (o analyzeOp) Build() (Body, error) {
	if err := o.req.Validate(); err != nil {
		return Body{}, err
	}
	f := newForm()
	f.file("file", o.req.File)
	if o.req.CustomPrompt != "" {
		f.field("custom_prompt", o.req.CustomPrompt)
	}
	if u := o.req.User; u != nil {
		f.field("user_id", u.UserID)
		f.field("username", u.Username)
		if u.Role != "" {
			f.field("role", u.Role)
		}
	}
	f.fields("methodologies", o.req.Methodologies)
	f.fields("custom_methodologies", o.req.CustomMethodologies)
	return f.body()
}

// NewAnalyzeMindmapOperation diagnoses a document and renders the result
// as a mind map.
func NewAnalyzeMindmapOperation(req api.AnalyzeMindmapRequest) Operation {
	return fileOnlyOp{name: OpAnalyzeMindmap, file: req.File, validate: req.Validate}
}

// NewSmartMindmapOperation renders a document as a mind map.
func NewSmartMindmapOperation(req api.SmartMindmapRequest) Operation {
	return fileOnlyOp{name: OpSmartMindmap, file: req.File, validate: req.Validate}
}

// fileOnlyOp uploads a single document in the "file" field.
type fileOnlyOp struct {
	name     string
	file     api.File
	validate func() *api.APIError
}

func (o fileOnlyOp) Name() string    { return o.name }
func (o fileOnlyOp) Path() string    { return blueprintPath(o.name) }
func (fileOnlyOp) UsesSSEBase() bool { return false }

func (o fileOnlyOp) Build() (Body, error) {
	if err := o.validate(); err != nil {
		return Body{}, err
	}
	f := newForm()
	f.file("file", o.file)
	return f.body()
}

// NewGenerateMindmapOperation converts a markdown report into a mind map.
func NewGenerateMindmapOperation(req api.GenerateMindmapRequest) Operation {
	return generateMindmapOp{req: req}
}

type generateMindmapOp struct{ req api.GenerateMindmapRequest }

func (generateMindmapOp) Name() string      { return OpGenerateMindmap }
func (generateMindmapOp) Path() string      { return blueprintPath(OpGenerateMindmap) }
func (generateMindmapOp) UsesSSEBase() bool { return false }

func (o generateMindmapOp) Build() (Body, error) {
	if err := o.req.Validate(); err != nil {
		return Body{}, err
	}
	return jsonBody(o.req)
}

// NewGenerateProposalOperation drafts a proposal from client needs. It is
// sent as multipart when a reference file is attached and as JSON
// otherwise.
func NewGenerateProposalOperation(req api.GenerateProposalRequest) Operation {
	return generateProposalOp{req: req}
}

type generateProposalOp struct{ req api.GenerateProposalRequest }

func (generateProposalOp) Name() string      { return OpGenerateProposal }
func (generateProposalOp) Path() string      { return blueprintPath(OpGenerateProposal) }
func (generateProposalOp) UsesSSEBase() bool { return false }

func (o generateProposalOp) Build() (Body, error) {
	if err := o.req.Validate(); err != nil {
		return Body{}, err
	}
	if !o.req.HasReferenceFile() {
		return jsonBody(o.req)
	}
	f := newForm()
	f.field("client_needs", o.req.ClientNeeds)
	f.field("user_ideas", o.req.UserIdeas)
	f.file("reference_file", *o.req.ReferenceFile)
	f.fields("methodologies", o.req.Methodologies)
	f.fields("custom_methodologies", o.req.CustomMethodologies)
	return f.body()
}

// NewGenerateSubProposalOperation drafts one sub-plan of a parent proposal.
func NewGenerateSubProposalOperation(req api.GenerateSubProposalRequest) Operation {
	return generateSubProposalOp{req: req}
}

type generateSubProposalOp struct {
	req api.GenerateSubProposalRequest
}

func (generateSubProposalOp) Name() string      { return OpGenerateSubProposal }
func (generateSubProposalOp) Path() string      { return blueprintPath(OpGenerateSubProposal) }
func (generateSubProposalOp) UsesSSEBase() bool { return false }

func (o generateSubProposalOp) Build() (Body, error) {
	if err := o.req.Validate(); err != nil {
		return Body{}, err
	}
	f := newForm()
	f.file("parent_file", o.req.ParentFile)
	f.field("sub_plan_title", o.req.SubPlanTitle)
	f.field("sub_plan_details", o.req.SubPlanDetails)
	f.fields("methodologies", o.req.Methodologies)
	f.fields("custom_methodologies", o.req.CustomMethodologies)
	return f.body()
}
