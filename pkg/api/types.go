package api

import "io"

// File is an uploaded document. Content is read once when the request
// body is built.
type File struct {
	Name    string
	Content io.Reader
}

// UserInfo identifies the caller for usage accounting on the backend.
type UserInfo struct {
	UserID   string `json:"user_id" yaml:"id"`
	Username string `json:"username" yaml:"name"`
	Role     string `json:"role,omitempty" yaml:"role"`
}

// AnalyzeRequest asks the backend to review a blueprint document against
// a set of methodologies.
type AnalyzeRequest struct {
	File                File
	CustomPrompt        string
	User                *UserInfo
	Methodologies       []string
	CustomMethodologies []string
}

// AnalyzeMindmapRequest asks for a diagnosis of a document rendered as a
// mind map.
type AnalyzeMindmapRequest struct {
	File File
}

// SmartMindmapRequest asks for a mind map of a document without a
// diagnosis pass.
type SmartMindmapRequest struct {
	File File
}

// GenerateMindmapRequest converts an existing markdown report into a mind map.
type GenerateMindmapRequest struct {
	Content string `json:"content"`
}

// GenerateProposalRequest drafts a proposal. When ReferenceFile is set the
// request is sent as a multipart form, otherwise as JSON.
type GenerateProposalRequest struct {
	ClientNeeds         string   `json:"client_needs"`
	UserIdeas           string   `json:"user_ideas"`
	Methodologies       []string `json:"methodologies"`
	CustomMethodologies []string `json:"custom_methodologies"`
	ReferenceFile       *File    `json:"-"`
}

// GenerateSubProposalRequest drafts one sub-plan of an existing proposal
// document.
type GenerateSubProposalRequest struct {
	ParentFile          File
	SubPlanTitle        string
	SubPlanDetails      string
	Methodologies       []string
	CustomMethodologies []string
}
