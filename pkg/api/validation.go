package api

import "strings"

// Validation messages. They match the backend's wording so a request
// rejected locally reads the same as one rejected remotely.
const (
	MsgNoFilePart          = "No file part"
	MsgNoSelectedFile      = "No selected file"
	MsgContentRequired     = "Content is required"
	MsgClientNeedsRequired = "Client needs are required"
	MsgNoMethodology       = "请至少选择系统内置方法论或添加书籍作为评审依据"
	MsgNoDesignMethodology = "请至少选择系统内置方法论或添加书籍作为设计依据"
	MsgParentFileRequired  = "请上传父方案文档"
	MsgSubPlanTitleMissing = "请填写要生成的子专项/子方案名称"
)

// Validate checks an AnalyzeRequest. It returns an *APIError describing
// the first failure, or nil if the request is valid.
//
// A missing upload is reported before the methodologies and an empty
// file name after them, the same order the backend uses.
func (r *AnalyzeRequest) Validate() *APIError {
	if r.File.Content == nil {
		return NewInvalidRequestError("file", MsgNoFilePart)
	}
	if err := requireMethodology(r.Methodologies, r.CustomMethodologies, MsgNoMethodology); err != nil {
		return err
	}
	if r.File.Name == "" {
		return NewInvalidRequestError("file", MsgNoSelectedFile)
	}
	return nil
}

// Validate checks an AnalyzeMindmapRequest.
func (r *AnalyzeMindmapRequest) Validate() *APIError {
	return validateFile("file", r.File)
}

// Validate checks a SmartMindmapRequest.
func (r *SmartMindmapRequest) Validate() *APIError {
	return validateFile("file", r.File)
}

// Validate checks a GenerateMindmapRequest.
func (r *GenerateMindmapRequest) Validate() *APIError {
	if strings.TrimSpace(r.Content) == "" {
		return NewInvalidRequestError("content", MsgContentRequired)
	}
	return nil
}

// Validate checks a GenerateProposalRequest. A reference file with an
// empty name is treated as absent, as the backend does.
func (r *GenerateProposalRequest) Validate() *APIError {
	if r.ClientNeeds == "" {
		return NewInvalidRequestError("client_needs", MsgClientNeedsRequired)
	}
	return requireMethodology(r.Methodologies, r.CustomMethodologies, MsgNoDesignMethodology)
}

// HasReferenceFile reports whether the proposal carries a usable reference
// document and must therefore be sent as multipart.
func (r *GenerateProposalRequest) HasReferenceFile() bool {
	return r.ReferenceFile != nil && r.ReferenceFile.Name != "" && r.ReferenceFile.Content != nil
}

// Validate checks a GenerateSubProposalRequest.
func (r *GenerateSubProposalRequest) Validate() *APIError {
	if r.ParentFile.Content == nil || r.ParentFile.Name == "" {
		return NewInvalidRequestError("parent_file", MsgParentFileRequired)
	}
	if r.SubPlanTitle == "" {
		return NewInvalidRequestError("sub_plan_title", MsgSubPlanTitleMissing)
	}
	return requireMethodology(r.Methodologies, r.CustomMethodologies, MsgNoDesignMethodology)
}

func validateFile(param string, f File) *APIError {
	if f.Content == nil {
		return NewInvalidRequestError(param, MsgNoFilePart)
	}
	if f.Name == "" {
		return NewInvalidRequestError(param, MsgNoSelectedFile)
	}
	return nil
}

func requireMethodology(methodologies, custom []string, msg string) *APIError {
	if len(NormalizeMethodologies(methodologies)) == 0 && len(NormalizeMethodologies(custom)) == 0 {
		return NewInvalidRequestError("methodologies", msg)
	}
	return nil
}

// NormalizeMethodologies expands a single comma-separated value into
// separate entries and drops blank ones. The backend accepts both
// repeated form fields and "a,b" in one field.
func NormalizeMethodologies(values []string) []string {
	if len(values) == 1 && strings.Contains(values[0], ",") {
		values = strings.Split(values[0], ",")
	}
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
