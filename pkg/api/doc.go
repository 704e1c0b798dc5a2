// Package api defines the request and error types shared by the blueprint
// client, CLI and mock backend.
//
// The blueprint backend exposes six streaming operations. Each one is
// described here by a plain request struct with a Validate method that
// mirrors the checks the backend performs before it starts streaming:
//
//   - [AnalyzeRequest]: review an uploaded blueprint document
//   - [AnalyzeMindmapRequest]: diagnose a document and render a mind map
//   - [SmartMindmapRequest]: render a mind map without diagnosis
//   - [GenerateMindmapRequest]: turn an analysis report into a mind map
//   - [GenerateProposalRequest]: draft a proposal from client needs
//   - [GenerateSubProposalRequest]: draft a sub-plan of an existing proposal
//
// Failures are reported as [*APIError]. The backend's own JSON error body
// is the [Envelope] shape.
//
// The package performs no I/O.
package api
