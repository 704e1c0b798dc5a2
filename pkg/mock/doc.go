// Package mock implements a development stand-in for the blueprint backend.
//
// It serves the six streaming endpoints with the same request validation
// and response headers as the real service and streams canned markdown in
// small, rate-limited chunks terminated by the sentinel marker. The marker
// is chunked together with the content so it regularly straddles chunk
// boundaries, which is exactly the case consumers must handle.
package mock
