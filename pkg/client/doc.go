// Package client issues streaming requests against the blueprint backend
// and decodes the sentinel-terminated responses.
//
// Every operation kind (document analysis, mind maps, proposals) differs
// only in how its request body is built. They all share one code path,
// StartStream, which sends the request, maps transport failures to
// *api.APIError and pumps the response body through a stream.Decoder.
package client
