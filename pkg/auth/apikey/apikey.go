// Package apikey authenticates callers by bearer token against a static
// set of keys. Keys are stored as SHA-256 hashes and compared in
// constant time.
package apikey

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/rhuss/blueprint/pkg/auth"
)

type entry struct {
	hash     [32]byte
	identity auth.Identity
}

// Authenticator validates bearer tokens.
type Authenticator struct {
	keys []entry
}

// New creates an Authenticator from a map of raw key to identity.
func New(keys map[string]auth.Identity) *Authenticator {
	a := &Authenticator{}
	for key, id := range keys {
		a.keys = append(a.keys, entry{hash: sha256.Sum256([]byte(key)), identity: id})
	}
	return a
}

// FromKeys creates an Authenticator where every key identifies a caller
// named after its position, e.g. "key-1".
func FromKeys(keys []string) *Authenticator {
	m := make(map[string]auth.Identity, len(keys))
	for i, k := range keys {
		m[k] = auth.Identity{Subject: "key-" + strconv.Itoa(i+1)}
	}
	return New(m)
}

// Authenticate returns Abstain without a bearer token, No for an unknown
// or empty token, and Yes with a copy of the key's identity otherwise.
func (a *Authenticator) Authenticate(_ context.Context, r *http.Request) auth.Result {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return auth.Result{Decision: auth.Abstain}
	}
	if token == "" {
		return auth.Result{Decision: auth.No, Err: auth.ErrUnauthenticated}
	}

	sum := sha256.Sum256([]byte(token))
	for _, e := range a.keys {
		if subtle.ConstantTimeCompare(sum[:], e.hash[:]) == 1 {
			id := e.identity
			return auth.Result{Decision: auth.Yes, Identity: &id}
		}
	}
	return auth.Result{Decision: auth.No, Err: auth.ErrUnauthenticated}
}
