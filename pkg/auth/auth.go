package auth

import (
	"context"
	"errors"
	"net/http"
)

// Decision represents the three possible outcomes of authentication.
type Decision int

const (
	// Yes means credentials are valid. The chain stops and the identity is used.
	Yes Decision = iota

	// No means credentials are present but invalid. The chain stops and the
	// request is rejected.
	No

	// Abstain means this authenticator cannot handle the credentials.
	// The chain continues to the next authenticator.
	Abstain
)

// Result carries the outcome of an authentication attempt.
type Result struct {
	Decision Decision
	Identity *Identity // populated only when Decision == Yes
	Err      error     // populated only when Decision == No
}

// Identity represents an authenticated caller.
type Identity struct {
	// Subject is the unique identifier (required, non-empty).
	Subject string

	// Role is passed through to handlers, mirroring the backend's
	// user role field.
	Role string
}

// Anonymous is the identity used when every authenticator abstains and
// the chain defaults to Yes.
var Anonymous = Identity{Subject: "anonymous"}

// Authenticator examines request credentials and returns a vote.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) Result
}

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrTooManyRequests = errors.New("rate limit exceeded")
)

// Chain evaluates authenticators in order.
type Chain struct {
	Authenticators []Authenticator

	// DefaultDecision is used when all authenticators abstain.
	DefaultDecision Decision
}

// Authenticate runs the chain and stops on the first Yes or No.
func (c *Chain) Authenticate(ctx context.Context, r *http.Request) Result {
	for _, authn := range c.Authenticators {
		result := authn.Authenticate(ctx, r)
		if result.Decision != Abstain {
			return result
		}
	}

	if c.DefaultDecision == Yes {
		id := Anonymous
		return Result{Decision: Yes, Identity: &id}
	}
	return Result{Decision: No, Err: ErrUnauthenticated}
}
