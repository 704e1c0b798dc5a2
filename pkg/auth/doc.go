// Package auth gates the mock backend behind API keys and per-caller
// rate limits.
//
// Authentication uses a chain of authenticators with three-outcome
// voting: each returns Yes (caller identified), No (credentials invalid),
// or Abstain (no credentials it understands). The chain's default
// decision applies when every authenticator abstains.
//
// Rejections are written as the backend's JSON envelope so the client
// maps them like any other backend error.
package auth
