package api

import "net/http"

// AuthResult is the outcome of authenticating an upload or management
// request. A failed result carries a human-readable reason; a successful
// one carries the caller's owner key, which may be empty for anonymous
// requests (those are demoted to the shared public identity downstream).
type AuthResult struct {
	OK       bool
	OwnerKey string
	Reason   string
}

// Authenticator verifies the identity behind a request. Wire-level schemes
// are a collaborator concern; the handler only consumes the result.
type Authenticator interface {
	Authenticate(r *http.Request) AuthResult
}

// HeaderAuthenticator trusts an owner key passed in a request header.
// Suitable for development and for deployments where a gateway upstream
// has already verified the caller.
type HeaderAuthenticator struct {
	Header string
}

// NewHeaderAuthenticator creates an authenticator reading the given header,
// defaulting to X-Owner-Key.
func NewHeaderAuthenticator(header string) *HeaderAuthenticator {
	if header == "" {
		header = "X-Owner-Key"
	}
	return &HeaderAuthenticator{Header: header}
}

func (a *HeaderAuthenticator) Authenticate(r *http.Request) AuthResult {
	return AuthResult{OK: true, OwnerKey: r.Header.Get(a.Header)}
}
