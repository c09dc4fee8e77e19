package identity

import "errors"

// Sentinel errors for the credential verification taxonomy. Resolver steps
// catch all of them and normalize to a single generic unauthorized outcome;
// the specific kind never crosses the resolver boundary.
var (
	// ErrMissingCredential indicates no credential of the expected kind was presented.
	ErrMissingCredential = errors.New("missing credential")
	// ErrMalformedToken indicates a credential that could not be decoded.
	ErrMalformedToken = errors.New("malformed token")
	// ErrExpiredToken indicates a credential past its expiry.
	ErrExpiredToken = errors.New("expired token")
	// ErrUnknownSigningKey indicates a key id absent from the fetched key set.
	ErrUnknownSigningKey = errors.New("unknown signing key")
	// ErrSignatureInvalid indicates a signature or claim verification failure.
	ErrSignatureInvalid = errors.New("invalid token signature")
	// ErrSessionNotFound indicates a session id unknown to storage.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionInactive indicates a session id known to storage but already ended.
	ErrSessionInactive = errors.New("session inactive")
)
