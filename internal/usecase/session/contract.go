package session

import "context"

// Authenticator exchanges credentials for a bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (string, error)
}

// CredentialStore is the durable token store. The controller is its
// sole writer; everything else only reads.
type CredentialStore interface {
	Get() (string, bool)
	Set(token string) error
	Clear() error
}
