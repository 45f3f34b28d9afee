// Package errs contains sentinel errors shared by the services and mapped to
// transport status codes by the handler layer.
package errs

import "errors"

var (
	// ErrInvalidCredentials is returned for any failed login. Unknown users and
	// wrong passwords are indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrIssuerUnauthorized indicates a non-faculty identity tried to issue a token.
	ErrIssuerUnauthorized = errors.New("issuer unauthorized")

	// ErrUnknownSubject indicates the subject is not taught by the issuer.
	ErrUnknownSubject = errors.New("unknown subject")

	// ErrSessionNotFound indicates the session is absent, expired or logged out.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSubjectNotSelectable indicates the subject is outside the identity's list.
	ErrSubjectNotSelectable = errors.New("subject not selectable")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a unique key collision.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidAlert indicates a fraud alert failed validation.
	ErrInvalidAlert = errors.New("invalid alert")
)
