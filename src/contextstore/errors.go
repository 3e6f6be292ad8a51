package contextstore

import "errors"

var (
	// ErrUnavailable means the backing key-value service could not be reached
	// or did not answer in time. Callers should surface it as "try again".
	ErrUnavailable = errors.New("context store unavailable")
	// ErrMalformedRecord means a stored record could not be decoded
	ErrMalformedRecord = errors.New("malformed context record")
	// ErrInvalidUserID is returned for an empty user identifier
	ErrInvalidUserID = errors.New("user id cannot be empty")
	// ErrInvalidUpdate is returned for unknown fields or mistyped values in a partial update
	ErrInvalidUpdate = errors.New("invalid context update")
)
