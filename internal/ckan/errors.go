package ckan

import "errors"

var (
	// ErrCollaborator indicates the catalog service reported a failure or
	// returned a payload that could not be read.
	ErrCollaborator = errors.New("catalog service error")
	// ErrUnexpectedResponse indicates a well-formed payload missing a
	// required key such as results or records.
	ErrUnexpectedResponse = errors.New("unexpected response structure")
	// ErrNotConnected indicates a call on a closed or never-opened client.
	ErrNotConnected = errors.New("catalog client not connected")
)

// Error is a failure message produced by the catalog service or by decoding
// its response. The message is kept verbatim for run reports.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return ErrCollaborator
}

func serviceError(msg string) error {
	return &Error{Message: msg}
}
