package boardapi

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("not found")

// TransportError means the request never produced a usable GraphQL response:
// the endpoint was unreachable, answered with a non-2xx status, or sent a body
// that could not be decoded.
type TransportError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServerValidationError carries the error list the server returned, e.g. a
// password mismatch, or a mutation that reported false.
type ServerValidationError struct {
	Operation string
	Messages  []string
}

func (e *ServerValidationError) Error() string {
	return strings.Join(e.Messages, ", ")
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func IsServerValidation(err error) bool {
	var se *ServerValidationError
	return errors.As(err, &se)
}
