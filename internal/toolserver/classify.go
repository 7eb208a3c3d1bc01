package toolserver

import (
	"errors"

	"github.com/walterra/eddo-core/internal/docstore"
	"github.com/walterra/eddo-core/internal/todo"
)

// ValidationError marks a malformed or disallowed argument combination; it
// is never retried and always maps to ErrorTypeValidation.
type ValidationError struct{ Reason string }

func (e *ValidationError) Error() string { return e.Reason }

// classify maps an error returned by a tool handler to the envelope's
// error_type, per §4.H/§7.
func classify(err error) ErrorType {
	var ve *ValidationError
	if errors.As(err, &ve) || errors.Is(err, todo.ErrActiveSession) || errors.Is(err, todo.ErrNoActiveSession) {
		return ErrorTypeValidation
	}
	switch {
	case docstore.IsNotFound(err):
		return ErrorTypeNotFound
	case docstore.IsUnauthorized(err):
		return ErrorTypeAuth
	default:
		return ErrorTypeDatabase
	}
}

func suggestionsFor(errType ErrorType) []string {
	switch errType {
	case ErrorTypeNotFound:
		return []string{"verify the id is correct", "list todos to confirm it exists"}
	case ErrorTypeValidation:
		return []string{"check the parameter contract for this tool"}
	case ErrorTypeAuth:
		return []string{"authenticate with a valid X-User-ID before retrying"}
	default:
		return []string{"retry shortly", "check document store connectivity"}
	}
}
