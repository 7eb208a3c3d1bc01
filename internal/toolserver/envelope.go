package toolserver

import "time"

// ErrorType enumerates the error_type values the response envelope emits,
// mapped from the underlying docstore/validation failure.
type ErrorType string

const (
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeDatabase   ErrorType = "database_error"
	ErrorTypeValidation ErrorType = "validation_error"
	ErrorTypeAuth       ErrorType = "auth_error"
)

// Metadata carries the envelope's bookkeeping fields; SuccessMetadata and
// ErrorMetadata both embed it with their own extra field.
type Metadata struct {
	Operation string    `json:"operation"`
	Timestamp time.Time `json:"timestamp"`
}

// SuccessEnvelope is returned by every tool call that completes normally.
type SuccessEnvelope struct {
	Summary  string                 `json:"summary"`
	Data     interface{}            `json:"data"`
	Metadata SuccessMetadata        `json:"metadata"`
}

// SuccessMetadata adds execution timing to the common envelope fields.
type SuccessMetadata struct {
	Metadata
	ExecutionTimeMS int64 `json:"execution_time_ms"`
}

// ErrorEnvelope is returned by every tool call that fails.
type ErrorEnvelope struct {
	Summary             string       `json:"summary"`
	Error               string       `json:"error"`
	RecoverySuggestions []string     `json:"recovery_suggestions"`
	Metadata            ErrorMetadata `json:"metadata"`
}

// ErrorMetadata adds the classified error type to the common envelope
// fields.
type ErrorMetadata struct {
	Metadata
	ErrorType ErrorType `json:"error_type"`
}

func newSuccess(operation string, data interface{}, started time.Time) SuccessEnvelope {
	return SuccessEnvelope{
		Summary: operation + " succeeded",
		Data:    data,
		Metadata: SuccessMetadata{
			Metadata:        Metadata{Operation: operation, Timestamp: time.Now().UTC()},
			ExecutionTimeMS: time.Since(started).Milliseconds(),
		},
	}
}

func newError(operation string, errType ErrorType, err error, suggestions ...string) ErrorEnvelope {
	return ErrorEnvelope{
		Summary:             operation + " failed",
		Error:               err.Error(),
		RecoverySuggestions: suggestions,
		Metadata: ErrorMetadata{
			Metadata:  Metadata{Operation: operation, Timestamp: time.Now().UTC()},
			ErrorType: errType,
		},
	}
}
