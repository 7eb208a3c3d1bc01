package docstore

import (
	"errors"
	"fmt"
)

// Kind classifies a docstore error the way the tool server's response
// envelope and the sync scheduler need to branch on it, without leaking the
// underlying document-database client.
type Kind int

const (
	// KindOther covers anything not otherwise classified.
	KindOther Kind = iota
	// KindNotFound is the only retry-able absence signal.
	KindNotFound
	// KindConflict marks a concurrent write (HTTP 409).
	KindConflict
	// KindUnauthorized marks an auth/permission failure (401/403).
	KindUnauthorized
	// KindNetwork marks a connection, timeout, or 5xx failure.
	KindNetwork
)

// Error wraps a document-store failure with its classified Kind and the
// HTTP status the underlying driver reported, if any.
type Error struct {
	Kind       Kind
	StatusCode int
	Op         string
	Reason     string
	Err        error
}

func (e *Error) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("docstore: %s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("docstore: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether err is, or wraps, a not-found docstore error.
func IsNotFound(err error) bool { return kindOf(err) == KindNotFound }

// IsConflict reports whether err is, or wraps, a conflict docstore error.
func IsConflict(err error) bool { return kindOf(err) == KindConflict }

// IsUnauthorized reports whether err is, or wraps, an unauthorized docstore error.
func IsUnauthorized(err error) bool { return kindOf(err) == KindUnauthorized }

func kindOf(err error) Kind {
	var dsErr *Error
	if errors.As(err, &dsErr) {
		return dsErr.Kind
	}
	return KindOther
}

func kindFromStatus(status int) Kind {
	switch {
	case status == 404:
		return KindNotFound
	case status == 409:
		return KindConflict
	case status == 401 || status == 403:
		return KindUnauthorized
	case status >= 500:
		return KindNetwork
	default:
		return KindOther
	}
}

func classify(op string, status int, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:       kindFromStatus(status),
		StatusCode: status,
		Op:         op,
		Reason:     err.Error(),
		Err:        err,
	}
}
