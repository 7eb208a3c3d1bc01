package toolserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/walterra/eddo-core/internal/docstore"
)

func TestClassifyValidationError(t *testing.T) {
	assert.Equal(t, ErrorTypeValidation, classify(&ValidationError{Reason: "bad input"}))
}

func TestClassifyNotFound(t *testing.T) {
	err := &docstore.Error{Kind: docstore.KindNotFound, Op: "get"}
	assert.Equal(t, ErrorTypeNotFound, classify(err))
}

func TestClassifyUnauthorized(t *testing.T) {
	err := &docstore.Error{Kind: docstore.KindUnauthorized, Op: "get"}
	assert.Equal(t, ErrorTypeAuth, classify(err))
}

func TestClassifyDefaultsToDatabaseError(t *testing.T) {
	err := &docstore.Error{Kind: docstore.KindNetwork, Op: "get"}
	assert.Equal(t, ErrorTypeDatabase, classify(err))
}

func TestArgHelpers(t *testing.T) {
	args := map[string]interface{}{
		"title": "buy milk",
		"tags":  []interface{}{"gtd:next", "errands"},
		"limit": float64(25),
		"due":   "2026-01-05T00:00:00Z",
	}

	title, err := mustArgString(args, "title")
	assert.NoError(t, err)
	assert.Equal(t, "buy milk", title)

	_, err = mustArgString(args, "missing")
	assert.Error(t, err)

	assert.Equal(t, []string{"gtd:next", "errands"}, argStringSlice(args, "tags"))

	limit, ok := argInt(args, "limit")
	assert.True(t, ok)
	assert.Equal(t, 25, limit)

	due, err := argTime(args, "due")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), *due)
}

func TestNewSuccessAndErrorEnvelopes(t *testing.T) {
	started := time.Now()
	success := newSuccess("createTodo", map[string]interface{}{"id": "t1"}, started)
	assert.Equal(t, "createTodo succeeded", success.Summary)
	assert.Equal(t, "createTodo", success.Metadata.Operation)

	failure := newError("getTodo", ErrorTypeNotFound, &ValidationError{Reason: "nope"}, "check the id")
	assert.Equal(t, ErrorTypeNotFound, failure.Metadata.ErrorType)
	assert.Equal(t, []string{"check the id"}, failure.RecoverySuggestions)
}
