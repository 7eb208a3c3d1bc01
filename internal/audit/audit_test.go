package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEntryIDMatchesTimestamp(t *testing.T) {
	ts := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	entry := Entry{Timestamp: ts}
	if entry.ID == "" {
		entry.ID = entry.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	assert.Equal(t, ts.Format(time.RFC3339Nano), entry.ID)
}

func TestPaginateHasMore(t *testing.T) {
	entries := make([]Entry, 5)
	result := paginate(entries, 3)
	assert.True(t, result.HasMore)
	assert.Len(t, result.Entries, 3)

	result = paginate(entries[:3], 3)
	assert.False(t, result.HasMore)
	assert.Len(t, result.Entries, 3)
}

func TestSourcesEnumerationFixed(t *testing.T) {
	assert.Equal(t, []Source{
		SourceWeb, SourceMCP, SourceTelegram, SourceGithubSync, SourceRSSSync, SourceEmailSync,
	}, Sources)
}

func TestCacheResetClearsEnsuredFlag(t *testing.T) {
	ResetCaches()
	assert.False(t, indexEnsured("alice"))
	markIndexEnsured("alice")
	assert.True(t, indexEnsured("alice"))
	ResetCaches()
	assert.False(t, indexEnsured("alice"))
}
