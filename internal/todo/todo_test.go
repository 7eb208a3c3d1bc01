package todo

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walterra/eddo-core/internal/names"
)

func TestTodoPredicates(t *testing.T) {
	open := Todo{Completed: nil}
	assert.True(t, open.IsOpen())

	done := time.Now()
	closed := Todo{Completed: &done}
	assert.False(t, closed.IsOpen())

	running := Todo{Active: map[string]*time.Time{"2026-01-01T00:00:00Z": nil}}
	assert.True(t, running.HasActiveSession())

	stopped := time.Now()
	notRunning := Todo{Active: map[string]*time.Time{"2026-01-01T00:00:00Z": &stopped}}
	assert.False(t, notRunning.HasActiveSession())

	tagged := Todo{Tags: []string{"gtd:next", tagCalendar}}
	assert.True(t, tagged.HasTag(tagCalendar))
	assert.False(t, tagged.HasTag("gtd:someday"))
}

func TestSuccessorDueCalendarAnchored(t *testing.T) {
	repeat := 7
	due := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	completedLate := time.Date(2026, 1, 10, 18, 0, 0, 0, time.UTC) // completed 9 days late

	calendarTodo := Todo{Due: due, Repeat: &repeat, Tags: []string{tagCalendar}}
	next := successorDue(calendarTodo, completedLate)

	// Calendar anchoring ignores how late completion was — it's always the
	// original due date plus the interval.
	assert.Equal(t, due.Add(7*24*time.Hour), next)
}

func TestSuccessorDueCompletionAnchored(t *testing.T) {
	repeat := 7
	due := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	completedLate := time.Date(2026, 1, 10, 18, 0, 0, 0, time.UTC)

	plainTodo := Todo{Due: due, Repeat: &repeat}
	next := successorDue(plainTodo, completedLate)

	assert.Equal(t, completedLate.Add(7*24*time.Hour), next)
}

func TestSelectIndexBySelectorShape(t *testing.T) {
	completedTrue := true

	assert.Equal(t, versionDueIndex.Name, selectIndex(ListFilter{}).Name)
	assert.Equal(t, versionContextDueIndex.Name, selectIndex(ListFilter{Context: "work"}).Name)
	assert.Equal(t, versionCompletedDueIndex.Name, selectIndex(ListFilter{Completed: &completedTrue}).Name)
	assert.Equal(t, versionContextCompletedDueIdx.Name, selectIndex(ListFilter{Context: "work", Completed: &completedTrue}).Name)
	assert.Equal(t, externalIDIndex.Name, selectIndex(ListFilter{ExternalID: "gh:123"}).Name)
}

func TestListCompletedPredicateUsesNullNotExists(t *testing.T) {
	completedTrue := true
	completedFalse := false

	queryTrue := buildQuery(ListFilter{Completed: &completedTrue}, 50)
	queryFalse := buildQuery(ListFilter{Completed: &completedFalse}, 50)

	assert.Contains(t, queryTrue.Selector, "$and")
	assert.Contains(t, fmtSelector(queryTrue.Selector), `"completed":{"$ne":null}`)
	assert.Contains(t, fmtSelector(queryFalse.Selector), `"completed":null`)
	assert.NotContains(t, fmtSelector(queryFalse.Selector), "$exists")
	assert.NotContains(t, fmtSelector(queryTrue.Selector), "$exists")
}

func fmtSelector(selector map[string]interface{}) string {
	b, _ := json.Marshal(selector)
	return string(b)
}

// TestMigrationRoundTripToAlpha3 exercises the same marshal/unmarshal path
// decodeAndMigrate uses, without requiring a live database: every prior
// schema version, once migrated, decodes cleanly into an alpha3 Todo.
func TestMigrationRoundTripToAlpha3(t *testing.T) {
	cases := map[string]names.Raw{
		"alpha1": {
			"_id":     "20260101T000000.000Z",
			"title":   "write report",
			"due":     "2026-01-05T00:00:00Z",
			"active":  map[string]interface{}{},
		},
		"alpha2": {
			"_id":     "20260101T000000.000Z",
			"title":   "write report",
			"due":     "2026-01-05T00:00:00Z",
			"active":  map[string]interface{}{},
			"repeat":  nil,
			"link":    nil,
			"version": "alpha2",
		},
		"alpha3": {
			"_id":        "20260101T000000.000Z",
			"title":      "write report",
			"due":        "2026-01-05T00:00:00Z",
			"active":     map[string]interface{}{},
			"repeat":     nil,
			"link":       nil,
			"externalId": nil,
			"metadata":   map[string]interface{}{},
			"version":    "alpha3",
		},
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			migrated := names.MigrateTodo(doc)
			assert.True(t, names.IsLatestVersion(migrated))

			encoded, err := json.Marshal(migrated)
			require.NoError(t, err)

			var decoded Todo
			require.NoError(t, json.Unmarshal(encoded, &decoded))

			assert.Equal(t, "write report", decoded.Title)
			assert.Equal(t, "alpha3", decoded.Version)
			assert.Nil(t, decoded.Repeat)
			assert.Nil(t, decoded.ExternalID)
			assert.NotNil(t, decoded.Metadata)
		})
	}
}
