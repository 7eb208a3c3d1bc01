// Package todo implements the todo document store and version engine
// (§4.E): lazy alpha1→alpha2→alpha3 migration, repeat-policy completion,
// time tracking, and selector-driven index selection.
package todo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/walterra/eddo-core/internal/docstore"
	"github.com/walterra/eddo-core/internal/names"
)

// ErrActiveSession is returned by StartTimeTracking when a running timer
// already exists, per the resolved Open Question in DESIGN.md.
var ErrActiveSession = errors.New("todo: a time-tracking session is already active")

// ErrNoActiveSession is returned by StopTimeTracking when no running timer
// exists; callers treat it as a no-op, not a failure.
var ErrNoActiveSession = errors.New("todo: no active time-tracking session")

// Store is the todo collection for a single user database.
type Store struct {
	store *docstore.Store
}

// New wraps a per-user todo database.
func New(client *docstore.Client, prefix, username string) *Store {
	return &Store{store: client.DB(names.GetUserDatabaseName(prefix, username))}
}

// genID generates the sortable, lexicographic identifier new todos and
// successors receive.
func genID() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}

// Get fetches a single todo, migrating it to alpha3 on read and firing an
// asynchronous write-back if it was not already in that shape.
func (s *Store) Get(ctx context.Context, id string) (Todo, error) {
	raw, err := s.store.GetRaw(ctx, id)
	if err != nil {
		return Todo{}, err
	}
	return s.decodeAndMigrate(ctx, raw)
}

func (s *Store) decodeAndMigrate(ctx context.Context, raw names.Raw) (Todo, error) {
	needsMigration := !names.IsLatestVersion(raw)
	migrated := names.MigrateTodo(raw)

	var t Todo
	encoded, err := json.Marshal(migrated)
	if err != nil {
		return Todo{}, err
	}
	if err := json.Unmarshal(encoded, &t); err != nil {
		return Todo{}, err
	}

	if needsMigration {
		go s.writeBack(t)
	}
	return t, nil
}

func (s *Store) writeBack(t Todo) {
	wctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	t.Version = versionAlpha3
	_, _ = s.store.Insert(wctx, t.ID, t)
}

// Create inserts a new alpha3 todo, defaulting Due to the end of the
// current UTC day when unset.
func (s *Store) Create(ctx context.Context, t Todo) (Todo, error) {
	if t.ID == "" {
		t.ID = genID()
	}
	if t.Due.IsZero() {
		now := time.Now().UTC()
		t.Due = time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 999000000, time.UTC)
	}
	if t.Active == nil {
		t.Active = map[string]*time.Time{}
	}
	if t.Metadata == nil {
		t.Metadata = map[string]interface{}{}
	}
	t.Version = versionAlpha3

	rev, err := s.store.Insert(ctx, t.ID, t)
	if err != nil {
		return Todo{}, err
	}
	t.Rev = rev
	return t, nil
}

// Patch describes a partial update; nil pointers/fields leave the
// corresponding field untouched. An explicit nil in a nullable field must
// be represented by ClearX flags, per §4.H's "explicit null clears it".
type Patch struct {
	Title       *string
	Description *string
	Context     *string
	Due         *time.Time
	Tags        []string
	Repeat      *int
	ClearRepeat bool
	Link        *string
	ClearLink   bool
	ExternalID  *string
	ClearExtID  bool
	Metadata    map[string]interface{}
}

// Update applies patch via read-modify-write.
func (s *Store) Update(ctx context.Context, id string, patch Patch) (Todo, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return Todo{}, err
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Context != nil {
		t.Context = *patch.Context
	}
	if patch.Due != nil {
		t.Due = *patch.Due
	}
	if patch.Tags != nil {
		t.Tags = patch.Tags
	}
	switch {
	case patch.ClearRepeat:
		t.Repeat = nil
	case patch.Repeat != nil:
		t.Repeat = patch.Repeat
	}
	switch {
	case patch.ClearLink:
		t.Link = nil
	case patch.Link != nil:
		t.Link = patch.Link
	}
	switch {
	case patch.ClearExtID:
		t.ExternalID = nil
	case patch.ExternalID != nil:
		t.ExternalID = patch.ExternalID
	}
	if patch.Metadata != nil {
		t.Metadata = patch.Metadata
	}

	rev, err := s.store.Insert(ctx, t.ID, t)
	if err != nil {
		return Todo{}, err
	}
	t.Rev = rev
	return t, nil
}

// Delete destroys a todo by id and revision.
func (s *Store) Delete(ctx context.Context, id, rev string) error {
	return s.store.Delete(ctx, id, rev)
}
