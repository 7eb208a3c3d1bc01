package todo

import (
	"context"
	"time"
)

// StartTimeTracking opens a new active session keyed by now's RFC3339Nano
// timestamp. It rejects the call with ErrActiveSession if any session on
// this todo is already running, per the resolved Open Question in
// DESIGN.md: eddo has no concept of concurrent timers on one todo.
func (s *Store) StartTimeTracking(ctx context.Context, id, rev string, now time.Time) (Todo, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return Todo{}, err
	}
	if t.HasActiveSession() {
		return Todo{}, ErrActiveSession
	}

	now = now.UTC()
	if t.Active == nil {
		t.Active = map[string]*time.Time{}
	}
	t.Active[now.Format(time.RFC3339Nano)] = nil
	t.Rev = rev

	newRev, err := s.store.Insert(ctx, t.ID, t)
	if err != nil {
		return Todo{}, err
	}
	t.Rev = newRev
	return t, nil
}

// StopTimeTracking closes the single running session by stamping its end
// time. It returns ErrNoActiveSession if nothing is running.
func (s *Store) StopTimeTracking(ctx context.Context, id, rev string, now time.Time) (Todo, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return Todo{}, err
	}

	var openKey string
	for start, end := range t.Active {
		if end == nil {
			openKey = start
			break
		}
	}
	if openKey == "" {
		return Todo{}, ErrNoActiveSession
	}

	now = now.UTC()
	t.Active[openKey] = &now
	t.Rev = rev

	newRev, err := s.store.Insert(ctx, t.ID, t)
	if err != nil {
		return Todo{}, err
	}
	t.Rev = newRev
	return t, nil
}
