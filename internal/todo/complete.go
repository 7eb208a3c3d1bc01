package todo

import (
	"context"
	"time"
)

// Complete marks the todo completed at now and, if it carries a repeat
// interval, creates its successor. The successor's due date is anchored to
// the calendar (tagCalendar present: next occurrence of the same
// wall-clock time, repeat days later, ignoring how late the original was
// completed) or to completion (tagCalendar absent: repeat days after the
// moment of completion) per §4.E.
//
// The returned successor is nil when the todo carries no repeat interval.
func (s *Store) Complete(ctx context.Context, id, rev string, now time.Time) (completed Todo, successor *Todo, err error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return Todo{}, nil, err
	}
	now = now.UTC()
	t.Completed = &now
	t.Rev = rev

	newRev, err := s.store.Insert(ctx, t.ID, t)
	if err != nil {
		return Todo{}, nil, err
	}
	t.Rev = newRev

	if t.Repeat == nil || *t.Repeat <= 0 {
		return t, nil, nil
	}

	next := Todo{
		Title:       t.Title,
		Description: t.Description,
		Context:     t.Context,
		Tags:        append([]string(nil), t.Tags...),
		Repeat:      t.Repeat,
		Link:        t.Link,
		ExternalID:  t.ExternalID,
		Metadata:    cloneMetadata(t.Metadata),
		Due:         successorDue(t, now),
		Active:      map[string]*time.Time{},
	}
	created, err := s.Create(ctx, next)
	if err != nil {
		return t, nil, err
	}
	return t, &created, nil
}

// successorDue computes the next due date for a repeating todo.
func successorDue(t Todo, completedAt time.Time) time.Time {
	days := time.Duration(*t.Repeat) * 24 * time.Hour
	if t.HasTag(tagCalendar) {
		return t.Due.Add(days)
	}
	return completedAt.Add(days)
}

func cloneMetadata(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Uncomplete reopens a previously completed todo, clearing Completed.
func (s *Store) Uncomplete(ctx context.Context, id, rev string) (Todo, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return Todo{}, err
	}
	t.Completed = nil
	t.Rev = rev
	newRev, err := s.store.Insert(ctx, t.ID, t)
	if err != nil {
		return Todo{}, err
	}
	t.Rev = newRev
	return t, nil
}
