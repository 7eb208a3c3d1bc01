package toolserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/walterra/eddo-core/internal/audit"
	"github.com/walterra/eddo-core/internal/authgate"
	"github.com/walterra/eddo-core/internal/docstore"
	"github.com/walterra/eddo-core/internal/todo"
)

// Handler is one catalog tool; it receives the caller's session and raw
// arguments and returns the envelope's data payload.
type Handler func(ctx context.Context, d *Deps, sess authgate.Session, args map[string]interface{}) (interface{}, error)

// Catalog is the fixed set of tools the server exposes, keyed by name.
var Catalog = map[string]Handler{
	"createTodo":              createTodo,
	"listTodos":                listTodos,
	"getTodo":                  getTodo,
	"updateTodo":               updateTodo,
	"toggleTodoCompletion":     toggleTodoCompletion,
	"deleteTodo":               deleteTodo,
	"startTimeTracking":        startTimeTracking,
	"stopTimeTracking":         stopTimeTracking,
	"getActiveTimeTracking":    getActiveTimeTracking,
	"getUserInfo":              getUserInfo,
	"getServerInfo":            getServerInfo,
	"getBriefingData":          getBriefingData,
	"getRecapData":             getRecapData,
}

func writeAudit(ctx context.Context, s *audit.Service, action audit.Action, entityID string, before, after map[string]interface{}) {
	_, _ = s.Insert(ctx, audit.Entry{
		Timestamp:  time.Now().UTC(),
		Action:     action,
		EntityType: "todo",
		EntityID:   entityID,
		Source:     audit.SourceMCP,
		Before:     before,
		After:      after,
	})
}

func createTodo(ctx context.Context, d *Deps, sess authgate.Session, args map[string]interface{}) (interface{}, error) {
	title, err := mustArgString(args, "title")
	if err != nil {
		return nil, err
	}
	stores, err := d.openStores(ctx, sess)
	if err != nil {
		return nil, err
	}

	input := todo.Todo{
		Title:       title,
		Description: firstString(args, "description"),
		Context:     firstString(args, "context"),
		Tags:        argStringSlice(args, "tags"),
	}
	if due, err := argTime(args, "due"); err != nil {
		return nil, err
	} else if due != nil {
		input.Due = *due
	}

	created, err := stores.todo.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	writeAudit(ctx, stores.audit, audit.ActionCreate, created.ID, nil, toMap(created))
	return map[string]interface{}{"id": created.ID, "todo": created}, nil
}

func firstString(args map[string]interface{}, key string) string {
	s, _ := argString(args, key)
	return s
}

func toMap(t todo.Todo) map[string]interface{} {
	return map[string]interface{}{
		"_id": t.ID, "title": t.Title, "context": t.Context,
		"due": t.Due, "version": t.Version,
	}
}

func listTodos(ctx context.Context, d *Deps, sess authgate.Session, args map[string]interface{}) (interface{}, error) {
	stores, err := d.openStores(ctx, sess)
	if err != nil {
		return nil, err
	}

	completed, hasCompleted := argBool(args, "completed")
	if !hasCompleted {
		completed = nil
	}
	_, hasCompletedFromOnly := args["completedFrom"]
	if hasCompletedFromOnly && completed != nil && !*completed {
		return nil, &ValidationError{Reason: "completedFrom cannot be combined with completed=false"}
	}

	filter := todo.ListFilter{
		Context:    firstString(args, "context"),
		Completed:  completed,
		ExternalID: firstString(args, "externalId"),
		Tags:       argStringSlice(args, "tags"),
	}
	if limit, ok := argInt(args, "limit"); ok {
		filter.Limit = limit
	}
	if dateFrom, err := argTime(args, "dateFrom"); err != nil {
		return nil, err
	} else {
		filter.DateFrom = dateFrom
	}
	if dateTo, err := argTime(args, "dateTo"); err != nil {
		return nil, err
	} else {
		filter.DateTo = dateTo
	}
	if completedFrom, err := argTime(args, "completedFrom"); err != nil {
		return nil, err
	} else {
		filter.CompletedFrom = completedFrom
	}
	if completedTo, err := argTime(args, "completedTo"); err != nil {
		return nil, err
	} else {
		filter.CompletedTo = completedTo
	}

	page, err := stores.todo.List(ctx, filter)
	if err != nil {
		if isMissingDatabase(err) {
			return map[string]interface{}{
				"docs":       []todo.Todo{},
				"pagination": map[string]interface{}{"count": 0, "limit": filter.Limit, "has_more": false},
			}, nil
		}
		return nil, err
	}

	return map[string]interface{}{
		"docs": page.Docs,
		"pagination": map[string]interface{}{
			"count": page.Count, "limit": page.Limit, "has_more": page.HasMore,
		},
		"appliedFilters": filter,
	}, nil
}

func isMissingDatabase(err error) bool {
	return err != nil && docstore.IsNotFound(err)
}

func getTodo(ctx context.Context, d *Deps, sess authgate.Session, args map[string]interface{}) (interface{}, error) {
	id, err := mustArgString(args, "id")
	if err != nil {
		return nil, err
	}
	stores, err := d.openStores(ctx, sess)
	if err != nil {
		return nil, err
	}
	t, err := stores.todo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func updateTodo(ctx context.Context, d *Deps, sess authgate.Session, args map[string]interface{}) (interface{}, error) {
	id, err := mustArgString(args, "id")
	if err != nil {
		return nil, err
	}
	stores, err := d.openStores(ctx, sess)
	if err != nil {
		return nil, err
	}

	before, err := stores.todo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var patch todo.Patch
	if title, ok := argString(args, "title"); ok {
		patch.Title = &title
	}
	if desc, ok := argString(args, "description"); ok {
		patch.Description = &desc
	}
	if ctxTag, ok := argString(args, "context"); ok {
		patch.Context = &ctxTag
	}
	if due, err := argTime(args, "due"); err != nil {
		return nil, err
	} else if due != nil {
		patch.Due = due
	}
	if tags := argStringSlice(args, "tags"); tags != nil {
		patch.Tags = tags
	}
	if argPresent(args, "repeat") {
		if n, ok := argInt(args, "repeat"); ok {
			patch.Repeat = &n
		} else {
			patch.ClearRepeat = true
		}
	}
	if argPresent(args, "link") {
		if link, ok := argString(args, "link"); ok {
			patch.Link = &link
		} else {
			patch.ClearLink = true
		}
	}
	if argPresent(args, "externalId") {
		if extID, ok := argString(args, "externalId"); ok {
			patch.ExternalID = &extID
		} else {
			patch.ClearExtID = true
		}
	}
	if metadata, ok := argMap(args, "metadata"); ok {
		patch.Metadata = metadata
	}

	updated, err := stores.todo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	writeAudit(ctx, stores.audit, audit.ActionUpdate, id, toMap(before), toMap(updated))
	return updated, nil
}

func toggleTodoCompletion(ctx context.Context, d *Deps, sess authgate.Session, args map[string]interface{}) (interface{}, error) {
	id, err := mustArgString(args, "id")
	if err != nil {
		return nil, err
	}
	completedPtr, ok := argBool(args, "completed")
	if !ok {
		return nil, &ValidationError{Reason: "completed is required"}
	}
	stores, err := d.openStores(ctx, sess)
	if err != nil {
		return nil, err
	}

	before, err := stores.todo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !*completedPtr {
		reopened, err := stores.todo.Uncomplete(ctx, id, before.Rev)
		if err != nil {
			return nil, err
		}
		writeAudit(ctx, stores.audit, audit.ActionUncomplete, id, toMap(before), toMap(reopened))
		return reopened, nil
	}

	completed, successor, err := stores.todo.Complete(ctx, id, before.Rev, time.Now())
	if err != nil {
		return nil, err
	}

	result := map[string]interface{}{"todo": completed}
	if successor != nil {
		result["new_due_date"] = successor.Due.Format(time.RFC3339Nano)
		if completed.HasTag("gtd:calendar") {
			result["repeat_type"] = "calendar"
		} else {
			result["repeat_type"] = "completion"
		}
		result["successor_id"] = successor.ID
	}

	// The completion+repeat write pair is the one audit case that fires
	// only after both writes succeed, per DESIGN.md's resolved Open
	// Question.
	writeAudit(ctx, stores.audit, audit.ActionComplete, id, toMap(before), toMap(completed))
	return result, nil
}

func deleteTodo(ctx context.Context, d *Deps, sess authgate.Session, args map[string]interface{}) (interface{}, error) {
	id, err := mustArgString(args, "id")
	if err != nil {
		return nil, err
	}
	stores, err := d.openStores(ctx, sess)
	if err != nil {
		return nil, err
	}
	before, err := stores.todo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := stores.todo.Delete(ctx, id, before.Rev); err != nil {
		return nil, err
	}
	writeAudit(ctx, stores.audit, audit.ActionDelete, id, toMap(before), nil)
	return map[string]interface{}{"deleted": true, "id": id}, nil
}

func startTimeTracking(ctx context.Context, d *Deps, sess authgate.Session, args map[string]interface{}) (interface{}, error) {
	id, err := mustArgString(args, "id")
	if err != nil {
		return nil, err
	}
	stores, err := d.openStores(ctx, sess)
	if err != nil {
		return nil, err
	}
	before, err := stores.todo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := stores.todo.StartTimeTracking(ctx, id, before.Rev, time.Now())
	if err != nil {
		return nil, err
	}
	writeAudit(ctx, stores.audit, audit.ActionTimeTrackingStart, id, nil, toMap(updated))
	return updated, nil
}

func stopTimeTracking(ctx context.Context, d *Deps, sess authgate.Session, args map[string]interface{}) (interface{}, error) {
	id, err := mustArgString(args, "id")
	if err != nil {
		return nil, err
	}
	stores, err := d.openStores(ctx, sess)
	if err != nil {
		return nil, err
	}
	before, err := stores.todo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := stores.todo.StopTimeTracking(ctx, id, before.Rev, time.Now())
	if errors.Is(err, todo.ErrNoActiveSession) {
		return map[string]interface{}{"id": id, "message": "no active session"}, nil
	}
	if err != nil {
		return nil, err
	}
	writeAudit(ctx, stores.audit, audit.ActionTimeTrackingStop, id, nil, toMap(updated))
	return updated, nil
}

func getActiveTimeTracking(ctx context.Context, d *Deps, sess authgate.Session, args map[string]interface{}) (interface{}, error) {
	stores, err := d.openStores(ctx, sess)
	if err != nil {
		return nil, err
	}
	page, err := stores.todo.List(ctx, todo.ListFilter{Limit: 500})
	if err != nil {
		return nil, err
	}
	active := make([]todo.Todo, 0)
	for _, t := range page.Docs {
		if t.HasActiveSession() {
			active = append(active, t)
		}
	}
	return map[string]interface{}{"todos": active, "active_session_count": len(active)}, nil
}

func getUserInfo(ctx context.Context, d *Deps, sess authgate.Session, args map[string]interface{}) (interface{}, error) {
	if sess.Entry == nil {
		return nil, &ValidationError{Reason: "no registry entry for this session"}
	}
	return sess.Entry, nil
}

func getServerInfo(ctx context.Context, d *Deps, sess authgate.Session, args map[string]interface{}) (interface{}, error) {
	section := firstString(args, "section")
	info := map[string]interface{}{
		"service": "eddo-toolserver",
		"version": "1.0.0",
	}
	if section == "" || section == "tags" {
		stores, err := d.openStores(ctx, sess)
		if err == nil {
			page, listErr := stores.todo.List(ctx, todo.ListFilter{Limit: 1000})
			if listErr == nil {
				info["tag_stats"] = tagStats(page.Docs)
			}
		}
	}
	if section == "" || section == "memories" {
		stores, err := d.openStores(ctx, sess)
		if err == nil {
			page, listErr := stores.todo.List(ctx, todo.ListFilter{Limit: 1000})
			if listErr == nil {
				info["memories"] = memoriesDigest(page.Docs)
			}
		}
	}
	return info, nil
}

func tagStats(docs []todo.Todo) map[string]int {
	stats := map[string]int{}
	for _, d := range docs {
		for _, tag := range d.Tags {
			stats[tag]++
		}
	}
	return stats
}

// getBriefingData returns today's open todos plus anything overdue; it is
// read-only, per §4.H.
func getBriefingData(ctx context.Context, d *Deps, sess authgate.Session, args map[string]interface{}) (interface{}, error) {
	stores, err := d.openStores(ctx, sess)
	if err != nil {
		return nil, err
	}
	open := false
	page, err := stores.todo.List(ctx, todo.ListFilter{Completed: &open, Limit: 200})
	if err != nil {
		if isMissingDatabase(err) {
			return map[string]interface{}{"due_today": []todo.Todo{}, "overdue": []todo.Todo{}}, nil
		}
		return nil, err
	}

	now := time.Now().UTC()
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 999000000, time.UTC)
	dueToday := make([]todo.Todo, 0)
	overdue := make([]todo.Todo, 0)
	for _, t := range page.Docs {
		switch {
		case t.Due.Before(now):
			overdue = append(overdue, t)
		case !t.Due.After(endOfDay):
			dueToday = append(dueToday, t)
		}
	}
	return map[string]interface{}{"due_today": dueToday, "overdue": overdue}, nil
}

// getRecapData summarizes what was completed in the trailing 24 hours; it
// is read-only, per §4.H.
func getRecapData(ctx context.Context, d *Deps, sess authgate.Session, args map[string]interface{}) (interface{}, error) {
	stores, err := d.openStores(ctx, sess)
	if err != nil {
		return nil, err
	}
	completed := true
	since := time.Now().UTC().Add(-24 * time.Hour)
	page, err := stores.todo.List(ctx, todo.ListFilter{Completed: &completed, CompletedFrom: &since, Limit: 200})
	if err != nil {
		if isMissingDatabase(err) {
			return map[string]interface{}{"completed": []todo.Todo{}, "count": 0}, nil
		}
		return nil, err
	}
	return map[string]interface{}{"completed": page.Docs, "count": len(page.Docs)}, nil
}

func memoriesDigest(docs []todo.Todo) []string {
	memories := make([]string, 0)
	for _, d := range docs {
		if d.HasTag("user:memory") {
			memories = append(memories, fmt.Sprintf("%s: %s", d.ID, d.Title))
		}
	}
	return memories
}
