package todo

import (
	"context"
	"time"

	"github.com/walterra/eddo-core/internal/docstore"
)

// Pre-declared indices, named to match their selector shape, per §4.E.
var (
	versionDueIndex                = docstore.Index{Name: "version-due-index", Fields: []string{"version", "due"}}
	versionContextDueIndex         = docstore.Index{Name: "version-context-due-index", Fields: []string{"version", "context", "due"}}
	versionCompletedDueIndex       = docstore.Index{Name: "version-completed-due-index", Fields: []string{"version", "completed", "due"}}
	versionContextCompletedDueIdx  = docstore.Index{Name: "version-context-completed-due-index", Fields: []string{"version", "context", "completed", "due"}}
	externalIDIndex                = docstore.Index{Name: "externalId-index", Fields: []string{"externalId"}}
)

var allIndices = []docstore.Index{
	versionDueIndex,
	versionContextDueIndex,
	versionCompletedDueIndex,
	versionContextCompletedDueIdx,
	externalIDIndex,
}

// EnsureIndices installs every pre-declared index used by List and
// FindByExternalID. It is idempotent and safe to call on every startup.
func (s *Store) EnsureIndices(ctx context.Context) error {
	for _, idx := range allIndices {
		if _, err := s.store.EnsureIndex(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}

// ListFilter mirrors the listTodos tool's selector input (§4.H).
type ListFilter struct {
	Context       string
	Completed     *bool
	DateFrom      *time.Time
	DateTo        *time.Time
	CompletedFrom *time.Time
	CompletedTo   *time.Time
	Tags          []string
	ExternalID    string
	Limit         int
}

// ListPage is the paginated result returned to callers, mirroring the tool
// response shape `{docs, pagination, appliedFilters}`.
type ListPage struct {
	Docs       []Todo
	Count      int
	Limit      int
	HasMore    bool
}

// selectIndex picks the pre-declared index matching which fields the
// filter participates in, per the §4.E selector-shape table.
func selectIndex(f ListFilter) docstore.Index {
	switch {
	case f.ExternalID != "":
		return externalIDIndex
	case f.Context != "" && f.Completed != nil:
		return versionContextCompletedDueIdx
	case f.Completed != nil:
		return versionCompletedDueIndex
	case f.Context != "":
		return versionContextDueIndex
	default:
		return versionDueIndex
	}
}

// buildQuery translates f into a MangoQuery pinned to the index
// selectIndex picks, fetching one extra row (limit+1) so List can detect
// HasMore without a second round trip.
//
// completed is stored as a literal null on open todos (no omitempty, per
// internal/todo.Todo's json tag) and a timestamp on closed ones, so the
// predicate is a null/not-null comparison, not $exists — every todo has
// the field present either way.
func buildQuery(f ListFilter, limit int) docstore.MangoQuery {
	qb := docstore.NewQueryBuilder().
		Where("version", "eq", versionAlpha3).
		UseIndex(selectIndex(f).Name).
		Sort("due", "asc").
		Limit(limit + 1)

	if f.Context != "" {
		qb = qb.Where("context", "eq", f.Context)
	}
	if f.Completed != nil {
		if *f.Completed {
			qb = qb.Where("completed", "ne", nil)
		} else {
			qb = qb.Where("completed", "eq", nil)
		}
	}
	if f.DateFrom != nil {
		qb = qb.Where("due", "gte", f.DateFrom.UTC().Format(time.RFC3339Nano))
	}
	if f.DateTo != nil {
		qb = qb.Where("due", "lte", f.DateTo.UTC().Format(time.RFC3339Nano))
	}
	if f.CompletedFrom != nil {
		qb = qb.Where("completed", "gte", f.CompletedFrom.UTC().Format(time.RFC3339Nano))
	}
	if f.CompletedTo != nil {
		qb = qb.Where("completed", "lte", f.CompletedTo.UTC().Format(time.RFC3339Nano))
	}
	if f.ExternalID != "" {
		qb = qb.Where("externalId", "eq", f.ExternalID)
	}
	if len(f.Tags) > 0 {
		qb = qb.Where("tags", "in", f.Tags)
	}
	return qb.Build()
}

// List runs a filtered, paginated query using the index selectIndex picks
// for f's populated fields.
func (s *Store) List(ctx context.Context, f ListFilter) (ListPage, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	docs, err := docstore.FindTyped[Todo](ctx, s.store, buildQuery(f, limit))
	if err != nil {
		return ListPage{}, err
	}

	hasMore := len(docs) > limit
	if hasMore {
		docs = docs[:limit]
	}
	return ListPage{Docs: docs, Count: len(docs), Limit: limit, HasMore: hasMore}, nil
}

// FindByExternalID looks up a todo by its cross-source external id,
// ensuring externalId-index exists before querying (EnsureIndex leaves an
// existing index alone). Returns nil with a nil error when no todo matches.
func (s *Store) FindByExternalID(ctx context.Context, externalID string) (*Todo, error) {
	if _, err := s.store.EnsureIndex(ctx, externalIDIndex); err != nil {
		return nil, err
	}
	query := docstore.NewQueryBuilder().
		Where("externalId", "eq", externalID).
		UseIndex(externalIDIndex.Name).
		Limit(1).
		Build()

	docs, err := docstore.FindTyped[Todo](ctx, s.store, query)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return &docs[0], nil
}
