// Package audit implements the per-user append-only audit log (§4.D): an
// insert-only store keyed by timestamp, with bulk lookup and a parallel
// fan-out query bucketed by the fixed ingestion-source enumeration.
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/walterra/eddo-core/internal/docstore"
	"github.com/walterra/eddo-core/internal/names"
)

const schemaVersion = "audit_alpha1"

var entityIDIndex = docstore.Index{Name: "entityId-index", Fields: []string{"entityId", "_id"}}

// Service is the audit log for a single user.
type Service struct {
	client   *docstore.Client
	store    *docstore.Store
	username string
}

// GetService returns the memoized Service for (couchURL, username),
// creating the user's audit database (and eagerly installing its index) on
// first use within this process.
func GetService(ctx context.Context, client *docstore.Client, couchURL, prefix, username string) (*Service, error) {
	key := couchURL + ":" + username
	if svc, ok := cachedService(key); ok {
		return svc, nil
	}

	dbName := names.GetAuditDatabaseName(prefix, username)
	created, err := client.EnsureDatabase(ctx, dbName)
	if err != nil {
		return nil, err
	}
	svc := &Service{client: client, store: client.DB(dbName), username: username}

	if created {
		if _, err := svc.store.EnsureIndex(ctx, entityIDIndex); err != nil {
			return nil, err
		}
		markIndexEnsured(username)
	}

	cacheService(key, svc)
	return svc, nil
}

// Insert appends entry. The caller supplies the full entry including
// ID = Timestamp; a duplicate _id surfaces docstore's Conflict error.
func (s *Service) Insert(ctx context.Context, entry Entry) (Entry, error) {
	if entry.ID == "" {
		entry.ID = entry.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	entry.Version = schemaVersion
	rev, err := s.store.Insert(ctx, entry.ID, entry)
	if err != nil {
		return Entry{}, err
	}
	entry.Rev = rev
	return entry, nil
}

// List returns entries newest-first, optionally filtered to a set of
// entity ids. HasMore is computed with a limit+1 probe.
func (s *Service) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	if len(opts.EntityIDs) > 0 {
		return s.listByEntityIDs(ctx, opts, limit)
	}

	listOpts := docstore.ListOptions{
		IncludeDocs: true,
		Descending:  true,
		Limit:       limit + 1,
	}
	if opts.StartAfter != "" {
		listOpts.EndKey = opts.StartAfter
	}
	raws, err := s.store.List(ctx, listOpts)
	if err != nil {
		return ListResult{}, err
	}
	entries := decodeEntries(raws)
	return paginate(entries, limit), nil
}

func (s *Service) listByEntityIDs(ctx context.Context, opts ListOptions, limit int) (ListResult, error) {
	if !indexEnsured(s.username) {
		if _, err := s.store.EnsureIndex(ctx, entityIDIndex); err != nil {
			return ListResult{}, err
		}
		markIndexEnsured(s.username)
	}

	query := docstore.NewQueryBuilder().
		Where("entityId", "in", opts.EntityIDs).
		Sort("_id", "desc").
		Limit(limit + 1).
		UseIndex(entityIDIndex.Name).
		Build()

	entries, err := docstore.FindTyped[Entry](ctx, s.store, query)
	if err != nil {
		return ListResult{}, err
	}
	return paginate(entries, limit), nil
}

func paginate(entries []Entry, limit int) ListResult {
	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}
	return ListResult{Entries: entries, HasMore: hasMore}
}

// GetByIDs performs a bulk lookup, silently eliding ids that are missing.
func (s *Service) GetByIDs(ctx context.Context, ids []string) ([]Entry, error) {
	raws := s.store.GetMulti(ctx, ids)
	entries := make([]Entry, 0, len(raws))
	for _, id := range ids {
		raw, ok := raws[id]
		if !ok {
			continue
		}
		var e Entry
		if err := decodeOne(raw, &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// ListBySource fans out across the fixed six-source enumeration in
// parallel, returning up to LimitPerSource (default 20) newest-first
// entries for each; a source with no matching view data returns an empty
// bucket without failing the call.
func (s *Service) ListBySource(ctx context.Context, opts ListBySourceOptions) (BySourceResult, error) {
	limit := opts.LimitPerSource
	if limit <= 0 {
		limit = 20
	}

	result := make(BySourceResult, len(Sources))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range Sources {
		src := src
		g.Go(func() error {
			entries, err := s.listOneSource(gctx, src, limit)
			if err != nil {
				entries = nil // missing view: empty bucket, not a failure
			}
			mu.Lock()
			result[src] = entries
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return result, nil
}

func (s *Service) listOneSource(ctx context.Context, src Source, limit int) ([]Entry, error) {
	view, err := s.store.View(ctx, "audit", "by_source", docstore.ViewOptions{
		StartKey:    []interface{}{string(src), map[string]interface{}{}},
		EndKey:      []interface{}{string(src)},
		Descending:  true,
		Limit:       limit,
		IncludeDocs: true,
	})
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(view.Rows))
	for _, row := range view.Rows {
		var e Entry
		if err := decodeOne(row.Doc, &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func decodeEntries(raws []json.RawMessage) []Entry {
	entries := make([]Entry, 0, len(raws))
	for _, raw := range raws {
		var e Entry
		if err := decodeOne(raw, &e); err == nil && e.ID != "" {
			entries = append(entries, e)
		}
	}
	return entries
}

func decodeOne(raw json.RawMessage, out *Entry) error {
	return json.Unmarshal(raw, out)
}

// SetupDesignDocuments installs the by_source view used by ListBySource.
func (s *Service) SetupDesignDocuments(ctx context.Context) error {
	return s.store.CreateDesignDoc(ctx, docstore.DesignDoc{
		ID: "_design/audit",
		Views: map[string]docstore.View{
			"by_source": {
				Map: `function(doc) { if (doc.source && doc.timestamp) { emit([doc.source, doc.timestamp], null); } }`,
			},
		},
	})
}
