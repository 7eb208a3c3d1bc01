// Package docstore adapts the document database (CouchDB, via Kivik) to a
// typed surface the rest of eddo-core builds on: get/insert/delete/list/
// find/view/createIndex/bulk/changes, with a closed set of classified
// errors instead of raw driver errors.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	kivik "github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb" // registers the "couch" driver
)

// Client owns the connection to the document database and opens per-
// database Stores on demand.
type Client struct {
	kivik *kivik.Client
}

// NewClient dials the document database at url. The connection is lazy;
// this call only validates the URL shape.
func NewClient(url string) (*Client, error) {
	c, err := kivik.New("couch", url)
	if err != nil {
		return nil, fmt.Errorf("docstore: connect: %w", err)
	}
	return &Client{kivik: c}, nil
}

// Exists reports whether a database with the given name exists.
func (c *Client) Exists(ctx context.Context, dbName string) (bool, error) {
	ok, err := c.kivik.DBExists(ctx, dbName)
	if err != nil {
		return false, classify("db_exists", kivik.HTTPStatus(err), err)
	}
	return ok, nil
}

// Create creates a database, succeeding silently if it already exists.
func (c *Client) Create(ctx context.Context, dbName string) error {
	exists, err := c.Exists(ctx, dbName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := c.kivik.CreateDB(ctx, dbName); err != nil {
		return classify("db_create", kivik.HTTPStatus(err), err)
	}
	return nil
}

// EnsureDatabase is Create, returning whether the database was newly
// created.
func (c *Client) EnsureDatabase(ctx context.Context, dbName string) (created bool, err error) {
	exists, err := c.Exists(ctx, dbName)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := c.kivik.CreateDB(ctx, dbName); err != nil {
		return false, classify("db_ensure", kivik.HTTPStatus(err), err)
	}
	return true, nil
}

// DB opens a handle to a named database. It does not verify the database
// exists; call EnsureDatabase first if creation-on-demand is required.
func (c *Client) DB(dbName string) *Store {
	return &Store{dbName: dbName, db: c.kivik.DB(dbName)}
}

// Store is a typed handle to a single database.
type Store struct {
	dbName string
	db     *kivik.DB
}

// Name returns the underlying database name.
func (s *Store) Name() string { return s.dbName }

// Get fetches a document by id and decodes it into out.
func (s *Store) Get(ctx context.Context, id string, out interface{}) error {
	row := s.db.Get(ctx, id)
	if row.Err() != nil {
		return classify("get", kivik.HTTPStatus(row.Err()), row.Err())
	}
	if err := row.ScanDoc(out); err != nil {
		return fmt.Errorf("docstore: get: decode %s: %w", id, err)
	}
	return nil
}

// GetRaw fetches a document by id as a raw map, preserving _id/_rev and any
// unknown fields — used by migration-on-read callers.
func (s *Store) GetRaw(ctx context.Context, id string) (map[string]interface{}, error) {
	var doc map[string]interface{}
	if err := s.Get(ctx, id, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Insert creates or updates a document. If doc (a map or struct with an
// "_id"/"ID" field carrying the id) omits a revision, CouchDB treats it as
// new; a conflicting write surfaces KindConflict.
func (s *Store) Insert(ctx context.Context, id string, doc interface{}) (rev string, err error) {
	rev, err = s.db.Put(ctx, id, doc)
	if err != nil {
		return "", classify("insert", kivik.HTTPStatus(err), err)
	}
	return rev, nil
}

// Delete removes a document by id and revision.
func (s *Store) Delete(ctx context.Context, id, rev string) error {
	if _, err := s.db.Delete(ctx, id, rev); err != nil {
		return classify("delete", kivik.HTTPStatus(err), err)
	}
	return nil
}

// ListOptions configures an AllDocs-style list query.
type ListOptions struct {
	StartKey    string
	EndKey      string
	IncludeDocs bool
	Limit       int
	Descending  bool
}

// List returns the ids (and optionally docs) of all documents within a key
// range, skipping design documents unless explicitly included in the range.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]json.RawMessage, error) {
	params := map[string]interface{}{}
	if opts.StartKey != "" {
		params["startkey"] = opts.StartKey
	}
	if opts.EndKey != "" {
		params["endkey"] = opts.EndKey
	}
	if opts.IncludeDocs {
		params["include_docs"] = true
	}
	if opts.Limit > 0 {
		params["limit"] = opts.Limit
	}
	if opts.Descending {
		params["descending"] = true
	}

	rows := s.db.AllDocs(ctx, kivik.Params(params))
	defer rows.Close()

	var docs []json.RawMessage
	for rows.Next() {
		id, idErr := rows.ID()
		if idErr == nil && strings.HasPrefix(id, "_design/") && !strings.HasPrefix(opts.StartKey, "_design/") {
			continue
		}
		if opts.IncludeDocs {
			var doc json.RawMessage
			if err := rows.ScanDoc(&doc); err == nil {
				docs = append(docs, doc)
			}
			continue
		}
		if idErr == nil {
			docs = append(docs, json.RawMessage(fmt.Sprintf("%q", id)))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list", kivik.HTTPStatus(err), err)
	}
	return docs, nil
}

// Find runs a Mango selector query and returns the matching documents as
// raw JSON, leaving typed decoding to the caller (see FindTyped).
func (s *Store) Find(ctx context.Context, query MangoQuery) ([]json.RawMessage, error) {
	rows := s.db.Find(ctx, query.Selector, kivik.Params(query.toParams()))
	defer rows.Close()

	var docs []json.RawMessage
	for rows.Next() {
		var doc json.RawMessage
		if err := rows.ScanDoc(&doc); err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("find", kivik.HTTPStatus(err), err)
	}
	return docs, nil
}

// FindTyped runs Find and unmarshals every row into T.
func FindTyped[T any](ctx context.Context, s *Store, query MangoQuery) ([]T, error) {
	raws, err := s.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// Count returns the number of documents matching selector.
func (s *Store) Count(ctx context.Context, selector map[string]interface{}) (int, error) {
	docs, err := s.Find(ctx, MangoQuery{Selector: selector})
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// GetMulti performs a bulk fetch by id, tolerating per-id errors: ids that
// are missing or otherwise fail to load are silently dropped from the
// result rather than failing the whole call, per the spec's bulk-fetch
// contract.
func (s *Store) GetMulti(ctx context.Context, ids []string) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(ids))
	for _, id := range ids {
		row := s.db.Get(ctx, id)
		if row.Err() != nil {
			continue
		}
		var doc json.RawMessage
		if err := row.ScanDoc(&doc); err != nil {
			continue
		}
		out[id] = doc
	}
	return out
}

// CreateIndex installs a Mango secondary index, defaulting its type to
// "json" when unset.
func (s *Store) CreateIndex(ctx context.Context, idx Index) error {
	if idx.Type == "" {
		idx.Type = "json"
	}
	def := map[string]interface{}{
		"fields": idx.Fields,
	}
	if err := s.db.CreateIndex(ctx, idx.Name, idx.Name, map[string]interface{}{
		"index": def,
		"type":  idx.Type,
	}); err != nil {
		return classify("create_index", kivik.HTTPStatus(err), err)
	}
	return nil
}

// EnsureIndex creates idx only if no existing index already covers the same
// type and field list, returning whether it created a new one.
func (s *Store) EnsureIndex(ctx context.Context, idx Index) (created bool, err error) {
	if idx.Type == "" {
		idx.Type = "json"
	}
	existing, err := s.ListIndexes(ctx)
	if err != nil {
		return false, err
	}
	for _, info := range existing {
		if info.Type == idx.Type && sameFields(info.Fields, idx.Fields) {
			return false, nil
		}
	}
	if err := s.CreateIndex(ctx, idx); err != nil {
		return false, err
	}
	return true, nil
}

func sameFields(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ListIndexes returns every secondary index defined on the database.
func (s *Store) ListIndexes(ctx context.Context) ([]IndexInfo, error) {
	rows, err := s.db.GetIndexes(ctx)
	if err != nil {
		return nil, classify("list_indexes", kivik.HTTPStatus(err), err)
	}
	infos := make([]IndexInfo, 0, len(rows))
	for _, r := range rows {
		infos = append(infos, IndexInfo{Name: r.Name, Type: r.Type, Fields: fieldNames(r.Definition.Fields), DesignDoc: r.DesignDoc})
	}
	return infos, nil
}

func fieldNames(fields []kivik.SortField) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Field)
	}
	return names
}

// CreateDesignDoc installs or updates a design document, reading the
// existing revision first and writing once. A conflicting write surfaces
// KindConflict; callers that need convergence under concurrent bootstraps
// call it again, which re-reads the current revision.
func (s *Store) CreateDesignDoc(ctx context.Context, doc DesignDoc) error {
	if !strings.HasPrefix(doc.ID, "_design/") {
		doc.ID = "_design/" + doc.ID
	}
	if doc.Language == "" {
		doc.Language = "javascript"
	}

	existing := s.db.Get(ctx, doc.ID)
	if existing.Err() == nil {
		var raw map[string]interface{}
		if err := existing.ScanDoc(&raw); err == nil {
			if rev, ok := raw["_rev"].(string); ok {
				doc.Rev = rev
			}
		}
	}

	views := make(map[string]interface{}, len(doc.Views))
	for name, v := range doc.Views {
		def := map[string]string{"map": v.Map}
		if v.Reduce != "" {
			def["reduce"] = v.Reduce
		}
		views[name] = def
	}
	body := map[string]interface{}{
		"language": doc.Language,
		"views":    views,
	}
	if doc.Rev != "" {
		body["_rev"] = doc.Rev
	}

	if _, err := s.db.Put(ctx, doc.ID, body); err != nil {
		return classify("create_design_doc", kivik.HTTPStatus(err), err)
	}
	return nil
}

// View queries a MapReduce view.
func (s *Store) View(ctx context.Context, design, name string, opts ViewOptions) (*ViewResult, error) {
	design = strings.TrimPrefix(design, "_design/")
	params := map[string]interface{}{}
	if opts.Key != nil {
		params["key"] = opts.Key
	}
	if opts.StartKey != nil {
		params["startkey"] = opts.StartKey
	}
	if opts.EndKey != nil {
		params["endkey"] = opts.EndKey
	}
	if opts.IncludeDocs {
		params["include_docs"] = true
	}
	if opts.Limit > 0 {
		params["limit"] = opts.Limit
	}
	if opts.Skip > 0 {
		params["skip"] = opts.Skip
	}
	if opts.Descending {
		params["descending"] = true
	}
	if opts.Reduce {
		params["reduce"] = true
	} else if opts.Key != nil || opts.StartKey != nil || opts.EndKey != nil {
		params["reduce"] = false
	}
	if opts.Group {
		params["group"] = true
	}
	if opts.GroupLevel > 0 {
		params["group_level"] = opts.GroupLevel
	}

	rows := s.db.Query(ctx, "_design/"+design, name, kivik.Params(params))
	defer rows.Close()

	result := &ViewResult{Rows: []ViewRow{}}
	for rows.Next() {
		row := ViewRow{}
		if id, err := rows.ID(); err == nil {
			row.ID = id
		}
		if key, err := rows.Key(); err == nil {
			row.Key = key
		}
		var value interface{}
		if err := rows.ScanValue(&value); err == nil {
			row.Value = value
		}
		if opts.IncludeDocs {
			var doc json.RawMessage
			if err := rows.ScanDoc(&doc); err == nil {
				row.Doc = doc
			}
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("view", kivik.HTTPStatus(err), err)
	}
	return result, nil
}

// BulkSave writes multiple documents in one round trip, returning a
// per-document result so the caller can tolerate partial failure.
func (s *Store) BulkSave(ctx context.Context, docs []interface{}) ([]BulkResult, error) {
	rawResults, err := s.db.BulkDocs(ctx, docs)
	if err != nil {
		return nil, classify("bulk_save", kivik.HTTPStatus(err), err)
	}
	out := make([]BulkResult, 0, len(rawResults))
	for _, r := range rawResults {
		res := BulkResult{ID: r.ID, Rev: r.Rev, Ok: r.Error == nil}
		if r.Error != nil {
			res.Error = r.Error.Error()
		}
		out = append(out, res)
	}
	return out, nil
}

// Changes streams the database's changes feed to handler until the feed
// closes, ctx is canceled, or handler returns a non-nil error.
func (s *Store) Changes(ctx context.Context, opts ChangesFeedOptions, handler func(Change) error) error {
	params := map[string]interface{}{}
	if opts.Since != "" {
		params["since"] = opts.Since
	}
	if opts.Feed != "" {
		params["feed"] = opts.Feed
	} else {
		params["feed"] = "normal"
	}
	if opts.IncludeDocs {
		params["include_docs"] = true
	}
	if opts.Heartbeat > 0 {
		params["heartbeat"] = opts.Heartbeat
	}

	feed := s.db.Changes(ctx, kivik.Params(params))
	defer feed.Close()

	for feed.Next() {
		ch := Change{
			ID:      feed.ID(),
			Seq:     feed.Seq(),
			Deleted: feed.Deleted(),
		}
		for _, c := range feed.Changes() {
			ch.Changes = append(ch.Changes, ChangeRev{Rev: c})
		}
		if opts.IncludeDocs {
			var doc json.RawMessage
			if err := feed.ScanDoc(&doc); err == nil {
				ch.Doc = doc
			}
		}
		if err := handler(ch); err != nil {
			return err
		}
	}
	if err := feed.Err(); err != nil {
		return classify("changes", kivik.HTTPStatus(err), err)
	}
	return nil
}
