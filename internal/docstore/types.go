package docstore

import "encoding/json"

// Config describes how to reach the document database.
type Config struct {
	URL string
}

// View is a single MapReduce view definition within a design document.
type View struct {
	Map    string
	Reduce string
}

// DesignDoc is a CouchDB design document: an ID (conventionally prefixed
// "_design/"), a language tag, and a set of named views.
type DesignDoc struct {
	ID       string
	Rev      string
	Language string
	Views    map[string]View
}

// ViewOptions configures a View call.
type ViewOptions struct {
	Key         interface{}
	StartKey    interface{}
	EndKey      interface{}
	IncludeDocs bool
	Limit       int
	Skip        int
	Descending  bool
	Reduce      bool
	Group       bool
	GroupLevel  int
}

// ViewRow is one row of a view query result.
type ViewRow struct {
	ID    string
	Key   interface{}
	Value interface{}
	Doc   json.RawMessage
}

// ViewResult is the full result of a view query.
type ViewResult struct {
	Rows []ViewRow
}

// MangoQuery is a Mango-style selector query against a database's secondary
// indices.
type MangoQuery struct {
	Selector map[string]interface{}
	Fields   []string
	Sort     []map[string]string
	Limit    int
	Skip     int
	UseIndex string
}

func (q MangoQuery) toParams() map[string]interface{} {
	params := map[string]interface{}{
		"selector": q.Selector,
	}
	if len(q.Fields) > 0 {
		params["fields"] = q.Fields
	}
	if len(q.Sort) > 0 {
		params["sort"] = q.Sort
	}
	if q.Limit > 0 {
		params["limit"] = q.Limit
	}
	if q.Skip > 0 {
		params["skip"] = q.Skip
	}
	if q.UseIndex != "" {
		params["use_index"] = q.UseIndex
	}
	return params
}

// Index describes a secondary index to create via CreateIndex/EnsureIndex.
type Index struct {
	Name   string
	Type   string // defaults to "json"
	Fields []string
}

// IndexInfo describes an index already present on a database.
type IndexInfo struct {
	Name     string
	Type     string
	Fields   []string
	DesignDoc string
}

// BulkResult is the per-document outcome of a bulk save operation.
type BulkResult struct {
	ID    string
	Rev   string
	Ok    bool
	Error string
}

// ChangesFeedOptions configures a Changes call.
type ChangesFeedOptions struct {
	Since       string
	Feed        string // "normal", "longpoll", "continuous"
	IncludeDocs bool
	Heartbeat   int
}

// ChangeRev identifies one revision referenced by a Change entry.
type ChangeRev struct {
	Rev string
}

// Change is a single entry from the database's changes feed.
type Change struct {
	ID      string
	Seq     string
	Deleted bool
	Changes []ChangeRev
	Doc     json.RawMessage
}
