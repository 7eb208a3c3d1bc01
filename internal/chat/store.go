package chat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/walterra/eddo-core/internal/docstore"
	"github.com/walterra/eddo-core/internal/names"
)

// Store is the chat session collection for a single user database.
type Store struct {
	store *docstore.Store
}

// New wraps a per-user chat database.
func New(client *docstore.Client, prefix, username string) *Store {
	return &Store{store: client.DB(names.GetChatDatabaseName(prefix, username))}
}

func hex4() string {
	b := make([]byte, 2)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// CreateRequest is the input to Create.
type CreateRequest struct {
	Username       string
	Name           string
	Repository     string
	ContainerState string
	WorktreeState  string
}

// Create starts a new session with zeroed stats.
func (s *Store) Create(ctx context.Context, req CreateRequest) (Session, error) {
	now := time.Now().UTC()
	sess := Session{
		ID:             fmt.Sprintf("session_%d_%s", now.UnixMilli(), hex4()),
		Username:       req.Username,
		Name:           req.Name,
		CreatedAt:      now,
		UpdatedAt:      now,
		Repository:     req.Repository,
		ContainerState: req.ContainerState,
		WorktreeState:  req.WorktreeState,
		Stats:          Stats{},
	}
	rev, err := s.store.Insert(ctx, sess.ID, sess)
	if err != nil {
		return Session{}, err
	}
	sess.Rev = rev
	return sess, nil
}

// AppendEntry stamps and writes entry under sessionId, updating the
// session's running stats if entry is a message.
func (s *Store) AppendEntry(ctx context.Context, sessionID string, entry Entry) (Entry, error) {
	entry.ID = fmt.Sprintf("entry_%s_%s", sessionID, hex4())
	entry.SessionID = sessionID
	entry.Timestamp = time.Now().UTC()

	rev, err := s.store.Insert(ctx, entry.ID, entry)
	if err != nil {
		return Entry{}, err
	}
	entry.Rev = rev

	if d := delta(entry); d != (Stats{}) {
		if err := s.bumpStats(ctx, sessionID, d); err != nil {
			return entry, err
		}
	}
	return entry, nil
}

func (s *Store) bumpStats(ctx context.Context, sessionID string, d Stats) error {
	var sess Session
	if err := s.store.Get(ctx, sessionID, &sess); err != nil {
		return err
	}
	sess.Stats = addStats(sess.Stats, d)
	sess.UpdatedAt = time.Now().UTC()
	_, err := s.store.Insert(ctx, sess.ID, sess)
	return err
}

// GetEntries returns every entry for sessionId, oldest first, via the
// entries/by_session view; falls back to a prefix scan over the raw
// database listing if the design document has not been installed.
func (s *Store) GetEntries(ctx context.Context, sessionID string) ([]Entry, error) {
	view, err := s.store.View(ctx, "entries", "by_session", docstore.ViewOptions{
		StartKey:    []interface{}{sessionID, ""},
		EndKey:      []interface{}{sessionID, map[string]interface{}{}},
		IncludeDocs: true,
	})
	var entries []Entry
	if err == nil {
		entries = decodeEntryRows(view.Rows)
	} else {
		raws, listErr := s.store.List(ctx, docstore.ListOptions{
			StartKey:    "entry_" + sessionID + "_",
			EndKey:      "entry_" + sessionID + "_￰",
			IncludeDocs: true,
		})
		if listErr != nil {
			return nil, err
		}
		entries = make([]Entry, 0, len(raws))
		for _, raw := range raws {
			var e Entry
			if jsonErr := json.Unmarshal(raw, &e); jsonErr == nil {
				entries = append(entries, e)
			}
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Timestamp.Before(entries[j].Timestamp) })
	return entries, nil
}

func decodeEntryRows(rows []docstore.ViewRow) []Entry {
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		var e Entry
		if err := json.Unmarshal(row.Doc, &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

// GetBranch returns the path from root to fromEntryID, chronologically
// ordered. If fromEntryID is empty, it returns every entry in the
// session instead. A broken parent chain terminates the walk silently,
// returning whatever prefix was reachable.
func (s *Store) GetBranch(ctx context.Context, sessionID, fromEntryID string) ([]Entry, error) {
	all, err := s.GetEntries(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if fromEntryID == "" {
		return all, nil
	}

	byID := make(map[string]Entry, len(all))
	for _, e := range all {
		byID[e.ID] = e
	}

	var reversed []Entry
	cursor, ok := byID[fromEntryID]
	for ok {
		reversed = append(reversed, cursor)
		if cursor.ParentID == nil {
			break
		}
		cursor, ok = byID[*cursor.ParentID]
	}

	branch := make([]Entry, len(reversed))
	for i, e := range reversed {
		branch[len(reversed)-1-i] = e
	}
	return branch, nil
}

// Delete removes every entry for sessionId, then the session document
// itself.
func (s *Store) Delete(ctx context.Context, sessionID, sessionRev string) error {
	entries, err := s.GetEntries(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := s.store.Delete(ctx, e.ID, e.Rev); err != nil {
			return err
		}
	}
	return s.store.Delete(ctx, sessionID, sessionRev)
}

// SetupDesignDocuments installs the entries/by_session view used by
// GetEntries.
func (s *Store) SetupDesignDocuments(ctx context.Context) error {
	return s.store.CreateDesignDoc(ctx, docstore.DesignDoc{
		ID: "_design/entries",
		Views: map[string]docstore.View{
			"by_session": {
				Map: `function(doc) { if (doc.sessionId && doc._id.indexOf("entry_") === 0) { emit([doc.sessionId, doc._id], null); } }`,
			},
		},
	})
}
