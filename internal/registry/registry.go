// Package registry implements the tenant registry (§4.C): one document per
// user, looked up by username/telegram-id/email, responsible for
// provisioning each user's per-kind databases and design documents.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/walterra/eddo-core/internal/docstore"
	"github.com/walterra/eddo-core/internal/names"
)

// ErrAlreadyExists is returned by Create when the sanitized username
// already has a registry entry — including when two distinct raw usernames
// sanitize to the same token, per the resolved Open Question in DESIGN.md.
var ErrAlreadyExists = errors.New("registry: user already exists")

const latestVersion = "alpha2"

// Registry is the tenant registry backed by a single shared database.
type Registry struct {
	client *docstore.Client
	store  *docstore.Store
	prefix string
}

// New opens (without yet ensuring) the registry database.
func New(client *docstore.Client, prefix string) *Registry {
	dbName := names.GetUserRegistryDatabaseName(prefix)
	return &Registry{client: client, store: client.DB(dbName), prefix: prefix}
}

// EnsureDatabase creates the registry database if it does not exist.
func (r *Registry) EnsureDatabase(ctx context.Context) error {
	return r.client.Create(ctx, r.store.Name())
}

// EnsureUserDatabase creates the named user's todo/audit/chat databases if
// absent. Callers typically invoke this once per session on first use.
func (r *Registry) EnsureUserDatabase(ctx context.Context, username string) error {
	for _, dbName := range []string{
		names.GetUserDatabaseName(r.prefix, username),
		names.GetAuditDatabaseName(r.prefix, username),
		names.GetChatDatabaseName(r.prefix, username),
	} {
		if err := r.client.Create(ctx, dbName); err != nil {
			return err
		}
	}
	return nil
}

func entryID(username string) string {
	return "user_" + names.SanitizeUsername(username)
}

// FindByUsername returns the entry for username, or docstore's NotFound
// error if absent.
func (r *Registry) FindByUsername(ctx context.Context, username string) (*Entry, error) {
	return r.get(ctx, entryID(username))
}

func (r *Registry) get(ctx context.Context, id string) (*Entry, error) {
	var entry Entry
	if err := r.store.Get(ctx, id, &entry); err != nil {
		return nil, err
	}
	migrated, wrote := migrate(entry)
	if wrote {
		go r.writeBack(migrated)
	}
	return &migrated, nil
}

// FindByTelegramID scans entries for a matching telegram_id via the
// by_telegram_id view.
func (r *Registry) FindByTelegramID(ctx context.Context, telegramID int64) (*Entry, error) {
	result, err := r.store.View(ctx, "registry", "by_telegram_id", docstore.ViewOptions{
		Key:         telegramID,
		IncludeDocs: true,
		Limit:       1,
	})
	if err != nil {
		return nil, err
	}
	return firstEntry(result)
}

// FindByEmail scans entries for a matching email via the by_email view.
func (r *Registry) FindByEmail(ctx context.Context, email string) (*Entry, error) {
	result, err := r.store.View(ctx, "registry", "by_email", docstore.ViewOptions{
		Key:         email,
		IncludeDocs: true,
		Limit:       1,
	})
	if err != nil {
		return nil, err
	}
	return firstEntry(result)
}

func firstEntry(result *docstore.ViewResult) (*Entry, error) {
	if len(result.Rows) == 0 {
		return nil, &docstore.Error{Kind: docstore.KindNotFound, Op: "registry_view", Reason: "no matching entry"}
	}
	var entry Entry
	if err := unmarshalDoc(result.Rows[0].Doc, &entry); err != nil {
		return nil, err
	}
	migrated, _ := migrate(entry)
	return &migrated, nil
}

// Create inserts a new entry. default status is active, default
// permissions {read, write}.
func (r *Registry) Create(ctx context.Context, username string) (*Entry, error) {
	id := entryID(username)
	if _, err := r.get(ctx, id); err == nil {
		return nil, ErrAlreadyExists
	} else if !docstore.IsNotFound(err) {
		return nil, err
	}

	now := time.Now().UTC()
	entry := Entry{
		ID:           id,
		Username:     username,
		DatabaseName: names.GetUserDatabaseName(r.prefix, username),
		CreatedAt:    now,
		UpdatedAt:    now,
		Permissions:  []Permission{PermissionRead, PermissionWrite},
		Status:       StatusActive,
		Version:      latestVersion,
	}

	rev, err := r.store.Insert(ctx, entry.ID, entry)
	if err != nil {
		if docstore.IsConflict(err) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	entry.Rev = rev
	return &entry, nil
}

// Update applies patch to the entry, migrating to the latest version first.
func (r *Registry) Update(ctx context.Context, id string, patch Patch) (*Entry, error) {
	entry, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Email != nil {
		entry.Email = *patch.Email
	}
	if patch.TelegramID != nil {
		entry.TelegramID = patch.TelegramID
	}
	if patch.Status != nil {
		entry.Status = *patch.Status
	}
	if patch.Permissions != nil {
		entry.Permissions = patch.Permissions
	}
	if patch.Preferences != nil {
		entry.Preferences = *patch.Preferences
	}
	entry.UpdatedAt = time.Now().UTC()

	rev, err := r.store.Insert(ctx, entry.ID, entry)
	if err != nil {
		return nil, err
	}
	entry.Rev = rev
	return entry, nil
}

// List returns every registry entry.
func (r *Registry) List(ctx context.Context) ([]Entry, error) {
	raws, err := r.store.List(ctx, docstore.ListOptions{IncludeDocs: true})
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(raws))
	for _, raw := range raws {
		var entry Entry
		if err := unmarshalDoc(raw, &entry); err != nil {
			continue
		}
		if entry.ID == "" || entry.Username == "" {
			continue // skip design documents
		}
		migrated, _ := migrate(entry)
		entries = append(entries, migrated)
	}
	return entries, nil
}

// Delete removes the entry with the given id.
func (r *Registry) Delete(ctx context.Context, id, rev string) error {
	return r.store.Delete(ctx, id, rev)
}

func (r *Registry) writeBack(entry Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := r.store.Insert(ctx, entry.ID, entry); err != nil {
		// Best-effort: migration write-back never surfaces to the reader.
		_ = err
	}
}

func migrate(entry Entry) (Entry, bool) {
	if entry.Version == latestVersion {
		return entry, false
	}
	if entry.Permissions == nil {
		entry.Permissions = []Permission{PermissionRead, PermissionWrite}
	}
	if entry.Status == "" {
		entry.Status = StatusActive
	}
	entry.Version = latestVersion
	return entry, true
}

func unmarshalDoc(raw []byte, out *Entry) error {
	if raw == nil {
		return fmt.Errorf("registry: empty document")
	}
	return json.Unmarshal(raw, out)
}
