package toolserver

import (
	"context"

	"github.com/walterra/eddo-core/internal/audit"
	"github.com/walterra/eddo-core/internal/authgate"
	"github.com/walterra/eddo-core/internal/chat"
	"github.com/walterra/eddo-core/internal/docstore"
	"github.com/walterra/eddo-core/internal/registry"
	"github.com/walterra/eddo-core/internal/todo"
)

// Deps bundles the shared infrastructure every tool handler needs to open
// the caller's per-user stores.
type Deps struct {
	Client   *docstore.Client
	Registry *registry.Registry
	Gate     *authgate.Gate
	Prefix   string
	CouchURL string
}

// userStores opens the three per-user stores for sess, ensuring the
// underlying databases exist first.
type userStores struct {
	todo  *todo.Store
	audit *audit.Service
	chat  *chat.Store
}

func (d *Deps) openStores(ctx context.Context, sess authgate.Session) (userStores, error) {
	if err := d.Registry.EnsureUserDatabase(ctx, sess.Username); err != nil {
		return userStores{}, err
	}
	auditSvc, err := audit.GetService(ctx, d.Client, d.CouchURL, d.Prefix, sess.Username)
	if err != nil {
		return userStores{}, err
	}
	return userStores{
		todo:  todo.New(d.Client, d.Prefix, sess.Username),
		audit: auditSvc,
		chat:  chat.New(d.Client, d.Prefix, sess.Username),
	}, nil
}
