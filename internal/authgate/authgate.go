// Package authgate implements the stateless per-request auth gate (§4.G):
// header extraction against the tenant registry, an anonymous fallback for
// the connection handshake, and trace-context extraction for span
// parenting.
package authgate

import (
	"context"
	"net/http"
	"strconv"

	"github.com/walterra/eddo-core/internal/docstore"
	"github.com/walterra/eddo-core/internal/obstrace"
	"github.com/walterra/eddo-core/internal/registry"
)

const (
	headerUserID       = "X-User-ID"
	headerDatabaseName = "X-Database-Name"
	headerTelegramID   = "X-Telegram-ID"

	// AnonymousUserID marks a session that has not authenticated; it may
	// complete the connection handshake but no catalog tool.
	AnonymousUserID = "anonymous"
)

// Session is the authenticated (or anonymous) identity attached to one
// request, plus the trace context extracted from its headers.
type Session struct {
	UserID   string
	Username string
	DBName   string
	Entry    *registry.Entry
	Ctx      context.Context
}

// IsAnonymous reports whether this session completed the handshake
// without authenticating.
func (s Session) IsAnonymous() bool { return s.UserID == AnonymousUserID }

// ErrUnauthorized is returned when X-User-ID is present but does not match
// any registry entry.
var ErrUnauthorized = &docstore.Error{Kind: docstore.KindUnauthorized, Op: "authgate", Reason: "no matching registry entry"}

// Gate resolves request headers into a Session.
type Gate struct {
	reg *registry.Registry
}

// New builds a Gate backed by reg.
func New(reg *registry.Registry) *Gate {
	return &Gate{reg: reg}
}

// Authenticate extracts headers from h, parents ctx to the caller's W3C
// trace context, and resolves the session. A request with no X-User-ID
// gets the anonymous session without consulting the registry.
func (g *Gate) Authenticate(ctx context.Context, h http.Header) (Session, error) {
	ctx = obstrace.ExtractFromHeaders(ctx, h)

	userID := h.Get(headerUserID)
	if userID == "" {
		return Session{UserID: AnonymousUserID, Username: AnonymousUserID, DBName: "default", Ctx: ctx}, nil
	}

	entry, err := g.resolve(ctx, userID, h.Get(headerTelegramID))
	if err != nil {
		if docstore.IsNotFound(err) {
			return Session{}, ErrUnauthorized
		}
		return Session{}, err
	}

	dbName := entry.DatabaseName
	if override := h.Get(headerDatabaseName); override != "" {
		dbName = override
	}

	return Session{
		UserID:   userID,
		Username: entry.Username,
		DBName:   dbName,
		Entry:    entry,
		Ctx:      ctx,
	}, nil
}

func (g *Gate) resolve(ctx context.Context, userID, telegramHeader string) (*registry.Entry, error) {
	entry, err := g.reg.FindByUsername(ctx, userID)
	if err == nil {
		return entry, nil
	}
	if !docstore.IsNotFound(err) {
		return nil, err
	}
	if telegramHeader == "" {
		return nil, err
	}
	telegramID, convErr := strconv.ParseInt(telegramHeader, 10, 64)
	if convErr != nil {
		return nil, err
	}
	return g.reg.FindByTelegramID(ctx, telegramID)
}
