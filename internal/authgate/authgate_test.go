package authgate

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymousSessionHasFixedShape(t *testing.T) {
	g := New(nil)
	sess, err := g.Authenticate(context.Background(), http.Header{})
	// Authenticate short-circuits on a missing X-User-ID before touching
	// the registry, so a Gate with a nil registry is safe here.
	assert.NoError(t, err)
	assert.True(t, sess.IsAnonymous())
	assert.Equal(t, AnonymousUserID, sess.UserID)
	assert.Equal(t, "default", sess.DBName)
	assert.Equal(t, AnonymousUserID, sess.Username)
}

func TestSessionIsAnonymousFalseWhenAuthenticated(t *testing.T) {
	sess := Session{UserID: "alice"}
	assert.False(t, sess.IsAnonymous())
}
