package names

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeUsername(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple alphanumeric", "alice123", "alice123"},
		{"uppercase folds to lower", "Alice", "alice"},
		{"with at sign", "alice@example.com", "alice_example_com"},
		{"with space", "alice smith", "alice_smith"},
		{"leading digit gets u_ prefix", "007bond", "u_007bond"},
		{"empty string gets u_ prefix", "", "u_"},
		{"very long username truncates to 50", string(make([]byte, 80)), "u_" + strings.Repeat("_", 48)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeUsername(tt.input))
		})
	}
}

func TestSanitizeUsernameIdempotent(t *testing.T) {
	inputs := []string{"Alice Smith", "007bond", "", "x", "UPPER_CASE-name+tag"}
	for _, in := range inputs {
		once := SanitizeUsername(in)
		twice := SanitizeUsername(once)
		assert.Equal(t, once, twice, "sanitize must be idempotent for %q", in)
		assert.LessOrEqual(t, len(once), 50)
	}
}

func TestGetUserDatabaseNameEquivalence(t *testing.T) {
	a := GetUserDatabaseName("eddo", "Alice")
	b := GetUserDatabaseName("eddo", "alice")
	assert.Equal(t, a, b)
}

func TestDatabaseKindClassifiers(t *testing.T) {
	prod, test := "eddo", "eddo_test"

	userDB := GetUserDatabaseName(prod, "alice")
	auditDB := GetAuditDatabaseName(prod, "alice")
	chatDB := GetChatDatabaseName(prod, "alice")
	registryDB := GetUserRegistryDatabaseName(prod)

	assert.True(t, IsUserDatabase(userDB, prod, test))
	assert.False(t, IsUserDatabase(auditDB, prod, test))
	assert.False(t, IsUserDatabase(registryDB, prod, test), "registry database shares the _user_ prefix shape but is not a per-user database")

	assert.True(t, IsAuditDatabase(auditDB, prod, test))
	assert.True(t, IsChatDatabase(chatDB, prod, test))
	assert.True(t, IsUserRegistryDatabase(registryDB, prod, test))

	assert.Equal(t, "alice", ExtractUsernameFromDatabaseName(userDB, prod, test))
	assert.Equal(t, "alice", ExtractUsernameFromDatabaseName(auditDB, prod, test))
	assert.Equal(t, "", ExtractUsernameFromDatabaseName(registryDB, prod, test))
}

func TestPrefixSelection(t *testing.T) {
	assert.Equal(t, "eddo", Prefix(EnvProduction, "eddo", "eddo_test"))
	assert.Equal(t, "eddo_test", Prefix(EnvTest, "eddo", "eddo_test"))
}
