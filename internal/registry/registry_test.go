package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntryIDSanitizesUsername(t *testing.T) {
	assert.Equal(t, "user_alice", entryID("Alice"))
	assert.Equal(t, entryID("Alice"), entryID("ALICE"))
}

func TestMigrateFillsDefaultsAndStampsVersion(t *testing.T) {
	entry := Entry{ID: "user_bob", Username: "bob"}
	migrated, wrote := migrate(entry)

	assert.True(t, wrote)
	assert.Equal(t, latestVersion, migrated.Version)
	assert.Equal(t, []Permission{PermissionRead, PermissionWrite}, migrated.Permissions)
	assert.Equal(t, StatusActive, migrated.Status)
}

func TestMigrateIsNoopOnLatestVersion(t *testing.T) {
	entry := Entry{
		ID:          "user_bob",
		Username:    "bob",
		Version:     latestVersion,
		Permissions: []Permission{PermissionRead},
		Status:      StatusSuspended,
	}
	migrated, wrote := migrate(entry)

	assert.False(t, wrote)
	assert.Equal(t, entry, migrated)
}

func TestUnmarshalDocRejectsNil(t *testing.T) {
	var entry Entry
	err := unmarshalDoc(nil, &entry)
	assert.Error(t, err)
}

func TestUnmarshalDocDecodesEntry(t *testing.T) {
	var entry Entry
	err := unmarshalDoc([]byte(`{"_id":"user_bob","username":"bob"}`), &entry)
	assert.NoError(t, err)
	assert.Equal(t, "user_bob", entry.ID)
	assert.Equal(t, "bob", entry.Username)
}
