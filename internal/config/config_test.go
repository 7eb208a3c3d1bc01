package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOptionalFileNoopOnEmptyPath(t *testing.T) {
	assert.NoError(t, LoadOptionalFile(""))
}

func TestLoadOptionalFileExportsUnsetKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eddo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9090\ncouchdb:\n  url: http://example.invalid:5984\n"), 0o600))

	os.Unsetenv("PORT")
	os.Unsetenv("COUCHDB_URL")
	defer os.Unsetenv("PORT")
	defer os.Unsetenv("COUCHDB_URL")

	require.NoError(t, LoadOptionalFile(path))
	assert.Equal(t, "9090", os.Getenv("PORT"))
	assert.Equal(t, "http://example.invalid:5984", os.Getenv("COUCHDB_URL"))
}

func TestLoadOptionalFileDoesNotOverrideExistingEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eddo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9090\n"), 0o600))

	os.Setenv("PORT", "1234")
	defer os.Unsetenv("PORT")

	require.NoError(t, LoadOptionalFile(path))
	assert.Equal(t, "1234", os.Getenv("PORT"))
}

func TestPrefixSelectsTestDatabase(t *testing.T) {
	c := Config{DatabasePrefix: "eddo", DatabaseTestPrefix: "eddo_test", NodeEnv: "test"}
	assert.Equal(t, "eddo_test", c.Prefix())

	c.NodeEnv = "production"
	assert.Equal(t, "eddo", c.Prefix())
}
