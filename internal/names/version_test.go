package names

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrateTodoIsTotalAndIdempotent(t *testing.T) {
	alpha1 := Raw{"title": "buy milk", "context": "errands"}
	alpha2 := Raw{"title": "buy milk", "context": "errands", "repeat": nil, "link": nil, "version": "alpha2"}
	alpha3 := Raw{"title": "buy milk", "version": "alpha3", "externalId": nil, "link": nil, "metadata": map[string]interface{}{}}

	for _, doc := range []Raw{alpha1, alpha2, alpha3} {
		migrated := MigrateTodo(doc)
		assert.True(t, IsTodoAlpha3(migrated))
		assert.Equal(t, migrated, MigrateTodo(migrated))
	}
}

func TestVersionPredicates(t *testing.T) {
	assert.True(t, IsTodoAlpha1(Raw{"title": "x"}))
	assert.True(t, IsTodoAlpha2(Raw{"title": "x", "version": "alpha2"}))
	assert.True(t, IsTodoAlpha3(Raw{"title": "x", "version": "alpha3"}))
	assert.True(t, IsLatestVersion(Raw{"version": "alpha3"}))
	assert.False(t, IsLatestVersion(Raw{"version": "alpha2"}))
}
