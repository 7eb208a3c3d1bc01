package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryBuilderEq(t *testing.T) {
	q := NewQueryBuilder().Where("context", "eq", "work").Build()
	assert.Equal(t, map[string]interface{}{"context": "work"}, q.Selector)
}

func TestQueryBuilderComparisonOperators(t *testing.T) {
	q := NewQueryBuilder().Where("due", "gte", "2026-01-01").Build()
	assert.Equal(t, map[string]interface{}{
		"due": map[string]interface{}{"$gte": "2026-01-01"},
	}, q.Selector)
}

func TestQueryBuilderAndCombination(t *testing.T) {
	q := NewQueryBuilder().
		Where("version", "eq", "alpha3").
		Where("context", "eq", "work").
		Build()

	combined, ok := q.Selector["$and"].([]interface{})
	assert.True(t, ok)
	assert.Len(t, combined, 2)
}

func TestQueryBuilderSortLimitSkip(t *testing.T) {
	q := NewQueryBuilder().
		Where("version", "eq", "alpha3").
		Sort("due", "asc").
		Limit(10).
		Skip(5).
		UseIndex("version-due-index").
		Build()

	assert.Equal(t, 10, q.Limit)
	assert.Equal(t, 5, q.Skip)
	assert.Equal(t, "version-due-index", q.UseIndex)
	assert.Equal(t, []map[string]string{{"due": "asc"}}, q.Sort)
}

func TestMangoQueryToParamsOmitsEmptyFields(t *testing.T) {
	q := MangoQuery{Selector: map[string]interface{}{"version": "alpha3"}}
	params := q.toParams()
	_, hasLimit := params["limit"]
	assert.False(t, hasLimit)
	assert.Equal(t, q.Selector, params["selector"])
}
