package docstore

// QueryBuilder provides a fluent API for constructing a MangoQuery,
// mirroring the document database's own Mango selector operators.
type QueryBuilder struct {
	clauses  []map[string]interface{}
	operator string // "$and" or "$or"
	fields   []string
	sort     []map[string]string
	limit    int
	skip     int
	useIndex string
}

// NewQueryBuilder starts a new query, combining clauses with $and by
// default.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{operator: "$and"}
}

var operatorMap = map[string]string{
	"eq":     "",
	"ne":     "$ne",
	"gt":     "$gt",
	"gte":    "$gte",
	"lt":     "$lt",
	"lte":    "$lte",
	"regex":  "$regex",
	"in":     "$in",
	"nin":    "$nin",
	"exists": "$exists",
}

// Where adds a field comparison. operator is one of eq/ne/gt/gte/lt/lte/
// regex/in/nin/exists.
func (b *QueryBuilder) Where(field, operator string, value interface{}) *QueryBuilder {
	op, ok := operatorMap[operator]
	if !ok {
		op = "$eq"
	}
	var clause map[string]interface{}
	if op == "" {
		clause = map[string]interface{}{field: value}
	} else {
		clause = map[string]interface{}{field: map[string]interface{}{op: value}}
	}
	b.clauses = append(b.clauses, clause)
	return b
}

// And forces $and combination (the default).
func (b *QueryBuilder) And() *QueryBuilder { b.operator = "$and"; return b }

// Or forces $or combination of every clause, including ones added later.
func (b *QueryBuilder) Or() *QueryBuilder { b.operator = "$or"; return b }

// Select restricts the returned fields.
func (b *QueryBuilder) Select(fields ...string) *QueryBuilder {
	b.fields = fields
	return b
}

// Sort appends a sort key; direction is "asc" or "desc".
func (b *QueryBuilder) Sort(field, direction string) *QueryBuilder {
	b.sort = append(b.sort, map[string]string{field: direction})
	return b
}

// Limit caps the number of returned rows.
func (b *QueryBuilder) Limit(n int) *QueryBuilder { b.limit = n; return b }

// Skip sets the number of matching rows to skip.
func (b *QueryBuilder) Skip(n int) *QueryBuilder { b.skip = n; return b }

// UseIndex pins the query to a named index.
func (b *QueryBuilder) UseIndex(name string) *QueryBuilder { b.useIndex = name; return b }

// Build produces the final MangoQuery.
func (b *QueryBuilder) Build() MangoQuery {
	var selector map[string]interface{}
	switch len(b.clauses) {
	case 0:
		selector = map[string]interface{}{}
	case 1:
		selector = b.clauses[0]
	default:
		combined := make([]interface{}, len(b.clauses))
		for i, c := range b.clauses {
			combined[i] = c
		}
		selector = map[string]interface{}{b.operator: combined}
	}
	return MangoQuery{
		Selector: selector,
		Fields:   b.fields,
		Sort:     b.sort,
		Limit:    b.limit,
		Skip:     b.skip,
		UseIndex: b.useIndex,
	}
}
