package store

import "strings"

// QueryBuilder rewrites queries written with ? placeholders for a dialect.
type QueryBuilder struct {
	dialect Dialect
}

// NewQueryBuilder creates a new QueryBuilder for the given dialect.
func NewQueryBuilder(dialect Dialect) *QueryBuilder {
	return &QueryBuilder{dialect: dialect}
}

// Build numbers the ? placeholders of query for the dialect. Question marks
// inside single-quoted literals are left alone.
//
//	input:    "SELECT id FROM tilesets WHERE name = ? AND fingerprint = ?"
//	SQLite:   unchanged
//	Postgres: "SELECT id FROM tilesets WHERE name = $1 AND fingerprint = $2"
func (qb *QueryBuilder) Build(query string) string {
	if qb.dialect.Placeholder(2) == "?" {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	position := 1
	quoted := false
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '\'':
			quoted = !quoted
			b.WriteByte(ch)
		case ch == '?' && !quoted:
			b.WriteString(qb.dialect.Placeholder(position))
			position++
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// BuildWithReturning is Build plus a RETURNING clause where the dialect
// cannot report inserted ids otherwise.
func (qb *QueryBuilder) BuildWithReturning(query string, column string) string {
	converted := qb.Build(query)
	if !qb.dialect.SupportsLastInsertID() {
		converted += qb.dialect.ReturningClause(column)
	}
	return converted
}
