// Package sqlbuilder composes parameterized SQL statements from typed
// column/value pairs. Statement text and bound arguments are kept separate
// end-to-end: values never appear in the returned SQL, only `?` placeholders.
// Callers rebind the placeholders to the driver's bindvar (e.g. $N for
// Postgres) with sqlx.Rebind before execution.
//
// Column and table names are trusted internal identifiers, not user input;
// they are still quoted with pq.QuoteIdentifier so reserved words and mixed
// case round-trip safely.
package sqlbuilder

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Comparison operators supported by Compose.
const (
	OpEq   = "="
	OpLike = "LIKE"
)

// Connectives supported by Compose.
const (
	ConnAnd = " AND "
	ConnOr  = " OR "
	ConnSet = ", "
)

// Pair is a single column/value condition. Pairs preserve declaration order,
// unlike a map, so the emitted placeholders line up with the argument slice.
type Pair struct {
	Column string
	Value  any
}

// Pairs is an ordered sequence of conditions sharing one connective.
type Pairs []Pair

// Eq is shorthand for appending an equality pair.
func (p Pairs) Eq(column string, value any) Pairs {
	return append(p, Pair{Column: column, Value: value})
}

// Compose joins one fragment per pair with the given connective, using the
// given comparison operator. For OpLike every value is wrapped in %...%
// wildcards before binding. Compose assumes a non-empty pair sequence;
// callers skip empty groups entirely.
func Compose(pairs Pairs, connective, operator string) (string, []any) {
	frags := make([]string, 0, len(pairs))
	args := make([]any, 0, len(pairs))
	for _, p := range pairs {
		frags = append(frags, pq.QuoteIdentifier(p.Column)+" "+operator+" ?")
		if operator == OpLike {
			args = append(args, fmt.Sprintf("%%%v%%", p.Value))
		} else {
			args = append(args, p.Value)
		}
	}
	return strings.Join(frags, connective), args
}

// SelectOpts carries the optional parts of a SELECT statement.
type SelectOpts struct {
	Limit    int
	Where    Pairs // AND-joined equality group
	OrWhere  Pairs // AND-joined group, OR-ed against Where
	Contains Pairs // OR-joined substring group
}

// Select assembles a SELECT statement for the given table and columns.
//
// Predicate combination keeps the historical shape: a Contains group opens
// the WHERE clause, a Where group is AND-ed onto it, and an OrWhere group is
// OR-ed against the Where group. When all three are present the Where/OrWhere
// disjunction is wrapped in an extra parenthesis:
//
//	WHERE (contains) AND ((where) OR (or_where))
//
// An OrWhere group without a Where group is ignored.
func Select(table string, columns []string, opts SelectOpts) (string, []any) {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = pq.QuoteIdentifier(c)
	}

	var b strings.Builder
	b.WriteString("SELECT " + strings.Join(cols, ", ") + " FROM " + pq.QuoteIdentifier(table))
	var args []any

	if len(opts.Contains) > 0 {
		frag, a := Compose(opts.Contains, ConnOr, OpLike)
		b.WriteString(" WHERE (" + frag + ")")
		args = append(args, a...)
	}

	if len(opts.Where) > 0 {
		frag, a := Compose(opts.Where, ConnAnd, OpEq)
		switch {
		case len(opts.Contains) > 0 && len(opts.OrWhere) > 0:
			b.WriteString(" AND ((" + frag + ")")
		case len(opts.Contains) > 0:
			b.WriteString(" AND (" + frag + ")")
		default:
			b.WriteString(" WHERE (" + frag + ")")
		}
		args = append(args, a...)
	}

	if len(opts.Where) > 0 && len(opts.OrWhere) > 0 {
		frag, a := Compose(opts.OrWhere, ConnAnd, OpEq)
		b.WriteString(" OR (" + frag + ")")
		if len(opts.Contains) > 0 {
			b.WriteString(")")
		}
		args = append(args, a...)
	}

	if opts.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, opts.Limit)
	}

	return b.String(), args
}

// Insert assembles an INSERT statement with a RETURNING clause for the
// generated primary key. Columns and values are matched positionally.
func Insert(table string, columns []string, values []any) (string, []any) {
	cols := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = pq.QuoteIdentifier(c)
		marks[i] = "?"
	}
	q := "INSERT INTO " + pq.QuoteIdentifier(table) +
		" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") +
		`) RETURNING "id"`
	args := make([]any, len(values))
	copy(args, values)
	return q, args
}

// Update assembles an UPDATE statement. The SET list is a comma-joined
// equality composition of the column/value pairs; the optional where group is
// AND-joined without extra parentheses.
func Update(table string, columns []string, values []any, where Pairs) (string, []any) {
	n := len(columns)
	if len(values) < n {
		n = len(values)
	}
	set := make(Pairs, 0, n)
	for i := 0; i < n; i++ {
		set = append(set, Pair{Column: columns[i], Value: values[i]})
	}
	frag, args := Compose(set, ConnSet, OpEq)

	q := "UPDATE " + pq.QuoteIdentifier(table) + " SET " + frag
	if len(where) > 0 {
		wfrag, wargs := Compose(where, ConnAnd, OpEq)
		q += " WHERE " + wfrag
		args = append(args, wargs...)
	}
	return q, args
}

// Delete assembles a DELETE statement with an optional AND-joined where group.
func Delete(table string, where Pairs) (string, []any) {
	q := "DELETE FROM " + pq.QuoteIdentifier(table)
	var args []any
	if len(where) > 0 {
		frag, wargs := Compose(where, ConnAnd, OpEq)
		q += " WHERE " + frag
		args = wargs
	}
	return q, args
}
