// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Filter is a single WHERE predicate with its bound arguments.
// Column names are always supplied by code, never by request input.
type Filter struct {
	clause string
	args   []any
}

// Clause returns the SQL fragment with '?' placeholders.
func (f Filter) Clause() string { return f.clause }

// Args returns the bound arguments.
func (f Filter) Args() []any { return f.args }

// Eq matches rows where col equals v.
func Eq(col string, v any) Filter {
	return Filter{clause: col + " = ?", args: []any{v}}
}

// Neq matches rows where col differs from v.
func Neq(col string, v any) Filter {
	return Filter{clause: col + " <> ?", args: []any{v}}
}

// Gte matches rows where col >= v.
func Gte(col string, v any) Filter {
	return Filter{clause: col + " >= ?", args: []any{v}}
}

// Lte matches rows where col <= v.
func Lte(col string, v any) Filter {
	return Filter{clause: col + " <= ?", args: []any{v}}
}

// Lt matches rows where col < v.
func Lt(col string, v any) Filter {
	return Filter{clause: col + " < ?", args: []any{v}}
}

// ILike is a case-insensitive LIKE. The pattern is used as given, so
// '%' and '_' inside it keep their wildcard meaning.
func ILike(col, pattern string) Filter {
	return Filter{clause: "LOWER(" + col + ") LIKE LOWER(?)", args: []any{pattern}}
}

// AnyILike ORs a case-insensitive LIKE of one pattern across several columns.
func AnyILike(pattern string, cols ...string) Filter {
	parts := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		parts[i] = "LOWER(" + col + ") LIKE LOWER(?)"
		args[i] = pattern
	}
	return Filter{clause: "(" + strings.Join(parts, " OR ") + ")", args: args}
}

// Contains builds the substring pattern used for search boxes.
func Contains(term string) string {
	return "%" + term + "%"
}

// In matches rows where col is one of vals. An empty list matches nothing.
func In(col string, vals ...any) Filter {
	if len(vals) == 0 {
		return Filter{clause: "1 = 0"}
	}
	return Filter{
		clause: col + " IN (" + placeholders(len(vals)) + ")",
		args:   vals,
	}
}

// IsNull matches rows where col is NULL.
func IsNull(col string) Filter {
	return Filter{clause: col + " IS NULL"}
}

// Raw wraps a hand-written predicate.
func Raw(clause string, args ...any) Filter {
	return Filter{clause: clause, args: args}
}

// Order is one ORDER BY term.
type Order struct {
	Column string
	Desc   bool
}

// Query describes a SELECT against one table: projection, joins, filters,
// ordering and an inclusive row range.
type Query struct {
	table   string
	columns []string
	joins   []string
	filters []Filter
	orders  []Order

	hasRange bool
	from, to int
}

// Select starts a query over table with the given projection.
func Select(table string, columns ...string) *Query {
	return &Query{table: table, columns: columns}
}

// Table returns the FROM clause target.
func (q *Query) Table() string { return q.table }

// LeftJoin adds a LEFT JOIN for related records.
func (q *Query) LeftJoin(table, on string) *Query {
	q.joins = append(q.joins, "LEFT JOIN "+table+" ON "+on)
	return q
}

// Where ANDs filters onto the query.
func (q *Query) Where(filters ...Filter) *Query {
	q.filters = append(q.filters, filters...)
	return q
}

// OrderBy appends an ordering term.
func (q *Query) OrderBy(col string, desc bool) *Query {
	q.orders = append(q.orders, Order{Column: col, Desc: desc})
	return q
}

// Range limits results to rows from..to inclusive, zero-based.
func (q *Query) Range(from, to int) *Query {
	if from < 0 {
		from = 0
	}
	if to < from {
		to = from
	}
	q.hasRange = true
	q.from, q.to = from, to
	return q
}

// Limit is shorthand for Range(0, n-1).
func (q *Query) Limit(n int) *Query {
	return q.Range(0, n-1)
}

// Filters returns the filters added so far.
func (q *Query) Filters() []Filter { return q.filters }

// Orders returns the ordering terms added so far.
func (q *Query) Orders() []Order { return q.orders }

// Clone returns an independent copy.
func (q *Query) Clone() *Query {
	c := *q
	c.columns = append([]string(nil), q.columns...)
	c.joins = append([]string(nil), q.joins...)
	c.filters = append([]Filter(nil), q.filters...)
	c.orders = append([]Order(nil), q.orders...)
	return &c
}

// Build renders the SELECT with '?' placeholders.
func (q *Query) Build() (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT ")
	if len(q.columns) == 0 {
		b.WriteString("*")
	} else {
		b.WriteString(strings.Join(q.columns, ", "))
	}
	args := q.writeFrom(&b)

	if len(q.orders) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range q.orders {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(o.Column)
			if o.Desc {
				b.WriteString(" DESC")
			} else {
				b.WriteString(" ASC")
			}
		}
	}

	if q.hasRange {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(q.to - q.from + 1))
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.Itoa(q.from))
	}

	return b.String(), args
}

// BuildCount renders a count-only query with the same joins and filters.
func (q *Query) BuildCount() (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT COUNT(*)")
	args := q.writeFrom(&b)
	return b.String(), args
}

func (q *Query) writeFrom(b *strings.Builder) []any {
	b.WriteString(" FROM ")
	b.WriteString(q.table)
	for _, j := range q.joins {
		b.WriteString(" ")
		b.WriteString(j)
	}

	var args []any
	for i, f := range q.filters {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(f.clause)
		args = append(args, f.args...)
	}
	return args
}

// Count runs the count-only form of q.
func (db *DB) Count(ctx context.Context, q *Query) (int64, error) {
	query, args := q.BuildCount()
	var n int64
	if err := db.queryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", q.table, err)
	}
	return n, nil
}

// Assignment is one column = value pair of an UPDATE.
type Assignment struct {
	Column string
	Value  any
}

// Set builds an Assignment.
func Set(col string, v any) Assignment {
	return Assignment{Column: col, Value: v}
}

// UpdateByIDs applies the assignments to every row whose id is listed.
// It returns the number of rows changed.
func (db *DB) UpdateByIDs(ctx context.Context, table string, ids []any, sets ...Assignment) (int64, error) {
	if len(ids) == 0 || len(sets) == 0 {
		return 0, nil
	}

	cols := make([]string, len(sets))
	args := make([]any, 0, len(sets)+len(ids))
	for i, s := range sets {
		cols[i] = s.Column + " = ?"
		args = append(args, s.Value)
	}
	args = append(args, ids...)

	query := "UPDATE " + table + " SET " + strings.Join(cols, ", ") +
		" WHERE id IN (" + placeholders(len(ids)) + ")"
	res, err := db.exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("updating %s: %w", table, err)
	}
	return res.RowsAffected()
}

// DeleteByIDs removes every row whose id is listed.
func (db *DB) DeleteByIDs(ctx context.Context, table string, ids []any) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := "DELETE FROM " + table + " WHERE id IN (" + placeholders(len(ids)) + ")"
	res, err := db.exec(ctx, query, ids...)
	if err != nil {
		return 0, fmt.Errorf("deleting from %s: %w", table, err)
	}
	return res.RowsAffected()
}

// InsertRows inserts many rows in one statement. Every row must have
// len(columns) values.
func (db *DB) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	row := "(" + placeholders(len(columns)) + ")"
	values := make([]string, len(rows))
	args := make([]any, 0, len(rows)*len(columns))
	for i, r := range rows {
		if len(r) != len(columns) {
			return 0, fmt.Errorf("inserting into %s: row %d has %d values, want %d", table, i, len(r), len(columns))
		}
		values[i] = row
		args = append(args, r...)
	}

	query := "INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ") VALUES " + strings.Join(values, ", ")
	res, err := db.exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting into %s: %w", table, err)
	}
	return res.RowsAffected()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// Int64IDs converts ids for the bulk helpers.
func Int64IDs(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

// StringIDs converts ids for the bulk helpers.
func StringIDs(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
