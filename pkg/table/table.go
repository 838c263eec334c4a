// Package table provides the in-memory columnar structure the checkers
// operate on, together with the small relational algebra they need:
// projection, de-duplication, left-anti-joins on composite keys, and
// grouped distinct counting.
package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// keySep separates column values inside a composite key. It is a control
// character so it cannot collide with identifier or date values.
const keySep = "\x1f"

// Table is an ordered set of named columns over an ordered sequence of rows.
// Identity is the source name the table was loaded under, not object identity.
type Table struct {
	name  string
	cols  []string
	index map[string]int
	rows  [][]any
}

// New creates an empty table with the given source name and column order.
func New(name string, columns []string) *Table {
	t := &Table{
		name:  name,
		cols:  append([]string(nil), columns...),
		index: make(map[string]int, len(columns)),
	}
	for i, c := range t.cols {
		t.index[c] = i
	}
	return t
}

// Name returns the source name the table was loaded under.
func (t *Table) Name() string { return t.name }

// Columns returns the ordered column names.
func (t *Table) Columns() []string { return append([]string(nil), t.cols...) }

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return len(t.rows) }

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// AppendRow appends one row. The value count must match the column count.
func (t *Table) AppendRow(values []any) error {
	if len(values) != len(t.cols) {
		return errors.Errorf("table %s: row has %d values, want %d", t.name, len(values), len(t.cols))
	}
	t.rows = append(t.rows, append([]any(nil), values...))
	return nil
}

// Row returns the values of row i in column order.
func (t *Table) Row(i int) []any {
	return t.rows[i]
}

// Value returns the cell at (row, column).
func (t *Table) Value(row int, column string) (any, bool) {
	idx, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.rows) {
		return nil, false
	}
	return t.rows[row][idx], true
}

// CommonColumns returns the columns present in both tables, in t's order.
func (t *Table) CommonColumns(other *Table) []string {
	var common []string
	for _, c := range t.cols {
		if other.HasColumn(c) {
			common = append(common, c)
		}
	}
	return common
}

// Project returns a new table reduced to the given columns, preserving row
// order. It fails if any column is absent.
func (t *Table) Project(columns []string) (*Table, error) {
	idxs, err := t.columnIndexes(columns)
	if err != nil {
		return nil, err
	}
	out := New(t.name, columns)
	for _, row := range t.rows {
		values := make([]any, len(idxs))
		for i, idx := range idxs {
			values[i] = row[idx]
		}
		out.rows = append(out.rows, values)
	}
	return out, nil
}

// DropDuplicates returns a new table keeping only the first occurrence of
// each distinct row, considering all columns.
func (t *Table) DropDuplicates() *Table {
	out := New(t.name, t.cols)
	seen := make(map[string]struct{}, len(t.rows))
	all := make([]int, len(t.cols))
	for i := range all {
		all[i] = i
	}
	for _, row := range t.rows {
		key := compositeKey(row, all)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.rows = append(out.rows, row)
	}
	return out
}

// AntiJoin returns the rows of t whose composite key over keyColumns has no
// match in other. Both tables must have every key column.
func (t *Table) AntiJoin(other *Table, keyColumns []string) (*Table, error) {
	leftIdxs, err := t.columnIndexes(keyColumns)
	if err != nil {
		return nil, err
	}
	rightIdxs, err := other.columnIndexes(keyColumns)
	if err != nil {
		return nil, err
	}
	present := make(map[string]struct{}, other.NumRows())
	for _, row := range other.rows {
		present[compositeKey(row, rightIdxs)] = struct{}{}
	}
	out := New(t.name, t.cols)
	for _, row := range t.rows {
		if _, ok := present[compositeKey(row, leftIdxs)]; !ok {
			out.rows = append(out.rows, row)
		}
	}
	return out, nil
}

// GroupCountDistinct groups t by groupColumns and counts the distinct values
// of distinctColumn within each group. The result has the group columns plus
// countColumn, one row per group, in first-seen order.
func (t *Table) GroupCountDistinct(groupColumns []string, distinctColumn, countColumn string) (*Table, error) {
	groupIdxs, err := t.columnIndexes(groupColumns)
	if err != nil {
		return nil, err
	}
	distinctIdx, ok := t.index[distinctColumn]
	if !ok {
		return nil, errors.Errorf("table %s: no column %s", t.name, distinctColumn)
	}

	type group struct {
		values []any
		seen   map[string]struct{}
	}
	var order []string
	groups := make(map[string]*group)
	for _, row := range t.rows {
		key := compositeKey(row, groupIdxs)
		g, ok := groups[key]
		if !ok {
			values := make([]any, len(groupIdxs))
			for i, idx := range groupIdxs {
				values[i] = row[idx]
			}
			g = &group{values: values, seen: make(map[string]struct{})}
			groups[key] = g
			order = append(order, key)
		}
		g.seen[fmt.Sprintf("%v", row[distinctIdx])] = struct{}{}
	}

	out := New(t.name, append(append([]string(nil), groupColumns...), countColumn))
	for _, key := range order {
		g := groups[key]
		out.rows = append(out.rows, append(append([]any(nil), g.values...), len(g.seen)))
	}
	return out, nil
}

func (t *Table) columnIndexes(columns []string) ([]int, error) {
	idxs := make([]int, len(columns))
	for i, c := range columns {
		idx, ok := t.index[c]
		if !ok {
			return nil, errors.Errorf("table %s: no column %s", t.name, c)
		}
		idxs[i] = idx
	}
	return idxs, nil
}

func compositeKey(row []any, idxs []int) string {
	parts := make([]string, len(idxs))
	for i, idx := range idxs {
		parts[i] = fmt.Sprintf("%v", row[idx])
	}
	return strings.Join(parts, keySep)
}

// AsFloat converts a cell value to float64. CSV sources yield strings and SQL
// drivers yield a mix of numeric types and byte slices, so all are accepted.
func AsFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case []byte:
		return parseFloat(string(x))
	case string:
		return parseFloat(x)
	default:
		return 0, false
	}
}

// AsInt64 converts a cell value to int64, truncating fractional text values
// the way a nullable-integer cast would.
func AsInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		f, ok := AsFloat(v)
		if !ok {
			return 0, false
		}
		return int64(f), true
	}
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
