// Package checks implements the built-in data-quality checks. Each check
// registers itself with the checker registry in an init function; importing
// this package for side effects enables all of them.
package checks

import (
	"strings"

	"github.com/nsxbet/dq-audit/pkg/table"
)

// idColumns returns the columns whose name contains "ID", case-insensitive.
// Used jointly as a composite key, so multi-key relationships
// (e.g. product+location) are covered without per-relationship config.
func idColumns(columns []string) []string {
	var ids []string
	for _, c := range columns {
		if strings.Contains(strings.ToUpper(c), "ID") {
			ids = append(ids, c)
		}
	}
	return ids
}

// entityIDColumns returns the entity-identifying columns: name contains "ID"
// and names a product or location dimension. Narrower than idColumns so that
// date-bearing fact tables join on entities only.
func entityIDColumns(columns []string) []string {
	var ids []string
	for _, c := range columns {
		u := strings.ToUpper(c)
		if strings.Contains(u, "ID") && (strings.Contains(u, "PRODUCT") || strings.Contains(u, "LOCATION")) {
			ids = append(ids, c)
		}
	}
	return ids
}

// dateColumns returns the columns following the _DT naming convention.
func dateColumns(columns []string) []string {
	var dates []string
	for _, c := range columns {
		if strings.HasSuffix(c, "_DT") {
			dates = append(dates, c)
		}
	}
	return dates
}

// rowKeys copies the given columns of row i into a finding key map.
func rowKeys(t *table.Table, i int, columns []string) map[string]any {
	keys := make(map[string]any, len(columns))
	for _, c := range columns {
		if v, ok := t.Value(i, c); ok {
			keys[c] = v
		}
	}
	return keys
}
