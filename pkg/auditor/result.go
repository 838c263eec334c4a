package auditor

import (
	"fmt"
	"sort"

	"github.com/nsxbet/dq-audit/pkg/table"
	"github.com/nsxbet/dq-audit/pkg/types"
)

// outputTableName is the source name of the flattened findings table.
const outputTableName = "DATA_QUALITY_OUTPUT"

// noIssuesMessage is the success message of an empty summary.
const noIssuesMessage = "No data quality issues found"

// Result holds the findings of one audit run.
//
// Findings are kept as tagged records internally; the wide union-of-columns
// layout exists only at the boundary, produced by Table.
type Result struct {
	Findings []*types.Finding
}

func newResult(findings []*types.Finding) *Result {
	return &Result{Findings: findings}
}

// HasFindings reports whether the run produced any findings.
func (r *Result) HasFindings() bool {
	return len(r.Findings) > 0
}

// FilterByType returns the findings with the given warning type.
func (r *Result) FilterByType(warningType types.WarningType) []*types.Finding {
	filtered := make([]*types.Finding, 0)
	for _, f := range r.Findings {
		if f.WarningType == warningType {
			filtered = append(filtered, f)
		}
	}
	return filtered
}

// FilterByTable returns the findings whose INPUT_TABLE matches.
func (r *Result) FilterByTable(inputTable string) []*types.Finding {
	filtered := make([]*types.Finding, 0)
	for _, f := range r.Findings {
		if f.InputTable == inputTable {
			filtered = append(filtered, f)
		}
	}
	return filtered
}

// Summary aggregates the findings: total count, counts by warning type and by
// input table, and a severity classification. An empty result yields the
// zero-issue shape with a success message and no severity.
func (r *Result) Summary() *types.Summary {
	if !r.HasFindings() {
		return &types.Summary{
			ByType:  map[types.WarningType]int{},
			ByTable: map[string]int{},
			Message: noIssuesMessage,
		}
	}

	s := &types.Summary{
		TotalIssues: len(r.Findings),
		ByType:      make(map[types.WarningType]int),
		ByTable:     make(map[string]int),
	}
	for _, f := range r.Findings {
		s.ByType[f.WarningType]++
		s.ByTable[f.InputTable]++
	}
	s.Severity = types.SeverityForCount(s.TotalIssues)
	return s
}

// Table flattens the findings into one wide table: the metadata columns in a
// fixed order followed by the union of all key columns, sorted. Findings
// without a given key column leave the cell nil.
func (r *Result) Table() *table.Table {
	keySet := make(map[string]struct{})
	for _, f := range r.Findings {
		for k := range f.Keys {
			keySet[k] = struct{}{}
		}
	}
	keyCols := make([]string, 0, len(keySet))
	for k := range keySet {
		keyCols = append(keyCols, k)
	}
	sort.Strings(keyCols)

	meta := []string{
		types.ColInputTable,
		types.ColInputColumn,
		types.ColInputValue,
		types.ColWarningType,
		types.ColWarning,
	}
	t := table.New(outputTableName, append(meta, keyCols...))
	for _, f := range r.Findings {
		row := make([]any, 0, len(meta)+len(keyCols))
		row = append(row, f.InputTable)
		if f.InputColumn != "" {
			row = append(row, f.InputColumn)
		} else {
			row = append(row, nil)
		}
		if f.InputValue != nil {
			row = append(row, *f.InputValue)
		} else {
			row = append(row, nil)
		}
		row = append(row, f.WarningType.String(), f.Warning)
		for _, k := range keyCols {
			if v, ok := f.Keys[k]; ok {
				row = append(row, v)
			} else {
				row = append(row, nil)
			}
		}
		// Row width matches the column count by construction.
		_ = t.AppendRow(row)
	}
	return t
}

// String returns a one-line human-readable form of the result.
func (r *Result) String() string {
	s := r.Summary()
	if !s.HasIssues() {
		return s.Message
	}
	return fmt.Sprintf("Audit Results: %d finding(s), severity %s", s.TotalIssues, s.Severity)
}
