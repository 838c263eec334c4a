package types

import "fmt"

// WarningType classifies a data-quality finding.
type WarningType string

const (
	// WarningValRange flags values below an acceptable threshold (e.g. negative prices).
	WarningValRange WarningType = "val_range"
	// WarningCrossConsistency flags keys present in one table but absent from a related table.
	WarningCrossConsistency WarningType = "cross_consistency"
	// WarningTimeCrossConsistency flags entity/period combinations missing across table
	// pairs, and entities observed in too few time periods.
	WarningTimeCrossConsistency WarningType = "time_cross_consistency"
)

// String returns the wire name of the warning type.
func (w WarningType) String() string {
	return string(w)
}

// Valid reports whether w is one of the known warning types.
func (w WarningType) Valid() bool {
	switch w {
	case WarningValRange, WarningCrossConsistency, WarningTimeCrossConsistency:
		return true
	}
	return false
}

// Metadata column names carried by every finding when flattened to a table.
const (
	ColInputTable  = "INPUT_TABLE"
	ColInputColumn = "INPUT_COLUMN"
	ColInputValue  = "INPUT_VALUE"
	ColWarningType = "WARNING_TYPE"
	ColWarning     = "WARNING"
)

// Finding is one detected data-quality violation.
//
// InputTable is the source table name, or "A && B" for cross-table findings.
// InputColumn is set for value-range findings only. InputValue is the
// threshold that triggered the finding, nil for checks without one. Keys
// holds the identifying
// columns copied from the offending row or key tuple (e.g. PRODUCT_ID, dates).
type Finding struct {
	InputTable  string         `json:"input_table" yaml:"input_table"`
	InputColumn string         `json:"input_column,omitempty" yaml:"input_column,omitempty"`
	InputValue  *float64       `json:"input_value,omitempty" yaml:"input_value,omitempty"`
	WarningType WarningType    `json:"warning_type" yaml:"warning_type"`
	Warning     string         `json:"warning" yaml:"warning"`
	Keys        map[string]any `json:"keys,omitempty" yaml:"keys,omitempty"`
}

// Severity classifies a run by its total finding count.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// SeverityForCount maps a total finding count to a severity.
// Breakpoints: >1000 CRITICAL, >100 HIGH, >10 MEDIUM, otherwise LOW.
func SeverityForCount(total int) Severity {
	switch {
	case total > 1000:
		return SeverityCritical
	case total > 100:
		return SeverityHigh
	case total > 10:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Summary aggregates the findings of one audit run.
//
// When TotalIssues is zero, Severity is empty and Message carries a success
// note; callers must check HasIssues before reading Severity.
type Summary struct {
	TotalIssues int                 `json:"total_issues" yaml:"total_issues"`
	ByType      map[WarningType]int `json:"by_type" yaml:"by_type"`
	ByTable     map[string]int      `json:"by_table" yaml:"by_table"`
	Severity    Severity            `json:"severity,omitempty" yaml:"severity,omitempty"`
	Message     string              `json:"message,omitempty" yaml:"message,omitempty"`
}

// HasIssues reports whether the summary describes a non-empty findings set.
func (s *Summary) HasIssues() bool {
	return s.TotalIssues > 0
}

// String returns a one-line human-readable form of the summary.
func (s *Summary) String() string {
	if !s.HasIssues() {
		return s.Message
	}
	return fmt.Sprintf("%d issue(s) found, severity %s", s.TotalIssues, s.Severity)
}
