package checks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nsxbet/dq-audit/pkg/checker"
	"github.com/nsxbet/dq-audit/pkg/table"
	"github.com/nsxbet/dq-audit/pkg/types"
)

func init() {
	checker.Register(types.WarningValRange, &ValueRangeChecker{})
}

// ValueRangeChecker flags rows where a configured column falls strictly below
// a threshold (e.g. negative prices or quantities).
type ValueRangeChecker struct{}

// Check loads each configured (table, column) pair and emits one finding per
// offending row. The warning text reports the value from the first offending
// row of each table; it is a representative sample shared by the batch.
func (*ValueRangeChecker) Check(ctx context.Context, checkCtx checker.Context) ([]*types.Finding, error) {
	cfg := checkCtx.Checks.ValRange
	if cfg == nil || len(cfg.Tables) == 0 {
		return nil, nil
	}

	var findings []*types.Finding
	for _, tc := range cfg.Tables {
		t, err := checkCtx.Source.LoadTable(ctx, tc.Table)
		if err != nil {
			slog.Warn("value range check: failed to load table", "table", tc.Table, "error", err)
			continue
		}
		if !t.HasColumn(tc.Column) {
			slog.Warn("value range check: column not found", "table", tc.Table, "column", tc.Column)
			continue
		}

		var bad []int
		for i := 0; i < t.NumRows(); i++ {
			v, _ := t.Value(i, tc.Column)
			f, ok := table.AsFloat(v)
			if ok && f < cfg.Threshold {
				bad = append(bad, i)
			}
		}
		if len(bad) == 0 {
			continue
		}

		sample, _ := t.Value(bad[0], tc.Column)
		sampleVal, _ := table.AsFloat(sample)
		warning := fmt.Sprintf("Value %s=%.2f is below threshold %v in %s",
			tc.Column, sampleVal, cfg.Threshold, tc.Table)

		threshold := cfg.Threshold
		for _, i := range bad {
			findings = append(findings, &types.Finding{
				InputTable:  tc.Table,
				InputColumn: tc.Column,
				InputValue:  &threshold,
				WarningType: types.WarningValRange,
				Warning:     warning,
				Keys:        rowKeys(t, i, t.Columns()),
			})
		}
	}
	return findings, nil
}
