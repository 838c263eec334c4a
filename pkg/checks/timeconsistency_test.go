package checks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsxbet/dq-audit/pkg/checker"
	"github.com/nsxbet/dq-audit/pkg/config"
	"github.com/nsxbet/dq-audit/pkg/table"
	"github.com/nsxbet/dq-audit/pkg/types"
)

func timeContext(src *memSource, cfg *config.TimeCrossConsistencyConfig) checker.Context {
	return checker.Context{
		Source: src,
		Checks: config.ChecksConfig{TimeCrossConsistency: cfg},
	}
}

func salesStockSource(t *testing.T) *memSource {
	t.Helper()
	return &memSource{tables: map[string]*table.Table{
		"SALES": mkTable(t, "SALES", []string{"PRODUCT_ID", "SALES_DT", "QTY"},
			[]any{"1", "2024-01-01", "5"},
			[]any{"1", "2024-02-01", "6"},
			[]any{"2", "2024-01-01", "7"},
			[]any{"2", "2024-02-01", "8"},
		),
		"STOCK": mkTable(t, "STOCK", []string{"PRODUCT_ID", "SALES_DT", "UNITS"},
			[]any{"1", "2024-01-01", "50"},
			[]any{"1", "2024-02-01", "60"},
			[]any{"2", "2024-01-01", "70"},
		),
	}}
}

func TestTimeConsistency_MissingCombination(t *testing.T) {
	src := salesStockSource(t)

	// 1 of 4 unique keys missing = 25%, threshold 20 -> emitted.
	findings, err := (&TimeConsistencyChecker{}).Check(context.Background(),
		timeContext(src, &config.TimeCrossConsistencyConfig{
			Pairs:               []config.TablePair{{Left: "SALES", Right: "STOCK"}},
			MissingPctThreshold: 20,
			MinPeriodCount:      0,
		}))
	require.NoError(t, err)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, types.WarningTimeCrossConsistency, f.WarningType)
	assert.Equal(t, "SALES && STOCK", f.InputTable)
	assert.Equal(t, "2", f.Keys["PRODUCT_ID"])
	assert.Equal(t, "2024-02-01", f.Keys["SALES_DT"])
	assert.Equal(t, "1 records (25.0%) from SALES missing in STOCK", f.Warning)
}

func TestTimeConsistency_PercentageGateIsStrict(t *testing.T) {
	src := salesStockSource(t)

	// missing_pct is exactly 25: at the threshold, no finding.
	findings, err := (&TimeConsistencyChecker{}).Check(context.Background(),
		timeContext(src, &config.TimeCrossConsistencyConfig{
			Pairs:               []config.TablePair{{Left: "SALES", Right: "STOCK"}},
			MissingPctThreshold: 25,
			MinPeriodCount:      0,
		}))
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestTimeConsistency_LowFrequencyIndependent(t *testing.T) {
	src := &memSource{tables: map[string]*table.Table{
		"SALES": mkTable(t, "SALES", []string{"PRODUCT_ID", "SALES_DT"},
			[]any{"1", "2024-01-01"},
			[]any{"1", "2024-02-01"},
			[]any{"1", "2024-03-01"},
			[]any{"2", "2024-01-01"},
		),
		"STOCK": mkTable(t, "STOCK", []string{"PRODUCT_ID", "SALES_DT"},
			[]any{"1", "2024-01-01"},
			[]any{"1", "2024-02-01"},
			[]any{"1", "2024-03-01"},
			[]any{"2", "2024-01-01"},
		),
	}}

	// Nothing is missing across the pair, but product 2 appears in only one
	// period, at most the period-count threshold.
	findings, err := (&TimeConsistencyChecker{}).Check(context.Background(),
		timeContext(src, &config.TimeCrossConsistencyConfig{
			Pairs:               []config.TablePair{{Left: "SALES", Right: "STOCK"}},
			MissingPctThreshold: 10,
			MinPeriodCount:      1,
		}))
	require.NoError(t, err)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, "SALES", f.InputTable)
	assert.Equal(t, "2", f.Keys["PRODUCT_ID"])
	assert.Equal(t, "ID appears in 1 or fewer time periods in SALES", f.Warning)
	require.NotNil(t, f.InputValue)
	assert.Equal(t, 1.0, *f.InputValue)
}

func TestTimeConsistency_SkipsPairWithoutDates(t *testing.T) {
	src := &memSource{tables: map[string]*table.Table{
		"A": mkTable(t, "A", []string{"PRODUCT_ID", "QTY"}, []any{"1", "5"}),
		"B": mkTable(t, "B", []string{"PRODUCT_ID", "QTY"}, []any{"2", "6"}),
	}}

	findings, err := (&TimeConsistencyChecker{}).Check(context.Background(),
		timeContext(src, &config.TimeCrossConsistencyConfig{
			Pairs:               []config.TablePair{{Left: "A", Right: "B"}},
			MissingPctThreshold: 0,
			MinPeriodCount:      3,
		}))
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestTimeConsistency_SkipsPairWithoutEntityIDs(t *testing.T) {
	src := &memSource{tables: map[string]*table.Table{
		// ORDER_ID contains "ID" but names neither product nor location.
		"A": mkTable(t, "A", []string{"ORDER_ID", "SALES_DT"}, []any{"1", "2024-01-01"}),
		"B": mkTable(t, "B", []string{"ORDER_ID", "SALES_DT"}, []any{"2", "2024-01-01"}),
	}}

	findings, err := (&TimeConsistencyChecker{}).Check(context.Background(),
		timeContext(src, &config.TimeCrossConsistencyConfig{
			Pairs:               []config.TablePair{{Left: "A", Right: "B"}},
			MissingPctThreshold: 0,
			MinPeriodCount:      3,
		}))
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestTimeConsistency_MissingTableSkipsPair(t *testing.T) {
	src := salesStockSource(t)

	findings, err := (&TimeConsistencyChecker{}).Check(context.Background(),
		timeContext(src, &config.TimeCrossConsistencyConfig{
			Pairs: []config.TablePair{
				{Left: "GONE", Right: "STOCK"},
				{Left: "SALES", Right: "STOCK"},
			},
			MissingPctThreshold: 20,
			MinPeriodCount:      0,
		}))
	require.NoError(t, err)
	assert.Len(t, findings, 1)
}
