package auditor

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsxbet/dq-audit/pkg/config"
	"github.com/nsxbet/dq-audit/pkg/source"
	"github.com/nsxbet/dq-audit/pkg/table"
	"github.com/nsxbet/dq-audit/pkg/types"
)

type memSource struct {
	tables map[string]*table.Table
	loads  int
}

func (m *memSource) LoadTable(_ context.Context, name string) (*table.Table, error) {
	m.loads++
	t, ok := m.tables[name]
	if !ok {
		return nil, errors.Wrapf(source.ErrTableNotFound, "%s", name)
	}
	return t, nil
}

func mkTable(t *testing.T, name string, cols []string, rows ...[]any) *table.Table {
	t.Helper()
	tbl := table.New(name, cols)
	for _, row := range rows {
		require.NoError(t, tbl.AppendRow(row))
	}
	return tbl
}

func retailSource(t *testing.T) *memSource {
	t.Helper()
	return &memSource{tables: map[string]*table.Table{
		"PRICES": mkTable(t, "PRICES", []string{"PRODUCT_ID", "PRICE"},
			[]any{"1", "-5"},
			[]any{"2", "10"},
		),
		"SALES": mkTable(t, "SALES", []string{"PRODUCT_ID", "QTY"},
			[]any{"1", "5"},
			[]any{"2", "3"},
		),
		"PRODUCTS": mkTable(t, "PRODUCTS", []string{"PRODUCT_ID", "NAME"},
			[]any{"1", "widget"},
		),
		"PRODUCT_HIER": mkTable(t, "PRODUCT_HIER",
			[]string{"PRODUCT_LVL_ID1", "PRODUCT_LVL_ID2"}),
	}}
}

func retailConfig() *config.Config {
	return &config.Config{
		ID:     "retail",
		Source: config.SourceConfig{Type: "csv", Path: "unused"},
		Checks: config.ChecksConfig{
			ValRange: &config.ValRangeConfig{
				Threshold: 0,
				Tables:    []config.TableColumn{{Table: "PRICES", Column: "PRICE"}},
			},
			CrossConsistency: &config.CrossConsistencyConfig{
				Tables: []string{"SALES", "PRODUCTS"},
			},
		},
		Hierarchy: map[string]string{"PRODUCT": "PRODUCT_HIER"},
	}
}

func TestAuditor_Check(t *testing.T) {
	src := retailSource(t)
	result, err := New(src, retailConfig()).Check(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Findings, 2)

	valRange := result.FilterByType(types.WarningValRange)
	require.Len(t, valRange, 1)
	assert.Equal(t, "PRICES", valRange[0].InputTable)
	// The hierarchy formatter replaced PRODUCT_ID with level-indexed keys.
	assert.NotContains(t, valRange[0].Keys, "PRODUCT_ID")
	assert.Equal(t, int64(1), valRange[0].Keys["PRODUCT_LVL_ID3"])
	assert.Equal(t, 3, valRange[0].Keys["PRODUCT_LVL"])

	cross := result.FilterByType(types.WarningCrossConsistency)
	require.Len(t, cross, 1)
	assert.Equal(t, "SALES && PRODUCTS", cross[0].InputTable)
	assert.Equal(t, int64(2), cross[0].Keys["PRODUCT_LVL_ID3"])
}

func TestAuditor_StagesGatedOnConfig(t *testing.T) {
	src := retailSource(t)
	cfg := retailConfig()
	cfg.Checks.CrossConsistency = nil
	cfg.Hierarchy = nil

	result, err := New(src, cfg).Check(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Findings, 1)
	assert.Empty(t, result.FilterByType(types.WarningCrossConsistency))
}

func TestAuditor_RerunRebuildsFromScratch(t *testing.T) {
	src := retailSource(t)
	a := New(src, retailConfig())

	first, err := a.Check(context.Background())
	require.NoError(t, err)
	second, err := a.Check(context.Background())
	require.NoError(t, err)

	assert.Equal(t, len(first.Findings), len(second.Findings))
}

func TestAuditor_TablesReloadedPerCheck(t *testing.T) {
	src := retailSource(t)
	cfg := retailConfig()
	cfg.Hierarchy = nil

	_, err := New(src, cfg).Check(context.Background())
	require.NoError(t, err)

	// val_range loads PRICES once; cross consistency loads both tables for
	// each of the two ordered pairs. No caching between or within checks.
	assert.Equal(t, 5, src.loads)
}

func TestAuditor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := New(retailSource(t), retailConfig()).Check(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Empty(t, result.Findings)
}

func TestAuditor_EmptyConfigYieldsCleanResult(t *testing.T) {
	src := retailSource(t)
	result, err := New(src, config.DefaultConfig("empty")).Check(context.Background())
	require.NoError(t, err)

	assert.False(t, result.HasFindings())
	s := result.Summary()
	assert.Equal(t, 0, s.TotalIssues)
	assert.NotEmpty(t, s.Message)
}
