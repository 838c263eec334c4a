package checks

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/nsxbet/dq-audit/pkg/source"
	"github.com/nsxbet/dq-audit/pkg/table"
)

// memSource serves fixture tables from memory.
type memSource struct {
	tables map[string]*table.Table
}

func (m *memSource) LoadTable(_ context.Context, name string) (*table.Table, error) {
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
