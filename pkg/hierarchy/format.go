// Package hierarchy reformats dimension identifiers in audit findings into
// the level-indexed naming convention expected by downstream reporting.
package hierarchy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/nsxbet/dq-audit/pkg/source"
	"github.com/nsxbet/dq-audit/pkg/table"
	"github.com/nsxbet/dq-audit/pkg/types"
)

// Formatter rewrites raw {DIM}_ID finding keys to {DIM}_LVL_ID{n} keys using
// hierarchy metadata tables.
type Formatter struct {
	src source.Source
	// dims maps a dimension name (e.g. PRODUCT) to its hierarchy table name.
	dims map[string]string
}

// NewFormatter creates a formatter for the given dimension-to-table mapping.
func NewFormatter(src source.Source, dims map[string]string) *Formatter {
	return &Formatter{src: src, dims: dims}
}

// Format rewrites the findings in place. For each dimension present as a
// {DIM}_ID key, the hierarchy table's {DIM}_LVL_ID* columns are counted and
// the raw identifier becomes level count+1, the most granular level:
// a {DIM}_LVL_ID{count+1} key (identifier cast to int64, nil when the cast
// fails) plus a constant {DIM}_LVL key, with the original {DIM}_ID dropped.
//
// A failure on one dimension is logged and never discards the rewrites
// already applied for other dimensions. Running Format twice is a no-op the
// second time: the {DIM}_ID keys no longer exist.
func (f *Formatter) Format(ctx context.Context, findings []*types.Finding) {
	if len(findings) == 0 {
		return
	}

	dims := make([]string, 0, len(f.dims))
	for dim := range f.dims {
		dims = append(dims, dim)
	}
	sort.Strings(dims)

	for _, dim := range dims {
		idCol := dim + "_ID"
		if !anyFindingHasKey(findings, idCol) {
			continue
		}

		targetLevel, err := f.targetLevel(ctx, dim)
		if err != nil {
			slog.Warn("hierarchy format: dimension skipped", "dimension", dim, "error", err)
			continue
		}

		levelCol := fmt.Sprintf("%s_LVL_ID%d", dim, targetLevel)
		for _, finding := range findings {
			raw, ok := finding.Keys[idCol]
			if !ok {
				continue
			}
			if id, ok := table.AsInt64(raw); ok {
				finding.Keys[levelCol] = id
			} else {
				finding.Keys[levelCol] = nil
			}
			finding.Keys[dim+"_LVL"] = targetLevel
			delete(finding.Keys, idCol)
		}
	}
}

// targetLevel loads the dimension's hierarchy table and returns the level the
// raw identifier represents: one below the deepest named level.
func (f *Formatter) targetLevel(ctx context.Context, dim string) (int, error) {
	hier, err := f.src.LoadTable(ctx, f.dims[dim])
	if err != nil {
		return 0, err
	}
	levelPrefix := dim + "_LVL_ID"
	numLevels := 0
	for _, c := range hier.Columns() {
		if strings.Contains(c, levelPrefix) {
			numLevels++
		}
	}
	return numLevels + 1, nil
}

func anyFindingHasKey(findings []*types.Finding, key string) bool {
	for _, f := range findings {
		if _, ok := f.Keys[key]; ok {
			return true
		}
	}
	return false
}
