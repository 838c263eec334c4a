package checks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nsxbet/dq-audit/pkg/checker"
	"github.com/nsxbet/dq-audit/pkg/config"
	"github.com/nsxbet/dq-audit/pkg/table"
	"github.com/nsxbet/dq-audit/pkg/types"
)

func init() {
	checker.Register(types.WarningTimeCrossConsistency, &TimeConsistencyChecker{})
}

// periodCountColumn holds the distinct-period count in the low-frequency pass.
const periodCountColumn = "period_count"

// TimeConsistencyChecker runs two temporal passes per configured table pair:
// entity+period combinations present in the left table but missing from the
// right one (relational drift), and entities observed in too few distinct
// time periods in the left table (data sparsity). Both carry the
// time_cross_consistency tag: each answers whether an entity is reliably
// observed over time.
type TimeConsistencyChecker struct{}

// Check walks the configured pairs. The composite key is the shared
// product/location ID columns plus the shared _DT date columns; pairs missing
// either set are skipped. Errors on one pair never stop the others.
func (*TimeConsistencyChecker) Check(ctx context.Context, checkCtx checker.Context) ([]*types.Finding, error) {
	cfg := checkCtx.Checks.TimeCrossConsistency
	if cfg == nil || len(cfg.Pairs) == 0 {
		return nil, nil
	}

	var findings []*types.Finding
	for _, pair := range cfg.Pairs {
		pairFindings, err := checkTimePair(ctx, checkCtx, cfg, pair)
		if err != nil {
			slog.Warn("time consistency check: pair skipped",
				"left", pair.Left, "right", pair.Right, "error", err)
			continue
		}
		findings = append(findings, pairFindings...)
	}
	return findings, nil
}

func checkTimePair(ctx context.Context, checkCtx checker.Context, cfg *config.TimeCrossConsistencyConfig, pair config.TablePair) ([]*types.Finding, error) {
	left, err := checkCtx.Source.LoadTable(ctx, pair.Left)
	if err != nil {
		return nil, err
	}
	right, err := checkCtx.Source.LoadTable(ctx, pair.Right)
	if err != nil {
		return nil, err
	}

	common := left.CommonColumns(right)
	idCols := entityIDColumns(common)
	dateCols := dateColumns(common)
	if len(idCols) == 0 || len(dateCols) == 0 {
		return nil, nil
	}

	findings, err := missingCombinations(left, right, idCols, dateCols, cfg, pair)
	if err != nil {
		return nil, err
	}

	sparse, err := infrequentEntities(left, idCols, dateCols[0], cfg, pair)
	if err != nil {
		return nil, err
	}
	return append(findings, sparse...), nil
}

// missingCombinations finds entity+period keys present in left but absent
// from right. Findings are emitted only when the missing share of left's
// unique keys strictly exceeds the percentage threshold.
func missingCombinations(left, right *table.Table, idCols, dateCols []string, cfg *config.TimeCrossConsistencyConfig, pair config.TablePair) ([]*types.Finding, error) {
	keyCols := append(append([]string(nil), idCols...), dateCols...)

	leftKeys, err := left.Project(keyCols)
	if err != nil {
		return nil, err
	}
	rightKeys, err := right.Project(keyCols)
	if err != nil {
		return nil, err
	}
	uniqueLeft := leftKeys.DropDuplicates()

	missing, err := uniqueLeft.AntiJoin(rightKeys.DropDuplicates(), keyCols)
	if err != nil {
		return nil, err
	}
	if missing.NumRows() == 0 {
		return nil, nil
	}

	missingPct := 0.0
	if uniqueLeft.NumRows() > 0 {
		missingPct = float64(missing.NumRows()) / float64(uniqueLeft.NumRows()) * 100
	}
	if missingPct <= cfg.MissingPctThreshold {
		return nil, nil
	}

	warning := fmt.Sprintf("%d records (%.1f%%) from %s missing in %s",
		missing.NumRows(), missingPct, pair.Left, pair.Right)
	threshold := cfg.MissingPctThreshold

	var findings []*types.Finding
	for i := 0; i < missing.NumRows(); i++ {
		findings = append(findings, &types.Finding{
			InputTable:  fmt.Sprintf("%s && %s", pair.Left, pair.Right),
			InputValue:  &threshold,
			WarningType: types.WarningTimeCrossConsistency,
			Warning:     warning,
			Keys:        rowKeys(missing, i, keyCols),
		})
	}
	return findings, nil
}

// infrequentEntities flags entities whose distinct count of the first date
// column is at or below the period-count threshold. Runs regardless of the
// missing-combination outcome.
func infrequentEntities(left *table.Table, idCols []string, dateCol string, cfg *config.TimeCrossConsistencyConfig, pair config.TablePair) ([]*types.Finding, error) {
	counts, err := left.GroupCountDistinct(idCols, dateCol, periodCountColumn)
	if err != nil {
		return nil, err
	}

	warning := fmt.Sprintf("ID appears in %d or fewer time periods in %s",
		cfg.MinPeriodCount, pair.Left)
	threshold := float64(cfg.MinPeriodCount)

	var findings []*types.Finding
	for i := 0; i < counts.NumRows(); i++ {
		v, _ := counts.Value(i, periodCountColumn)
		periods, ok := v.(int)
		if !ok || periods > cfg.MinPeriodCount {
			continue
		}
		findings = append(findings, &types.Finding{
			InputTable:  pair.Left,
			InputValue:  &threshold,
			WarningType: types.WarningTimeCrossConsistency,
			Warning:     warning,
			Keys:        rowKeys(counts, i, idCols),
		})
	}
	return findings, nil
}
