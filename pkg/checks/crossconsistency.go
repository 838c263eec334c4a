package checks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nsxbet/dq-audit/pkg/checker"
	"github.com/nsxbet/dq-audit/pkg/types"
)

func init() {
	checker.Register(types.WarningCrossConsistency, &CrossConsistencyChecker{})
}

// CrossConsistencyChecker flags key tuples present in one table but absent
// from another, over all ordered pairs of the configured table set.
// Directionality matters: A-missing-from-B and B-missing-from-A are distinct
// findings.
type CrossConsistencyChecker struct{}

// Check walks every ordered (left, right) pair. The composite key is the set
// of columns common to both tables whose name contains "ID"; pairs with no
// shared ID columns are skipped. Errors on one pair never stop the others.
func (*CrossConsistencyChecker) Check(ctx context.Context, checkCtx checker.Context) ([]*types.Finding, error) {
	cfg := checkCtx.Checks.CrossConsistency
	if cfg == nil || len(cfg.Tables) < 2 {
		return nil, nil
	}

	var findings []*types.Finding
	for _, leftName := range cfg.Tables {
		for _, rightName := range cfg.Tables {
			if leftName == rightName {
				continue
			}
			pairFindings, err := checkPair(ctx, checkCtx, leftName, rightName)
			if err != nil {
				slog.Warn("cross consistency check: pair skipped",
					"left", leftName, "right", rightName, "error", err)
				continue
			}
			findings = append(findings, pairFindings...)
		}
	}
	return findings, nil
}

func checkPair(ctx context.Context, checkCtx checker.Context, leftName, rightName string) ([]*types.Finding, error) {
	left, err := checkCtx.Source.LoadTable(ctx, leftName)
	if err != nil {
		return nil, err
	}
	right, err := checkCtx.Source.LoadTable(ctx, rightName)
	if err != nil {
		return nil, err
	}

	keyCols := idColumns(left.CommonColumns(right))
	if len(keyCols) == 0 {
		return nil, nil
	}

	leftKeys, err := left.Project(keyCols)
	if err != nil {
		return nil, err
	}
	rightKeys, err := right.Project(keyCols)
	if err != nil {
		return nil, err
	}

	orphaned, err := leftKeys.DropDuplicates().AntiJoin(rightKeys.DropDuplicates(), keyCols)
	if err != nil {
		return nil, err
	}

	warning := fmt.Sprintf("IDs from %s not found in %s", leftName, rightName)
	inputTable := fmt.Sprintf("%s && %s", leftName, rightName)

	var findings []*types.Finding
	for i := 0; i < orphaned.NumRows(); i++ {
		findings = append(findings, &types.Finding{
			InputTable:  inputTable,
			WarningType: types.WarningCrossConsistency,
			Warning:     warning,
			Keys:        rowKeys(orphaned, i, keyCols),
		})
	}
	return findings, nil
}
