// Package checker provides the registry the data-quality checks plug into.
//
// Checks register themselves by warning type in an init function and are
// looked up by the auditor at run time. A check returns its own findings;
// aggregation happens in the caller, so checks never share mutable state.
package checker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pkg/errors"

	"github.com/nsxbet/dq-audit/pkg/config"
	"github.com/nsxbet/dq-audit/pkg/source"
	"github.com/nsxbet/dq-audit/pkg/types"
)

// Context carries everything a check needs for one run.
type Context struct {
	// Source loads named tables. Each check loads fresh, never from a cache.
	Source source.Source
	// Checks is the per-check configuration; a check reads only its own section.
	Checks config.ChecksConfig
}

// Checker is one data-quality check.
//
// A checker tolerates partial failure: a load or computation error for one
// unit of work (one table, one table pair) is logged and skipped, and the
// remaining units still run. The returned error is reserved for failures
// that invalidate the whole check.
type Checker interface {
	Check(ctx context.Context, checkCtx Context) ([]*types.Finding, error)
}

var (
	checkerMu sync.RWMutex
	checkers  = make(map[types.WarningType]Checker)
)

// Register makes a checker available under the given warning type.
// It panics if the checker is nil or the type is already taken.
func Register(warningType types.WarningType, c Checker) {
	checkerMu.Lock()
	defer checkerMu.Unlock()
	if c == nil {
		panic("checker: Register checker is nil")
	}
	if _, dup := checkers[warningType]; dup {
		panic(fmt.Sprintf("checker: Register called twice for %v", warningType))
	}
	checkers[warningType] = c
}

// Run executes the checker registered under warningType. A panic inside a
// checker is recovered and returned as an error so one misbehaving check
// cannot abort the run.
func Run(ctx context.Context, warningType types.WarningType, checkCtx Context) (findings []*types.Finding, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			err = errors.Errorf("checker %v panicked: %v", warningType, panicErr)
			slog.Error("checker panic recovered", "type", warningType, "error", panicErr)
		}
	}()

	checkerMu.RLock()
	c, ok := checkers[warningType]
	checkerMu.RUnlock()
	if !ok {
		return nil, errors.Errorf("checker: no checker registered for %v", warningType)
	}

	return c.Check(ctx, checkCtx)
}
