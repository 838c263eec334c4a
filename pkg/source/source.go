// Package source provides table access adapters that load named tables into
// the in-memory structure the checkers operate on.
package source

import (
	"context"
	"errors"

	"github.com/nsxbet/dq-audit/pkg/table"
)

// Sentinel error kinds. Adapters wrap these so callers can classify load
// failures with errors.Is.
var (
	// ErrTableNotFound indicates the named table does not exist in the source.
	ErrTableNotFound = errors.New("table not found")
	// ErrParse indicates the table exists but its content is malformed.
	ErrParse = errors.New("malformed table data")
)

// Source loads a named table by string identifier.
//
// Tables are loaded fresh per call; implementations must not cache across
// invocations so that each checker sees an independent read.
type Source interface {
	LoadTable(ctx context.Context, name string) (*table.Table, error)
}
