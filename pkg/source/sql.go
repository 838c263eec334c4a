package source

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/pkg/errors"

	"github.com/nsxbet/dq-audit/pkg/table"
)

// identifierRe restricts table names to plain identifiers since they are
// interpolated into the query text.
var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLSource loads tables from any database/sql connection with a
// SELECT * per table. Byte-slice cells are converted to strings so key
// comparison behaves the same as with the CSV source.
type SQLSource struct {
	db *sql.DB
}

// NewSQLSource creates a source over an open database connection.
func NewSQLSource(db *sql.DB) *SQLSource {
	return &SQLSource{db: db}
}

// LoadTable reads the whole named table.
func (s *SQLSource) LoadTable(ctx context.Context, name string) (*table.Table, error) {
	if !identifierRe.MatchString(name) {
		return nil, errors.Wrapf(ErrTableNotFound, "invalid table name %q", name)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s", name))
	if err != nil {
		return nil, errors.Wrapf(ErrTableNotFound, "%s: %v", name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrapf(ErrParse, "%s: %v", name, err)
	}

	t := table.New(name, cols)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrapf(ErrParse, "%s: %v", name, err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		if err := t.AppendRow(values); err != nil {
			return nil, errors.Wrapf(ErrParse, "%s: %v", name, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(ErrParse, "%s: %v", name, err)
	}
	return t, nil
}
