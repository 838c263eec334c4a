package source

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/nsxbet/dq-audit/pkg/table"
)

// CSVSource loads tables from a directory of <NAME>.csv files with a header
// row. All cell values are kept as strings; numeric interpretation happens
// at the point of comparison.
type CSVSource struct {
	dir string
}

// NewCSVSource creates a source rooted at dir.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

// LoadTable reads dir/<name>.csv into a table.
func (s *CSVSource) LoadTable(ctx context.Context, name string) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, name+".csv")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrTableNotFound, "%s", path)
		}
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(ErrParse, "%s: %v", path, err)
	}
	if len(records) == 0 {
		return nil, errors.Wrapf(ErrParse, "%s: missing header row", path)
	}

	t := table.New(name, records[0])
	for _, record := range records[1:] {
		values := make([]any, len(record))
		for i, cell := range record {
			values[i] = cell
		}
		if err := t.AppendRow(values); err != nil {
			return nil, errors.Wrapf(ErrParse, "%s: %v", path, err)
		}
	}
	return t, nil
}
