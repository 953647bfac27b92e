package memory

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sync"

	"github.com/2beens/liftlog/internal/source"
)

// Source keeps the workout log in process memory. Used in development and tests.
type Source struct {
	mu     sync.RWMutex
	header []string
	rows   [][]string
}

func NewSource() *Source {
	return &Source{
		header: append([]string(nil), source.Columns...),
	}
}

// NewSourceFromCSV seeds the source from a CSV export of the sheet (first line = header).
func NewSourceFromCSV(r io.Reader) (*Source, error) {
	csvReader := csv.NewReader(r)
	// exports from the sheet have ragged rows
	csvReader.FieldsPerRecord = -1

	values, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	table, err := source.NewTable(values)
	if err != nil {
		return nil, err
	}

	return &Source{
		header: table.Header,
		rows:   table.Rows,
	}, nil
}

func (s *Source) ReadAllRows(_ context.Context) (source.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([][]string, len(s.rows))
	for i, r := range s.rows {
		rows[i] = append([]string(nil), r...)
	}

	return source.Table{
		Header: append([]string(nil), s.header...),
		Rows:   rows,
	}, nil
}

func (s *Source) AppendRow(ctx context.Context, columns []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = append(s.rows, append([]string(nil), columns...))
	return nil
}
