// Package source holds the table model shared by every workout log data source.
// A source exposes the log the way the spreadsheet stores it: a header row
// followed by rows of text cells in a fixed column order.
package source

import (
	"context"
	"errors"
)

// Column names of the workout log, in storage order.
const (
	ColumnDate         = "date"
	ColumnExerciseName = "exercise-name"
	ColumnWeight       = "weight"
	ColumnReps         = "reps"
	ColumnUnused       = ""
	ColumnOneRepMax    = "one_rep_max"
)

// Columns is the storage order of an appended row. The unnamed column between
// reps and one_rep_max is kept empty for the existing sheet layout.
var Columns = []string{
	ColumnDate,
	ColumnExerciseName,
	ColumnWeight,
	ColumnReps,
	ColumnUnused,
	ColumnOneRepMax,
}

var ErrEmptyTable = errors.New("table has no header row")

// Source is implemented by gsheets, psql and memory.
type Source interface {
	ReadAllRows(ctx context.Context) (Table, error)
	AppendRow(ctx context.Context, columns []string) error
}

// Table is the raw log: header separated from the data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// NewTable splits raw values (first row = header) into a Table.
func NewTable(values [][]string) (Table, error) {
	if len(values) == 0 {
		return Table{}, ErrEmptyTable
	}
	return Table{
		Header: values[0],
		Rows:   values[1:],
	}, nil
}

// Records maps each row onto the header. Missing trailing cells map to "",
// extra cells without a header are dropped.
func (t Table) Records() []map[string]string {
	records := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		record := make(map[string]string, len(t.Header))
		for i, name := range t.Header {
			if name == "" {
				continue
			}
			if i < len(row) {
				record[name] = row[i]
			} else {
				record[name] = ""
			}
		}
		records = append(records, record)
	}
	return records
}

// MissingColumns reports the names from want that the header lacks.
func (t Table) MissingColumns(want ...string) []string {
	present := make(map[string]bool, len(t.Header))
	for _, h := range t.Header {
		present[h] = true
	}

	var missing []string
	for _, w := range want {
		if !present[w] {
			missing = append(missing, w)
		}
	}
	return missing
}

// Len is the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}
