package workouts

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/liftlog/internal/source"
)

// timestampLayouts are tried in order. Go's parser accepts fractional seconds
// after the seconds field even when the layout does not name them.
var timestampLayouts = []string{
	time.RFC3339Nano,
	isoLayout,
	sheetTimeLayout,
	dateLayout,
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
}

var requiredColumns = []string{
	source.ColumnDate,
	source.ColumnExerciseName,
	source.ColumnWeight,
	source.ColumnReps,
}

// RowError describes a skipped row. Row is the 0-based index into the data rows
// (the sheet row number is Row+2, the header being row 1).
type RowError struct {
	Row    int     `json:"row"`
	Kind   ErrKind `json:"kind"`
	Reason string  `json:"reason"`
}

type NormalizeResult struct {
	// Entries holds every valid row, in table order.
	Entries []Entry
	// Visible holds the entries of exercises with more than MinEntriesPerExercise entries.
	Visible []Entry
	// Hidden maps the exercises below the threshold to their entry count.
	Hidden map[string]int

	Malformed  int
	Degenerate int
	Rejects    []RowError
}

// Normalize converts raw rows into entries. Bad rows never abort the load: they
// are skipped, counted and reported in Rejects. Only a missing column fails.
func Normalize(table source.Table) (*NormalizeResult, error) {
	if missing := table.MissingColumns(requiredColumns...); len(missing) > 0 {
		return nil, NewError(
			KindSchema, -1,
			fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", ")),
		)
	}

	result := &NormalizeResult{
		Entries: make([]Entry, 0, table.Len()),
		Hidden:  map[string]int{},
	}

	for i, record := range table.Records() {
		entry, kind, err := normalizeRecord(record)
		if err != nil {
			switch kind {
			case KindDegenerateReps:
				result.Degenerate++
			default:
				result.Malformed++
			}
			result.Rejects = append(result.Rejects, RowError{
				Row:    i,
				Kind:   kind,
				Reason: err.Error(),
			})
			continue
		}
		result.Entries = append(result.Entries, entry)
	}

	counts := map[string]int{}
	for _, e := range result.Entries {
		counts[e.ExerciseName]++
	}

	result.Visible = make([]Entry, 0, len(result.Entries))
	for _, e := range result.Entries {
		if counts[e.ExerciseName] > MinEntriesPerExercise {
			result.Visible = append(result.Visible, e)
		}
	}
	for name, count := range counts {
		if count <= MinEntriesPerExercise {
			result.Hidden[name] = count
		}
	}

	return result, nil
}

func normalizeRecord(record map[string]string) (Entry, ErrKind, error) {
	ts, err := ParseTimestamp(record[source.ColumnDate])
	if err != nil {
		return Entry{}, KindMalformedRow, err
	}

	exerciseName := strings.TrimSpace(record[source.ColumnExerciseName])
	if exerciseName == "" {
		return Entry{}, KindMalformedRow, fmt.Errorf("%w: empty exercise name", ErrMalformedRow)
	}

	weight, err := parseWeight(record[source.ColumnWeight])
	if err != nil {
		return Entry{}, KindMalformedRow, err
	}

	reps, err := parseReps(record[source.ColumnReps])
	if err != nil {
		return Entry{}, KindMalformedRow, err
	}

	entry, err := newEntry(ts, exerciseName, weight, reps)
	if err != nil {
		return Entry{}, KindDegenerateReps, err
	}

	return entry, KindUnknown, nil
}

func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", ErrMalformedRow)
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable date %q", ErrMalformedRow, raw)
}

func parseWeight(raw string) (float64, error) {
	weight, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: weight %q", ErrMalformedRow, raw)
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
		return 0, fmt.Errorf("%w: weight %q out of range", ErrMalformedRow, raw)
	}
	return weight, nil
}

// parseReps accepts positive integers and integral floats ("5.0"), the way a
// sheet sometimes formats a whole number.
func parseReps(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	reps, err := strconv.Atoi(raw)
	if err != nil {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return 0, fmt.Errorf("%w: reps %q", ErrMalformedRow, raw)
		}
		if f < 1 || f > math.MaxInt32 {
			return 0, fmt.Errorf("%w: reps %q out of range", ErrMalformedRow, raw)
		}
		return int(f), nil
	}
	if reps < 1 {
		return 0, fmt.Errorf("%w: reps %q out of range", ErrMalformedRow, raw)
	}
	return reps, nil
}
