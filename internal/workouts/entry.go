package workouts

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
)

// MinEntriesPerExercise is the history an exercise needs before it shows up in
// any chart. Exercises with this many entries or fewer are hidden, not deleted.
const MinEntriesPerExercise = 20

const (
	oneRepMaxIntercept = 1.0278
	oneRepMaxSlope     = 0.0278

	dateLayout      = "2006-01-02"
	isoLayout       = "2006-01-02T15:04:05"
	sheetTimeLayout = "2006-01-02 15:04:05"
)

// Entry is one logged set. OneRepMax is always derived from Weight and Reps.
type Entry struct {
	Timestamp    time.Time
	RawTimestamp string
	Date         time.Time
	ExerciseName string
	Weight       float64
	Reps         int
	OneRepMax    float64
}

// OneRepMax estimates the one rep max as weight / (1.0278 - 0.0278*reps),
// rounded to 2 decimals. Undefined once the denominator reaches zero (reps >= 37).
func OneRepMax(weight float64, reps int) (float64, error) {
	denominator := oneRepMaxIntercept - oneRepMaxSlope*float64(reps)
	if denominator <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrDegenerateReps, reps)
	}

	oneRepMax := weight / denominator
	if math.IsNaN(oneRepMax) || math.IsInf(oneRepMax, 0) {
		return 0, fmt.Errorf("%w: %d", ErrDegenerateReps, reps)
	}

	return round2(oneRepMax), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func newEntry(ts time.Time, exerciseName string, weight float64, reps int) (Entry, error) {
	oneRepMax, err := OneRepMax(weight, reps)
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		Timestamp:    ts,
		RawTimestamp: ts.Format(isoLayout),
		Date:         civilDate(ts),
		ExerciseName: exerciseName,
		Weight:       weight,
		Reps:         reps,
		OneRepMax:    oneRepMax,
	}, nil
}

// civilDate drops the time of day, keeping the calendar date the set was logged on.
func civilDate(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

// Metric selects the value charted in the progress view.
type Metric string

const (
	MetricWeight    Metric = "weight"
	MetricOneRepMax Metric = "one_rep_max"
)

func ParseMetric(s string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(s))) {
	case MetricWeight:
		return MetricWeight, nil
	case MetricOneRepMax, "":
		return MetricOneRepMax, nil
	default:
		return "", fmt.Errorf("unknown metric: %s", s)
	}
}

func (m Metric) Value(e Entry) float64 {
	if m == MetricWeight {
		return e.Weight
	}
	return e.OneRepMax
}

// Label is the axis title, e.g. "One Rep Max (lbs)".
func (m Metric) Label() string {
	return DisplayName(string(m)) + " (lbs)"
}

// DisplayName turns snake_case identifiers into title case: every letter that
// follows a non-letter is upper cased, the rest lower cased.
func DisplayName(s string) string {
	s = strings.ReplaceAll(s, "_", " ")

	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		prevLetter = false
		b.WriteRune(r)
	}
	return b.String()
}
