package workouts

import (
	"errors"
	"fmt"
)

// ErrKind classifies the failures of loading, normalizing and recording the log.
type ErrKind int

const (
	KindUnknown ErrKind = iota
	// KindCredentials - missing or invalid service credentials, fatal at startup
	KindCredentials
	// KindMalformedRow - unparseable cell, the row is skipped and counted
	KindMalformedRow
	// KindDegenerateReps - one rep max undefined for the reps, the row is skipped and counted
	KindDegenerateReps
	// KindWriteFailed - appending to the data source failed, remaining rows are not written
	KindWriteFailed
	// KindSchema - the data source table lacks a required column
	KindSchema
	// KindInvalidDraft - a draft row was rejected before anything was written
	KindInvalidDraft
)

var kindNames = map[ErrKind]string{
	KindUnknown:        "unknown",
	KindCredentials:    "credentials",
	KindMalformedRow:   "malformed_row",
	KindDegenerateReps: "degenerate_reps",
	KindWriteFailed:    "write_failed",
	KindSchema:         "schema",
	KindInvalidDraft:   "invalid_draft",
}

func (k ErrKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k ErrKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ErrKind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown error kind: %s", text)
}

var (
	ErrMalformedRow   = errors.New("malformed row")
	ErrDegenerateReps = errors.New("one rep max undefined for reps")
	ErrMissingColumns = errors.New("missing columns")
	ErrInvalidDraft   = errors.New("invalid draft")
	ErrEmptyBatch     = errors.New("draft batch is empty")
)

// Error carries the kind and, for row level failures, the row index.
// Row is -1 when the failure is not tied to a row.
type Error struct {
	Kind ErrKind
	Row  int
	Err  error
}

func NewError(kind ErrKind, row int, err error) *Error {
	return &Error{
		Kind: kind,
		Row:  row,
		Err:  err,
	}
}

func (e *Error) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("%s [row %d]: %s", e.Kind, e.Row, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrKind {
	var wErr *Error
	if errors.As(err, &wErr) {
		return wErr.Kind
	}
	return KindUnknown
}
