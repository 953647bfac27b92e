package workouts

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Draft is a set typed in by the user but not yet recorded.
type Draft struct {
	ExerciseName string  `json:"exerciseName"`
	Weight       float64 `json:"weight"`
	Reps         int     `json:"reps"`
}

func (d Draft) Validate() error {
	if strings.TrimSpace(d.ExerciseName) == "" {
		return fmt.Errorf("%w: exercise name is empty", ErrInvalidDraft)
	}
	if math.IsNaN(d.Weight) || math.IsInf(d.Weight, 0) || d.Weight < 0 {
		return fmt.Errorf("%w: weight must be a finite, non negative number", ErrInvalidDraft)
	}
	if d.Reps < 1 {
		return fmt.Errorf("%w: reps must be at least 1", ErrInvalidDraft)
	}
	if _, err := OneRepMax(d.Weight, d.Reps); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDraft, err)
	}
	return nil
}

// DraftBatch is an ordered, immutable list of drafts. Every edit returns a new
// batch, so a batch handed to the recorder cannot change under it.
type DraftBatch struct {
	rows []Draft
}

func NewDraftBatch(rows ...Draft) DraftBatch {
	return DraftBatch{rows: append([]Draft(nil), rows...)}
}

func (b DraftBatch) Add(d Draft) DraftBatch {
	rows := make([]Draft, 0, len(b.rows)+1)
	rows = append(rows, b.rows...)
	return DraftBatch{rows: append(rows, d)}
}

func (b DraftBatch) Set(i int, d Draft) (DraftBatch, error) {
	if err := b.checkIndex(i); err != nil {
		return b, err
	}
	rows := b.Rows()
	rows[i] = d
	return DraftBatch{rows: rows}, nil
}

func (b DraftBatch) Remove(i int) (DraftBatch, error) {
	if err := b.checkIndex(i); err != nil {
		return b, err
	}
	rows := make([]Draft, 0, len(b.rows)-1)
	rows = append(rows, b.rows[:i]...)
	rows = append(rows, b.rows[i+1:]...)
	return DraftBatch{rows: rows}, nil
}

func (b DraftBatch) checkIndex(i int) error {
	if i < 0 || i >= len(b.rows) {
		return fmt.Errorf("draft index %d out of range [0, %d)", i, len(b.rows))
	}
	return nil
}

// Rows returns a copy of the drafts.
func (b DraftBatch) Rows() []Draft {
	return append([]Draft(nil), b.rows...)
}

func (b DraftBatch) Len() int {
	return len(b.rows)
}

// Validate reports the first invalid row as a KindInvalidDraft *Error.
func (b DraftBatch) Validate() error {
	if len(b.rows) == 0 {
		return NewError(KindInvalidDraft, -1, ErrEmptyBatch)
	}
	for i, d := range b.rows {
		if err := d.Validate(); err != nil {
			return NewError(KindInvalidDraft, i, err)
		}
	}
	return nil
}

type draftBatchJSON struct {
	Rows []Draft `json:"rows"`
}

func (b DraftBatch) MarshalJSON() ([]byte, error) {
	rows := b.rows
	if rows == nil {
		rows = []Draft{}
	}
	return json.Marshal(draftBatchJSON{Rows: rows})
}

func (b *DraftBatch) UnmarshalJSON(data []byte) error {
	var raw draftBatchJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Join(ErrInvalidDraft, err)
	}
	b.rows = raw.Rows
	return nil
}
