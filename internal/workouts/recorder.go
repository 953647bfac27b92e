package workouts

import (
	"context"
	"strconv"
	"time"

	"github.com/2beens/liftlog/internal/telemetry/metrics"
	"github.com/2beens/liftlog/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=recorder_mocks_test.go -package=workouts_test

type snapshotStore interface {
	Current(ctx context.Context) (*Snapshot, error)
	Append(ctx context.Context, rows [][]string) (int, error)
	Version() uint64
}

type RecordResult struct {
	BatchID uuid.UUID `json:"batchId"`
	// Entries are the rows actually written; on a partial failure, only the prefix.
	Entries []EntryRow `json:"entries"`
	Version uint64     `json:"version"`
}

type Recorder struct {
	store          snapshotStore
	metricsManager *metrics.Manager
	now            func() time.Time
}

func NewRecorder(store snapshotStore, metricsManager *metrics.Manager) *Recorder {
	return &Recorder{
		store:          store,
		metricsManager: metricsManager,
		now:            time.Now,
	}
}

// WithClock replaces the timestamp source, mostly for tests.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// Record validates the whole batch, then appends its rows in order. Nothing is
// written when any row is invalid. On a write failure the rows before the
// failing one stay written and are returned together with the error.
func (r *Recorder) Record(ctx context.Context, batch DraftBatch) (_ *RecordResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "recorder.workouts.record")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := batch.Validate(); err != nil {
		return nil, err
	}

	batchID := uuid.New()
	span.SetAttributes(
		attribute.String("batch_id", batchID.String()),
		attribute.Int("rows", batch.Len()),
	)

	drafts := batch.Rows()
	entries := make([]Entry, 0, len(drafts))
	rows := make([][]string, 0, len(drafts))
	for _, d := range drafts {
		// already validated, the one rep max is defined
		entry, err := newEntry(r.now().UTC().Truncate(time.Second), d.ExerciseName, d.Weight, d.Reps)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
		rows = append(rows, EncodeRow(entry))
	}

	appended, err := r.store.Append(ctx, rows)
	r.metricsManager.CounterEntriesRecorded.Add(float64(appended))

	result := &RecordResult{
		BatchID: batchID,
		Entries: EntryRows(entries[:appended]),
		Version: r.store.Version(),
	}
	if err != nil {
		log.Errorf("record batch %s: %d of %d rows written: %s", batchID, appended, len(rows), err)
		return result, err
	}

	log.Debugf("record batch %s: %d rows written", batchID, appended)
	return result, nil
}

// Annotate looks up the previous bests for every draft row, in row order.
// The lookup goes over all entries, including exercises hidden from the charts.
func (r *Recorder) Annotate(ctx context.Context, batch DraftBatch) (_ []PreviousBests, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "recorder.workouts.annotate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	snapshot, err := r.store.Current(ctx)
	if err != nil {
		return nil, err
	}

	drafts := batch.Rows()
	annotations := make([]PreviousBests, 0, len(drafts))
	for _, d := range drafts {
		annotations = append(annotations, LookupPreviousBests(snapshot.Entries, d.ExerciseName))
	}
	return annotations, nil
}

// EncodeRow renders an entry in storage column order:
// date, exercise-name, weight, reps, (empty), one_rep_max.
func EncodeRow(e Entry) []string {
	return []string{
		e.Timestamp.Format(sheetTimeLayout),
		e.ExerciseName,
		strconv.FormatFloat(e.Weight, 'f', -1, 64),
		strconv.Itoa(e.Reps),
		"",
		strconv.FormatFloat(e.OneRepMax, 'f', 2, 64),
	}
}

// EntryRow is the table form of an entry, as served to clients.
type EntryRow struct {
	Timestamp    string  `json:"timestamp"`
	Date         string  `json:"date"`
	ExerciseName string  `json:"exerciseName"`
	Weight       float64 `json:"weight"`
	Reps         int     `json:"reps"`
	OneRepMax    float64 `json:"oneRepMax"`
}

func EntryRows(entries []Entry) []EntryRow {
	rows := make([]EntryRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, EntryRow{
			Timestamp:    e.RawTimestamp,
			Date:         e.Date.Format(dateLayout),
			ExerciseName: e.ExerciseName,
			Weight:       e.Weight,
			Reps:         e.Reps,
			OneRepMax:    e.OneRepMax,
		})
	}
	return rows
}
