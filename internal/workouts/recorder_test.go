package workouts_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/2beens/liftlog/internal/telemetry/metrics"
	"github.com/2beens/liftlog/internal/workouts"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var recordTime = time.Date(2024, 5, 6, 17, 45, 12, 987654321, time.UTC)

func fixedClock() time.Time {
	return recordTime
}

func TestRecorder_RecordRoundTrip(t *testing.T) {
	src := seedSource(t, dailyRows(benchPress, 21, 100, 5)...)
	metricsManager := metrics.NewTestManager()
	repo := workouts.NewRepository(src, metricsManager)
	recorder := workouts.NewRecorder(repo, metricsManager).WithClock(fixedClock)
	ctx := context.Background()

	before, err := repo.Current(ctx)
	require.NoError(t, err)

	batch := workouts.NewDraftBatch().
		Add(workouts.Draft{ExerciseName: benchPress, Weight: 135, Reps: 5}).
		Add(workouts.Draft{ExerciseName: squat, Weight: 225, Reps: 3})

	result, err := recorder.Record(ctx, batch)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, result.BatchID)
	assert.Equal(t, uint64(1), result.Version)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, workouts.EntryRow{
		Timestamp:    "2024-05-06T17:45:12",
		Date:         "2024-05-06",
		ExerciseName: benchPress,
		Weight:       135,
		Reps:         5,
		OneRepMax:    151.89,
	}, result.Entries[0])
	assert.Equal(t, 2.0, testutil.ToFloat64(metricsManager.CounterEntriesRecorded))

	table, err := src.ReadAllRows(ctx)
	require.NoError(t, err)
	require.Equal(t, 23, table.Len())
	assert.Equal(t, []string{"2024-05-06 17:45:12", benchPress, "135", "5", "", "151.89"}, table.Rows[21])
	assert.Equal(t, []string{"2024-05-06 17:45:12", squat, "225", "3", "", "238.25"}, table.Rows[22])

	after, err := repo.Current(ctx)
	require.NoError(t, err)
	assert.Greater(t, after.Version, before.Version)
	require.Len(t, after.Entries, 23)
	assert.Equal(t, 151.89, after.Entries[21].OneRepMax)
	assert.Equal(t, recordTime.Truncate(time.Second), after.Entries[21].Timestamp)
	// squat has a single entry, below the threshold
	assert.Equal(t, map[string]int{squat: 1}, after.Hidden)
}

func TestRecorder_InvalidBatchWritesNothing(t *testing.T) {
	src := seedSource(t)
	metricsManager := metrics.NewTestManager()
	repo := workouts.NewRepository(src, metricsManager)
	recorder := workouts.NewRecorder(repo, metricsManager)

	batch := workouts.NewDraftBatch(
		workouts.Draft{ExerciseName: benchPress, Weight: 135, Reps: 5},
		workouts.Draft{ExerciseName: benchPress, Weight: 135, Reps: 0},
	)
	result, err := recorder.Record(context.Background(), batch)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, workouts.KindInvalidDraft, workouts.KindOf(err))

	table, err := src.ReadAllRows(context.Background())
	require.NoError(t, err)
	assert.Zero(t, table.Len())
	assert.Equal(t, uint64(0), repo.Version())
}

func TestRecorder_PartialFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	storeMock := NewMocksnapshotStore(ctrl)
	metricsManager := metrics.NewTestManager()
	recorder := workouts.NewRecorder(storeMock, metricsManager).WithClock(fixedClock)

	writeErr := workouts.NewError(workouts.KindWriteFailed, 1, errors.New("rate limited"))
	storeMock.EXPECT().Append(gomock.Any(), gomock.Len(3)).Return(1, writeErr)
	storeMock.EXPECT().Version().Return(uint64(4))

	batch := workouts.NewDraftBatch(
		workouts.Draft{ExerciseName: benchPress, Weight: 135, Reps: 5},
		workouts.Draft{ExerciseName: benchPress, Weight: 140, Reps: 5},
		workouts.Draft{ExerciseName: benchPress, Weight: 145, Reps: 5},
	)
	result, err := recorder.Record(context.Background(), batch)
	require.ErrorIs(t, err, writeErr)
	require.NotNil(t, result)
	require.Len(t, result.Entries, 1)
	assert.Equal(t, 135.0, result.Entries[0].Weight)
	assert.Equal(t, uint64(4), result.Version)
	assert.Equal(t, 1.0, testutil.ToFloat64(metricsManager.CounterEntriesRecorded))
}

func TestRecorder_Annotate(t *testing.T) {
	src := seedSource(t,
		sheetRow(day0, benchPress, 135, 5),
		sheetRow(day0, benchPress, 155, 1),
		sheetRow(day0, squat, 225, 5),
	)
	metricsManager := metrics.NewTestManager()
	recorder := workouts.NewRecorder(workouts.NewRepository(src, metricsManager), metricsManager)

	annotations, err := recorder.Annotate(context.Background(), workouts.NewDraftBatch(
		workouts.Draft{ExerciseName: benchPress, Weight: 160, Reps: 1},
		workouts.Draft{ExerciseName: "curl", Weight: 30, Reps: 10},
	))
	require.NoError(t, err)
	require.Len(t, annotations, 2)

	require.NotNil(t, annotations[0].BestOneRepMax)
	assert.Equal(t, 155.0, *annotations[0].BestOneRepMax)
	assert.Equal(t, 155.0, *annotations[0].MaxWeight)
	assert.Equal(t, "curl", annotations[1].ExerciseName)
	assert.Nil(t, annotations[1].BestOneRepMax)
}

func TestRecorder_AnnotateLoadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	storeMock := NewMocksnapshotStore(ctrl)
	recorder := workouts.NewRecorder(storeMock, metrics.NewTestManager())

	storeMock.EXPECT().Current(gomock.Any()).Return(nil, errors.New("sheet unavailable"))
	_, err := recorder.Annotate(context.Background(), workouts.NewDraftBatch(
		workouts.Draft{ExerciseName: benchPress, Weight: 160, Reps: 1},
	))
	require.Error(t, err)
}

func TestEncodeRow(t *testing.T) {
	result, err := workouts.Normalize(newTable(sheetRow(day0, deadlift, 302.5, 3)))
	require.NoError(t, err)
	require.Len(t, result.Entries, 1)

	row := workouts.EncodeRow(result.Entries[0])
	assert.Equal(t, []string{"2024-01-01 18:30:00", deadlift, "302.5", "3", "", "320.31"}, row)
}
