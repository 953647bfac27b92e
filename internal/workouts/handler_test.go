package workouts_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/2beens/liftlog/internal/telemetry/metrics"
	"github.com/2beens/liftlog/internal/workouts"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var tracked = []string{deadlift, squat, benchPress}

type handlerFixture struct {
	handler  *workouts.Handler
	repo     *workouts.Repository
	recorder *MockentriesRecorder
}

func newHandlerFixture(t *testing.T, rows ...[]string) handlerFixture {
	t.Helper()
	metricsManager := metrics.NewTestManager()
	repo := workouts.NewRepository(seedSource(t, rows...), metricsManager)
	recorderMock := NewMockentriesRecorder(gomock.NewController(t))
	return handlerFixture{
		handler:  workouts.NewHandler(repo, recorderMock, workouts.NewViewCache(1, metricsManager), tracked),
		repo:     repo,
		recorder: recorderMock,
	}
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHandler_HandleEntries(t *testing.T) {
	f := newHandlerFixture(t, concat(
		dailyRows(squat, 21, 225, 5),
		dailyRows(benchPress, 3, 135, 5),
		[][]string{{"garbage", squat, "1", "1"}},
	)...)

	rr := httptest.NewRecorder()
	f.handler.HandleEntries(rr, httptest.NewRequest(http.MethodGet, "/workouts/entries", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp workouts.EntriesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 21, resp.Total)
	assert.Len(t, resp.Entries, 21)
	assert.Equal(t, 1, resp.Malformed)
	assert.Equal(t, map[string]int{benchPress: 3}, resp.Hidden)
	require.Len(t, resp.Rejects, 1)
	assert.Equal(t, 24, resp.Rejects[0].Row)

	rr = httptest.NewRecorder()
	f.handler.HandleEntries(rr, httptest.NewRequest(http.MethodGet, "/workouts/entries?all=true", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 24, resp.Total)
}

func TestHandler_HandleExercises(t *testing.T) {
	f := newHandlerFixture(t, concat(
		dailyRows(squat, 21, 225, 5),
		dailyRows("lateral_raise", 2, 15, 12),
	)...)

	rr := httptest.NewRecorder()
	f.handler.HandleExercises(rr, httptest.NewRequest(http.MethodGet, "/workouts/exercises", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp workouts.ExercisesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, []workouts.ExerciseInfo{
		{Name: "lateral_raise", Label: "Lateral Raise", Count: 2, Visible: false, Tracked: false},
		{Name: squat, Label: "Squat (Barbell)", Count: 21, Visible: true, Tracked: true},
	}, resp.Exercises)
}

func TestHandler_HandleProgress(t *testing.T) {
	f := newHandlerFixture(t, concat(
		dailyRows(squat, 21, 225, 5),
		dailyRows(benchPress, 21, 135, 5),
		dailyRows("curl", 21, 30, 10),
	)...)

	rr := httptest.NewRecorder()
	f.handler.HandleProgress(rr, httptest.NewRequest(http.MethodGet, "/workouts/progress", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp workouts.ProgressResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, workouts.MetricOneRepMax, resp.Metric)
	assert.Equal(t, "One Rep Max (lbs)", resp.Label)
	assert.Equal(t, []string{benchPress, deadlift, squat}, resp.Exercises)
	// curl is not tracked, deadlift has no entries
	assert.Len(t, resp.Points, 42)
	assert.Equal(t, workouts.ProgressPoint{Date: "2024-01-01", ExerciseName: benchPress, Value: 151.89}, resp.Points[0])

	q := url.Values{"metric": {"weight"}, "exercise": {"curl"}}
	rr = httptest.NewRecorder()
	f.handler.HandleProgress(rr, httptest.NewRequest(http.MethodGet, "/workouts/progress?"+q.Encode(), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Points, 21)
	assert.Equal(t, 30.0, resp.Points[0].Value)

	rr = httptest.NewRecorder()
	f.handler.HandleProgress(rr, httptest.NewRequest(http.MethodGet, "/workouts/progress?metric=volume", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_HandleHeatmap(t *testing.T) {
	f := newHandlerFixture(t, dailyRows(squat, 21, 225, 5)...)

	rr := httptest.NewRecorder()
	f.handler.HandleHeatmap(rr, httptest.NewRequest(http.MethodGet, "/workouts/heatmap", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var heatmap workouts.Heatmap
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &heatmap))
	assert.Equal(t, []string{"1-24", "2-24", "3-24"}, heatmap.Weeks)
	assert.Len(t, heatmap.Cells, 21)
	assert.Equal(t, workouts.HeatmapCell{Week: "1-24", Day: "Monday", Reps: 5}, heatmap.Cells[0])
}

func TestHandler_HandlePreviousBests(t *testing.T) {
	f := newHandlerFixture(t, sheetRow(day0, benchPress, 135, 5))
	rr := httptest.NewRecorder()
	f.handler.HandlePreviousBests(rr, httptest.NewRequest(http.MethodGet, "/workouts/previous?exercise="+url.QueryEscape(benchPress), nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var bests workouts.PreviousBests
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &bests))
	require.NotNil(t, bests.BestOneRepMax)
	assert.Equal(t, 151.89, *bests.BestOneRepMax)

	rr = httptest.NewRecorder()
	f.handler.HandlePreviousBests(rr, httptest.NewRequest(http.MethodGet, "/workouts/previous", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_HandlePreviousBests_SlashInName(t *testing.T) {
	const pushPull = "Push/Pull (Cable)"
	f := newHandlerFixture(t, sheetRow(day0, pushPull, 50, 10))
	r := mux.NewRouter()
	r.HandleFunc("/workouts/previous", f.handler.HandlePreviousBests).Methods("GET")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/workouts/previous?exercise="+url.QueryEscape(pushPull), nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var bests workouts.PreviousBests
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &bests))
	require.NotNil(t, bests.MaxWeight)
	assert.Equal(t, 50.0, *bests.MaxWeight)
}

func TestHandler_HandleRecord(t *testing.T) {
	f := newHandlerFixture(t)
	batch := workouts.NewDraftBatch(workouts.Draft{ExerciseName: squat, Weight: 225, Reps: 5})

	f.recorder.EXPECT().Record(gomock.Any(), batch).Return(&workouts.RecordResult{
		Entries: []workouts.EntryRow{{ExerciseName: squat, Weight: 225, Reps: 5, OneRepMax: 253.15}},
		Version: 1,
	}, nil)

	rr := httptest.NewRecorder()
	f.handler.HandleRecord(rr, jsonRequest(t, http.MethodPost, "/workouts/record", batch))
	require.Equal(t, http.StatusCreated, rr.Code)

	var result workouts.RecordResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, uint64(1), result.Version)
	require.Len(t, result.Entries, 1)
}

func TestHandler_HandleRecord_Errors(t *testing.T) {
	f := newHandlerFixture(t)
	batch := workouts.NewDraftBatch(
		workouts.Draft{ExerciseName: squat, Weight: 225, Reps: 5},
		workouts.Draft{ExerciseName: squat, Weight: 225, Reps: 5},
	)

	// wrong content type
	rr := httptest.NewRecorder()
	f.handler.HandleRecord(rr, httptest.NewRequest(http.MethodPost, "/workouts/record", bytes.NewBufferString("{}")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// invalid draft
	f.recorder.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil,
		workouts.NewError(workouts.KindInvalidDraft, 1, workouts.ErrInvalidDraft))
	rr = httptest.NewRecorder()
	f.handler.HandleRecord(rr, jsonRequest(t, http.MethodPost, "/workouts/record", batch))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var errResp workouts.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
	require.NotNil(t, errResp.Row)
	assert.Equal(t, 1, *errResp.Row)
	assert.Nil(t, errResp.Recorded)

	// partial write
	f.recorder.EXPECT().Record(gomock.Any(), gomock.Any()).Return(
		&workouts.RecordResult{Entries: []workouts.EntryRow{{ExerciseName: squat}}, Version: 3},
		workouts.NewError(workouts.KindWriteFailed, 1, errors.New("quota")),
	)
	rr = httptest.NewRecorder()
	f.handler.HandleRecord(rr, jsonRequest(t, http.MethodPost, "/workouts/record", batch))
	require.Equal(t, http.StatusInternalServerError, rr.Code)

	errResp = workouts.ErrorResponse{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
	assert.Equal(t, "quota", errResp.Error)
	require.NotNil(t, errResp.Recorded)
	assert.Len(t, errResp.Recorded.Entries, 1)
}

func TestHandler_HandleAnnotate(t *testing.T) {
	f := newHandlerFixture(t)
	batch := workouts.NewDraftBatch(workouts.Draft{ExerciseName: squat, Weight: 225, Reps: 5})
	best := 250.0

	f.recorder.EXPECT().Annotate(gomock.Any(), batch).Return([]workouts.PreviousBests{
		{ExerciseName: squat, BestOneRepMax: &best, MaxWeight: &best},
	}, nil)

	rr := httptest.NewRecorder()
	f.handler.HandleAnnotate(rr, jsonRequest(t, http.MethodPost, "/workouts/drafts/annotate", batch))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp workouts.AnnotateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Annotations, 1)
	assert.Equal(t, 250.0, *resp.Annotations[0].BestOneRepMax)
}

func TestHandler_HandleRefresh(t *testing.T) {
	f := newHandlerFixture(t, sheetRow(day0, squat, 225, 5))

	rr := httptest.NewRecorder()
	f.handler.HandleRefresh(rr, httptest.NewRequest(http.MethodPost, "/workouts/refresh", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"version":1}`, rr.Body.String())
	assert.Equal(t, uint64(1), f.repo.Version())
}

func TestHandler_SnapshotLoadFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	readerMock := NewMocksnapshotReader(ctrl)
	metricsManager := metrics.NewTestManager()
	handler := workouts.NewHandler(readerMock, NewMockentriesRecorder(ctrl), workouts.NewViewCache(1, metricsManager), tracked)

	readerMock.EXPECT().Current(gomock.Any()).Return(nil, errors.New("sheet unavailable")).Times(2)

	rr := httptest.NewRecorder()
	handler.HandleHeatmap(rr, httptest.NewRequest(http.MethodGet, "/workouts/heatmap", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	rr = httptest.NewRecorder()
	handler.HandleEntries(rr, httptest.NewRequest(http.MethodGet, "/workouts/entries", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
