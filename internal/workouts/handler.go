package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=workouts_test

type snapshotReader interface {
	Current(ctx context.Context) (*Snapshot, error)
	Invalidate()
}

type entriesRecorder interface {
	Record(ctx context.Context, batch DraftBatch) (*RecordResult, error)
	Annotate(ctx context.Context, batch DraftBatch) ([]PreviousBests, error)
}

type EntriesResponse struct {
	Version    uint64         `json:"version"`
	LoadedAt   time.Time      `json:"loadedAt"`
	Entries    []EntryRow     `json:"entries"`
	Total      int            `json:"total"`
	Malformed  int            `json:"malformed"`
	Degenerate int            `json:"degenerate"`
	Hidden     map[string]int `json:"hidden"`
	Rejects    []RowError     `json:"rejects,omitempty"`
}

type ExerciseInfo struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Count   int    `json:"count"`
	Visible bool   `json:"visible"`
	Tracked bool   `json:"tracked"`
}

type ExercisesResponse struct {
	Exercises []ExerciseInfo `json:"exercises"`
}

type ProgressResponse struct {
	Metric    Metric          `json:"metric"`
	Label     string          `json:"label"`
	Exercises []string        `json:"exercises"`
	Points    []ProgressPoint `json:"points"`
}

type AnnotateResponse struct {
	Annotations []PreviousBests `json:"annotations"`
}

type ErrorResponse struct {
	Error string  `json:"error"`
	Kind  ErrKind `json:"kind"`
	Row   *int    `json:"row,omitempty"`
	// Recorded is set when some rows were written before a failure.
	Recorded *RecordResult `json:"recorded,omitempty"`
}

type RefreshResponse struct {
	Version uint64 `json:"version"`
}

type Handler struct {
	repo             snapshotReader
	recorder         entriesRecorder
	views            *ViewCache
	trackedExercises []string
}

func NewHandler(
	repo snapshotReader,
	recorder entriesRecorder,
	views *ViewCache,
	trackedExercises []string,
) *Handler {
	return &Handler{
		repo:             repo,
		recorder:         recorder,
		views:            views,
		trackedExercises: trackedExercises,
	}
}

// HandleEntries serves the visible entries, or every valid one with ?all=true.
func (handler *Handler) HandleEntries(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.entries")
	defer span.End()

	snapshot, ok := handler.currentSnapshot(ctx, w)
	if !ok {
		return
	}

	all := r.URL.Query().Get("all") == "true"
	view := "entries"
	if all {
		view = "entries:all"
	}

	respBytes, err := handler.views.GetOrRender(snapshot.Version, view, func() ([]byte, error) {
		entries := snapshot.Visible
		if all {
			entries = snapshot.Entries
		}
		return json.Marshal(EntriesResponse{
			Version:    snapshot.Version,
			LoadedAt:   snapshot.LoadedAt,
			Entries:    EntryRows(entries),
			Total:      len(entries),
			Malformed:  snapshot.Malformed,
			Degenerate: snapshot.Degenerate,
			Hidden:     snapshot.Hidden,
			Rejects:    snapshot.Rejects,
		})
	})
	if err != nil {
		log.Errorf("render entries: %s", err)
		http.Error(w, "failed to render entries", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respBytes, http.StatusOK)
}

func (handler *Handler) HandleExercises(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.exercises")
	defer span.End()

	snapshot, ok := handler.currentSnapshot(ctx, w)
	if !ok {
		return
	}

	respBytes, err := handler.views.GetOrRender(snapshot.Version, "exercises", func() ([]byte, error) {
		tracked := make(map[string]bool, len(handler.trackedExercises))
		for _, name := range handler.trackedExercises {
			tracked[name] = true
		}
		counts := map[string]int{}
		for _, e := range snapshot.Entries {
			counts[e.ExerciseName]++
		}

		exercises := make([]ExerciseInfo, 0, len(counts))
		for _, name := range ExerciseNames(snapshot.Entries) {
			exercises = append(exercises, ExerciseInfo{
				Name:    name,
				Label:   DisplayName(name),
				Count:   counts[name],
				Visible: counts[name] > MinEntriesPerExercise,
				Tracked: tracked[name],
			})
		}
		return json.Marshal(ExercisesResponse{Exercises: exercises})
	})
	if err != nil {
		log.Errorf("render exercises: %s", err)
		http.Error(w, "failed to render exercises", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respBytes, http.StatusOK)
}

// HandleProgress serves the per day maximum of ?metric= (weight or one_rep_max,
// the default) for the ?exercise= values, or the tracked exercises if none given.
func (handler *Handler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.progress")
	defer span.End()

	query := r.URL.Query()
	metric, err := ParseMetric(query.Get("metric"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	exercises := query["exercise"]
	if len(exercises) == 0 {
		exercises = handler.trackedExercises
	}
	exercises = append([]string(nil), exercises...)
	sort.Strings(exercises)

	snapshot, ok := handler.currentSnapshot(ctx, w)
	if !ok {
		return
	}

	view := "progress:" + string(metric) + ":" + strings.Join(exercises, "|")
	respBytes, err := handler.views.GetOrRender(snapshot.Version, view, func() ([]byte, error) {
		return json.Marshal(ProgressResponse{
			Metric:    metric,
			Label:     metric.Label(),
			Exercises: exercises,
			Points:    ProgressView(snapshot.Visible, metric, exercises...),
		})
	})
	if err != nil {
		log.Errorf("render progress: %s", err)
		http.Error(w, "failed to render progress", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respBytes, http.StatusOK)
}

func (handler *Handler) HandleHeatmap(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.heatmap")
	defer span.End()

	snapshot, ok := handler.currentSnapshot(ctx, w)
	if !ok {
		return
	}

	respBytes, err := handler.views.GetOrRender(snapshot.Version, "heatmap", func() ([]byte, error) {
		return json.Marshal(VolumeHeatmap(snapshot.Visible))
	})
	if err != nil {
		log.Errorf("render heatmap: %s", err)
		http.Error(w, "failed to render heatmap", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respBytes, http.StatusOK)
}

func (handler *Handler) HandlePreviousBests(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.previous")
	defer span.End()

	exerciseName := strings.TrimSpace(r.URL.Query().Get("exercise"))
	if exerciseName == "" {
		http.Error(w, "error, exercise empty", http.StatusBadRequest)
		return
	}

	snapshot, ok := handler.currentSnapshot(ctx, w)
	if !ok {
		return
	}

	respBytes, err := json.Marshal(LookupPreviousBests(snapshot.Entries, exerciseName))
	if err != nil {
		log.Errorf("marshal previous bests: %s", err)
		http.Error(w, "failed to marshal previous bests", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respBytes, http.StatusOK)
}

func (handler *Handler) HandleAnnotate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.annotate")
	defer span.End()

	batch, ok := decodeDraftBatch(w, r)
	if !ok {
		return
	}

	annotations, err := handler.recorder.Annotate(ctx, batch)
	if err != nil {
		log.Errorf("annotate drafts: %s", err)
		http.Error(w, "failed to load workout log", http.StatusInternalServerError)
		return
	}

	respBytes, err := json.Marshal(AnnotateResponse{Annotations: annotations})
	if err != nil {
		log.Errorf("marshal annotations: %s", err)
		http.Error(w, "failed to marshal annotations", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respBytes, http.StatusOK)
}

func (handler *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.record")
	defer span.End()

	batch, ok := decodeDraftBatch(w, r)
	if !ok {
		return
	}

	result, err := handler.recorder.Record(ctx, batch)
	if err != nil {
		var wErr *Error
		if !errors.As(err, &wErr) {
			log.Errorf("record drafts: %s", err)
			http.Error(w, "failed to record entries", http.StatusInternalServerError)
			return
		}

		status := http.StatusInternalServerError
		if wErr.Kind == KindInvalidDraft {
			status = http.StatusBadRequest
		}
		errResp := ErrorResponse{
			Error:    wErr.Err.Error(),
			Kind:     wErr.Kind,
			Recorded: result,
		}
		if wErr.Row >= 0 {
			errResp.Row = &wErr.Row
		}
		writeJSON(w, errResp, status)
		return
	}

	writeJSON(w, result, http.StatusCreated)
}

// HandleRefresh drops the cached snapshot so the next read goes to the data source.
func (handler *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.refresh")
	defer span.End()

	handler.repo.Invalidate()
	snapshot, ok := handler.currentSnapshot(ctx, w)
	if !ok {
		return
	}

	writeJSON(w, RefreshResponse{Version: snapshot.Version}, http.StatusOK)
}

func (handler *Handler) currentSnapshot(ctx context.Context, w http.ResponseWriter) (*Snapshot, bool) {
	snapshot, err := handler.repo.Current(ctx)
	if err != nil {
		log.Errorf("load workout log: %s", err)
		http.Error(w, "failed to load workout log", http.StatusInternalServerError)
		return nil, false
	}
	return snapshot, true
}

func decodeDraftBatch(w http.ResponseWriter, r *http.Request) (DraftBatch, bool) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), pkg.ContentType.JSON) {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return DraftBatch{}, false
	}

	var batch DraftBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		log.Tracef("draft batch, unmarshal json: %s", err)
		http.Error(w, "invalid draft batch", http.StatusBadRequest)
		return DraftBatch{}, false
	}
	return batch, true
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	respBytes, err := json.Marshal(v)
	if err != nil {
		log.Errorf("marshal response: %s", err)
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respBytes, status)
}
