package workouts

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/2beens/liftlog/internal/source"
	"github.com/2beens/liftlog/internal/telemetry/metrics"
	"github.com/2beens/liftlog/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
)

//go:generate mockgen -source=$GOFILE -destination=repo_mocks_test.go -package=workouts_test

type rowsSource interface {
	ReadAllRows(ctx context.Context) (source.Table, error)
	AppendRow(ctx context.Context, columns []string) error
}

// Snapshot is an immutable, normalized view of the whole log at one version.
type Snapshot struct {
	Version  uint64
	LoadedAt time.Time
	*NormalizeResult
}

// Repository caches the normalized log. Readers share one snapshot until a
// write (or an explicit refresh) invalidates it; the next reader reloads.
// Concurrent loads for the same version are collapsed into one.
type Repository struct {
	source         rowsSource
	metricsManager *metrics.Manager

	loads   singleflight.Group
	writeMu sync.Mutex

	mu      sync.RWMutex
	version uint64
	current *Snapshot
}

func NewRepository(src rowsSource, metricsManager *metrics.Manager) *Repository {
	return &Repository{
		source:         src,
		metricsManager: metricsManager,
	}
}

func (r *Repository) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Current returns the loaded snapshot, loading it first when needed.
func (r *Repository) Current(ctx context.Context) (_ *Snapshot, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.current")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	r.mu.RLock()
	snapshot, version := r.current, r.version
	r.mu.RUnlock()
	if snapshot != nil {
		span.SetAttributes(attribute.Bool("cached", true))
		return snapshot, nil
	}

	// the load is shared by every waiting reader, one reader going away must not cancel it
	loadCtx := context.WithoutCancel(ctx)
	v, err, shared := r.loads.Do(strconv.FormatUint(version, 10), func() (interface{}, error) {
		return r.load(loadCtx, version)
	})
	span.SetAttributes(attribute.Bool("shared", shared))
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (r *Repository) load(ctx context.Context, version uint64) (*Snapshot, error) {
	// another reader may have finished this version's load meanwhile
	r.mu.RLock()
	cached := r.current
	r.mu.RUnlock()
	if cached != nil && cached.Version == version {
		return cached, nil
	}

	start := time.Now()
	defer func() {
		r.metricsManager.HistSnapshotLoadDuration.Observe(time.Since(start).Seconds())
	}()

	table, err := r.source.ReadAllRows(ctx)
	if err != nil {
		r.metricsManager.CounterSnapshotLoads.WithLabelValues("error").Inc()
		return nil, err
	}

	result, err := Normalize(table)
	if err != nil {
		r.metricsManager.CounterSnapshotLoads.WithLabelValues("error").Inc()
		return nil, err
	}

	r.metricsManager.CounterSnapshotLoads.WithLabelValues("ok").Inc()
	r.metricsManager.CounterRowsRejected.WithLabelValues(KindMalformedRow.String()).Add(float64(result.Malformed))
	r.metricsManager.CounterRowsRejected.WithLabelValues(KindDegenerateReps.String()).Add(float64(result.Degenerate))
	r.metricsManager.GaugeVisibleEntries.Set(float64(len(result.Visible)))

	if len(result.Rejects) > 0 {
		log.Warnf("workout log [v%d]: skipped %d malformed and %d degenerate rows", version, result.Malformed, result.Degenerate)
	}

	snapshot := &Snapshot{
		Version:         version,
		LoadedAt:        time.Now(),
		NormalizeResult: result,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// a write landed while loading; the caller still gets a consistent
	// snapshot, but it is not kept
	if r.version == version {
		r.current = snapshot
	}

	return snapshot, nil
}

// Append writes rows in order and stops at the first failure, returning the
// number of rows written. Writes are serialized. The snapshot is invalidated
// whenever at least one row made it to the source.
func (r *Repository) Append(ctx context.Context, rows [][]string) (appended int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.append")
	defer func() {
		span.SetAttributes(attribute.Int("appended", appended))
		tracing.EndSpanWithErrCheck(span, err)
	}()

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	for i, row := range rows {
		if err := r.source.AppendRow(ctx, row); err != nil {
			if appended > 0 {
				r.Invalidate()
			}
			return appended, NewError(KindWriteFailed, i, err)
		}
		appended++
	}

	if appended > 0 {
		r.Invalidate()
	}
	return appended, nil
}

// Invalidate drops the snapshot and bumps the version; the next read reloads.
func (r *Repository) Invalidate() {
	r.mu.Lock()
	r.version++
	r.current = nil
	version := r.version
	r.mu.Unlock()

	r.metricsManager.GaugeSnapshotVersion.Set(float64(version))
	log.Debugf("workout log snapshot invalidated, version now %d", version)
}
