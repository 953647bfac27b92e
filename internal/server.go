package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/multierr"
	"google.golang.org/api/option"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/internal/config"
	"github.com/2beens/liftlog/internal/db"
	"github.com/2beens/liftlog/internal/gcp"
	"github.com/2beens/liftlog/internal/middleware"
	"github.com/2beens/liftlog/internal/misc"
	"github.com/2beens/liftlog/internal/objstore"
	"github.com/2beens/liftlog/internal/source"
	"github.com/2beens/liftlog/internal/source/gsheets"
	"github.com/2beens/liftlog/internal/source/memory"
	"github.com/2beens/liftlog/internal/source/psql"
	"github.com/2beens/liftlog/internal/telemetry/metrics"
	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/internal/workouts"
	"github.com/2beens/liftlog/pkg"
)

const (
	sessionsCleanupInterval = 8 * time.Hour
	maxRequestBodyBytes     = 1 << 20
)

type workoutsSource interface {
	ReadAllRows(ctx context.Context) (source.Table, error)
	AppendRow(ctx context.Context, columns []string) error
}

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	dbPool      *pgxpool.Pool
	redisClient *redis.Client
	rateLimiter middleware.RequestRateLimiter

	loginChecker auth.Checker
	authService  *auth.Service
	users        *auth.UsersConfig

	repository *workouts.Repository
	recorder   *workouts.Recorder
	views      *workouts.ViewCache

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config *config.Config
	// Credentials are required when the config reads from google sheets or
	// fetches the users config from object storage.
	Credentials             *config.ServiceCredentials
	VersionInfo             string
	AdminUsername           string
	AdminPasswordHash       string
	RedisPassword           string
	PostgresUser            string
	PostgresPassword        string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "liftlog")
	if err != nil {
		return nil, err
	}

	var googleClient *http.Client
	if cfg.NeedsGoogleCredentials() {
		googleClient, err = newGoogleClient(ctx, params.Credentials)
		if err != nil {
			return nil, err
		}
	}

	users, err := loadUsers(ctx, cfg, googleClient, params.AdminUsername, params.AdminPasswordHash)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	src, dbPool, err := newWorkoutsSource(ctx, cfg, googleClient, params)
	if err != nil {
		return nil, fmt.Errorf("new workouts source: %w", err)
	}

	var extraCollectors []prometheus.Collector
	if dbPool != nil {
		extraCollectors = append(extraCollectors, pgxpoolprometheus.NewCollector(
			dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		))
	}
	promRegistry := metrics.SetupPrometheus(extraCollectors...)
	metricsManager := metrics.NewManager("liftlog", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0) // set to 1 once serving

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})
	if params.HoneycombTracingEnabled {
		rdb.AddHook(redisotel.NewTracingHook())
	}

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	authService := auth.NewAuthService(users, rdb)
	go func() {
		ticker := time.NewTicker(sessionsCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cleaned := authService.ScanAndClean(ctx)
				log.Debugf("auth sessions cleanup removed %d sessions", cleaned)
			}
		}
	}()

	repository := workouts.NewRepository(src, metricsManager)

	return &Server{
		config:      cfg,
		dbPool:      dbPool,
		versionInfo: params.VersionInfo,

		redisClient:  rdb,
		rateLimiter:  redis_rate.NewLimiter(rdb),
		authService:  authService,
		loginChecker: auth.NewLoginChecker(users.TTL(), rdb),
		users:        users,

		repository: repository,
		recorder:   workouts.NewRecorder(repository, metricsManager),
		views:      workouts.NewViewCache(cfg.ViewCacheSizeMB, metricsManager),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func newGoogleClient(ctx context.Context, creds *config.ServiceCredentials) (*http.Client, error) {
	if creds == nil {
		return nil, workouts.NewError(workouts.KindCredentials, -1, config.ErrMissingCredentials)
	}
	if err := creds.Validate(); err != nil {
		return nil, workouts.NewError(workouts.KindCredentials, -1, err)
	}

	credsJSON, err := creds.JSON()
	if err != nil {
		return nil, workouts.NewError(workouts.KindCredentials, -1, err)
	}

	client, err := gcp.NewHTTPClient(ctx, credsJSON,
		gcp.ScopeSpreadsheets,
		gcp.ScopeDevstorageReadOnly,
	)
	if err != nil {
		return nil, workouts.NewError(workouts.KindCredentials, -1, err)
	}

	return client, nil
}

// loadUsers builds the users config: the users file (fetched from object storage first
// when configured), plus the admin from the env.
func loadUsers(
	ctx context.Context,
	cfg *config.Config,
	googleClient *http.Client,
	adminUsername, adminPasswordHash string,
) (*auth.UsersConfig, error) {
	if cfg.UsersConfigBucket != "" {
		store, err := objstore.NewStore(ctx, option.WithHTTPClient(googleClient))
		if err != nil {
			return nil, fmt.Errorf("new object store: %w", err)
		}
		if err := store.Download(ctx, cfg.UsersConfigBucket, cfg.UsersConfigObject, cfg.UsersConfigPath); err != nil {
			return nil, fmt.Errorf("download users config: %w", err)
		}
		log.Debugf("users config downloaded to %s", cfg.UsersConfigPath)
	}

	users := auth.NewUsersConfig()
	if cfg.UsersConfigPath != "" {
		exists, err := pkg.PathExists(cfg.UsersConfigPath, false)
		if err != nil {
			return nil, err
		}
		if exists {
			users, err = auth.LoadUsersConfig(cfg.UsersConfigPath)
			if err != nil {
				return nil, err
			}
		} else {
			log.Warnf("users config [%s] not found, only the env admin can log in", cfg.UsersConfigPath)
		}
	}

	if adminUsername != "" && adminPasswordHash != "" {
		users.AddUser(adminUsername, adminPasswordHash)
	}

	if len(users.Users) == 0 {
		log.Warnf("%s: recording entries is not possible", auth.ErrNoUsers)
	}

	return users, nil
}

func newWorkoutsSource(
	ctx context.Context,
	cfg *config.Config,
	googleClient *http.Client,
	params NewServerParams,
) (workoutsSource, *pgxpool.Pool, error) {
	switch cfg.Source {
	case config.SourceGoogleSheets:
		src, err := gsheets.NewSource(ctx, cfg.SpreadsheetKey, cfg.WorksheetName, option.WithHTTPClient(googleClient))
		if err != nil {
			return nil, nil, err
		}
		log.Debugf("workout log source: google sheet [%s / %s]", cfg.SpreadsheetKey, cfg.WorksheetName)
		return src, nil, nil
	case config.SourcePostgres:
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBUser:         params.PostgresUser,
			DBPassword:     params.PostgresPassword,
			TracingEnabled: params.HoneycombTracingEnabled,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}

		src := psql.NewSource(dbPool)
		if err := src.EnsureSchema(ctx); err != nil {
			dbPool.Close()
			return nil, nil, err
		}
		log.Debugf("workout log source: postgres [%s]", cfg.PostgresDBName)
		return src, dbPool, nil
	case config.SourceMemory:
		if cfg.MemorySeedCsvPath == "" {
			log.Debugln("workout log source: empty memory")
			return memory.NewSource(), nil, nil
		}

		seedFile, err := os.Open(cfg.MemorySeedCsvPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open memory seed: %w", err)
		}
		defer func() {
			if err := seedFile.Close(); err != nil {
				log.Warnf("close memory seed file: %s", err)
			}
		}()

		src, err := memory.NewSourceFromCSV(seedFile)
		if err != nil {
			return nil, nil, fmt.Errorf("seed memory source: %w", err)
		}
		log.Debugf("workout log source: memory, seeded from %s", cfg.MemorySeedCsvPath)
		return src, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown source: %s", cfg.Source)
	}
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("liftlog-router"))

	workoutsHandler := workouts.NewHandler(
		s.repository,
		s.recorder,
		s.views,
		s.config.TrackedExercises,
	)
	workoutsRouter := r.PathPrefix("/workouts").Subrouter()
	workoutsRouter.HandleFunc("/entries", workoutsHandler.HandleEntries).Methods("GET", "OPTIONS").Name("entries")
	workoutsRouter.HandleFunc("/exercises", workoutsHandler.HandleExercises).Methods("GET", "OPTIONS").Name("exercises")
	workoutsRouter.HandleFunc("/progress", workoutsHandler.HandleProgress).Methods("GET", "OPTIONS").Name("progress")
	workoutsRouter.HandleFunc("/heatmap", workoutsHandler.HandleHeatmap).Methods("GET", "OPTIONS").Name("heatmap")
	workoutsRouter.HandleFunc("/previous", workoutsHandler.HandlePreviousBests).Methods("GET", "OPTIONS").Name("previous-bests")
	workoutsRouter.HandleFunc("/drafts/annotate", workoutsHandler.HandleAnnotate).Methods("POST", "OPTIONS").Name("annotate")
	workoutsRouter.HandleFunc("/record", workoutsHandler.HandleRecord).Methods("POST", "OPTIONS").Name("record")
	workoutsRouter.HandleFunc("/refresh", workoutsHandler.HandleRefresh).Methods("POST", "OPTIONS").Name("refresh")

	miscHandler := misc.NewHandler(s.versionInfo, s.authService, s.loginChecker, s.users.Cookie.Name)
	miscHandler.SetupRoutes(r, s.rateLimiter, s.metricsManager, s.config.LoginRateLimitAllowedPerMin)

	// unmatched paths skip the middleware chain, so they 404 without a session check
	r.NotFoundHandler = http.HandlerFunc(http.NotFound)

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.loginChecker, s.users.Cookie.Name)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.CorsAllowedOrigins...))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest(maxRequestBodyBytes))

	return r, nil
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	// warm up the snapshot, a broken source shows up in the logs right away
	go func() {
		snapshot, err := s.repository.Current(ctx)
		if err != nil {
			log.Errorf("initial workout log load: %s", err)
			return
		}
		log.Infof("workout log loaded: %d entries, %d visible", len(snapshot.Entries), len(snapshot.Visible))
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	var shutdownErr error
	if s.httpServer != nil {
		shutdownErr = multierr.Append(shutdownErr, s.httpServer.Shutdown(ctx))
		log.Warnln("server shut down")
	}
	if s.metricsHttpServer != nil {
		shutdownErr = multierr.Append(shutdownErr, s.metricsHttpServer.Shutdown(ctx))
		log.Warnln("metrics server shut down")
	}

	if s.redisClient != nil {
		shutdownErr = multierr.Append(shutdownErr, s.redisClient.Close())
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if shutdownErr != nil {
		log.Errorf(" >>> graceful shutdown: %s", shutdownErr)
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
