package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/aryasetia/fitmon/internal/auth"
	"github.com/aryasetia/fitmon/internal/cache"
	"github.com/aryasetia/fitmon/internal/config"
	"github.com/aryasetia/fitmon/internal/db"
	"github.com/aryasetia/fitmon/internal/history"
	"github.com/aryasetia/fitmon/internal/middleware"
	"github.com/aryasetia/fitmon/internal/sessions"
	"github.com/aryasetia/fitmon/internal/telemetry/metrics"
	"github.com/aryasetia/fitmon/internal/telemetry/tracing"
	"github.com/aryasetia/fitmon/internal/users"
	"github.com/aryasetia/fitmon/internal/workouts"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	deviceSecret      string // shared secret of the sensor stations
	versionInfo       string

	config *config.Config
	dbPool *pgxpool.Pool

	redisClient  *redis.Client
	loginChecker *auth.LoginChecker
	authService  *auth.Service

	workoutsService *workouts.Service
	sessionsService *sessions.Service
	historyService  *history.Service
	usersRepo       *users.Repo
	historyCache    *cache.HistoryCache

	// telemetry
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	DeviceSecret            string
	RedisPassword           string
	VersionInfo             string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": "fitmon_db"},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("fitmon", "backend", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	authService := auth.NewService(auth.DefaultTTL, rdb)
	go func() {
		for range time.Tick(time.Hour * 8) {
			authService.ScanAndClean(ctx)
		}
	}()

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "fitmon-backend")
	if err != nil {
		return nil, err
	}

	sessionsService := sessions.NewService(sessions.NewRepo(dbPool), metricsManager)
	workoutsService := workouts.NewService(workouts.NewRepo(dbPool), sessionsService, metricsManager)
	historyService := history.NewService(sessionsService)

	s := &Server{
		config:       params.Config,
		dbPool:       dbPool,
		deviceSecret: params.DeviceSecret,
		versionInfo:  params.VersionInfo,

		redisClient:  rdb,
		authService:  authService,
		loginChecker: auth.NewLoginChecker(auth.DefaultTTL, rdb),

		workoutsService: workoutsService,
		sessionsService: sessionsService,
		historyService:  historyService,
		usersRepo:       users.NewRepo(dbPool),
		historyCache:    cache.NewHistoryCache(),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	return s, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("fitmon-router"))

	r.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(fmt.Sprintf("pong [%s]", s.versionInfo)))
	}).Methods("GET")

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	ingestLimiter := middleware.RateLimit(
		reqRateLimiter,
		"ingest",
		s.config.IngestRateLimitAllowedPerMin,
		s.metricsManager,
	)

	workoutsHandler := workouts.NewHandler(s.workoutsService)
	ingestRouter := r.PathPrefix("/ingest").Subrouter()
	ingestRouter.Use(ingestLimiter)
	ingestRouter.HandleFunc("/workout", workoutsHandler.HandleIngestWorkout).Methods("POST", "OPTIONS").Name("ingest-workout")
	ingestRouter.HandleFunc("/rep", workoutsHandler.HandleIngestRep).Methods("POST", "OPTIONS").Name("ingest-rep")

	r.HandleFunc("/workouts", workoutsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-workouts")
	r.HandleFunc("/workouts/reps", workoutsHandler.HandleListReps).Methods("GET", "OPTIONS").Name("list-reps")
	r.HandleFunc("/workouts/{id}", workoutsHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-workout")
	r.HandleFunc("/workouts/{id}", workoutsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-workout")

	sessionsHandler := sessions.NewHandler(s.sessionsService)
	r.HandleFunc("/sessions/start", sessionsHandler.HandleStart).Methods("POST", "OPTIONS").Name("start-session")
	r.HandleFunc("/sessions/list", sessionsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-sessions")
	r.HandleFunc("/sessions/{id}/end", sessionsHandler.HandleEnd).Methods("POST", "OPTIONS").Name("end-session")
	r.HandleFunc("/sessions/{id}", sessionsHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-session")
	r.HandleFunc("/workouts/dates", sessionsHandler.HandleWorkoutDates).Methods("GET", "OPTIONS").Name("workout-dates")

	usersHandler := users.NewHandler(s.usersRepo, s.authService)
	r.HandleFunc("/users/register", usersHandler.HandleRegister).Methods("POST", "OPTIONS").Name("register-user")
	r.HandleFunc("/users/rfid", usersHandler.HandleRFIDScan).Methods("POST", "OPTIONS").Name("rfid-scan")
	r.HandleFunc("/users/{id}", usersHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-user")
	r.HandleFunc("/users/{id}/stats", usersHandler.HandleLifetimeStats).Methods("GET", "OPTIONS").Name("user-stats")

	historyHandler := history.NewHandler(
		s.historyService,
		s.historyCache,
		s.config.HistoryCacheTTLSeconds,
	)
	r.HandleFunc("/history", historyHandler.HandleHistory).Methods("GET", "OPTIONS").Name("history")
	r.HandleFunc("/history/streak", historyHandler.HandleStreak).Methods("GET", "OPTIONS").Name("streak")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(middleware.AuthCheck(s.loginChecker, s.deviceSecret))
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(_ context.Context, host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
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

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Sub(1)
	}
}
