package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hackgods/appointment-lifecycle/internal/api"
	"github.com/hackgods/appointment-lifecycle/internal/appointment"
	"github.com/hackgods/appointment-lifecycle/internal/config"
	"github.com/hackgods/appointment-lifecycle/internal/db"
	"github.com/hackgods/appointment-lifecycle/internal/earnings"
	"github.com/hackgods/appointment-lifecycle/internal/identity"
	"github.com/hackgods/appointment-lifecycle/internal/logging"
	"github.com/hackgods/appointment-lifecycle/internal/metrics"
	"github.com/hackgods/appointment-lifecycle/internal/profile"
	redisclient "github.com/hackgods/appointment-lifecycle/internal/redis"
	"github.com/hackgods/appointment-lifecycle/internal/scheduling"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load error: " + err.Error())
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic("logger init error: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("api-server starting up",
		zap.String("env", cfg.Env),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("timezone", cfg.Location.String()),
		zap.Int64("platform_fee_bps", cfg.PlatformFeeBps),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.PostgresMaxConns)
	cancelPg()
	if err != nil {
		logger.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	// Connect Redis. Without it bookings still rely on the storage constraint.
	var locker redisclient.Locker = redisclient.NopLocker{}
	var redisPing api.Pinger
	if cfg.RedisAddr != "" {
		redisCtx, cancelRedis := context.WithTimeout(rootCtx, 5*time.Second)
		rdb, err := redisclient.NewRedisClient(redisCtx, redisclient.OptionsFromConfig(cfg))
		cancelRedis()
		if err != nil {
			logger.Warn("redis unavailable, booking lock disabled", zap.Error(err))
		} else {
			defer func() {
				if err := rdb.Close(); err != nil {
					logger.Warn("error closing redis", zap.Error(err))
				}
			}()
			locker = redisclient.NewRedisLocker(rdb, cfg.LockTTL, cfg.LockWait)
			redisPing = api.RedisPinger{Client: rdb}
			logger.Info("connected to Redis")
		}
	}

	m := metrics.NewScheduling(prometheus.DefaultRegisterer)
	profiles := profile.NewPgStore(pgPool)

	mgr := appointment.NewManager(
		appointment.NewPgRepository(pgPool),
		locker,
		earnings.NewPoster(cfg.PlatformFeeBps, logger.Named("earnings"), m),
		cfg,
		logger.Named("appointments"),
		appointment.WithMetrics(m),
	)

	facade := scheduling.New(scheduling.Deps{
		Manager:      mgr,
		Profiles:     profiles,
		Hours:        appointment.NewAvailabilityIndex(profiles),
		Earnings:     earnings.NewPgRepository(pgPool),
		EnforceHours: cfg.EnforcePublishedHours,
		Logger:       logger.Named("scheduling"),
		Metrics:      m,
	})

	router := api.NewRouter(api.RouterConfig{
		Facade:         facade,
		Verifier:       identity.NewVerifier(cfg.JWTSecret, ""),
		Health:         api.NewHealthHandler(pgPool, redisPing, cfg.Env, version, logger),
		MetricsHandler: promhttp.Handler(),
		Logger:         logger.Named("http"),
		CORSOrigins:    cfg.CORSAllowedOrigins,
		RateLimit:      cfg.RateLimitPerMinute,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-rootCtx.Done()

	logger.Info("shutting down api-server", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
