package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/edupulse/platform/pkg/access"
	"github.com/edupulse/platform/pkg/api"
	"github.com/edupulse/platform/pkg/audit"
	"github.com/edupulse/platform/pkg/config"
	"github.com/edupulse/platform/pkg/headers"
	"github.com/edupulse/platform/pkg/middleware"
	"github.com/edupulse/platform/pkg/observability"
	"github.com/edupulse/platform/pkg/ratelimit"
	"github.com/edupulse/platform/pkg/threat"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "edupulse: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info("Starting EduPulse platform")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics
	var metrics *observability.Metrics
	registry := prometheus.NewRegistry()
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	// Tracing
	tracerProvider, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:        cfg.Observability.TracingEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	// Rate limiting: in-process sliding window by default, Redis-backed
	// when configured and reachable so limits are shared across instances.
	localLimiter := ratelimit.NewSlidingWindowLimiter()
	var limiter ratelimit.Limiter = ratelimit.NewLocalLimiter(localLimiter)

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.URL,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("Redis unreachable, using in-process rate limiting only")
		} else {
			limiter = ratelimit.NewDistributedLimiter(redisClient, "edupulse:ratelimit")
			logger.Infof("Connected to Redis at %s, rate limits shared across instances", cfg.Redis.URL)
		}
	}

	// Audit sinks: an in-memory ring always backs the admin search
	// endpoint; file, database, and logrus sinks attach per config.
	auditStore := audit.NewMemoryStore(cfg.Audit.MemoryBufferSize)
	sinks := []audit.Logger{auditStore}

	if cfg.Audit.LogDir != "" {
		fileLogger, err := audit.NewFileLogger(audit.FileLoggerConfig{
			BasePath: cfg.Audit.LogDir,
			Rotate:   true,
			MaxSize:  cfg.Audit.MaxFileSize,
		})
		if err != nil {
			return fmt.Errorf("failed to open audit log: %w", err)
		}
		sinks = append(sinks, fileLogger)
	}

	var auditDB *sql.DB
	if cfg.Audit.DatabaseURL != "" {
		auditDB, err = sql.Open("postgres", cfg.Audit.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to open audit database: %w", err)
		}
		dbLogger, err := audit.NewDBLogger(auditDB, cfg.Audit.TableName)
		if err != nil {
			return fmt.Errorf("failed to initialize audit database: %w", err)
		}
		sinks = append(sinks, dbLogger)
		logger.Info("Audit database sink enabled")
	}

	logrusLog := logrus.New()
	logrusLog.SetFormatter(&logrus.JSONFormatter{})
	sinks = append(sinks, audit.NewLogrusLogger(logrusLog))

	auditLog := audit.NewMultiLogger(sinks...)
	auditLog.SetAsync(true)
	auditLog.SetErrorHandler(func(sink string, err error) {
		logger.WithField("sink", sink).WithError(err).Warn("Audit sink write failed")
		if metrics != nil {
			metrics.AuditSinkErrorsTotal.WithLabelValues(sink).Inc()
		}
	})

	// Threat scanner, optionally from a signature file with hot reload
	scanner := threat.NewScanner(threat.DefaultSignatures()...)
	if cfg.Security.SignatureFile != "" {
		sigs, err := threat.LoadSignatureFile(cfg.Security.SignatureFile)
		if err != nil {
			return fmt.Errorf("failed to load threat signatures: %w", err)
		}
		scanner.Replace(sigs)
		logger.Infof("Loaded %d threat signatures from %s", len(sigs), cfg.Security.SignatureFile)

		if cfg.Security.WatchSignatureFile {
			err := threat.WatchSignatureFile(ctx, scanner, cfg.Security.SignatureFile, func(err error) {
				logger.WithError(err).Error("Signature reload failed, keeping previous set")
			})
			if err != nil {
				return fmt.Errorf("failed to watch signature file: %w", err)
			}
		}
	}

	// Entity store behind an LRU cache. Production wires the real
	// persistence layer here; the in-memory store serves until then.
	entityStore := access.NewMemoryStore()
	cachedStore, err := access.NewCachedStore(entityStore, cfg.Security.EntityCacheSize)
	if err != nil {
		return err
	}
	resolver := access.NewResolver(cachedStore)
	identity := access.NewStaticResolver()

	pipelineConfig := middleware.DefaultPipelineConfig()
	pipelineConfig.MaxRequests = cfg.Security.RateLimitMaxRequests
	pipelineConfig.Window = cfg.Security.RateLimitWindow

	pipeline := middleware.NewSecurityPipeline(pipelineConfig, middleware.PipelineDeps{
		Limiter:  limiter,
		Scanner:  scanner,
		Injector: headers.NewInjector(headers.DefaultInjectorConfig()),
		CORS:     headers.NewGate(corsConfig(cfg)),
		Identity: identity,
		AuditLog: auditLog,
		Logger:   logger,
		Metrics:  metrics,
	})
	authz := middleware.NewAuthMiddleware(identity, resolver, limiter, auditLog, logger, metrics)

	server := api.NewServer(pipeline, authz, cachedStore, resolver, auditStore)

	var appHandler http.Handler = server
	if cfg.Observability.TracingEnabled {
		appHandler = otelhttp.NewHandler(appHandler, "edupulse.http")
	}
	if metrics != nil {
		appHandler = observability.HTTPMetricsMiddleware(metrics)(appHandler)
	}

	// Periodic limiter sweep; stale identifiers age out at twice the
	// window. Only the in-process limiter holds sweepable state; Redis
	// keys expire on their own TTL.
	scheduler := cron.New()
	sweepSpec := fmt.Sprintf("@every %s", cfg.Security.SweepInterval)
	_, err = scheduler.AddFunc(sweepSpec, func() {
		defer observability.RecoverPanic(logger, "rate limit sweep")
		localLimiter.Sweep(2 * cfg.Security.RateLimitWindow)
		if metrics != nil {
			metrics.RateLimitTrackedIdentifiers.Set(float64(localLimiter.Size()))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule limiter sweep: %w", err)
	}
	scheduler.Start()

	// Health and metrics on a separate port for probes
	healthRouter := api.NewInternalRouter(observability.NewHealthChecker(auditDB, redisClient), registry, cfg.Observability.MetricsEnabled)

	appServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      appHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthRouter,
	}

	var group errgroup.Group
	group.Go(func() error {
		logger.Infof("API server listening on %s", appServer.Addr)
		if err := appServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		logger.Infof("Health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	shutdown := observability.NewShutdownManager(logger, appServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		cronCtx := scheduler.Stop()
		select {
		case <-cronCtx.Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return auditLog.Close()
	})
	if redisClient != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return redisClient.Close()
		})
	}
	if auditDB != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return auditDB.Close()
		})
	}
	if tracerProvider != nil {
		shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
			return observability.ShutdownTracing(ctx, tracerProvider, logger)
		})
	}

	group.Go(shutdown.WaitForShutdown)
	return group.Wait()
}

func corsConfig(cfg *config.Config) headers.GateConfig {
	gateConfig := headers.DefaultGateConfig()
	gateConfig.AllowedOrigins = cfg.Security.AllowedOrigins
	return gateConfig
}
