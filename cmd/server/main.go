package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	mrzhandler "mrzgate/internal/mrz/handler"
	mrzmetrics "mrzgate/internal/mrz/metrics"
	mrzservice "mrzgate/internal/mrz/service"
	mrzstore "mrzgate/internal/mrz/store"
	"mrzgate/internal/platform/config"
	"mrzgate/internal/platform/httpserver"
	"mrzgate/internal/platform/logger"
	httpmetrics "mrzgate/internal/platform/metrics"
	"mrzgate/internal/platform/postgres"
	redisclient "mrzgate/internal/platform/redis"
	"mrzgate/pkg/platform/audit"
	auditconsumer "mrzgate/pkg/platform/audit/consumer"
	"mrzgate/pkg/platform/audit/publisher"
	auditkafka "mrzgate/pkg/platform/audit/store/kafka"
	auditmemory "mrzgate/pkg/platform/audit/store/memory"
	auditpostgres "mrzgate/pkg/platform/audit/store/postgres"
	"mrzgate/pkg/platform/circuit"
	"mrzgate/pkg/platform/middleware/admin"
)

const shutdownTimeout = 10 * time.Second

// main wires the backends selected by the environment and serves until
// SIGINT or SIGTERM. Business logic lives in internal/mrz.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("mrzgate stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	checks := map[string]httpserver.HealthCheck{}
	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = postgres.Open(ctx, postgres.Config{
			URL:             cfg.DatabaseURL,
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		})
		if err != nil {
			return err
		}
		closers = append(closers, func() { _ = db.Close() })
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		checks["postgres"] = db.PingContext
	}

	reports, expirer, err := buildReportStore(ctx, cfg, db, log, checks, &closers)
	if err != nil {
		return err
	}

	auditStore, err := buildAuditStore(ctx, cfg, db, log, checks, &closers)
	if err != nil {
		return err
	}
	auditPublisher := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(cfg.MRZ.AuditBufferSize),
		publisher.WithBreaker(circuit.New("audit-sink", circuit.WithFailureThreshold(5))),
		publisher.WithLogger(log),
	)
	// Registered after the sink so the buffer drains before the sink closes.
	closers = append(closers, auditPublisher.Close)

	svc, err := mrzservice.New(reports,
		mrzservice.WithConfig(mrzservice.Config{
			ReportTTL:        cfg.MRZ.ReportTTL,
			MaxInputBytes:    cfg.MRZ.MaxInputBytes,
			BatchMaxItems:    cfg.MRZ.BatchMaxItems,
			BatchConcurrency: cfg.MRZ.BatchConcurrency,
		}),
		mrzservice.WithMetrics(mrzmetrics.New()),
		mrzservice.WithAuditPublisher(auditPublisher),
		mrzservice.WithAuditTrail(auditPublisher),
		mrzservice.WithLogger(log),
	)
	if err != nil {
		return err
	}

	var adminGuard func(http.Handler) http.Handler
	if cfg.AdminAPIToken != "" {
		adminGuard = admin.RequireAdminToken(cfg.AdminAPIToken, log, auditPublisher)
	} else {
		log.Warn("ADMIN_API_TOKEN not set; report lookup is disabled")
	}

	router := httpserver.NewRouter(log, checks, httpmetrics.New(), mrzhandler.New(svc, log, adminGuard))
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting mrzgate", "addr", cfg.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if expirer != nil {
		g.Go(func() error {
			err := mrzstore.StartCleanup(gctx, expirer, cfg.MRZ.CleanupInterval, log)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	if db != nil && len(cfg.Kafka.Brokers) > 0 {
		projector, err := auditconsumer.New(auditconsumer.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.AuditTopic,
			Group:   cfg.Kafka.AuditGroup,
		}, auditconsumer.NewHandler(auditpostgres.New(db), log), log)
		if err != nil {
			return err
		}
		closers = append(closers, projector.Close)
		g.Go(func() error {
			err := projector.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildReportStore prefers Postgres, then Redis, then memory.
func buildReportStore(ctx context.Context, cfg config.Server, db *sql.DB, log *slog.Logger, checks map[string]httpserver.HealthCheck, closers *[]func()) (mrzservice.ReportStore, mrzstore.Expirer, error) {
	if db != nil {
		log.Info("report store: postgres")
		s := mrzstore.NewPostgres(db)
		return s, s, nil
	}

	client, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if client != nil {
		*closers = append(*closers, func() { _ = client.Close() })
		checks["redis"] = client.Health
		log.Info("report store: redis")
		return mrzstore.NewRedis(client.Client), nil, nil
	}

	log.Info("report store: in-memory")
	s := mrzstore.NewInMemory()
	return s, s, nil
}

// buildAuditStore prefers Kafka, then Postgres, then memory.
func buildAuditStore(ctx context.Context, cfg config.Server, db *sql.DB, log *slog.Logger, checks map[string]httpserver.HealthCheck, closers *[]func()) (audit.Store, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		if db != nil {
			log.Info("audit sink: postgres")
			return auditpostgres.New(db), nil
		}
		log.Info("audit sink: in-memory")
		return auditmemory.NewInMemoryStore(), nil
	}
	s, err := auditkafka.New(ctx, auditkafka.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.AuditTopic,
	})
	if err != nil {
		return nil, err
	}
	*closers = append(*closers, s.Close)
	checks["kafka"] = s.Health
	log.Info("audit sink: kafka", "topic", cfg.Kafka.AuditTopic)
	return s, nil
}
