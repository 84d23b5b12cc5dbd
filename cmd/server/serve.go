package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"bondbook/internal/audit"
	"bondbook/internal/bond/handler"
	bondmetrics "bondbook/internal/bond/metrics"
	"bondbook/internal/bond/service"
	"bondbook/internal/bond/store"
	"bondbook/internal/bond/validation"
	jwttoken "bondbook/internal/jwt_token"
	"bondbook/internal/lei"
	"bondbook/internal/platform/config"
	"bondbook/internal/platform/httpserver"
	platformkafka "bondbook/internal/platform/kafka"
	"bondbook/internal/platform/logger"
	"bondbook/internal/platform/metrics"
	"bondbook/internal/platform/postgres"
	platformredis "bondbook/internal/platform/redis"
	"bondbook/internal/revocation"
	"bondbook/pkg/platform/circuit"
)

const auditQueueSize = 1024

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logger.New(cfg.LogLevel)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, log)
	},
}

// app holds the long-lived resources built from config.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	db       *sqlx.DB
	redis    *platformredis.Client
	kafka    *kgo.Client
	audit    *audit.Async
	router   http.Handler
}

func serve(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	if cfg.UsesDevSigningKey() {
		log.WarnContext(ctx, "using development JWT signing key")
	}

	a, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	srv := httpserver.New(cfg.Addr, a.router, cfg.RequestTimeout)

	// The audit worker outlives the HTTP server so events from in-flight
	// requests are still delivered during shutdown.
	auditCtx, stopAudit := context.WithCancel(context.WithoutCancel(ctx))
	defer stopAudit()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.audit.Run(auditCtx)
	})
	g.Go(func() error {
		log.InfoContext(gctx, "starting bondbook", "addr", cfg.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		defer stopAudit()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()
		log.InfoContext(shutdownCtx, "shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func build(ctx context.Context, cfg config.Config, log *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: log, registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			a.close()
		}
	}()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	bondStore, err := a.bondStore(ctx)
	if err != nil {
		return nil, err
	}
	trl, err := a.revocationList(ctx)
	if err != nil {
		return nil, err
	}
	publisher, err := a.auditPublisher(ctx)
	if err != nil {
		return nil, err
	}
	a.audit = audit.NewAsync(publisher, auditQueueSize, log)

	resolver := lei.New(cfg.LEI.BaseURL, cfg.LEI.Timeout,
		lei.WithLogger(log),
		lei.WithMetrics(lei.NewMetrics(a.registry)),
	)
	bonds := service.New(bondStore, resolver, validation.New(cfg.CurrencyCodes),
		service.WithLogger(log),
		service.WithMetrics(bondmetrics.New(a.registry)),
		service.WithAuditPublisher(a.audit),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWT.SigningKey, cfg.JWT.Issuer)
	a.router = newRouter(routerDeps{
		logger:         log,
		gatherer:       a.registry,
		metrics:        metrics.New(a.registry),
		bonds:          handler.New(bonds, log),
		validator:      jwttoken.NewJWTServiceAdapter(jwtService),
		revocation:     revocation.NewChecker(trl),
		requestTimeout: cfg.RequestTimeout,
		health:         a.healthChecks(),
	})
	return a, nil
}

func (a *app) bondStore(ctx context.Context) (service.Store, error) {
	if a.cfg.Database.URL == "" {
		a.logger.InfoContext(ctx, "using in-memory bond store")
		return store.NewInMemory(), nil
	}
	if err := postgres.Migrate(a.cfg.Database.URL); err != nil {
		return nil, err
	}
	db, err := postgres.Open(ctx, a.cfg.Database)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.logger.InfoContext(ctx, "using postgres bond store")
	return store.NewPostgres(db), nil
}

func (a *app) revocationList(ctx context.Context) (revocation.List, error) {
	client, err := platformredis.New(ctx, a.cfg.Redis)
	if err != nil {
		return nil, err
	}
	if client == nil {
		a.logger.InfoContext(ctx, "using in-memory token revocation list")
		return revocation.NewInMemoryTRL(), nil
	}
	a.redis = client
	return revocation.NewRedisTRL(client.Client), nil
}

func (a *app) auditPublisher(ctx context.Context) (audit.Publisher, error) {
	logPublisher := audit.NewLogPublisher(a.logger)
	client, err := platformkafka.New(ctx, a.cfg.Kafka)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return logPublisher, nil
	}
	a.kafka = client
	if err := platformkafka.EnsureTopic(ctx, client, a.cfg.Kafka.Topic); err != nil {
		return nil, err
	}
	return audit.NewKafkaPublisher(client, a.cfg.Kafka.Topic,
		audit.WithFallback(logPublisher),
		audit.WithBreaker(circuit.New("audit-kafka")),
		audit.WithKafkaLogger(a.logger),
	), nil
}

func (a *app) healthChecks() map[string]HealthCheck {
	checks := map[string]HealthCheck{}
	if a.db != nil {
		checks["postgres"] = a.db.PingContext
	}
	if a.redis != nil {
		checks["redis"] = a.redis.Health
	}
	if a.kafka != nil {
		checks["kafka"] = a.kafka.Ping
	}
	return checks
}

func (a *app) close() {
	if a.kafka != nil {
		a.kafka.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
