package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"landrec/internal/platform/config"
	"landrec/internal/platform/kafka"
	"landrec/internal/platform/metrics"
	"landrec/internal/platform/middleware"
	"landrec/internal/platform/postgres"
	redisclient "landrec/internal/platform/redis"
	"landrec/internal/registration/catalog"
	reghandler "landrec/internal/registration/handler"
	regmetrics "landrec/internal/registration/metrics"
	"landrec/internal/registration/numbering"
	"landrec/internal/registration/seal"
	regservice "landrec/internal/registration/service"
	regstore "landrec/internal/registration/store"
	wfhandler "landrec/internal/workflow/handler"
	wfmetrics "landrec/internal/workflow/metrics"
	"landrec/internal/workflow/rules"
	wfservice "landrec/internal/workflow/service"
	wfstore "landrec/internal/workflow/store"
	audit "landrec/pkg/platform/audit"
	"landrec/pkg/platform/audit/publisher"
	auditmemory "landrec/pkg/platform/audit/store/memory"
	auditpg "landrec/pkg/platform/audit/store/postgres"
	"landrec/pkg/platform/audit/worker"
	"landrec/pkg/platform/httputil"
	"landrec/pkg/platform/middleware/actor"
	"landrec/pkg/platform/middleware/admin"
	"landrec/pkg/platform/middleware/metadata"
	"landrec/pkg/platform/middleware/request"
	"landrec/pkg/platform/middleware/requesttime"
	txcontext "landrec/pkg/platform/tx"
)

const requestTimeout = 30 * time.Second

// app holds the wired services and the infrastructure they share. Optional
// backends (Postgres, Redis, Kafka) are nil when not configured.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry

	db       *sql.DB
	redis    *redisclient.Client
	producer *kafka.Producer
	relay    *worker.Worker

	registration *regservice.Service
	workflow     *wfservice.Service
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			a.close()
		}
	}()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if cfg.Database.URL != "" {
		if a.db, err = postgres.Open(ctx, cfg.Database); err != nil {
			return nil, err
		}
	}
	if a.redis, err = redisclient.New(ctx, cfg.Redis); err != nil {
		return nil, err
	}

	types, err := catalog.Load(cfg.Registration.ActTypesFile)
	if err != nil {
		return nil, err
	}
	table, err := rules.Load(cfg.Workflow.RulesFile)
	if err != nil {
		return nil, err
	}

	var (
		auditStore audit.Store
		runner     *txcontext.Runner
	)
	if a.db != nil {
		runner = txcontext.NewRunner(a.db, cfg.Database.TxTimeout)
		outbox := auditpg.New(a.db)
		auditStore = outbox
		if err := a.wireRelay(ctx, outbox, runner); err != nil {
			return nil, err
		}
	} else {
		auditStore = auditmemory.NewInMemoryStore()
	}
	events := publisher.NewPublisher(auditStore, publisher.WithLogger(logger))

	var (
		wfStore  wfservice.Store
		wfTx     wfservice.StoreTx
		regStore regservice.Store
		regTx    regservice.StoreTx
	)
	if a.db != nil {
		pgWorkflow := wfstore.NewPostgres(a.db)
		pgRegistration := regstore.NewPostgres(a.db)
		wfStore, wfTx = pgWorkflow, newPostgresTx[wfservice.Store](runner, pgWorkflow)
		regStore, regTx = pgRegistration, newPostgresTx[regservice.Store](runner, pgRegistration)
	} else {
		memWorkflow := wfstore.NewInMemoryStore()
		memRegistration := regstore.NewInMemoryStore()
		wfStore, wfTx = memWorkflow, wfservice.NewShardedTx(memWorkflow, cfg.Database.TxTimeout)
		regStore, regTx = memRegistration, regservice.NewShardedTx(memRegistration, cfg.Registration.TxTimeout)
	}

	locker, err := a.locker()
	if err != nil {
		return nil, err
	}
	regOpts := []regservice.Option{
		regservice.WithLogger(logger),
		regservice.WithAuditPublisher(events),
		regservice.WithMetrics(regmetrics.NewWithRegisterer(a.registry)),
		regservice.WithLocker(locker),
		regservice.WithTransactionReader(wfservice.NewTransactionReader(wfStore)),
	}
	if cfg.Registration.ESignEnabled {
		signer, err := seal.NewJWTSigner(cfg.Registration.SealSecret, cfg.Registration.OfficeName, cfg.Registration.SignerID)
		if err != nil {
			return nil, err
		}
		regOpts = append(regOpts, regservice.WithSigner(signer))
	} else {
		regOpts = append(regOpts, regservice.WithManualSealing())
	}
	if a.registration, err = regservice.New(regTx, regStore, types, regOpts...); err != nil {
		return nil, err
	}

	a.workflow, err = wfservice.New(wfTx, wfStore, table,
		wfservice.WithLogger(logger),
		wfservice.WithAuditPublisher(events),
		wfservice.WithMetrics(wfmetrics.NewWithRegisterer(a.registry)),
		wfservice.WithLandRecords(a.registration),
	)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "services wired",
		"postgres", a.db != nil,
		"redis", a.redis != nil,
		"kafka", a.producer != nil,
		"lock_backend", cfg.Registration.LockBackend,
		"esign", cfg.Registration.ESignEnabled,
		"act_types", len(types.All()),
		"transitions", len(table.All()),
	)
	return a, nil
}

// wireRelay builds the outbox relay when Kafka brokers are configured. serve
// runs it alongside the HTTP server.
func (a *app) wireRelay(ctx context.Context, outbox *auditpg.Store, runner *txcontext.Runner) error {
	if len(a.cfg.Kafka.Brokers) == 0 {
		return nil
	}
	producer, err := kafka.NewProducer(a.cfg.Kafka, a.logger)
	if err != nil {
		return err
	}
	a.producer = producer
	if err := producer.EnsureTopic(ctx, a.cfg.Kafka.Partitions, a.cfg.Kafka.Replication); err != nil {
		return err
	}
	a.relay = worker.NewWorker(outbox, runner, producer,
		worker.WithLogger(a.logger),
		worker.WithInterval(a.cfg.Kafka.RelayInterval),
		worker.WithBatchSize(a.cfg.Kafka.RelayBatch),
	)
	return nil
}

func (a *app) locker() (numbering.Locker, error) {
	switch a.cfg.Registration.LockBackend {
	case config.LockBackendRedis:
		if a.redis == nil {
			return nil, fmt.Errorf("lock backend %q needs redis", a.cfg.Registration.LockBackend)
		}
		return numbering.NewRedisLocker(a.redis.Client, a.cfg.Registration.LeaseTTL, a.logger), nil
	case config.LockBackendPostgres:
		if a.db == nil {
			return nil, fmt.Errorf("lock backend %q needs a database", a.cfg.Registration.LockBackend)
		}
		return numbering.NoopLocker{}, nil
	default:
		return numbering.NewMemoryLocker(), nil
	}
}

func (a *app) router() http.Handler {
	httpMetrics := metrics.NewWithRegisterer(a.registry)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.Logger(a.logger))
	r.Use(middleware.Latency(httpMetrics))

	r.Get("/healthz", a.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(actor.RequireActor(a.logger))

		wfhandler.New(a.workflow, a.logger).Register(r)
		reghandler.New(a.registration, a.workflow, a.logger).
			Register(r, admin.RequireAdminToken(a.cfg.Server.AdminToken, a.logger))
	})
	return r
}

type healthResponse struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]func(context.Context) error{}
	if a.db != nil {
		checks["postgres"] = a.db.PingContext
	}
	if a.redis != nil {
		checks["redis"] = a.redis.Health
	}
	if a.producer != nil {
		checks["kafka"] = a.producer.Health
	}

	resp := healthResponse{Status: "ok", Components: make(map[string]string, len(checks))}
	status := http.StatusOK
	for name, check := range checks {
		if err := check(ctx); err != nil {
			a.logger.WarnContext(ctx, "health check failed", "component", name, "error", err)
			resp.Components[name] = "down"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Components[name] = "up"
	}
	httputil.WriteJSON(w, status, resp)
}

func (a *app) close() {
	if a.producer != nil {
		a.producer.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
