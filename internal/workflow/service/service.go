// Package service is the transaction workflow engine: it moves transactions
// through the rules table, keeps the task trail and gates land record sealing.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"landrec/internal/workflow/metrics"
	"landrec/internal/workflow/rules"
	dErrors "landrec/pkg/domain-errors"
	audit "landrec/pkg/platform/audit"
	"landrec/pkg/platform/sentinel"
)

const defaultPreflightConcurrency = 8

type Service struct {
	tx             StoreTx
	store          Store
	rules          *rules.Table
	landRecords    LandRecords
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	preflight      int
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLandRecords connects the registration side. Without it transactions
// move through the table with no land record gates and cannot be signed.
func WithLandRecords(landRecords LandRecords) Option {
	return func(s *Service) {
		s.landRecords = landRecords
	}
}

// WithPreflightConcurrency bounds the parallel checks of a bulk command.
func WithPreflightConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.preflight = n
		}
	}
}

func New(tx StoreTx, store Store, table *rules.Table, opts ...Option) (*Service, error) {
	s := &Service{
		tx:        tx,
		store:     store,
		rules:     table,
		logger:    slog.Default(),
		tracer:    otel.Tracer("landrec/workflow"),
		preflight: defaultPreflightConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil || s.store == nil {
		return nil, errors.New("workflow store is required")
	}
	if s.rules == nil {
		return nil, errors.New("workflow rules are required")
	}
	return s, nil
}

// Rules exposes the loaded table.
func (s *Service) Rules() *rules.Table {
	return s.rules
}

func (s *Service) emit(ctx context.Context, event audit.Event) error {
	if s.auditPublisher == nil {
		return nil
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record audit event")
	}
	return nil
}

func notFound(err error, what string) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+what)
}

func internal(err error, msg string) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
