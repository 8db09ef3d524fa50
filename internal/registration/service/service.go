// Package service is the registration core: the recording act engine, the
// land record lifecycle and the tract queries built on them.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"landrec/internal/registration/catalog"
	"landrec/internal/registration/metrics"
	"landrec/internal/registration/numbering"
	"landrec/internal/registration/seal"
	dErrors "landrec/pkg/domain-errors"
	audit "landrec/pkg/platform/audit"
	"landrec/pkg/platform/sentinel"
)

// Service orchestrates registration against one store.
type Service struct {
	tx             StoreTx
	store          Store
	catalog        *catalog.Catalog
	locker         numbering.Locker
	signer         seal.Signer
	transactions   TransactionReader
	esignEnabled   bool
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
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

// WithLocker replaces the in-process book locker, e.g. with a Redis lease
// shared by several server instances.
func WithLocker(locker numbering.Locker) Option {
	return func(s *Service) {
		s.locker = locker
	}
}

func WithSigner(signer seal.Signer) Option {
	return func(s *Service) {
		s.signer = signer
	}
}

// WithManualSealing switches the office to operator-entered signatures.
func WithManualSealing() Option {
	return func(s *Service) {
		s.esignEnabled = false
	}
}

func WithTransactionReader(reader TransactionReader) Option {
	return func(s *Service) {
		s.transactions = reader
	}
}

// New constructs a Service. Electronic sealing is on by default and needs a
// signer.
func New(tx StoreTx, store Store, types *catalog.Catalog, opts ...Option) (*Service, error) {
	s := &Service{
		tx:           tx,
		store:        store,
		catalog:      types,
		locker:       numbering.NewMemoryLocker(),
		esignEnabled: true,
		logger:       slog.Default(),
		tracer:       otel.Tracer("landrec/registration"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil || s.store == nil {
		return nil, errors.New("registration store is required")
	}
	if s.catalog == nil {
		return nil, errors.New("act type catalog is required")
	}
	if s.esignEnabled && s.signer == nil {
		return nil, errors.New("electronic sealing requires a signer")
	}
	return s, nil
}

// ESignEnabled reports the office sealing mode.
func (s *Service) ESignEnabled() bool {
	return s.esignEnabled
}

// Catalog exposes the loaded act types.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
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

// notFound translates a store miss into a coded error and passes coded
// errors through untouched.
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

// internal wraps uncoded store failures.
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
