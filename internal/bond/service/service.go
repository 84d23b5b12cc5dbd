// Package service implements bond creation, listing and deletion.
//
// Creation runs a fixed pipeline: LEI presence, LEI resolution, full field
// validation, insert. Each stage has its own failure code so callers can tell
// which stage rejected the request.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bondbook/internal/audit"
	"bondbook/internal/bond/metrics"
	"bondbook/internal/bond/models"
	"bondbook/internal/bond/validation"
	"bondbook/internal/lei"
	id "bondbook/pkg/domain"
	dErrors "bondbook/pkg/domain-errors"
	"bondbook/pkg/platform/sentinel"
	"bondbook/pkg/requestcontext"
)

type Store interface {
	Find(ctx context.Context, owner id.OwnerID, filter models.Filter) ([]*models.Bond, error)
	Insert(ctx context.Context, bond *models.Bond) error
	DeleteByKey(ctx context.Context, owner id.OwnerID, isin string) error
}

type Resolver interface {
	Resolve(ctx context.Context, code string) lei.Result
}

type Validator interface {
	ValidateBond(c *models.Candidate) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const (
	msgLEIMissing  = "LEI must be present"
	msgLEIUnknown  = "entity with this LEI does not exist"
	msgDuplicate   = "duplicate ISIN for this owner"
	msgUnavailable = "LEI lookup service is unavailable"
	msgAborted     = "request aborted before completion"
	msgInvalidBond = "invalid bond"
)

// Service orchestrates bond persistence around LEI resolution.
type Service struct {
	store          Store
	resolver       Resolver
	validator      Validator
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

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

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// New constructs a Service.
func New(store Store, resolver Resolver, validator Validator, opts ...Option) *Service {
	s := &Service{
		store:     store,
		resolver:  resolver,
		validator: validator,
		tracer:    otel.Tracer("bondbook/bond"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create runs the creation pipeline for owner and returns the stored bond.
// legal_name is always taken from the LEI lookup, never from the candidate.
func (s *Service) Create(ctx context.Context, owner id.OwnerID, c *models.Candidate) (*models.Bond, error) {
	ctx, span := s.tracer.Start(ctx, "bond.create")
	defer span.End()
	start := time.Now()

	bond, err := s.create(ctx, owner, c)

	s.metrics.ObserveCreateLatency(time.Since(start))
	if err != nil {
		code := dErrors.CodeInternal
		if de, ok := dErrors.As(err); ok {
			code = de.Code
		}
		s.metrics.IncrementCreateFailure(string(code))
		span.SetAttributes(attribute.String("error.code", string(code)))
		span.SetStatus(codes.Error, string(code))
		return nil, err
	}

	span.SetAttributes(attribute.String("bond.isin", bond.ISIN))
	s.metrics.IncrementCreated()
	s.logAudit(ctx, audit.EventBondCreated, bond.Owner, bond.ISIN, bond.LEI)
	return bond, nil
}

func (s *Service) create(ctx context.Context, owner id.OwnerID, c *models.Candidate) (*models.Bond, error) {
	if owner.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing owner")
	}
	if c == nil || !c.HasLEI() {
		return nil, dErrors.New(dErrors.CodeUnprocessable, msgLEIMissing)
	}
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, msgAborted)
	}

	legalName, err := s.resolve(ctx, *c.LEI)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateBond(c); err != nil {
		var fe validation.FieldErrors
		if errors.As(err, &fe) {
			return nil, dErrors.WithFields(dErrors.CodeValidation, msgInvalidBond, fe)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, err.Error())
	}

	bond, err := c.ToBond(owner, legalName)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build bond")
	}
	if err := ctx.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, msgAborted)
	}

	if err := s.store.Insert(ctx, bond); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeBadRequest, msgDuplicate)
		}
		return nil, s.storeError(err, "failed to save bond")
	}
	return bond, nil
}

func (s *Service) resolve(ctx context.Context, leiCode string) (string, error) {
	res := s.resolver.Resolve(ctx, leiCode)
	if err := ctx.Err(); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, msgAborted)
	}

	switch res.Outcome {
	case lei.OutcomeResolved:
		return res.LegalName, nil
	case lei.OutcomeNotFound:
		return "", dErrors.New(dErrors.CodeUnprocessable, msgLEIUnknown)
	case lei.OutcomeRejected:
		return "", dErrors.New(dErrors.CodeBadRequest, res.Message)
	default:
		if s.logger != nil {
			s.logger.WarnContext(ctx, "lei resolution unavailable",
				"lei", leiCode,
				"reason", res.Message,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		return "", dErrors.New(dErrors.CodeUnavailable, msgUnavailable)
	}
}

// List returns the owner's bonds matching filter, ordered by ISIN.
func (s *Service) List(ctx context.Context, owner id.OwnerID, filter models.Filter) ([]*models.Bond, error) {
	ctx, span := s.tracer.Start(ctx, "bond.list")
	defer span.End()

	if owner.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing owner")
	}
	bonds, err := s.store.Find(ctx, owner, filter)
	if err != nil {
		span.SetStatus(codes.Error, "find failed")
		return nil, s.storeError(err, "failed to list bonds")
	}
	span.SetAttributes(attribute.Int("bond.count", len(bonds)))
	return bonds, nil
}

// Delete removes the owner's bond with the given ISIN. Bonds of other owners
// are reported as not found.
func (s *Service) Delete(ctx context.Context, owner id.OwnerID, isin string) error {
	ctx, span := s.tracer.Start(ctx, "bond.delete",
		trace.WithAttributes(attribute.String("bond.isin", isin)),
	)
	defer span.End()

	if owner.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "missing owner")
	}
	if err := s.store.DeleteByKey(ctx, owner, isin); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "bond not found")
		}
		span.SetStatus(codes.Error, "delete failed")
		return s.storeError(err, "failed to delete bond")
	}

	s.metrics.IncrementDeleted()
	s.logAudit(ctx, audit.EventBondDeleted, owner, isin, "")
	return nil
}

// storeError maps an unexpected store failure. Aborted requests surface as
// unavailable rather than internal.
func (s *Service) storeError(err error, msg string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msgAborted)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func (s *Service) logAudit(ctx context.Context, event audit.EventType, owner id.OwnerID, isin, leiCode string) {
	requestID := requestcontext.RequestID(ctx)
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event),
			"owner_id", owner.String(),
			"isin", isin,
			"request_id", requestID,
		)
	}
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Type:      event,
		OwnerID:   owner.String(),
		ISIN:      isin,
		LEI:       leiCode,
		RequestID: requestID,
		Timestamp: requestcontext.Now(ctx),
	})
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"event", event,
			"error", err,
			"request_id", requestID,
		)
	}
}
