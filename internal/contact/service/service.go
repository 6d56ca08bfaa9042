package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"contactlink/internal/contact/metrics"
	"contactlink/internal/contact/models"
)

// Store is the contact persistence port. Every method runs against the
// transaction the caller obtained from ContactStoreTx.
type Store interface {
	// FindMatching returns contacts whose email equals email OR whose phone
	// number equals phone. A nil argument drops its predicate.
	FindMatching(ctx context.Context, email, phone *string) ([]*models.Contact, error)
	// FindByIDsOrLinkedIDs returns contacts whose id or linked id is in ids or linkedIDs.
	FindByIDsOrLinkedIDs(ctx context.Context, ids, linkedIDs []models.ContactID) ([]*models.Contact, error)
	Create(ctx context.Context, contact models.NewContact) (*models.Contact, error)
	Update(ctx context.Context, id models.ContactID, update models.LinkUpdate) error
	// FindCluster returns the contact primaryID and every contact linked to it.
	FindCluster(ctx context.Context, primaryID models.ContactID) ([]*models.Contact, error)
	FindLinkViolations(ctx context.Context) ([]models.LinkViolation, error)
}

// ContactStoreTx provides the transactional boundary for one identify call.
// Implementations may retry fn on transient conflicts, so fn must not keep
// state across invocations.
type ContactStoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

// KeyLocker serializes requests that share an email or phone number.
type KeyLocker interface {
	Lock(ctx context.Context, keys []string) (unlock func(), err error)
}

const defaultMaxExpansionHops = 32

// Service reconciles submitted (email, phone) pairs into identity clusters.
type Service struct {
	tx      ContactStoreTx
	locker  KeyLocker
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	maxHops int
}

// Option configures a Service.
type Option func(*Service)

// WithLocker enables per-key serialization of identify calls.
func WithLocker(locker KeyLocker) Option {
	return func(s *Service) {
		s.locker = locker
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithMaxExpansionHops bounds the breadth-first cluster expansion.
func WithMaxExpansionHops(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxHops = n
		}
	}
}

// New constructs a Service around the transactional store boundary.
func New(tx ContactStoreTx, opts ...Option) (*Service, error) {
	if tx == nil {
		return nil, errors.New("contact store transaction is required")
	}
	s := &Service{
		tx:      tx,
		logger:  slog.Default(),
		tracer:  otel.Tracer("contactlink/internal/contact/service"),
		maxHops: defaultMaxExpansionHops,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// IdentifyInput is one submitted contact pair. Nil means "not supplied".
type IdentifyInput struct {
	Email       *string
	PhoneNumber *string
}

// Normalize trims both fields and turns blank values into absent ones.
func (in IdentifyInput) Normalize() IdentifyInput {
	return IdentifyInput{Email: normalizeField(in.Email), PhoneNumber: normalizeField(in.PhoneNumber)}
}

// IsEmpty reports whether neither field is supplied.
func (in IdentifyInput) IsEmpty() bool {
	return in.Email == nil && in.PhoneNumber == nil
}

// LockKeys returns the serialization keys for the supplied fields.
func (in IdentifyInput) LockKeys() []string {
	keys := make([]string, 0, 2)
	if in.Email != nil {
		keys = append(keys, "email:"+*in.Email)
	}
	if in.PhoneNumber != nil {
		keys = append(keys, "phone:"+*in.PhoneNumber)
	}
	return keys
}

func normalizeField(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
