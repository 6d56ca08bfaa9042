package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"contactlink/internal/contact/metrics"
	"contactlink/internal/contact/models"
	dErrors "contactlink/pkg/domain-errors"
	"contactlink/pkg/platform/sentinel"
	"contactlink/pkg/requestcontext"
)

// ErrMsgMissingContactInfo is returned when neither field is supplied.
const ErrMsgMissingContactInfo = "Provide at least email or phoneNumber"

// identifyResult is what one run of the pipeline produced inside a transaction.
type identifyResult struct {
	identity  *models.Identity
	outcome   string
	relinked  int
	secondary bool
}

// Identify reconciles the submitted pair against stored contacts and returns
// the consolidated identity of the cluster it belongs to. Creating, linking
// and merging all happen in a single store transaction.
func (s *Service) Identify(ctx context.Context, in IdentifyInput) (*models.Identity, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "contact.Identify")
	defer span.End()

	in = in.Normalize()
	span.SetAttributes(
		attribute.Bool("contact.has_email", in.Email != nil),
		attribute.Bool("contact.has_phone", in.PhoneNumber != nil),
	)
	if in.IsEmpty() {
		s.metrics.IncrementOutcome(metrics.OutcomeRejected)
		return nil, dErrors.New(dErrors.CodeBadRequest, ErrMsgMissingContactInfo)
	}

	unlock, err := s.lock(ctx, in)
	if err != nil {
		return nil, s.fail(ctx, span, start, err)
	}
	defer unlock()

	var result identifyResult
	err = s.tx.RunInTx(ctx, func(ctx context.Context, store Store) error {
		var runErr error
		result, runErr = s.identify(ctx, store, in)
		return runErr
	})
	if errors.Is(err, sentinel.ErrConflict) {
		err = dErrors.Wrap(err, dErrors.CodeConflict, "contact update kept conflicting with concurrent requests")
	}
	if err != nil {
		return nil, s.fail(ctx, span, start, err)
	}

	s.metrics.IncrementOutcome(result.outcome)
	s.metrics.AddDemotions(result.relinked)
	s.metrics.ObserveIdentifyLatency(time.Since(start))
	span.SetAttributes(
		attribute.String("contact.outcome", result.outcome),
		attribute.Int64("contact.primary_id", int64(result.identity.PrimaryContactID)),
		attribute.Int("contact.relinked", result.relinked),
	)
	s.logger.InfoContext(ctx, "identify completed",
		"request_id", requestcontext.RequestID(ctx),
		"outcome", result.outcome,
		"primary_contact_id", result.identity.PrimaryContactID,
		"relinked", result.relinked,
		"created_secondary", result.secondary,
	)
	return result.identity, nil
}

func (s *Service) identify(ctx context.Context, store Store, in IdentifyInput) (identifyResult, error) {
	matches, err := store.FindMatching(ctx, in.Email, in.PhoneNumber)
	if err != nil {
		return identifyResult{}, storeFailure(err, "find matching contacts")
	}

	if len(matches) == 0 {
		created, err := store.Create(ctx, models.NewPrimary(in.Email, in.PhoneNumber))
		if err != nil {
			return identifyResult{}, storeFailure(err, "create primary contact")
		}
		return identifyResult{
			identity: models.SingleIdentity(created),
			outcome:  metrics.OutcomeCreatedPrimary,
		}, nil
	}

	cluster, err := s.expandCluster(ctx, store, matches)
	if err != nil {
		return identifyResult{}, err
	}

	primary, relinked, err := s.resolvePrimary(ctx, store, cluster)
	if err != nil {
		return identifyResult{}, err
	}

	createdSecondary := false
	if needsNewSecondary(in, cluster) {
		if _, err := store.Create(ctx, models.NewSecondary(in.Email, in.PhoneNumber, primary.ID)); err != nil {
			return identifyResult{}, storeFailure(err, "create secondary contact")
		}
		createdSecondary = true
	}

	final, err := store.FindCluster(ctx, primary.ID)
	if err != nil {
		return identifyResult{}, storeFailure(err, "load final cluster")
	}
	identity, err := models.BuildIdentity(primary.ID, final)
	if err != nil {
		return identifyResult{}, err
	}

	outcome := metrics.OutcomeUnchanged
	switch {
	case relinked > 0:
		outcome = metrics.OutcomeMerged
	case createdSecondary:
		outcome = metrics.OutcomeLinkedSecondary
	}
	return identifyResult{
		identity:  identity,
		outcome:   outcome,
		relinked:  relinked,
		secondary: createdSecondary,
	}, nil
}

// needsNewSecondary reports whether the request carries a value the cluster
// has never seen. Absent fields never count as new.
func needsNewSecondary(in IdentifyInput, cluster []*models.Contact) bool {
	emailKnown := in.Email == nil
	phoneKnown := in.PhoneNumber == nil
	for _, c := range cluster {
		if !emailKnown && c.Email != nil && *c.Email == *in.Email {
			emailKnown = true
		}
		if !phoneKnown && c.PhoneNumber != nil && *c.PhoneNumber == *in.PhoneNumber {
			phoneKnown = true
		}
		if emailKnown && phoneKnown {
			return false
		}
	}
	return true
}

func (s *Service) lock(ctx context.Context, in IdentifyInput) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	unlock, err := s.locker.Lock(ctx, in.LockKeys())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "timed out waiting for contact lock")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "acquire contact lock")
	}
	return unlock, nil
}

// fail records a failed identify call and returns err unchanged.
func (s *Service) fail(ctx context.Context, span trace.Span, start time.Time, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "identify failed")
	s.metrics.ObserveIdentifyLatency(time.Since(start))
	if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		s.metrics.IncrementInvariantViolations()
	}
	s.metrics.IncrementOutcome(metrics.OutcomeFailed)
	s.logger.ErrorContext(ctx, "identify failed",
		"request_id", requestcontext.RequestID(ctx),
		"code", dErrors.CodeOf(err),
		"error", err,
	)
	return err
}

// storeFailure wraps an unexpected store error. Errors that already carry a
// code pass through so the transport keeps their classification.
func storeFailure(err error, op string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, op)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, op)
}
