package service

import (
	"context"

	"contactlink/internal/contact/models"
	dErrors "contactlink/pkg/domain-errors"
	"contactlink/pkg/requestcontext"
)

// Lookup returns the identities the pair currently belongs to without
// creating or relinking anything. Unmerged clusters come back separately,
// oldest primary first. No match yields an empty slice.
func (s *Service) Lookup(ctx context.Context, in IdentifyInput) ([]*models.Identity, error) {
	ctx, span := s.tracer.Start(ctx, "contact.Lookup")
	defer span.End()

	in = in.Normalize()
	if in.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeBadRequest, ErrMsgMissingContactInfo)
	}

	var identities []*models.Identity
	err := s.tx.RunInTx(ctx, func(ctx context.Context, store Store) error {
		identities = nil
		matches, err := store.FindMatching(ctx, in.Email, in.PhoneNumber)
		if err != nil {
			return storeFailure(err, "find matching contacts")
		}
		if len(matches) == 0 {
			return nil
		}
		related, err := s.expandCluster(ctx, store, matches)
		if err != nil {
			return err
		}
		for _, c := range related {
			if !c.IsPrimary() {
				continue
			}
			members, err := store.FindCluster(ctx, c.ID)
			if err != nil {
				return storeFailure(err, "load cluster")
			}
			identity, err := models.BuildIdentity(c.ID, members)
			if err != nil {
				return err
			}
			identities = append(identities, identity)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		s.logger.ErrorContext(ctx, "lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return nil, err
	}
	if identities == nil {
		identities = []*models.Identity{}
	}
	return identities, nil
}

// CheckIntegrity lists stored rows that break the star shape. It never
// repairs anything; identify calls touching an affected cluster do that.
func (s *Service) CheckIntegrity(ctx context.Context) ([]models.LinkViolation, error) {
	ctx, span := s.tracer.Start(ctx, "contact.CheckIntegrity")
	defer span.End()

	var violations []models.LinkViolation
	err := s.tx.RunInTx(ctx, func(ctx context.Context, store Store) error {
		var err error
		violations, err = store.FindLinkViolations(ctx)
		if err != nil {
			return storeFailure(err, "find link violations")
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.metrics.SetIntegrityViolations(len(violations))
	if len(violations) > 0 {
		s.logger.WarnContext(ctx, "contact link violations found", "count", len(violations))
	}
	return violations, nil
}
