package service

import (
	"context"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"

	"contactlink/internal/contact/models"
	dErrors "contactlink/pkg/domain-errors"
	"contactlink/pkg/requestcontext"
)

// expandCluster grows the matched contacts into the full related set. The
// first hop asks for rows whose id or linked id is among the matches' ids
// and linked ids; later hops repeat with whatever ids turned up new, so
// chains left behind by earlier merges are still reached.
func (s *Service) expandCluster(ctx context.Context, store Store, matches []*models.Contact) ([]*models.Contact, error) {
	members := make(map[models.ContactID]*models.Contact, len(matches))
	queried := mapset.NewThreadUnsafeSet[models.ContactID]()

	ids := make([]models.ContactID, 0, len(matches))
	linkedIDs := make([]models.ContactID, 0, len(matches))
	for _, c := range matches {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		members[c.ID] = c
		ids = append(ids, c.ID)
		if c.LinkedID != nil {
			linkedIDs = append(linkedIDs, *c.LinkedID)
		}
	}

	for hop := 1; len(ids)+len(linkedIDs) > 0; hop++ {
		if hop > s.maxHops {
			return nil, dErrors.New(dErrors.CodeInvariantViolation,
				fmt.Sprintf("cluster expansion did not settle within %d hops", s.maxHops))
		}
		queried.Append(ids...)
		queried.Append(linkedIDs...)

		rows, err := store.FindByIDsOrLinkedIDs(ctx, ids, linkedIDs)
		if err != nil {
			return nil, storeFailure(err, "expand cluster")
		}

		next := mapset.NewThreadUnsafeSet[models.ContactID]()
		for _, c := range rows {
			if err := c.Validate(); err != nil {
				return nil, err
			}
			if _, seen := members[c.ID]; !seen {
				members[c.ID] = c
			}
			if !queried.Contains(c.ID) {
				next.Add(c.ID)
			}
			if c.LinkedID != nil && !queried.Contains(*c.LinkedID) {
				next.Add(*c.LinkedID)
			}
		}
		if hop > 2 && next.Cardinality() > 0 {
			s.logger.WarnContext(ctx, "cluster expansion following stale links",
				"request_id", requestcontext.RequestID(ctx),
				"hop", hop,
				"pending", next.Cardinality(),
			)
		}
		ids, linkedIDs = next.ToSlice(), nil
	}

	cluster := make([]*models.Contact, 0, len(members))
	for _, c := range members {
		cluster = append(cluster, c)
	}
	models.SortByAge(cluster)
	return cluster, nil
}

// resolvePrimary keeps the oldest contact of the cluster as primary and
// points every other member directly at it. Members already linked to the
// winner are left untouched. It returns the winner and the number of rows
// it had to rewrite.
func (s *Service) resolvePrimary(ctx context.Context, store Store, cluster []*models.Contact) (*models.Contact, int, error) {
	primary := models.SelectPrimary(cluster)
	if primary == nil {
		return nil, 0, dErrors.New(dErrors.CodeInvariantViolation, "cluster has no members")
	}
	if !primary.IsPrimary() {
		return nil, 0, dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("oldest contact %d of cluster is not a primary", primary.ID))
	}

	relinked := 0
	update := models.SecondaryOf(primary.ID)
	for _, c := range cluster {
		if c.ID == primary.ID || c.LinkedTo(primary.ID) {
			continue
		}
		if err := store.Update(ctx, c.ID, update); err != nil {
			return nil, 0, storeFailure(err, fmt.Sprintf("relink contact %d", c.ID))
		}
		s.logger.DebugContext(ctx, "contact relinked",
			"request_id", requestcontext.RequestID(ctx),
			"contact_id", c.ID,
			"was_primary", c.IsPrimary(),
			"primary_contact_id", primary.ID,
		)
		c.LinkPrecedence = update.LinkPrecedence
		c.LinkedID = update.LinkedID
		relinked++
	}
	return primary, relinked, nil
}
