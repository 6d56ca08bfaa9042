// Package store persists contacts. Every backend offers the same
// transactional view through RunInTx; queries return rows ordered by
// creation time, ties broken by id.
package store

import (
	"time"

	"contactlink/internal/contact/models"
)

// Option configures a store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the clock used to stamp CreatedAt and UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func newOptions(opts []Option) options {
	o := options{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// createdAtFor stamps a new row. A secondary is never stamped before its
// parent, so a clock that steps back cannot make it the oldest member.
func createdAtFor(now time.Time, parentCreatedAt *time.Time) time.Time {
	if parentCreatedAt != nil && now.Before(*parentCreatedAt) {
		return *parentCreatedAt
	}
	return now
}

// classifyViolation names the broken invariant for a row found by an
// integrity query. parentFound and parentPrimary describe the row linkedID
// points at; olderThanParent reports the row sorting before it by age.
func classifyViolation(id models.ContactID, linkedID *models.ContactID, precedence models.LinkPrecedence, parentFound, parentPrimary, olderThanParent bool) (models.LinkViolation, bool) {
	v := models.LinkViolation{ContactID: id, LinkedID: linkedID}
	switch {
	case precedence == models.LinkPrecedencePrimary && linkedID != nil:
		v.Reason = models.ReasonPrimaryLinked
	case precedence == models.LinkPrecedenceSecondary && linkedID == nil:
		v.Reason = models.ReasonSecondaryUnlinked
	case precedence == models.LinkPrecedenceSecondary && !parentFound:
		v.Reason = models.ReasonLinkedToMissing
	case precedence == models.LinkPrecedenceSecondary && !parentPrimary:
		v.Reason = models.ReasonLinkedToSecondary
	case precedence == models.LinkPrecedenceSecondary && olderThanParent:
		v.Reason = models.ReasonOlderThanPrimary
	default:
		return models.LinkViolation{}, false
	}
	return v, true
}

func toInt64s(ids []models.ContactID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}
