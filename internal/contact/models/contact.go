package models

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	dErrors "contactlink/pkg/domain-errors"
)

// ContactID is the store-assigned, monotonically increasing contact identifier.
type ContactID int64

func (id ContactID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// LinkPrecedence marks a contact as the canonical record of its cluster or as
// a pointer to it.
type LinkPrecedence string

const (
	LinkPrecedencePrimary   LinkPrecedence = "primary"
	LinkPrecedenceSecondary LinkPrecedence = "secondary"
)

// IsValid reports whether p is one of the known precedences.
func (p LinkPrecedence) IsValid() bool {
	return p == LinkPrecedencePrimary || p == LinkPrecedenceSecondary
}

// Contact is one submitted (email, phone) record. A nil Email or PhoneNumber
// means the field was not supplied; the empty string is never stored.
type Contact struct {
	ID             ContactID
	Email          *string
	PhoneNumber    *string
	LinkedID       *ContactID
	LinkPrecedence LinkPrecedence
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsPrimary reports whether c is the canonical record of its cluster.
func (c *Contact) IsPrimary() bool {
	return c.LinkPrecedence == LinkPrecedencePrimary
}

// LinkedTo reports whether c is already a secondary pointing at primaryID.
func (c *Contact) LinkedTo(primaryID ContactID) bool {
	return c.LinkPrecedence == LinkPrecedenceSecondary && c.LinkedID != nil && *c.LinkedID == primaryID
}

// Validate checks the row-level invariants every stored contact must satisfy.
func (c *Contact) Validate() error {
	if c.Email == nil && c.PhoneNumber == nil {
		return invariantf("contact %d has neither email nor phone number", c.ID)
	}
	switch c.LinkPrecedence {
	case LinkPrecedencePrimary:
		if c.LinkedID != nil {
			return invariantf("primary contact %d has linked id %d", c.ID, *c.LinkedID)
		}
	case LinkPrecedenceSecondary:
		if c.LinkedID == nil {
			return invariantf("secondary contact %d has no linked id", c.ID)
		}
		if *c.LinkedID == c.ID {
			return invariantf("contact %d is linked to itself", c.ID)
		}
	default:
		return invariantf("contact %d has unknown link precedence %q", c.ID, c.LinkPrecedence)
	}
	return nil
}

// Clone returns a deep copy so callers can mutate without aliasing store state.
func (c *Contact) Clone() *Contact {
	out := *c
	if c.Email != nil {
		v := *c.Email
		out.Email = &v
	}
	if c.PhoneNumber != nil {
		v := *c.PhoneNumber
		out.PhoneNumber = &v
	}
	if c.LinkedID != nil {
		v := *c.LinkedID
		out.LinkedID = &v
	}
	return &out
}

// NewContact is the input for creating a contact. The store assigns ID,
// CreatedAt and UpdatedAt.
type NewContact struct {
	Email          *string
	PhoneNumber    *string
	LinkedID       *ContactID
	LinkPrecedence LinkPrecedence
}

// NewPrimary builds the input for a fresh primary contact.
func NewPrimary(email, phone *string) NewContact {
	return NewContact{Email: email, PhoneNumber: phone, LinkPrecedence: LinkPrecedencePrimary}
}

// NewSecondary builds the input for a fresh secondary linked to primaryID.
func NewSecondary(email, phone *string, primaryID ContactID) NewContact {
	return NewContact{Email: email, PhoneNumber: phone, LinkedID: &primaryID, LinkPrecedence: LinkPrecedenceSecondary}
}

// Validate rejects inputs that would violate the contact invariants once stored.
func (n NewContact) Validate() error {
	if n.Email == nil && n.PhoneNumber == nil {
		return dErrors.New(dErrors.CodeBadRequest, "contact requires an email or phone number")
	}
	if !n.LinkPrecedence.IsValid() {
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown link precedence %q", n.LinkPrecedence))
	}
	if (n.LinkPrecedence == LinkPrecedenceSecondary) != (n.LinkedID != nil) {
		return dErrors.New(dErrors.CodeBadRequest, "linked id must be set exactly for secondary contacts")
	}
	return nil
}

// LinkUpdate is the partial update applied when a contact is re-parented.
type LinkUpdate struct {
	LinkedID       *ContactID
	LinkPrecedence LinkPrecedence
}

// SecondaryOf is the update that turns a contact into a secondary of primaryID.
func SecondaryOf(primaryID ContactID) LinkUpdate {
	return LinkUpdate{LinkedID: &primaryID, LinkPrecedence: LinkPrecedenceSecondary}
}

// Older reports whether a sorts before b in primary-selection order:
// earliest CreatedAt, ties broken by the smaller id.
func Older(a, b *Contact) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// SelectPrimary returns the contact that must be primary for the given set,
// or nil for an empty set.
func SelectPrimary(contacts []*Contact) *Contact {
	var primary *Contact
	for _, c := range contacts {
		if primary == nil || Older(c, primary) {
			primary = c
		}
	}
	return primary
}

// SortByAge orders contacts oldest first, the order stores return rows in.
func SortByAge(contacts []*Contact) {
	slices.SortFunc(contacts, func(a, b *Contact) int {
		switch {
		case Older(a, b):
			return -1
		case Older(b, a):
			return 1
		default:
			return 0
		}
	})
}

func invariantf(format string, args ...any) error {
	return dErrors.New(dErrors.CodeInvariantViolation, fmt.Sprintf(format, args...))
}
