package models

import (
	"fmt"

	pstrings "contactlink/pkg/platform/strings"
)

// Identity is the consolidated view of one cluster.
type Identity struct {
	PrimaryContactID    ContactID
	Emails              []string
	PhoneNumbers        []string
	SecondaryContactIDs []ContactID
}

// SingleIdentity is the view of a cluster holding only a freshly created primary.
func SingleIdentity(primary *Contact) *Identity {
	identity := &Identity{
		PrimaryContactID:    primary.ID,
		Emails:              []string{},
		PhoneNumbers:        []string{},
		SecondaryContactIDs: []ContactID{},
	}
	if primary.Email != nil {
		identity.Emails = append(identity.Emails, *primary.Email)
	}
	if primary.PhoneNumber != nil {
		identity.PhoneNumbers = append(identity.PhoneNumbers, *primary.PhoneNumber)
	}
	return identity
}

// BuildIdentity assembles the consolidated view of a settled cluster. members
// must contain the primary and every contact linked to it, in retrieval
// order. The primary's email and phone come first, then the remaining values
// in retrieval order, each value once.
//
// It fails with an invariant violation unless the cluster is a valid star:
// exactly one primary (primaryID) and every other member linked to it.
func BuildIdentity(primaryID ContactID, members []*Contact) (*Identity, error) {
	var primary *Contact
	for _, c := range members {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if c.IsPrimary() {
			if c.ID != primaryID {
				return nil, invariantf("cluster of %d has second primary %d", primaryID, c.ID)
			}
			primary = c
			continue
		}
		if !c.LinkedTo(primaryID) {
			return nil, invariantf("contact %d in cluster of %d is linked to %d", c.ID, primaryID, *c.LinkedID)
		}
	}
	if primary == nil {
		return nil, invariantf("cluster of %d has no primary", primaryID)
	}

	emails := make([]*string, 0, len(members))
	phones := make([]*string, 0, len(members))
	emails = append(emails, primary.Email)
	phones = append(phones, primary.PhoneNumber)
	secondaryIDs := make([]ContactID, 0, len(members)-1)
	for _, c := range members {
		if c.ID == primaryID {
			continue
		}
		emails = append(emails, c.Email)
		phones = append(phones, c.PhoneNumber)
		secondaryIDs = append(secondaryIDs, c.ID)
	}

	return &Identity{
		PrimaryContactID:    primaryID,
		Emails:              pstrings.Dedupe(pstrings.Deref(emails)),
		PhoneNumbers:        pstrings.Dedupe(pstrings.Deref(phones)),
		SecondaryContactIDs: secondaryIDs,
	}, nil
}

// LinkViolation is a star-topology defect found by the integrity sweep.
type LinkViolation struct {
	ContactID ContactID
	LinkedID  *ContactID
	Reason    string
}

func (v LinkViolation) String() string {
	if v.LinkedID == nil {
		return fmt.Sprintf("contact %d: %s", v.ContactID, v.Reason)
	}
	return fmt.Sprintf("contact %d -> %d: %s", v.ContactID, *v.LinkedID, v.Reason)
}

// Violation reasons reported by stores.
const (
	ReasonLinkedToSecondary = "linked to a secondary contact"
	ReasonLinkedToMissing   = "linked to a missing contact"
	ReasonSecondaryUnlinked = "secondary without linked id"
	ReasonPrimaryLinked     = "primary with linked id"
	ReasonOlderThanPrimary  = "secondary created before its primary"
)
