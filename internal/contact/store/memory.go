package store

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"contactlink/internal/contact/models"
	"contactlink/internal/contact/service"
	dErrors "contactlink/pkg/domain-errors"
	"contactlink/pkg/platform/sentinel"
)

// InMemoryStore keeps contacts in a map. RunInTx serializes transactions
// behind one mutex and runs each against a private copy of the rows, which
// replaces the shared state only when fn succeeds.
type InMemoryStore struct {
	mu     sync.Mutex
	rows   map[models.ContactID]*models.Contact
	nextID models.ContactID
	opts   options
}

// NewInMemory creates an empty in-memory store.
func NewInMemory(opts ...Option) *InMemoryStore {
	return &InMemoryStore{
		rows:   make(map[models.ContactID]*models.Contact),
		nextID: 1,
		opts:   newOptions(opts),
	}
}

// RunInTx runs fn against a snapshot and commits it if fn returns nil.
func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context, store service.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{
		rows:   make(map[models.ContactID]*models.Contact, len(s.rows)),
		nextID: s.nextID,
		now:    s.opts.now,
	}
	for id, c := range s.rows {
		tx.rows[id] = c.Clone()
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	s.rows = tx.rows
	s.nextID = tx.nextID
	return nil
}

// Put stores c verbatim, bypassing invariant checks. It is meant for loading
// fixtures, including deliberately inconsistent ones.
func (s *InMemoryStore) Put(c *models.Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[c.ID] = c.Clone()
	if c.ID >= s.nextID {
		s.nextID = c.ID + 1
	}
}

// All returns a copy of every stored contact, oldest first.
func (s *InMemoryStore) All() []*models.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedClones(slices.Collect(maps.Values(s.rows)))
}

// memoryTx is the store view handed to one transaction.
type memoryTx struct {
	rows   map[models.ContactID]*models.Contact
	nextID models.ContactID
	now    func() time.Time
}

func (t *memoryTx) FindMatching(_ context.Context, email, phone *string) ([]*models.Contact, error) {
	if email == nil && phone == nil {
		return []*models.Contact{}, nil
	}
	return t.filter(func(c *models.Contact) bool {
		return (email != nil && c.Email != nil && *c.Email == *email) ||
			(phone != nil && c.PhoneNumber != nil && *c.PhoneNumber == *phone)
	}), nil
}

func (t *memoryTx) FindByIDsOrLinkedIDs(_ context.Context, ids, linkedIDs []models.ContactID) ([]*models.Contact, error) {
	keys := make(map[models.ContactID]struct{}, len(ids)+len(linkedIDs))
	for _, id := range ids {
		keys[id] = struct{}{}
	}
	for _, id := range linkedIDs {
		keys[id] = struct{}{}
	}
	return t.filter(func(c *models.Contact) bool {
		if _, ok := keys[c.ID]; ok {
			return true
		}
		if c.LinkedID == nil {
			return false
		}
		_, ok := keys[*c.LinkedID]
		return ok
	}), nil
}

func (t *memoryTx) Create(_ context.Context, in models.NewContact) (*models.Contact, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var parentCreatedAt *time.Time
	if in.LinkedID != nil {
		parent, ok := t.rows[*in.LinkedID]
		if !ok {
			return nil, sentinel.ErrNotFound
		}
		parentCreatedAt = &parent.CreatedAt
	}
	now := createdAtFor(t.now(), parentCreatedAt)
	c := (&models.Contact{
		ID:             t.nextID,
		Email:          in.Email,
		PhoneNumber:    in.PhoneNumber,
		LinkedID:       in.LinkedID,
		LinkPrecedence: in.LinkPrecedence,
		CreatedAt:      now,
		UpdatedAt:      now,
	}).Clone()
	t.rows[c.ID] = c
	t.nextID++
	return c.Clone(), nil
}

func (t *memoryTx) Update(_ context.Context, id models.ContactID, update models.LinkUpdate) error {
	c, ok := t.rows[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if update.LinkedID != nil {
		v := *update.LinkedID
		c.LinkedID = &v
	} else {
		c.LinkedID = nil
	}
	c.LinkPrecedence = update.LinkPrecedence
	c.UpdatedAt = t.now()
	return nil
}

func (t *memoryTx) FindCluster(_ context.Context, primaryID models.ContactID) ([]*models.Contact, error) {
	return t.filter(func(c *models.Contact) bool {
		return c.ID == primaryID || (c.LinkedID != nil && *c.LinkedID == primaryID)
	}), nil
}

func (t *memoryTx) FindLinkViolations(_ context.Context) ([]models.LinkViolation, error) {
	var violations []models.LinkViolation
	for _, c := range sortedByID(t.rows) {
		parentFound, parentPrimary, older := false, false, false
		if c.LinkedID != nil {
			if p, ok := t.rows[*c.LinkedID]; ok {
				parentFound, parentPrimary, older = true, p.IsPrimary(), models.Older(c, p)
			}
		}
		if v, bad := classifyViolation(c.ID, c.LinkedID, c.LinkPrecedence, parentFound, parentPrimary, older); bad {
			violations = append(violations, v)
		}
	}
	return violations, nil
}

func (t *memoryTx) filter(match func(*models.Contact) bool) []*models.Contact {
	out := make([]*models.Contact, 0)
	for _, c := range t.rows {
		if match(c) {
			out = append(out, c)
		}
	}
	return sortedClones(out)
}

func sortedClones(contacts []*models.Contact) []*models.Contact {
	out := make([]*models.Contact, len(contacts))
	for i, c := range contacts {
		out[i] = c.Clone()
	}
	models.SortByAge(out)
	return out
}

func sortedByID(rows map[models.ContactID]*models.Contact) []*models.Contact {
	ids := slices.Sorted(maps.Keys(rows))
	out := make([]*models.Contact, len(ids))
	for i, id := range ids {
		out[i] = rows[id]
	}
	return out
}
