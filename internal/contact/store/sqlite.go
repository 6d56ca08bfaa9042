package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"contactlink/internal/contact/models"
	"contactlink/pkg/platform/tx"
)

// SQLiteStore persists contacts in a SQLite file. Timestamps are stored as
// Unix nanoseconds so ordering by created_at is exact.
type SQLiteStore struct {
	db   *sql.DB
	opts options
}

// NewSQLite constructs a SQLite-backed contact store.
func NewSQLite(db *sql.DB, opts ...Option) *SQLiteStore {
	return &SQLiteStore{db: db, opts: newOptions(opts)}
}

func (s *SQLiteStore) FindMatching(ctx context.Context, email, phone *string) ([]*models.Contact, error) {
	var (
		preds []string
		args  []any
	)
	if email != nil {
		preds = append(preds, "email = ?")
		args = append(args, *email)
	}
	if phone != nil {
		preds = append(preds, "phone_number = ?")
		args = append(args, *phone)
	}
	if len(preds) == 0 {
		return []*models.Contact{}, nil
	}
	query := "SELECT " + contactColumns + " FROM contacts WHERE " + strings.Join(preds, " OR ") +
		" ORDER BY created_at, id"
	return s.query(ctx, "find matching contacts", query, args...)
}

func (s *SQLiteStore) FindByIDsOrLinkedIDs(ctx context.Context, ids, linkedIDs []models.ContactID) ([]*models.Contact, error) {
	keys := make([]models.ContactID, 0, len(ids)+len(linkedIDs))
	keys = append(append(keys, ids...), linkedIDs...)
	if len(keys) == 0 {
		return []*models.Contact{}, nil
	}
	in, args := inClause(keys)
	query := "SELECT " + contactColumns + " FROM contacts WHERE id IN " + in + " OR linked_id IN " + in +
		" ORDER BY created_at, id"
	return s.query(ctx, "find contacts by ids", query, append(args, args...)...)
}

func (s *SQLiteStore) Create(ctx context.Context, in models.NewContact) (*models.Contact, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	conn := tx.Conn(ctx, s.db)
	var parentCreatedAt *time.Time
	if in.LinkedID != nil {
		var nanos int64
		err := conn.QueryRowContext(ctx, `SELECT created_at FROM contacts WHERE id = ?`, int64(*in.LinkedID)).Scan(&nanos)
		if err != nil {
			return nil, parentLookupError(*in.LinkedID, err)
		}
		created := time.Unix(0, nanos).UTC()
		parentCreatedAt = &created
	}
	now := createdAtFor(s.opts.now(), parentCreatedAt)
	res, err := conn.ExecContext(ctx, `
		INSERT INTO contacts (email, phone_number, linked_id, link_precedence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		nullString(in.Email), nullString(in.PhoneNumber), nullID(in.LinkedID), string(in.LinkPrecedence),
		now.UnixNano(), now.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return createdContact(models.ContactID(id), in, time.Unix(0, now.UnixNano()).UTC()), nil
}

func (s *SQLiteStore) Update(ctx context.Context, id models.ContactID, update models.LinkUpdate) error {
	res, err := tx.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE contacts SET linked_id = ?, link_precedence = ?, updated_at = ?
		WHERE id = ?`,
		nullID(update.LinkedID), string(update.LinkPrecedence), s.opts.now().UnixNano(), int64(id),
	)
	if err != nil {
		return fmt.Errorf("update contact %d: %w", id, err)
	}
	return requireAffected(res, id)
}

func (s *SQLiteStore) FindCluster(ctx context.Context, primaryID models.ContactID) ([]*models.Contact, error) {
	const query = "SELECT " + contactColumns + " FROM contacts WHERE id = ? OR linked_id = ? ORDER BY created_at, id"
	return s.query(ctx, "find cluster", query, int64(primaryID), int64(primaryID))
}

func (s *SQLiteStore) FindLinkViolations(ctx context.Context) ([]models.LinkViolation, error) {
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx, linkViolationQuery)
	if err != nil {
		return nil, fmt.Errorf("find link violations: %w", err)
	}
	return scanViolations(rows)
}

func (s *SQLiteStore) query(ctx context.Context, op, query string, args ...any) ([]*models.Contact, error) {
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]*models.Contact, 0)
	for rows.Next() {
		var (
			c          models.Contact
			email      sql.NullString
			phone      sql.NullString
			linkedID   sql.NullInt64
			precedence string
			createdAt  int64
			updatedAt  int64
		)
		if err := rows.Scan(&c.ID, &email, &phone, &linkedID, &precedence, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		c.Email, c.PhoneNumber, c.LinkedID = fromNullString(email), fromNullString(phone), fromNullID(linkedID)
		c.LinkPrecedence = models.LinkPrecedence(precedence)
		c.CreatedAt, c.UpdatedAt = time.Unix(0, createdAt).UTC(), time.Unix(0, updatedAt).UTC()
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func inClause(ids []models.ContactID) (string, []any) {
	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args[i] = int64(id)
	}
	return "(" + strings.Join(marks, ", ") + ")", args
}
