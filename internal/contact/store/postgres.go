package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"contactlink/internal/contact/models"
	"contactlink/pkg/platform/sentinel"
	"contactlink/pkg/platform/tx"
)

const contactColumns = "id, email, phone_number, linked_id, link_precedence, created_at, updated_at"

// PostgresStore persists contacts in PostgreSQL. Queries run on the
// transaction carried by ctx when there is one.
type PostgresStore struct {
	db   *sql.DB
	opts options
}

// NewPostgres constructs a PostgreSQL-backed contact store.
func NewPostgres(db *sql.DB, opts ...Option) *PostgresStore {
	return &PostgresStore{db: db, opts: newOptions(opts)}
}

func (s *PostgresStore) FindMatching(ctx context.Context, email, phone *string) ([]*models.Contact, error) {
	var (
		preds []string
		args  []any
	)
	if email != nil {
		args = append(args, *email)
		preds = append(preds, fmt.Sprintf("email = $%d", len(args)))
	}
	if phone != nil {
		args = append(args, *phone)
		preds = append(preds, fmt.Sprintf("phone_number = $%d", len(args)))
	}
	if len(preds) == 0 {
		return []*models.Contact{}, nil
	}
	query := "SELECT " + contactColumns + " FROM contacts WHERE " + strings.Join(preds, " OR ") +
		" ORDER BY created_at, id"
	return s.query(ctx, "find matching contacts", query, args...)
}

func (s *PostgresStore) FindByIDsOrLinkedIDs(ctx context.Context, ids, linkedIDs []models.ContactID) ([]*models.Contact, error) {
	if len(ids)+len(linkedIDs) == 0 {
		return []*models.Contact{}, nil
	}
	const query = "SELECT " + contactColumns + ` FROM contacts
		WHERE id = ANY($1::bigint[]) OR id = ANY($2::bigint[])
		   OR linked_id = ANY($1::bigint[]) OR linked_id = ANY($2::bigint[])
		ORDER BY created_at, id`
	return s.query(ctx, "find contacts by ids", query, pq.Array(toInt64s(ids)), pq.Array(toInt64s(linkedIDs)))
}

func (s *PostgresStore) Create(ctx context.Context, in models.NewContact) (*models.Contact, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	conn := tx.Conn(ctx, s.db)
	var parentCreatedAt *time.Time
	if in.LinkedID != nil {
		var created time.Time
		err := conn.QueryRowContext(ctx, `SELECT created_at FROM contacts WHERE id = $1`, int64(*in.LinkedID)).Scan(&created)
		if err != nil {
			return nil, parentLookupError(*in.LinkedID, err)
		}
		created = created.UTC()
		parentCreatedAt = &created
	}
	// TIMESTAMPTZ keeps microseconds; truncate so the returned row matches what is stored.
	now := createdAtFor(s.opts.now().Truncate(time.Microsecond), parentCreatedAt)
	var id int64
	err := conn.QueryRowContext(ctx, `
		INSERT INTO contacts (email, phone_number, linked_id, link_precedence, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id`,
		nullString(in.Email), nullString(in.PhoneNumber), nullID(in.LinkedID), string(in.LinkPrecedence), now,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return createdContact(models.ContactID(id), in, now), nil
}

func (s *PostgresStore) Update(ctx context.Context, id models.ContactID, update models.LinkUpdate) error {
	res, err := tx.Conn(ctx, s.db).ExecContext(ctx, `
		UPDATE contacts SET linked_id = $1, link_precedence = $2, updated_at = $3
		WHERE id = $4`,
		nullID(update.LinkedID), string(update.LinkPrecedence), s.opts.now().Truncate(time.Microsecond), int64(id),
	)
	if err != nil {
		return fmt.Errorf("update contact %d: %w", id, err)
	}
	return requireAffected(res, id)
}

func (s *PostgresStore) FindCluster(ctx context.Context, primaryID models.ContactID) ([]*models.Contact, error) {
	const query = "SELECT " + contactColumns + ` FROM contacts
		WHERE id = $1 OR linked_id = $1
		ORDER BY created_at, id`
	return s.query(ctx, "find cluster", query, int64(primaryID))
}

func (s *PostgresStore) FindLinkViolations(ctx context.Context) ([]models.LinkViolation, error) {
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx, linkViolationQuery)
	if err != nil {
		return nil, fmt.Errorf("find link violations: %w", err)
	}
	return scanViolations(rows)
}

func (s *PostgresStore) query(ctx context.Context, op, query string, args ...any) ([]*models.Contact, error) {
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
		)
		if err := rows.Scan(&c.ID, &email, &phone, &linkedID, &precedence, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		c.Email, c.PhoneNumber, c.LinkedID = fromNullString(email), fromNullString(phone), fromNullID(linkedID)
		c.LinkPrecedence = models.LinkPrecedence(precedence)
		c.CreatedAt, c.UpdatedAt = c.CreatedAt.UTC(), c.UpdatedAt.UTC()
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// linkViolationQuery is shared by both SQL dialects.
const linkViolationQuery = `
	SELECT c.id, c.linked_id, c.link_precedence, p.id IS NOT NULL, COALESCE(p.link_precedence = 'primary', FALSE),
	       COALESCE(c.created_at < p.created_at OR (c.created_at = p.created_at AND c.id < p.id), FALSE)
	FROM contacts c
	LEFT JOIN contacts p ON p.id = c.linked_id
	WHERE (c.link_precedence = 'primary' AND c.linked_id IS NOT NULL)
	   OR (c.link_precedence = 'secondary' AND (c.linked_id IS NULL OR p.id IS NULL OR p.link_precedence <> 'primary'))
	   OR (c.link_precedence = 'secondary' AND (c.created_at < p.created_at OR (c.created_at = p.created_at AND c.id < p.id)))
	ORDER BY c.id`

func scanViolations(rows *sql.Rows) ([]models.LinkViolation, error) {
	defer rows.Close()
	var violations []models.LinkViolation
	for rows.Next() {
		var (
			id            int64
			linkedID      sql.NullInt64
			precedence    string
			parentFound   bool
			parentPrimary bool
			older         bool
		)
		if err := rows.Scan(&id, &linkedID, &precedence, &parentFound, &parentPrimary, &older); err != nil {
			return nil, fmt.Errorf("find link violations: scan: %w", err)
		}
		if v, bad := classifyViolation(models.ContactID(id), fromNullID(linkedID), models.LinkPrecedence(precedence), parentFound, parentPrimary, older); bad {
			violations = append(violations, v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find link violations: %w", err)
	}
	return violations, nil
}

func createdContact(id models.ContactID, in models.NewContact, now time.Time) *models.Contact {
	return (&models.Contact{
		ID:             id,
		Email:          in.Email,
		PhoneNumber:    in.PhoneNumber,
		LinkedID:       in.LinkedID,
		LinkPrecedence: in.LinkPrecedence,
		CreatedAt:      now,
		UpdatedAt:      now,
	}).Clone()
}

func parentLookupError(parentID models.ContactID, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("create contact: parent %d: %w", parentID, sentinel.ErrNotFound)
	}
	return fmt.Errorf("create contact: parent %d: %w", parentID, err)
}

func requireAffected(res sql.Result, id models.ContactID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update contact %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update contact %d: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func fromNullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullID(v *models.ContactID) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func fromNullID(v sql.NullInt64) *models.ContactID {
	if !v.Valid {
		return nil
	}
	id := models.ContactID(v.Int64)
	return &id
}
