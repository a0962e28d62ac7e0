package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
)

const defaultUpdateTxTimeout = 5 * time.Second

// PostgresStore persists the ledger in PostgreSQL.
//
// Expected tables:
//
//	identities(principal TEXT PRIMARY KEY, content_address TEXT NOT NULL,
//	           status TEXT NOT NULL, registered_at TIMESTAMPTZ NOT NULL,
//	           acting_verifiers TEXT[] NOT NULL DEFAULT '{}')
//	verifiers(principal TEXT PRIMARY KEY, added_at TIMESTAMPTZ NOT NULL)
//	ledger_events(seq BIGSERIAL PRIMARY KEY, id UUID NOT NULL UNIQUE,
//	              kind TEXT NOT NULL, actor TEXT NOT NULL,
//	              subject TEXT NOT NULL,
//	              content_address TEXT NOT NULL DEFAULT '',
//	              occurred_at TIMESTAMPTZ NOT NULL)
//
// Per-subject serialization uses a transaction-scoped advisory lock keyed
// on the subject, so updates to different subjects never queue behind
// each other.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgresStore creates a PostgreSQL-backed Store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, timeout: defaultUpdateTxTimeout}
}

// UpdateIdentity implements Store.
func (s *PostgresStore) UpdateIdentity(ctx context.Context, subject domain.Principal, fn UpdateFunc) (Record, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "begin identity transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, subject.String()); err != nil {
		return Record{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "acquire identity lock")
	}

	current, err := s.getIdentityTx(ctx, tx, subject)
	if err != nil {
		return Record{}, err
	}

	next, events, err := fn(current)
	if err != nil {
		return Record{}, err
	}

	query := `
		INSERT INTO identities (principal, content_address, status, registered_at, acting_verifiers)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (principal) DO UPDATE SET
			content_address = EXCLUDED.content_address,
			status = EXCLUDED.status,
			registered_at = EXCLUDED.registered_at,
			acting_verifiers = EXCLUDED.acting_verifiers
	`
	_, err = tx.ExecContext(ctx, query,
		subject.String(),
		next.ContentAddress,
		string(next.Status),
		next.RegisteredAt,
		principalsToArray(next.ActingVerifiers),
	)
	if err != nil {
		return Record{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "upsert identity")
	}

	for _, ev := range events {
		if err := insertEventTx(ctx, tx, ev); err != nil {
			return Record{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Record{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "commit identity transaction")
	}
	return next, nil
}

// GetIdentity implements Store.
func (s *PostgresStore) GetIdentity(ctx context.Context, subject domain.Principal) (Record, error) {
	return s.getIdentityTx(ctx, s.db, subject)
}

type dbQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) getIdentityTx(ctx context.Context, q dbQuerier, subject domain.Principal) (Record, error) {
	query := `
		SELECT content_address, status, registered_at, acting_verifiers
		FROM identities
		WHERE principal = $1
	`

	var (
		rec    = Record{Owner: subject}
		status string
		acting pq.StringArray
	)
	err := q.QueryRowContext(ctx, query, subject.String()).Scan(
		&rec.ContentAddress,
		&status,
		&rec.RegisteredAt,
		&acting,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return NotRegisteredRecord(subject), nil
	}
	if err != nil {
		return Record{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "query identity")
	}

	rec.Status = Status(status)
	rec.ActingVerifiers = principalsFromArray(acting)
	return rec, nil
}

// AddVerifier implements Store.
func (s *PostgresStore) AddVerifier(ctx context.Context, member domain.Principal, event Event) error {
	return s.mutateVerifiers(ctx, event, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO verifiers (principal, added_at) VALUES ($1, $2) ON CONFLICT (principal) DO NOTHING`,
			member.String(), event.Timestamp,
		)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "insert verifier")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "insert verifier")
		}
		if n == 0 {
			return ErrAlreadyMember
		}
		return nil
	})
}

// RemoveVerifier implements Store.
func (s *PostgresStore) RemoveVerifier(ctx context.Context, member domain.Principal, event Event) error {
	return s.mutateVerifiers(ctx, event, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM verifiers WHERE principal = $1`, member.String())
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "delete verifier")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "delete verifier")
		}
		if n == 0 {
			return ErrNotMember
		}
		return nil
	})
}

// mutateVerifiers runs a membership check-and-set and the event insert in
// one transaction.
func (s *PostgresStore) mutateVerifiers(ctx context.Context, event Event, mutate func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "begin verifier transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := mutate(tx); err != nil {
		return err
	}
	if err := insertEventTx(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "commit verifier transaction")
	}
	return nil
}

// IsVerifier implements Store.
func (s *PostgresStore) IsVerifier(ctx context.Context, member domain.Principal) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM verifiers WHERE principal = $1)`,
		member.String(),
	).Scan(&exists)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "query verifier membership")
	}
	return exists, nil
}

// ListVerifiers implements Store. Members are returned in insertion
// order.
func (s *PostgresStore) ListVerifiers(ctx context.Context) ([]domain.Principal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT principal FROM verifiers ORDER BY added_at, principal`,
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "query verifiers")
	}
	defer rows.Close()

	var members []domain.Principal
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "scan verifier")
		}
		members = append(members, domain.Principal(p))
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "iterate verifiers")
	}
	return members, nil
}

// ListEvents implements Store.
func (s *PostgresStore) ListEvents(ctx context.Context, principal domain.Principal, kind EventKind) ([]Event, error) {
	query := `
		SELECT id, kind, actor, subject, content_address, occurred_at
		FROM ledger_events
		WHERE (actor = $1 OR subject = $1)
	`
	args := []any{principal.String()}
	if kind != "" {
		query += ` AND kind = $2`
		args = append(args, string(kind))
	}
	query += ` ORDER BY seq`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "query events")
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev             Event
			kindRaw        string
			actor, subject string
		)
		err := rows.Scan(&ev.ID, &kindRaw, &actor, &subject, &ev.ContentAddress, &ev.Timestamp)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "scan event")
		}
		ev.Kind = EventKind(kindRaw)
		ev.Actor = domain.Principal(actor)
		ev.Subject = domain.Principal(subject)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "iterate events")
	}
	return events, nil
}

func insertEventTx(ctx context.Context, tx *sql.Tx, ev Event) error {
	id := ev.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	query := `
		INSERT INTO ledger_events (id, kind, actor, subject, content_address, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := tx.ExecContext(ctx, query,
		id,
		string(ev.Kind),
		ev.Actor.String(),
		ev.Subject.String(),
		ev.ContentAddress,
		ev.Timestamp,
	)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "insert event")
	}
	return nil
}

func principalsToArray(principals []domain.Principal) pq.StringArray {
	out := make(pq.StringArray, 0, len(principals))
	for _, p := range principals {
		out = append(out, p.String())
	}
	return out
}

func principalsFromArray(arr pq.StringArray) []domain.Principal {
	if len(arr) == 0 {
		return nil
	}
	out := make([]domain.Principal, 0, len(arr))
	for _, p := range arr {
		out = append(out, domain.Principal(p))
	}
	return out
}
