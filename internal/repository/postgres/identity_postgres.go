package postgres

import (
	"context"
	"database/sql"
	"time"

	"printconnect/internal/model"
	"printconnect/internal/repository"
)

// IdentityPostgres is a PostgreSQL implementation of repository.IdentityRepository.
type IdentityPostgres struct {
	db *sql.DB
}

func NewIdentityPostgres(db *sql.DB) *IdentityPostgres {
	return &IdentityPostgres{db: db}
}

var _ repository.IdentityRepository = (*IdentityPostgres)(nil)

const identityColumns = `id, email, name, role, college_id, password_hash, created_at`

func scanIdentity(s rowScanner) (*model.Identity, error) {
	var (
		out       model.Identity
		role      string
		collegeID sql.NullString
	)
	if err := s.Scan(
		&out.ID,
		&out.Email,
		&out.Name,
		&role,
		&collegeID,
		&out.PasswordHash,
		&out.CreatedAt,
	); err != nil {
		return nil, err
	}
	out.Role = model.Role(role)
	out.CollegeID = collegeID.String
	return &out, nil
}

// Create inserts a new user row and returns the stored record.
func (r *IdentityPostgres) Create(ctx context.Context, identity *model.Identity) (*model.Identity, error) {
	const q = `
		INSERT INTO users (id, email, name, role, college_id, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + identityColumns
	row := r.db.QueryRowContext(ctx, q,
		identity.ID,
		identity.Email,
		identity.Name,
		string(identity.Role),
		nullString(identity.CollegeID),
		identity.PasswordHash,
		identity.CreatedAt,
	)
	out, err := scanIdentity(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, err
	}
	return out, nil
}

func (r *IdentityPostgres) FindByEmail(ctx context.Context, email string) (*model.Identity, error) {
	const q = `SELECT ` + identityColumns + ` FROM users WHERE email = $1`
	return scanIdentity(r.db.QueryRowContext(ctx, q, email))
}

func (r *IdentityPostgres) FindByID(ctx context.Context, id string) (*model.Identity, error) {
	const q = `SELECT ` + identityColumns + ` FROM users WHERE id = $1`
	return scanIdentity(r.db.QueryRowContext(ctx, q, id))
}

// SessionPostgres is a PostgreSQL implementation of repository.SessionRepository.
type SessionPostgres struct {
	db *sql.DB
}

func NewSessionPostgres(db *sql.DB) *SessionPostgres {
	return &SessionPostgres{db: db}
}

var _ repository.SessionRepository = (*SessionPostgres)(nil)

func (r *SessionPostgres) Create(ctx context.Context, session *model.Session) error {
	const q = `
		INSERT INTO sessions (token_hash, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, q, session.TokenHash, session.IdentityID, session.CreatedAt, session.ExpiresAt)
	return err
}

// FindIdentity joins the session to its user, ignoring expired sessions.
func (r *SessionPostgres) FindIdentity(ctx context.Context, tokenHash string, now time.Time) (*model.Identity, error) {
	const q = `
		SELECT u.id, u.email, u.name, u.role, u.college_id, u.password_hash, u.created_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.token_hash = $1 AND s.expires_at > $2
	`
	return scanIdentity(r.db.QueryRowContext(ctx, q, tokenHash, now))
}

// Delete removes a session. It does not return an error if the row does not exist.
func (r *SessionPostgres) Delete(ctx context.Context, tokenHash string) error {
	const q = `DELETE FROM sessions WHERE token_hash = $1`
	_, err := r.db.ExecContext(ctx, q, tokenHash)
	return err
}
