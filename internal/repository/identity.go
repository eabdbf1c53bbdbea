package repository

import (
	"context"
	"time"

	"printconnect/internal/model"
)

// IdentityRepository persists user accounts.
type IdentityRepository interface {
	// Create inserts a new identity. Returns ErrDuplicate when the email is already registered.
	Create(ctx context.Context, identity *model.Identity) (*model.Identity, error)

	// FindByEmail returns sql.ErrNoRows when no identity has the email.
	FindByEmail(ctx context.Context, email string) (*model.Identity, error)

	FindByID(ctx context.Context, id string) (*model.Identity, error)
}

// SessionRepository persists bearer sessions keyed by token hash.
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error

	// FindIdentity resolves an unexpired session to its identity. Returns sql.ErrNoRows otherwise.
	FindIdentity(ctx context.Context, tokenHash string, now time.Time) (*model.Identity, error)

	// Delete removes a session. It returns nil if the session did not exist.
	Delete(ctx context.Context, tokenHash string) error
}
