package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"printconnect/internal/model"
	"printconnect/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var identityCols = []string{"id", "email", "name", "role", "college_id", "password_hash", "created_at"}

func TestIdentityPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewIdentityPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	in := &model.Identity{
		ID:           "user-1",
		Email:        "asha@jiit.ac.in",
		Name:         "Asha",
		Role:         model.RoleStudent,
		PasswordHash: "hash",
		CreatedAt:    now,
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO users").
			WithArgs("user-1", "asha@jiit.ac.in", "Asha", "student", nil, "hash", now).
			WillReturnRows(sqlmock.NewRows(identityCols).AddRow("user-1", "asha@jiit.ac.in", "Asha", "student", nil, "hash", now))

		out, err := repo.Create(ctx, in)

		require.NoError(t, err)
		assert.Equal(t, model.RoleStudent, out.Role)
		assert.Empty(t, out.CollegeID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO users").
			WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})

		out, err := repo.Create(ctx, in)

		assert.ErrorIs(t, err, repository.ErrDuplicate)
		assert.Nil(t, out)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityPostgres_Find(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewIdentityPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email = ?").
		WithArgs("shop@jiit.ac.in").
		WillReturnRows(sqlmock.NewRows(identityCols).AddRow("op-1", "shop@jiit.ac.in", "Shop", "operator", nil, "hash", time.Now()))

	out, err := repo.FindByEmail(ctx, "shop@jiit.ac.in")
	require.NoError(t, err)
	assert.True(t, out.IsOperator())

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id = ?").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSessionPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs("hash", "user-1", now, now.Add(time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	err = repo.Create(ctx, &model.Session{TokenHash: "hash", IdentityID: "user-1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)})
	assert.NoError(t, err)

	mock.ExpectQuery("FROM sessions s JOIN users u ON u.id = s.user_id WHERE s.token_hash = \\$1 AND s.expires_at > \\$2").
		WithArgs("hash", now).
		WillReturnRows(sqlmock.NewRows(identityCols).AddRow("user-1", "asha@jiit.ac.in", "Asha", "student", "9921103", "h", now))
	id, err := repo.FindIdentity(ctx, "hash", now)
	require.NoError(t, err)
	assert.Equal(t, "9921103", id.CollegeID)

	mock.ExpectExec("DELETE FROM sessions WHERE token_hash = ?").
		WithArgs("hash").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.NoError(t, repo.Delete(ctx, "hash"))

	assert.NoError(t, mock.ExpectationsWereMet())
}
