package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"printconnect/internal/model"
	"printconnect/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jobCols = []string{"id", "user_id", "file_name", "file_key", "file_url", "file_size", "color", "copies", "paper_size", "status", "cost", "created_at", "completed_at"}

var jobOwnerCols = append(append([]string{}, jobCols...), "name", "email", "college_id")

func TestPrintJobPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewPrintJobPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	job := &model.PrintJob{
		ID:        "job-1",
		OwnerID:   "user-1",
		FileName:  "report.pdf",
		FileKey:   "user-1/1700000000000.pdf",
		FileURL:   "http://minio/print-files/user-1/1700000000000.pdf",
		FileSize:  2 << 20,
		Options:   model.PrintOptions{Color: false, Copies: 3, PaperSize: "A4"},
		Status:    model.StatusPending,
		Cost:      6,
		CreatedAt: now,
	}

	rows := sqlmock.NewRows(jobCols).AddRow(
		job.ID, job.OwnerID, job.FileName, job.FileKey, job.FileURL, job.FileSize,
		false, 3, "A4", "pending", 6.0, now, nil,
	)

	mock.ExpectQuery("INSERT INTO print_jobs").
		WithArgs(job.ID, job.OwnerID, job.FileName, job.FileKey, job.FileURL, job.FileSize,
			false, 3, "A4", "pending", 6.0, now, nil).
		WillReturnRows(rows)

	result, err := repo.Create(ctx, job)

	require.NoError(t, err)
	assert.Equal(t, job.ID, result.ID)
	assert.Equal(t, model.StatusPending, result.Status)
	assert.Equal(t, 6.0, result.Cost)
	assert.Nil(t, result.CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrintJobPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPrintJobPostgres(db)
	ctx := context.Background()

	t.Run("found with owner", func(t *testing.T) {
		done := time.Now()
		rows := sqlmock.NewRows(jobOwnerCols).AddRow(
			"job-1", "user-1", "a.pdf", "k", "u", 10, true, 2, "A4", "completed", 6.0, time.Now(), done,
			"Asha", "asha@jiit.ac.in", "9921103",
		)
		mock.ExpectQuery("SELECT (.+) FROM print_jobs j JOIN users u ON u.id = j.user_id WHERE j.id = ?").
			WithArgs("job-1").
			WillReturnRows(rows)

		job, err := repo.FindByID(ctx, "job-1")

		require.NoError(t, err)
		assert.Equal(t, model.StatusCompleted, job.Status)
		require.NotNil(t, job.CompletedAt)
		require.NotNil(t, job.Owner)
		assert.Equal(t, "Asha", job.Owner.Name)
		assert.Equal(t, "9921103", job.Owner.CollegeID)
		assert.True(t, job.Options.Color)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM print_jobs").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		job, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, job)
	})
}

func TestPrintJobPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPrintJobPostgres(db)
	ctx := context.Background()

	t.Run("owner scope", func(t *testing.T) {
		rows := sqlmock.NewRows(jobOwnerCols).
			AddRow("job-2", "user-1", "b.pdf", "k2", "u2", 10, false, 1, "A4", "pending", 2.0, time.Now(), nil, "Asha", "asha@jiit.ac.in", nil).
			AddRow("job-1", "user-1", "a.pdf", "k1", "u1", 10, false, 1, "A4", "ready", 2.0, time.Now().Add(-time.Hour), nil, "Asha", "asha@jiit.ac.in", nil)

		mock.ExpectQuery("FROM print_jobs j JOIN users u ON u.id = j.user_id WHERE j.user_id = \\$1 ORDER BY j.created_at DESC, j.id DESC").
			WithArgs("user-1").
			WillReturnRows(rows)

		items, err := repo.List(ctx, repository.OwnedBy("user-1"))

		require.NoError(t, err)
		assert.Len(t, items, 2)
		assert.Equal(t, "job-2", items[0].ID)
		assert.Equal(t, "", items[0].Owner.CollegeID)
	})

	t.Run("all scope", func(t *testing.T) {
		rows := sqlmock.NewRows(jobOwnerCols).
			AddRow("job-3", "user-2", "c.pdf", "k3", "u3", 10, true, 1, "A3", "processing", 3.0, time.Now(), nil, "Ravi", "ravi@jiit.ac.in", "1001")

		mock.ExpectQuery("FROM print_jobs j JOIN users u ON u.id = j.user_id ORDER BY j.created_at DESC").
			WithoutArgs().
			WillReturnRows(rows)

		items, err := repo.List(ctx, repository.AllJobs())

		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Ravi", items[0].Owner.Name)
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery("FROM print_jobs").WillReturnError(errors.New("db down"))

		items, err := repo.List(ctx, repository.AllJobs())

		assert.Error(t, err)
		assert.Nil(t, items)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrintJobPostgres_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPrintJobPostgres(db)
	ctx := context.Background()

	t.Run("applied", func(t *testing.T) {
		done := time.Now().UTC()
		rows := sqlmock.NewRows(jobCols).AddRow(
			"job-1", "user-1", "a.pdf", "k", "u", 10, false, 1, "A4", "completed", 2.0, done.Add(-time.Hour), done,
		)
		mock.ExpectQuery("UPDATE print_jobs SET status = \\$3, completed_at = \\$4 WHERE id = \\$1 AND status = \\$2").
			WithArgs("job-1", "ready", "completed", done).
			WillReturnRows(rows)

		job, err := repo.UpdateStatus(ctx, "job-1", model.StatusReady, model.StatusCompleted, &done)

		require.NoError(t, err)
		assert.Equal(t, model.StatusCompleted, job.Status)
		require.NotNil(t, job.CompletedAt)
	})

	t.Run("lost race", func(t *testing.T) {
		mock.ExpectQuery("UPDATE print_jobs").
			WithArgs("job-1", "ready", "completed", sqlmock.AnyArg()).
			WillReturnError(sql.ErrNoRows)

		now := time.Now()
		job, err := repo.UpdateStatus(ctx, "job-1", model.StatusReady, model.StatusCompleted, &now)

		assert.ErrorIs(t, err, repository.ErrConflict)
		assert.Nil(t, job)
	})

	t.Run("no completed_at", func(t *testing.T) {
		rows := sqlmock.NewRows(jobCols).AddRow(
			"job-1", "user-1", "a.pdf", "k", "u", 10, false, 1, "A4", "processing", 2.0, time.Now(), nil,
		)
		mock.ExpectQuery("UPDATE print_jobs").
			WithArgs("job-1", "pending", "processing", nil).
			WillReturnRows(rows)

		job, err := repo.UpdateStatus(ctx, "job-1", model.StatusPending, model.StatusProcessing, nil)

		require.NoError(t, err)
		assert.Nil(t, job.CompletedAt)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
