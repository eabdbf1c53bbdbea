package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"printconnect/internal/model"
	"printconnect/internal/repository"
)

// PrintJobPostgres is a PostgreSQL implementation of repository.PrintJobRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type PrintJobPostgres struct {
	db *sql.DB
}

// NewPrintJobPostgres creates a new PrintJobPostgres repository.
func NewPrintJobPostgres(db *sql.DB) *PrintJobPostgres {
	return &PrintJobPostgres{db: db}
}

var _ repository.PrintJobRepository = (*PrintJobPostgres)(nil)

const jobColumns = `id, user_id, file_name, file_key, file_url, file_size, color, copies, paper_size, status, cost, created_at, completed_at`

const selectJobsWithOwner = `
	SELECT j.id, j.user_id, j.file_name, j.file_key, j.file_url, j.file_size, j.color, j.copies,
	       j.paper_size, j.status, j.cost, j.created_at, j.completed_at,
	       u.name, u.email, u.college_id
	FROM print_jobs j
	JOIN users u ON u.id = j.user_id
`

func jobDest(j *model.PrintJob, status *string, completedAt *sql.NullTime) []any {
	return []any{
		&j.ID,
		&j.OwnerID,
		&j.FileName,
		&j.FileKey,
		&j.FileURL,
		&j.FileSize,
		&j.Options.Color,
		&j.Options.Copies,
		&j.Options.PaperSize,
		status,
		&j.Cost,
		&j.CreatedAt,
		completedAt,
	}
}

func scanJob(s rowScanner) (*model.PrintJob, error) {
	var (
		j           model.PrintJob
		status      string
		completedAt sql.NullTime
	)
	if err := s.Scan(jobDest(&j, &status, &completedAt)...); err != nil {
		return nil, err
	}
	j.Status = model.JobStatus(status)
	j.CompletedAt = timePtr(completedAt)
	return &j, nil
}

func scanJobWithOwner(s rowScanner) (*model.PrintJob, error) {
	var (
		j           model.PrintJob
		status      string
		completedAt sql.NullTime
		owner       model.Owner
		collegeID   sql.NullString
	)
	dest := append(jobDest(&j, &status, &completedAt), &owner.Name, &owner.Email, &collegeID)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	j.Status = model.JobStatus(status)
	j.CompletedAt = timePtr(completedAt)
	owner.CollegeID = collegeID.String
	j.Owner = &owner
	return &j, nil
}

// Create inserts a new print job row and returns the stored record.
func (r *PrintJobPostgres) Create(ctx context.Context, job *model.PrintJob) (*model.PrintJob, error) {
	const q = `
		INSERT INTO print_jobs (id, user_id, file_name, file_key, file_url, file_size, color, copies, paper_size, status, cost, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + jobColumns
	row := r.db.QueryRowContext(ctx, q,
		job.ID,
		job.OwnerID,
		job.FileName,
		job.FileKey,
		job.FileURL,
		job.FileSize,
		job.Options.Color,
		job.Options.Copies,
		job.Options.PaperSize,
		string(job.Status),
		job.Cost,
		job.CreatedAt,
		nullTime(job.CompletedAt),
	)
	out, err := scanJob(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, err
	}
	return out, nil
}

// FindByID fetches a single print job with its owner.
func (r *PrintJobPostgres) FindByID(ctx context.Context, id string) (*model.PrintJob, error) {
	q := selectJobsWithOwner + ` WHERE j.id = $1`
	return scanJobWithOwner(r.db.QueryRowContext(ctx, q, id))
}

// List returns the whole scope ordered newest first. There is no pagination.
func (r *PrintJobPostgres) List(ctx context.Context, scope repository.Scope) ([]model.PrintJob, error) {
	const order = ` ORDER BY j.created_at DESC, j.id DESC`

	var (
		rows *sql.Rows
		err  error
	)
	if scope.All() {
		rows, err = r.db.QueryContext(ctx, selectJobsWithOwner+order)
	} else {
		rows, err = r.db.QueryContext(ctx, selectJobsWithOwner+` WHERE j.user_id = $1`+order, scope.OwnerID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.PrintJob, 0)
	for rows.Next() {
		j, err := scanJobWithOwner(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateStatus is a compare-and-set on the current status; of two racing writers only one matches.
func (r *PrintJobPostgres) UpdateStatus(ctx context.Context, id string, from, to model.JobStatus, completedAt *time.Time) (*model.PrintJob, error) {
	const q = `
		UPDATE print_jobs
		SET status = $3, completed_at = $4
		WHERE id = $1 AND status = $2
		RETURNING ` + jobColumns
	row := r.db.QueryRowContext(ctx, q, id, string(from), string(to), nullTime(completedAt))
	out, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrConflict
		}
		return nil, err
	}
	return out, nil
}
