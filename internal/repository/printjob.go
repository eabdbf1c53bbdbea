package repository

import (
	"context"
	"time"

	"printconnect/internal/model"
)

// Scope selects which print jobs a listing returns.
// A zero OwnerID means every job; operators list with AllJobs().
type Scope struct {
	OwnerID string
}

// OwnedBy scopes a listing to one identity's jobs.
func OwnedBy(ownerID string) Scope { return Scope{OwnerID: ownerID} }

// AllJobs scopes a listing to every job.
func AllJobs() Scope { return Scope{} }

func (s Scope) All() bool { return s.OwnerID == "" }

// PrintJobRepository defines data access for print jobs using SQL queries only.
// No business logic here, only persistence.
type PrintJobRepository interface {
	// Create inserts a new print job and returns the stored row.
	Create(ctx context.Context, job *model.PrintJob) (*model.PrintJob, error)

	// FindByID returns a job joined with its owner, or sql.ErrNoRows.
	FindByID(ctx context.Context, id string) (*model.PrintJob, error)

	// List returns every job in scope, newest first, each joined with its owner.
	List(ctx context.Context, scope Scope) ([]model.PrintJob, error)

	// UpdateStatus moves a job from one status to another in a single conditional write.
	// completedAt is stored as given (nil clears it). Returns ErrConflict when the job
	// is missing or no longer in status from.
	UpdateStatus(ctx context.Context, id string, from, to model.JobStatus, completedAt *time.Time) (*model.PrintJob, error)
}
