package mocks

import (
	"context"
	"time"

	"printconnect/internal/model"
	"printconnect/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockPrintJobRepository struct {
	mock.Mock
}

func (m *MockPrintJobRepository) Create(ctx context.Context, job *model.PrintJob) (*model.PrintJob, error) {
	args := m.Called(ctx, job)
	if f, ok := args.Get(0).(func(context.Context, *model.PrintJob) *model.PrintJob); ok {
		return f(ctx, job), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PrintJob), args.Error(1)
}

func (m *MockPrintJobRepository) FindByID(ctx context.Context, id string) (*model.PrintJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PrintJob), args.Error(1)
}

func (m *MockPrintJobRepository) List(ctx context.Context, scope repository.Scope) ([]model.PrintJob, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PrintJob), args.Error(1)
}

func (m *MockPrintJobRepository) UpdateStatus(ctx context.Context, id string, from, to model.JobStatus, completedAt *time.Time) (*model.PrintJob, error) {
	args := m.Called(ctx, id, from, to, completedAt)
	if f, ok := args.Get(0).(func(context.Context, string, model.JobStatus, model.JobStatus, *time.Time) *model.PrintJob); ok {
		return f(ctx, id, from, to, completedAt), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PrintJob), args.Error(1)
}
