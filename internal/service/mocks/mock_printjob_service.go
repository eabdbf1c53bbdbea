package mocks

import (
	"context"

	"printconnect/internal/model"
	"printconnect/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockPrintJobService struct {
	mock.Mock
}

func (m *MockPrintJobService) Submit(ctx context.Context, actor *model.Identity, in service.SubmitInput) (*model.PrintJob, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PrintJob), args.Error(1)
}

func (m *MockPrintJobService) List(ctx context.Context, actor *model.Identity, filter service.JobFilter) (*service.JobListResult, error) {
	args := m.Called(ctx, actor, filter)
	if f, ok := args.Get(0).(func(context.Context, *model.Identity, service.JobFilter) *service.JobListResult); ok {
		return f(ctx, actor, filter), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.JobListResult), args.Error(1)
}

func (m *MockPrintJobService) Get(ctx context.Context, actor *model.Identity, id string) (*model.PrintJob, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PrintJob), args.Error(1)
}

func (m *MockPrintJobService) Advance(ctx context.Context, actor *model.Identity, id string, target model.JobStatus) (*model.PrintJob, error) {
	args := m.Called(ctx, actor, id, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PrintJob), args.Error(1)
}

func (m *MockPrintJobService) FileURL(ctx context.Context, actor *model.Identity, id string) (string, error) {
	args := m.Called(ctx, actor, id)
	return args.String(0), args.Error(1)
}
