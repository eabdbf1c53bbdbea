package mocks

import (
	"context"

	"printconnect/internal/changefeed"

	"github.com/stretchr/testify/mock"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, ev changefeed.Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}
