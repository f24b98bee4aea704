package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/wildfire-cli/internal/source"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) Fetch(ctx context.Context, unit Unit) error {
	args := m.Called(ctx, unit)
	return args.Error(0)
}

func (m *mockSource) Load(ctx context.Context, unit Unit) (*source.Result, error) {
	args := m.Called(ctx, unit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*source.Result), args.Error(1)
}
