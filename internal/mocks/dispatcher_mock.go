package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/biizlabs/jobengine/internal/dispatch"
	"github.com/biizlabs/jobengine/internal/dto"
	"github.com/biizlabs/jobengine/internal/job"
)

type DispatcherMock struct {
	mock.Mock
}

var _ job.DispatcherInterface = (*DispatcherMock)(nil)

func (m *DispatcherMock) Dispatch(ctx context.Context, msg *dto.UnifiedJobMessage) (*dispatch.Result, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dispatch.Result), args.Error(1)
}
