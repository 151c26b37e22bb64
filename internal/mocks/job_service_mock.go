package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/biizlabs/jobengine/internal/dto"
	"github.com/biizlabs/jobengine/internal/job"
)

type JobServiceMock struct {
	mock.Mock
}

var _ job.JobServiceInterface = (*JobServiceMock)(nil)

func (m *JobServiceMock) CreateJob(ctx context.Context, in dto.CreateJobDTO) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.JobResponseDTO), args.Error(1)
}

func (m *JobServiceMock) CreateCallbackJob(ctx context.Context, appID string, in dto.CreateCallbackJobDTO) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, appID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.JobResponseDTO), args.Error(1)
}

func (m *JobServiceMock) GetJob(ctx context.Context, id string) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.JobResponseDTO), args.Error(1)
}

func (m *JobServiceMock) ListJobs(ctx context.Context, status string, limit int) ([]dto.JobResponseDTO, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.JobResponseDTO), args.Error(1)
}

func (m *JobServiceMock) RetryJob(ctx context.Context, id string) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.JobResponseDTO), args.Error(1)
}

func (m *JobServiceMock) DeadletterJob(ctx context.Context, id string) (*dto.JobResponseDTO, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.JobResponseDTO), args.Error(1)
}

func (m *JobServiceMock) RunDueStoreJobs(ctx context.Context, limit int) (*job.RunResult, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.RunResult), args.Error(1)
}

func (m *JobServiceMock) DrainPrimaryQueue(ctx context.Context, limit int) (*job.DrainResult, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.DrainResult), args.Error(1)
}

func (m *JobServiceMock) ProcessScheduledMessage(ctx context.Context, msg dto.UnifiedJobMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *JobServiceMock) PollSourceQueue(ctx context.Context, queueName string, limit int) (int, error) {
	args := m.Called(ctx, queueName, limit)
	return args.Int(0), args.Error(1)
}

func (m *JobServiceMock) PersistFailedMessage(ctx context.Context, msg *dto.UnifiedJobMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
