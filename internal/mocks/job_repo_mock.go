package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/biizlabs/jobengine/internal/config"
	"github.com/biizlabs/jobengine/internal/job"
	"github.com/biizlabs/jobengine/internal/models"
)

type JobRepoMock struct {
	mock.Mock
}

var _ job.JobRepoInterface = (*JobRepoMock)(nil)

func (m *JobRepoMock) Create(ctx context.Context, j *models.Job) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

func (m *JobRepoMock) Get(ctx context.Context, id string) (*models.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Job), args.Error(1)
}

func (m *JobRepoMock) ClaimDue(ctx context.Context, limit int) ([]models.Job, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Job), args.Error(1)
}

func (m *JobRepoMock) MarkSucceeded(ctx context.Context, id string, scheduleRef string) error {
	args := m.Called(ctx, id, scheduleRef)
	return args.Error(0)
}

func (m *JobRepoMock) ScheduleRetry(ctx context.Context, id string, retryCount int, nextRetryAt time.Time, lastError string) error {
	args := m.Called(ctx, id, retryCount, nextRetryAt, lastError)
	return args.Error(0)
}

func (m *JobRepoMock) MarkFailed(ctx context.Context, id string, retryCount int, lastError string) error {
	args := m.Called(ctx, id, retryCount, lastError)
	return args.Error(0)
}

func (m *JobRepoMock) ResetForRetry(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *JobRepoMock) MarkDead(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *JobRepoMock) List(ctx context.Context, status config.JobStatus, limit int) ([]models.Job, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Job), args.Error(1)
}

// WithTx runs fn against the mock itself, so expectations set on the mock
// cover transactional calls too.
func (m *JobRepoMock) WithTx(ctx context.Context, fn func(job.JobRepoInterface) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(m)
}
