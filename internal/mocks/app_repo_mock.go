package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/biizlabs/jobengine/internal/job"
	"github.com/biizlabs/jobengine/internal/models"
)

type AppRepoMock struct {
	mock.Mock
}

var _ job.AppRepoInterface = (*AppRepoMock)(nil)

func (m *AppRepoMock) FindByID(ctx context.Context, id string) (*models.App, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.App), args.Error(1)
}
