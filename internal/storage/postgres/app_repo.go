package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/biizlabs/jobengine/internal/job"
	"github.com/biizlabs/jobengine/internal/models"
)

type AppRepository struct {
	db *gorm.DB
}

func NewAppRepository(db *gorm.DB) *AppRepository {
	return &AppRepository{db: db}
}

var _ job.AppRepoInterface = (*AppRepository)(nil)

// FindByID retrieves the tenant app projection used for legacy callbacks.
func (r *AppRepository) FindByID(ctx context.Context, id string) (*models.App, error) {
	var app models.App
	if err := r.db.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("app not found: %w", err)
		}
		return nil, fmt.Errorf("get app: %w", err)
	}
	return &app, nil
}
