package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/biizlabs/jobengine/internal/config"
	"github.com/biizlabs/jobengine/internal/job"
	"github.com/biizlabs/jobengine/internal/models"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

var _ job.JobRepoInterface = (*JobRepository)(nil)

// Create inserts a new job row. Returns an error if the database operation
// fails.
func (r *JobRepository) Create(ctx context.Context, j *models.Job) error {
	if err := r.db.WithContext(ctx).Create(j).Error; err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

// Get retrieves a single job by its UUID.
func (r *JobRepository) Get(ctx context.Context, id string) (*models.Job, error) {
	var j models.Job
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job not found: %w", err)
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &j, nil
}

// ClaimDue selects up to limit due jobs (PENDING or RETRYING with an elapsed
// next_retry_at), oldest due first. On Postgres the rows are locked with
// FOR UPDATE SKIP LOCKED so concurrent sweeps never block on or double-claim
// a row; call it inside WithTx so the locks live until the batch commits.
// sqlite (tests) has no row locks, so the clause is gated on the dialect.
func (r *JobRepository) ClaimDue(ctx context.Context, limit int) ([]models.Job, error) {
	var jobs []models.Job

	q := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
	}

	err := q.
		Where("status IN ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?",
			[]string{string(config.JobStatusPending), string(config.JobStatusRetrying)},
			time.Now().UTC()).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("claim due jobs: %w", err)
	}
	return jobs, nil
}

// MarkSucceeded transitions a job to SUCCEEDED, clearing its retry schedule
// and last error. scheduleRef records an external resource the attempt
// created (e.g. a schedule name) so it can be cleaned up later.
func (r *JobRepository) MarkSucceeded(ctx context.Context, id string, scheduleRef string) error {
	updates := map[string]any{
		"status":        string(config.JobStatusSucceeded),
		"next_retry_at": nil,
		"last_error":    "",
	}
	if scheduleRef != "" {
		updates["schedule_ref"] = scheduleRef
	}
	if err := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("mark succeeded: %w", err)
	}
	return nil
}

// ScheduleRetry transitions a job to RETRYING with its next attempt time and
// the error that caused it.
func (r *JobRepository) ScheduleRetry(ctx context.Context, id string, retryCount int, nextRetryAt time.Time, lastError string) error {
	if err := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        string(config.JobStatusRetrying),
			"retry_count":   retryCount,
			"next_retry_at": nextRetryAt,
			"last_error":    lastError,
		}).Error; err != nil {
		return fmt.Errorf("schedule retry: %w", err)
	}
	return nil
}

// MarkFailed transitions a job to FAILED after its retries are exhausted.
func (r *JobRepository) MarkFailed(ctx context.Context, id string, retryCount int, lastError string) error {
	if err := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        string(config.JobStatusFailed),
			"retry_count":   retryCount,
			"next_retry_at": nil,
			"last_error":    lastError,
		}).Error; err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// ResetForRetry re-opens a job for execution: PENDING, retry count 0, due
// immediately. Used by the administrative retry override.
func (r *JobRepository) ResetForRetry(ctx context.Context, id string) error {
	now := time.Now().UTC()
	if err := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        string(config.JobStatusPending),
			"retry_count":   0,
			"next_retry_at": now,
			"last_error":    "",
		}).Error; err != nil {
		return fmt.Errorf("reset for retry: %w", err)
	}
	return nil
}

// MarkDead force-transitions a job to DEAD, clearing its retry schedule.
// Only the administrative override reaches this state.
func (r *JobRepository) MarkDead(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Model(&models.Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":        string(config.JobStatusDead),
			"next_retry_at": nil,
		}).Error; err != nil {
		return fmt.Errorf("mark dead: %w", err)
	}
	return nil
}

// List retrieves jobs filtered by status, newest first. An empty status
// returns jobs in any state.
func (r *JobRepository) List(ctx context.Context, status config.JobStatus, limit int) ([]models.Job, error) {
	var jobs []models.Job
	q := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if status != "" {
		q = q.Where("status = ?", string(status))
	}
	if err := q.Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// WithTx runs fn against a transactional copy of the repository. The claim
// and every row mutation of a sweep batch share one transaction, so a
// crashed worker releases its locks and loses no updates.
func (r *JobRepository) WithTx(ctx context.Context, fn func(job.JobRepoInterface) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&JobRepository{db: tx})
	})
}
