package job

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/gin-gonic/gin"

	"github.com/biizlabs/jobengine/internal/config"
	"github.com/biizlabs/jobengine/internal/dispatch"
	"github.com/biizlabs/jobengine/internal/dto"
	"github.com/biizlabs/jobengine/internal/models"
)

// JobRepoInterface defines the persistence operations for job rows.
type JobRepoInterface interface {
	Create(ctx context.Context, j *models.Job) error
	Get(ctx context.Context, id string) (*models.Job, error)
	ClaimDue(ctx context.Context, limit int) ([]models.Job, error)
	MarkSucceeded(ctx context.Context, id string, scheduleRef string) error
	ScheduleRetry(ctx context.Context, id string, retryCount int, nextRetryAt time.Time, lastError string) error
	MarkFailed(ctx context.Context, id string, retryCount int, lastError string) error
	ResetForRetry(ctx context.Context, id string) error
	MarkDead(ctx context.Context, id string) error
	List(ctx context.Context, status config.JobStatus, limit int) ([]models.Job, error)
	WithTx(ctx context.Context, fn func(JobRepoInterface) error) error
}

// AppRepoInterface looks up tenant apps for the legacy callback surface.
type AppRepoInterface interface {
	FindByID(ctx context.Context, id string) (*models.App, error)
}

// DispatcherInterface executes one attempt of a unified job message.
type DispatcherInterface interface {
	Dispatch(ctx context.Context, msg *dto.UnifiedJobMessage) (*dispatch.Result, error)
}

// QueueInterface is the primary-queue transport used by the service.
type QueueInterface interface {
	Publish(ctx context.Context, msg *dto.UnifiedJobMessage) error
	Receive(ctx context.Context, limit int32) ([]types.Message, error)
	Delete(ctx context.Context, receiptHandle string) error
}

// BridgeInterface polls one upstream source queue into the primary queue.
type BridgeInterface interface {
	PollQueue(ctx context.Context, queueName string, limit int) (int, error)
}

// RunResult summarizes one due-job sweep.
type RunResult struct {
	Claimed   int `json:"claimed"`
	Succeeded int `json:"succeeded"`
	Retried   int `json:"retried"`
	Failed    int `json:"failed"`
}

// DrainResult summarizes one primary-queue drain.
type DrainResult struct {
	Received   int `json:"received"`
	Dispatched int `json:"dispatched"`
	Persisted  int `json:"persisted"`
}

// JobServiceInterface defines the business operations of the engine.
type JobServiceInterface interface {
	CreateJob(ctx context.Context, in dto.CreateJobDTO) (*dto.JobResponseDTO, error)
	CreateCallbackJob(ctx context.Context, appID string, in dto.CreateCallbackJobDTO) (*dto.JobResponseDTO, error)
	GetJob(ctx context.Context, id string) (*dto.JobResponseDTO, error)
	ListJobs(ctx context.Context, status string, limit int) ([]dto.JobResponseDTO, error)
	RetryJob(ctx context.Context, id string) (*dto.JobResponseDTO, error)
	DeadletterJob(ctx context.Context, id string) (*dto.JobResponseDTO, error)
	RunDueStoreJobs(ctx context.Context, limit int) (*RunResult, error)
	DrainPrimaryQueue(ctx context.Context, limit int) (*DrainResult, error)
	ProcessScheduledMessage(ctx context.Context, msg dto.UnifiedJobMessage) error
	PollSourceQueue(ctx context.Context, queueName string, limit int) (int, error)
	PersistFailedMessage(ctx context.Context, msg *dto.UnifiedJobMessage) error
}

// JobHandlerInterface defines the HTTP handlers for job operations.
type JobHandlerInterface interface {
	CreateJob(c *gin.Context)
	CreateCallbackJob(c *gin.Context)
	GetJob(c *gin.Context)
	ListJobs(c *gin.Context)
	RetryJob(c *gin.Context)
	DeadletterJob(c *gin.Context)
	RunJobs(c *gin.Context)
	DrainQueue(c *gin.Context)
	ProcessScheduledMessage(c *gin.Context)
	PollSourceQueue(c *gin.Context)
}
