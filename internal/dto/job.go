package dto

import (
	"time"

	"github.com/biizlabs/jobengine/internal/config"
)

// CreateJobDTO is the request body for creating a unified job.
type CreateJobDTO struct {
	AppID   string              `json:"appId,omitempty"`
	Message UnifiedJobMessage   `json:"message" validate:"required"`
	Mode    config.CreationMode `json:"mode,omitempty"`
}

// JobResponseDTO mirrors the persisted job row.
type JobResponseDTO struct {
	ID             string             `json:"id"`
	AppID          string             `json:"appId,omitempty"`
	ExecutionType  string             `json:"executionType"`
	Status         string             `json:"status"`
	Message        *UnifiedJobMessage `json:"message,omitempty"`
	RetryCount     int                `json:"retryCount"`
	MaxRetries     int                `json:"maxRetries"`
	NextRetryAt    *time.Time         `json:"nextRetryAt,omitempty"`
	LastError      string             `json:"lastError,omitempty"`
	ScheduleRef    string             `json:"scheduleRef,omitempty"`
	IdempotencyKey string             `json:"idempotencyKey,omitempty"`
	MessageGroupID string             `json:"messageGroupId,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// RunJobsDTO bounds a sweep or drain trigger.
type RunJobsDTO struct {
	Limit int `json:"limit,omitempty" validate:"gte=0"`
}

// PollSourceQueueDTO names the source queue to bridge.
type PollSourceQueueDTO struct {
	QueueName string `json:"queueName" validate:"required"`
	Limit     int    `json:"limit,omitempty" validate:"gte=0,lte=10"`
}

// CreateCallbackJobDTO is the legacy HTTP-callback-only payload. The engine
// signs the outbound request with the tenant's shared secret and builds an
// equivalent unified rest-api job.
type CreateCallbackJobDTO struct {
	Method           string            `json:"method" validate:"required,oneof=POST PUT PATCH"`
	Path             string            `json:"path" validate:"required"`
	Body             map[string]any    `json:"body,omitempty"`
	Headers          map[string]string `json:"headers,omitempty"`
	ExpectedStatuses []int             `json:"expected_statuses,omitempty"`

	// IdempotencyKey is read from the Idempotency-Key header, not the body.
	// It becomes the transport-level deduplication id for the job.
	IdempotencyKey string `json:"-"`
}
