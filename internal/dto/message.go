package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/biizlabs/jobengine/internal/config"
)

// RequestContext mirrors the proxy integration metadata carried with every
// request envelope.
type RequestContext struct {
	Path         string `json:"path"`
	ResourcePath string `json:"resourcePath"`
	HTTPMethod   string `json:"httpMethod"`
}

// ProxyRequest is the normalized "proxy-style" request envelope. It is
// sufficient to reconstruct any HTTP-shaped call regardless of which
// transport carried the job.
type ProxyRequest struct {
	Body                  *string           `json:"body"`
	Resource              string            `json:"resource"`
	Path                  string            `json:"path"`
	HTTPMethod            string            `json:"httpMethod"`
	IsBase64Encoded       bool              `json:"isBase64Encoded"`
	PathParameters        map[string]string `json:"pathParameters"`
	QueryStringParameters map[string]string `json:"queryStringParameters,omitempty"`
	Headers               map[string]string `json:"headers"`
	RequestContext        RequestContext    `json:"requestContext"`
}

// BodyString returns the body or "" when absent.
func (p *ProxyRequest) BodyString() string {
	if p.Body == nil {
		return ""
	}
	return *p.Body
}

// ExecutionConfig carries the execution kind plus its kind-specific fields.
// Only the fields for the selected kind are meaningful.
type ExecutionConfig struct {
	Type config.ExecutionType `json:"type" validate:"required"`

	// lambda-invoke
	FunctionName   string `json:"functionName,omitempty"`
	InvocationType string `json:"invocationType,omitempty"`

	// lambda-url
	FunctionURL string `json:"functionUrl,omitempty"`

	// rest-api
	BaseURL string `json:"baseUrl,omitempty"`
	// ExpectedStatuses narrows what counts as a successful HTTP response.
	// Empty means any 2xx.
	ExpectedStatuses []int `json:"expectedStatuses,omitempty"`

	// schedule
	ScheduledAt        string             `json:"scheduledAt,omitempty"`
	ScheduleExpression string             `json:"scheduleExpression,omitempty"`
	TargetJob          *UnifiedJobMessage `json:"targetJob,omitempty"`
}

// JobMetadata is the tracking envelope shared by every transport.
type JobMetadata struct {
	JobID          string `json:"jobId,omitempty"`
	AppID          string `json:"appId,omitempty"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
	MessageGroupID string `json:"messageGroupId"`
	CreatedAt      string `json:"createdAt"`
	RetryCount     int    `json:"retryCount,omitempty"`
}

// UnifiedJobMessage is the transport-neutral job envelope used identically
// on the primary queue, in the record store, and as a schedule payload.
type UnifiedJobMessage struct {
	ProxyRequest ProxyRequest    `json:"lambdaProxyMessage"`
	Execution    ExecutionConfig `json:"execution" validate:"required"`
	Metadata     JobMetadata     `json:"metadata"`
}

// EnsureTracking fills the tracking fields a producer may omit: job id,
// creation timestamp, zeroed retry count, and a message-group id defaulting
// to the execution kind.
func (m *UnifiedJobMessage) EnsureTracking() {
	if m.Metadata.JobID == "" {
		m.Metadata.JobID = uuid.NewString()
	}
	if m.Metadata.CreatedAt == "" {
		m.Metadata.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if m.Metadata.MessageGroupID == "" {
		m.Metadata.MessageGroupID = string(m.Execution.Type)
	}
}

// DedupID returns the transport-level deduplication id: the idempotency key
// when present, otherwise the job id.
func (m *UnifiedJobMessage) DedupID() string {
	if m.Metadata.IdempotencyKey != "" {
		return m.Metadata.IdempotencyKey
	}
	return m.Metadata.JobID
}
