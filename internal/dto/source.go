package dto

import "github.com/biizlabs/jobengine/internal/config"

// SourceExecution is the nested execution object some producers send.
type SourceExecution struct {
	Type           config.ExecutionType `json:"type,omitempty"`
	BaseURL        string               `json:"baseUrl,omitempty"`
	FunctionName   string               `json:"functionName,omitempty"`
	FunctionURL    string               `json:"functionUrl,omitempty"`
	InvocationType string               `json:"invocationType,omitempty"`
}

// SourceMetadata is the nested metadata object some producers send.
type SourceMetadata struct {
	AppID          string `json:"appId,omitempty"`
	JobID          string `json:"jobId,omitempty"`
	MessageGroupID string `json:"messageGroupId,omitempty"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
	RetryCount     int    `json:"retryCount,omitempty"`
}

// SourceMessage is the tolerant shape accepted from upstream source queues.
// Producers disagree on field placement, so every field is optional and the
// bridge resolves them by priority: already-unified envelope, then flat
// legacy fields, then nested objects, then defaults. Body accepts both a
// JSON string and an inline object, hence json.RawMessage-free any typing.
type SourceMessage struct {
	ProxyRequest *ProxyRequest `json:"lambdaProxyMessage,omitempty"`

	Body       any               `json:"body,omitempty"`
	Path       string            `json:"path,omitempty"`
	Method     string            `json:"method,omitempty"`
	HTTPMethod string            `json:"httpMethod,omitempty"`
	Resource   string            `json:"resource,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`

	IsBase64Encoded       *bool             `json:"isBase64Encoded,omitempty"`
	PathParameters        map[string]string `json:"pathParameters,omitempty"`
	QueryStringParameters map[string]string `json:"queryStringParameters,omitempty"`
	RequestContext        *RequestContext   `json:"requestContext,omitempty"`

	ExecutionType  config.ExecutionType `json:"executionType,omitempty"`
	BaseURL        string               `json:"baseUrl,omitempty"`
	FunctionName   string               `json:"functionName,omitempty"`
	FunctionURL    string               `json:"functionUrl,omitempty"`
	InvocationType string               `json:"invocationType,omitempty"`

	AppID          string `json:"appId,omitempty"`
	JobID          string `json:"jobId,omitempty"`
	MessageGroupID string `json:"messageGroupId,omitempty"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
	RetryCount     int    `json:"retryCount,omitempty"`

	Execution *SourceExecution `json:"execution,omitempty"`
	Metadata  *SourceMetadata  `json:"metadata,omitempty"`

	// RawBody preserves the original payload when JSON parsing failed.
	RawBody string `json:"rawBody,omitempty"`
}
