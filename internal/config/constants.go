package config

// JobStatus tracks the lifecycle state of a durable job row.
type JobStatus string

const (
	// JobStatusPending means the job is waiting for its first execution.
	JobStatusPending JobStatus = "PENDING"
	// JobStatusRetrying means a previous attempt failed and a retry is scheduled.
	JobStatusRetrying JobStatus = "RETRYING"
	// JobStatusSucceeded means the job completed successfully.
	JobStatusSucceeded JobStatus = "SUCCEEDED"
	// JobStatusFailed means the job exhausted its retries.
	JobStatusFailed JobStatus = "FAILED"
	// JobStatusDead means an operator explicitly dead-lettered the job.
	JobStatusDead JobStatus = "DEAD"
)

// Terminal reports whether s is a terminal state under normal operation.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed || s == JobStatusDead
}

// ExecutionType selects the dispatch strategy for a job message.
type ExecutionType string

const (
	// ExecutionLambdaInvoke invokes a named Lambda function via the SDK.
	ExecutionLambdaInvoke ExecutionType = "lambda-invoke"
	// ExecutionLambdaURL calls a Lambda Function URL with SigV4 signing.
	ExecutionLambdaURL ExecutionType = "lambda-url"
	// ExecutionRestAPI issues a plain HTTP request to baseUrl+path.
	ExecutionRestAPI ExecutionType = "rest-api"
	// ExecutionSchedule registers a one-shot EventBridge schedule that fires
	// the embedded target job later.
	ExecutionSchedule ExecutionType = "schedule"
)

// CreationMode determines which transport a new job is written to.
type CreationMode string

const (
	// ModeStore persists the job row only; the due-job sweep executes it.
	ModeStore CreationMode = "db"
	// ModeQueue publishes to the primary queue only.
	ModeQueue CreationMode = "sqs"
	// ModeBoth writes the row and publishes, deduplicated at the consumer.
	ModeBoth CreationMode = "both"
)

var AllowedModes = []CreationMode{ModeStore, ModeQueue, ModeBoth}

const (
	// DefaultMaxRetries bounds automatic retries before a job goes FAILED.
	DefaultMaxRetries = 10

	// MaxBackoffSeconds caps exponential backoff at 24 hours.
	MaxBackoffSeconds = 86400

	// BackoffBaseSeconds is the unit multiplied by 2^retryCount.
	BackoffBaseSeconds = 60

	// DispatchTimeoutSeconds bounds a single HTTP-shaped dispatch attempt.
	DispatchTimeoutSeconds = 30

	// ReceiveBatchCap is the hard SQS limit on messages per receive.
	ReceiveBatchCap = 10

	// DefaultSweepLimit is the default batch for the due-job sweep.
	DefaultSweepLimit = 100

	// DefaultDrainLimit is the default batch for a primary-queue drain.
	DefaultDrainLimit = 10
)
