package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/biizlabs/jobengine/common"
	"github.com/biizlabs/jobengine/internal/config"
	"github.com/biizlabs/jobengine/internal/dto"
	"github.com/biizlabs/jobengine/internal/models"
	"github.com/biizlabs/jobengine/internal/queue"
	"github.com/biizlabs/jobengine/internal/signature"
)

// JobService orchestrates job creation, execution sweeps, queue drains, and
// the administrative overrides. It owns every job state transition; the
// dispatcher and the transports stay stateless.
type JobService struct {
	repo       JobRepoInterface
	apps       AppRepoInterface
	dispatcher DispatcherInterface
	queue      QueueInterface
	bridge     BridgeInterface
	logger     *zap.Logger
}

func NewJobService(
	repo JobRepoInterface,
	apps AppRepoInterface,
	dispatcher DispatcherInterface,
	q QueueInterface,
	bridge BridgeInterface,
	logger *zap.Logger,
) *JobService {
	return &JobService{
		repo:       repo,
		apps:       apps,
		dispatcher: dispatcher,
		queue:      q,
		bridge:     bridge,
		logger:     logger,
	}
}

var _ JobServiceInterface = (*JobService)(nil)
var _ queue.FailedJobStore = (*JobService)(nil)

// SetBridge finishes wiring: the bridge falls back to this service as its
// store, so the two are constructed in phases.
func (s *JobService) SetBridge(b BridgeInterface) {
	s.bridge = b
}

// backoffDelay returns the wait before attempt retryCount, doubling per
// attempt from the base and capped at a day.
func backoffDelay(retryCount int) time.Duration {
	secs := int64(config.MaxBackoffSeconds)
	if retryCount >= 0 && retryCount < 32 {
		if s := (int64(1) << uint(retryCount)) * config.BackoffBaseSeconds; s < secs {
			secs = s
		}
	}
	return time.Duration(secs) * time.Second
}

// CreateJob validates and routes a new unified job to the store, the primary
// queue, or both.
func (s *JobService) CreateJob(ctx context.Context, in dto.CreateJobDTO) (*dto.JobResponseDTO, error) {
	mode := in.Mode
	if mode == "" {
		// An omitted mode gets both the durable row and the queue publish;
		// a producer opts into a single path explicitly.
		mode = config.ModeBoth
	}
	if !allowedMode(mode) {
		return nil, common.Errf(http.StatusBadRequest, "invalid mode %q", mode)
	}

	msg := in.Message
	if in.AppID != "" {
		msg.Metadata.AppID = in.AppID
	}
	if err := validateExecution(&msg.Execution); err != nil {
		return nil, err
	}
	msg.EnsureTracking()

	var row *models.Job
	if mode == config.ModeStore || mode == config.ModeBoth {
		now := time.Now().UTC()
		r, err := buildJobRow(&msg, config.JobStatusPending, &now)
		if err != nil {
			return nil, err
		}
		if err := s.repo.Create(ctx, r); err != nil {
			return nil, err
		}
		row = r
	}

	if mode == config.ModeQueue || mode == config.ModeBoth {
		if err := s.queue.Publish(ctx, &msg); err != nil {
			if mode == config.ModeBoth {
				// The row survives, so the sweep still executes the job.
				s.logger.Warn("publish failed after store insert, sweep will pick it up",
					zap.String("job_id", msg.Metadata.JobID), zap.Error(err))
			} else {
				return nil, fmt.Errorf("publish job %s: %w", msg.Metadata.JobID, err)
			}
		}
	}

	s.logger.Info("job created",
		zap.String("job_id", msg.Metadata.JobID),
		zap.String("mode", string(mode)),
		zap.String("execution_type", string(msg.Execution.Type)),
	)

	if row != nil {
		return toResponse(row), nil
	}
	return queuedResponse(&msg), nil
}

// CreateCallbackJob builds a signed rest-api job from the legacy HTTP
// callback payload and publishes it for the tenant app.
func (s *JobService) CreateCallbackJob(ctx context.Context, appID string, in dto.CreateCallbackJobDTO) (*dto.JobResponseDTO, error) {
	app, err := s.apps.FindByID(ctx, appID)
	if err != nil {
		if isNotFound(err) {
			return nil, common.Errf(http.StatusNotFound, "app %s not found", appID)
		}
		return nil, err
	}
	if app.CallbackBaseURL == "" {
		return nil, common.Errf(http.StatusUnprocessableEntity, "app %s has no callback base url", appID)
	}

	timestamp := time.Now().Unix()
	canonical := signature.CanonicalString(in.Method, in.Path, in.Body, timestamp)
	sig := signature.Sign(app.CallbackSecret, canonical)

	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range in.Headers {
		headers[k] = v
	}
	headers["X-HMAC-Signature"] = sig
	headers["X-HMAC-Timestamp"] = strconv.FormatInt(timestamp, 10)

	var body *string
	if in.Body != nil {
		raw, err := json.Marshal(in.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal callback body: %w", err)
		}
		b := string(raw)
		body = &b
	}

	expected := in.ExpectedStatuses
	if len(expected) == 0 {
		expected = []int{http.StatusOK, http.StatusCreated}
	}

	msg := dto.UnifiedJobMessage{
		ProxyRequest: dto.ProxyRequest{
			Body:       body,
			Path:       in.Path,
			HTTPMethod: in.Method,
			Headers:    headers,
		},
		Execution: dto.ExecutionConfig{
			Type:             config.ExecutionRestAPI,
			BaseURL:          app.CallbackBaseURL,
			ExpectedStatuses: expected,
		},
		Metadata: dto.JobMetadata{
			AppID:          app.ID,
			MessageGroupID: app.ID,
			IdempotencyKey: in.IdempotencyKey,
		},
	}
	msg.EnsureTracking()

	if err := s.queue.Publish(ctx, &msg); err != nil {
		// Degrade to the store path rather than losing the callback.
		s.logger.Warn("publish callback job failed, persisting to store",
			zap.String("job_id", msg.Metadata.JobID), zap.Error(err))
		if perr := s.PersistFailedMessage(ctx, &msg); perr != nil {
			return nil, fmt.Errorf("publish callback job %s: %w", msg.Metadata.JobID, err)
		}
	}

	s.logger.Info("callback job created",
		zap.String("job_id", msg.Metadata.JobID),
		zap.String("app_id", app.ID),
	)

	return queuedResponse(&msg), nil
}

// GetJob fetches one job by id.
func (s *JobService) GetJob(ctx context.Context, id string) (*dto.JobResponseDTO, error) {
	j, err := s.repo.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, common.Errf(http.StatusNotFound, "job %s not found", id)
		}
		return nil, err
	}
	return toResponse(j), nil
}

// ListJobs returns jobs newest first, optionally filtered by status.
func (s *JobService) ListJobs(ctx context.Context, status string, limit int) ([]dto.JobResponseDTO, error) {
	st := config.JobStatus(status)
	if status != "" && !validStatus(st) {
		return nil, common.Errf(http.StatusBadRequest, "invalid status %q", status)
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	jobs, err := s.repo.List(ctx, st, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.JobResponseDTO, 0, len(jobs))
	for i := range jobs {
		out = append(out, *toResponse(&jobs[i]))
	}
	return out, nil
}

// RetryJob re-opens a job for immediate execution regardless of its current
// state. Calling it on an already-pending job is a no-op beyond the reset.
func (s *JobService) RetryJob(ctx context.Context, id string) (*dto.JobResponseDTO, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		if isNotFound(err) {
			return nil, common.Errf(http.StatusNotFound, "job %s not found", id)
		}
		return nil, err
	}
	if err := s.repo.ResetForRetry(ctx, id); err != nil {
		return nil, err
	}
	j, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("job reset for retry", zap.String("job_id", id))
	return toResponse(j), nil
}

// DeadletterJob force-parks a job in DEAD so no sweep ever claims it again.
func (s *JobService) DeadletterJob(ctx context.Context, id string) (*dto.JobResponseDTO, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		if isNotFound(err) {
			return nil, common.Errf(http.StatusNotFound, "job %s not found", id)
		}
		return nil, err
	}
	if err := s.repo.MarkDead(ctx, id); err != nil {
		return nil, err
	}
	j, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("job dead-lettered", zap.String("job_id", id))
	return toResponse(j), nil
}

// RunDueStoreJobs claims and executes due store jobs. The claim and every
// resulting row mutation share one transaction, so a crash releases the
// locks and a concurrent sweep never sees a half-updated batch.
func (s *JobService) RunDueStoreJobs(ctx context.Context, limit int) (*RunResult, error) {
	if limit <= 0 {
		limit = config.DefaultSweepLimit
	}

	var res RunResult
	err := s.repo.WithTx(ctx, func(tx JobRepoInterface) error {
		jobs, err := tx.ClaimDue(ctx, limit)
		if err != nil {
			return err
		}
		res.Claimed = len(jobs)

		for i := range jobs {
			j := &jobs[i]

			var msg dto.UnifiedJobMessage
			if err := json.Unmarshal(j.Message, &msg); err != nil {
				s.applyBackoff(ctx, tx, j, "decode message: "+err.Error(), &res)
				continue
			}

			result, derr := s.dispatcher.Dispatch(ctx, &msg)
			if derr != nil {
				s.applyBackoff(ctx, tx, j, derr.Error(), &res)
				continue
			}

			ref := ""
			if result != nil {
				ref = result.ScheduleRef
			}
			if err := tx.MarkSucceeded(ctx, j.ID, ref); err != nil {
				return err
			}
			res.Succeeded++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("due job sweep completed",
		zap.Int("claimed", res.Claimed),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("retried", res.Retried),
		zap.Int("failed", res.Failed),
	)
	return &res, nil
}

// applyBackoff advances a failed attempt: increment the count, then either
// park the job FAILED (retries exhausted) or schedule the next attempt with
// exponential delay.
func (s *JobService) applyBackoff(ctx context.Context, tx JobRepoInterface, j *models.Job, lastError string, res *RunResult) {
	next := j.RetryCount + 1
	maxRetries := j.MaxRetries
	if maxRetries <= 0 {
		maxRetries = config.DefaultMaxRetries
	}

	if next >= maxRetries {
		if err := tx.MarkFailed(ctx, j.ID, next, lastError); err != nil {
			s.logger.Error("mark failed", zap.String("job_id", j.ID), zap.Error(err))
			return
		}
		if res != nil {
			res.Failed++
		}
		s.logger.Warn("job exhausted retries",
			zap.String("job_id", j.ID), zap.Int("retry_count", next), zap.String("last_error", lastError))
		return
	}

	nextAt := time.Now().UTC().Add(backoffDelay(next))
	if err := tx.ScheduleRetry(ctx, j.ID, next, nextAt, lastError); err != nil {
		s.logger.Error("schedule retry", zap.String("job_id", j.ID), zap.Error(err))
		return
	}
	if res != nil {
		res.Retried++
	}
	s.logger.Info("job scheduled for retry",
		zap.String("job_id", j.ID), zap.Int("retry_count", next), zap.Time("next_retry_at", nextAt))
}

// DrainPrimaryQueue receives a batch from the primary queue and executes each
// message. A successful dispatch deletes the message; a failed one persists
// the job to the store and leaves the message to its visibility timeout.
func (s *JobService) DrainPrimaryQueue(ctx context.Context, limit int) (*DrainResult, error) {
	if limit <= 0 {
		limit = config.DefaultDrainLimit
	}

	msgs, err := s.queue.Receive(ctx, int32(limit))
	if err != nil {
		return nil, err
	}

	res := DrainResult{Received: len(msgs)}
	for _, m := range msgs {
		body := ""
		if m.Body != nil {
			body = *m.Body
		}
		// Messages on the primary queue are unified envelopes; the tolerant
		// mapper is only the fallback so a corrupted payload cannot poison
		// the drain.
		var msg *dto.UnifiedJobMessage
		var parsed dto.UnifiedJobMessage
		if err := json.Unmarshal([]byte(body), &parsed); err == nil && parsed.Execution.Type != "" {
			parsed.EnsureTracking()
			msg = &parsed
		} else {
			msg = queue.MapSourceMessage(body, "main")
		}

		result, derr := s.dispatcher.Dispatch(ctx, msg)
		if derr != nil {
			s.logger.Warn("drain dispatch failed, persisting job",
				zap.String("job_id", msg.Metadata.JobID), zap.Error(derr))
			if perr := s.persistAttempted(ctx, msg, derr.Error()); perr != nil {
				s.logger.Error("persist drained job failed, message stays on queue",
					zap.String("job_id", msg.Metadata.JobID), zap.Error(perr))
				continue
			}
			res.Persisted++
			continue
		}

		ref := ""
		if result != nil {
			ref = result.ScheduleRef
		}
		// A row only exists in "both" mode; the update is a no-op otherwise.
		if err := s.repo.MarkSucceeded(ctx, msg.Metadata.JobID, ref); err != nil {
			s.logger.Error("mark drained job succeeded", zap.String("job_id", msg.Metadata.JobID), zap.Error(err))
		}
		if m.ReceiptHandle != nil {
			if err := s.queue.Delete(ctx, *m.ReceiptHandle); err != nil {
				s.logger.Warn("delete drained message", zap.String("job_id", msg.Metadata.JobID), zap.Error(err))
			}
		}
		res.Dispatched++
	}

	s.logger.Info("queue drain completed",
		zap.Int("received", res.Received),
		zap.Int("dispatched", res.Dispatched),
		zap.Int("persisted", res.Persisted),
	)
	return &res, nil
}

// ProcessScheduledMessage executes a message delivered by the scheduler
// trigger. On failure the job is persisted for the sweep, so the caller can
// acknowledge either way.
func (s *JobService) ProcessScheduledMessage(ctx context.Context, msg dto.UnifiedJobMessage) error {
	msg.EnsureTracking()

	result, err := s.dispatcher.Dispatch(ctx, &msg)
	if err != nil {
		s.logger.Warn("scheduled message dispatch failed, persisting job",
			zap.String("job_id", msg.Metadata.JobID), zap.Error(err))
		if perr := s.persistAttempted(ctx, &msg, err.Error()); perr != nil {
			return fmt.Errorf("persist scheduled job %s: %w", msg.Metadata.JobID, perr)
		}
		return err
	}

	ref := ""
	if result != nil {
		ref = result.ScheduleRef
	}
	if err := s.repo.MarkSucceeded(ctx, msg.Metadata.JobID, ref); err != nil {
		s.logger.Error("mark scheduled job succeeded", zap.String("job_id", msg.Metadata.JobID), zap.Error(err))
	}

	s.logger.Info("scheduled message processed", zap.String("job_id", msg.Metadata.JobID))
	return nil
}

// PollSourceQueue bridges one upstream source queue into the primary queue.
func (s *JobService) PollSourceQueue(ctx context.Context, queueName string, limit int) (int, error) {
	if s.bridge == nil {
		return 0, common.Errf(http.StatusServiceUnavailable, "source queue bridge not configured")
	}
	n, err := s.bridge.PollQueue(ctx, queueName, limit)
	if err != nil {
		if errors.Is(err, queue.ErrUnknownQueue) {
			return 0, common.Errf(http.StatusNotFound, "source queue %q not found", queueName)
		}
		return 0, err
	}
	return n, nil
}

// PersistFailedMessage stores a message that never reached the primary queue
// as a due PENDING row, so the sweep executes it. Implements
// queue.FailedJobStore.
func (s *JobService) PersistFailedMessage(ctx context.Context, msg *dto.UnifiedJobMessage) error {
	msg.EnsureTracking()
	now := time.Now().UTC()
	row, err := buildJobRow(msg, config.JobStatusPending, &now)
	if err != nil {
		return err
	}
	return s.repo.Create(ctx, row)
}

// persistAttempted records a message whose dispatch attempt failed. An
// existing row (both-mode jobs) gets the normal backoff transition; an
// unknown message becomes a new RETRYING row.
func (s *JobService) persistAttempted(ctx context.Context, msg *dto.UnifiedJobMessage, lastError string) error {
	if existing, err := s.repo.Get(ctx, msg.Metadata.JobID); err == nil {
		s.applyBackoff(ctx, s.repo, existing, lastError, nil)
		return nil
	} else if !isNotFound(err) {
		return err
	}

	next := msg.Metadata.RetryCount + 1
	if next >= config.DefaultMaxRetries {
		row, err := buildJobRow(msg, config.JobStatusFailed, nil)
		if err != nil {
			return err
		}
		row.RetryCount = next
		row.LastError = lastError
		return s.repo.Create(ctx, row)
	}

	nextAt := time.Now().UTC().Add(backoffDelay(next))
	row, err := buildJobRow(msg, config.JobStatusRetrying, &nextAt)
	if err != nil {
		return err
	}
	row.RetryCount = next
	row.LastError = lastError
	return s.repo.Create(ctx, row)
}

func buildJobRow(msg *dto.UnifiedJobMessage, status config.JobStatus, nextRetryAt *time.Time) (*models.Job, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal job message: %w", err)
	}
	return &models.Job{
		ID:             msg.Metadata.JobID,
		AppID:          msg.Metadata.AppID,
		ExecutionType:  string(msg.Execution.Type),
		Status:         string(status),
		Message:        datatypes.JSON(raw),
		RetryCount:     msg.Metadata.RetryCount,
		MaxRetries:     config.DefaultMaxRetries,
		NextRetryAt:    nextRetryAt,
		IdempotencyKey: msg.Metadata.IdempotencyKey,
		MessageGroupID: msg.Metadata.MessageGroupID,
	}, nil
}

func toResponse(j *models.Job) *dto.JobResponseDTO {
	resp := &dto.JobResponseDTO{
		ID:             j.ID,
		AppID:          j.AppID,
		ExecutionType:  j.ExecutionType,
		Status:         j.Status,
		RetryCount:     j.RetryCount,
		MaxRetries:     j.MaxRetries,
		NextRetryAt:    j.NextRetryAt,
		LastError:      j.LastError,
		ScheduleRef:    j.ScheduleRef,
		IdempotencyKey: j.IdempotencyKey,
		MessageGroupID: j.MessageGroupID,
		CreatedAt:      j.CreatedAt,
		UpdatedAt:      j.UpdatedAt,
	}
	var msg dto.UnifiedJobMessage
	if err := json.Unmarshal(j.Message, &msg); err == nil {
		resp.Message = &msg
	}
	return resp
}

// queuedResponse synthesizes a response for jobs that only exist on the
// queue and have no row yet.
func queuedResponse(msg *dto.UnifiedJobMessage) *dto.JobResponseDTO {
	now := time.Now().UTC()
	return &dto.JobResponseDTO{
		ID:             msg.Metadata.JobID,
		AppID:          msg.Metadata.AppID,
		ExecutionType:  string(msg.Execution.Type),
		Status:         string(config.JobStatusPending),
		Message:        msg,
		RetryCount:     msg.Metadata.RetryCount,
		MaxRetries:     config.DefaultMaxRetries,
		IdempotencyKey: msg.Metadata.IdempotencyKey,
		MessageGroupID: msg.Metadata.MessageGroupID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// validateExecution rejects an incomplete execution descriptor at creation
// time, before anything is persisted or published.
func validateExecution(exec *dto.ExecutionConfig) error {
	missing := func(field string) error {
		return common.NewAPIError(http.StatusBadRequest, "invalid execution config",
			map[string]any{field: "required for " + string(exec.Type)})
	}

	switch exec.Type {
	case config.ExecutionLambdaInvoke:
		if exec.FunctionName == "" {
			return missing("functionName")
		}
	case config.ExecutionLambdaURL:
		if exec.FunctionURL == "" {
			return missing("functionUrl")
		}
	case config.ExecutionRestAPI:
		if exec.BaseURL == "" {
			return missing("baseUrl")
		}
	case config.ExecutionSchedule:
		if exec.ScheduleExpression == "" {
			return missing("scheduleExpression")
		}
		if exec.TargetJob == nil {
			return missing("targetJob")
		}
		if err := validateExecution(&exec.TargetJob.Execution); err != nil {
			return err
		}
	default:
		return common.Errf(http.StatusBadRequest, "unknown execution type %q", exec.Type)
	}
	return nil
}

func allowedMode(mode config.CreationMode) bool {
	for _, m := range config.AllowedModes {
		if m == mode {
			return true
		}
	}
	return false
}

func validStatus(s config.JobStatus) bool {
	switch s {
	case config.JobStatusPending, config.JobStatusRetrying, config.JobStatusSucceeded,
		config.JobStatusFailed, config.JobStatusDead:
		return true
	}
	return false
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
