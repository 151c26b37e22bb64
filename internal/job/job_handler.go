package job

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/biizlabs/jobengine/common"
	"github.com/biizlabs/jobengine/internal/dispatch"
	"github.com/biizlabs/jobengine/internal/dto"
	"github.com/biizlabs/jobengine/middleware"
)

type JobHandler struct {
	service JobServiceInterface
}

func NewJobHandler(service JobServiceInterface) *JobHandler {
	return &JobHandler{service: service}
}

var _ JobHandlerInterface = (*JobHandler)(nil)

// CreateJob handles POST /v1/jobs.
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dto.CreateJobDTO
	if !middleware.Bind(c, &req) {
		return
	}

	resp, err := h.service.CreateJob(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CreateCallbackJob handles POST /v1/jobs/callback-http. The tenant app is
// identified by the X-App-ID header.
func (h *JobHandler) CreateCallbackJob(c *gin.Context) {
	appID := c.GetHeader("X-App-ID")
	if appID == "" {
		c.Error(common.Errf(http.StatusBadRequest, "X-App-ID header is required"))
		return
	}

	var req dto.CreateCallbackJobDTO
	if !middleware.Bind(c, &req) {
		return
	}
	req.IdempotencyKey = c.GetHeader("Idempotency-Key")

	resp, err := h.service.CreateCallbackJob(c.Request.Context(), appID, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetJob handles GET /v1/jobs/:id.
func (h *JobHandler) GetJob(c *gin.Context) {
	resp, err := h.service.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListJobs handles GET /v1/jobs?status=&limit=.
func (h *JobHandler) ListJobs(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.Error(common.Errf(http.StatusBadRequest, "invalid limit %q", raw))
			return
		}
		limit = n
	}

	jobs, err := h.service.ListJobs(c.Request.Context(), c.Query("status"), limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

// RetryJob handles POST /v1/jobs/:id/retry.
func (h *JobHandler) RetryJob(c *gin.Context) {
	resp, err := h.service.RetryJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeadletterJob handles POST /v1/jobs/:id/deadletter.
func (h *JobHandler) DeadletterJob(c *gin.Context) {
	resp, err := h.service.DeadletterJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RunJobs handles POST /internal/v1/jobs/run. The body is optional; an
// absent limit falls back to the sweep default.
func (h *JobHandler) RunJobs(c *gin.Context) {
	var req dto.RunJobsDTO
	if c.Request.ContentLength > 0 && !middleware.Bind(c, &req) {
		return
	}

	res, err := h.service.RunDueStoreJobs(c.Request.Context(), req.Limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"processed": res.Claimed,
		"succeeded": res.Succeeded,
		"retried":   res.Retried,
		"failed":    res.Failed,
	})
}

// DrainQueue handles POST /internal/v1/queue/drain. The body is optional.
func (h *JobHandler) DrainQueue(c *gin.Context) {
	var req dto.RunJobsDTO
	if c.Request.ContentLength > 0 && !middleware.Bind(c, &req) {
		return
	}

	res, err := h.service.DrainPrimaryQueue(c.Request.Context(), req.Limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"processed":  res.Received,
		"dispatched": res.Dispatched,
		"persisted":  res.Persisted,
	})
}

// ProcessScheduledMessage handles POST /internal/v1/scheduled-message, the
// callback target of EventBridge schedules. A failed dispatch still answers
// 200 because the job is already persisted; a non-2xx would make the
// scheduler redeliver a message the store now owns.
func (h *JobHandler) ProcessScheduledMessage(c *gin.Context) {
	var msg dto.UnifiedJobMessage
	if !middleware.Bind(c, &msg) {
		return
	}

	err := h.service.ProcessScheduledMessage(c.Request.Context(), msg)
	if err != nil {
		if dispatch.IsConfigError(err) {
			c.Error(common.Errf(http.StatusBadRequest, "%s", err.Error()))
			return
		}
		if apiErr, ok := err.(common.APIError); ok {
			c.Error(apiErr)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PollSourceQueue handles POST /internal/v1/source-queues/poll.
func (h *JobHandler) PollSourceQueue(c *gin.Context) {
	var req dto.PollSourceQueueDTO
	if !middleware.Bind(c, &req) {
		return
	}

	processed, err := h.service.PollSourceQueue(c.Request.Context(), req.QueueName, req.Limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"queueName": req.QueueName,
		"processed": processed,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
