package job

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the public and internal job endpoints.
func RegisterRoutes(r gin.IRouter, h JobHandlerInterface) {
	v1 := r.Group("/v1/jobs")
	{
		v1.POST("", h.CreateJob)
		v1.POST("/callback-http", h.CreateCallbackJob)
		v1.GET("", h.ListJobs)
		v1.GET("/:id", h.GetJob)
		v1.POST("/:id/retry", h.RetryJob)
		v1.POST("/:id/deadletter", h.DeadletterJob)
	}

	internal := r.Group("/internal/v1")
	{
		internal.POST("/jobs/run", h.RunJobs)
		internal.POST("/queue/drain", h.DrainQueue)
		internal.POST("/scheduled-message", h.ProcessScheduledMessage)
		internal.POST("/source-queues/poll", h.PollSourceQueue)
	}
}
