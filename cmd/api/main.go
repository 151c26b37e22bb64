package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/biizlabs/jobengine/internal/awsclient"
	"github.com/biizlabs/jobengine/internal/config"
	"github.com/biizlabs/jobengine/internal/dispatch"
	"github.com/biizlabs/jobengine/internal/job"
	"github.com/biizlabs/jobengine/internal/queue"
	"github.com/biizlabs/jobengine/internal/storage/postgres"
	"github.com/biizlabs/jobengine/middleware"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	db, err := postgres.ConnectDB(ctx, nil)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	if err := postgres.Migrate(db, "migrations"); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	clients, err := awsclient.New(ctx, cfg)
	if err != nil {
		logger.Fatal("build aws clients", zap.Error(err))
	}

	primary := queue.NewPrimaryQueue(clients.SQS, cfg.MainQueueURL)
	dispatcher := dispatch.NewDispatcher(clients.Lambda, clients.Scheduler, clients.Credentials, cfg, logger)

	jobRepo := postgres.NewJobRepository(db)
	appRepo := postgres.NewAppRepository(db)

	service := job.NewJobService(jobRepo, appRepo, dispatcher, primary, nil, logger)
	bridge := queue.NewBridge(clients.SQS, primary, cfg.SourceQueues(), service, logger)
	service.SetBridge(bridge)

	handler := job.NewJobHandler(service)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.ErrorHandler())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	job.RegisterRoutes(router, handler)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	go func() {
		logger.Info("api listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("serve", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
