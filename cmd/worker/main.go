package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/biizlabs/jobengine/internal/awsclient"
	"github.com/biizlabs/jobengine/internal/config"
	"github.com/biizlabs/jobengine/internal/dispatch"
	"github.com/biizlabs/jobengine/internal/job"
	"github.com/biizlabs/jobengine/internal/queue"
	"github.com/biizlabs/jobengine/internal/storage/postgres"
	"github.com/biizlabs/jobengine/internal/sweeper"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	sw := sweeper.New(service, bridge.SourceNames(), logger)
	sw.Start(ctx)
	logger.Info("worker started", zap.Strings("source_queues", bridge.SourceNames()))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	cancel()
	sw.Stop()
}
