// Package sweeper runs the background delivery loop of the worker binary:
// the due-job sweep, the primary-queue drain, and the source-queue polls.
package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/biizlabs/jobengine/internal/config"
	"github.com/biizlabs/jobengine/internal/job"
)

const (
	baseIdleDelay = time.Second
	maxIdleDelay  = 60 * time.Second
)

// Sweeper periodically executes one full delivery cycle. An idle cycle
// doubles the wait up to a ceiling; any processed work resets it, so a busy
// engine polls tightly and an idle one backs off.
type Sweeper struct {
	service job.JobServiceInterface
	sources []string
	logger  *zap.Logger

	quit chan struct{}
	done chan struct{}
}

func New(service job.JobServiceInterface, sources []string, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		service: service,
		sources: sources,
		logger:  logger,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the loop in its own goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
}

// Stop signals the loop and blocks until the in-flight cycle finishes.
func (s *Sweeper) Stop() {
	close(s.quit)
	<-s.done
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	delay := baseIdleDelay
	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.quit:
			return
		case <-timer.C:
		}

		processed := s.cycle(ctx)
		if processed > 0 {
			delay = baseIdleDelay
		} else {
			delay *= 2
			if delay > maxIdleDelay {
				delay = maxIdleDelay
			}
		}
		timer.Reset(delay)
	}
}

// cycle runs one sweep, one drain, and one poll per source queue, returning
// the total work processed. Errors are logged, never fatal; the next cycle
// retries.
func (s *Sweeper) cycle(ctx context.Context) int {
	processed := 0

	if res, err := s.service.RunDueStoreJobs(ctx, config.DefaultSweepLimit); err != nil {
		s.logger.Error("due job sweep failed", zap.Error(err))
	} else {
		processed += res.Claimed
	}

	if res, err := s.service.DrainPrimaryQueue(ctx, config.DefaultDrainLimit); err != nil {
		s.logger.Error("queue drain failed", zap.Error(err))
	} else {
		processed += res.Received
	}

	for _, name := range s.sources {
		n, err := s.service.PollSourceQueue(ctx, name, 0)
		if err != nil {
			s.logger.Error("source queue poll failed", zap.String("queue", name), zap.Error(err))
			continue
		}
		processed += n
	}

	return processed
}
