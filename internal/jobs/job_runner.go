package jobs

import (
	"context"
	"time"

	"rentflow-backend/internal/config"
	"rentflow-backend/internal/logger"
	"rentflow-backend/internal/notify"
	"rentflow-backend/internal/repository"
	"rentflow-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	outbox   *OutboxWorker
	config   *config.Config
	now      func() time.Time
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Booking  service.BookingService
	Document service.DocumentService
	Email    service.EmailService
	Sink     notify.EventSink
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(txm repository.TxManager, repos repository.Repositories, services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services: services,
		outbox:   NewOutboxWorker(txm, repos, services, cfg.Outbox),
		config:   cfg,
		now:      time.Now,
	}
}

// Config returns the configuration the runner was built with.
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// Outbox returns the worker draining post-commit effects.
func (jr *JobRunner) Outbox() *OutboxWorker {
	return jr.outbox
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	ctx := context.Background()
	if timeout := jr.config.Scheduler.JobTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	logger.Info("Starting job", "job", jobName)
	jobFunc(ctx)
	logger.Info("Job completed", "job", jobName)
}

// RunAllJobs runs every scheduled job once (for manual execution)
func (jr *JobRunner) RunAllJobs() {
	jr.ExpireBookings()
	jr.DrainOutbox()
}
