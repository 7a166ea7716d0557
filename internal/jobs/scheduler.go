package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"doesitwork/internal/services"
)

const generationJobName = "daily_question_generation"

// Scheduler owns the recurring background jobs. The only job today is the
// daily generation run, fired once per day at a fixed UTC hour.
type Scheduler struct {
	scheduler  gocron.Scheduler
	generation *services.GenerationService
	opts       services.GenerationOptions
}

// NewScheduler creates the job scheduler. runHourUTC is the UTC hour
// (0-23) at which the daily generation run fires.
func NewScheduler(generation *services.GenerationService, opts services.GenerationOptions, runHourUTC int) (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	s := &Scheduler{
		scheduler:  scheduler,
		generation: generation,
		opts:       opts,
	}

	if runHourUTC < 0 || runHourUTC > 23 {
		return nil, fmt.Errorf("invalid run hour %d, must be 0-23", runHourUTC)
	}

	_, err = scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(runHourUTC), 0, 0))),
		gocron.NewTask(s.runGeneration),
		gocron.WithName(generationJobName),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register generation job: %w", err)
	}

	return s, nil
}

// Start begins firing scheduled jobs
func (s *Scheduler) Start() {
	s.scheduler.Start()
	slog.Info("job scheduler started", "job", generationJobName)
}

// Stop shuts the scheduler down, waiting for a running job to finish
func (s *Scheduler) Stop() error {
	slog.Info("stopping job scheduler")
	return s.scheduler.Shutdown()
}

func (s *Scheduler) runGeneration() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	result, err := s.generation.Run(ctx, s.opts)
	if err != nil {
		slog.Error("scheduled generation run failed", "error", err)
		return
	}
	slog.Info("scheduled generation run finished", "run_id", result.RunID, "summary", result.Summary)
}
