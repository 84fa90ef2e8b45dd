// Package runner triggers scheduled jobs at their configured intervals,
// isolating failures so one job cannot take down the rest of the table.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/adambarczewski00/telemetry-board/internal/metrics"
	"github.com/adambarczewski00/telemetry-board/internal/schedule"
)

// HandlerFunc executes one task invocation with positional arguments.
type HandlerFunc func(ctx context.Context, args []string) error

// Runner owns the gocron scheduler and the task handler registry.
type Runner struct {
	sched    *gocron.Scheduler
	handlers map[string]HandlerFunc
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// New constructs a Runner with an empty registry.
func New(m *metrics.Metrics, logger zerolog.Logger) *Runner {
	sched := gocron.NewScheduler(time.UTC)
	sched.WaitForScheduleAll()

	return &Runner{
		sched:    sched,
		handlers: make(map[string]HandlerFunc),
		logger:   logger.With().Str("component", "runner").Logger(),
		metrics:  m,
	}
}

// Register binds a task identifier to its handler. Later registrations for
// the same identifier win.
func (r *Runner) Register(task string, fn HandlerFunc) {
	r.handlers[task] = fn
}

// Apply schedules every entry of the job table. An entry referencing an
// unregistered task is a startup configuration error, not a silent gap.
func (r *Runner) Apply(entries map[string]schedule.Entry) error {
	for name, entry := range entries {
		fn, ok := r.handlers[entry.Task]
		if !ok {
			return fmt.Errorf("no handler registered for task %q (job %q)", entry.Task, name)
		}

		jobName, task, args := name, entry.Task, entry.Args
		handler := fn
		if _, err := r.sched.Every(entry.Every).Tag(jobName).Do(func() {
			// Errors and panics are contained per execution; the
			// next tick fires regardless.
			_ = r.execute(context.Background(), jobName, task, handler, args)
		}); err != nil {
			return fmt.Errorf("schedule job %q: %w", jobName, err)
		}

		r.logger.Info().Str("job", jobName).Str("task", task).Dur("every", entry.Every).Msg("job scheduled")
	}
	return nil
}

// RunNow executes a registered task immediately, outside the schedule.
func (r *Runner) RunNow(ctx context.Context, task string, args ...string) error {
	fn, ok := r.handlers[task]
	if !ok {
		return fmt.Errorf("no handler registered for task %q", task)
	}
	return r.execute(ctx, task, task, fn, args)
}

// Start begins asynchronous execution of the scheduled jobs.
func (r *Runner) Start() {
	r.sched.StartAsync()
}

// Stop halts the scheduler; in-flight executions run to completion.
func (r *Runner) Stop() {
	r.sched.Stop()
}

func (r *Runner) execute(ctx context.Context, jobName, task string, fn HandlerFunc, args []string) (err error) {
	started := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task %q panicked: %v", task, rec)
		}
		r.metrics.JobRan(jobName, time.Since(started), err != nil)
		if err != nil {
			r.logger.Error().Err(err).Str("job", jobName).Str("task", task).Msg("job execution failed")
		}
	}()

	return fn(ctx, args)
}
