package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a recurring unit of background work. Errors are logged, never
// propagated: scheduled maintenance must not take the process down.
type Task func(context.Context) error

type entry struct {
	name     string
	interval time.Duration
	task     Task
}

// Scheduler runs registered tasks on fixed intervals until stopped.
type Scheduler struct {
	logger *zap.Logger

	mu      sync.Mutex
	entries []entry
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// New builds an empty scheduler.
func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{logger: logger}
}

// Every registers a task to run on the given interval. Must be called
// before Start.
func (s *Scheduler) Every(interval time.Duration, name string, task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if interval <= 0 {
		interval = time.Hour
	}
	s.entries = append(s.entries, entry{name: name, interval: interval, task: task})
}

// Start launches one goroutine per registered task. Safe to call once.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	for _, e := range s.entries {
		s.wg.Add(1)
		go s.run(ctx, e)
	}
	s.started = true
	s.logger.Sugar().Infow("scheduler started", "tasks", len(s.entries))
}

// Stop cancels all tasks and waits for them to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
	s.logger.Sugar().Infow("scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context, e entry) {
	defer s.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.task(ctx); err != nil {
				s.logger.Warn("scheduled task failed",
					zap.String("task", e.name), zap.Error(err))
			}
		}
	}
}
