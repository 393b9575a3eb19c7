package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Task interface for scheduled tasks
type Task interface {
	Run(ctx context.Context) error
	Interval() time.Duration
	Name() string
}

// Scheduler runs each task on its own ticker. A task can also be triggered
// out of band; triggers coalesce while a run is pending.
type Scheduler struct {
	ctx      context.Context
	cancel   context.CancelFunc
	tasks    []Task
	triggers map[string]chan struct{}
	wg       sync.WaitGroup
}

// New creates a new task scheduler
func New(ctx context.Context) *Scheduler {
	ctx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		ctx:      ctx,
		cancel:   cancel,
		tasks:    make([]Task, 0),
		triggers: make(map[string]chan struct{}),
	}
}

// AddTask adds a task to the scheduler. Tasks must be added before Start.
func (s *Scheduler) AddTask(task Task) {
	s.tasks = append(s.tasks, task)
	s.triggers[task.Name()] = make(chan struct{}, 1)
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() {
	slog.Info("Starting task scheduler")
	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.runTask(task, s.triggers[task.Name()])
	}
	slog.Info("Task scheduler started", "task_count", len(s.tasks))
}

// Trigger requests an immediate run of the named task. It never blocks and
// reports false for unknown tasks.
func (s *Scheduler) Trigger(name string) bool {
	ch, ok := s.triggers[name]
	if !ok {
		return false
	}
	select {
	case ch <- struct{}{}:
	default:
	}
	return true
}

// Stop gracefully stops all tasks
func (s *Scheduler) Stop() {
	slog.Info("Stopping task scheduler")
	s.cancel()
	s.wg.Wait()
	slog.Info("Task scheduler stopped")
}

// runTask runs a single task on its schedule
func (s *Scheduler) runTask(task Task, trigger <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(task.Interval())
	defer ticker.Stop()

	// Run immediately on start
	s.execute(task)

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.execute(task)
		case <-trigger:
			slog.Debug("Task triggered", "task", task.Name())
			s.execute(task)
			ticker.Reset(task.Interval())
		}
	}
}

func (s *Scheduler) execute(task Task) {
	start := time.Now()
	if err := task.Run(s.ctx); err != nil {
		if s.ctx.Err() != nil {
			return
		}
		slog.Error("Error running task", "task", task.Name(), "error", err)
		return
	}
	slog.Debug("Task completed", "task", task.Name(), "duration", time.Since(start))
}
