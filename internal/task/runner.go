package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// RunnerConfig holds configuration for the task runner.
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount: 2,
		QueueSize:   100,
	}
}

// Runner manages background task processing over an in-memory queue. All
// tasks submitted here are idempotent cache maintenance, so there is no
// persistence or crash recovery: a task lost on shutdown is redone by the
// next event or sweep.
type Runner struct {
	taskChan   chan Task
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     RunnerConfig
	logger     *slog.Logger
	errHandler func(task Task, err error)
}

// NewRunner creates a new Runner.
func NewRunner(config RunnerConfig, log *slog.Logger) *Runner {
	if config.WorkerCount < 1 {
		config.WorkerCount = DefaultRunnerConfig().WorkerCount
	}
	if config.QueueSize < 1 {
		config.QueueSize = DefaultRunnerConfig().QueueSize
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "task_runner"))

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		taskChan:   make(chan Task, config.QueueSize),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     log,
		errHandler: func(task Task, err error) {
			// Default error handler just logs the error
			log.Error("task execution failed",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
		},
	}
}

// SetErrorHandler allows setting a custom error handler function.
func (r *Runner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// Submit adds a new task to the queue. A full queue rejects the task with
// an error; callers treat that as a skipped refresh, not a failure that
// needs retrying, because the nightly sweep will catch up.
func (r *Runner) Submit(task Task) error {
	select {
	case r.taskChan <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full, dropping %s task", task.Type())
	}
}

// Start initializes the worker pool and begins processing tasks.
func (r *Runner) Start() {
	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
}

// Stop gracefully shuts down the runner. In-flight tasks finish; queued
// tasks are dropped.
func (r *Runner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	close(r.taskChan)
}

// worker processes tasks from the queue.
func (r *Runner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return

		case task, ok := <-r.taskChan:
			if !ok {
				r.logger.Debug("task channel closed, stopping worker", "worker_id", id)
				return
			}

			r.processTask(task, id)
		}
	}
}

// processTask handles execution of a single task.
func (r *Runner) processTask(task Task, workerID int) {
	log := r.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
		"worker_id", workerID,
	)

	log.Debug("processing task")

	if err := task.Execute(r.ctx); err != nil {
		r.errHandler(task, err)
		return
	}

	log.Debug("task completed")
}
