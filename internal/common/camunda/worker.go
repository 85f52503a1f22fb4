// internal/common/camunda/worker.go
package camunda

import (
	"sync"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"food-recommender/internal/common/config"
	"food-recommender/internal/common/logger"
)

// JobHandler completes or fails the job itself.
type JobHandler func(client worker.JobClient, job entities.Job)

type WorkerOptions struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
}

// OptionsFromConfig converts a worker's configuration block.
func OptionsFromConfig(taskType string, cfg config.WorkerConfig) WorkerOptions {
	return WorkerOptions{
		TaskType:      taskType,
		MaxJobsActive: cfg.MaxJobsActive,
		Timeout:       config.GetDuration(cfg.Timeout),
	}.withDefaults()
}

func (o WorkerOptions) withDefaults() WorkerOptions {
	if o.MaxJobsActive <= 0 {
		o.MaxJobsActive = 5
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	return o
}

// Workers tracks the open job workers so they can be closed together on shutdown.
type Workers struct {
	mu      sync.Mutex
	client  zbc.Client
	logger  logger.Logger
	workers map[string]worker.JobWorker
}

func NewWorkers(client zbc.Client, log logger.Logger) *Workers {
	return &Workers{
		client:  client,
		logger:  log,
		workers: make(map[string]worker.JobWorker),
	}
}

// Start opens a job worker for opts.TaskType. A second Start for the same task type is ignored.
func (w *Workers) Start(opts WorkerOptions, handler JobHandler) {
	opts = opts.withDefaults()

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.workers[opts.TaskType]; exists {
		w.logger.Warn("worker already started", map[string]interface{}{"taskType": opts.TaskType})
		return
	}

	jobWorker := w.client.NewJobWorker().
		JobType(opts.TaskType).
		Handler(worker.JobHandler(handler)).
		MaxJobsActive(opts.MaxJobsActive).
		Timeout(opts.Timeout).
		Name(opts.TaskType).
		Open()

	w.workers[opts.TaskType] = jobWorker
	w.logger.Info("worker started", map[string]interface{}{
		"taskType":      opts.TaskType,
		"maxJobsActive": opts.MaxJobsActive,
		"timeout":       opts.Timeout.String(),
	})
}

func (w *Workers) TaskTypes() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.workers))
	for taskType := range w.workers {
		out = append(out, taskType)
	}
	return out
}

// Close stops polling and waits for in-flight jobs of every worker.
func (w *Workers) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for taskType, jw := range w.workers {
		jw.Close()
		jw.AwaitClose()
		w.logger.Info("worker stopped", map[string]interface{}{"taskType": taskType})
	}
	w.workers = make(map[string]worker.JobWorker)
}
