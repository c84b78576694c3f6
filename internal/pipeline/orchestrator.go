package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/kozlony/internal/config"
)

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("orchestrator stopped")

// Orchestrator feeds queued issue jobs to a fixed pool of workers.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	worker  *Worker
	log     *slog.Logger
	workers int

	mu      sync.RWMutex
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewOrchestrator(cfg config.Config, worker *Worker, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:    NewJobStore(cfg.JobTTL),
		queue:   make(chan *Job, cfg.MaxQueueSize),
		worker:  worker,
		log:     log,
		workers: max(cfg.WorkerCount, 1),
	}
}

// Start launches the workers and the expired-job sweeper.
func (o *Orchestrator) Start(ctx context.Context) {
	ctx, o.cancel = context.WithCancel(ctx)

	for i := range o.workers {
		o.wg.Add(1)
		go o.run(ctx, i)
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		sweep := time.NewTicker(min(max(o.jobs.ttl/4, time.Second), 5*time.Minute))
		defer sweep.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-sweep.C:
				o.jobs.Cleanup()
			}
		}
	}()
	o.log.Info("pipeline started", "workers", o.workers, "queue_size", cap(o.queue))
}

func (o *Orchestrator) run(ctx context.Context, id int) {
	defer o.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-o.queue:
			if !ok {
				return
			}
			start := time.Now()
			o.worker.Process(ctx, job)
			snap := job.Snapshot()
			o.log.Info("job finished",
				"worker", id,
				"job_id", snap.ID,
				"status", snap.Status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}
	}
}

// Stop cancels in-flight jobs and waits for the workers. It is safe to call
// more than once.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit registers job and queues it. A full queue fails the job at once.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.stopped {
		return ErrStopped
	}

	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.AddError("queue full")
		job.SetStatus(StatusFailed, "queued")
		return fmt.Errorf("job queue is full (%d)", cap(o.queue))
	}
}

func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
