package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dbaops/mysqlpulse/internal/models"
)

// ProbeRunner executes a single probe against the target database.
type ProbeRunner interface {
	RunProbe(ctx context.Context, probe models.Probe) models.ExecutionResult
}

// Engine dispatches probes across a bounded worker pool. Results land in
// registration-order slots regardless of completion order.
type Engine struct {
	runner     ProbeRunner
	workers    int
	runTimeout time.Duration
}

// New creates an execution engine. workers <= 0 falls back to 1.
func New(runner ProbeRunner, workers int, runTimeout time.Duration) *Engine {
	if workers <= 0 {
		workers = 1
	}
	return &Engine{
		runner:     runner,
		workers:    workers,
		runTimeout: runTimeout,
	}
}

// Run executes one probe.
func (e *Engine) Run(ctx context.Context, probe models.Probe) models.ExecutionResult {
	return e.runner.RunProbe(ctx, probe)
}

type probeJob struct {
	idx   int
	probe models.Probe
}

// RunAll executes all probes with bounded fan-out. A run-level cancellation
// propagates to in-flight probes; probes that never started are marked
// skipped. The returned slice always has one entry per probe, in input
// order.
func (e *Engine) RunAll(ctx context.Context, probes []models.Probe) []models.ExecutionResult {
	results := make([]models.ExecutionResult, len(probes))
	if len(probes) == 0 {
		return results
	}

	runCtx, cancel := withTotalTimeoutContext(ctx, e.runTimeout)
	defer cancel()

	jobs := make(chan probeJob)
	var wg sync.WaitGroup

	workers := e.workers
	if workers > len(probes) {
		workers = len(probes)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for job := range jobs {
				e.runJob(runCtx, id, job, results)
			}
		}(i)
	}

dispatch:
	for i, probe := range probes {
		select {
		case <-runCtx.Done():
			break dispatch
		case jobs <- probeJob{idx: i, probe: probe}:
		}
	}
	close(jobs)
	wg.Wait()

	// Probes never handed to a worker, or handed over after cancellation
	// without running, carry no result yet.
	for i := range results {
		if results[i].Outcome == "" {
			results[i] = models.ExecutionResult{
				ProbeID: probes[i].ID,
				Outcome: models.OutcomeSkipped,
			}
		}
	}

	return results
}

// runJob executes one job and stores the result in its slot. A worker panic
// is contained and recorded as a probe failure.
func (e *Engine) runJob(ctx context.Context, workerID int, job probeJob, results []models.ExecutionResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("worker panic recovered",
				slog.Int("worker_id", workerID),
				slog.String("probe", job.probe.ID),
				slog.String("panic", fmt.Sprint(r)),
			)
			results[job.idx] = models.ExecutionResult{
				ProbeID: job.probe.ID,
				Outcome: models.OutcomeError,
				Err:     fmt.Sprintf("internal panic: %v", r),
			}
		}
	}()

	if err := contextError(ctx); err != nil {
		// Leave the slot empty so the probe is reported as skipped, not
		// failed: it never reached the server.
		return
	}

	results[job.idx] = e.runner.RunProbe(ctx, job.probe)
}
