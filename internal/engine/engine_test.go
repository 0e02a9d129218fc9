package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dbaops/mysqlpulse/internal/models"
)

// fakeRunner simulates probe execution with per-probe delays.
type fakeRunner struct {
	mu      sync.Mutex
	delays  map[string]time.Duration
	started []string
}

func (f *fakeRunner) RunProbe(ctx context.Context, probe models.Probe) models.ExecutionResult {
	f.mu.Lock()
	f.started = append(f.started, probe.ID)
	delay := f.delays[probe.ID]
	f.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return models.ExecutionResult{
				ProbeID: probe.ID,
				Outcome: models.OutcomeCancelled,
				Err:     ctx.Err().Error(),
			}
		case <-timer.C:
		}
	}

	return models.ExecutionResult{
		ProbeID: probe.ID,
		Outcome: models.OutcomeSuccess,
		Rows:    []models.Row{{"ok": models.StringValue("1")}},
	}
}

func probesNamed(ids ...string) []models.Probe {
	probes := make([]models.Probe, len(ids))
	for i, id := range ids {
		probes[i] = models.Probe{ID: id, Query: "SELECT 1", Mode: models.ModeScalar}
	}
	return probes
}

func TestRunAllPreservesRegistrationOrder(t *testing.T) {
	runner := &fakeRunner{delays: map[string]time.Duration{
		// First probe completes last.
		"p.first": 50 * time.Millisecond,
	}}
	e := New(runner, 3, 0)

	probes := probesNamed("p.first", "p.second", "p.third")
	results := e.RunAll(context.Background(), probes)

	if len(results) != len(probes) {
		t.Fatalf("expected %d results, got %d", len(probes), len(results))
	}
	for i, result := range results {
		if result.ProbeID != probes[i].ID {
			t.Fatalf("slot %d: expected %q, got %q", i, probes[i].ID, result.ProbeID)
		}
		if !result.Success() {
			t.Fatalf("probe %q: expected success, got %q", result.ProbeID, result.Outcome)
		}
	}
}

func TestRunAllSlowProbeDoesNotBlockOthers(t *testing.T) {
	runner := &fakeRunner{delays: map[string]time.Duration{
		"p.slow": 300 * time.Millisecond,
	}}
	e := New(runner, 2, 0)

	start := time.Now()
	results := e.RunAll(context.Background(), probesNamed("p.slow", "p.a", "p.b", "p.c", "p.d"))
	elapsed := time.Since(start)

	for _, result := range results {
		if !result.Success() {
			t.Fatalf("probe %q: expected success, got %q", result.ProbeID, result.Outcome)
		}
	}
	// With two workers the fast probes drain on the second worker while the
	// slow one occupies the first; anything close to serial execution of
	// the slow path would exceed this bound.
	if elapsed > 600*time.Millisecond {
		t.Fatalf("batch took %s, slow probe appears to have blocked the pool", elapsed)
	}
}

func TestRunAllCancellationSkipsUnstartedProbes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := &fakeRunner{delays: map[string]time.Duration{
		"p.blocking": time.Minute,
	}}
	e := New(runner, 1, 0)

	go func() {
		// Wait until the blocking probe is in flight, then abort the run.
		for {
			runner.mu.Lock()
			started := len(runner.started)
			runner.mu.Unlock()
			if started >= 2 {
				cancel()
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()

	results := e.RunAll(ctx, probesNamed("p.done", "p.blocking", "p.never1", "p.never2"))

	if results[0].Outcome != models.OutcomeSuccess {
		t.Fatalf("completed probe: expected success, got %q", results[0].Outcome)
	}
	if results[1].Outcome != models.OutcomeCancelled {
		t.Fatalf("in-flight probe: expected cancelled, got %q", results[1].Outcome)
	}
	for _, result := range results[2:] {
		if result.Outcome != models.OutcomeSkipped {
			t.Fatalf("unstarted probe %q: expected skipped, got %q", result.ProbeID, result.Outcome)
		}
		if result.Err != "" {
			t.Fatalf("unstarted probe %q: expected no failure detail, got %q", result.ProbeID, result.Err)
		}
	}
}

func TestRunAllRunTimeoutAbortsBatch(t *testing.T) {
	runner := &fakeRunner{delays: map[string]time.Duration{
		"p.slow": time.Minute,
	}}
	e := New(runner, 1, 30*time.Millisecond)

	results := e.RunAll(context.Background(), probesNamed("p.slow", "p.after"))

	if results[0].Outcome != models.OutcomeCancelled {
		t.Fatalf("expected cancelled, got %q", results[0].Outcome)
	}
	if results[1].Outcome != models.OutcomeSkipped {
		t.Fatalf("expected skipped, got %q", results[1].Outcome)
	}
}

func TestRunAllEmptyInput(t *testing.T) {
	e := New(&fakeRunner{}, 4, 0)
	if results := e.RunAll(context.Background(), nil); len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}
