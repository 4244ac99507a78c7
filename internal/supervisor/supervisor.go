// Package supervisor dispatches ticker processing across a bounded
// pool of concurrent workers and assembles a run report.
package supervisor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oakline-data/edgaringest/internal/edgarmodel"
	"github.com/oakline-data/edgaringest/internal/orchestrator"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers and MaxWorkers bound the concurrent ticker pool: 3
// by default, 5 at the hard ceiling, to respect the fetcher's rate
// budget.
const (
	DefaultWorkers = 3
	MaxWorkers     = 5
)

// Supervisor runs a batch of tickers through an Orchestrator with
// bounded concurrency.
type Supervisor struct {
	Orchestrator *orchestrator.Orchestrator
	Workers      int
	Logger       *zap.Logger
}

// New builds a Supervisor. workers <= 0 uses DefaultWorkers; values
// above MaxWorkers are clamped. logger may be nil.
func New(o *orchestrator.Orchestrator, workers int, logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Supervisor{Orchestrator: o, Workers: clampWorkers(workers), Logger: logger}
}

func clampWorkers(n int) int {
	if n <= 0 {
		return DefaultWorkers
	}
	if n > MaxWorkers {
		return MaxWorkers
	}
	return n
}

// RunReport is the batch-level summary: every filing outcome across
// every ticker, plus the run's wall-clock bounds.
type RunReport struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []edgarmodel.Outcome
}

// Successes, Warnings, and Errors partition the run's outcomes for the
// report: a successful outcome with FiscalAmbiguous is a warning, not
// a plain success; any Success=false outcome is an error.
func (r RunReport) Successes() []edgarmodel.Outcome {
	var out []edgarmodel.Outcome
	for _, o := range r.Outcomes {
		if o.Success && !o.FiscalAmbiguous {
			out = append(out, o)
		}
	}
	return out
}

func (r RunReport) Warnings() []edgarmodel.Outcome {
	var out []edgarmodel.Outcome
	for _, o := range r.Outcomes {
		if o.Success && o.FiscalAmbiguous {
			out = append(out, o)
		}
	}
	return out
}

func (r RunReport) Errors() []edgarmodel.Outcome {
	var out []edgarmodel.Outcome
	for _, o := range r.Outcomes {
		if !o.Success {
			out = append(out, o)
		}
	}
	return out
}

// Format renders the run report as human-readable text, suitable for
// writing to a `run-report.txt` sink artifact or stdout.
func (r RunReport) Format() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Ingest Run Report\n")
	fmt.Fprintf(&b, "Started: %s\n", r.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Finished: %s\n", r.FinishedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Duration: %s\n\n", r.FinishedAt.Sub(r.StartedAt))

	successes, warnings, errs := r.Successes(), r.Warnings(), r.Errors()
	fmt.Fprintf(&b, "## Summary\n")
	fmt.Fprintf(&b, "- Successes: %d\n", len(successes))
	fmt.Fprintf(&b, "- Warnings: %d\n", len(warnings))
	fmt.Fprintf(&b, "- Errors: %d\n\n", len(errs))

	if len(warnings) > 0 {
		b.WriteString("## Warnings\n")
		for _, o := range warnings {
			fmt.Fprintf(&b, "- %s %s FY%d/%s: fiscal attribution uncertain\n", o.Ticker, o.FilingType, o.FiscalYear, o.FiscalPeriod)
		}
		b.WriteString("\n")
	}

	if len(errs) > 0 {
		b.WriteString("## Errors\n")
		for _, o := range errs {
			fmt.Fprintf(&b, "- %s %s: %s (%s)\n", o.Ticker, o.FilingType, o.ErrorMessage, o.ErrorKind)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// Run dispatches tickers through a bounded channel to Workers
// concurrent goroutines, collects every outcome, and returns the
// assembled report. A ticker's panic is recovered, logged, and
// recorded as an error outcome rather than aborting the batch.
// Cancelling ctx stops dispatching new tickers but lets in-flight
// workers finish their current filing.
func (s *Supervisor) Run(ctx context.Context, tickers []string, opts orchestrator.Options) RunReport {
	started := time.Now()

	jobs := make(chan string)
	var mu sync.Mutex
	var outcomes []edgarmodel.Outcome

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Workers)

	for i := 0; i < s.Workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case ticker, ok := <-jobs:
					if !ok {
						return nil
					}
					result := s.processSafely(gctx, ticker, opts)
					mu.Lock()
					outcomes = append(outcomes, result...)
					mu.Unlock()
				}
			}
		})
	}

dispatch:
	for _, t := range tickers {
		select {
		case <-ctx.Done():
			s.Logger.Info("cancellation observed, stopping dispatch")
			break dispatch
		case jobs <- t:
		}
	}
	close(jobs)
	_ = g.Wait()

	return RunReport{StartedAt: started, FinishedAt: time.Now(), Outcomes: outcomes}
}

// processSafely wraps Orchestrator.ProcessTicker with panic recovery,
// so one ticker's exception never aborts the batch.
func (s *Supervisor) processSafely(ctx context.Context, ticker string, opts orchestrator.Options) (outcomes []edgarmodel.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("ticker panicked", zap.String("ticker", ticker), zap.Any("panic", r))
			outcomes = []edgarmodel.Outcome{{
				Ticker:       ticker,
				Success:      false,
				ErrorKind:    edgarmodel.ErrFetch,
				ErrorMessage: fmt.Sprintf("panic: %v", r),
				Sealed:       true,
			}}
		}
	}()
	return s.Orchestrator.ProcessTicker(ctx, ticker, opts)
}
