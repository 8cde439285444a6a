package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tolarian/deckwatch/internal/domain"
	"go.uber.org/zap"
)

// RunTracker is pure bookkeeping around ScrapeExecution rows: one row
// per scraper invocation, opened at start, finalized exactly once.
type RunTracker struct {
	executions domain.ScrapeExecutionRepository
	logger     *zap.Logger
	now        func() time.Time
}

func NewRunTracker(executions domain.ScrapeExecutionRepository, logger *zap.Logger) *RunTracker {
	return &RunTracker{executions: executions, logger: logger, now: time.Now}
}

// Run is the in-memory handle for an open execution. Counts accumulate
// here and are flushed once by Finish.
type Run struct {
	execution   domain.ScrapeExecution
	failedNames []string
	finished    bool
}

func (r *Run) RecordSuccess(cards int) {
	r.execution.CommandersAttempted++
	r.execution.CommandersSucceeded++
	r.execution.CardsProcessed += cards
}

func (r *Run) RecordFailure(commanderName string) {
	r.execution.CommandersAttempted++
	r.execution.CommandersFailed++
	r.failedNames = append(r.failedNames, commanderName)
}

func (r *Run) FailedCommanders() []string {
	return r.failedNames
}

func (t *RunTracker) Begin(ctx context.Context) (*Run, error) {
	execution := domain.ScrapeExecution{
		RunID:     uuid.NewString(),
		StartedAt: t.now().UTC(),
		Status:    domain.RunStatusRunning,
	}
	if err := t.executions.Create(ctx, &execution); err != nil {
		return nil, err
	}
	t.logger.Info("scrape run started",
		zap.String("run_id", execution.RunID),
		zap.Uint("execution_id", execution.ID),
	)
	return &Run{execution: execution}, nil
}

// Finish closes the run. A non-nil runErr marks the run failed and is
// recorded as the error summary; per-item failures alone do not fail a
// run. Finish is idempotent and detaches from ctx cancellation so an
// aborted run is still closed out with whatever counts accumulated.
func (t *RunTracker) Finish(ctx context.Context, run *Run, runErr error) {
	if run == nil || run.finished {
		return
	}
	run.finished = true

	finishedAt := t.now().UTC()
	run.execution.FinishedAt = &finishedAt
	if runErr != nil {
		run.execution.Status = domain.RunStatusFailed
		run.execution.ErrorSummary = runErr.Error()
	} else {
		run.execution.Status = domain.RunStatusCompleted
	}

	if err := t.executions.Finalize(context.WithoutCancel(ctx), &run.execution); err != nil {
		t.logger.Error("failed to finalize scrape run",
			zap.String("run_id", run.execution.RunID),
			zap.Error(err),
		)
		return
	}
	t.logger.Info("scrape run finished",
		zap.String("run_id", run.execution.RunID),
		zap.String("status", string(run.execution.Status)),
		zap.Int("succeeded", run.execution.CommandersSucceeded),
		zap.Int("failed", run.execution.CommandersFailed),
	)
}

// Snapshot returns a copy of the run's execution record, mostly for
// summaries and tests.
func (r *Run) Snapshot() domain.ScrapeExecution {
	return r.execution
}
