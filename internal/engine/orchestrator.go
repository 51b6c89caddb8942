/*
PURPOSE:
  Runs one WebPageTest test end to end: submit, poll until complete, return the result.

REQUIREMENTS:
  User-specified:
  - The caller blocks until the service reports completion or error.
  - Exactly one outcome: a result or a *model.RunFailedError, never both.
  - The whole wait is bounded by RunOptions.Timeout.

  Implementation-discovered:
  - Test runs are slow and the public instance is flaky; single requests are
    retried by the client (retry.go), not here.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (Pipeline)
  - Uses: TestService (implemented by *Client), internal/model, internal/output

ERROR HANDLING:
  - Run context or parent context deadline -> RunFailedError{Reason: "timeout"}.
  - Parent context cancelled -> RunFailedError{Reason: "cancelled"}.
  - Anything else -> RunFailedError{Reason: <stage>} wrapping the cause.

IMPLEMENTATION RULES:
  - No busy waiting: a ticker paces the polls.
  - Options are passed by value; nothing is shared between runs.

RELATED FILES:
  - internal/engine/client.go
*/

package engine

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/daryltucker/wpt-reporter/internal/config"
	"github.com/daryltucker/wpt-reporter/internal/model"
	"github.com/daryltucker/wpt-reporter/internal/output"
)

// TestService is the performance-test backend.
type TestService interface {
	SubmitTest(ctx context.Context, target string, opts model.RunOptions) (string, error)
	TestResult(ctx context.Context, testID string) (*model.RunResult, bool, error)
}

// Orchestrator drives a TestService through a single run.
type Orchestrator struct {
	svc TestService
}

func NewOrchestrator(svc TestService) *Orchestrator {
	return &Orchestrator{svc: svc}
}

// Run tests target with opts and waits for the result.
func (o *Orchestrator) Run(ctx context.Context, target string, opts model.RunOptions) (*model.RunResult, error) {
	if err := config.ValidateTarget(target); err != nil {
		return nil, &model.RunFailedError{Reason: "invalid target", Err: err}
	}
	opts = opts.WithDefaults()

	runCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	testID, err := o.svc.SubmitTest(runCtx, target, opts)
	if err != nil {
		return nil, classify(ctx, runCtx, "", "submit", err)
	}
	output.Logger.Info("Test submitted", "test_id", testID, "url", target, "location", opts.Location)

	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-runCtx.Done():
			return nil, classify(ctx, runCtx, testID, "poll", runCtx.Err())
		case <-ticker.C:
		}

		res, done, err := o.svc.TestResult(runCtx, testID)
		if err != nil {
			return nil, classify(ctx, runCtx, testID, "poll", err)
		}
		if !done {
			output.Logger.Debug("Test pending", "test_id", testID)
			continue
		}
		if res == nil {
			return nil, &model.RunFailedError{TestID: testID, Reason: "empty result"}
		}

		output.Logger.Info("Test complete", "test_id", testID)
		return res, nil
	}
}

func classify(parent, runCtx context.Context, testID, stage string, err error) error {
	if errors.Is(parent.Err(), context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return &model.RunFailedError{TestID: testID, Reason: "timeout", Err: model.ErrTimeout}
	}
	if parent.Err() != nil {
		return &model.RunFailedError{TestID: testID, Reason: "cancelled", Err: parent.Err()}
	}
	return &model.RunFailedError{TestID: testID, Reason: stage, Err: err}
}
