/*
PURPOSE:
  Typed failures of a report run, one per stage: configuration, test run,
  rendering and publishing. The CLI maps them to messages and exit status.

IMPLEMENTATION RULES:
  - Every wrapper implements Unwrap so errors.Is/As reach the cause.
  - RunFailedError.Reason is "timeout", "cancelled", "invalid target", "empty result"
    or the failing stage.

RELATED FILES:
  - internal/engine/orchestrator.go (classify)
  - internal/config/gate.go
*/

package model

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrTimeout       = errors.New("timeout")
	ErrInvalidTarget = errors.New("target url must be an absolute http(s) url")
)

// ConfigMissingError lists required configuration keys that are absent.
type ConfigMissingError struct {
	Keys []string
}

func (e *ConfigMissingError) Error() string {
	lines := make([]string, 0, len(e.Keys)+1)
	lines = append(lines, "missing required configuration:")
	for _, k := range e.Keys {
		lines = append(lines, "- "+k)
	}
	return strings.Join(lines, "\n")
}

// RunFailedError reports that the test service failed or did not answer in time.
type RunFailedError struct {
	TestID string
	Reason string
	Err    error
}

func (e *RunFailedError) Error() string {
	msg := "webpagetest run failed"
	if e.TestID != "" {
		msg = fmt.Sprintf("webpagetest run %s failed", e.TestID)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RunFailedError) Unwrap() error { return e.Err }

// RenderFailedError reports a result that could not be turned into a report.
type RenderFailedError struct {
	Err error
}

func (e *RenderFailedError) Error() string { return "render failed: " + e.Err.Error() }

func (e *RenderFailedError) Unwrap() error { return e.Err }

// PublishFailedError reports that the commit comment could not be created.
type PublishFailedError struct {
	Err error
}

func (e *PublishFailedError) Error() string { return "publish failed: " + e.Err.Error() }

func (e *PublishFailedError) Unwrap() error { return e.Err }
