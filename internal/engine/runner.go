/*
PURPOSE:
  High-level runner that orchestrates one action invocation:
  gate -> trigger check -> WebPageTest run -> report -> artifacts -> commit comment.

REQUIREMENTS:
  User-specified:
  - Only push events trigger a run.
  - Missing required configuration stops the process before any network call.
  - Every failure surfaces to the caller; success is reported explicitly.

  Implementation-discovered:
  - Dry-run prints the report instead of posting it, for local use.
  - Artifacts (JSON, CSV, markdown, step summary, metrics) are optional extras.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli
  - Uses: internal/engine (Orchestrator, Client), internal/report,
    internal/github, internal/output, internal/config

ERROR HANDLING:
  - Returns typed errors from internal/model; nothing is swallowed.

IMPLEMENTATION RULES:
  - Dependencies are fields so tests can swap the test service and the publisher.

USAGE:
  engine.Run(ctx, cfg, env, environ)

RELATED FILES:
  - internal/engine/orchestrator.go
  - internal/report/markdown.go
*/

package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/daryltucker/wpt-reporter/internal/config"
	"github.com/daryltucker/wpt-reporter/internal/github"
	"github.com/daryltucker/wpt-reporter/internal/model"
	"github.com/daryltucker/wpt-reporter/internal/output"
	"github.com/daryltucker/wpt-reporter/internal/report"
)

// CommentPoster publishes the report.
type CommentPoster interface {
	CreateCommitComment(ctx context.Context, repo github.Repository, sha, body string) (*github.CommitComment, error)
}

// Pipeline holds everything one invocation needs.
type Pipeline struct {
	Config   *config.Config
	Env      *config.Environment
	Present  map[string]struct{}
	Tests    TestService
	Comments CommentPoster
	Metrics  *output.Metrics
	Stdout   io.Writer
}

// Run wires the real WebPageTest and GitHub clients and executes the pipeline.
func Run(ctx context.Context, cfg *config.Config, env *config.Environment, environ map[string]string) error {
	metrics := output.NewMetrics()
	p := &Pipeline{
		Config:   cfg,
		Env:      env,
		Present:  config.Present(environ),
		Tests:    NewClient(cfg.Server, env.WebPageTestAPIKey, cfg.RequestTimeout, RetryConfigFor(cfg, metrics)),
		Comments: github.NewClient(env.APIURL, env.Token, cfg.RequestTimeout),
		Metrics:  metrics,
		Stdout:   os.Stdout,
	}
	return p.Run(ctx)
}

// RetryConfigFor builds the retry settings of cfg, logging every retry and
// counting it in metrics.
func RetryConfigFor(cfg *config.Config, metrics *output.Metrics) RetryConfig {
	rc := DefaultRetryConfig(cfg.MaxRetries, cfg.RetryDelay)
	rc.OnRetry = func(op string, attempt int, err error) {
		output.Logger.Warn("WebPageTest call failed", "operation", op, "attempt", attempt, "max_retries", cfg.MaxRetries, "error", err)
		metrics.RetryAttempt(op)
	}
	return rc
}

func (p *Pipeline) Run(ctx context.Context) error {
	// 1. Preconditions
	if err := config.Gate(p.Config.RequiredEnv, p.Present); err != nil {
		return err
	}
	if err := p.Config.Validate(); err != nil {
		return err
	}

	if p.Env.EventName != config.TriggerEvent {
		output.Logger.Info("Skipping run, event does not trigger a test", "event", p.Env.EventName, "trigger", config.TriggerEvent)
		return nil
	}

	var repo github.Repository
	if !p.Config.DryRun {
		var err error
		if repo, err = github.ParseRepository(p.Env.Repository); err != nil {
			return errors.Wrap(err, "GITHUB_REPOSITORY")
		}
		if p.Env.SHA == "" {
			return &model.ConfigMissingError{Keys: []string{"GITHUB_SHA"}}
		}
	}

	// 2. Test
	output.Logger.Info("Starting WebPageTest run", "url", p.Config.URL, "server", p.Config.Server, "sha", p.Env.SHA)
	start := time.Now()
	res, err := NewOrchestrator(p.Tests).Run(ctx, p.Config.URL, p.Config.Run)
	if err != nil {
		return err
	}
	p.Metrics.ObserveRun(res, time.Since(start))

	// 3. Report
	md := report.Render(res)
	if err := p.writeArtifacts(res, md); err != nil {
		return err
	}

	// 4. Publish
	if p.Config.DryRun {
		output.Logger.Info("Dry run, printing report instead of commenting", "test_id", res.ID)
		_, err := fmt.Fprint(p.Stdout, md)
		return err
	}

	comment, err := p.Comments.CreateCommitComment(ctx, repo, p.Env.SHA, md)
	if err != nil {
		return &model.PublishFailedError{Err: err}
	}
	output.Logger.Info("Successfully posted WebPageTest report", "repository", repo.String(), "sha", p.Env.SHA, "comment", comment.HTMLURL)
	return nil
}

func (p *Pipeline) writeArtifacts(res *model.RunResult, md string) error {
	if dir := p.Config.OutputDir; dir != "" {
		if err := writeOutputDir(dir, res, md); err != nil {
			return err
		}
		output.Logger.Info("Wrote artifacts", "dir", dir)
	}

	if path := p.Env.StepSummary; path != "" {
		if err := output.AppendFile(path, md); err != nil {
			return errors.Wrap(err, "failed to write step summary")
		}
	}

	if path := p.Config.MetricsFile; path != "" {
		if err := p.Metrics.WriteTextfile(path); err != nil {
			return err
		}
	}
	return nil
}

func writeOutputDir(dir string, res *model.RunResult, md string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create output directory %s", dir)
	}

	jsonPath := filepath.Join(dir, "results.jsonl")
	jsonWriter, err := output.NewJSONWriter(jsonPath)
	if err != nil {
		return errors.Wrapf(err, "failed to init JSON writer at %s", jsonPath)
	}
	if err := jsonWriter.Write(res); err != nil {
		jsonWriter.Close()
		return errors.Wrap(err, "failed to write result to JSON")
	}
	if err := jsonWriter.Close(); err != nil {
		return err
	}

	csvPath := filepath.Join(dir, "results.csv")
	csvWriter, err := output.NewCSVWriter(csvPath)
	if err != nil {
		return errors.Wrapf(err, "failed to init CSV writer at %s", csvPath)
	}
	if err := csvWriter.Write(res); err != nil {
		csvWriter.Close()
		return errors.Wrap(err, "failed to write result to CSV")
	}
	if err := csvWriter.Close(); err != nil {
		return err
	}

	reportPath := filepath.Join(dir, "report.md")
	if err := os.WriteFile(reportPath, []byte(md), 0644); err != nil {
		return errors.Wrapf(err, "failed to write %s", reportPath)
	}
	return nil
}
