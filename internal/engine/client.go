/*
PURPOSE:
  Client for the WebPageTest HTTP API.
  Submits tests, polls for results and lists test locations.

REQUIREMENTS:
  User-specified:
  - Submit a test with the configured run options.
  - Wait for results by polling.

  Implementation-discovered:
  - The API always answers with an envelope {statusCode, statusText, data}.
    statusCode 1xx means "still running", 200 done, >= 400 failed.
  - Connectivity is selected by suffixing the location ("Dulles_MotoG4.3GSlow").
  - The API is PHP; empty objects come back as `[]`.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (Orchestrator), internal/cli (list-locations)
  - Uses: internal/model

ERROR HANDLING:
  - Transport errors and non-2xx responses are returned as *APIError once
    resty has given up retrying (see retry.go).
  - API-level failures (statusCode >= 400) are never retried.

IMPLEMENTATION RULES:
  - Use resty, including its retry support.
  - Poll interval and timeout are client-side settings and are never sent.

USAGE:
  c := engine.NewClient(cfg.Server, env.WebPageTestAPIKey, cfg.RequestTimeout, engine.RetryConfig{})
  id, err := c.SubmitTest(ctx, url, opts)
  res, done, err := c.TestResult(ctx, id)

SELF-HEALING INSTRUCTIONS:
  - If WebPageTest changes parameter names, update testParams().

RELATED FILES:
  - internal/engine/retry.go
  - internal/model/types.go
*/

package engine

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/daryltucker/wpt-reporter/internal/model"
)

const userAgent = "wpt-reporter/1.0"

// Client talks to a WebPageTest server.
type Client struct {
	http   *resty.Client
	apiKey string
}

// NewClient creates a Client for server (e.g. https://www.webpagetest.org).
// timeout bounds each attempt.
func NewClient(server, apiKey string, timeout time.Duration, retry RetryConfig) *Client {
	client := resty.NewWithClient(newHTTPClient(timeout)).
		SetBaseURL(server).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetHeader("X-WPT-API-KEY", apiKey)
	}
	retry.apply(client)
	return &Client{http: client, apiKey: apiKey}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// APIError is a failed call to the WebPageTest server.
type APIError struct {
	Op         string
	HTTPStatus int
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: webpagetest status %d: %s", e.Op, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s: http status %d: %s", e.Op, e.HTTPStatus, e.Message)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

type envelope struct {
	StatusCode int             `json:"statusCode"`
	StatusText string          `json:"statusText"`
	Data       json.RawMessage `json:"data"`
}

func (c *Client) get(ctx context.Context, op, path string, params map[string]string) (*envelope, error) {
	resp, err := c.http.R().
		SetContext(withOp(ctx, op)).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}
	if resp.IsError() {
		return nil, &APIError{Op: op, HTTPStatus: resp.StatusCode(), Message: resp.Status()}
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, errors.Wrapf(err, "%s: failed to unmarshal response", op)
	}
	if env.StatusCode >= 400 {
		return nil, &APIError{Op: op, HTTPStatus: resp.StatusCode(), StatusCode: env.StatusCode, Message: env.StatusText}
	}
	return &env, nil
}

// SubmitTest starts a test of target and returns its test id.
func (c *Client) SubmitTest(ctx context.Context, target string, opts model.RunOptions) (string, error) {
	env, err := c.get(ctx, "submit", "/runtest.php", c.testParams(target, opts))
	if err != nil {
		return "", err
	}

	var data struct {
		TestID  string `json:"testId"`
		UserURL string `json:"userUrl"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", errors.Wrap(err, "submit: failed to unmarshal data")
	}
	if data.TestID == "" {
		return "", errors.New("submit: response does not contain a test id")
	}
	return data.TestID, nil
}

// TestResult fetches the result of testID. done is false while the test is queued or running.
func (c *Client) TestResult(ctx context.Context, testID string) (*model.RunResult, bool, error) {
	env, err := c.get(ctx, "poll", "/jsonResult.php", map[string]string{"test": testID})
	if err != nil {
		return nil, false, err
	}
	if env.StatusCode < 200 {
		return nil, false, nil
	}

	var res model.RunResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		return nil, false, errors.Wrap(err, "poll: failed to unmarshal data")
	}
	if res.ID == "" {
		res.ID = testID
	}
	return &res, true, nil
}

// Locations lists the test locations offered by the server, sorted by name.
func (c *Client) Locations(ctx context.Context) ([]model.Location, error) {
	params := map[string]string{"f": "json"}
	if c.apiKey != "" {
		params["k"] = c.apiKey
	}
	env, err := c.get(ctx, "locations", "/getLocations.php", params)
	if err != nil {
		return nil, err
	}

	var data map[string]struct {
		Label    string `json:"Label"`
		Browsers string `json:"Browsers"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, errors.Wrap(err, "locations: failed to unmarshal data")
	}

	out := make([]model.Location, 0, len(data))
	for name, loc := range data {
		out = append(out, model.Location{Name: name, Label: loc.Label, Browsers: loc.Browsers})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (c *Client) testParams(target string, opts model.RunOptions) map[string]string {
	opts = opts.WithDefaults()

	location := opts.Location
	if opts.Connectivity != "" {
		location += "." + opts.Connectivity
	}

	params := map[string]string{
		"url":        target,
		"f":          "json",
		"location":   location,
		"runs":       strconv.Itoa(opts.Runs),
		"fvonly":     flag(opts.FirstViewOnly),
		"video":      flag(*opts.Video),
		"private":    flag(opts.Private),
		"mobile":     flag(*opts.Mobile),
		"lighthouse": flag(*opts.Lighthouse),
	}
	if c.apiKey != "" {
		params["k"] = c.apiKey
	}
	if opts.Label != "" {
		params["label"] = opts.Label
	}
	if *opts.Mobile {
		params["mobileDevice"] = opts.Device
	}
	for k, v := range opts.Extra {
		params[k] = v
	}
	return params
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
