package engine

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/wpt-reporter/internal/config"
	"github.com/daryltucker/wpt-reporter/internal/output"
)

func TestRetryable(t *testing.T) {
	status := func(code int) *resty.Response {
		return &resty.Response{RawResponse: &http.Response{StatusCode: code}}
	}

	assert.True(t, retryable(nil, errors.New("connection reset by peer")))
	assert.True(t, retryable(status(http.StatusTooManyRequests), nil))
	assert.True(t, retryable(status(http.StatusInternalServerError), nil))
	assert.True(t, retryable(status(http.StatusGatewayTimeout), nil))
	assert.False(t, retryable(status(http.StatusOK), nil))
	assert.False(t, retryable(status(http.StatusNotFound), nil))
	assert.False(t, retryable(nil, nil))
}

func TestDefaultRetryConfig(t *testing.T) {
	rc := DefaultRetryConfig(3, 2*time.Second)
	assert.Equal(t, 3, rc.Count)
	assert.Equal(t, 2*time.Second, rc.Wait)
	assert.Equal(t, 30*time.Second, rc.MaxWait)
}

func TestRetryConfigFor_CountsRetries(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MaxRetries = 5
	cfg.RetryDelay = time.Second
	m := output.NewMetrics()

	rc := RetryConfigFor(cfg, m)
	assert.Equal(t, 5, rc.Count)
	assert.Equal(t, time.Second, rc.Wait)

	rc.OnRetry("poll", 1, errors.New("http status 503"))
	rc.OnRetry("poll", 2, errors.New("http status 503"))
	rc.OnRetry("submit", 1, errors.New("http status 502"))

	path := filepath.Join(t.TempDir(), "wpt.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `wpt_retry_attempts_total{operation="poll"} 2`)
	assert.Contains(t, string(data), `wpt_retry_attempts_total{operation="submit"} 1`)
}

func TestRetryConfigFor_NilMetrics(t *testing.T) {
	rc := RetryConfigFor(config.DefaultConfig(), nil)
	assert.NotPanics(t, func() { rc.OnRetry("locations", 1, errors.New("boom")) })
}
