package model

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunResult_ToleratesPHPEmptyArrays(t *testing.T) {
	data := []byte(`{
		"id": "240101_AB_1",
		"median": {"firstView": {"SpeedIndex": 1200, "videoFrames": [{"time": 0, "image": "a.jpg", "VisuallyComplete": 0}]}, "repeatView": []},
		"average": []
	}`)

	var res RunResult
	require.NoError(t, json.Unmarshal(data, &res))

	require.NotNil(t, res.Median)
	require.NotNil(t, res.Median.FirstView)
	assert.Nil(t, res.Median.RepeatView)
	assert.Len(t, res.Median.FirstView.VideoFrames, 1)
	assert.Equal(t, 1200.0, *res.Median.FirstView.SpeedIndex)
	assert.Nil(t, res.Average)
}

func TestRunResult_EmptyAggregationsAreNil(t *testing.T) {
	var res RunResult
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","median":{"firstView":[],"repeatView":[]},"average":[]}`), &res))
	assert.Nil(t, res.Median)
	assert.Nil(t, res.Average)

	out, err := json.Marshal(&res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"x"}`, string(out))
}

func TestViewResult_InteractiveFallback(t *testing.T) {
	var v ViewResult
	require.NoError(t, json.Unmarshal([]byte(`{"TimeToInteractive": 3100}`), &v))
	require.NotNil(t, v.Interactive())
	assert.Equal(t, 3100.0, *v.Interactive())

	require.NoError(t, json.Unmarshal([]byte(`{"lighthouse.Performance.interactive": 2900, "TimeToInteractive": 3100}`), &v))
	assert.Equal(t, 2900.0, *v.Interactive())
}

func TestRunOptions_WithDefaults(t *testing.T) {
	assert.Equal(t, DefaultRunOptions(), RunOptions{}.WithDefaults())

	opts := RunOptions{Label: "nightly"}.WithDefaults()
	assert.Equal(t, DefaultLocation, opts.Location)
	assert.Equal(t, DefaultConnectivity, opts.Connectivity)
	assert.Equal(t, DefaultRuns, opts.Runs)
	assert.Equal(t, DefaultPollInterval, opts.PollInterval)
	assert.Equal(t, DefaultDevice, opts.Device)
	assert.Equal(t, DefaultTimeout, opts.Timeout)
	assert.False(t, opts.FirstViewOnly)
	assert.False(t, opts.Private)
	require.NotNil(t, opts.Video)
	require.NotNil(t, opts.Mobile)
	require.NotNil(t, opts.Lighthouse)
	assert.True(t, *opts.Video)
	assert.True(t, *opts.Mobile)
	assert.True(t, *opts.Lighthouse)
	assert.Equal(t, "nightly", opts.Label)
}

func TestRunOptions_WithDefaultsKeepsExplicitFalse(t *testing.T) {
	opts := RunOptions{Video: Bool(false), Mobile: Bool(false), Lighthouse: Bool(false)}.WithDefaults()
	assert.False(t, *opts.Video)
	assert.False(t, *opts.Mobile)
	assert.False(t, *opts.Lighthouse)
}

func TestConfigMissingError_OneKeyPerLine(t *testing.T) {
	err := &ConfigMissingError{Keys: []string{"GITHUB_TOKEN", "WEBPAGETEST_API_KEY"}}
	assert.Equal(t, "missing required configuration:\n- GITHUB_TOKEN\n- WEBPAGETEST_API_KEY", err.Error())
}

func TestRunFailedError_Unwrap(t *testing.T) {
	err := errors.Wrap(&RunFailedError{TestID: "abc", Reason: "timeout", Err: ErrTimeout}, "pipeline")

	var rf *RunFailedError
	require.True(t, errors.As(err, &rf))
	assert.Equal(t, "abc", rf.TestID)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Contains(t, err.Error(), "webpagetest run abc failed: timeout")
}
