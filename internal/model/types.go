/*
PURPOSE:
  Defines the core data structures used throughout wpt-reporter.
  RunOptions describe a WebPageTest run; RunResult mirrors the `data`
  object returned by jsonResult.php.

REQUIREMENTS:
  User-specified:
  - Every run option is optional and independently defaulted.
  - Unknown options are passed through to the test service verbatim.
  - The result shape is owned by WebPageTest; nothing may be assumed present.

  Implementation-discovered:
  - WebPageTest is PHP: empty objects are sometimes serialized as `[]`.
  - Absent scalar metrics must be distinguishable from zero (pointers).

ARCHITECTURE INTEGRATION:
  - Used by: internal/config, internal/engine, internal/report, internal/output
  - Shared across boundaries.

ERROR HANDLING:
  - Decoding treats non-object aggregations/views as absent instead of failing.

IMPLEMENTATION RULES:
  - Keep structs simple and public.
  - yaml/env tags live next to json tags so one struct serves every layer.

USAGE:
  opts := model.DefaultRunOptions()
  var res model.RunResult
  json.Unmarshal(data, &res)

SELF-HEALING INSTRUCTIONS:
  - If WebPageTest renames a field, update the json tag here and the catalog in metrics.go.

RELATED FILES:
  - internal/model/metrics.go
  - internal/report/markdown.go

MAINTENANCE:
  - Update when the report needs new result fields.
*/

package model

import (
	"bytes"
	"encoding/json"
	"time"
)

const (
	DefaultLocation     = "Dulles_MotoG4"
	DefaultConnectivity = "3GSlow"
	DefaultRuns         = 1
	DefaultPollInterval = 5 * time.Second
	DefaultDevice       = "Motorola G (gen 4)"
	DefaultTimeout      = 1000 * time.Second
)

// RunOptions configures a single WebPageTest run.
type RunOptions struct {
	Location      string        `yaml:"location" env:"WPT_LOCATION"`
	Connectivity  string        `yaml:"connectivity" env:"WPT_CONNECTIVITY"`
	Runs          int           `yaml:"runs" env:"WPT_RUNS"`
	FirstViewOnly bool          `yaml:"first_view_only" env:"WPT_FIRST_VIEW_ONLY"`
	Video         *bool         `yaml:"video" env:"WPT_VIDEO"`
	PollInterval  time.Duration `yaml:"poll_interval" env:"WPT_POLL_INTERVAL"`
	Private       bool          `yaml:"private" env:"WPT_PRIVATE"`
	Label         string        `yaml:"label" env:"WPT_LABEL"`
	Mobile        *bool         `yaml:"mobile" env:"WPT_MOBILE"`
	Device        string        `yaml:"device" env:"WPT_DEVICE"`
	Timeout       time.Duration `yaml:"timeout" env:"WPT_TIMEOUT"`
	Lighthouse    *bool         `yaml:"lighthouse" env:"WPT_LIGHTHOUSE"`
	// Extra is forwarded to runtest.php as-is.
	Extra map[string]string `yaml:"extra" env:"WPT_EXTRA"`
}

// DefaultRunOptions returns the options used when nothing is configured.
func DefaultRunOptions() RunOptions {
	return RunOptions{
		Location:     DefaultLocation,
		Connectivity: DefaultConnectivity,
		Runs:         DefaultRuns,
		Video:        Bool(true),
		PollInterval: DefaultPollInterval,
		Mobile:       Bool(true),
		Device:       DefaultDevice,
		Timeout:      DefaultTimeout,
		Lighthouse:   Bool(true),
	}
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

// WithDefaults fills every field that was not set. Options defaulting to true
// are pointers so an explicit false survives.
func (o RunOptions) WithDefaults() RunOptions {
	if o.Location == "" {
		o.Location = DefaultLocation
	}
	if o.Connectivity == "" {
		o.Connectivity = DefaultConnectivity
	}
	if o.Runs <= 0 {
		o.Runs = DefaultRuns
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.Device == "" {
		o.Device = DefaultDevice
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Video == nil {
		o.Video = Bool(true)
	}
	if o.Mobile == nil {
		o.Mobile = Bool(true)
	}
	if o.Lighthouse == nil {
		o.Lighthouse = Bool(true)
	}
	return o
}

// RunResult is the `data` object of a completed WebPageTest run.
type RunResult struct {
	ID               string     `json:"id"`
	TestURL          string     `json:"testUrl,omitempty"`
	Summary          string     `json:"summary,omitempty"`
	Location         string     `json:"location,omitempty"`
	From             string     `json:"from,omitempty"`
	Connectivity     string     `json:"connectivity,omitempty"`
	SuccessfulFVRuns *int       `json:"successfulFVRuns,omitempty"`
	SuccessfulRVRuns *int       `json:"successfulRVRuns,omitempty"`
	Median           *Aggregate `json:"median,omitempty"`
	Average          *Aggregate `json:"average,omitempty"`
}

// UnmarshalJSON decodes r and drops aggregations without any view, so an
// absent aggregation is always nil.
func (r *RunResult) UnmarshalJSON(data []byte) error {
	type plain RunResult
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Median.Empty() {
		p.Median = nil
	}
	if p.Average.Empty() {
		p.Average = nil
	}
	*r = RunResult(p)
	return nil
}

// Aggregate groups first and repeat view results of one aggregation (median, average).
type Aggregate struct {
	FirstView  *ViewResult `json:"firstView,omitempty"`
	RepeatView *ViewResult `json:"repeatView,omitempty"`
}

// Empty reports whether neither view is present.
func (a *Aggregate) Empty() bool {
	return a == nil || (a.FirstView == nil && a.RepeatView == nil)
}

// UnmarshalJSON accepts `[]` or any non-object value as an absent aggregation
// and skips views that are not objects.
func (a *Aggregate) UnmarshalJSON(data []byte) error {
	*a = Aggregate{}
	if !isObject(data) {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var err error
	if a.FirstView, err = decodeView(raw["firstView"]); err != nil {
		return err
	}
	if a.RepeatView, err = decodeView(raw["repeatView"]); err != nil {
		return err
	}
	return nil
}

func decodeView(data json.RawMessage) (*ViewResult, error) {
	if !isObject(data) {
		return nil, nil
	}
	var v ViewResult
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func isObject(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// ViewResult holds the metrics of a single page view.
type ViewResult struct {
	VideoFrames          []VideoFrame `json:"videoFrames,omitempty"`
	FirstPaint           *float64     `json:"firstPaint,omitempty"`
	FirstContentfulPaint *float64     `json:"firstContentfulPaint,omitempty"`
	FirstMeaningfulPaint *float64     `json:"firstMeaningfulPaint,omitempty"`
	TTFB                 *float64     `json:"TTFB,omitempty"`
	LighthouseTTI        *float64     `json:"lighthouse.Performance.interactive,omitempty"`
	TimeToInteractive    *float64     `json:"TimeToInteractive,omitempty"`
	Render               *float64     `json:"render,omitempty"`
	VisualComplete       *float64     `json:"visualComplete,omitempty"`
	SpeedIndex           *float64     `json:"SpeedIndex,omitempty"`
	LoadTime             *float64     `json:"loadTime,omitempty"`
	Images               *Images      `json:"images,omitempty"`
	Requests             []Request    `json:"requests,omitempty"`
}

// Interactive prefers the lighthouse measurement and falls back to the WebPageTest one.
func (v *ViewResult) Interactive() *float64 {
	if v.LighthouseTTI != nil {
		return v.LighthouseTTI
	}
	return v.TimeToInteractive
}

// Waterfall returns the waterfall image URL or "".
func (v *ViewResult) Waterfall() string {
	if v == nil || v.Images == nil {
		return ""
	}
	return v.Images.Waterfall
}

// BytesIn sums the downloaded bytes of all requests.
func (v *ViewResult) BytesIn() int64 {
	var total int64
	for _, r := range v.Requests {
		total += r.BytesIn
	}
	return total
}

type VideoFrame struct {
	Time             float64 `json:"time"`
	Image            string  `json:"image"`
	VisuallyComplete float64 `json:"VisuallyComplete"`
}

type Images struct {
	Waterfall      string `json:"waterfall,omitempty"`
	ConnectionView string `json:"connectionView,omitempty"`
	Checklist      string `json:"checklist,omitempty"`
	ScreenShot     string `json:"screenShot,omitempty"`
}

type Request struct {
	URL     string `json:"url"`
	BytesIn int64  `json:"bytesIn"`
}

// Location is a test location advertised by getLocations.php.
type Location struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Browsers string `json:"browsers"`
}
