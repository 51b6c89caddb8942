/*
PURPOSE:
  Catalog of the reported metrics, views and aggregations.
  The single source of column order and titles for the markdown report,
  the CSV writer and the Prometheus exporter.

IMPLEMENTATION RULES:
  - Order here is the column order everywhere.

RELATED FILES:
  - internal/report/markdown.go
  - internal/output/csv.go
  - internal/output/metrics.go
*/

package model

// Metric is one scalar timing of a view, in milliseconds (SpeedIndex is unitless).
type Metric struct {
	Key   string
	Title string
	Value func(*ViewResult) *float64
}

// Metrics is the ordered catalog shared by the markdown report, the CSV writer
// and the Prometheus exporter.
var Metrics = []Metric{
	{Key: "first_paint", Title: "First Paint", Value: func(v *ViewResult) *float64 { return v.FirstPaint }},
	{Key: "first_contentful_paint", Title: "First Contentful Paint", Value: func(v *ViewResult) *float64 { return v.FirstContentfulPaint }},
	{Key: "first_meaningful_paint", Title: "First Meaningful Paint", Value: func(v *ViewResult) *float64 { return v.FirstMeaningfulPaint }},
	{Key: "ttfb", Title: "Time to First Byte", Value: func(v *ViewResult) *float64 { return v.TTFB }},
	{Key: "time_to_interactive", Title: "Time to Interactive", Value: (*ViewResult).Interactive},
	{Key: "render_start", Title: "Render Started", Value: func(v *ViewResult) *float64 { return v.Render }},
	{Key: "visual_complete", Title: "Visually Completed", Value: func(v *ViewResult) *float64 { return v.VisualComplete }},
	{Key: "speed_index", Title: "SpeedIndex", Value: func(v *ViewResult) *float64 { return v.SpeedIndex }},
	{Key: "load_time", Title: "Load Time", Value: func(v *ViewResult) *float64 { return v.LoadTime }},
}

// View selects first or repeat view out of an aggregation.
type View struct {
	Key   string
	Title string
	Get   func(*Aggregate) *ViewResult
}

var Views = []View{
	{Key: "firstView", Title: "First View", Get: func(a *Aggregate) *ViewResult { return a.FirstView }},
	{Key: "repeatView", Title: "Repeat View", Get: func(a *Aggregate) *ViewResult { return a.RepeatView }},
}

// Aggregation selects median or average out of a result.
type Aggregation struct {
	Key   string
	Title string
	Get   func(*RunResult) *Aggregate
}

var Aggregations = []Aggregation{
	{Key: "median", Title: "Median", Get: func(r *RunResult) *Aggregate { return r.Median }},
	{Key: "average", Title: "Average", Get: func(r *RunResult) *Aggregate { return r.Average }},
}

// ViewOf returns the requested view, tolerating nil at every level.
func ViewOf(r *RunResult, agg Aggregation, view View) *ViewResult {
	if r == nil {
		return nil
	}
	a := agg.Get(r)
	if a == nil {
		return nil
	}
	return view.Get(a)
}
