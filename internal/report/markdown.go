/*
PURPOSE:
  Turns a WebPageTest RunResult into the markdown report posted on commits.

REQUIREMENTS:
  User-specified:
  - Header block, filmstrip per view, metrics tables (median and average),
    waterfall per view, file sizes per view. Fixed order.
  - One filmstrip column per video frame, in frame order.

  Implementation-discovered:
  - WebPageTest omits whole views (first-view-only runs) and whole aggregations.
    Missing parts are left out of the report, never a panic.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (pipeline), internal/cli (render)
  - Uses: internal/model

ERROR HANDLING:
  - None. Render is total over any *model.RunResult, including nil.

IMPLEMENTATION RULES:
  - Pure and deterministic: no clock, no map iteration, no I/O.
  - Metric columns come from model.Metrics so CSV and Prometheus stay in sync.

USAGE:
  md := report.Render(result)

RELATED FILES:
  - internal/model/metrics.go
  - internal/report/size.go
*/

package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/daryltucker/wpt-reporter/internal/model"
)

const (
	title       = "# WebPageTest report"
	missingCell = "-"
	frameRule   = "--------------"
)

// Render builds the markdown report for r.
func Render(r *model.RunResult) string {
	var b strings.Builder

	b.WriteString(title + "\n")
	if r == nil {
		return b.String()
	}

	writeHeader(&b, r)

	median := model.Aggregations[0]
	writeSection(&b, "## Filmstrip", func(s *strings.Builder) {
		for _, view := range model.Views {
			writeFilmstrip(s, median, view, model.ViewOf(r, median, view))
		}
	})
	writeSection(&b, "## Visual Metrics", func(s *strings.Builder) {
		for _, agg := range model.Aggregations {
			writeMetrics(s, agg, agg.Get(r))
		}
	})
	writeSection(&b, "## Waterfall", func(s *strings.Builder) {
		for _, view := range model.Views {
			writeWaterfall(s, median, view, model.ViewOf(r, median, view))
		}
	})
	writeSection(&b, "## Files", func(s *strings.Builder) {
		for _, view := range model.Views {
			writeFiles(s, median, view, model.ViewOf(r, median, view))
		}
	})

	return b.String()
}

func writeHeader(b *strings.Builder, r *model.RunResult) {
	lines := []struct {
		label string
		value string
	}{
		{"run id", r.ID},
		{"test URL", r.TestURL},
		{"summary", r.Summary},
		{"location", r.Location},
		{"from", r.From},
		{"connectivity", r.Connectivity},
		{"successful first view runs", intValue(r.SuccessfulFVRuns)},
		{"successful repeat view runs", intValue(r.SuccessfulRVRuns)},
	}

	var items []string
	for _, l := range lines {
		if l.value == "" {
			continue
		}
		items = append(items, fmt.Sprintf("* %s: %s", l.label, l.value))
	}
	if len(items) == 0 {
		return
	}
	b.WriteString("\n")
	b.WriteString(strings.Join(items, "\n"))
	b.WriteString("\n")
}

// writeSection emits heading only if fill produced something.
func writeSection(b *strings.Builder, heading string, fill func(*strings.Builder)) {
	var body strings.Builder
	fill(&body)
	if body.Len() == 0 {
		return
	}
	b.WriteString("\n" + heading + "\n")
	b.WriteString(body.String())
}

func subheading(agg model.Aggregation, view model.View) string {
	return fmt.Sprintf("\n### %s (%s)\n\n", view.Title, strings.ToLower(agg.Title))
}

func writeFilmstrip(b *strings.Builder, agg model.Aggregation, view model.View, v *model.ViewResult) {
	if v == nil || len(v.VideoFrames) == 0 {
		return
	}
	frames := v.VideoFrames

	b.WriteString(subheading(agg, view))
	b.WriteString(row(frames, func(f model.VideoFrame) string { return formatNumber(f.Time) + " milliseconds" }))
	b.WriteString(row(frames, func(model.VideoFrame) string { return frameRule }))
	b.WriteString(row(frames, func(f model.VideoFrame) string {
		return fmt.Sprintf("![%s ms](%s)", formatNumber(f.Time), f.Image)
	}))
	b.WriteString(row(frames, func(f model.VideoFrame) string { return formatNumber(f.VisuallyComplete) + "%" }))
}

func row[T any](items []T, cell func(T) string) string {
	cells := make([]string, len(items))
	for i, it := range items {
		cells[i] = escapeCell(cell(it))
	}
	return "| " + strings.Join(cells, " | ") + " |\n"
}

func writeMetrics(b *strings.Builder, agg model.Aggregation, a *model.Aggregate) {
	if a.Empty() {
		return
	}

	header := []string{"View"}
	rule := []string{"----------"}
	for _, m := range model.Metrics {
		header = append(header, m.Title)
		rule = append(rule, "----------")
	}

	fmt.Fprintf(b, "\n### Metrics %s Run\n\n", agg.Title)
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	b.WriteString("|" + strings.Join(rule, "|") + "|\n")

	for _, view := range model.Views {
		v := view.Get(a)
		if v == nil {
			continue
		}
		cells := []string{view.Title}
		for _, m := range model.Metrics {
			cells = append(cells, floatValue(m.Value(v)))
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

func writeWaterfall(b *strings.Builder, agg model.Aggregation, view model.View, v *model.ViewResult) {
	img := v.Waterfall()
	if img == "" {
		return
	}
	b.WriteString(subheading(agg, view))
	fmt.Fprintf(b, "![%s waterfall](%s)\n", view.Title, img)
}

func writeFiles(b *strings.Builder, agg model.Aggregation, view model.View, v *model.ViewResult) {
	if v == nil || len(v.Requests) == 0 {
		return
	}
	b.WriteString(subheading(agg, view))
	b.WriteString("| File | FileSize |\n")
	b.WriteString("|----------|----------|\n")
	for _, req := range v.Requests {
		fmt.Fprintf(b, "| %s | %s |\n", escapeCell(req.URL), HumanFileSize(req.BytesIn))
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func intValue(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func floatValue(p *float64) string {
	if p == nil {
		return missingCell
	}
	return formatNumber(*p)
}

// formatNumber prints integers without decimals and everything else rounded to two places.
func formatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return missingCell
	}
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
}
