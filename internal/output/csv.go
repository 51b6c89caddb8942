/*
PURPOSE:
  Writes a per-view metrics summary of each run to a CSV file.
  Ensures data integrity by flushing writes immediately.

REQUIREMENTS:
  Implementation-discovered:
  - One row per aggregation/view that is present in the result.
  - Columns follow model.Metrics so the CSV matches the markdown report.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine
  - Consumes: internal/model.RunResult

ERROR HANDLING:
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/csv.
  - Flush() after every write.
  - Missing metrics are written as empty cells.

USAGE:
  w, err := output.NewCSVWriter("results.csv")
  w.Write(result)
  w.Close()
*/

package output

import (
	"encoding/csv"
	"os"
	"strconv"
	"sync"

	"github.com/daryltucker/wpt-reporter/internal/model"
)

// CSVWriter handles writing results to a CSV file.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// CSVHeader is the header row written by NewCSVWriter.
func CSVHeader() []string {
	header := []string{"test_id", "test_url", "location", "connectivity", "aggregation", "view"}
	for _, m := range model.Metrics {
		header = append(header, m.Key)
	}
	return append(header, "requests", "bytes_in")
}

// NewCSVWriter creates a new CSVWriter.
// It overwrites the file if it exists.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)
	if err := w.Write(CSVHeader()); err != nil {
		f.Close()
		return nil, err
	}
	w.Flush()

	return &CSVWriter{
		file:   f,
		writer: w,
	}, nil
}

// Write writes the rows of a single result to the CSV file.
// It is thread-safe.
func (cw *CSVWriter) Write(r *model.RunResult) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, record := range csvRecords(r) {
		if err := cw.writer.Write(record); err != nil {
			return err
		}
	}
	cw.writer.Flush()
	return cw.writer.Error()
}

func csvRecords(r *model.RunResult) [][]string {
	if r == nil {
		return nil
	}

	var records [][]string
	for _, agg := range model.Aggregations {
		for _, view := range model.Views {
			v := model.ViewOf(r, agg, view)
			if v == nil {
				continue
			}
			record := []string{r.ID, r.TestURL, r.Location, r.Connectivity, agg.Key, view.Key}
			for _, m := range model.Metrics {
				record = append(record, csvFloat(m.Value(v)))
			}
			record = append(record,
				strconv.Itoa(len(v.Requests)),
				strconv.FormatInt(v.BytesIn(), 10),
			)
			records = append(records, record)
		}
	}
	return records
}

func csvFloat(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

// Close closes the underlying file.
func (cw *CSVWriter) Close() error {
	cw.writer.Flush()
	return cw.file.Close()
}
