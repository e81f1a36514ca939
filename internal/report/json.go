package report

import (
	"encoding/json"
	"io"

	"github.com/vigil-sec/vigil/internal/api"
)

// JSONRenderer outputs structured JSON.
type JSONRenderer struct {
	// Compact outputs single-line JSON when true (no indentation).
	Compact bool
}

func (r *JSONRenderer) encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if !r.Compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// Scan writes a scan record as JSON to w.
func (r *JSONRenderer) Scan(w io.Writer, scan *api.Scan) error {
	return r.encode(w, scan)
}

// ScanList writes a scan history page as JSON to w.
func (r *JSONRenderer) ScanList(w io.Writer, page *api.ScanPage) error {
	return r.encode(w, page)
}

// Usage writes usage statistics as JSON to w.
func (r *JSONRenderer) Usage(w io.Writer, stats *api.UsageStatistics) error {
	return r.encode(w, stats)
}
