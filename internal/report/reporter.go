// Package report renders API records for terminal consumption.
package report

import (
	"fmt"
	"io"

	"github.com/vigil-sec/vigil/internal/api"
)

// Renderer writes human- or machine-readable views of platform records.
type Renderer interface {
	// Scan renders a single scan record.
	Scan(w io.Writer, scan *api.Scan) error

	// ScanList renders one page of scan history.
	ScanList(w io.Writer, page *api.ScanPage) error

	// Usage renders aggregate usage statistics.
	Usage(w io.Writer, stats *api.UsageStatistics) error
}

// New returns the renderer for the given output format.
func New(format string) (Renderer, error) {
	switch format {
	case "text", "":
		return &TextRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}
