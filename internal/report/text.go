package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/vigil-sec/vigil/internal/api"
)

const (
	doubleLine = "\u2550" // ═
	singleLine = "\u2500" // ─
	lineWidth  = 50
)

// TextRenderer outputs plain terminal text.
type TextRenderer struct{}

var (
	doubleBar = strings.Repeat(doubleLine, lineWidth)
	singleBar = strings.Repeat(singleLine, lineWidth)
)

// Scan writes a formatted view of a single scan to w.
func (r *TextRenderer) Scan(w io.Writer, scan *api.Scan) error {
	b := &strings.Builder{}

	fmt.Fprintln(b, doubleBar)
	fmt.Fprintf(b, "Scan %s\n", scan.ID)
	fmt.Fprintln(b, doubleBar)

	fmt.Fprintf(b, "Target: %s\n", scan.TargetURL)
	fmt.Fprintf(b, "Mode:   %s\n", scan.Mode)
	fmt.Fprintf(b, "Status: %s\n", scan.Status)
	if scan.ErrorMessage != "" {
		fmt.Fprintf(b, "Error:  %s\n", scan.ErrorMessage)
	}
	fmt.Fprintf(b, "Created: %s\n", scan.CreatedAt.Format(time.RFC3339))
	if scan.CompletedAt != nil {
		fmt.Fprintf(b, "Completed: %s\n", scan.CompletedAt.Format(time.RFC3339))
	}

	fmt.Fprintln(b, singleBar)
	if scan.TotalVulnerabilities == 0 {
		fmt.Fprintln(b, "No vulnerabilities found.")
	} else {
		fmt.Fprintf(b, "Vulnerabilities: %d\n", scan.TotalVulnerabilities)
		fmt.Fprintf(b, "  Critical: %d\n", scan.Vulnerabilities.Critical)
		fmt.Fprintf(b, "  High:     %d\n", scan.Vulnerabilities.High)
		fmt.Fprintf(b, "  Medium:   %d\n", scan.Vulnerabilities.Medium)
		fmt.Fprintf(b, "  Low:      %d\n", scan.Vulnerabilities.Low)
	}
	fmt.Fprintln(b, doubleBar)

	_, err := io.WriteString(w, b.String())
	return err
}

// ScanList writes one page of scan history to w, one line per scan.
func (r *TextRenderer) ScanList(w io.Writer, page *api.ScanPage) error {
	b := &strings.Builder{}

	if len(page.Scans) == 0 {
		fmt.Fprintln(b, "No scans found.")
		_, err := io.WriteString(w, b.String())
		return err
	}

	fmt.Fprintf(b, "%-36s  %-10s  %-5s  %s\n", "ID", "STATUS", "VULNS", "TARGET")
	fmt.Fprintln(b, singleBar)
	for _, scan := range page.Scans {
		fmt.Fprintf(b, "%-36s  %-10s  %-5d  %s\n",
			scan.ID, scan.Status, scan.TotalVulnerabilities, scan.TargetURL)
	}
	fmt.Fprintln(b, singleBar)
	fmt.Fprintf(b, "Showing %d of %d scan(s) (offset %d)\n",
		len(page.Scans), page.Total, page.Offset)

	_, err := io.WriteString(w, b.String())
	return err
}

// Usage writes formatted usage statistics to w.
func (r *TextRenderer) Usage(w io.Writer, stats *api.UsageStatistics) error {
	b := &strings.Builder{}

	fmt.Fprintln(b, doubleBar)
	fmt.Fprintf(b, "Usage, last %d day(s)\n", stats.PeriodDays)
	fmt.Fprintln(b, doubleBar)

	fmt.Fprintf(b, "Period:    %s to %s\n", stats.StartDate, stats.EndDate)
	fmt.Fprintf(b, "Scans:     %d\n", stats.ScanCount)
	fmt.Fprintf(b, "API calls: %d\n", stats.APICallCount)
	fmt.Fprintf(b, "Avg response: %.1fms\n", stats.AverageResponseTimeMS)

	if len(stats.ScansByDay) > 0 {
		fmt.Fprintln(b, singleBar)
		fmt.Fprintln(b, "Scans by day:")
		for _, day := range stats.ScansByDay {
			fmt.Fprintf(b, "  %-12s %d\n", day.Date, day.Count)
		}
	}

	if len(stats.CallsByEndpoint) > 0 {
		fmt.Fprintln(b, singleBar)
		fmt.Fprintln(b, "Calls by endpoint:")
		for _, ep := range stats.CallsByEndpoint {
			fmt.Fprintf(b, "  %-30s %d\n", ep.Endpoint, ep.Count)
		}
	}
	fmt.Fprintln(b, doubleBar)

	_, err := io.WriteString(w, b.String())
	return err
}
