package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// defaultListLimit is the page size used when the caller passes limit <= 0.
const defaultListLimit = 50

// createScanRequest is the wire shape of scan submissions. The backend
// accepts the target as "target_url" here but reports it as "target" in
// scan records.
type createScanRequest struct {
	Target   string   `json:"target_url"`
	ScanMode ScanMode `json:"scan_mode"`
}

// scanListPayload is the wire shape of the scan history page.
type scanListPayload struct {
	Scans  []*scanPayload `json:"scans"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// CreateScan submits a new scan for target with the given mode and returns
// the queued scan record.
func (c *Client) CreateScan(ctx context.Context, target string, mode ScanMode) (*Scan, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid target URL %q", target)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported target scheme %q", u.Scheme)
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("invalid scan mode %q", mode)
	}

	var payload scanPayload
	err = c.doJSON(ctx, &request{
		method: http.MethodPost,
		path:   "/scans/",
		body:   createScanRequest{Target: target, ScanMode: mode},
	}, &payload)
	if err != nil {
		return nil, err
	}
	return reshapeScan(&payload), nil
}

// ListScans returns one page of the scan history, newest first. limit <= 0
// selects the default page size; offset <= 0 starts at the beginning.
func (c *Client) ListScans(ctx context.Context, limit, offset int) (*ScanPage, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	query := url.Values{
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}

	var payload scanListPayload
	err := c.doJSON(ctx, &request{
		method: http.MethodGet,
		path:   "/scans/",
		query:  query,
	}, &payload)
	if err != nil {
		return nil, err
	}

	page := &ScanPage{
		Scans:  make([]*Scan, 0, len(payload.Scans)),
		Total:  payload.Total,
		Limit:  payload.Limit,
		Offset: payload.Offset,
	}
	for _, p := range payload.Scans {
		page.Scans = append(page.Scans, reshapeScan(p))
	}
	return page, nil
}

// GetScan fetches a single scan by ID.
func (c *Client) GetScan(ctx context.Context, scanID string) (*Scan, error) {
	if scanID == "" {
		return nil, fmt.Errorf("scan ID required")
	}

	var payload scanPayload
	err := c.doJSON(ctx, &request{
		method: http.MethodGet,
		path:   "/scans/" + url.PathEscape(scanID),
	}, &payload)
	if err != nil {
		return nil, err
	}
	return reshapeScan(&payload), nil
}

// DeleteScan removes a scan and its results from the account history.
func (c *Client) DeleteScan(ctx context.Context, scanID string) error {
	if scanID == "" {
		return fmt.Errorf("scan ID required")
	}
	return c.doJSON(ctx, &request{
		method: http.MethodDelete,
		path:   "/scans/" + url.PathEscape(scanID),
	}, nil)
}

// ScanReport downloads the backend-generated report for a completed scan.
// The body is returned verbatim; text reports are not JSON.
func (c *Client) ScanReport(ctx context.Context, scanID string, format ReportFormat) (*Report, error) {
	if scanID == "" {
		return nil, fmt.Errorf("scan ID required")
	}
	if format == "" {
		format = ReportJSON
	}
	if !format.Valid() {
		return nil, fmt.Errorf("invalid report format %q", format)
	}

	resp, err := c.do(ctx, &request{
		method: http.MethodGet,
		path:   "/scans/" + url.PathEscape(scanID) + "/report",
		query:  url.Values{"format": {string(format)}},
	})
	if err != nil {
		return nil, err
	}

	return &Report{
		ScanID:      scanID,
		Format:      format,
		ContentType: resp.ContentType(),
		Body:        resp.Body,
	}, nil
}
