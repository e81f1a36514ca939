package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vigil-sec/vigil/internal/session"
	"github.com/vigil-sec/vigil/internal/testutil"
	"github.com/vigil-sec/vigil/internal/transport"
)

// ---------------------------------------------------------------------------
// Reshaping
// ---------------------------------------------------------------------------

func TestReshapeScan(t *testing.T) {
	tests := []struct {
		name                       string
		critical, high, medium, low int
		wantTotal                  int
	}{
		{"mixed severities", 2, 1, 0, 3, 6},
		{"no findings", 0, 0, 0, 0, 0},
		{"single critical", 1, 0, 0, 0, 1},
		{"all severities", 4, 3, 2, 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scan := reshapeScan(&scanPayload{
				ID:            "scan-1",
				Target:        "https://example.com",
				CriticalCount: tt.critical,
				HighCount:     tt.high,
				MediumCount:   tt.medium,
				LowCount:      tt.low,
			})

			if scan.TotalVulnerabilities != tt.wantTotal {
				t.Errorf("TotalVulnerabilities = %d, want %d", scan.TotalVulnerabilities, tt.wantTotal)
			}
			if scan.Vulnerabilities.Critical != tt.critical {
				t.Errorf("Critical = %d, want %d", scan.Vulnerabilities.Critical, tt.critical)
			}
			if scan.Vulnerabilities.Low != tt.low {
				t.Errorf("Low = %d, want %d", scan.Vulnerabilities.Low, tt.low)
			}
			if scan.TargetURL != "https://example.com" {
				t.Errorf("TargetURL = %q, want wire target field", scan.TargetURL)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Create validation
// ---------------------------------------------------------------------------

func TestCreateScanValidation(t *testing.T) {
	srv := testutil.NewAPIServer()
	defer srv.Close()

	c, _ := newTestStack(t, srv)
	loginTestUser(t, srv, c)
	ctx := context.Background()

	tests := []struct {
		name   string
		target string
		mode   ScanMode
	}{
		{"empty target", "", ModeCommon},
		{"no scheme", "example.com", ModeCommon},
		{"bad scheme", "ftp://example.com", ModeCommon},
		{"bad mode", "https://example.com", ScanMode("turbo")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.CreateScan(ctx, tt.target, tt.mode); err == nil {
				t.Errorf("CreateScan(%q, %q) succeeded, want error", tt.target, tt.mode)
			}
		})
	}
}

// TestCreateScanWireFormat captures the raw submission body: the target goes
// out as "target_url" even though scan records report it as "target".
func TestCreateScanWireFormat(t *testing.T) {
	var body map[string]any
	raw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/scans/" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding submission body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id":         "scan-1",
			"target":     "https://example.com",
			"scan_mode":  "common",
			"status":     "queued",
			"created_at": time.Now().UTC().Format(time.RFC3339),
		})
	}))
	defer raw.Close()

	store, err := session.NewSQLiteStore(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer store.Close()

	tc, _ := transport.NewClient(transport.ClientOptions{Timeout: 5 * time.Second})
	c := NewClient(raw.URL, tc, session.NewManager(store))

	if _, err := c.CreateScan(context.Background(), "https://example.com", ModeCommon); err != nil {
		t.Fatalf("CreateScan: %v", err)
	}

	if got := body["target_url"]; got != "https://example.com" {
		t.Errorf("target_url = %v, want submitted target", got)
	}
	if _, ok := body["target"]; ok {
		t.Error(`submission carries "target", which belongs to scan records only`)
	}
	if got := body["scan_mode"]; got != "common" {
		t.Errorf("scan_mode = %v, want common", got)
	}
}

// ---------------------------------------------------------------------------
// Lifecycle: create, get, list, delete
// ---------------------------------------------------------------------------

func TestScanLifecycle(t *testing.T) {
	srv := testutil.NewAPIServer()
	defer srv.Close()

	c, _ := newTestStack(t, srv)
	loginTestUser(t, srv, c)
	ctx := context.Background()

	created, err := c.CreateScan(ctx, "https://example.com", ModeFull)
	if err != nil {
		t.Fatalf("CreateScan: %v", err)
	}
	if created.Status != StatusQueued {
		t.Errorf("Status = %q, want queued", created.Status)
	}
	if created.Mode != ModeFull {
		t.Errorf("Mode = %q, want full", created.Mode)
	}

	got, err := c.GetScan(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetScan: %v", err)
	}
	if got.ID != created.ID || got.TargetURL != "https://example.com" {
		t.Errorf("GetScan = %+v, want created scan", got)
	}

	page, err := c.ListScans(ctx, 0, 0)
	if err != nil {
		t.Fatalf("ListScans: %v", err)
	}
	if page.Total != 1 || len(page.Scans) != 1 {
		t.Fatalf("ListScans: total = %d, len = %d, want 1/1", page.Total, len(page.Scans))
	}
	if page.Limit != 50 {
		t.Errorf("default limit = %d, want 50", page.Limit)
	}

	if err := c.DeleteScan(ctx, created.ID); err != nil {
		t.Fatalf("DeleteScan: %v", err)
	}
	if _, err := c.GetScan(ctx, created.ID); !IsNotFound(err) {
		t.Errorf("GetScan after delete = %v, want 404", err)
	}
}

// Every path that returns a scan must apply the same derivation: the list
// view and the single view of the same scan agree on the breakdown.
func TestReshapeConsistencyAcrossEndpoints(t *testing.T) {
	srv := testutil.NewAPIServer()
	defer srv.Close()

	c, sess := newTestStack(t, srv)
	loginTestUser(t, srv, c)
	ctx := context.Background()

	seeded := srv.SeedScan(sess.User().ID, "https://example.com", "completed", 2, 1, 0, 3)

	single, err := c.GetScan(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("GetScan: %v", err)
	}

	page, err := c.ListScans(ctx, 0, 0)
	if err != nil {
		t.Fatalf("ListScans: %v", err)
	}
	if len(page.Scans) != 1 {
		t.Fatalf("ListScans returned %d scans, want 1", len(page.Scans))
	}
	listed := page.Scans[0]

	if single.TotalVulnerabilities != 6 {
		t.Errorf("GetScan total = %d, want 6", single.TotalVulnerabilities)
	}
	if listed.TotalVulnerabilities != single.TotalVulnerabilities {
		t.Errorf("list total = %d, single total = %d, must agree",
			listed.TotalVulnerabilities, single.TotalVulnerabilities)
	}
	if listed.Vulnerabilities != single.Vulnerabilities {
		t.Errorf("list breakdown %+v != single breakdown %+v",
			listed.Vulnerabilities, single.Vulnerabilities)
	}
}

// ---------------------------------------------------------------------------
// Reports
// ---------------------------------------------------------------------------

func TestScanReport(t *testing.T) {
	srv := testutil.NewAPIServer()
	defer srv.Close()

	c, sess := newTestStack(t, srv)
	loginTestUser(t, srv, c)
	ctx := context.Background()

	seeded := srv.SeedScan(sess.User().ID, "https://example.com", "completed", 1, 0, 0, 0)

	jsonRep, err := c.ScanReport(ctx, seeded.ID, ReportJSON)
	if err != nil {
		t.Fatalf("ScanReport (json): %v", err)
	}
	if !strings.Contains(jsonRep.ContentType, "application/json") {
		t.Errorf("ContentType = %q, want JSON", jsonRep.ContentType)
	}
	if !strings.Contains(string(jsonRep.Body), seeded.ID) {
		t.Error("JSON report body missing scan ID")
	}

	// Text reports are opaque payloads, passed through without decoding.
	textRep, err := c.ScanReport(ctx, seeded.ID, ReportText)
	if err != nil {
		t.Fatalf("ScanReport (text): %v", err)
	}
	if !strings.Contains(string(textRep.Body), "https://example.com") {
		t.Errorf("text report body = %q, want target mentioned", textRep.Body)
	}

	if _, err := c.ScanReport(ctx, seeded.ID, ReportFormat("pdf")); err == nil {
		t.Error("ScanReport with unknown format should fail client-side")
	}
}

func TestScanReportNotCompleted(t *testing.T) {
	srv := testutil.NewAPIServer()
	defer srv.Close()

	c, sess := newTestStack(t, srv)
	loginTestUser(t, srv, c)

	seeded := srv.SeedScan(sess.User().ID, "https://example.com", "running", 0, 0, 0, 0)
	if _, err := c.ScanReport(context.Background(), seeded.ID, ReportJSON); err == nil {
		t.Error("ScanReport on a running scan should fail")
	}
}

// ---------------------------------------------------------------------------
// Status predicate
// ---------------------------------------------------------------------------

func TestScanStatusInProgress(t *testing.T) {
	inProgress := []ScanStatus{StatusQueued, StatusRunning}
	terminal := []ScanStatus{StatusCompleted, StatusFailed, StatusCancelled}

	for _, s := range inProgress {
		if !s.InProgress() {
			t.Errorf("%q.InProgress() = false, want true", s)
		}
	}
	for _, s := range terminal {
		if s.InProgress() {
			t.Errorf("%q.InProgress() = true, want false", s)
		}
	}
}
