package api

import (
	"context"
	"testing"

	"github.com/vigil-sec/vigil/internal/testutil"
)

func TestUsageDefaultWindow(t *testing.T) {
	srv := testutil.NewAPIServer()
	defer srv.Close()

	c, _ := newTestStack(t, srv)
	loginTestUser(t, srv, c)

	stats, err := c.Usage(context.Background(), 0)
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if stats.PeriodDays != 30 {
		t.Errorf("PeriodDays = %d, want default 30", stats.PeriodDays)
	}
	if stats.StartDate == "" || stats.EndDate == "" {
		t.Error("period dates missing")
	}
}

func TestUsageCustomWindow(t *testing.T) {
	srv := testutil.NewAPIServer()
	defer srv.Close()

	c, sess := newTestStack(t, srv)
	loginTestUser(t, srv, c)
	srv.SeedScan(sess.User().ID, "https://example.com", "completed", 0, 1, 0, 0)

	stats, err := c.Usage(context.Background(), 7)
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}
	if stats.PeriodDays != 7 {
		t.Errorf("PeriodDays = %d, want 7", stats.PeriodDays)
	}
	if stats.ScanCount != 1 {
		t.Errorf("ScanCount = %d, want 1", stats.ScanCount)
	}
}

func TestUsageWindowTooLarge(t *testing.T) {
	srv := testutil.NewAPIServer()
	defer srv.Close()

	c, _ := newTestStack(t, srv)
	loginTestUser(t, srv, c)

	if _, err := c.Usage(context.Background(), 1000); err == nil {
		t.Error("Usage with oversized window should fail client-side")
	}
}
