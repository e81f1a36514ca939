package watch

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vigil-sec/vigil/internal/api"
	"github.com/vigil-sec/vigil/internal/session"
	"github.com/vigil-sec/vigil/internal/testutil"
	"github.com/vigil-sec/vigil/internal/transport"
)

func newTestClient(t *testing.T, srv *testutil.APIServer) (*api.Client, string) {
	t.Helper()

	store, err := session.NewSQLiteStore(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	tc, err := transport.NewClient(transport.ClientOptions{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("transport.NewClient: %v", err)
	}

	c := api.NewClient(srv.BaseURL(), tc, session.NewManager(store))
	srv.SeedUser("dev@example.com", "hunter2")
	user, err := c.Login(context.Background(), "dev@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return c, user.ID
}

func TestWatchReturnsImmediatelyOnTerminalScan(t *testing.T) {
	srv := testutil.NewAPIServer()
	defer srv.Close()

	c, userID := newTestClient(t, srv)
	seeded := srv.SeedScan(userID, "https://example.com", "completed", 1, 0, 0, 0)

	// A huge interval proves the status is checked before the first wait.
	w := New(c, WithInterval(time.Hour))

	done := make(chan struct{})
	var scan *api.Scan
	var err error
	go func() {
		scan, err = w.Watch(context.Background(), seeded.ID)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return for an already-terminal scan")
	}
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if scan.Status != api.StatusCompleted {
		t.Errorf("Status = %q, want completed", scan.Status)
	}
}

func TestWatchPollsUntilTerminal(t *testing.T) {
	srv := testutil.NewAPIServer()
	defer srv.Close()

	c, userID := newTestClient(t, srv)
	seeded := srv.SeedScan(userID, "https://example.com", "queued", 0, 0, 0, 0)

	var updates atomic.Int64
	w := New(c, WithInterval(20*time.Millisecond))
	w.OnUpdate = func(s *api.Scan) {
		switch updates.Add(1) {
		case 2:
			srv.SetScanStatus(seeded.ID, "running")
		case 4:
			srv.SetScanStatus(seeded.ID, "completed")
		}
	}

	scan, err := w.Watch(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if scan.Status != api.StatusCompleted {
		t.Errorf("Status = %q, want completed", scan.Status)
	}
	if scan.CompletedAt == nil {
		t.Error("CompletedAt = nil on a completed scan")
	}
	if got := updates.Load(); got < 4 {
		t.Errorf("OnUpdate called %d times, want at least 4", got)
	}
}

func TestWatchContextCancellation(t *testing.T) {
	srv := testutil.NewAPIServer()
	defer srv.Close()

	c, userID := newTestClient(t, srv)
	// The scan never leaves the running state.
	seeded := srv.SeedScan(userID, "https://example.com", "running", 0, 0, 0, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	w := New(c, WithInterval(20*time.Millisecond))
	_, err := w.Watch(ctx, seeded.ID)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context deadline", err)
	}
}

func TestWatchPollErrorAborts(t *testing.T) {
	srv := testutil.NewAPIServer()
	defer srv.Close()

	c, _ := newTestClient(t, srv)

	w := New(c, WithInterval(20*time.Millisecond))
	if _, err := w.Watch(context.Background(), "no-such-scan"); !api.IsNotFound(err) {
		t.Errorf("error = %v, want 404 surfaced immediately", err)
	}
}

func TestWatchEmptyScanID(t *testing.T) {
	srv := testutil.NewAPIServer()
	defer srv.Close()

	c, _ := newTestClient(t, srv)
	w := New(c)
	if _, err := w.Watch(context.Background(), ""); err == nil {
		t.Error("Watch with empty scan ID should fail")
	}
}
