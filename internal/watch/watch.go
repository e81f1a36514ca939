// Package watch polls a scan until it reaches a terminal state.
package watch

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vigil-sec/vigil/internal/api"
)

// DefaultInterval is the polling cadence used when none is configured.
const DefaultInterval = 3 * time.Second

// Watcher polls the platform for scan progress.
type Watcher struct {
	client   *api.Client
	interval time.Duration
	log      *logrus.Entry

	// OnUpdate is called after every successful poll, including the final
	// one. Optional.
	OnUpdate func(*api.Scan)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithInterval overrides the polling cadence.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithLogger routes poll diagnostics to the given logger.
func WithLogger(l *logrus.Logger) Option {
	return func(w *Watcher) {
		w.log = l.WithField("component", "watch")
	}
}

// New creates a Watcher around the given API client.
func New(client *api.Client, opts ...Option) *Watcher {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	w := &Watcher{
		client:   client,
		interval: DefaultInterval,
		log:      quiet.WithField("component", "watch"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch polls the scan until its status leaves the in-progress set and
// returns the terminal scan record. Cancelling the context stops the loop
// with ctx.Err(); poll failures abort immediately so authentication
// problems surface instead of spinning.
func (w *Watcher) Watch(ctx context.Context, scanID string) (*api.Scan, error) {
	if scanID == "" {
		return nil, fmt.Errorf("scan ID required")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		scan, err := w.client.GetScan(ctx, scanID)
		if err != nil {
			return nil, err
		}

		if w.OnUpdate != nil {
			w.OnUpdate(scan)
		}

		if !scan.Status.InProgress() {
			w.log.WithFields(logrus.Fields{
				"scan":   scanID,
				"status": scan.Status,
			}).Debug("scan reached terminal state")
			return scan, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
