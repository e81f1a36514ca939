package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vigil-sec/vigil/internal/api"
	"github.com/vigil-sec/vigil/internal/config"
	"github.com/vigil-sec/vigil/internal/logging"
	"github.com/vigil-sec/vigil/internal/report"
	"github.com/vigil-sec/vigil/internal/session"
	"github.com/vigil-sec/vigil/internal/transport"
)

// app holds the wired client stack shared by all commands.
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	client   *api.Client
	store    session.Store
	renderer report.Renderer
}

// newApp builds the full stack for one command invocation: configuration
// overlaid with flags, logger, transport, durable session, API client, and
// the output renderer.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	// Flags the user set explicitly win over config and environment.
	if cmd.Flags().Changed("api-url") {
		cfg.APIBaseURL, _ = cmd.Flags().GetString("api-url")
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout, _ = cmd.Flags().GetDuration("timeout")
	}
	if cmd.Flags().Changed("proxy") {
		cfg.ProxyURL, _ = cmd.Flags().GetString("proxy")
	}
	if cmd.Flags().Changed("insecure") {
		cfg.InsecureSkipVerify, _ = cmd.Flags().GetBool("insecure")
	}
	if cmd.Flags().Changed("format") {
		cfg.OutputFormat, _ = cmd.Flags().GetString("format")
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log := logging.New(logging.Options{
		Level: level,
		File:  cfg.LogFile,
		Quiet: quiet && !verbose,
	})

	tc, err := transport.NewClient(transport.ClientOptions{
		Timeout:            cfg.Timeout,
		ProxyURL:           cfg.ProxyURL,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		MaxRPS:             cfg.MaxRPS,
	})
	if err != nil {
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	store, err := session.NewSQLiteStore(cfg.SessionDBPath())
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	client := api.NewClient(cfg.APIBaseURL, tc, session.NewManager(store),
		api.WithLogger(log),
		api.WithAuthExpiredHandler(func() {
			log.Debug("session expired, credentials cleared")
		}),
	)

	renderer, err := report.New(cfg.OutputFormat)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		log:      log,
		client:   client,
		store:    store,
		renderer: renderer,
	}, nil
}

// Close releases the app's resources.
func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.WithError(err).Warn("closing session store")
		}
	}
}
