package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/vigil-sec/vigil/internal/api"
	"github.com/vigil-sec/vigil/internal/watch"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Submit and manage vulnerability scans",
}

var scanCreateCmd = &cobra.Command{
	Use:   "create <target-url>",
	Short: "Submit a new scan",
	Long: `Create submits a target URL for scanning. The scan runs on the
platform; use --watch to follow it until completion.`,
	Args: cobra.ExactArgs(1),
	RunE: runScanCreate,
}

var scanListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scan history",
	RunE:  runScanList,
}

var scanGetCmd = &cobra.Command{
	Use:   "get <scan-id>",
	Short: "Show a single scan",
	Args:  cobra.ExactArgs(1),
	RunE:  runScanGet,
}

var scanDeleteCmd = &cobra.Command{
	Use:   "delete <scan-id>",
	Short: "Delete a scan and its results",
	Args:  cobra.ExactArgs(1),
	RunE:  runScanDelete,
}

var scanReportCmd = &cobra.Command{
	Use:   "report <scan-id>",
	Short: "Download the report for a completed scan",
	Args:  cobra.ExactArgs(1),
	RunE:  runScanReport,
}

var scanWatchCmd = &cobra.Command{
	Use:   "watch <scan-id>",
	Short: "Follow a scan until it finishes",
	Args:  cobra.ExactArgs(1),
	RunE:  runScanWatch,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.AddCommand(scanCreateCmd, scanListCmd, scanGetCmd, scanDeleteCmd, scanReportCmd, scanWatchCmd)

	scanCreateCmd.Flags().StringP("mode", "m", string(api.ModeCommon), "Scan mode (common, fast, full, stealth, aggressive, custom)")
	scanCreateCmd.Flags().BoolP("watch", "w", false, "Follow the scan until it finishes")

	scanListCmd.Flags().Int("limit", 0, "Page size (default 50)")
	scanListCmd.Flags().Int("offset", 0, "Page offset")

	scanReportCmd.Flags().String("report-format", "json", "Report format (json, text)")
	scanReportCmd.Flags().StringP("output", "o", "", "Output file path (default stdout)")
}

func runScanCreate(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := requireSession(ctx, app); err != nil {
		return err
	}

	modeStr, _ := cmd.Flags().GetString("mode")
	follow, _ := cmd.Flags().GetBool("watch")

	scan, err := app.client.CreateScan(ctx, args[0], api.ScanMode(modeStr))
	if err != nil {
		return fmt.Errorf("creating scan: %w", err)
	}

	if !follow {
		return app.renderer.Scan(os.Stdout, scan)
	}

	fmt.Printf("Scan %s queued, waiting for completion...\n", scan.ID)
	return watchScan(ctx, app, scan.ID)
}

func runScanList(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := requireSession(ctx, app); err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	page, err := app.client.ListScans(ctx, limit, offset)
	if err != nil {
		return fmt.Errorf("listing scans: %w", err)
	}
	return app.renderer.ScanList(os.Stdout, page)
}

func runScanGet(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := requireSession(ctx, app); err != nil {
		return err
	}

	scan, err := app.client.GetScan(ctx, args[0])
	if err != nil {
		return fmt.Errorf("fetching scan: %w", err)
	}
	return app.renderer.Scan(os.Stdout, scan)
}

func runScanDelete(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := requireSession(ctx, app); err != nil {
		return err
	}

	if err := app.client.DeleteScan(ctx, args[0]); err != nil {
		return fmt.Errorf("deleting scan: %w", err)
	}
	fmt.Printf("Scan %s deleted.\n", args[0])
	return nil
}

func runScanReport(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := requireSession(ctx, app); err != nil {
		return err
	}

	formatStr, _ := cmd.Flags().GetString("report-format")
	outputPath, _ := cmd.Flags().GetString("output")

	rep, err := app.client.ScanReport(ctx, args[0], api.ReportFormat(formatStr))
	if err != nil {
		return fmt.Errorf("fetching report: %w", err)
	}

	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("creating output file %q: %w", outputPath, err)
		}
		defer f.Close()
		out = f
	}

	if _, err := out.Write(rep.Body); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func runScanWatch(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := requireSession(ctx, app); err != nil {
		return err
	}
	return watchScan(ctx, app, args[0])
}

// watchScan polls the scan until it finishes and renders the final record.
func watchScan(ctx context.Context, app *app, scanID string) error {
	var lastStatus api.ScanStatus
	watcher := watch.New(app.client,
		watch.WithInterval(app.cfg.WatchInterval),
		watch.WithLogger(app.log),
	)
	watcher.OnUpdate = func(s *api.Scan) {
		if s.Status != lastStatus {
			fmt.Printf("[*] Status: %s\n", s.Status)
			lastStatus = s.Status
		}
	}

	scan, err := watcher.Watch(ctx, scanID)
	if err != nil {
		return fmt.Errorf("watching scan: %w", err)
	}
	return app.renderer.Scan(os.Stdout, scan)
}

// requireSession restores the stored session and fails with a login hint
// when there is none.
func requireSession(ctx context.Context, app *app) error {
	if !app.client.Resume(ctx) {
		return fmt.Errorf("not logged in, run 'vigil login'")
	}
	return nil
}
