package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show account usage statistics",
	RunE:  runUsage,
}

func init() {
	rootCmd.AddCommand(usageCmd)
	usageCmd.Flags().Int("days", 0, "Reporting window in days (default 30)")
}

func runUsage(cmd *cobra.Command, args []string) error {
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

	days, _ := cmd.Flags().GetInt("days")
	stats, err := app.client.Usage(ctx, days)
	if err != nil {
		return fmt.Errorf("fetching usage: %w", err)
	}
	return app.renderer.Usage(os.Stdout, stats)
}
