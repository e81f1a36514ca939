// Package cli implements the vigil command tree.
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// Version information (set by build flags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "vigil",
	Short: "Command-line client for the Vigil scanning platform",
	Long: `vigil - command-line client for the Vigil web vulnerability scanning platform

Submit scans, follow their progress, fetch reports, and manage your
account from the terminal. Log in once; the session is stored locally
and refreshed automatically.`,
	SilenceUsage: true,
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)

	// Connection flags
	rootCmd.PersistentFlags().String("api-url", "", "Platform API base URL (overrides config)")
	rootCmd.PersistentFlags().Duration("timeout", 30*time.Second, "Request timeout")
	rootCmd.PersistentFlags().String("proxy", "", "Proxy URL (http://host:port or socks5://host:port)")
	rootCmd.PersistentFlags().Bool("insecure", false, "Skip TLS certificate verification")

	// Output flags
	rootCmd.PersistentFlags().StringP("format", "f", "", "Output format (text, json)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress log output")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vigil %s (commit: %s, built: %s)\n", version, commit, date)
	},
}
