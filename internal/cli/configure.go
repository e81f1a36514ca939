package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vigil-sec/vigil/internal/config"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Manage the local configuration file",
}

var configureInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	RunE:  runConfigureInit,
}

var configureShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigureShow,
}

func init() {
	rootCmd.AddCommand(configureCmd)
	configureCmd.AddCommand(configureInitCmd, configureShowCmd)

	configureInitCmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
}

func runConfigureInit(cmd *cobra.Command, args []string) error {
	path, err := config.File()
	if err != nil {
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	if err := config.Save(config.Default()); err != nil {
		return fmt.Errorf("writing configuration: %w", err)
	}
	fmt.Printf("Configuration initialized: %s\n", path)
	return nil
}

func runConfigureShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "API base URL:\t%s\n", cfg.APIBaseURL)
	fmt.Fprintf(w, "Timeout:\t%s\n", cfg.Timeout)
	fmt.Fprintf(w, "Max RPS:\t%g\n", cfg.MaxRPS)
	fmt.Fprintf(w, "Proxy:\t%s\n", cfg.ProxyURL)
	fmt.Fprintf(w, "Skip TLS verify:\t%t\n", cfg.InsecureSkipVerify)
	fmt.Fprintf(w, "Data directory:\t%s\n", cfg.DataDir)
	fmt.Fprintf(w, "Output format:\t%s\n", cfg.OutputFormat)
	fmt.Fprintf(w, "Watch interval:\t%s\n", cfg.WatchInterval)
	fmt.Fprintf(w, "Log level:\t%s\n", cfg.LogLevel)
	fmt.Fprintf(w, "Log file:\t%s\n", cfg.LogFile)
	return w.Flush()
}
