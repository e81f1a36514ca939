package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage the account's programmatic API key",
}

var apikeyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether an API key is configured",
	RunE:  runAPIKeyStatus,
}

var apikeyGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an API key",
	RunE:  runAPIKeyGenerate,
}

var apikeyRegenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Replace the API key, invalidating the old one",
	RunE:  runAPIKeyRegenerate,
}

var apikeyRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Delete the API key",
	RunE:  runAPIKeyRevoke,
}

func init() {
	rootCmd.AddCommand(apikeyCmd)
	apikeyCmd.AddCommand(apikeyStatusCmd, apikeyGenerateCmd, apikeyRegenerateCmd, apikeyRevokeCmd)
}

func runAPIKeyStatus(cmd *cobra.Command, args []string) error {
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

	info, err := app.client.APIKeyStatus(ctx)
	if err != nil {
		return fmt.Errorf("fetching API key status: %w", err)
	}

	if !info.HasAPIKey {
		fmt.Println("No API key configured. Run 'vigil apikey generate'.")
		return nil
	}
	fmt.Println("API key is configured.")
	if info.CreatedAt != nil {
		fmt.Printf("Created: %s\n", info.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

func runAPIKeyGenerate(cmd *cobra.Command, args []string) error {
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

	key, err := app.client.GenerateAPIKey(ctx)
	if err != nil {
		return fmt.Errorf("generating API key: %w", err)
	}
	printAPIKey(key.APIKey)
	return nil
}

func runAPIKeyRegenerate(cmd *cobra.Command, args []string) error {
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

	key, err := app.client.RegenerateAPIKey(ctx)
	if err != nil {
		return fmt.Errorf("regenerating API key: %w", err)
	}
	fmt.Println("Previous key is now invalid.")
	printAPIKey(key.APIKey)
	return nil
}

func runAPIKeyRevoke(cmd *cobra.Command, args []string) error {
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

	if err := app.client.RevokeAPIKey(ctx); err != nil {
		return fmt.Errorf("revoking API key: %w", err)
	}
	fmt.Println("API key revoked.")
	return nil
}

func printAPIKey(key string) {
	fmt.Println("API key (shown once, store it securely):")
	fmt.Printf("  %s\n", key)
}
