package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/vigil-sec/vigil/internal/session"
)

var billingCmd = &cobra.Command{
	Use:   "billing",
	Short: "Manage the account subscription",
}

var billingCheckoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Start a checkout for a paid tier",
	Long: `Checkout creates a hosted payment session for upgrading the account.
Open the printed URL in a browser to complete payment.`,
	RunE: runBillingCheckout,
}

var billingStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current subscription",
	RunE:  runBillingStatus,
}

var billingCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the subscription at period end",
	RunE:  runBillingCancel,
}

func init() {
	rootCmd.AddCommand(billingCmd)
	billingCmd.AddCommand(billingCheckoutCmd, billingStatusCmd, billingCancelCmd)

	billingCheckoutCmd.Flags().String("tier", string(session.TierPremium), "Subscription tier (premium, enterprise)")
	billingCheckoutCmd.Flags().String("success-url", "", "Redirect after successful payment")
	billingCheckoutCmd.Flags().String("cancel-url", "", "Redirect after abandoned payment")
}

func runBillingCheckout(cmd *cobra.Command, args []string) error {
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

	tierStr, _ := cmd.Flags().GetString("tier")
	successURL, _ := cmd.Flags().GetString("success-url")
	cancelURL, _ := cmd.Flags().GetString("cancel-url")

	checkout, err := app.client.CheckoutSubscription(ctx, session.Tier(tierStr), successURL, cancelURL)
	if err != nil {
		return fmt.Errorf("starting checkout: %w", err)
	}

	fmt.Println("Complete payment at:")
	fmt.Printf("  %s\n", checkout.URL)
	return nil
}

func runBillingStatus(cmd *cobra.Command, args []string) error {
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

	sub, err := app.client.CurrentSubscription(ctx)
	if err != nil {
		return fmt.Errorf("fetching subscription: %w", err)
	}
	if sub == nil {
		fmt.Println("No active subscription (free tier).")
		return nil
	}

	fmt.Printf("Tier:   %s\n", sub.Tier)
	fmt.Printf("Status: %s\n", sub.Status)
	fmt.Printf("Period: %s to %s\n",
		sub.CurrentPeriodStart.Format(time.RFC3339),
		sub.CurrentPeriodEnd.Format(time.RFC3339))
	if sub.CancelAtPeriodEnd {
		fmt.Println("Cancels at the end of the current period.")
	}
	return nil
}

func runBillingCancel(cmd *cobra.Command, args []string) error {
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

	sub, err := app.client.CancelSubscription(ctx)
	if err != nil {
		return fmt.Errorf("cancelling subscription: %w", err)
	}

	fmt.Printf("Subscription will end on %s.\n", sub.CurrentPeriodEnd.Format(time.RFC3339))
	return nil
}
