package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the platform",
	Long: `Login authenticates with your account email and password. The token
pair is stored locally and refreshed automatically on later commands.`,
	RunE: runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in account",
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)

	loginCmd.Flags().StringP("email", "e", "", "Account email")
	registerCmd.Flags().StringP("email", "e", "", "Account email")
	registerCmd.Flags().String("name", "", "Full name (optional)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		email, err = promptLine("Email: ")
		if err != nil {
			return err
		}
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	user, err := app.client.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Printf("Logged in as %s (%s tier)\n", user.Email, user.Tier)
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		email, err = promptLine("Email: ")
		if err != nil {
			return err
		}
	}
	fullName, _ := cmd.Flags().GetString("name")

	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := promptPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	user, err := app.client.Register(ctx, email, password, fullName)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Printf("Account created: %s\n", user.Email)
	if !user.EmailVerified {
		fmt.Println("Check your inbox to verify the email address.")
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.client.Logout(cmd.Context()); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	fmt.Println("Logged out.")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if !app.client.Resume(ctx) {
		return fmt.Errorf("not logged in, run 'vigil login'")
	}

	user := app.client.Session().User()
	fmt.Printf("Email:    %s\n", user.Email)
	if user.FullName != "" {
		fmt.Printf("Name:     %s\n", user.FullName)
	}
	fmt.Printf("Tier:     %s\n", user.Tier)
	fmt.Printf("Verified: %t\n", user.EmailVerified)
	return nil
}

// promptLine reads one trimmed line from stdin.
func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echo when stdin is a terminal,
// falling back to a plain line read otherwise (pipes, CI).
func promptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptLine(prompt)
	}

	fmt.Print(prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
