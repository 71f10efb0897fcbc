package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nithin434/seriousbro/pkg/auth"
)

// loginCmd manages stored credentials used for login-form autofill.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Manage stored login credentials",
	Long: `Manage the credentials used to autofill the site login form.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (PROFILESCRAPER_EMAIL / PROFILESCRAPER_PASSWORD)

Stored credentials only fill the login form; captcha and two-factor
challenges are always completed by hand in the browser window.`,
}

var loginSaveCmd = &cobra.Command{
	Use:   "save [email]",
	Short: "Store credentials securely",
	Example: `  # Interactive
  profilescraper login save

  # With the email on the command line
  profilescraper login save me@example.com`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLoginSave,
}

var loginDeleteCmd = &cobra.Command{
	Use:   "delete <email>",
	Short: "Remove stored credentials",
	Args:  cobra.ExactArgs(1),
	RunE:  runLoginDelete,
}

var loginListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	RunE:  runLoginList,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.AddCommand(loginSaveCmd)
	loginCmd.AddCommand(loginDeleteCmd)
	loginCmd.AddCommand(loginListCmd)
}

func runLoginSave(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		fmt.Print("Email: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read email: %w", err)
		}
		email = strings.TrimSpace(input)
	}
	if email == "" {
		return fmt.Errorf("email is required")
	}

	if existing, _ := manager.Retrieve(email); existing != nil {
		fmt.Printf("Account '%s' already exists. Update credentials? (y/N): ", email)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Print("Password (hidden): ")
	password, err := readPassword()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return fmt.Errorf("password is required")
	}

	account := &auth.Account{
		Email:    email,
		Password: password,
	}
	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	fmt.Printf("Credentials stored for %s\n", email)
	fmt.Println("The next 'scrape' run will autofill the login form. Never share your config files.")
	return nil
}

func runLoginDelete(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if err := manager.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("Credentials removed for %s\n", args[0])
	return nil
}

func runLoginList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Println("No stored accounts. Use 'profilescraper login save' to add one.")
		return nil
	}

	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Printf("%d. %s (updated %s)\n", i+1, sanitized.Email, sanitized.LastModified.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// readPassword reads a password from stdin without echoing.
func readPassword() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return string(password), nil
		}
	}

	// Fallback to regular input when stdin is not a terminal
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
