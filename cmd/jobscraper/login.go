package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jacobwcallahan/gmail-job-scraper/internal/credential"
)

var loginCmd = &cobra.Command{
	Use:   "login <address>",
	Short: "Store a mailbox password in the system keyring",
	Long:  "Prompts for the IMAP password (app password for Gmail) and stores it in the system keyring under the account address.",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout <address>",
	Short: "Remove a stored mailbox password from the system keyring",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	address := strings.TrimSpace(args[0])
	if address == "" {
		return fmt.Errorf("address must not be empty")
	}

	fmt.Printf("Password for %s: ", address)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	password := strings.TrimSpace(string(raw))
	if password == "" {
		return fmt.Errorf("password must not be empty")
	}

	if err := credential.Set(address, password); err != nil {
		return err
	}

	fmt.Printf("Stored password for %s in the system keyring.\n", address)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	address := strings.TrimSpace(args[0])

	if err := credential.Delete(address); err != nil {
		return err
	}

	fmt.Printf("Removed stored password for %s.\n", address)
	return nil
}
