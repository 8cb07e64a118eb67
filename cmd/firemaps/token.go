package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"firemaps/pkg/auth"
	"firemaps/pkg/config"
	errs "firemaps/pkg/errors"
	"firemaps/pkg/ui"
)

var tokenName string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the figshare shared-link token",
	Long: `Manage the figshare shared-link token used by generate.

Tokens are kept in:
  - the system keychain (when available)
  - an encrypted file with a PBKDF2-derived key
  - the FIREMAPS_SHARE_TOKEN environment variable (read only)

generate only consults the store when neither the configuration nor the
shared URL carries a token.`,
}

var tokenSetCmd = &cobra.Command{
	Use:   "set [token-or-shared-url]",
	Short: "Store a shared-link token",
	Long: `Store a shared-link token. Either the bare token or the full
https://figshare.com/s/<token> URL is accepted. Without an argument the value
is read from the terminal without echo.`,
	Example: `  firemaps token set 92ea9308ff2587864c49
  firemaps token set https://figshare.com/s/92ea9308ff2587864c49`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTokenSet,
}

var tokenShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show stored tokens (masked)",
	Args:  cobra.NoArgs,
	RunE:  runTokenShow,
}

var tokenDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove a stored token",
	Args:  cobra.NoArgs,
	RunE:  runTokenDelete,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenSetCmd)
	tokenCmd.AddCommand(tokenShowCmd)
	tokenCmd.AddCommand(tokenDeleteCmd)

	tokenCmd.PersistentFlags().StringVar(&tokenName, "name", auth.DefaultName, "name of the stored token")
}

func tokenManager() (*auth.Manager, error) {
	cfg, err := loadConfig(nil)
	if err != nil {
		return nil, err
	}
	manager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeConfig, err, "failed to initialize token store")
	}
	return manager, nil
}

func runTokenSet(cmd *cobra.Command, args []string) error {
	manager, err := tokenManager()
	if err != nil {
		return err
	}

	var input string
	if len(args) > 0 {
		input = args[0]
	} else {
		fmt.Fprint(ui.Output(), "Shared-link token or URL: ")
		input, err = readSecret()
		if err != nil {
			return errs.Wrap(errs.ErrorTypeUnknown, err, "failed to read token")
		}
	}

	tok := parseTokenInput(strings.TrimSpace(input))
	tok.Name = tokenName
	if err := manager.Store(tok); err != nil {
		return errs.Wrap(errs.ErrorTypeUnknown, err, "failed to store token")
	}

	ui.PrintSuccess(fmt.Sprintf("Stored token %q (%s)", tok.Name, auth.Mask(tok.Token)))
	return nil
}

// parseTokenInput accepts a bare token or a /s/<token> shared URL
func parseTokenInput(input string) *auth.ShareToken {
	if strings.Contains(input, "/s/") {
		cfg := &config.Config{Source: config.SourceConfig{SharedURL: input}}
		if token := cfg.Token(); token != "" {
			return &auth.ShareToken{Token: token, SharedURL: input}
		}
	}
	return &auth.ShareToken{Token: input}
}

func runTokenShow(cmd *cobra.Command, args []string) error {
	manager, err := tokenManager()
	if err != nil {
		return err
	}

	tokens, err := manager.List()
	if err != nil {
		return errs.Wrap(errs.ErrorTypeUnknown, err, "failed to list tokens")
	}
	if len(tokens) == 0 {
		ui.PrintWarning("No stored tokens", "run 'firemaps token set' to add one")
		return nil
	}

	t := ui.NewTable(ui.Output(), "Name", "Token", "Shared URL", "Modified")
	for _, tok := range tokens {
		t.AppendRow([]interface{}{tok.Name, auth.Mask(tok.Token), tok.SharedURL, tok.LastModified.Format("2006-01-02 15:04")})
	}
	t.Render()
	return nil
}

func runTokenDelete(cmd *cobra.Command, args []string) error {
	manager, err := tokenManager()
	if err != nil {
		return err
	}
	if err := manager.Delete(tokenName); err != nil {
		return errs.Wrap(errs.ErrorTypeNotFound, err, "failed to delete token")
	}
	ui.PrintSuccess(fmt.Sprintf("Deleted token %q", tokenName))
	return nil
}

// readSecret reads a line from stdin without echo when it is a terminal
func readSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(ui.Output())
		if err == nil {
			return string(secret), nil
		}
	}

	input, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
