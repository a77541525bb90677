package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.withmatt.com/crmmail/internal/config"
	"go.withmatt.com/crmmail/internal/credential"
	"go.withmatt.com/crmmail/internal/tui"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage accounts",
	Long:  "Launch an interactive account manager to add, remove or choose the default account.",
	Args:  cobra.NoArgs,
	RunE:  runAccounts,
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		current, _ := cfg.CurrentAccount()
		for _, acct := range cfg.Accounts {
			marker := " "
			if acct.Email == current.Email {
				marker = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s  imap %s:%d  smtp %s:%d\n",
				marker, acct.DisplayName(), acct.IMAPHost, acct.IMAPPort, acct.SMTPHost, acct.SMTPPort)
		}
		return nil
	},
}

func init() {
	accountsCmd.AddCommand(accountsListCmd)
	rootCmd.AddCommand(accountsCmd)
}

func runAccounts(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	return tui.RunAccounts(cmd.Context(), cfg, credential.NewKeyringStore())
}
