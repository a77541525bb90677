package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.withmatt.com/crmmail/internal/config"
	"go.withmatt.com/crmmail/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse the mailbox interactively (default)",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := newSession(ctx)
	if err != nil {
		return err
	}

	theme, err := config.ResolveTheme(s.cfg.Theme)
	if err != nil {
		return fmt.Errorf("unable to resolve theme: %w", err)
	}
	if err := tui.Run(ctx, s.manager, s.cfg.Accounts, theme, s.cfg.UI, s.cfg.Keys); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
