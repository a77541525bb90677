package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.withmatt.com/crmmail/internal/mail"
)

var countsCmd = &cobra.Command{
	Use:   "counts",
	Short: "Print the message count of every folder",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd.Context())
		if err != nil {
			return err
		}
		counts, err := s.manager.RefreshCounts(cmd.Context(), true)
		if err != nil {
			return err
		}
		for _, folder := range mail.Folders() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s %d\n", folder.Label(), counts[folder])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(countsCmd)
}
