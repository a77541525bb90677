package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"go.withmatt.com/crmmail/internal/inbox"
	"go.withmatt.com/crmmail/internal/mail"
	"go.withmatt.com/crmmail/internal/render"
)

var listFlags struct {
	folder  string
	search  string
	filters inbox.Filters
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the newest messages of a folder",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	f := listCmd.Flags()
	f.StringVarP(&listFlags.folder, "folder", "f", "inbox", "folder to list")
	f.StringVarP(&listFlags.search, "search", "s", "", "only messages whose subject, sender or snippet contains this")
	f.BoolVar(&listFlags.filters.Unread, "unread", false, "only unread messages")
	f.BoolVar(&listFlags.filters.Starred, "starred", false, "only starred messages")
	f.BoolVar(&listFlags.filters.HasAttachments, "attachments", false, "only messages with attachments")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	folder, err := folderFlag(listFlags.folder)
	if err != nil {
		return err
	}
	s, err := newSession(cmd.Context())
	if err != nil {
		return err
	}
	if err := s.manager.SwitchFolder(cmd.Context(), folder); err != nil {
		return fmt.Errorf("loading %s: %w", folder.Label(), err)
	}
	s.manager.SetSearch(listFlags.search)
	s.manager.SetFilters(listFlags.filters)

	messages := s.manager.Filtered()
	writeMessageList(cmd.OutOrStdout(), messages, time.Now())
	fmt.Fprintf(cmd.OutOrStdout(), "%d of %d messages in %s\n",
		len(messages), len(s.manager.Messages()), folder.Label())
	return nil
}

func writeMessageList(w io.Writer, messages []mail.Message, now time.Time) {
	for _, msg := range messages {
		flags := []rune("   ")
		if msg.Unread {
			flags[0] = '•'
		}
		if msg.Starred {
			flags[1] = '★'
		}
		if msg.HasAttachments {
			flags[2] = '@'
		}
		sender := runewidth.FillRight(runewidth.Truncate(msg.Sender(), 24, "..."), 24)
		subject := msg.Subject
		if subject == "" {
			subject = "(no subject)"
		}
		fmt.Fprintf(w, "%8d %s %s %-9s %s\n",
			msg.UID, string(flags), sender, render.Date(msg.Date, now), runewidth.Truncate(subject, 60, "..."))
	}
}
