package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"go.withmatt.com/crmmail/internal/mail"
	"go.withmatt.com/crmmail/internal/render"
)

var showFlags struct {
	folder   string
	browser  bool
	markRead bool
	width    int
}

var showCmd = &cobra.Command{
	Use:   "show <uid>",
	Short: "Print one message",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	f := showCmd.Flags()
	f.StringVarP(&showFlags.folder, "folder", "f", "inbox", "folder the uid belongs to")
	f.BoolVar(&showFlags.browser, "browser", false, "open the HTML part in the system browser")
	f.BoolVar(&showFlags.markRead, "mark-read", false, "mark the message read after printing it")
	f.IntVarP(&showFlags.width, "width", "w", 80, "wrap the body at this width, 0 disables wrapping")
	rootCmd.AddCommand(showCmd)
}

func parseUID(arg string) (uint32, error) {
	uid, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || uid == 0 {
		return 0, fmt.Errorf("invalid uid %q", arg)
	}
	return uint32(uid), nil
}

func runShow(cmd *cobra.Command, args []string) error {
	uid, err := parseUID(args[0])
	if err != nil {
		return err
	}
	folder, err := folderFlag(showFlags.folder)
	if err != nil {
		return err
	}
	s, err := newSession(cmd.Context())
	if err != nil {
		return err
	}
	conn, err := s.imap()
	if err != nil {
		return err
	}

	msg, err := s.client.FetchMessage(cmd.Context(), conn, folder, uid)
	if err != nil {
		return err
	}

	if showFlags.browser {
		if strings.TrimSpace(msg.HTML) == "" {
			return fmt.Errorf("message %d has no HTML part", uid)
		}
		if err := browser.OpenReader(strings.NewReader(msg.HTML)); err != nil {
			return err
		}
	} else {
		writeMessage(cmd.OutOrStdout(), *msg, showFlags.width)
	}

	if showFlags.markRead && msg.Unread {
		return s.client.MarkRead(cmd.Context(), conn, folder, uid, true)
	}
	return nil
}

func writeMessage(w io.Writer, msg mail.Message, width int) {
	from := msg.From
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", msg.FromName, msg.From)
	}
	fmt.Fprintf(w, "Subject: %s\n", msg.Subject)
	fmt.Fprintf(w, "From:    %s\n", from)
	if msg.To != "" {
		fmt.Fprintf(w, "To:      %s\n", msg.To)
	}
	if !msg.Date.IsZero() {
		fmt.Fprintf(w, "Date:    %s\n", msg.Date.Local().Format("Mon, 2 Jan 2006 15:04"))
	}
	for _, att := range msg.Attachments {
		fmt.Fprintf(w, "Attach:  %s (%s)\n", att.Filename, render.Size(att.Size))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, render.Body(msg, width))
}
