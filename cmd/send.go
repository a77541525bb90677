package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"go.withmatt.com/crmmail/internal/addressbook"
	"go.withmatt.com/crmmail/internal/compose"
	"go.withmatt.com/crmmail/internal/log"
)

var sendFlags struct {
	to       string
	contacts []string
	subject  string
	body     string
	bodyFile string
	html     bool
	attach   []string
	yes      bool
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a message to each recipient separately",
	Long: `send delivers one copy of the message per recipient, pausing between
sends. Recipients come from --to (comma separated) and --contact, which
looks addresses up in the contact book.`,
	Args: cobra.NoArgs,
	RunE: runSend,
}

func init() {
	f := sendCmd.Flags()
	f.StringVar(&sendFlags.to, "to", "", "comma separated recipient addresses")
	f.StringSliceVarP(&sendFlags.contacts, "contact", "c", nil, "contact book email to send to (repeatable)")
	f.StringVarP(&sendFlags.subject, "subject", "s", "", "message subject")
	f.StringVarP(&sendFlags.body, "body", "b", "", "message body")
	f.StringVar(&sendFlags.bodyFile, "body-file", "", "read the body from this file")
	f.BoolVar(&sendFlags.html, "html", false, "the body is HTML")
	f.StringSliceVar(&sendFlags.attach, "attach", nil, "file to attach (repeatable)")
	f.BoolVarP(&sendFlags.yes, "yes", "y", false, "send without asking for confirmation")
	rootCmd.AddCommand(sendCmd)
}

func buildDraft() (*compose.Draft, error) {
	d := &compose.Draft{
		Subject: sendFlags.subject,
		Body:    sendFlags.body,
		HTML:    sendFlags.html,
	}
	if sendFlags.bodyFile != "" {
		data, err := os.ReadFile(sendFlags.bodyFile)
		if err != nil {
			return nil, fmt.Errorf("reading body: %w", err)
		}
		d.Body = string(data)
	}
	d.Recipients.SetManual(sendFlags.to)

	if len(sendFlags.contacts) > 0 {
		book, err := addressbook.OpenDefault()
		if err != nil {
			return nil, err
		}
		defer book.Close()
		for _, email := range sendFlags.contacts {
			contact, err := book.Get(email)
			if err != nil {
				return nil, fmt.Errorf("contact %s: %w", email, err)
			}
			if err := d.Recipients.AddContact(contact.Recipient()); err != nil {
				return nil, err
			}
		}
	}

	for _, path := range sendFlags.attach {
		att, err := compose.LoadAttachment(path)
		if err != nil {
			return nil, err
		}
		d.Attachments = append(d.Attachments, att)
	}
	return d, nil
}

func runSend(cmd *cobra.Command, args []string) error {
	draft, err := buildDraft()
	if err != nil {
		return err
	}
	s, err := newSession(cmd.Context())
	if err != nil {
		return err
	}
	if err := draft.Validate(s.cfg.Compose.MaxAttachmentBytes()); err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	if invalid := draft.Recipients.InvalidManual(); len(invalid) > 0 {
		fmt.Fprintf(stderr, "skipping invalid addresses: %s\n", strings.Join(invalid, ", "))
	}

	if !sendFlags.yes {
		confirmed := false
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Send %q to %d recipients from %s?",
					draft.Subject, draft.Recipients.Total(), s.account.Email)).
				Affirmative("Send").
				Negative("Cancel").
				Value(&confirmed),
		))
		err := form.RunWithContext(cmd.Context())
		if err != nil && !errors.Is(err, huh.ErrUserAborted) {
			return err
		}
		if !confirmed {
			fmt.Fprintln(stderr, "canceled")
			return nil
		}
	}

	orchestrator := compose.NewOrchestrator(s.client, s.creds,
		compose.WithInterval(s.cfg.Compose.SendInterval()),
		compose.WithMaxAttachmentBytes(s.cfg.Compose.MaxAttachmentBytes()),
		compose.WithLogger(log.Logger()),
		compose.WithProgress(func(done, total int, address string, err error) {
			status := "sent"
			if err != nil {
				status = "failed: " + err.Error()
			}
			fmt.Fprintf(stderr, "[%d/%d] %s %s\n", done, total, address, status)
		}),
	)

	report, err := orchestrator.Send(cmd.Context(), s.account, draft)
	if report != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "sent %d, failed %d, skipped %d\n",
			len(report.Sent), len(report.Failed), len(report.Skipped))
	}
	if err != nil {
		return err
	}
	if !report.OK() {
		return fmt.Errorf("%d recipients failed", len(report.Failed))
	}
	return nil
}
