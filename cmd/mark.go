package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"go.withmatt.com/crmmail/internal/gateway"
	"go.withmatt.com/crmmail/internal/mail"
)

var markFolder string

type flagSetter func(s *session, ctx context.Context, conn gateway.Connection, folder mail.Folder, uid uint32) error

func newMarkCmd(use, short string, set flagSetter) *cobra.Command {
	c := &cobra.Command{
		Use:   use + " <uid>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uids := make([]uint32, 0, len(args))
			for _, arg := range args {
				uid, err := parseUID(arg)
				if err != nil {
					return err
				}
				uids = append(uids, uid)
			}
			folder, err := folderFlag(markFolder)
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
			for _, uid := range uids {
				if err := set(s, cmd.Context(), conn, folder, uid); err != nil {
					return err
				}
			}
			return nil
		},
	}
	c.Flags().StringVarP(&markFolder, "folder", "f", "inbox", "folder the uids belong to")
	return c
}

func init() {
	rootCmd.AddCommand(
		newMarkCmd("star", "Star messages", func(s *session, ctx context.Context, conn gateway.Connection, folder mail.Folder, uid uint32) error {
			return s.client.SetStarred(ctx, conn, folder, uid, true)
		}),
		newMarkCmd("unstar", "Remove the star from messages", func(s *session, ctx context.Context, conn gateway.Connection, folder mail.Folder, uid uint32) error {
			return s.client.SetStarred(ctx, conn, folder, uid, false)
		}),
		newMarkCmd("read", "Mark messages read", func(s *session, ctx context.Context, conn gateway.Connection, folder mail.Folder, uid uint32) error {
			return s.client.MarkRead(ctx, conn, folder, uid, true)
		}),
		newMarkCmd("unread", "Mark messages unread", func(s *session, ctx context.Context, conn gateway.Connection, folder mail.Folder, uid uint32) error {
			return s.client.MarkRead(ctx, conn, folder, uid, false)
		}),
	)
}
