package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"go.withmatt.com/crmmail/internal/addressbook"
)

var contactFlags struct {
	name  string
	phone string
	notes string
	limit int
}

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Manage the contact book used for sending",
}

var contactsAddCmd = &cobra.Command{
	Use:   "add <email>",
	Short: "Add or update a contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContacts(func(book *addressbook.Store) error {
			c, err := book.Add(addressbook.Contact{
				Email: args[0],
				Name:  contactFlags.name,
				Phone: contactFlags.phone,
				Notes: contactFlags.notes,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", c.Recipient())
			return nil
		})
	},
}

var contactsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every contact",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContacts(func(book *addressbook.Store) error {
			contacts, err := book.List()
			if err != nil {
				return err
			}
			writeContacts(cmd.OutOrStdout(), contacts)
			return nil
		})
	},
}

var contactsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find contacts by name or email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContacts(func(book *addressbook.Store) error {
			contacts, err := book.Search(args[0], contactFlags.limit)
			if err != nil {
				return err
			}
			writeContacts(cmd.OutOrStdout(), contacts)
			return nil
		})
	},
}

var contactsRemoveCmd = &cobra.Command{
	Use:   "remove <email>",
	Short: "Remove a contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContacts(func(book *addressbook.Store) error {
			if err := book.Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		})
	},
}

func init() {
	contactsAddCmd.Flags().StringVarP(&contactFlags.name, "name", "n", "", "display name")
	contactsAddCmd.Flags().StringVar(&contactFlags.phone, "phone", "", "phone number")
	contactsAddCmd.Flags().StringVar(&contactFlags.notes, "notes", "", "free-form notes")
	contactsSearchCmd.Flags().IntVarP(&contactFlags.limit, "limit", "l", 20, "maximum results")

	contactsCmd.AddCommand(contactsAddCmd, contactsListCmd, contactsSearchCmd, contactsRemoveCmd)
	rootCmd.AddCommand(contactsCmd)
}

func withContacts(fn func(*addressbook.Store) error) error {
	book, err := addressbook.OpenDefault()
	if err != nil {
		return err
	}
	defer book.Close()
	return fn(book)
}

func writeContacts(w io.Writer, contacts []addressbook.Contact) {
	if len(contacts) == 0 {
		fmt.Fprintln(w, "no contacts")
		return
	}
	for _, c := range contacts {
		line := c.Recipient().String()
		if c.Phone != "" {
			line += "  " + c.Phone
		}
		fmt.Fprintln(w, line)
	}
}
