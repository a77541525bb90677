package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"go.withmatt.com/crmmail/internal/config"
	"go.withmatt.com/crmmail/internal/credential"
	"go.withmatt.com/crmmail/internal/mail"
)

type accountAction string

const (
	accountActionAdd     accountAction = "add"
	accountActionRemove  accountAction = "remove"
	accountActionCurrent accountAction = "current"
	accountActionQuit    accountAction = "quit"
)

// RunAccounts is the interactive account manager. Passwords go to store,
// never to the config file.
func RunAccounts(ctx context.Context, cfg *config.Config, store credential.Store) error {
	if ctx == nil {
		ctx = context.Background()
	}

	status := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		action, err := runAccountsMenu(ctx, cfg, status)
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}

		var nextStatus string
		switch action {
		case accountActionAdd:
			nextStatus, err = runAddAccount(ctx, cfg, store)
		case accountActionRemove:
			nextStatus, err = runRemoveAccount(ctx, cfg, store)
		case accountActionCurrent:
			nextStatus, err = runChooseCurrent(ctx, cfg)
		case accountActionQuit:
			return nil
		default:
			nextStatus = "Unknown action."
		}
		if err != nil {
			return err
		}
		status = nextStatus
	}
}

func runAccountsMenu(
	ctx context.Context,
	cfg *config.Config,
	status string,
) (accountAction, error) {
	action := accountActionAdd
	options := []huh.Option[accountAction]{
		huh.NewOption("Add account", accountActionAdd),
	}
	if len(cfg.Accounts) > 1 {
		options = append(options, huh.NewOption("Choose default account", accountActionCurrent))
	}
	if len(cfg.Accounts) > 0 {
		options = append(options, huh.NewOption("Remove account", accountActionRemove))
	}
	options = append(options, huh.NewOption("Quit", accountActionQuit))

	fields := make([]huh.Field, 0, 3)
	if status != "" {
		fields = append(fields,
			huh.NewNote().Title("Status").Description(status),
		)
	}
	fields = append(fields,
		huh.NewNote().Title("Accounts").Description(formatAccountsNote(cfg)),
		huh.NewSelect[accountAction]().
			Title("Action").
			Options(options...).
			Value(&action),
	)

	form := huh.NewForm(huh.NewGroup(fields...)).
		WithProgramOptions(tea.WithAltScreen())
	if err := form.RunWithContext(ctx); err != nil {
		return "", err
	}
	return action, nil
}

type accountForm struct {
	name     string
	email    string
	username string
	imapHost string
	imapPort string
	smtpHost string
	smtpPort string
	password string
}

func (f accountForm) account() (mail.Account, error) {
	imapPort, err := parsePort(f.imapPort)
	if err != nil {
		return mail.Account{}, fmt.Errorf("IMAP port: %w", err)
	}
	smtpPort, err := parsePort(f.smtpPort)
	if err != nil {
		return mail.Account{}, fmt.Errorf("SMTP port: %w", err)
	}
	return mail.Account{
		Name:     strings.TrimSpace(f.name),
		Email:    strings.TrimSpace(f.email),
		Username: strings.TrimSpace(f.username),
		IMAPHost: strings.TrimSpace(f.imapHost),
		IMAPPort: imapPort,
		SMTPHost: strings.TrimSpace(f.smtpHost),
		SMTPPort: smtpPort,
	}, nil
}

func parsePort(value string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q", value)
	}
	return port, nil
}

func validateNotBlank(value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New("required")
	}
	return nil
}

func validatePort(value string) error {
	_, err := parsePort(value)
	return err
}

func runAddAccount(ctx context.Context, cfg *config.Config, store credential.Store) (string, error) {
	f := accountForm{imapPort: "993", smtpPort: "465"}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Listings").
				Value(&f.name),
			huh.NewInput().
				Title("Email").
				Placeholder("agent@example.com").
				Validate(validateNotBlank).
				Value(&f.email),
			huh.NewInput().
				Title("Username").
				Description("Leave blank to sign in with the email address").
				Value(&f.username),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("IMAP host").
				Placeholder("imap.example.com").
				Validate(validateNotBlank).
				Value(&f.imapHost),
			huh.NewInput().
				Title("IMAP port").
				Validate(validatePort).
				Value(&f.imapPort),
			huh.NewInput().
				Title("SMTP host").
				Placeholder("smtp.example.com").
				Validate(validateNotBlank).
				Value(&f.smtpHost),
			huh.NewInput().
				Title("SMTP port").
				Validate(validatePort).
				Value(&f.smtpPort),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Validate(validateNotBlank).
				Value(&f.password),
		),
	).WithProgramOptions(tea.WithAltScreen())

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "Add canceled.", nil
		}
		return "", err
	}

	acct, err := f.account()
	if err != nil {
		return err.Error(), nil
	}
	if cfg.FindAccount(acct.Email) != nil {
		return "Account already exists.", nil
	}

	if err := store.Set(acct.Email, credential.Encode(f.password)); err != nil {
		return fmt.Sprintf("Saving password failed: %v", err), nil
	}
	cfg.Accounts = append(cfg.Accounts, acct)
	if err := config.Save(cfg); err != nil {
		return fmt.Sprintf("Save failed: %v", err), nil
	}
	return "Added " + acct.Email, nil
}

func runRemoveAccount(ctx context.Context, cfg *config.Config, store credential.Store) (string, error) {
	if len(cfg.Accounts) == 0 {
		return "No accounts configured.", nil
	}

	selected := cfg.Accounts[0].Email
	removePassword := true
	confirm := false

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Account").
				Options(accountOptions(cfg)...).
				Value(&selected),
			huh.NewConfirm().
				Title("Delete saved password?").
				Affirmative("Yes").
				Negative("No").
				Value(&removePassword),
			huh.NewConfirm().
				Title("Remove this account?").
				Affirmative("Remove").
				Negative("Cancel").
				Value(&confirm),
		),
	).WithProgramOptions(tea.WithAltScreen())

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "Remove canceled.", nil
		}
		return "", err
	}
	if !confirm {
		return "Remove canceled.", nil
	}

	if err := RemoveAccount(cfg, store, selected, removePassword); err != nil {
		return fmt.Sprintf("Remove failed: %v", err), nil
	}
	return "Removed " + selected, nil
}

func runChooseCurrent(ctx context.Context, cfg *config.Config) (string, error) {
	selected := cfg.Current
	if selected == "" && len(cfg.Accounts) > 0 {
		selected = cfg.Accounts[0].Email
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default account").
				Options(accountOptions(cfg)...).
				Value(&selected),
		),
	).WithProgramOptions(tea.WithAltScreen())

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "Unchanged.", nil
		}
		return "", err
	}

	cfg.Current = selected
	if err := config.Save(cfg); err != nil {
		return fmt.Sprintf("Save failed: %v", err), nil
	}
	return "Default is now " + selected, nil
}

func accountOptions(cfg *config.Config) []huh.Option[string] {
	options := make([]huh.Option[string], 0, len(cfg.Accounts))
	for _, account := range cfg.Accounts {
		options = append(options, huh.NewOption(account.DisplayName(), account.Email))
	}
	return options
}

func formatAccountsNote(cfg *config.Config) string {
	if len(cfg.Accounts) == 0 {
		return "No accounts configured."
	}

	lines := make([]string, 0, len(cfg.Accounts))
	for _, account := range cfg.Accounts {
		line := "- " + account.DisplayName()
		if strings.EqualFold(account.Email, cfg.Current) {
			line += " (default)"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// RemoveAccount drops email from cfg, saves it and optionally deletes the
// stored password.
func RemoveAccount(cfg *config.Config, store credential.Store, email string, removePassword bool) error {
	if !cfg.RemoveAccount(email) {
		return fmt.Errorf("account %q is not configured", email)
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	if removePassword && store != nil {
		if err := store.Delete(email); err != nil && !errors.Is(err, credential.ErrNotFound) {
			return err
		}
	}
	return nil
}
