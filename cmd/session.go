package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.withmatt.com/crmmail/internal/cache"
	"go.withmatt.com/crmmail/internal/config"
	"go.withmatt.com/crmmail/internal/credential"
	"go.withmatt.com/crmmail/internal/gateway"
	"go.withmatt.com/crmmail/internal/inbox"
	"go.withmatt.com/crmmail/internal/log"
	"go.withmatt.com/crmmail/internal/mail"
)

// session is everything a command needs to talk to the gateway as one
// account.
type session struct {
	cfg     *config.Config
	account mail.Account
	creds   *credential.Resolver
	client  *gateway.Client
	manager *inbox.Manager
}

func newSession(ctx context.Context, opts ...inbox.Option) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}
	loaded := cfg.WithDefaults()
	cfg = &loaded

	account, err := selectAccount(cfg)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Gateway.URL) == "" {
		return nil, errors.New("gateway url is not configured. Set [gateway] url in the config file")
	}

	rc := cache.New(cfg.Cache.TTL())
	go rc.Run(ctx, cfg.Cache.SweepInterval())

	logger := log.Logger()
	client := gateway.New(cfg.Gateway.URL, cfg.Gateway.APIKey,
		gateway.WithCache(rc),
		gateway.WithTimeout(cfg.Gateway.Timeout()),
		gateway.WithRetries(cfg.Gateway.Retries),
		gateway.WithClientVersion(cfg.Gateway.ClientVersion),
		gateway.WithLogger(logger),
	)
	creds := credential.NewResolver(credential.NewKeyringStore())

	managerOpts := []inbox.Option{
		inbox.WithPageSize(cfg.UI.PageSize),
		inbox.WithMarkReadDelay(cfg.UI.MarkReadDelay()),
		inbox.WithCountTimeout(cfg.UI.CountTimeout()),
		inbox.WithLogger(logger),
	}
	manager := inbox.New(client, creds, append(managerOpts, opts...)...)
	manager.SwitchAccount(account)

	return &session{
		cfg:     cfg,
		account: account,
		creds:   creds,
		client:  client,
		manager: manager,
	}, nil
}

func selectAccount(cfg *config.Config) (mail.Account, error) {
	if accountFlag == "" {
		return cfg.CurrentAccount()
	}
	acct := cfg.FindAccount(accountFlag)
	if acct == nil {
		return mail.Account{}, fmt.Errorf("account %q is not configured", accountFlag)
	}
	return *acct, nil
}

// imap resolves the account password into a read connection.
func (s *session) imap() (gateway.Connection, error) {
	password, err := s.creds.Resolve(s.account.Email)
	if err != nil {
		if credential.NeedsUpdate(err) || errors.Is(err, credential.ErrNotFound) {
			return gateway.Connection{}, fmt.Errorf("%w. Run 'crmmail accounts' to update the password", err)
		}
		return gateway.Connection{}, err
	}
	return gateway.IMAPConnection(s.account, password), nil
}

func folderFlag(value string) (mail.Folder, error) {
	if value == "" {
		return mail.FolderInbox, nil
	}
	return mail.ParseFolder(value)
}
