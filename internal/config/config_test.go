package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.withmatt.com/crmmail/internal/mail"
)

func TestLoadFileMissingReturnsEmpty(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Accounts)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crmmail", "config.toml")
	cfg := &Config{
		Accounts: []mail.Account{{
			Name:              "Office",
			Email:             "agent@realty.example",
			IMAPHost:          "imap.realty.example",
			IMAPPort:          993,
			SMTPHost:          "smtp.realty.example",
			SMTPPort:          465,
			EncryptedPassword: "never-written",
		}},
		Current: "agent@realty.example",
		Gateway: GatewayConfig{URL: "https://gw.example", APIKey: "k"},
	}
	require.NoError(t, SaveFile(path, cfg))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, loaded.Accounts, 1)
	assert.Equal(t, 993, loaded.Accounts[0].IMAPPort)
	assert.Empty(t, loaded.Accounts[0].EncryptedPassword)
	assert.Equal(t, "https://gw.example", loaded.Gateway.URL)
}

func TestWithDefaults(t *testing.T) {
	t.Setenv(apiKeyEnv, "")
	cfg := Config{}.WithDefaults()
	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout())
	assert.Equal(t, 3, cfg.Gateway.Retries)
	assert.Equal(t, 60*time.Second, cfg.Cache.TTL())
	assert.Equal(t, 120*time.Second, cfg.Cache.SweepInterval())
	assert.Equal(t, 30, cfg.UI.PageSize)
	assert.Equal(t, 3*time.Second, cfg.UI.MarkReadDelay())
	assert.Equal(t, 500*time.Millisecond, cfg.Compose.SendInterval())
	assert.Equal(t, int64(25<<20), cfg.Compose.MaxAttachmentBytes())
}

func TestNegativeRetriesDisablesRetry(t *testing.T) {
	t.Setenv(apiKeyEnv, "")
	g := GatewayConfig{Retries: -1}.WithDefaults()
	assert.Equal(t, 0, g.Retries)
}

func TestAPIKeyFromEnv(t *testing.T) {
	t.Setenv(apiKeyEnv, "from-env")
	g := GatewayConfig{APIKey: "from-file"}.WithDefaults()
	assert.Equal(t, "from-env", g.APIKey)
}

func TestCurrentAccount(t *testing.T) {
	cfg := &Config{}
	_, err := cfg.CurrentAccount()
	require.Error(t, err)

	cfg.Accounts = []mail.Account{{Email: "a@x.com"}, {Email: "b@x.com"}}
	acct, err := cfg.CurrentAccount()
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", acct.Email)

	cfg.Current = "B@X.com"
	acct, err = cfg.CurrentAccount()
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", acct.Email)

	assert.True(t, cfg.RemoveAccount("b@x.com"))
	assert.Empty(t, cfg.Current)
	assert.False(t, cfg.RemoveAccount("b@x.com"))
}

func TestResolveThemeFillsFromPalette(t *testing.T) {
	theme, err := ResolveTheme(Theme{
		List:  ThemeList{UnreadFg: "bright_red"},
		Modal: ThemeModal{FooterFg: "#123456"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, theme.Status.Bg)
	assert.NotEmpty(t, theme.Status.ModeBg)
	assert.NotEqual(t, "bright_red", theme.List.UnreadFg)
	assert.Equal(t, "#123456", theme.Modal.FooterFg)

	_, err = ResolveTheme(Theme{Name: "definitely-not-a-theme"})
	assert.Error(t, err)
}
