package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.withmatt.com/crmmail/internal/config"
	"go.withmatt.com/crmmail/internal/mail"
)

func TestParseUID(t *testing.T) {
	uid, err := parseUID("42")
	require.NoError(t, err)
	assert.Equal(t, uint32(42), uid)

	for _, bad := range []string{"", "0", "-1", "abc", "4294967296"} {
		_, err := parseUID(bad)
		assert.Error(t, err, bad)
	}
}

func TestFolderFlag(t *testing.T) {
	folder, err := folderFlag("")
	require.NoError(t, err)
	assert.Equal(t, mail.FolderInbox, folder)

	folder, err = folderFlag(" Sent ")
	require.NoError(t, err)
	assert.Equal(t, mail.FolderSent, folder)

	_, err = folderFlag("archive")
	assert.Error(t, err)
}

func TestSelectAccount(t *testing.T) {
	cfg := &config.Config{
		Accounts: []mail.Account{
			{Email: "listings@x.com"},
			{Email: "rentals@x.com"},
		},
		Current: "rentals@x.com",
	}

	t.Cleanup(func() { accountFlag = "" })

	acct, err := selectAccount(cfg)
	require.NoError(t, err)
	assert.Equal(t, "rentals@x.com", acct.Email)

	accountFlag = "listings@x.com"
	acct, err = selectAccount(cfg)
	require.NoError(t, err)
	assert.Equal(t, "listings@x.com", acct.Email)

	accountFlag = "nobody@x.com"
	_, err = selectAccount(cfg)
	assert.ErrorContains(t, err, "not configured")
}

func TestWriteMessageList(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	messages := []mail.Message{
		{UID: 7, From: "buyer@x.com", FromName: "Pat Buyer", Subject: "Offer on Elm St", Date: now.Add(-2 * time.Hour), Unread: true, Starred: true},
		{UID: 9, From: "inspector@x.com", Date: now.Add(-30 * time.Minute), HasAttachments: true},
	}

	var buf bytes.Buffer
	writeMessageList(&buf, messages, now)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	assert.Contains(t, lines[0], "•★")
	assert.Contains(t, lines[0], "Pat Buyer")
	assert.Contains(t, lines[0], "2h ago")
	assert.True(t, strings.HasSuffix(lines[0], "Offer on Elm St"))

	assert.Contains(t, lines[1], "@")
	assert.Contains(t, lines[1], "30m ago")
	assert.True(t, strings.HasSuffix(lines[1], "(no subject)"))
}
