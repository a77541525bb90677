package addressbook

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.withmatt.com/crmmail/internal/compose"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "contacts.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAddAndGet(t *testing.T) {
	s := openTestStore(t)

	c, err := s.Add(Contact{Name: " Dana Lead ", Email: "dana@buyers.example", Phone: "555-0100"})
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Equal(t, "Dana Lead", c.Name)
	assert.False(t, c.CreatedAt.IsZero())

	got, err := s.Get("DANA@buyers.example")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, "555-0100", got.Phone)

	_, err = s.Get("nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddUpdatesExisting(t *testing.T) {
	s := openTestStore(t)

	first, err := s.Add(Contact{Name: "Dana", Email: "dana@buyers.example"})
	require.NoError(t, err)
	second, err := s.Add(Contact{Name: "Dana Lead", Email: "Dana@Buyers.example", Notes: "pre-approved"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Dana Lead", second.Name)
	assert.Equal(t, "pre-approved", second.Notes)

	all, err := s.List()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAddRejectsBadAddress(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Add(Contact{Name: "Nope", Email: "not-an-email"})
	var verr *compose.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)
}

func TestListAndSearch(t *testing.T) {
	s := openTestStore(t)
	for _, c := range []Contact{
		{Name: "zed", Email: "zed@title.example"},
		{Name: "Amy Escrow", Email: "amy@title.example"},
		{Name: "Bob", Email: "bob_100%@lender.example"},
	} {
		_, err := s.Add(c)
		require.NoError(t, err)
	}

	all, err := s.List()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Amy Escrow", "Bob", "zed"}, []string{all[0].Name, all[1].Name, all[2].Name})

	found, err := s.Search("TITLE", 0)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = s.Search("title", 1)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Amy Escrow", found[0].Name)

	found, err = s.Search("_100%", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Bob", found[0].Name)

	found, err = s.Search("0%", 10)
	require.NoError(t, err)
	assert.Len(t, found, 1, "wildcards are literal")

	found, err = s.Search("", 2)
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestRemove(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Add(Contact{Name: "Amy", Email: "amy@title.example"})
	require.NoError(t, err)

	require.NoError(t, s.Remove("AMY@title.example"))
	assert.ErrorIs(t, s.Remove("amy@title.example"), ErrNotFound)

	all, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestContactRecipient(t *testing.T) {
	var r compose.Recipients
	c := Contact{Name: "Amy", Email: "amy@title.example"}
	require.NoError(t, r.AddContact(c.Recipient()))
	assert.Equal(t, []string{"amy@title.example"}, r.Addresses())
	assert.Equal(t, "Amy <amy@title.example>", c.Recipient().String())
}
