package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession() Session {
	return Session{
		Token: "eyJhbGciOiJIUzI1NiJ9.opaque.token",
		User: User{
			ID:         "u1",
			Name:       "Budi",
			Role:       "admin",
			Department: "pekerjaan_umum",
			AccessRole: "admin",
		},
	}
}

func TestMemoryStore_Roundtrip(t *testing.T) {
	store := NewMemoryStore()

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(testSession()))

	got, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testSession(), got)

	require.NoError(t, store.Clear())

	got, ok, err = store.Load()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, got.Token)
	assert.Empty(t, got.User.ID)
}

func TestBadgerStore_Roundtrip(t *testing.T) {
	store, err := OpenBadger(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(testSession()))

	got, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testSession(), got)

	require.NoError(t, store.Clear())

	_, ok, err = store.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBadgerStore_ClearTwice(t *testing.T) {
	store, err := OpenBadger(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(testSession()))
	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
}

func TestBadgerStore_OverwriteReplacesBothKeys(t *testing.T) {
	store, err := OpenBadger(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(testSession()))

	next := Session{Token: "tok2", User: User{ID: "u2", Name: "Sari", Role: "citizen"}}
	require.NoError(t, store.Save(next))

	got, ok, err := store.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok2", got.Token)
	assert.Equal(t, "u2", got.User.ID)
	assert.Empty(t, got.User.Department)
}
