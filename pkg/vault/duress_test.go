package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddDuressCredential(t *testing.T) {
	s := newTestService(t)

	id, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)

	credID, err := s.AddDuressCredential(id, "Decoy9!")
	require.NoError(t, err)
	assert.Positive(t, credID)

	n, err := s.CountDuressCredentials(id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestAddDuressCredentialRejectsMaster(t *testing.T) {
	s := newTestService(t)

	id, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)

	_, err = s.AddDuressCredential(id, "correct horse")
	assert.ErrorIs(t, err, ErrDuressMatchesMaster)

	n, err := s.CountDuressCredentials(id)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAddDuressCredentialValidation(t *testing.T) {
	s := newTestService(t)

	_, err := s.AddDuressCredential(42, "pw")
	assert.ErrorIs(t, err, ErrUserNotFound)

	id, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)

	_, err = s.AddDuressCredential(id, "")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestDeleteDuressCredential(t *testing.T) {
	s := newTestService(t)

	id, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)

	credID, err := s.AddDuressCredential(id, "Decoy9!")
	require.NoError(t, err)

	require.NoError(t, s.DeleteDuressCredential(id, credID))
	assert.ErrorIs(t, s.DeleteDuressCredential(id, credID), ErrDuressCredentialNotFound)

	// The deleted credential no longer opens a session.
	_, err = s.Login("alice", "Decoy9!")
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestDeleteAllDuressCredentials(t *testing.T) {
	s := newTestService(t)

	id, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)

	for _, pw := range []string{"one-decoy", "two-decoy", "three-decoy"} {
		_, err = s.AddDuressCredential(id, pw)
		require.NoError(t, err)
	}

	n, err := s.DeleteAllDuressCredentials(id)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	count, err := s.CountDuressCredentials(id)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDuressSettingsDefaults(t *testing.T) {
	s := newTestService(t)

	id, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)

	settings, err := s.DuressSettingsFor(id)
	require.NoError(t, err)

	assert.True(t, settings.Enabled)
	assert.True(t, settings.HideActivityLogs)
	assert.True(t, settings.HideFailedLoginPhotos)
	assert.True(t, settings.HideSecuritySettings)
	assert.True(t, settings.ShowFakeEntries)
	assert.True(t, settings.HideDuressCard)
}

func TestSaveDuressSettings(t *testing.T) {
	s := newTestService(t)

	id, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)

	settings := DefaultDuressSettings()
	settings.ShowFakeEntries = false
	settings.HideActivityLogs = false
	require.NoError(t, s.SaveDuressSettings(id, settings))

	got, err := s.DuressSettingsFor(id)
	require.NoError(t, err)
	assert.False(t, got.ShowFakeEntries)
	assert.False(t, got.HideActivityLogs)
	assert.True(t, got.HideSecuritySettings)

	// Upsert replaces, not duplicates.
	settings.ShowFakeEntries = true
	require.NoError(t, s.SaveDuressSettings(id, settings))

	got, err = s.DuressSettingsFor(id)
	require.NoError(t, err)
	assert.True(t, got.ShowFakeEntries)
}

func TestDuressActive(t *testing.T) {
	s := newTestService(t)

	id, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)
	_, err = s.AddDuressCredential(id, "Decoy9!")
	require.NoError(t, err)

	// No logins yet: not duress.
	active, err := s.DuressActive(id)
	require.NoError(t, err)
	assert.False(t, active)

	_, err = s.Login("alice", "Decoy9!")
	require.NoError(t, err)

	active, err = s.DuressActive(id)
	require.NoError(t, err)
	assert.True(t, active)

	// A real login flips the mode back.
	_, err = s.Login("alice", "correct horse")
	require.NoError(t, err)

	active, err = s.DuressActive(id)
	require.NoError(t, err)
	assert.False(t, active)
}
