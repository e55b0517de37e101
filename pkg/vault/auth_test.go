package vault

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	s := newTestService(t)

	id, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)

	sess, err := s.Login("alice", "correct horse")
	require.NoError(t, err)

	assert.Equal(t, id, sess.UserID)
	assert.Equal(t, "alice", sess.Username)
	assert.False(t, sess.IsDuress)

	key, err := base64.StdEncoding.DecodeString(sess.Key)
	require.NoError(t, err)
	assert.Len(t, key, 32)
}

func TestLoginFailures(t *testing.T) {
	s := newTestService(t)

	_, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)

	_, err = s.Login("alice", "")
	assert.ErrorIs(t, err, ErrEmptyPassword)

	_, err = s.Login("nobody", "pw")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = s.Login("alice", "wrong horse")
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestLoginRecordsFailedAttempt(t *testing.T) {
	s := newTestService(t)

	id, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)

	_, err = s.Login("alice", "wrong horse")
	require.ErrorIs(t, err, ErrInvalidPassword)

	logs, err := s.ActivityLogs(id, -1)
	require.NoError(t, err)

	var failed int
	for _, l := range logs {
		if l.ActionType == ActionLoginFailed {
			failed++
		}
	}
	assert.Equal(t, 1, failed)
}

func TestDuressLogin(t *testing.T) {
	s := newTestService(t)

	id, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)

	_, err = s.AddDuressCredential(id, "Decoy9!")
	require.NoError(t, err)

	real, err := s.Login("alice", "correct horse")
	require.NoError(t, err)
	assert.False(t, real.IsDuress)

	duress, err := s.Login("alice", "Decoy9!")
	require.NoError(t, err)
	assert.True(t, duress.IsDuress)
	assert.Equal(t, id, duress.UserID)

	// Both keys come off the same salt, so they differ iff the passwords do.
	assert.NotEqual(t, real.Key, duress.Key)
}

func TestDuressLoginFirstMatchWins(t *testing.T) {
	s := newTestService(t)

	id, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)

	_, err = s.AddDuressCredential(id, "first-duress")
	require.NoError(t, err)
	_, err = s.AddDuressCredential(id, "second-duress")
	require.NoError(t, err)

	sess, err := s.Login("alice", "second-duress")
	require.NoError(t, err)
	assert.True(t, sess.IsDuress)
}

// The full duress scenario: a real entry exists, the coerced login yields a
// key that cannot open it, and the entry list degrades to decoys.
func TestDuressScenario(t *testing.T) {
	s := newTestService(t)

	id, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)

	real, err := s.Login("alice", "correct horse")
	require.NoError(t, err)

	entryID, err := s.AddEntry(id, real.Key, "GitHub", "alice", "hunter2", "work account")
	require.NoError(t, err)
	assert.Positive(t, entryID)

	_, err = s.AddDuressCredential(id, "Decoy9!")
	require.NoError(t, err)

	// Real session sees the real entry.
	entries, err := s.Entries(id, real.Key)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "GitHub", entries[0].Service)
	assert.Equal(t, "hunter2", entries[0].Password)
	assert.Equal(t, "work account", entries[0].Note)

	// Coerced session gets a working login and a decoy list.
	duress, err := s.Login("alice", "Decoy9!")
	require.NoError(t, err)

	fakes, err := s.Entries(id, duress.Key)
	require.NoError(t, err)
	require.NotEmpty(t, fakes)

	for _, e := range fakes {
		assert.Negative(t, e.ID)
		assert.NotEqual(t, "hunter2", e.Password)
	}
}

func TestLoginWithOTPErrors(t *testing.T) {
	s := newTestService(t)

	_, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)

	_, err = s.LoginWithOTP("nobody", "123456")
	assert.ErrorIs(t, err, ErrUserNotFound)

	// No secret configured yet.
	_, err = s.LoginWithOTP("alice", "123456")
	assert.ErrorIs(t, err, ErrNoOTPSecret)
}
