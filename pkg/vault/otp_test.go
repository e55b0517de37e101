package vault

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyhaven/keyhaven/pkg/totp"
)

// currentCode computes the code an authenticator app would show right now.
func currentCode(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.CodeAt(secret, time.Now())
	require.NoError(t, err)
	return code
}

func TestGenerateOTPSecretIdempotent(t *testing.T) {
	s := newTestService(t)

	_, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)

	first, err := s.GenerateOTPSecret("alice")
	require.NoError(t, err)
	assert.NotEmpty(t, first.Secret)
	assert.Contains(t, first.URL, "otpauth://totp/")
	assert.Contains(t, first.URL, first.Secret)

	second, err := s.GenerateOTPSecret("alice")
	require.NoError(t, err)
	assert.Equal(t, first.Secret, second.Secret)
	assert.Equal(t, first.URL, second.URL)

	has, err := s.HasOTPSecret("alice")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestGenerateOTPSecretUnknownUser(t *testing.T) {
	s := newTestService(t)

	_, err := s.GenerateOTPSecret("nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestVerifyOTP(t *testing.T) {
	s := newTestService(t)

	_, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)

	_, err = s.VerifyOTP("alice", "123456")
	assert.ErrorIs(t, err, ErrNoOTPSecret)

	setup, err := s.GenerateOTPSecret("alice")
	require.NoError(t, err)

	ok, err := s.VerifyOTP("alice", currentCode(t, setup.Secret))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.VerifyOTP("alice", "000000")
	require.NoError(t, err)
	if ok {
		// One-in-a-million collision with the real code; regenerate and retry.
		t.Skip("generated code happened to be 000000")
	}
}

func TestSetupOTPRecovery(t *testing.T) {
	s := newTestService(t)

	_, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)

	// Recovery requires a secret first.
	err = s.SetupOTPRecovery("alice", "correct horse")
	assert.ErrorIs(t, err, ErrNoOTPSecret)

	setup, err := s.GenerateOTPSecret("alice")
	require.NoError(t, err)

	// And the real master password.
	err = s.SetupOTPRecovery("alice", "wrong horse")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	has, err := s.HasOTPRecovery("alice")
	require.NoError(t, err)
	assert.False(t, has)

	require.NoError(t, s.SetupOTPRecovery("alice", "correct horse"))

	has, err = s.HasOTPRecovery("alice")
	require.NoError(t, err)
	assert.True(t, has)

	// The recovered key must match the password-derived key exactly.
	real, err := s.Login("alice", "correct horse")
	require.NoError(t, err)

	recovered, err := s.LoginWithOTP("alice", currentCode(t, setup.Secret))
	require.NoError(t, err)
	assert.Equal(t, real.Key, recovered.Key)
	assert.False(t, recovered.IsDuress)
}

func TestSetupOTPRecoveryRejectsDuressPassword(t *testing.T) {
	s := newTestService(t)

	id, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)
	_, err = s.GenerateOTPSecret("alice")
	require.NoError(t, err)
	_, err = s.AddDuressCredential(id, "Decoy9!")
	require.NoError(t, err)

	err = s.SetupOTPRecovery("alice", "Decoy9!")
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestLoginWithOTPWrongCode(t *testing.T) {
	s := newTestService(t)

	_, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)
	_, err = s.GenerateOTPSecret("alice")
	require.NoError(t, err)
	require.NoError(t, s.SetupOTPRecovery("alice", "correct horse"))

	_, err = s.LoginWithOTP("alice", "not-a-code")
	assert.ErrorIs(t, err, ErrInvalidOTPCode)
}

func TestLoginWithOTPWithoutRecovery(t *testing.T) {
	s := newTestService(t)

	_, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)

	setup, err := s.GenerateOTPSecret("alice")
	require.NoError(t, err)

	// Valid code, but no envelope was ever sealed.
	_, err = s.LoginWithOTP("alice", currentCode(t, setup.Secret))
	assert.ErrorIs(t, err, ErrRecoveryUnavailable)
}

func TestResetOTPSecretInvalidatesRecovery(t *testing.T) {
	s := newTestService(t)

	_, err := s.CreateUser("alice", "correct horse")
	require.NoError(t, err)

	old, err := s.GenerateOTPSecret("alice")
	require.NoError(t, err)
	require.NoError(t, s.SetupOTPRecovery("alice", "correct horse"))

	fresh, err := s.ResetOTPSecret("alice")
	require.NoError(t, err)
	assert.NotEqual(t, old.Secret, fresh.Secret)

	// Envelope is gone atomically with the secret swap.
	has, err := s.HasOTPRecovery("alice")
	require.NoError(t, err)
	assert.False(t, has)

	_, err = s.LoginWithOTP("alice", currentCode(t, fresh.Secret))
	assert.ErrorIs(t, err, ErrRecoveryUnavailable)

	// Old codes no longer verify.
	ok, err := s.VerifyOTP("alice", currentCode(t, old.Secret))
	require.NoError(t, err)
	assert.False(t, ok)

	// Recovery can be re-established on the fresh secret.
	require.NoError(t, s.SetupOTPRecovery("alice", "correct horse"))
	sess, err := s.LoginWithOTP("alice", currentCode(t, fresh.Secret))
	require.NoError(t, err)
	assert.False(t, sess.IsDuress)
}
