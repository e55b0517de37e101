package backup

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/keyhaven/keyhaven/pkg/totp"
	"github.com/keyhaven/keyhaven/pkg/vault"
)

func newTestVault(t *testing.T) *vault.Service {
	t.Helper()
	v, err := vault.Open(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = v.Close() })
	return v
}

func seedUser(t *testing.T, v *vault.Service, username, password string) (int64, *vault.Session) {
	t.Helper()
	id, err := v.CreateUser(username, password)
	require.NoError(t, err)
	sess, err := v.Login(username, password)
	require.NoError(t, err)
	return id, sess
}

func TestExportImportRoundTrip(t *testing.T) {
	v := newTestVault(t)

	aliceID, alice := seedUser(t, v, "alice", "correct horse")
	_, err := v.AddEntry(aliceID, alice.Key, "GitHub", "alice", "hunter2", "work")
	require.NoError(t, err)
	_, err = v.AddEntry(aliceID, alice.Key, "Mail", "alice@example.com", "mailpw", "")
	require.NoError(t, err)

	bundleJSON, err := Export(v, "alice", alice.Key)
	require.NoError(t, err)

	var bundle Bundle
	require.NoError(t, json.Unmarshal([]byte(bundleJSON), &bundle))
	assert.Equal(t, FormatVersion, bundle.Version)
	assert.Equal(t, "alice", bundle.Username)
	assert.NotEmpty(t, bundle.Salt)
	assert.NotEmpty(t, bundle.Nonce)
	assert.NotContains(t, bundleJSON, "hunter2")

	// Restore into a different account with a different password.
	bobID, bob := seedUser(t, v, "bob", "another pass")

	n, err := Import(v, "bob", "another pass", "correct horse", bundleJSON, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries, err := v.Entries(bobID, bob.Key)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byService := map[string]string{}
	for _, e := range entries {
		byService[e.Service] = e.Password
	}
	assert.Equal(t, "hunter2", byService["GitHub"])
	assert.Equal(t, "mailpw", byService["Mail"])
}

func TestImportWrongBackupPassword(t *testing.T) {
	v := newTestVault(t)

	aliceID, alice := seedUser(t, v, "alice", "correct horse")
	_, err := v.AddEntry(aliceID, alice.Key, "GitHub", "alice", "hunter2", "")
	require.NoError(t, err)

	bundleJSON, err := Export(v, "alice", alice.Key)
	require.NoError(t, err)

	bobID, bob := seedUser(t, v, "bob", "another pass")

	n, err := Import(v, "bob", "another pass", "wrong backup pw", bundleJSON, false)
	assert.ErrorIs(t, err, vault.ErrCryptoFailure)
	assert.Zero(t, n)

	// Nothing was written.
	entries, err := v.Entries(bobID, bob.Key)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestImportWrongCurrentPassword(t *testing.T) {
	v := newTestVault(t)

	_, alice := seedUser(t, v, "alice", "correct horse")
	bundleJSON, err := Export(v, "alice", alice.Key)
	require.NoError(t, err)

	seedUser(t, v, "bob", "another pass")

	_, err = Import(v, "bob", "not bobs pass", "correct horse", bundleJSON, false)
	assert.ErrorIs(t, err, vault.ErrInvalidPassword)
}

func TestImportMergeSkipsDuplicates(t *testing.T) {
	v := newTestVault(t)

	aliceID, alice := seedUser(t, v, "alice", "correct horse")
	_, err := v.AddEntry(aliceID, alice.Key, "GitHub", "alice", "hunter2", "")
	require.NoError(t, err)
	_, err = v.AddEntry(aliceID, alice.Key, "Mail", "alice@example.com", "mailpw", "")
	require.NoError(t, err)

	bundleJSON, err := Export(v, "alice", alice.Key)
	require.NoError(t, err)

	bobID, bob := seedUser(t, v, "bob", "another pass")
	_, err = v.AddEntry(bobID, bob.Key, "GitHub", "alice", "bobs-own", "")
	require.NoError(t, err)

	n, err := Import(v, "bob", "another pass", "correct horse", bundleJSON, true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err := v.Entries(bobID, bob.Key)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// The colliding pair kept bob's own password.
	for _, e := range entries {
		if e.Service == "GitHub" {
			assert.Equal(t, "bobs-own", e.Password)
		}
	}
}

func TestImportSameAccount(t *testing.T) {
	v := newTestVault(t)

	aliceID, alice := seedUser(t, v, "alice", "correct horse")
	_, err := v.AddEntry(aliceID, alice.Key, "GitHub", "alice", "hunter2", "")
	require.NoError(t, err)

	bundleJSON, err := Export(v, "alice", alice.Key)
	require.NoError(t, err)

	// Merge into the same vault is a no-op.
	n, err := Import(v, "alice", "correct horse", "correct horse", bundleJSON, true)
	require.NoError(t, err)
	assert.Zero(t, n)

	entries, err := v.Entries(aliceID, alice.Key)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestImportRejectsMalformedBundles(t *testing.T) {
	v := newTestVault(t)
	seedUser(t, v, "alice", "correct horse")

	cases := map[string]string{
		"not json":        "not json at all",
		"empty object":    "{}",
		"missing salt":    `{"version":"1.0","encrypted_data":"AAAA","nonce":"AAAA"}`,
		"missing nonce":   `{"version":"1.0","salt":"c2FsdA==","encrypted_data":"AAAA"}`,
		"bad data base64": `{"version":"1.0","salt":"c2FsdA==","encrypted_data":"!!!","nonce":"AAAA"}`,
	}

	for name, bundleJSON := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Import(v, "alice", "correct horse", "pw", bundleJSON, false)
			assert.ErrorIs(t, err, ErrInvalidBundle)
		})
	}
}

func TestImportRejectsUnsupportedVersion(t *testing.T) {
	v := newTestVault(t)
	seedUser(t, v, "alice", "correct horse")

	bundleJSON := `{"version":"2.0","salt":"c2FsdA==","encrypted_data":"AAAA","nonce":"AAAA"}`
	_, err := Import(v, "alice", "correct horse", "pw", bundleJSON, false)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestImportReplacesExistingEntries(t *testing.T) {
	v := newTestVault(t)

	aliceID, alice := seedUser(t, v, "alice", "correct horse")
	_, err := v.AddEntry(aliceID, alice.Key, "GitHub", "alice", "hunter2", "")
	require.NoError(t, err)

	bundleJSON, err := Export(v, "alice", alice.Key)
	require.NoError(t, err)

	bobID, bob := seedUser(t, v, "bob", "another pass")
	_, err = v.AddEntry(bobID, bob.Key, "Old", "bob", "oldpw", "")
	require.NoError(t, err)

	// Without merge the bundle replaces bob's vault wholesale.
	n, err := Import(v, "bob", "another pass", "correct horse", bundleJSON, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err := v.Entries(bobID, bob.Key)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "GitHub", entries[0].Service)
	assert.Equal(t, "hunter2", entries[0].Password)
}

func TestExportWithRecoveredSessionKey(t *testing.T) {
	v := newTestVault(t)

	aliceID, alice := seedUser(t, v, "alice", "correct horse")
	_, err := v.AddEntry(aliceID, alice.Key, "GitHub", "alice", "hunter2", "")
	require.NoError(t, err)

	setup, err := v.GenerateOTPSecret("alice")
	require.NoError(t, err)
	require.NoError(t, v.SetupOTPRecovery("alice", "correct horse"))

	code, err := totp.CodeAt(setup.Secret, time.Now())
	require.NoError(t, err)
	sess, err := v.LoginWithOTP("alice", code)
	require.NoError(t, err)

	// A recovered session holds only the key, never the password, and
	// can still export.
	bundleJSON, err := Export(v, "alice", sess.Key)
	require.NoError(t, err)

	bobID, bob := seedUser(t, v, "bob", "another pass")
	n, err := Import(v, "bob", "another pass", "correct horse", bundleJSON, false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err := v.Entries(bobID, bob.Key)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hunter2", entries[0].Password)
}

func TestExportFailsUnderDuressKey(t *testing.T) {
	v := newTestVault(t)

	aliceID, alice := seedUser(t, v, "alice", "correct horse")
	_, err := v.AddEntry(aliceID, alice.Key, "GitHub", "alice", "hunter2", "")
	require.NoError(t, err)
	_, err = v.AddDuressCredential(aliceID, "Decoy9!")
	require.NoError(t, err)

	sess, err := v.Login("alice", "Decoy9!")
	require.NoError(t, err)
	require.True(t, sess.IsDuress)

	// The duress key opens nothing, so no bundle of decoys can leak out.
	_, err = Export(v, "alice", sess.Key)
	assert.ErrorIs(t, err, vault.ErrCryptoFailure)
}

func TestExportInvalidKey(t *testing.T) {
	v := newTestVault(t)
	seedUser(t, v, "alice", "correct horse")

	_, err := Export(v, "alice", "not-base64!")
	assert.ErrorIs(t, err, vault.ErrInvalidKey)
}

func TestExportUnknownUser(t *testing.T) {
	v := newTestVault(t)

	_, alice := seedUser(t, v, "alice", "correct horse")
	_, err := Export(v, "nobody", alice.Key)
	assert.ErrorIs(t, err, vault.ErrUserNotFound)
}
