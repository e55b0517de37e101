// Package backup implements the versioned encrypted backup bundle.
//
// A bundle is a JSON document carrying the entry list encrypted with
// AES-256-GCM under a key derived from the owner's password and stored salt.
// Import re-derives that key from the bundle's own salt, decrypts, and
// re-encrypts every entry under the importing vault's current key with fresh
// nonces, so bundles migrate cleanly across accounts and password changes.
package backup

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/keyhaven/keyhaven/pkg/crypto"
	"github.com/keyhaven/keyhaven/pkg/vault"
)

// FormatVersion is the bundle format version this package writes.
const FormatVersion = "1.0"

// Sentinel errors returned by backup operations.
var (
	// ErrInvalidBundle indicates a bundle that does not parse or is missing fields.
	ErrInvalidBundle = errors.New("backup: invalid bundle format")

	// ErrUnsupportedVersion indicates a bundle written by an unknown format version.
	ErrUnsupportedVersion = errors.New("backup: unsupported bundle version")
)

// Bundle is the on-disk backup document.
type Bundle struct {
	Version       string `json:"version"`
	Timestamp     string `json:"timestamp"`
	Username      string `json:"username"`
	Salt          string `json:"salt"`
	EncryptedData string `json:"encrypted_data"`
	Nonce         string `json:"nonce"`
}

// Export decrypts the user's entries and seals them into a bundle under the
// supplied session key. Accepting the key rather than a password keeps export
// available to sessions recovered through the OTP path, which never learn the
// master password. A duress key cannot open any entry, so no bundle of decoys
// can ever be produced.
func Export(v *vault.Service, username, keyB64 string) (string, error) {
	userID, err := v.UserID(username)
	if err != nil {
		return "", err
	}
	salt, err := v.UserSalt(username)
	if err != nil {
		return "", err
	}

	key, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil || len(key) != crypto.KeyLength {
		return "", vault.ErrInvalidKey
	}
	defer crypto.SecureWipe(key)

	entries, err := v.DecryptedEntries(userID, key)
	if err != nil {
		return "", err
	}

	plain := make([]vault.PlainEntry, 0, len(entries))
	for _, e := range entries {
		plain = append(plain, vault.PlainEntry{
			Service:  e.Service,
			Login:    e.Login,
			Password: e.Password,
			Note:     e.Note,
		})
	}

	payload, err := json.Marshal(plain)
	if err != nil {
		return "", fmt.Errorf("backup: failed to marshal entries: %w", err)
	}

	ciphertext, nonce, err := crypto.Encrypt(key, payload)
	if err != nil {
		return "", vault.ErrCryptoFailure
	}

	bundle := Bundle{
		Version:       FormatVersion,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Username:      username,
		Salt:          salt,
		EncryptedData: base64.StdEncoding.EncodeToString(ciphertext),
		Nonce:         base64.StdEncoding.EncodeToString(nonce),
	}

	out, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return "", fmt.Errorf("backup: failed to marshal bundle: %w", err)
	}

	_ = v.RecordActivity(userID, vault.ActionVaultExported,
		fmt.Sprintf("exported %d entries", len(plain)))

	return string(out), nil
}

// Import decrypts a bundle with the backup password and inserts its entries
// re-encrypted under the importing account's current key. With merge set,
// entries whose (service, login) pair already exists are skipped. Returns
// the number of entries inserted.
//
// A wrong backup password surfaces as a crypto failure with zero inserts;
// the vault is untouched.
func Import(v *vault.Service, username, currentPassword, backupPassword, bundleJSON string, merge bool) (int, error) {
	var bundle Bundle
	if err := json.Unmarshal([]byte(bundleJSON), &bundle); err != nil {
		return 0, ErrInvalidBundle
	}
	if bundle.Salt == "" || bundle.EncryptedData == "" || bundle.Nonce == "" {
		return 0, ErrInvalidBundle
	}
	if bundle.Version != FormatVersion {
		return 0, ErrUnsupportedVersion
	}

	ok, err := v.VerifyUserPassword(username, currentPassword)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, vault.ErrInvalidPassword
	}

	userID, err := v.UserID(username)
	if err != nil {
		return 0, err
	}
	currentSalt, err := v.UserSalt(username)
	if err != nil {
		return 0, err
	}

	ciphertext, err := base64.StdEncoding.DecodeString(bundle.EncryptedData)
	if err != nil {
		return 0, ErrInvalidBundle
	}
	nonce, err := base64.StdEncoding.DecodeString(bundle.Nonce)
	if err != nil {
		return 0, ErrInvalidBundle
	}

	backupKey := crypto.DeriveKey([]byte(backupPassword), []byte(bundle.Salt))
	defer crypto.SecureWipe(backupKey)

	payload, err := crypto.Decrypt(backupKey, ciphertext, nonce)
	if err != nil {
		return 0, vault.ErrCryptoFailure
	}
	defer crypto.SecureWipe(payload)

	var entries []vault.PlainEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return 0, ErrInvalidBundle
	}

	currentKey := crypto.DeriveKey([]byte(currentPassword), []byte(currentSalt))
	defer crypto.SecureWipe(currentKey)

	inserted, err := v.ImportPlainEntries(userID, currentKey, entries, merge)
	if err != nil {
		return 0, err
	}

	_ = v.RecordActivity(userID, vault.ActionVaultImported,
		fmt.Sprintf("imported %d entries (merge=%t)", inserted, merge))

	return inserted, nil
}
