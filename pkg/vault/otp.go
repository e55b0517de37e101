package vault

import (
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/keyhaven/keyhaven/pkg/crypto"
	"github.com/keyhaven/keyhaven/pkg/totp"
)

// OTPSetup is the result of generating or resetting an OTP secret.
type OTPSetup struct {
	Secret string
	URL    string
}

// validateOTP checks a code against a secret with the standard window.
func (s *Service) validateOTP(code, secret string) bool {
	return totp.Validate(code, secret)
}

// GenerateOTPSecret returns the user's OTP secret, creating one on first
// call. Repeated calls return the existing secret unchanged so a user can
// re-display the provisioning URL without breaking their authenticator.
func (s *Service) GenerateOTPSecret(username string) (*OTPSetup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var userID int64
	var secret string
	err := s.db.QueryRow(
		"SELECT id, otp_secret FROM users WHERE username = ?", username,
	).Scan(&userID, &secret)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("vault: failed to read user: %w", err)
	}

	if secret == "" {
		secret, err = totp.GenerateSecret()
		if err != nil {
			return nil, ErrCryptoFailure
		}
		if _, err := s.db.Exec(
			"UPDATE users SET otp_secret = ? WHERE id = ?", secret, userID,
		); err != nil {
			return nil, fmt.Errorf("vault: failed to store otp secret: %w", err)
		}
		s.log.Info("otp secret generated", zap.String("username", username))
	}

	return &OTPSetup{
		Secret: secret,
		URL:    totp.ProvisioningURL(secret, username),
	}, nil
}

// ResetOTPSecret replaces the OTP secret with a fresh one and clears the
// recovery envelope in the same transaction. The old envelope is useless
// under a new secret, so no intermediate state is ever observable.
func (s *Service) ResetOTPSecret(username string) (*OTPSetup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.userByName(username)
	if err != nil {
		return nil, err
	}

	secret, err := totp.GenerateSecret()
	if err != nil {
		return nil, ErrCryptoFailure
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("vault: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`UPDATE users SET otp_secret = ?,
			otp_recovery_key = NULL, otp_recovery_nonce = NULL, otp_recovery_salt = NULL
		 WHERE id = ?`,
		secret, u.ID,
	); err != nil {
		return nil, fmt.Errorf("vault: failed to reset otp secret: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("vault: failed to commit transaction: %w", err)
	}

	s.log.Info("otp secret reset", zap.String("username", username))

	return &OTPSetup{
		Secret: secret,
		URL:    totp.ProvisioningURL(secret, username),
	}, nil
}

// HasOTPSecret reports whether the user has an OTP secret configured.
func (s *Service) HasOTPSecret(username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var secret string
	err := s.db.QueryRow(
		"SELECT otp_secret FROM users WHERE username = ?", username,
	).Scan(&secret)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("vault: failed to read user: %w", err)
	}
	return secret != "", nil
}

// VerifyOTP checks a TOTP code against the user's secret.
func (s *Service) VerifyOTP(username, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var secret string
	err := s.db.QueryRow(
		"SELECT otp_secret FROM users WHERE username = ?", username,
	).Scan(&secret)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("vault: failed to read user: %w", err)
	}
	if secret == "" {
		return false, ErrNoOTPSecret
	}
	return s.validateOTP(code, secret), nil
}

// SetupOTPRecovery seals the vault key under a key derived from the OTP
// secret. Requires the master password to derive the vault key being
// sealed; a duress password cannot set up recovery because it fails
// verification here.
func (s *Service) SetupOTPRecovery(username, masterPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if masterPassword == "" {
		return ErrEmptyPassword
	}

	var (
		userID int64
		salt   string
		hash   string
		secret string
	)
	err := s.db.QueryRow(
		"SELECT id, salt, hash, otp_secret FROM users WHERE username = ?", username,
	).Scan(&userID, &salt, &hash, &secret)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("vault: failed to read user: %w", err)
	}

	if !crypto.VerifyPassword(masterPassword, hash) {
		return ErrInvalidPassword
	}
	if secret == "" {
		return ErrNoOTPSecret
	}

	vaultKey := crypto.DeriveKey([]byte(masterPassword), []byte(salt))
	defer crypto.SecureWipe(vaultKey)

	wrapSalt, err := crypto.GenerateSalt()
	if err != nil {
		return ErrCryptoFailure
	}
	wrapKey := crypto.DeriveKey([]byte(secret), wrapSalt)
	defer crypto.SecureWipe(wrapKey)

	ciphertext, nonce, err := crypto.Encrypt(wrapKey, vaultKey)
	if err != nil {
		return ErrCryptoFailure
	}

	// One UPDATE keeps the envelope columns consistent with each other.
	if _, err := s.db.Exec(
		`UPDATE users SET otp_recovery_key = ?, otp_recovery_nonce = ?, otp_recovery_salt = ?
		 WHERE id = ?`,
		ciphertext, nonce, wrapSalt, userID,
	); err != nil {
		return fmt.Errorf("vault: failed to store recovery envelope: %w", err)
	}

	s.recordActivity(userID, ActionOTPRecoverySetup, "otp recovery configured")
	s.log.Info("otp recovery configured", zap.String("username", username))

	return nil
}

// HasOTPRecovery reports whether a recovery envelope is present.
func (s *Service) HasOTPRecovery(username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var key []byte
	err := s.db.QueryRow(
		"SELECT otp_recovery_key FROM users WHERE username = ?", username,
	).Scan(&key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("vault: failed to read user: %w", err)
	}
	return len(key) > 0, nil
}
