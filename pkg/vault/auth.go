package vault

import (
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/keyhaven/keyhaven/pkg/crypto"
)

// Session is the result of a successful authentication.
//
// Key is the base64-encoded 32-byte vault key. It is always derived from the
// supplied password and the account's real salt, so a duress session carries
// a key that cannot open any stored ciphertext.
type Session struct {
	UserID   int64
	Username string
	Key      string
	IsDuress bool
}

// Login authenticates a user against the master hash, then against each
// duress credential in creation order. The first credential that verifies
// wins. Neither branch reveals to the caller which path matched beyond the
// IsDuress flag.
func (s *Service) Login(username, password string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if password == "" {
		return nil, ErrEmptyPassword
	}

	u, err := s.userByName(username)
	if err != nil {
		return nil, err
	}

	if crypto.VerifyPassword(password, u.Hash) {
		s.recordActivity(u.ID, ActionLogin, "successful login")
		s.log.Info("login", zap.String("username", username))
		return newSession(u, username, password, false), nil
	}

	duress, err := s.matchesDuressCredential(u.ID, password)
	if err != nil {
		return nil, err
	}
	if duress {
		// Recorded with the distinct action type so the real owner can see
		// duress access afterwards; a casual log reader sees a login row.
		s.recordActivity(u.ID, ActionDuressLogin, "successful login")
		s.log.Info("login", zap.String("username", username))
		return newSession(u, username, password, true), nil
	}

	s.recordActivity(u.ID, ActionLoginFailed, "failed login attempt")
	s.log.Info("login failed", zap.String("username", username))

	return nil, ErrInvalidPassword
}

// newSession derives the session key from the supplied password over the
// account's stored salt text. For a duress password this produces a key that
// fails to open the real ciphertexts, which is what the duress path relies on.
func newSession(u *userRow, username, password string, duress bool) *Session {
	key := crypto.DeriveKey([]byte(password), []byte(u.Salt))
	return &Session{
		UserID:   u.ID,
		Username: username,
		Key:      encodeKey(key),
		IsDuress: duress,
	}
}

// matchesDuressCredential checks the password against every duress hash in
// creation order.
func (s *Service) matchesDuressCredential(userID int64, password string) (bool, error) {
	rows, err := s.db.Query(
		"SELECT hash FROM duress_credentials WHERE user_id = ? ORDER BY id", userID,
	)
	if err != nil {
		return false, fmt.Errorf("vault: failed to query duress credentials: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return false, fmt.Errorf("vault: failed to scan row: %w", err)
		}
		if crypto.VerifyPassword(password, hash) {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("vault: error iterating rows: %w", err)
	}

	return false, nil
}

// LoginWithOTP authenticates with a TOTP code and recovers the vault key
// from the recovery envelope. The resulting session is never a duress one.
func (s *Service) LoginWithOTP(username, code string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		userID        int64
		secret        string
		recoveryKey   []byte
		recoveryNonce []byte
		recoverySalt  []byte
	)
	err := s.db.QueryRow(
		`SELECT id, otp_secret, otp_recovery_key, otp_recovery_nonce, otp_recovery_salt
		 FROM users WHERE username = ?`, username,
	).Scan(&userID, &secret, &recoveryKey, &recoveryNonce, &recoverySalt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("vault: failed to read user: %w", err)
	}

	if secret == "" {
		return nil, ErrNoOTPSecret
	}
	if !s.validateOTP(code, secret) {
		return nil, ErrInvalidOTPCode
	}
	if len(recoveryKey) == 0 || len(recoveryNonce) == 0 || len(recoverySalt) == 0 {
		return nil, ErrRecoveryUnavailable
	}

	wrapKey := crypto.DeriveKey([]byte(secret), recoverySalt)
	vaultKey, err := crypto.Decrypt(wrapKey, recoveryKey, recoveryNonce)
	if err != nil {
		if errors.Is(err, crypto.ErrDecryptionFailed) {
			return nil, ErrRecoveryCorrupted
		}
		return nil, ErrCryptoFailure
	}

	s.recordActivity(userID, ActionLogin, "otp recovery login")
	s.log.Info("otp recovery login", zap.String("username", username))

	return &Session{
		UserID:   userID,
		Username: username,
		Key:      encodeKey(vaultKey),
		IsDuress: false,
	}, nil
}
