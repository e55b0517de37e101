package vault

import (
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/keyhaven/keyhaven/pkg/crypto"
)

// FailedLoginPhoto is a decrypted capture taken after a failed login.
type FailedLoginPhoto struct {
	ID              int64     `json:"id"`
	Photo           string    `json:"photo"`
	Timestamp       time.Time `json:"timestamp"`
	UsernameAttempt string    `json:"username_attempt"`
}

// photoKey derives the per-user photo encryption key. Photos are captured
// before any password is verified, so no password-derived key exists yet;
// the key is deterministic from the user id instead.
func photoKey(userID int64) []byte {
	h := sha256.New()
	h.Write([]byte("photo_encryption_key_v1_"))
	var id [8]byte
	binary.LittleEndian.PutUint64(id[:], uint64(userID))
	h.Write(id[:])
	return h.Sum(nil)
}

// SaveFailedLoginPhoto encrypts and stores a capture for the named account,
// honoring the account's photo setting. A disabled setting is not an error;
// the photo is simply dropped.
func (s *Service) SaveFailedLoginPhoto(username, photoB64, usernameAttempt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.userByName(username)
	if err != nil {
		return err
	}

	if !s.photoSettingLocked(u.ID) {
		return nil
	}

	photo, err := base64.StdEncoding.DecodeString(photoB64)
	if err != nil {
		return fmt.Errorf("vault: photo must be base64: %w", err)
	}

	ciphertext, nonce, err := crypto.Encrypt(photoKey(u.ID), photo)
	if err != nil {
		return ErrCryptoFailure
	}

	if _, err := s.db.Exec(
		`INSERT INTO failed_login_photos(user_id, encrypted_photo, photo_nonce, timestamp, username_attempt)
		 VALUES(?, ?, ?, ?, ?)`,
		u.ID, ciphertext, nonce, time.Now().UTC().Format(time.RFC3339), usernameAttempt,
	); err != nil {
		return fmt.Errorf("vault: failed to store photo: %w", err)
	}

	s.log.Info("failed login photo captured", zap.Int64("user_id", u.ID))

	return nil
}

// FailedLoginPhotos returns decrypted captures, newest first.
// Duress sessions see an empty list when photos are hidden.
func (s *Service) FailedLoginPhotos(userID int64) ([]FailedLoginPhoto, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.duressActiveLocked(userID) && s.duressSettingsLocked(userID).HideFailedLoginPhotos {
		return []FailedLoginPhoto{}, nil
	}

	rows, err := s.db.Query(
		`SELECT id, encrypted_photo, photo_nonce, timestamp, username_attempt
		 FROM failed_login_photos WHERE user_id = ?
		 ORDER BY timestamp DESC, id DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to query photos: %w", err)
	}
	defer rows.Close()

	key := photoKey(userID)
	photos := []FailedLoginPhoto{}
	for rows.Next() {
		var (
			p          FailedLoginPhoto
			ciphertext []byte
			nonce      []byte
			ts         string
		)
		if err := rows.Scan(&p.ID, &ciphertext, &nonce, &ts, &p.UsernameAttempt); err != nil {
			return nil, fmt.Errorf("vault: failed to scan row: %w", err)
		}

		plaintext, err := crypto.Decrypt(key, ciphertext, nonce)
		if err != nil {
			return nil, ErrCryptoFailure
		}

		p.Photo = base64.StdEncoding.EncodeToString(plaintext)
		p.Timestamp, _ = time.Parse(time.RFC3339, ts)
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vault: error iterating rows: %w", err)
	}

	return photos, nil
}

// DeleteFailedLoginPhoto removes a single capture.
func (s *Service) DeleteFailedLoginPhoto(userID, photoID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(
		"DELETE FROM failed_login_photos WHERE id = ? AND user_id = ?",
		photoID, userID,
	)
	if err != nil {
		return fmt.Errorf("vault: failed to delete photo: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("vault: failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

// UpdatePhotoSetting enables or disables photo capture on failed logins.
func (s *Service) UpdatePhotoSetting(userID int64, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO security_settings(user_id, photo_on_failed_login) VALUES(?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET photo_on_failed_login = excluded.photo_on_failed_login`,
		userID, enabled,
	)
	if err != nil {
		return fmt.Errorf("vault: failed to save security settings: %w", err)
	}
	return nil
}

// PhotoSetting reports whether photo capture is enabled for a user id.
func (s *Service) PhotoSetting(userID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.photoSettingLocked(userID), nil
}

// PhotoSettingForUsername reports the capture setting before any
// authentication has happened, which is when the caller needs it.
func (s *Service) PhotoSettingForUsername(username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.userByName(username)
	if err != nil {
		return false, err
	}
	return s.photoSettingLocked(u.ID), nil
}

// photoSettingLocked reads the capture flag without taking the lock.
// Missing row means disabled.
func (s *Service) photoSettingLocked(userID int64) bool {
	var enabled bool
	err := s.db.QueryRow(
		"SELECT photo_on_failed_login FROM security_settings WHERE user_id = ?", userID,
	).Scan(&enabled)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.log.Warn("failed to read security settings", zap.Int64("user_id", userID), zap.Error(err))
		}
		return false
	}
	return enabled
}
