package vault

import (
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/keyhaven/keyhaven/pkg/crypto"
)

// DuressSettings controls what a duress session is allowed to see.
// The zero value is not meaningful; use DefaultDuressSettings.
type DuressSettings struct {
	Enabled               bool `json:"enabled" yaml:"enabled"`
	HideActivityLogs      bool `json:"hide_activity_logs" yaml:"hide_activity_logs"`
	HideFailedLoginPhotos bool `json:"hide_failed_login_photos" yaml:"hide_failed_login_photos"`
	HideSecuritySettings  bool `json:"hide_security_settings" yaml:"hide_security_settings"`
	ShowFakeEntries       bool `json:"show_fake_entries" yaml:"show_fake_entries"`
	HideDuressCard        bool `json:"hide_duress_card" yaml:"hide_duress_card"`
}

// DefaultDuressSettings returns the settings applied before a user saves any:
// everything hidden, fake entries shown.
func DefaultDuressSettings() DuressSettings {
	return DuressSettings{
		Enabled:               true,
		HideActivityLogs:      true,
		HideFailedLoginPhotos: true,
		HideSecuritySettings:  true,
		ShowFakeEntries:       true,
		HideDuressCard:        true,
	}
}

// AddDuressCredential registers a password that opens a duress session.
// A password matching the master password is rejected outright; the check
// happens once here, never at login time.
func (s *Service) AddDuressCredential(userID int64, password string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if password == "" {
		return 0, ErrEmptyPassword
	}

	var masterHash string
	err := s.db.QueryRow("SELECT hash FROM users WHERE id = ?", userID).Scan(&masterHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("vault: failed to read user: %w", err)
	}
	if crypto.VerifyPassword(password, masterHash) {
		return 0, ErrDuressMatchesMaster
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return 0, ErrCryptoFailure
	}
	hash, err := crypto.HashPassword(password, salt)
	if err != nil {
		return 0, ErrCryptoFailure
	}

	res, err := s.db.Exec(
		"INSERT INTO duress_credentials(user_id, salt, hash) VALUES(?, ?, ?)",
		userID, encodeSalt(salt), hash,
	)
	if err != nil {
		return 0, fmt.Errorf("vault: failed to insert duress credential: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("vault: failed to read new credential id: %w", err)
	}

	s.recordActivity(userID, ActionDuressCredentialAdded, "duress credential added")
	s.log.Info("duress credential added", zap.Int64("user_id", userID))

	return id, nil
}

// DeleteDuressCredential removes a single duress credential.
func (s *Service) DeleteDuressCredential(userID, credentialID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(
		"DELETE FROM duress_credentials WHERE id = ? AND user_id = ?",
		credentialID, userID,
	)
	if err != nil {
		return fmt.Errorf("vault: failed to delete duress credential: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("vault: failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrDuressCredentialNotFound
	}
	return nil
}

// DeleteAllDuressCredentials removes every duress credential for a user and
// returns how many were removed.
func (s *Service) DeleteAllDuressCredentials(userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec("DELETE FROM duress_credentials WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("vault: failed to delete duress credentials: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("vault: failed to get rows affected: %w", err)
	}
	return affected, nil
}

// CountDuressCredentials returns the number of duress credentials configured.
func (s *Service) CountDuressCredentials(userID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM duress_credentials WHERE user_id = ?", userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("vault: failed to count duress credentials: %w", err)
	}
	return n, nil
}

// SaveDuressSettings upserts the duress settings for a user.
func (s *Service) SaveDuressSettings(userID int64, settings DuressSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO duress_settings
			(user_id, enabled, hide_activity_logs, hide_failed_login_photos,
			 hide_security_settings, show_fake_entries, hide_duress_card)
		 VALUES(?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			enabled = excluded.enabled,
			hide_activity_logs = excluded.hide_activity_logs,
			hide_failed_login_photos = excluded.hide_failed_login_photos,
			hide_security_settings = excluded.hide_security_settings,
			show_fake_entries = excluded.show_fake_entries,
			hide_duress_card = excluded.hide_duress_card`,
		userID, settings.Enabled, settings.HideActivityLogs, settings.HideFailedLoginPhotos,
		settings.HideSecuritySettings, settings.ShowFakeEntries, settings.HideDuressCard,
	)
	if err != nil {
		return fmt.Errorf("vault: failed to save duress settings: %w", err)
	}

	s.recordActivity(userID, ActionDuressSettingsUpdated, "duress settings updated")

	return nil
}

// DuressSettingsFor returns the saved settings, or the defaults when the
// user never saved any.
func (s *Service) DuressSettingsFor(userID int64) (DuressSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.duressSettingsLocked(userID), nil
}

// duressSettingsLocked reads settings without taking the lock.
// Read failures fall back to the defaults, which hide everything.
func (s *Service) duressSettingsLocked(userID int64) DuressSettings {
	settings := DefaultDuressSettings()
	err := s.db.QueryRow(
		`SELECT enabled, hide_activity_logs, hide_failed_login_photos,
			hide_security_settings, show_fake_entries, hide_duress_card
		 FROM duress_settings WHERE user_id = ?`, userID,
	).Scan(&settings.Enabled, &settings.HideActivityLogs, &settings.HideFailedLoginPhotos,
		&settings.HideSecuritySettings, &settings.ShowFakeEntries, &settings.HideDuressCard)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.log.Warn("failed to read duress settings", zap.Int64("user_id", userID), zap.Error(err))
	}
	return settings
}

// DuressActive reports whether the most recent login for this user came
// through a duress credential.
func (s *Service) DuressActive(userID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.duressActiveLocked(userID), nil
}

// duressActiveLocked infers the current mode from the latest login-type
// activity row. No logins at all means a real session.
func (s *Service) duressActiveLocked(userID int64) bool {
	var action string
	err := s.db.QueryRow(
		`SELECT action_type FROM activity_logs
		 WHERE user_id = ? AND action_type IN (?, ?)
		 ORDER BY timestamp DESC, id DESC LIMIT 1`,
		userID, ActionLogin, ActionDuressLogin,
	).Scan(&action)
	if err != nil {
		return false
	}
	return action == ActionDuressLogin
}
