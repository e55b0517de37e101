package vault

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/keyhaven/keyhaven/pkg/crypto"
)

// Action types recorded in the activity log.
const (
	ActionAccountCreated        = "account_created"
	ActionLogin                 = "login"
	ActionDuressLogin           = "duress_login_access"
	ActionLoginFailed           = "login_failed"
	ActionAddEntry              = "add_entry"
	ActionEditEntry             = "edit_entry"
	ActionDeleteEntry           = "delete_entry"
	ActionVaultExported         = "vault_exported"
	ActionVaultImported         = "vault_imported"
	ActionOTPRecoverySetup      = "otp_recovery_setup"
	ActionDuressCredentialAdded = "duress_credential_added"
	ActionDuressSettingsUpdated = "duress_settings_updated"
)

// ActivityLog is one recorded action.
type ActivityLog struct {
	ID         int64     `json:"id"`
	ActionType string    `json:"action_type"`
	Details    string    `json:"details"`
	Timestamp  time.Time `json:"timestamp"`
}

// ActivityStats summarizes a user's recorded activity.
type ActivityStats struct {
	TotalLogins   int64            `json:"total_logins"`
	TotalActions  int64            `json:"total_actions"`
	LastLogin     *time.Time       `json:"last_login,omitempty"`
	MostActiveDay string           `json:"most_active_day,omitempty"`
	ActionCounts  map[string]int64 `json:"action_counts"`
}

// TrendPoint is one day of activity volume.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// recordActivity appends a log row. Failures are logged, never surfaced:
// activity logging must not break the operation it describes.
func (s *Service) recordActivity(userID int64, actionType, details string) {
	_, err := s.db.Exec(
		"INSERT INTO activity_logs(user_id, action_type, details, timestamp) VALUES(?, ?, ?, ?)",
		userID, actionType, details, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		s.log.Warn("failed to record activity",
			zap.Int64("user_id", userID),
			zap.String("action", actionType),
			zap.Error(err))
	}
}

// RecordActivity appends a log row on behalf of a caller.
func (s *Service) RecordActivity(userID int64, actionType, details string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if actionType == "" {
		return fmt.Errorf("vault: action type must not be empty")
	}
	_, err := s.db.Exec(
		"INSERT INTO activity_logs(user_id, action_type, details, timestamp) VALUES(?, ?, ?, ?)",
		userID, actionType, details, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("vault: failed to record activity: %w", err)
	}
	return nil
}

// activityHidden reports whether activity reads should return nothing
// because the current session is a duress session that hides logs.
func (s *Service) activityHidden(userID int64) bool {
	if !s.duressActiveLocked(userID) {
		return false
	}
	return s.duressSettingsLocked(userID).HideActivityLogs
}

// ActivityLogs returns the most recent log rows, newest first.
// limit < 0 returns everything. Duress sessions see an empty list.
func (s *Service) ActivityLogs(userID int64, limit int) ([]ActivityLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.activityHidden(userID) {
		return []ActivityLog{}, nil
	}

	query := "SELECT id, action_type, details, timestamp FROM activity_logs WHERE user_id = ? ORDER BY timestamp DESC, id DESC"
	args := []any{userID}
	if limit >= 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to query activity: %w", err)
	}
	defer rows.Close()

	logs := []ActivityLog{}
	for rows.Next() {
		var l ActivityLog
		var ts string
		if err := rows.Scan(&l.ID, &l.ActionType, &l.Details, &ts); err != nil {
			return nil, fmt.Errorf("vault: failed to scan row: %w", err)
		}
		l.Timestamp, _ = time.Parse(time.RFC3339, ts)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vault: error iterating rows: %w", err)
	}

	return logs, nil
}

// ActivityCount returns the number of log rows. Duress sessions see zero.
func (s *Service) ActivityCount(userID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.activityHidden(userID) {
		return 0, nil
	}

	var n int64
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM activity_logs WHERE user_id = ?", userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("vault: failed to count activity: %w", err)
	}
	return n, nil
}

// ActivityStats aggregates login and action counts.
// Duress sessions get empty stats.
func (s *Service) ActivityStats(userID int64) (*ActivityStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &ActivityStats{ActionCounts: map[string]int64{}}

	if s.activityHidden(userID) {
		return stats, nil
	}

	rows, err := s.db.Query(
		"SELECT action_type, COUNT(*) FROM activity_logs WHERE user_id = ? GROUP BY action_type",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to query activity: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var action string
		var n int64
		if err := rows.Scan(&action, &n); err != nil {
			return nil, fmt.Errorf("vault: failed to scan row: %w", err)
		}
		stats.ActionCounts[action] = n
		stats.TotalActions += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vault: error iterating rows: %w", err)
	}

	stats.TotalLogins = stats.ActionCounts[ActionLogin]

	var lastLogin string
	err = s.db.QueryRow(
		"SELECT timestamp FROM activity_logs WHERE user_id = ? AND action_type = ? ORDER BY timestamp DESC, id DESC LIMIT 1",
		userID, ActionLogin,
	).Scan(&lastLogin)
	if err == nil {
		if t, perr := time.Parse(time.RFC3339, lastLogin); perr == nil {
			stats.LastLogin = &t
		}
	}

	var day string
	err = s.db.QueryRow(
		"SELECT substr(timestamp, 1, 10) AS day FROM activity_logs WHERE user_id = ? GROUP BY day ORDER BY COUNT(*) DESC, day DESC LIMIT 1",
		userID,
	).Scan(&day)
	if err == nil {
		stats.MostActiveDay = day
	}

	return stats, nil
}

// ActivityTrend returns per-day activity volume for the last days days,
// oldest first. Duress sessions get an empty trend.
func (s *Service) ActivityTrend(userID int64, days int) ([]TrendPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if days <= 0 {
		days = 7
	}
	if s.activityHidden(userID) {
		return []TrendPoint{}, nil
	}

	since := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)

	rows, err := s.db.Query(
		`SELECT substr(timestamp, 1, 10) AS day, COUNT(*)
		 FROM activity_logs
		 WHERE user_id = ? AND timestamp >= ?
		 GROUP BY day ORDER BY day`,
		userID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to query activity: %w", err)
	}
	defer rows.Close()

	trend := []TrendPoint{}
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.Date, &p.Count); err != nil {
			return nil, fmt.Errorf("vault: failed to scan row: %w", err)
		}
		trend = append(trend, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vault: error iterating rows: %w", err)
	}

	return trend, nil
}

// ExportActivityLogs renders the full log as JSON. Duress sessions export
// an empty array.
func (s *Service) ExportActivityLogs(userID int64) (string, error) {
	logs, err := s.ActivityLogs(userID, -1)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(logs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("vault: failed to marshal activity: %w", err)
	}
	return string(data), nil
}

// ClearActivityLogs deletes every log row for the user.
func (s *Service) ClearActivityLogs(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM activity_logs WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("vault: failed to clear activity: %w", err)
	}
	return nil
}

// CleanupOldLogs deletes log rows older than days days and returns how many
// were removed.
func (s *Service) CleanupOldLogs(userID int64, days int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if days <= 0 {
		return 0, fmt.Errorf("vault: retention days must be positive")
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)
	result, err := s.db.Exec(
		"DELETE FROM activity_logs WHERE user_id = ? AND timestamp < ?",
		userID, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("vault: failed to cleanup activity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("vault: failed to get rows affected: %w", err)
	}
	return affected, nil
}

// ScheduleLogsDeletion arms a persisted flag that wipes the activity log at
// the next real login. The master password is required.
func (s *Service) ScheduleLogsDeletion(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.userByName(username)
	if err != nil {
		return err
	}
	if !crypto.VerifyPassword(password, u.Hash) {
		return ErrInvalidPassword
	}

	_, err = s.db.Exec(
		`INSERT INTO pending_deletions(user_id, scheduled_at) VALUES(?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET scheduled_at = excluded.scheduled_at`,
		u.ID, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("vault: failed to schedule deletion: %w", err)
	}

	s.log.Info("log deletion scheduled", zap.Int64("user_id", u.ID))

	return nil
}

// CancelLogsDeletion disarms a pending log deletion. Canceling when nothing
// is scheduled is not an error.
func (s *Service) CancelLogsDeletion(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM pending_deletions WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("vault: failed to cancel deletion: %w", err)
	}
	return nil
}

// HasPendingDeletion reports whether a log deletion is armed.
func (s *Service) HasPendingDeletion(userID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var one int
	err := s.db.QueryRow(
		"SELECT 1 FROM pending_deletions WHERE user_id = ?", userID,
	).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("vault: failed to read pending deletion: %w", err)
	}
	return true, nil
}

// CheckPendingDeletion applies an armed log deletion, if any, and disarms
// it. Returns true when logs were wiped. Call after a real login so the
// deletion never fires inside a duress session.
func (s *Service) CheckPendingDeletion(userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("vault: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec("DELETE FROM pending_deletions WHERE user_id = ?", userID)
	if err != nil {
		return false, fmt.Errorf("vault: failed to clear pending deletion: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("vault: failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if _, err := tx.Exec("DELETE FROM activity_logs WHERE user_id = ?", userID); err != nil {
		return false, fmt.Errorf("vault: failed to wipe activity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("vault: failed to commit transaction: %w", err)
	}

	s.log.Info("scheduled log deletion applied", zap.Int64("user_id", userID))

	return true, nil
}
