package vault

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/keyhaven/keyhaven/pkg/crypto"
)

// userRow is the subset of the users table needed for authentication.
type userRow struct {
	ID   int64
	Salt string
	Hash string
}

// userByName loads the authentication columns for a username.
func (s *Service) userByName(username string) (*userRow, error) {
	var u userRow
	err := s.db.QueryRow(
		"SELECT id, salt, hash FROM users WHERE username = ?", username,
	).Scan(&u.ID, &u.Salt, &u.Hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("vault: failed to read user: %w", err)
	}
	return &u, nil
}

// CreateUser registers a new account and returns its id.
//
// The salt is stored as base64 text. The verification hash digests the raw
// salt bytes while entry keys are later derived over the salt text, so the
// hash can never double as the encryption key.
func (s *Service) CreateUser(username, password string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = strings.TrimSpace(username)
	if username == "" {
		return 0, ErrEmptyUsername
	}
	if password == "" {
		return 0, ErrEmptyPassword
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
		"INSERT INTO users(username, salt, hash) VALUES(?, ?, ?)",
		username, encodeSalt(salt), hash,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return 0, ErrUserExists
		}
		return 0, fmt.Errorf("vault: failed to create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("vault: failed to read new user id: %w", err)
	}

	s.recordActivity(id, ActionAccountCreated, "account created")
	s.log.Info("user created", zap.String("username", username), zap.Int64("user_id", id))

	return id, nil
}

// ListUsers returns all registered usernames in creation order.
func (s *Service) ListUsers() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT username FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("vault: failed to query users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("vault: failed to scan row: %w", err)
		}
		users = append(users, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vault: error iterating rows: %w", err)
	}

	return users, nil
}

// VerifyUserPassword checks a password against the master hash only.
// Duress credentials never verify here.
func (s *Service) VerifyUserPassword(username, password string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.userByName(username)
	if err != nil {
		return false, err
	}
	return crypto.VerifyPassword(password, u.Hash), nil
}

// UserID resolves a username to its id.
func (s *Service) UserID(username string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.userByName(username)
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

// UserSalt returns the stored salt text for a username.
func (s *Service) UserSalt(username string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.userByName(username)
	if err != nil {
		return "", err
	}
	return u.Salt, nil
}

// DeleteUser removes an account and everything attached to it after
// verifying the master password. All rows go in one transaction.
func (s *Service) DeleteUser(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.userByName(username)
	if err != nil {
		return err
	}
	if !crypto.VerifyPassword(password, u.Hash) {
		return ErrInvalidPassword
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("vault: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	tables := []string{
		"entries", "duress_credentials", "duress_settings",
		"activity_logs", "failed_login_photos", "security_settings",
		"pending_deletions",
	}
	for _, table := range tables {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE user_id = ?", u.ID); err != nil {
			return fmt.Errorf("vault: failed to delete from %s: %w", table, err)
		}
	}

	result, err := tx.Exec("DELETE FROM users WHERE id = ?", u.ID)
	if err != nil {
		return fmt.Errorf("vault: failed to delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("vault: failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("vault: failed to commit transaction: %w", err)
	}

	s.log.Info("user deleted", zap.String("username", username), zap.Int64("user_id", u.ID))

	return nil
}
