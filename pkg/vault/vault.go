// Package vault implements the credential store: user accounts, encrypted
// entries, duress credentials, OTP recovery, and the activity log.
//
// All persistent state lives in a single SQLite database. Entry passwords and
// notes are sealed with AES-256-GCM under a key derived from the master
// password; the key itself is never stored. A session key is handed to the
// caller as base64 and must accompany every entry operation.
package vault

import (
	"database/sql"
	"encoding/base64"
	"fmt"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/keyhaven/keyhaven/pkg/crypto"
	"github.com/keyhaven/keyhaven/pkg/decoy"
)

// Service is the vault store. All methods are safe for concurrent use.
type Service struct {
	db         *sql.DB
	log        *zap.Logger
	mu         sync.RWMutex
	decoyCount int
}

// Open opens (creating if necessary) the vault database at path.
// Pass ":memory:" for an ephemeral store.
func Open(path string, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn := "file:" + path
	if path == ":memory:" {
		dsn = "file::memory:"
	}
	dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to open database: %w", err)
	}

	// Single connection keeps SQLite happy under concurrent callers and is
	// required for a shared in-memory database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Service{
		db:         db,
		log:        logger.Named("vault"),
		decoyCount: decoy.DefaultCount,
	}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("vault: failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the underlying database.
func (s *Service) Close() error {
	return s.db.Close()
}

// SetDecoyCount overrides how many fake entries a duress session sees.
func (s *Service) SetDecoyCount(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > 0 {
		s.decoyCount = n
	}
}

// createTables defines the schema. Child tables cascade on user deletion.
func (s *Service) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			salt TEXT NOT NULL,
			hash TEXT NOT NULL,
			otp_secret TEXT NOT NULL DEFAULT '',
			otp_recovery_key BLOB,
			otp_recovery_nonce BLOB,
			otp_recovery_salt BLOB
		)`,
		`CREATE TABLE IF NOT EXISTS entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			service TEXT NOT NULL,
			login TEXT NOT NULL,
			enc_password BLOB NOT NULL,
			password_nonce BLOB NOT NULL,
			enc_note BLOB,
			note_nonce BLOB,
			FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS duress_credentials (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			salt TEXT NOT NULL,
			hash TEXT NOT NULL,
			FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS duress_settings (
			user_id INTEGER PRIMARY KEY,
			enabled INTEGER NOT NULL DEFAULT 1,
			hide_activity_logs INTEGER NOT NULL DEFAULT 1,
			hide_failed_login_photos INTEGER NOT NULL DEFAULT 1,
			hide_security_settings INTEGER NOT NULL DEFAULT 1,
			show_fake_entries INTEGER NOT NULL DEFAULT 1,
			hide_duress_card INTEGER NOT NULL DEFAULT 1,
			FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS activity_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			action_type TEXT NOT NULL,
			details TEXT NOT NULL DEFAULT '',
			timestamp TEXT NOT NULL,
			FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_user_time
			ON activity_logs(user_id, timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_type
			ON activity_logs(action_type)`,
		`CREATE TABLE IF NOT EXISTS failed_login_photos (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			encrypted_photo BLOB NOT NULL,
			photo_nonce BLOB NOT NULL,
			timestamp TEXT NOT NULL,
			username_attempt TEXT NOT NULL DEFAULT '',
			FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS security_settings (
			user_id INTEGER PRIMARY KEY,
			photo_on_failed_login INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS pending_deletions (
			user_id INTEGER PRIMARY KEY,
			scheduled_at TEXT NOT NULL,
			FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// decodeKey parses a base64 session key and enforces the AES-256 length.
func decodeKey(keyB64 string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil || len(key) != crypto.KeyLength {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// encodeKey renders a derived key in the form sessions carry it.
func encodeKey(key []byte) string {
	return base64.StdEncoding.EncodeToString(key)
}

// encodeSalt renders a raw salt as the text form stored in user rows.
// Key derivation operates on this text, not on the raw bytes.
func encodeSalt(salt []byte) string {
	return base64.StdEncoding.EncodeToString(salt)
}
