package vault

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/keyhaven/keyhaven/pkg/crypto"
	"github.com/keyhaven/keyhaven/pkg/decoy"
)

// Entry is a decrypted credential record. Decoy entries carry negative ids
// so they can never collide with a real row.
type Entry struct {
	ID       int64  `json:"id"`
	Service  string `json:"service"`
	Login    string `json:"login"`
	Password string `json:"password"`
	Note     string `json:"note,omitempty"`
}

// PlainEntry is the entry shape used by backup bundles.
type PlainEntry struct {
	Service  string `json:"service"`
	Login    string `json:"login"`
	Password string `json:"password"`
	Note     string `json:"note,omitempty"`
}

// AddEntry encrypts and stores a credential, returning the new entry id.
func (s *Service) AddEntry(userID int64, keyB64, service, login, password, note string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, err := decodeKey(keyB64)
	if err != nil {
		return 0, err
	}
	if service == "" || login == "" {
		return 0, fmt.Errorf("vault: service and login must not be empty")
	}
	if password == "" {
		return 0, ErrEmptyPassword
	}

	encPassword, passwordNonce, err := crypto.Encrypt(key, []byte(password))
	if err != nil {
		return 0, ErrCryptoFailure
	}

	// The note is sealed even when empty so every row carries two
	// independent ciphertexts and length leaks nothing.
	encNote, noteNonce, err := crypto.Encrypt(key, []byte(note))
	if err != nil {
		return 0, ErrCryptoFailure
	}

	res, err := s.db.Exec(
		`INSERT INTO entries(user_id, service, login, enc_password, password_nonce, enc_note, note_nonce)
		 VALUES(?, ?, ?, ?, ?, ?, ?)`,
		userID, service, login, encPassword, passwordNonce, encNote, noteNonce,
	)
	if err != nil {
		return 0, fmt.Errorf("vault: failed to insert entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("vault: failed to read new entry id: %w", err)
	}

	s.recordActivity(userID, ActionAddEntry, "added entry for "+service)

	return id, nil
}

// UpdateEntry re-encrypts and replaces an existing credential.
func (s *Service) UpdateEntry(userID, entryID int64, keyB64, service, login, password, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, err := decodeKey(keyB64)
	if err != nil {
		return err
	}
	if service == "" || login == "" {
		return fmt.Errorf("vault: service and login must not be empty")
	}
	if password == "" {
		return ErrEmptyPassword
	}

	encPassword, passwordNonce, err := crypto.Encrypt(key, []byte(password))
	if err != nil {
		return ErrCryptoFailure
	}

	encNote, noteNonce, err := crypto.Encrypt(key, []byte(note))
	if err != nil {
		return ErrCryptoFailure
	}

	result, err := s.db.Exec(
		`UPDATE entries
		 SET service = ?, login = ?, enc_password = ?, password_nonce = ?, enc_note = ?, note_nonce = ?
		 WHERE id = ? AND user_id = ?`,
		service, login, encPassword, passwordNonce, encNote, noteNonce, entryID, userID,
	)
	if err != nil {
		return fmt.Errorf("vault: failed to update entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("vault: failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrEntryNotFound
	}

	s.recordActivity(userID, ActionEditEntry, "edited entry for "+service)

	return nil
}

// DeleteEntry removes a credential.
func (s *Service) DeleteEntry(userID, entryID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(
		"DELETE FROM entries WHERE id = ? AND user_id = ?", entryID, userID,
	)
	if err != nil {
		return fmt.Errorf("vault: failed to delete entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("vault: failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrEntryNotFound
	}

	s.recordActivity(userID, ActionDeleteEntry, "deleted entry")

	return nil
}

// encryptedEntry is one raw entries row.
type encryptedEntry struct {
	ID            int64
	Service       string
	Login         string
	EncPassword   []byte
	PasswordNonce []byte
	EncNote       []byte
	NoteNonce     []byte
}

// loadEncryptedEntries reads all entry rows for a user in id order.
func (s *Service) loadEncryptedEntries(userID int64) ([]encryptedEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, service, login, enc_password, password_nonce, enc_note, note_nonce
		 FROM entries WHERE user_id = ? ORDER BY id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("vault: failed to query entries: %w", err)
	}
	defer rows.Close()

	var out []encryptedEntry
	for rows.Next() {
		var e encryptedEntry
		if err := rows.Scan(&e.ID, &e.Service, &e.Login, &e.EncPassword, &e.PasswordNonce, &e.EncNote, &e.NoteNonce); err != nil {
			return nil, fmt.Errorf("vault: failed to scan row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vault: error iterating rows: %w", err)
	}

	return out, nil
}

// Entries returns the credential list visible under the given session key.
//
// The first row's password ciphertext is probed against the key. If it opens,
// every row is decrypted and returned. If it does not, the key belongs to a
// duress session: depending on the duress settings the caller sees either
// generated decoys or an empty vault, and a duress access row is logged.
// An empty vault returns an empty list without touching the duress path.
func (s *Service) Entries(userID int64, keyB64 string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, err := decodeKey(keyB64)
	if err != nil {
		return nil, err
	}

	encrypted, err := s.loadEncryptedEntries(userID)
	if err != nil {
		return nil, err
	}
	if len(encrypted) == 0 {
		return []Entry{}, nil
	}

	probe := encrypted[0]
	_, ok, err := crypto.Probe(key, probe.EncPassword, probe.PasswordNonce)
	if err != nil {
		return nil, ErrCryptoFailure
	}

	if !ok {
		return s.duressEntries(userID), nil
	}

	entries, err := decryptEntries(key, encrypted)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// duressEntries builds the view a duress session sees and records the
// access. Storage errors on this path degrade to an empty list: a duress
// session must never surface an error that a real one would not.
func (s *Service) duressEntries(userID int64) []Entry {
	settings := s.duressSettingsLocked(userID)

	if !settings.ShowFakeEntries {
		s.recordActivity(userID, ActionDuressLogin, "entries accessed (hidden)")
		return []Entry{}
	}

	s.recordActivity(userID, ActionDuressLogin, "entries accessed")
	s.log.Debug("serving decoy entries", zap.Int64("user_id", userID))

	creds := decoy.Generate(s.decoyCount)
	entries := make([]Entry, 0, len(creds))
	for i, c := range creds {
		entries = append(entries, Entry{
			ID:       -int64(i + 1),
			Service:  c.Service,
			Login:    c.Login,
			Password: c.Password,
			Note:     c.Note,
		})
	}
	return entries
}

// decryptEntries opens every row under key. Any failure past the probe is a
// hard error: a partially readable vault means corruption, not duress.
func decryptEntries(key []byte, encrypted []encryptedEntry) ([]Entry, error) {
	entries := make([]Entry, 0, len(encrypted))
	for _, e := range encrypted {
		password, err := crypto.Decrypt(key, e.EncPassword, e.PasswordNonce)
		if err != nil {
			return nil, ErrCryptoFailure
		}

		var note []byte
		if len(e.EncNote) > 0 {
			note, err = crypto.Decrypt(key, e.EncNote, e.NoteNonce)
			if err != nil {
				return nil, ErrCryptoFailure
			}
		}

		entries = append(entries, Entry{
			ID:       e.ID,
			Service:  e.Service,
			Login:    e.Login,
			Password: string(password),
			Note:     string(note),
		})
	}
	return entries, nil
}

// DecryptedEntries opens every entry strictly under key, with no duress
// fallback. Backup export uses this so a duress key can never produce a
// bundle of decoys.
func (s *Service) DecryptedEntries(userID int64, key []byte) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(key) != crypto.KeyLength {
		return nil, ErrInvalidKey
	}

	encrypted, err := s.loadEncryptedEntries(userID)
	if err != nil {
		return nil, err
	}
	return decryptEntries(key, encrypted)
}

// ImportPlainEntries encrypts and inserts entries under key inside one
// transaction. With merge set, rows whose (service, login) already exists
// are skipped; without it the user's existing entries are removed first,
// so the incoming set replaces the vault. Returns the number of rows
// inserted.
func (s *Service) ImportPlainEntries(userID int64, key []byte, entries []PlainEntry, merge bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(key) != crypto.KeyLength {
		return 0, ErrInvalidKey
	}

	existing := map[[2]string]bool{}
	if merge {
		rows, err := s.db.Query("SELECT service, login FROM entries WHERE user_id = ?", userID)
		if err != nil {
			return 0, fmt.Errorf("vault: failed to query entries: %w", err)
		}
		for rows.Next() {
			var service, login string
			if err := rows.Scan(&service, &login); err != nil {
				rows.Close()
				return 0, fmt.Errorf("vault: failed to scan row: %w", err)
			}
			existing[[2]string{service, login}] = true
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return 0, fmt.Errorf("vault: error iterating rows: %w", err)
		}
		rows.Close()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("vault: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if !merge {
		if _, err := tx.Exec("DELETE FROM entries WHERE user_id = ?", userID); err != nil {
			return 0, fmt.Errorf("vault: failed to clear entries: %w", err)
		}
	}

	inserted := 0
	for _, e := range entries {
		if merge && existing[[2]string{e.Service, e.Login}] {
			continue
		}

		encPassword, passwordNonce, err := crypto.Encrypt(key, []byte(e.Password))
		if err != nil {
			return 0, ErrCryptoFailure
		}
		encNote, noteNonce, err := crypto.Encrypt(key, []byte(e.Note))
		if err != nil {
			return 0, ErrCryptoFailure
		}

		if _, err := tx.Exec(
			`INSERT INTO entries(user_id, service, login, enc_password, password_nonce, enc_note, note_nonce)
			 VALUES(?, ?, ?, ?, ?, ?, ?)`,
			userID, e.Service, e.Login, encPassword, passwordNonce, encNote, noteNonce,
		); err != nil {
			return 0, fmt.Errorf("vault: failed to insert entry: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("vault: failed to commit transaction: %w", err)
	}

	return inserted, nil
}
