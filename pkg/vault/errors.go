package vault

import "errors"

// Sentinel errors returned by vault operations.
var (
	// ErrEmptyUsername indicates a blank username was supplied.
	ErrEmptyUsername = errors.New("vault: username must not be empty")

	// ErrEmptyPassword indicates a blank password was supplied.
	ErrEmptyPassword = errors.New("vault: password must not be empty")

	// ErrInvalidKey indicates a session key that is not valid base64 or not 32 bytes.
	ErrInvalidKey = errors.New("vault: invalid session key")

	// ErrUserNotFound indicates no user row for the given name or id.
	ErrUserNotFound = errors.New("vault: user not found")

	// ErrUserExists indicates the username is already taken.
	ErrUserExists = errors.New("vault: user already exists")

	// ErrEntryNotFound indicates no entry row for the given id and user.
	ErrEntryNotFound = errors.New("vault: entry not found")

	// ErrPhotoNotFound indicates no failed-login photo row for the given id and user.
	ErrPhotoNotFound = errors.New("vault: photo not found")

	// ErrDuressCredentialNotFound indicates no duress credential row for the given id and user.
	ErrDuressCredentialNotFound = errors.New("vault: duress credential not found")

	// ErrInvalidPassword indicates the password matched neither the master
	// hash nor any duress credential.
	ErrInvalidPassword = errors.New("vault: invalid password")

	// ErrDuressMatchesMaster indicates a duress credential that would collide
	// with the master password.
	ErrDuressMatchesMaster = errors.New("vault: duress password must differ from the master password")

	// ErrNoOTPSecret indicates the user has no OTP secret configured.
	ErrNoOTPSecret = errors.New("vault: no otp secret configured")

	// ErrInvalidOTPCode indicates an OTP code that failed validation.
	ErrInvalidOTPCode = errors.New("vault: invalid otp code")

	// ErrRecoveryUnavailable indicates OTP recovery was never set up or was
	// cleared by a secret reset.
	ErrRecoveryUnavailable = errors.New("vault: otp recovery not configured")

	// ErrRecoveryCorrupted indicates a recovery envelope that no longer opens
	// under the current OTP secret.
	ErrRecoveryCorrupted = errors.New("vault: otp recovery data is unusable")

	// ErrCryptoFailure is the opaque error for any cryptographic failure on
	// the real data path. Callers never learn which primitive failed.
	ErrCryptoFailure = errors.New("vault: cryptographic operation failed")
)
