// Package totp wraps time-based one-time password generation and validation
// for the OTP recovery flow.
//
// Parameters are fixed to the authenticator-app defaults: HMAC-SHA1, six
// digits, a 30 second period, and one period of clock skew in either
// direction.
package totp

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"net/url"
	"time"

	"github.com/pquerna/otp"
	ptotp "github.com/pquerna/otp/totp"
)

const (
	// SecretLength is the length of generated secrets in bytes (160 bits).
	SecretLength = 20

	// Period is the code validity window in seconds.
	Period = 30

	// Skew is the number of adjacent periods accepted around the current one.
	Skew = 1

	// Issuer is the issuer label embedded in provisioning URLs.
	Issuer = "PasswordManager"
)

// GenerateSecret returns a fresh random secret encoded as unpadded base32.
func GenerateSecret() (string, error) {
	raw := make([]byte, SecretLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("totp: failed to generate secret: %w", err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw), nil
}

// ProvisioningURL builds the otpauth:// URL that authenticator apps import.
func ProvisioningURL(secret, username string) string {
	return fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s&algorithm=SHA1&digits=6&period=%d",
		Issuer, url.PathEscape(username), secret, Issuer, Period)
}

// Validate reports whether code is valid for secret at the current time.
func Validate(code, secret string) bool {
	return ValidateAt(code, secret, time.Now())
}

// ValidateAt reports whether code is valid for secret at the given time,
// accepting Skew periods of drift on either side.
func ValidateAt(code, secret string, at time.Time) bool {
	ok, err := ptotp.ValidateCustom(code, secret, at, ptotp.ValidateOpts{
		Period:    Period,
		Skew:      Skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// CodeAt computes the expected code for secret at the given time.
func CodeAt(secret string, at time.Time) (string, error) {
	code, err := ptotp.GenerateCodeCustom(secret, at, ptotp.ValidateOpts{
		Period:    Period,
		Skew:      Skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("totp: failed to generate code: %w", err)
	}
	return code, nil
}
