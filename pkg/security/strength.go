// Package security evaluates password strength and vault hygiene.
package security

import "fmt"

// Strength is a coarse password strength level.
type Strength int

const (
	Weak Strength = iota
	Fair
	Good
	Strong
)

// MinMasterPasswordLength is the hard floor for a master password.
const MinMasterPasswordLength = 8

func (s Strength) String() string {
	switch s {
	case Weak:
		return "Weak"
	case Fair:
		return "Fair"
	case Good:
		return "Good"
	case Strong:
		return "Strong"
	default:
		return "Unknown"
	}
}

// Evaluate scores a password. Length is the primary factor, following NIST
// SP 800-63B; composition rules are deliberately not enforced.
func Evaluate(password string) Strength {
	switch length := len(password); {
	case length >= 20:
		return Strong
	case length >= 14:
		return Good
	case length >= MinMasterPasswordLength:
		return Fair
	default:
		return Weak
	}
}

// ValidateMasterPassword checks a candidate master password. The returned
// error blocks account creation; warnings are advisory.
func ValidateMasterPassword(password string) (Strength, []string, error) {
	if len(password) < MinMasterPasswordLength {
		return Weak, nil, fmt.Errorf(
			"security: master password must be at least %d characters", MinMasterPasswordLength)
	}

	strength := Evaluate(password)

	var warnings []string
	if strength < Good {
		warnings = append(warnings, "consider a longer passphrase (14+ characters)")
	}
	return strength, warnings, nil
}
