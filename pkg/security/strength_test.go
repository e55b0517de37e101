package security

import "testing"

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     Strength
	}{
		{"empty", "", Weak},
		{"short", "hunter2", Weak},
		{"exactly 8", "12345678", Fair},
		{"medium", "0123456789abc", Fair},
		{"exactly 14", "0123456789abcd", Good},
		{"long passphrase", "correct horse battery staple", Strong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.password); got != tt.want {
				t.Errorf("Evaluate(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}

func TestStrengthString(t *testing.T) {
	tests := []struct {
		s    Strength
		want string
	}{
		{Weak, "Weak"},
		{Fair, "Fair"},
		{Good, "Good"},
		{Strong, "Strong"},
		{Strength(42), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestValidateMasterPassword(t *testing.T) {
	if _, _, err := ValidateMasterPassword("short"); err == nil {
		t.Fatal("expected error for short password")
	}

	strength, warnings, err := ValidateMasterPassword("12345678")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strength != Fair {
		t.Errorf("strength = %v, want Fair", strength)
	}
	if len(warnings) == 0 {
		t.Error("expected an advisory warning for a Fair password")
	}

	strength, warnings, err = ValidateMasterPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strength != Strong {
		t.Errorf("strength = %v, want Strong", strength)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
}
