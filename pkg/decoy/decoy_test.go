package decoy

import "testing"

// TestGenerateCount tests the requested count is honored
func TestGenerateCount(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  int
	}{
		{"default", DefaultCount, DefaultCount},
		{"one", 1, 1},
		{"zero", 0, 0},
		{"negative", -5, 0},
		{"beyond catalog", len(catalog) + 10, len(catalog) + 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.count)
			if len(got) != tt.want {
				t.Errorf("Generate(%d) returned %d credentials, want %d", tt.count, len(got), tt.want)
			}
		})
	}
}

// TestGenerateFieldsPopulated tests that every credential looks plausible
func TestGenerateFieldsPopulated(t *testing.T) {
	for i, c := range Generate(DefaultCount) {
		if c.Service == "" {
			t.Errorf("credential %d has empty service", i)
		}
		if c.Login == "" {
			t.Errorf("credential %d has empty login", i)
		}
		if c.Password == "" {
			t.Errorf("credential %d has empty password", i)
		}
	}
}

// TestGenerateNoDuplicateServices tests catalog picks are unique
func TestGenerateNoDuplicateServices(t *testing.T) {
	seen := make(map[string]bool)
	for _, c := range Generate(len(catalog)) {
		if seen[c.Service] {
			t.Errorf("service %q appeared twice", c.Service)
		}
		seen[c.Service] = true
	}
}

// TestGeneric tests the synthetic fallback entries
func TestGeneric(t *testing.T) {
	got := Generic(3)
	if len(got) != 3 {
		t.Fatalf("Generic(3) returned %d credentials", len(got))
	}
	if got[0].Service != "Service 1" || got[2].Service != "Service 3" {
		t.Errorf("Generic() services = %q, %q", got[0].Service, got[2].Service)
	}
}
