package credentials

import (
	"regexp"
	"testing"
)

var tempPasswordPattern = regexp.MustCompile(`^[A-Z][a-z]+-[A-Z][a-z]+-[0-9]{4}$`)

func TestGenerateTemporaryPassword(t *testing.T) {
	tests := []struct {
		name       string
		iterations int
	}{
		{name: "matches word-word-digits format", iterations: 100},
		{name: "single call", iterations: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < tt.iterations; i++ {
				password, err := GenerateTemporaryPassword()
				if err != nil {
					t.Fatalf("GenerateTemporaryPassword() error = %v", err)
				}
				if !tempPasswordPattern.MatchString(password) {
					t.Errorf("password %q does not match %s", password, tempPasswordPattern)
				}
				if len(password) < 8 {
					t.Errorf("password length %d shorter than 8", len(password))
				}
			}
		})
	}
}

func TestGenerateTemporaryPasswordVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		password, err := GenerateTemporaryPassword()
		if err != nil {
			t.Fatalf("GenerateTemporaryPassword() error = %v", err)
		}
		seen[password] = true
	}
	// 24*16*10000 combinations; twenty draws collapsing to one value means the source is broken.
	if len(seen) < 2 {
		t.Errorf("generated %d distinct passwords in 20 draws", len(seen))
	}
}

func TestRandomElement(t *testing.T) {
	if got, err := randomElement(nil); err != nil || got != "" {
		t.Errorf("randomElement(nil) = %q, %v, want empty, nil", got, err)
	}

	got, err := randomElement([]string{"only"})
	if err != nil {
		t.Fatalf("randomElement() error = %v", err)
	}
	if got != "only" {
		t.Errorf("randomElement() = %q, want %q", got, "only")
	}
}
