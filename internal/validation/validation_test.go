package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"pastor@church.org", ""},
		{"usher+sunday@mail.church.org", ""},
		{"", "This field is required."},
		{"church.org", "Enter a valid email address."},
		{"pastor@", "Enter a valid email address."},
		{"@church.org", "Enter a valid email address."},
		{"pas tor@church.org", "Enter a valid email address."},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := Email(tt.email)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, Single("email", tt.want), err)
		})
	}
}

func TestPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     string
	}{
		{"long enough", "correct-horse", ""},
		{"exactly eight", "12345678", ""},
		{"empty", "", "This field is required."},
		{"too short", "short", "Ensure this field has at least 8 characters."},
		{"past bcrypt limit", strings.Repeat("a", 73), "Ensure this field has no more than 72 characters."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Password(tt.password)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, Single("password", tt.want), err)
		})
	}
}

func TestVarName(t *testing.T) {
	assert.NoError(t, Var("name", "Lydia", NameRule))
	assert.Equal(t, Single("name", "Ensure this field has at least 2 characters."), Var("name", "L", NameRule))
}

func TestIsDate(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"2024-06-12", true},
		{"2024-02-29", true},
		{"2023-02-29", false},
		{"2024-6-12", false},
		{"2024-06-12T10:00:00Z", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsDate(tt.input); got != tt.want {
			t.Errorf("IsDate(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsTimeOfDay(t *testing.T) {
	for input, want := range map[string]bool{
		"09:30": true,
		"23:59": true,
		"24:00": false,
		"9:30":  false,
		"":      false,
	} {
		assert.Equal(t, want, IsTimeOfDay(input), "IsTimeOfDay(%q)", input)
	}
}
