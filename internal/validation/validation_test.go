package validation

import (
	"strings"
	"testing"

	"snapfeed/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestValidators(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		expectError bool
	}{
		{"Valid email", ValidateEmail("ann@example.com"), false},
		{"Email with display name", ValidateEmail("Ann <ann@example.com>"), true},
		{"Malformed email", ValidateEmail("ann@"), true},
		{"Short password", ValidatePassword("12345"), true},
		{"Password", ValidatePassword("123456"), false},
		{"Short name", ValidateName(" A "), true},
		{"Name", ValidateName("Al"), false},
		{"Short username", ValidateUsername("ab"), true},
		{"Username with space", ValidateUsername("a b c"), true},
		{"Username", ValidateUsername("ann_1"), false},
		{"Phone", ValidatePhone("+62 812-3456-7890"), false},
		{"Short phone", ValidatePhone("08123"), true},
		{"Phone letters", ValidatePhone("0812abc45678"), true},
		{"Bio", ValidateBio(strings.Repeat("é", MaxBioLength)), false},
		{"Long bio", ValidateBio(strings.Repeat("a", MaxBioLength+1)), true},
		{"Image", ValidateImage("image/jpeg", 1024), false},
		{"Not an image", ValidateImage("application/pdf", 1024), true},
		{"Empty image", ValidateImage("image/png", 0), true},
		{"Large image", ValidateImage("image/png", MaxImageBytes+1), true},
		{"Blank comment", ValidateComment("  \n"), true},
		{"Comment", ValidateComment("nice"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.expectError {
				assert.True(t, models.HasCode(tt.err, models.CodeValidation), "got %v", tt.err)
			} else {
				assert.NoError(t, tt.err)
			}
		})
	}
}
