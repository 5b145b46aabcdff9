// Package validation provides input validation for forms sent to the API.
package validation

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"snapfeed/internal/models"
)

// MaxImageBytes is the largest upload the API accepts.
const MaxImageBytes = 5 << 20

// MaxBioLength is counted in characters.
const MaxBioLength = 160

// ValidateEmail checks that email is a bare address.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return models.NewValidationError("Invalid email address")
	}
	return nil
}

// ValidatePassword enforces the minimum length the API accepts.
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return models.NewValidationError("Password must be at least 6 characters")
	}
	return nil
}

// ValidateName checks a display name.
func ValidateName(name string) error {
	if utf8.RuneCountInString(strings.TrimSpace(name)) < 2 {
		return models.NewValidationError("Name must be at least 2 characters")
	}
	return nil
}

// ValidateUsername checks a handle: at least 3 characters, no whitespace.
func ValidateUsername(username string) error {
	if utf8.RuneCountInString(username) < 3 {
		return models.NewValidationError("Username must be at least 3 characters")
	}
	if strings.IndexFunc(username, unicode.IsSpace) >= 0 {
		return models.NewValidationError("Username cannot contain spaces")
	}
	return nil
}

// ValidatePhone requires at least 10 digits; separators are ignored.
func ValidatePhone(phone string) error {
	digits := 0
	for _, r := range phone {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' || r == '-' || r == ' ' || r == '(' || r == ')':
		default:
			return models.NewValidationError("Phone number may only contain digits")
		}
	}
	if digits < 10 {
		return models.NewValidationError("Phone number must be at least 10 digits")
	}
	return nil
}

// ValidateBio caps the bio length.
func ValidateBio(bio string) error {
	if utf8.RuneCountInString(bio) > MaxBioLength {
		return models.NewValidationError(fmt.Sprintf("Bio must be at most %d characters", MaxBioLength))
	}
	return nil
}

// ValidateImage checks an upload's declared content type and size.
func ValidateImage(contentType string, size int64) error {
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return models.NewValidationError("Please select an image file")
	}
	if size <= 0 {
		return models.NewValidationError("Image file is empty")
	}
	if size > MaxImageBytes {
		return models.NewValidationError("Image must be 5MB or smaller")
	}
	return nil
}

// ValidateComment rejects blank comments.
func ValidateComment(content string) error {
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Comment cannot be empty")
	}
	return nil
}
