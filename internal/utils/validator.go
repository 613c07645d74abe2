package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

const (
	// MinPasswordLength is the minimum number of characters in a password
	MinPasswordLength = 8

	// MaxPasswordBytes is the longest input bcrypt accepts
	MaxPasswordBytes = 72

	// MaxNicknameLength is the maximum number of characters kept in a nickname
	MaxNicknameLength = 50
)

// Password policy rule messages. ValidatePassword reports every rule a password breaks.
const (
	RulePasswordLength  = "password must be at least 8 characters long"
	RulePasswordTooLong = "password must be at most 72 bytes long"
	RulePasswordUpper   = "password must contain at least one uppercase letter"
	RulePasswordLower   = "password must contain at least one lowercase letter"
	RulePasswordDigit   = "password must contain at least one number"
)

var (
	validate       = validator.New()
	nicknamePolicy = bluemonday.StrictPolicy()
)

// ValidateEmail validates an email address
func ValidateEmail(email string) bool {
	return validate.Var(email, "required,email,max=254") == nil
}

// ValidatePassword checks a password against the policy and returns every violated rule.
// An empty result means the password is acceptable.
func ValidatePassword(password string) []string {
	var violations []string

	if utf8.RuneCountInString(password) < MinPasswordLength {
		violations = append(violations, RulePasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		violations = append(violations, RulePasswordTooLong)
	}

	hasUpper := false
	hasLower := false
	hasNumber := false

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	if !hasUpper {
		violations = append(violations, RulePasswordUpper)
	}
	if !hasLower {
		violations = append(violations, RulePasswordLower)
	}
	if !hasNumber {
		violations = append(violations, RulePasswordDigit)
	}

	return violations
}

// NormalizeEmail trims and lowercases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SanitizeNickname strips markup and surrounding whitespace and caps the length
func SanitizeNickname(nickname string) string {
	clean := strings.TrimSpace(nicknamePolicy.Sanitize(nickname))
	if utf8.RuneCountInString(clean) > MaxNicknameLength {
		clean = strings.TrimSpace(string([]rune(clean)[:MaxNicknameLength]))
	}
	return clean
}
