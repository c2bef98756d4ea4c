package auth

import (
	"strings"
	"unicode/utf8"
)

const passwordSpecials = `!@#$%^&*(),.?":{}|<>`

// ValidatePassword returns every policy violation, or nil.
func ValidatePassword(password string) []string {
	var problems []string
	if utf8.RuneCountInString(password) < 8 {
		problems = append(problems, "Password must be at least 8 characters")
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
		if strings.ContainsRune(passwordSpecials, r) {
			special = true
		}
	}
	if !upper {
		problems = append(problems, "Password must contain an uppercase letter")
	}
	if !lower {
		problems = append(problems, "Password must contain a lowercase letter")
	}
	if !digit {
		problems = append(problems, "Password must contain a number")
	}
	if !special {
		problems = append(problems, "Password must contain a special character")
	}
	return problems
}

func checkPolicy(password string) error {
	if problems := ValidatePassword(password); len(problems) > 0 {
		return &PasswordPolicyError{Problems: problems}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
