package service

import (
	"unicode"

	appErrors "github.com/godolist/godo-api/pkg/errors"
)

// checkPasswordComplexity enforces the signup password policy: at least 8
// characters with one upper, one lower, one digit and one special character.
func checkPasswordComplexity(password string) error {
	if len(password) < 8 {
		return appErrors.Clone(appErrors.ErrValidation, "password must be at least 8 characters long")
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}

	if !upper || !lower || !digit || !special {
		return appErrors.Clone(appErrors.ErrValidation, "password must contain an uppercase letter, a lowercase letter, a number and a special character")
	}
	return nil
}
