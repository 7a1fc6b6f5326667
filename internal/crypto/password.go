package crypto

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrHashingFailed = errors.New("password hashing failed")

const bcryptCost = 10

const specialChars = "!@#$%^&*(),.?\":{}|<>"

// HashPassword hashes a raw password with bcrypt. The salt is embedded
// in the returned hash string.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", ErrHashingFailed
	}
	return string(hash), nil
}

// CheckPassword reports whether the raw password matches the stored
// hash. The comparison runs in constant time.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// StrengthResult is the outcome of scoring a candidate password.
type StrengthResult struct {
	Valid  bool     `json:"isValid"`
	Errors []string `json:"errors"`
	Score  int      `json:"score"` // 0-100
}

// ValidatePasswordStrength scores a candidate password. The gate applies
// at registration only; login must keep accepting passwords that were
// stored before the policy existed.
func ValidatePasswordStrength(password string) StrengthResult {
	var errs []string
	score := 0

	switch {
	case len(password) < 6:
		errs = append(errs, "password must be at least 6 characters")
	case len(password) >= 8:
		score += 25
	default:
		score += 15
	}

	if strings.ContainsAny(password, "0123456789") {
		score += 25
	} else {
		errs = append(errs, "password must contain at least one digit")
	}

	if strings.ContainsAny(password, "abcdefghijklmnopqrstuvwxyz") {
		score += 25
	}
	if strings.ContainsAny(password, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		score += 15
	}
	if strings.ContainsAny(password, specialChars) {
		score += 10
	}

	if score > 100 {
		score = 100
	}

	return StrengthResult{
		Valid:  len(errs) == 0 && score >= 50,
		Errors: errs,
		Score:  score,
	}
}
