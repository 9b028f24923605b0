package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/myquiz/backend/internal/quiz"
)

// DefaultCost is the bcrypt work factor for stored admin passwords.
const DefaultCost = 10

func HashPassword(plain string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(h), nil
}

func verifyPassword(stored quiz.Password, candidate string) bool {
	if stored.IsHashed() {
		return bcrypt.CompareHashAndPassword([]byte(stored.Value), []byte(candidate)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored.Value), []byte(candidate)) == 1
}
