package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest input bcrypt hashes without truncation
const MaxPasswordBytes = 72

// BcryptCost is the hashing cost for stored passwords. Tests lower it.
var BcryptCost = 12

var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

var (
	burnOnce sync.Once
	burnHash []byte
)

// HashPassword hashes a password for storage
func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// BurnCompare spends one bcrypt comparison on a throwaway hash. Login calls it
// for unknown emails so they take as long as a wrong password.
func BurnCompare(password string) {
	burnOnce.Do(func() {
		burnHash, _ = bcrypt.GenerateFromPassword([]byte("unused-account"), BcryptCost)
	})
	_ = bcrypt.CompareHashAndPassword(burnHash, []byte(password))
}
