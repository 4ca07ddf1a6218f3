package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"todo/internal/apperror"
)

// bcrypt refuses inputs over 72 bytes.
var errPasswordTooLong = apperror.InvalidField("password", "The password field must not be greater than 72 characters.")

type PasswordHasher struct {
	cost int
	// dummy is compared against when no user matches, so a failed login
	// costs the same with or without an account behind the email.
	dummy []byte
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	return &PasswordHasher{cost: cost, dummy: dummy}
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", errPasswordTooLong
	}
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Check compares in constant time. An empty hash still burns a bcrypt
// comparison.
func (h *PasswordHasher) Check(hash, password string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
