// Package identity holds the arena operator credential.
package identity

import (
	"errors"

	"github.com/nbutton23/zxcvbn-go"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordStrengthScore = 3

	// DefaultHashCost is the bcrypt cost used outside of tests.
	DefaultHashCost = 14

	// RoleOperator is the role claim carried by operator tokens.
	RoleOperator = "operator"
)

var (
	ErrEmptyPassword = errors.New("operator password is not set")
	ErrWeakPassword  = errors.New("weak operator password")
)

// Operator is the single account allowed to drive the arena over the admin API.
// Only the bcrypt hash of its password is kept in memory.
type Operator struct {
	PasswordHash string
}

// OperatorConfig holds parameters for creating an Operator.
type OperatorConfig struct {
	PlainPassword string
	HashCost      int // Zero means DefaultHashCost.
}

// NewOperator checks the password strength and hashes it.
func NewOperator(config OperatorConfig) (*Operator, error) {
	if err := validatePassword(config.PlainPassword); err != nil {
		return nil, err
	}

	cost := config.HashCost
	if cost == 0 {
		cost = DefaultHashCost
	}
	passwordHash, err := hashPassword(config.PlainPassword, cost)
	if err != nil {
		return nil, err
	}

	return &Operator{PasswordHash: passwordHash}, nil
}

// VerifyPassword verifies if the given password matches the stored hash.
func (o *Operator) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(o.PasswordHash), []byte(password))
	return err == nil
}

// validatePassword checks the strength of the password.
func validatePassword(password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	result := zxcvbn.PasswordStrength(password, nil)
	if result.Score < minPasswordStrengthScore {
		return ErrWeakPassword
	}
	return nil
}

// hashPassword generates a bcrypt hash for the given password.
func hashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}
