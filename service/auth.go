package service

import (
	"errors"
	"time"

	"github.com/beka-birhanu/vinom-arena/identity"
	"github.com/beka-birhanu/vinom-arena/service/i"
)

// DefaultTokenTTL is how long an operator token stays valid.
const DefaultTokenTTL = 12 * time.Hour

var ErrInvalidCredentials = errors.New("invalid operator password")

var _ i.OperatorAuthenticator = &Auth{}

// Auth exchanges the operator password for a signed admin token.
type Auth struct {
	operator  *identity.Operator
	tokenizer i.Tokenizer
	tokenTTL  time.Duration
}

// NewAuth creates an operator authenticator. A non-positive ttl means DefaultTokenTTL.
func NewAuth(op *identity.Operator, tokenizer i.Tokenizer, ttl time.Duration) *Auth {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Auth{
		operator:  op,
		tokenizer: tokenizer,
		tokenTTL:  ttl,
	}
}

func (a *Auth) SignIn(password string) (string, error) {
	if !a.operator.VerifyPassword(password) {
		return "", ErrInvalidCredentials
	}

	return a.tokenizer.Generate(map[string]interface{}{
		"role": identity.RoleOperator,
	}, a.tokenTTL)
}
