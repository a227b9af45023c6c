package repository

import (
	"context"
	"time"
)

// Token kinds stored in the one-shot token store.
const (
	TokenConfirmEmail = "email:verify:token:"
	TokenResetPwd     = "pwd:reset:token:"
)

// TokenStore holds short-lived single-use tokens (email confirmation,
// password reset) keyed by kind+token and resolving to a user id.
// Consume returns the user id and deletes the token in one step, so a
// token can never be redeemed twice.
type TokenStore interface {
	Save(ctx context.Context, kind, token, userID string, ttl time.Duration) error
	Peek(ctx context.Context, kind, token string) (string, error)
	Consume(ctx context.Context, kind, token string) (string, error)
}
