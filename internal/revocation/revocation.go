// Package revocation holds the token revocation list consulted by the auth
// middleware. Entries are keyed by jti and expire with the token they revoke.
package revocation

import (
	"context"
	"fmt"
	"time"

	"bondbook/pkg/platform/sentinel"
)

// List records revoked token ids.
type List interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Checker adapts a List to the auth middleware's TokenRevocationChecker.
type Checker struct {
	list List
}

func NewChecker(list List) *Checker {
	return &Checker{list: list}
}

func (c *Checker) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return c.list.IsRevoked(ctx, jti)
}

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}
