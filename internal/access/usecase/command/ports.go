package command

import (
	"context"
	"time"
)

// TokenIssuer issues session tokens
type TokenIssuer interface {
	GenerateToken(actorID, email, role string) (string, error)
}

// TokenRevoker denies tokens for the rest of their lifetime
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
}

// SessionCloser ends an actor's live inventory session
type SessionCloser interface {
	Close(actorID string)
}

// RoleInvalidator forgets a cached role
type RoleInvalidator interface {
	Invalidate(ctx context.Context, actorID string) error
}
