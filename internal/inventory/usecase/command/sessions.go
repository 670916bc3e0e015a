package command

import (
	"context"

	"github.com/tair/stockroom/internal/inventory/session"
)

// SessionOpener returns the acting user's session, opening it on first use
type SessionOpener interface {
	Open(ctx context.Context, actorID string) (*session.Session, error)
}
