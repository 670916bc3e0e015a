package command

import (
	"context"
	"time"

	"github.com/tair/stockroom/internal/access/domain"
	"github.com/tair/stockroom/pkg/logger"
)

// LogoutUserCommand represents the command to end a login
type LogoutUserCommand struct {
	ActorID   string
	TokenID   string
	ExpiresAt time.Time
}

// LogoutUserHandler handles logout
type LogoutUserHandler struct {
	revoker  TokenRevoker
	sessions SessionCloser
}

// NewLogoutUserHandler creates a new logout handler. revoker and sessions may
// be nil.
func NewLogoutUserHandler(revoker TokenRevoker, sessions SessionCloser) *LogoutUserHandler {
	return &LogoutUserHandler{revoker: revoker, sessions: sessions}
}

// Handle revokes the token and closes the actor's session
func (h *LogoutUserHandler) Handle(ctx context.Context, cmd LogoutUserCommand) error {
	if cmd.ActorID == "" {
		return domain.ErrUnauthenticated
	}

	if h.revoker != nil && cmd.TokenID != "" {
		if err := h.revoker.Revoke(ctx, cmd.TokenID, time.Until(cmd.ExpiresAt)); err != nil {
			return domain.Remote("revoke token", err)
		}
	}
	if h.sessions != nil {
		h.sessions.Close(cmd.ActorID)
	}

	logger.Info(ctx).Str("user_id", cmd.ActorID).Msg("User logged out")
	return nil
}
