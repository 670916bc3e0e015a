package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/tair/stockroom/internal/access/domain"
	"github.com/tair/stockroom/pkg/logger"
)

// RemoveEmployeeCommand represents the command to remove an employee by email
type RemoveEmployeeCommand struct {
	Email string
}

// RemoveEmployeeHandler handles employee removal
type RemoveEmployeeHandler struct {
	repo     domain.UserRepository
	sessions SessionCloser
	roles    RoleInvalidator
}

// NewRemoveEmployeeHandler creates a new remove employee handler. sessions
// and roles may be nil.
func NewRemoveEmployeeHandler(repo domain.UserRepository, sessions SessionCloser, roles RoleInvalidator) *RemoveEmployeeHandler {
	return &RemoveEmployeeHandler{repo: repo, sessions: sessions, roles: roles}
}

// Handle executes the remove employee command
func (h *RemoveEmployeeHandler) Handle(ctx context.Context, cmd RemoveEmployeeCommand) error {
	email := strings.TrimSpace(cmd.Email)
	if email == "" {
		return domain.Invalid("email is required")
	}

	user, err := h.repo.FindByEmail(ctx, email)
	if err != nil {
		return domain.Remote("find employee", err)
	}
	if user.Role != domain.RoleEmployee {
		return fmt.Errorf("%s is not an employee: %w", email, domain.ErrPermissionDenied)
	}

	if _, err := h.repo.DeleteByEmail(ctx, email); err != nil {
		return domain.Remote("delete employee", err)
	}

	if h.roles != nil {
		if err := h.roles.Invalidate(ctx, user.ID); err != nil {
			logger.Warn(ctx).Err(err).Str("user_id", user.ID).Msg("Failed to invalidate cached role")
		}
	}
	if h.sessions != nil {
		h.sessions.Close(user.ID)
	}

	logger.Info(ctx).
		Str("user_id", user.ID).
		Str("email", email).
		Msg("Employee removed")
	return nil
}
