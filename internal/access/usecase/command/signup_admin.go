package command

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/tair/stockroom/internal/access/domain"
	"github.com/tair/stockroom/pkg/auth"
	"github.com/tair/stockroom/pkg/logger"
)

const minPasswordLength = 6

// SignupAdminCommand represents the command to register an administrator
type SignupAdminCommand struct {
	Email    string
	Password string
}

// SignupAdminHandler handles administrator signup
type SignupAdminHandler struct {
	repo domain.UserRepository
}

// NewSignupAdminHandler creates a new signup admin handler
func NewSignupAdminHandler(repo domain.UserRepository) *SignupAdminHandler {
	return &SignupAdminHandler{repo: repo}
}

// Handle executes the signup admin command
func (h *SignupAdminHandler) Handle(ctx context.Context, cmd SignupAdminCommand) (*domain.User, error) {
	user, err := newUser(cmd.Email, cmd.Password, domain.RoleAdmin, domain.AdminPermissions)
	if err != nil {
		return nil, err
	}

	if err := h.repo.Create(ctx, user); err != nil {
		return nil, domain.Remote("create admin", err)
	}

	logger.Info(ctx).
		Str("user_id", user.ID).
		Str("email", user.Email).
		Msg("Admin registered")
	return user, nil
}

func newUser(email, password, role string, perms []domain.Permission) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.Invalid("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.Invalid("email %q is not valid", email)
	}
	if len(password) < minPasswordLength {
		return nil, domain.Invalid("password must be at least %d characters", minPasswordLength)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return &domain.User{
		Email:       email,
		Password:    hashed,
		Role:        role,
		Permissions: domain.PermissionStrings(perms),
	}, nil
}
