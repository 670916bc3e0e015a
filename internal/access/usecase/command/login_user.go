package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tair/stockroom/internal/access/domain"
	"github.com/tair/stockroom/pkg/auth"
	"github.com/tair/stockroom/pkg/logger"
)

// LoginUserCommand represents the command to login a user
type LoginUserCommand struct {
	Email    string
	Password string
}

// LoginResponse represents the response after successful login
type LoginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// LoginUserHandler handles user login command
type LoginUserHandler struct {
	repo   domain.UserRepository
	tokens TokenIssuer
}

// NewLoginUserHandler creates a new login user handler
func NewLoginUserHandler(repo domain.UserRepository, tokens TokenIssuer) *LoginUserHandler {
	return &LoginUserHandler{repo: repo, tokens: tokens}
}

// Handle executes the login user command
func (h *LoginUserHandler) Handle(ctx context.Context, cmd LoginUserCommand) (*LoginResponse, error) {
	email := strings.TrimSpace(cmd.Email)
	if email == "" {
		return nil, domain.Invalid("email is required")
	}
	if cmd.Password == "" {
		return nil, domain.Invalid("password is required")
	}

	user, err := h.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthenticated)
		}
		return nil, domain.Remote("find user", err)
	}

	if !auth.CheckPassword(user.Password, cmd.Password) {
		logger.Warn(ctx).Str("email", email).Msg("Login rejected")
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthenticated)
	}

	token, err := h.tokens.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	logger.Info(ctx).Str("user_id", user.ID).Msg("User logged in")
	return &LoginResponse{Token: token, User: user}, nil
}
