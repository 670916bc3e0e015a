package command

import (
	"context"

	"github.com/tair/stockroom/internal/access/domain"
	"github.com/tair/stockroom/pkg/logger"
)

// AddEmployeeCommand represents the command to register an employee
type AddEmployeeCommand struct {
	Email    string
	Password string
}

// AddEmployeeHandler handles employee registration by an admin
type AddEmployeeHandler struct {
	repo domain.UserRepository
}

// NewAddEmployeeHandler creates a new add employee handler
func NewAddEmployeeHandler(repo domain.UserRepository) *AddEmployeeHandler {
	return &AddEmployeeHandler{repo: repo}
}

// Handle executes the add employee command. Employees start with no explicit
// permissions; their role name alone lets them edit stock.
func (h *AddEmployeeHandler) Handle(ctx context.Context, cmd AddEmployeeCommand) (*domain.User, error) {
	user, err := newUser(cmd.Email, cmd.Password, domain.RoleEmployee, nil)
	if err != nil {
		return nil, err
	}

	if err := h.repo.Create(ctx, user); err != nil {
		return nil, domain.Remote("create employee", err)
	}

	logger.Info(ctx).
		Str("user_id", user.ID).
		Str("email", user.Email).
		Msg("Employee registered")
	return user, nil
}
