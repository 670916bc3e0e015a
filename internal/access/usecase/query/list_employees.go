package query

import (
	"context"

	"github.com/tair/stockroom/internal/access/domain"
)

// ListEmployeesHandler lists employee accounts
type ListEmployeesHandler struct {
	repo domain.UserRepository
}

// NewListEmployeesHandler creates a new list employees handler
func NewListEmployeesHandler(repo domain.UserRepository) *ListEmployeesHandler {
	return &ListEmployeesHandler{repo: repo}
}

// Handle returns every user whose role is employee
func (h *ListEmployeesHandler) Handle(ctx context.Context) ([]domain.User, error) {
	users, err := h.repo.FindByRole(ctx, domain.RoleEmployee)
	if err != nil {
		return nil, domain.Remote("list employees", err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}
