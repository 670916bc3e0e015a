package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/stockroom/internal/access/domain"
	"github.com/tair/stockroom/internal/access/repository"
)

func TestListEmployees(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryUserRepository()
	h := NewListEmployeesHandler(repo)

	users, err := h.Handle(ctx)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	require.NoError(t, repo.Create(ctx, &domain.User{Email: "boss@example.com", Role: domain.RoleAdmin}))
	require.NoError(t, repo.Create(ctx, &domain.User{Email: "a@example.com", Role: domain.RoleEmployee}))

	users, err = h.Handle(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "a@example.com", users[0].Email)
}
