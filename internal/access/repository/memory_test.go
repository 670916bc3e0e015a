package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/stockroom/internal/access/domain"
)

func TestMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	admin := &domain.User{Email: "boss@example.com", Role: domain.RoleAdmin,
		Permissions: domain.PermissionStrings(domain.AdminPermissions)}
	require.NoError(t, repo.Create(ctx, admin))
	require.NotEmpty(t, admin.ID)

	require.NoError(t, repo.Create(ctx, &domain.User{Email: "a@example.com", Role: domain.RoleEmployee}))
	require.NoError(t, repo.Create(ctx, &domain.User{Email: "b@example.com", Role: domain.RoleEmployee}))

	err := repo.Create(ctx, &domain.User{Email: "a@example.com", Role: domain.RoleEmployee})
	assert.ErrorIs(t, err, domain.ErrConflict)

	employees, err := repo.FindByRole(ctx, domain.RoleEmployee)
	require.NoError(t, err)
	require.Len(t, employees, 2)
	assert.Equal(t, "a@example.com", employees[0].Email)

	role, err := repo.RoleOf(ctx, admin.ID)
	require.NoError(t, err)
	assert.IsType(t, domain.PermissionedRole{}, role)

	_, err = repo.RoleOf(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	removed, err := repo.DeleteByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, removed.Role)

	_, err = repo.DeleteByEmail(ctx, "a@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
