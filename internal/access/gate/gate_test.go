package gate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/stockroom/internal/access/domain"
)

type roleSourceFunc func(ctx context.Context, actorID string) (domain.Role, error)

func (f roleSourceFunc) RoleOf(ctx context.Context, actorID string) (domain.Role, error) {
	return f(ctx, actorID)
}

func TestCanEditStock(t *testing.T) {
	tests := []struct {
		name string
		role domain.Role
		want bool
	}{
		{"employee", domain.SimpleRole{Name: "employee"}, true},
		{"admin", domain.SimpleRole{Name: "admin"}, false},
		{"edit permission", domain.PermissionedRole{Permissions: []domain.Permission{"edit"}}, true},
		{"view permission", domain.PermissionedRole{Permissions: []domain.Permission{"view"}}, false},
		{"permissioned employee", domain.PermissionedRole{Name: "employee"}, true},
		{"admin with edit", domain.PermissionedRole{Name: "admin", Permissions: domain.AdminPermissions}, true},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanEditStock(tt.role))
		})
	}
}

func TestCanManage(t *testing.T) {
	admin := domain.SimpleRole{Name: domain.RoleAdmin}
	employee := domain.SimpleRole{Name: domain.RoleEmployee}
	adder := domain.PermissionedRole{Name: domain.RoleEmployee, Permissions: []domain.Permission{"add"}}

	assert.True(t, CanManageItems(admin, domain.PermissionDelete))
	assert.False(t, CanManageItems(employee, domain.PermissionAdd))
	assert.True(t, CanManageItems(adder, domain.PermissionAdd))
	assert.False(t, CanManageItems(adder, domain.PermissionDelete))

	assert.True(t, CanManageEmployees(admin))
	assert.False(t, CanManageEmployees(adder))
	assert.False(t, CanManageEmployees(nil))
}

func TestResolveRole_Unauthenticated(t *testing.T) {
	g := New(roleSourceFunc(func(context.Context, string) (domain.Role, error) {
		t.Fatal("source must not be called without an actor")
		return nil, nil
	}), 0)

	_, err := g.ResolveRole(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	state, stateErr := g.State()
	assert.Equal(t, StateError, state)
	assert.ErrorIs(t, stateErr, domain.ErrUnauthenticated)
	assert.ErrorIs(t, g.Authorize(ActionEditStock), domain.ErrUnauthenticated)
}

func TestResolveRole_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"missing document", domain.ErrNotFound, domain.ErrNotFound},
		{"transport", errors.New("connection reset by peer"), domain.ErrRemoteUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(roleSourceFunc(func(context.Context, string) (domain.Role, error) {
				return nil, tt.err
			}), 0)

			_, err := g.ResolveRole(context.Background(), "actor-1")
			assert.ErrorIs(t, err, tt.wantErr)
			state, _ := g.State()
			assert.Equal(t, StateError, state)
		})
	}
}

func TestResolveRole_RetryFromErrorThenTerminal(t *testing.T) {
	calls := 0
	g := New(roleSourceFunc(func(context.Context, string) (domain.Role, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("timeout")
		}
		return domain.SimpleRole{Name: domain.RoleEmployee}, nil
	}), 0)

	ctx := context.Background()
	_, err := g.ResolveRole(ctx, "actor-1")
	require.Error(t, err)

	role, err := g.ResolveRole(ctx, "actor-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, role.RoleName())

	_, err = g.ResolveRole(ctx, "actor-1")
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "resolved role is not fetched again")

	state, _ := g.State()
	assert.Equal(t, StateResolved, state)
	assert.Equal(t, "actor-1", g.ActorID())
}

func TestAuthorize(t *testing.T) {
	g := New(roleSourceFunc(func(context.Context, string) (domain.Role, error) {
		return domain.SimpleRole{Name: domain.RoleEmployee}, nil
	}), 0)
	_, err := g.ResolveRole(context.Background(), "actor-1")
	require.NoError(t, err)

	assert.NoError(t, g.Authorize(ActionEditStock))
	assert.ErrorIs(t, g.Authorize(ActionAddItem), domain.ErrPermissionDenied)
	assert.ErrorIs(t, g.Authorize(ActionRemoveItem), domain.ErrPermissionDenied)
	assert.ErrorIs(t, g.Authorize(ActionManageEmployees), domain.ErrPermissionDenied)
}
