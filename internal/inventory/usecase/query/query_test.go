package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accessdomain "github.com/tair/stockroom/internal/access/domain"
	accessrepo "github.com/tair/stockroom/internal/access/repository"
	"github.com/tair/stockroom/internal/inventory/domain"
	"github.com/tair/stockroom/internal/inventory/feed"
	"github.com/tair/stockroom/internal/inventory/repository"
	"github.com/tair/stockroom/internal/inventory/session"
)

func TestListAndGetItems(t *testing.T) {
	ctx := context.Background()
	hub := feed.NewHub(64)
	store := repository.NewMemoryItemRepository(hub)
	users := accessrepo.NewMemoryUserRepository()
	sessions := session.NewManager(store, hub, users, session.Config{})
	t.Cleanup(sessions.CloseAll)

	employee := &accessdomain.User{Email: "a@example.com", Role: accessdomain.RoleEmployee}
	require.NoError(t, users.Create(ctx, employee))

	burger := &domain.Item{Name: "Cheese Burger", Stock: 3}
	require.NoError(t, store.Create(ctx, burger))
	require.NoError(t, store.Create(ctx, &domain.Item{Name: "Fries", Stock: 1}))

	list := NewListItemsHandler(sessions)
	all, err := list.Handle(ctx, ListItemsQuery{ActorID: employee.ID})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := list.Handle(ctx, ListItemsQuery{ActorID: employee.ID, Search: "BURGER"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, burger.ID, filtered[0].ID)

	get := NewGetItemHandler(sessions)
	item, err := get.Handle(ctx, GetItemQuery{ActorID: employee.ID, ItemID: burger.ID})
	require.NoError(t, err)
	assert.Equal(t, 3, item.Stock)

	_, err = get.Handle(ctx, GetItemQuery{ActorID: employee.ID, ItemID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
