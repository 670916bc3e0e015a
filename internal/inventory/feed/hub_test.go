package feed

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/stockroom/internal/inventory/domain"
)

func event(id string) domain.ChangeEvent {
	return domain.ChangeEvent{ID: id, Kind: domain.ChangeModified, Item: domain.Item{ID: "item-1"}}
}

func TestHub_DeliversInPublishOrder(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(16)

	a, err := hub.Subscribe()
	require.NoError(t, err)
	b, err := hub.Subscribe()
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, hub.PublishChange(ctx, event(fmt.Sprint(i))))
	}

	for _, sub := range []domain.Subscription{a, b} {
		for i := 0; i < 5; i++ {
			got := <-sub.Events()
			assert.Equal(t, fmt.Sprint(i), got.ID)
		}
	}
}

func TestHub_CloseIsIdempotent(t *testing.T) {
	hub := NewHub(4)
	sub, err := hub.Subscribe()
	require.NoError(t, err)
	require.Equal(t, 1, hub.Len())

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	assert.Equal(t, 0, hub.Len())
	assert.NoError(t, sub.Err())

	_, open := <-sub.Events()
	assert.False(t, open)
}

func TestHub_LaggedSubscriberIsDropped(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(2)

	slow, err := hub.Subscribe()
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, hub.PublishChange(ctx, event(fmt.Sprint(i))))
	}

	assert.Equal(t, 0, hub.Len())
	assert.ErrorIs(t, slow.Err(), domain.ErrSubscriberLagged)

	// buffered events are still drained before the channel reports closed
	var drained int
	for range slow.Events() {
		drained++
	}
	assert.Equal(t, 2, drained)
}

func TestHub_ClosedHubRejects(t *testing.T) {
	hub := NewHub(2)
	sub, err := hub.Subscribe()
	require.NoError(t, err)

	hub.Close()

	_, open := <-sub.Events()
	assert.False(t, open)
	_, err = hub.Subscribe()
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	assert.ErrorIs(t, hub.PublishChange(context.Background(), event("x")), domain.ErrRemoteUnavailable)
}
