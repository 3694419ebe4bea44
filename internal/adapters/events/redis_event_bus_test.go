package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdvisorySG/mentorship-analytics/internal/domain/entities"
)

func newTestBus(t *testing.T) *RedisEventBus {
	t.Helper()
	// No connection is made until a command is issued.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { client.Close() })
	return newRedisEventBus(client)
}

func TestRedisEventBus_DispatchFansOut(t *testing.T) {
	bus := newTestBus(t)
	bus.mu.Lock()
	a := bus.addSubscriber("workspace:refresh")
	b := bus.addSubscriber("workspace:refresh")
	other := bus.addSubscriber("elsewhere")
	bus.mu.Unlock()

	payload, err := json.Marshal(entities.WorkspaceEvent{
		ID:         "evt-1",
		Origin:     "api-1",
		Generation: "gen-9",
		Timestamp:  time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	bus.dispatch("workspace:refresh", string(payload))

	for _, ch := range []chan *entities.WorkspaceEvent{a, b} {
		select {
		case ev := <-ch:
			assert.Equal(t, "gen-9", ev.Generation)
			assert.Equal(t, "api-1", ev.Origin)
		default:
			t.Fatal("subscriber did not receive event")
		}
	}
	assert.Empty(t, other)
}

func TestRedisEventBus_DispatchSkipsBadPayloadAndFullBuffers(t *testing.T) {
	bus := newTestBus(t)
	bus.mu.Lock()
	ch := bus.addSubscriber("workspace:refresh")
	bus.mu.Unlock()

	bus.dispatch("workspace:refresh", "{not json")
	assert.Empty(t, ch)

	for i := 0; i < cap(ch)+3; i++ {
		bus.dispatch("workspace:refresh", `{"id":"x"}`)
	}
	assert.Len(t, ch, cap(ch))
}

func TestRedisEventBus_RemoveSubscriberClosesChannel(t *testing.T) {
	bus := newTestBus(t)
	bus.mu.Lock()
	ch := bus.addSubscriber("workspace:refresh")
	bus.mu.Unlock()

	bus.removeSubscriber("workspace:refresh", ch)
	_, open := <-ch
	assert.False(t, open)

	require.NoError(t, bus.cleanupChannel("workspace:refresh"))
	require.NoError(t, bus.Close())
}
