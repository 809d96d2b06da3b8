package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversByNameAndWildcard(t *testing.T) {
	bus := NewBus(nil)
	var got []string
	bus.Subscribe(ProspectConverted, func(_ context.Context, evt Event) { got = append(got, "named:"+string(evt.Name)) })
	bus.SubscribeAll(func(_ context.Context, evt Event) { got = append(got, "all:"+string(evt.Name)) })

	evt, err := New(ProspectConverted, map[string]string{"id": "p1"})
	require.NoError(t, err)
	bus.Publish(context.Background(), evt)
	bus.Publish(context.Background(), Event{Name: FollowUpUpdated})

	assert.Equal(t, []string{"named:prospect.converted", "all:prospect.converted", "all:followup.updated"}, got)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus(nil)
	calls := 0
	unsubscribe := bus.Subscribe(FollowUpUpdated, func(context.Context, Event) { calls++ })
	bus.Publish(context.Background(), Event{Name: FollowUpUpdated})
	unsubscribe()
	bus.Publish(context.Background(), Event{Name: FollowUpUpdated})
	assert.Equal(t, 1, calls)
}

func TestBusSurvivesPanickingHandler(t *testing.T) {
	bus := NewBus(nil)
	delivered := false
	bus.Subscribe(CommunicationUpdated, func(context.Context, Event) { panic("boom") })
	bus.Subscribe(CommunicationUpdated, func(context.Context, Event) { delivered = true })

	assert.NotPanics(t, func() { bus.Publish(context.Background(), Event{Name: CommunicationUpdated}) })
	assert.True(t, delivered)
}

func TestEventDecode(t *testing.T) {
	evt, err := New(StudentCreated, struct {
		StudentID string `json:"studentId"`
	}{StudentID: "STU-010524-0001"})
	require.NoError(t, err)

	var payload struct {
		StudentID string `json:"studentId"`
	}
	require.NoError(t, evt.Decode(&payload))
	assert.Equal(t, "STU-010524-0001", payload.StudentID)
	assert.Error(t, Event{Name: StudentCreated}.Decode(&payload))
}

func TestRedisFanoutRelaysBetweenInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	localBus, remoteBus := NewBus(nil), NewBus(nil)
	local := NewRedisFanout(client, "test:events", localBus, nil)
	remote := NewRedisFanout(client, "test:events", remoteBus, nil)
	require.NoError(t, local.Start(ctx))
	require.NoError(t, remote.Start(ctx))

	var (
		mu          sync.Mutex
		localCount  int
		remoteNames []Name
	)
	localBus.SubscribeAll(func(context.Context, Event) {
		mu.Lock()
		localCount++
		mu.Unlock()
	})
	remoteBus.SubscribeAll(func(_ context.Context, evt Event) {
		mu.Lock()
		remoteNames = append(remoteNames, evt.Name)
		mu.Unlock()
	})

	evt, err := New(ProspectConverted, map[string]string{"id": "p1"})
	require.NoError(t, err)
	local.Publish(ctx, evt)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(remoteNames) == 1
	}, time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, localCount, "own events must not echo back")
	assert.Equal(t, []Name{ProspectConverted}, remoteNames)
}
