package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/shop-portal/internal/events"
	"github.com/spec-kit/shop-portal/internal/service"
)

func TestNotificationWorker_DeliversAndDrains(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var delivered []string
	w := NewNotificationWorker(nil, 4, func(_ context.Context, n service.Notification) error {
		mu.Lock()
		defer mu.Unlock()
		delivered = append(delivered, n.Event.EntityID)
		return errors.New("ignored")
	})

	require.True(t, w.Enqueue(service.Notification{Channel: service.ChannelEmail, Event: events.Event{EntityID: "o-1"}}))
	require.True(t, w.Enqueue(service.Notification{Channel: service.ChannelEmail, Event: events.Event{EntityID: "o-2"}}))

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	cancel()
	w.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.ElementsMatch(t, []string{"o-1", "o-2"}, delivered)
}

func TestNotificationWorker_EnqueueNeverBlocks(t *testing.T) {
	t.Parallel()

	w := NewNotificationWorker(nil, 1, func(context.Context, service.Notification) error { return nil })
	require.True(t, w.Enqueue(service.Notification{}))
	require.False(t, w.Enqueue(service.Notification{}))
}

type countingExpirer struct {
	calls atomic.Int32
}

func (c *countingExpirer) ExpireDue(context.Context, time.Time) (int, error) {
	c.calls.Add(1)
	return 1, nil
}

func TestRunQuoteExpiry_TicksUntilCancelled(t *testing.T) {
	t.Parallel()

	expirer := &countingExpirer{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunQuoteExpiry(ctx, expirer, 5*time.Millisecond, nil)
		close(done)
	}()

	require.Eventually(t, func() bool { return expirer.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
