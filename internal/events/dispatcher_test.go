package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInMemoryDispatcher_DeliversToEverySubscriber(t *testing.T) {
	t.Parallel()

	d := NewInMemoryDispatcher(nil)
	var got []string
	d.Subscribe(EventOrderCreated, func(_ context.Context, e Event) error {
		got = append(got, "first:"+e.EntityID)
		return errors.New("boom")
	})
	d.Subscribe(EventOrderCreated, func(_ context.Context, e Event) error {
		got = append(got, "second:"+e.EntityID)
		return nil
	})
	d.Subscribe(EventQuoteCreated, func(_ context.Context, e Event) error {
		got = append(got, "quote:"+e.EntityID)
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventOrderCreated, EntityID: "o-1"})
	require.NoError(t, err)
	require.Equal(t, []string{"first:o-1", "second:o-1"}, got)
}
