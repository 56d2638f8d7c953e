package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) *Broker {
	b := NewBroker()
	b.Start()
	t.Cleanup(b.Stop)
	return b
}

func TestPublishDelivers(t *testing.T) {
	b := newTestBroker(t)

	sub, err := b.Subscribe("sync_events")
	require.NoError(t, err)

	require.NoError(t, b.Send("sync_events", "sync", "payload"))

	select {
	case msg := <-sub.C():
		assert.Equal(t, "sync_events", msg.Channel)
		assert.Equal(t, "sync", msg.Name)
		assert.Equal(t, "payload", msg.Payload)
		assert.False(t, msg.SentAt.IsZero())
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestChannelsAreIsolated(t *testing.T) {
	b := newTestBroker(t)

	syncSub, err := b.Subscribe("sync_events")
	require.NoError(t, err)
	otherSub, err := b.Subscribe("other")
	require.NoError(t, err)

	require.NoError(t, b.Send("sync_events", "sync", 1))

	select {
	case <-syncSub.C():
	case <-time.After(time.Second):
		t.Fatal("subscriber on the sent channel got nothing")
	}

	select {
	case <-otherSub.C():
		t.Fatal("subscriber on a different channel received the message")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAllSubscribersReceive(t *testing.T) {
	b := newTestBroker(t)

	var subs []*Subscription
	for i := 0; i < 3; i++ {
		sub, err := b.Subscribe("sync_events")
		require.NoError(t, err)
		subs = append(subs, sub)
	}
	assert.Equal(t, 3, b.SubscriberCount("sync_events"))

	require.NoError(t, b.Send("sync_events", "sync", "x"))

	for i, sub := range subs {
		select {
		case <-sub.C():
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d missed the broadcast", i)
		}
	}
}

func TestUnsubscribeClosesDone(t *testing.T) {
	b := newTestBroker(t)

	sub, err := b.Subscribe("sync_events")
	require.NoError(t, err)

	sub.Unsubscribe()

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after unsubscribe")
	}
	assert.Equal(t, 0, b.SubscriberCount("sync_events"))
}

func TestStopDropsSubscriptionsAndRejectsSends(t *testing.T) {
	b := NewBroker()
	b.Start()

	sub, err := b.Subscribe("sync_events")
	require.NoError(t, err)

	b.Stop()

	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after broker stop")
	}

	assert.ErrorIs(t, b.Send("sync_events", "sync", nil), ErrBrokerStopped)

	_, err = b.Subscribe("sync_events")
	assert.ErrorIs(t, err, ErrBrokerStopped)

	// A second Stop is a no-op.
	b.Stop()
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := newTestBroker(t)

	sub, err := b.Subscribe("sync_events")
	require.NoError(t, err)

	// Overfill the per-subscriber buffer without draining.
	for i := 0; i < 120; i++ {
		require.NoError(t, b.Send("sync_events", "sync", i))
	}

	// Wait until every message is settled: 50 buffered, 70 dropped.
	require.Eventually(t, func() bool {
		return b.Dropped() == 70
	}, time.Second, time.Millisecond, "overflow should count drops")

	// The subscriber still has a full buffer to drain.
	drained := 0
	for {
		select {
		case <-sub.C():
			drained++
			continue
		case <-time.After(100 * time.Millisecond):
		}
		break
	}
	assert.Equal(t, 50, drained, "buffer holds exactly its capacity")
}
