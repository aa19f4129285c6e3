package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	b := NewBroker()
	topic := topicFor("t1", "ds1")
	ch := b.Subscribe(topic)
	other := b.Subscribe(topicFor("t2", "ds1"))

	evt := Event{Type: EventPlanStarted, Data: map[string]any{"planId": "p1"}}
	b.Publish(topic, evt)

	select {
	case got := <-ch:
		assert.Equal(t, evt, got)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for event")
	}
	select {
	case got := <-other:
		t.Fatalf("event leaked across tenants: %+v", got)
	default:
	}

	b.Unsubscribe(topic, ch)
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after unsubscribe")

	// second unsubscribe and publish without subscribers are no-ops
	b.Unsubscribe(topic, ch)
	b.Publish(topic, evt)
	b.Unsubscribe(topicFor("t2", "ds1"), other)
}

func TestBrokerDropsWhenSubscriberIsSlow(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("x")
	for i := 0; i < 20; i++ {
		b.Publish("x", Event{Type: EventPlanStarted})
	}
	require.Len(t, ch, cap(ch))
	b.Unsubscribe("x", ch)
}

func TestTopicFor(t *testing.T) {
	assert.Equal(t, "t1/inline", topicFor("t1", ""))
	assert.Equal(t, "t1/abc", topicFor("t1", "abc"))
}
