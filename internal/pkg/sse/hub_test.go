package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesOnlyTheEmployee(t *testing.T) {
	hub := NewHub()

	a, cleanupA := hub.Subscribe("emp-a")
	defer cleanupA()
	b, cleanupB := hub.Subscribe("emp-b")
	defer cleanupB()

	hub.Publish(Event{EmployeeID: "emp-a", Name: EventTimeStatusChanged, Data: "clocked in"})

	select {
	case ev := <-a:
		assert.Equal(t, EventTimeStatusChanged, ev.Name)
		assert.Equal(t, "clocked in", ev.Data)
	default:
		t.Fatal("expected event for emp-a")
	}

	select {
	case ev := <-b:
		t.Fatalf("unexpected event for emp-b: %+v", ev)
	default:
	}
}

func TestHub_CleanupRemovesSubscriber(t *testing.T) {
	hub := NewHub()

	ch, cleanup := hub.Subscribe("emp-a")
	_, cleanup2 := hub.Subscribe("emp-a")
	assert.Equal(t, 2, hub.SubscriberCount("emp-a"))
	assert.Equal(t, 2, hub.TotalSubscribers())

	cleanup()
	cleanup()
	assert.Equal(t, 1, hub.SubscriberCount("emp-a"))

	_, open := <-ch
	assert.False(t, open)

	cleanup2()
	assert.Equal(t, 0, hub.TotalSubscribers())
}

func TestHub_FullSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe("emp-a")
	defer cleanup()

	for i := 0; i < subscriberBuffer+5; i++ {
		hub.Publish(Event{EmployeeID: "emp-a", Name: EventTimeStatusChanged, Data: i})
	}

	require.Len(t, ch, subscriberBuffer)
	first := <-ch
	assert.Equal(t, 0, first.Data)
}
