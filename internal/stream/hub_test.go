package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyen2966/hcmut-rooms-booking/internal/application"
	"github.com/nguyen2966/hcmut-rooms-booking/internal/testfixtures"
)

func sampleEvent(id string) application.BookingEvent {
	start := testfixtures.ReferenceTime().Add(time.Hour)
	return application.BookingEvent{
		Type: application.BookingEventCreated,
		Booking: application.Booking{
			ID:     id,
			RoomID: "room-1",
			UserID: "user-1",
			Start:  start,
			End:    start.Add(time.Hour),
			Status: application.BookingStatusBooked,
		},
		At: start,
	}
}

func TestHub_PublishReachesEverySubscriber(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil)
	first, cancelFirst := hub.Subscribe()
	second, cancelSecond := hub.Subscribe()
	defer cancelFirst()
	defer cancelSecond()

	hub.PublishBookingEvent(sampleEvent("b1"))

	for _, ch := range []<-chan Event{first, second} {
		select {
		case event := <-ch:
			assert.Equal(t, "booking_created", event.Type)
			assert.Equal(t, "b1", event.BookingID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestHub_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil)
	events, cancel := hub.Subscribe()
	defer cancel()

	ids := testfixtures.NewIDGenerator("booking")
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer+10; i++ {
			hub.PublishBookingEvent(sampleEvent(ids.Next()))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	// The buffer is full; the overflow was dropped.
	require.Len(t, events, subscriberBuffer)
}

func TestHub_CancelUnsubscribes(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil)
	events, cancel := hub.Subscribe()
	require.Equal(t, 1, hub.SubscriberCount())

	cancel()
	require.Equal(t, 0, hub.SubscriberCount())

	_, open := <-events
	assert.False(t, open, "channel must be closed after cancel")

	// A second cancel is harmless.
	cancel()
}

func TestHub_CloseDetachesSubscribers(t *testing.T) {
	t.Parallel()

	hub := NewHub(nil)
	events, cancel := hub.Subscribe()
	defer cancel()

	hub.Close()

	_, open := <-events
	assert.False(t, open, "channel must be closed after hub shutdown")

	late, lateCancel := hub.Subscribe()
	defer lateCancel()
	_, open = <-late
	assert.False(t, open, "subscriptions after shutdown must be closed immediately")

	// Publishing after close is a no-op.
	hub.PublishBookingEvent(sampleEvent("b2"))
}
