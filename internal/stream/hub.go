// Package stream broadcasts booking lifecycle events to WebSocket subscribers
// so calendars refresh without polling.
package stream

import (
	"log/slog"
	"sync"
	"time"

	"github.com/nguyen2966/hcmut-rooms-booking/internal/application"
)

// Event is the wire form of a booking lifecycle notification.
type Event struct {
	Type      string    `json:"type"`
	BookingID string    `json:"booking_id"`
	RoomID    string    `json:"room_id"`
	UserID    string    `json:"user_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Status    string    `json:"status"`
	At        time.Time `json:"at"`
}

// subscriberBuffer bounds how many events a slow subscriber may lag behind
// before it starts losing notifications.
const subscriberBuffer = 64

// Hub fans booking events out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the event and resyncs by listing.
type Hub struct {
	logger *slog.Logger

	mu          sync.RWMutex
	subscribers map[chan Event]struct{}
	closed      bool
}

// NewHub constructs an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:      logger,
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe registers a new subscriber and returns its event channel together
// with a cancel function. The channel is closed on cancel or hub shutdown.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
	}
	return ch, cancel
}

// PublishBookingEvent implements application.EventPublisher.
func (h *Hub) PublishBookingEvent(event application.BookingEvent) {
	if h == nil {
		return
	}
	wire := Event{
		Type:      event.Type,
		BookingID: event.Booking.ID,
		RoomID:    event.Booking.RoomID,
		UserID:    event.Booking.UserID,
		Start:     event.Booking.Start,
		End:       event.Booking.End,
		Status:    event.Booking.Status,
		At:        event.At,
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	for ch := range h.subscribers {
		select {
		case ch <- wire:
		default:
			h.logger.Warn("dropping stream event for slow subscriber", "type", wire.Type, "booking_id", wire.BookingID)
		}
	}
}

// SubscriberCount reports the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Close detaches every subscriber and rejects future subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for ch := range h.subscribers {
		delete(h.subscribers, ch)
		close(ch)
	}
}
