package schedule

import (
	"time"

	"roomreserve/internal/domain"
)

const (
	EventBookingCreated   = "booking.created"
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"
	EventBookingCompleted = "booking.completed"
)

// Event is the wire shape pushed to schedule watchers.
type Event struct {
	Type          string    `json:"type"`
	BookingID     int64     `json:"booking_id"`
	RoomID        int64     `json:"room_id"`
	Status        string    `json:"status"`
	StartDatetime time.Time `json:"start_datetime"`
	EndDatetime   time.Time `json:"end_datetime"`
	At            time.Time `json:"at"`
}

// Sink adapts the hub to the booking service's event contract.
type Sink struct {
	hub *Hub
	now func() time.Time
}

func NewSink(hub *Hub) *Sink {
	return &Sink{hub: hub, now: time.Now}
}

func (s *Sink) BookingCreated(b *domain.Booking)   { s.emit(EventBookingCreated, b) }
func (s *Sink) BookingConfirmed(b *domain.Booking) { s.emit(EventBookingConfirmed, b) }
func (s *Sink) BookingCancelled(b *domain.Booking) { s.emit(EventBookingCancelled, b) }
func (s *Sink) BookingCompleted(b *domain.Booking) { s.emit(EventBookingCompleted, b) }

func (s *Sink) emit(eventType string, b *domain.Booking) {
	s.hub.Broadcast(Event{
		Type:          eventType,
		BookingID:     b.ID,
		RoomID:        b.RoomID,
		Status:        string(b.Status),
		StartDatetime: b.StartDatetime,
		EndDatetime:   b.EndDatetime,
		At:            s.now().UTC(),
	})
}
