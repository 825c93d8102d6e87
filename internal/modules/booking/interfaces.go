package booking

import (
	"context"
	"time"

	"roomreserve/internal/domain"
	"roomreserve/internal/repository"
)

// BookingRepository is the persistence collaborator. Reserve is the conflict
// guard: a race-free check-and-insert scoped per room.
type BookingRepository interface {
	Reserve(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	ApplyTransition(ctx context.Context, b *domain.Booking, from domain.BookingStatus) error
	Deactivate(ctx context.Context, id int64) error
	List(ctx context.Context, f repository.Filters) ([]domain.Booking, error)
	ListBlockingForRoom(ctx context.Context, roomID int64, from, to time.Time) ([]domain.Booking, error)
}

// RoomRepository is the catalog collaborator.
type RoomRepository interface {
	Exists(ctx context.Context, roomID int64) (exists bool, capacity int, err error)
}

// EventSink receives booking lifecycle events. Implementations must not
// block; delivery is best-effort and never affects the operation outcome.
type EventSink interface {
	BookingCreated(b *domain.Booking)
	BookingConfirmed(b *domain.Booking)
	BookingCancelled(b *domain.Booking)
	BookingCompleted(b *domain.Booking)
}
