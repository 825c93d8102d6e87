package catalog

import (
	"context"
	"time"

	"roomreserve/internal/domain"
	"roomreserve/internal/repository"
)

// Service is the read-only room surface. Rooms and locations are managed
// out of band (seed tooling, admin SQL), so there is no write path here.
type Service struct {
	rooms *repository.RoomRepository
	now   func() time.Time
}

func NewService(rooms *repository.RoomRepository) *Service {
	return &Service{rooms: rooms, now: time.Now}
}

func (s *Service) ListRooms(ctx context.Context, f repository.RoomFilters) ([]domain.Room, error) {
	return s.rooms.List(ctx, f)
}

func (s *Service) GetRoom(ctx context.Context, id int64) (*domain.Room, error) {
	return s.rooms.GetByID(ctx, id)
}

// Stats reports current room occupancy for the manager dashboard.
func (s *Service) Stats(ctx context.Context) (*repository.RoomStats, error) {
	return s.rooms.Stats(ctx, s.now().UTC())
}
