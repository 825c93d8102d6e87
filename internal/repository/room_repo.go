package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"roomreserve/internal/bookingerr"
	"roomreserve/internal/domain"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Exists is the catalog collaborator contract consumed by the booking
// service: whether the room is usable, and its capacity for coffee-break
// headcount validation.
func (r *RoomRepository) Exists(ctx context.Context, roomID int64) (bool, int, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).
		Select("id", "capacity").
		Where("active = ?", true).
		First(&room, roomID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return true, room.Capacity, nil
}

func (r *RoomRepository) GetByID(ctx context.Context, roomID int64) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).
		Preload("Location").
		Preload("Resources").
		Where("active = ?", true).
		First(&room, roomID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &bookingerr.NotFoundError{Resource: "room", ID: roomID}
		}
		return nil, err
	}
	return &room, nil
}

type RoomFilters struct {
	LocationID  int64
	MinCapacity int
}

type LocationOccupancy struct {
	LocationID     int64  `json:"location_id"`
	LocationName   string `json:"location_name"`
	TotalRooms     int64  `json:"total_rooms"`
	OccupiedRooms  int64  `json:"occupied_rooms"`
	AvailableRooms int64  `json:"available_rooms"`
}

type RoomStats struct {
	TotalRooms     int64               `json:"total_rooms"`
	OccupiedRooms  int64               `json:"occupied_rooms"`
	AvailableRooms int64               `json:"available_rooms"`
	ByLocation     []LocationOccupancy `json:"by_location"`
}

// Stats reports how many active rooms hold a confirmed booking covering the
// given instant, globally and per location. A room is occupied while a
// confirmed active booking's half-open interval contains now.
func (r *RoomRepository) Stats(ctx context.Context, now time.Time) (*RoomStats, error) {
	stats := &RoomStats{}

	total, occupied, err := r.occupancy(ctx, 0, now)
	if err != nil {
		return nil, err
	}
	stats.TotalRooms = total
	stats.OccupiedRooms = occupied
	stats.AvailableRooms = total - occupied

	var locations []domain.Location
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name").
		Find(&locations).Error; err != nil {
		return nil, err
	}

	for _, loc := range locations {
		total, occupied, err := r.occupancy(ctx, loc.ID, now)
		if err != nil {
			return nil, err
		}
		stats.ByLocation = append(stats.ByLocation, LocationOccupancy{
			LocationID:     loc.ID,
			LocationName:   loc.Name,
			TotalRooms:     total,
			OccupiedRooms:  occupied,
			AvailableRooms: total - occupied,
		})
	}
	return stats, nil
}

func (r *RoomRepository) occupancy(ctx context.Context, locationID int64, now time.Time) (total, occupied int64, err error) {
	totalQ := r.db.WithContext(ctx).
		Model(&domain.Room{}).
		Where("rooms.active = ?", true)
	if locationID != 0 {
		totalQ = totalQ.Where("rooms.location_id = ?", locationID)
	}
	if err = totalQ.Count(&total).Error; err != nil {
		return 0, 0, err
	}

	occupiedQ := r.db.WithContext(ctx).
		Model(&domain.Room{}).
		Joins("JOIN bookings ON bookings.room_id = rooms.id").
		Where("rooms.active = ?", true).
		Where("bookings.active = ?", true).
		Where("bookings.status = ?", string(domain.BookingConfirmed)).
		Where("bookings.start_datetime <= ? AND bookings.end_datetime > ?", now, now).
		Distinct("rooms.id")
	if locationID != 0 {
		occupiedQ = occupiedQ.Where("rooms.location_id = ?", locationID)
	}
	if err = occupiedQ.Count(&occupied).Error; err != nil {
		return 0, 0, err
	}
	return total, occupied, nil
}

func (r *RoomRepository) List(ctx context.Context, f RoomFilters) ([]domain.Room, error) {
	q := r.db.WithContext(ctx).
		Preload("Location").
		Preload("Resources").
		Where("active = ?", true)

	if f.LocationID != 0 {
		q = q.Where("location_id = ?", f.LocationID)
	}
	if f.MinCapacity > 0 {
		q = q.Where("capacity >= ?", f.MinCapacity)
	}

	var rooms []domain.Room
	if err := q.Order("name").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}
