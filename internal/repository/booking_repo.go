package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"roomreserve/internal/bookingerr"
	"roomreserve/internal/domain"
)

var blockingStatuses = []string{
	string(domain.BookingPending),
	string(domain.BookingConfirmed),
}

type BookingRepository struct {
	db *gorm.DB

	// per-room gates serializing the check-and-insert. The gate makes Reserve
	// race-free within the process; on Postgres the row lock on the room and
	// the overlap constraint extend the guarantee across processes. The map
	// grows to one mutex per room ever reserved and is never evicted; that is
	// bounded by the size of the room catalog.
	mu    sync.Mutex
	gates map[int64]*sync.Mutex
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{
		db:    db,
		gates: make(map[int64]*sync.Mutex),
	}
}

func (r *BookingRepository) gate(roomID int64) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gates[roomID]
	if !ok {
		g = &sync.Mutex{}
		r.gates[roomID] = g
	}
	return g
}

// Reserve atomically checks that no active pending/confirmed booking for the
// room overlaps the candidate's half-open interval and inserts the candidate
// in the same unit. Exactly one of two racing overlapping candidates wins;
// the loser gets a ConflictError referencing the blocking booking. Nothing is
// persisted on failure.
func (r *BookingRepository) Reserve(ctx context.Context, b *domain.Booking) error {
	g := r.gate(b.RoomID)
	g.Lock()
	defer g.Unlock()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			// room row acts as the cross-process gate
			var room domain.Room
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&room, b.RoomID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &bookingerr.NotFoundError{Resource: "room", ID: b.RoomID}
				}
				return err
			}
		}

		var conflict domain.Booking
		err := tx.
			Where("room_id = ?", b.RoomID).
			Where("active = ?", true).
			Where("status IN ?", blockingStatuses).
			Where("start_datetime < ? AND end_datetime > ?", b.EndDatetime, b.StartDatetime).
			Order("start_datetime").
			First(&conflict).Error
		if err == nil {
			return &bookingerr.ConflictError{
				ConflictingID: conflict.ID,
				Start:         conflict.StartDatetime,
				End:           conflict.EndDatetime,
			}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(b).Error
	})

	return r.mapStorageConflict(ctx, b, err)
}

// mapStorageConflict surfaces a storage-native overlap constraint violation
// (an exclusion or unique constraint on the bookings table) as ConflictError,
// re-reading the blocking row for error detail.
func (r *BookingRepository) mapStorageConflict(ctx context.Context, b *domain.Booking, err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if pgErr.Code != "23P01" && pgErr.Code != "23505" {
		return err
	}

	var conflict domain.Booking
	lookupErr := r.db.WithContext(ctx).
		Where("room_id = ?", b.RoomID).
		Where("active = ?", true).
		Where("status IN ?", blockingStatuses).
		Where("start_datetime < ? AND end_datetime > ?", b.EndDatetime, b.StartDatetime).
		Order("start_datetime").
		First(&conflict).Error
	if lookupErr != nil {
		return &bookingerr.ConflictError{}
	}
	return &bookingerr.ConflictError{
		ConflictingID: conflict.ID,
		Start:         conflict.StartDatetime,
		End:           conflict.EndDatetime,
	}
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	err := r.db.WithContext(ctx).
		Preload("Room").
		Preload("Room.Location").
		First(&b, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &bookingerr.NotFoundError{Resource: "booking", ID: id}
		}
		return nil, err
	}
	return &b, nil
}

// ApplyTransition persists the status and audit fields of b, conditional on
// the row still being in the expected prior state. Racing transitions
// linearize here: the loser observes zero affected rows and gets an
// InvalidTransitionError naming the state that actually won.
func (r *BookingRepository) ApplyTransition(ctx context.Context, b *domain.Booking, from domain.BookingStatus) error {
	updates := map[string]any{
		"status":     string(b.Status),
		"updated_at": time.Now().UTC(),
	}
	switch b.Status {
	case domain.BookingConfirmed:
		updates["confirmed_by"] = b.ConfirmedBy
		updates["confirmed_at"] = b.ConfirmedAt
	case domain.BookingCancelled:
		updates["cancelled_by"] = b.CancelledBy
		updates["cancelled_at"] = b.CancelledAt
		updates["cancellation_reason"] = b.CancellationReason
	}

	tx := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("id = ? AND status = ?", b.ID, string(from)).
		Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		current, err := r.GetByID(ctx, b.ID)
		if err != nil {
			return err
		}
		return &bookingerr.InvalidTransitionError{
			Current:   string(current.Status),
			Requested: string(b.Status),
		}
	}
	return nil
}

// Deactivate is the administrative purge flag, distinct from cancellation.
func (r *BookingRepository) Deactivate(ctx context.Context, id int64) error {
	tx := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("id = ? AND active = ?", id, true).
		Updates(map[string]any{
			"active":     false,
			"updated_at": time.Now().UTC(),
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return &bookingerr.NotFoundError{Resource: "booking", ID: id}
	}
	return nil
}

type Filters struct {
	Status      string
	RoomID      int64
	LocationID  int64
	Date        time.Time
	DateFrom    time.Time
	DateTo      time.Time
	RequestedBy int64
}

func (r *BookingRepository) List(ctx context.Context, f Filters) ([]domain.Booking, error) {
	q := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Preload("Room").
		Preload("Room.Location").
		Where("bookings.active = ?", true)

	if f.Status != "" {
		q = q.Where("bookings.status = ?", f.Status)
	}
	if f.RoomID > 0 {
		q = q.Where("bookings.room_id = ?", f.RoomID)
	}
	if f.LocationID > 0 {
		q = q.Joins("JOIN rooms ON rooms.id = bookings.room_id").
			Where("rooms.location_id = ?", f.LocationID)
	}
	if !f.Date.IsZero() {
		q = q.Where("bookings.date_booking = ?", f.Date)
	}
	if !f.DateFrom.IsZero() {
		q = q.Where("bookings.date_booking >= ?", f.DateFrom)
	}
	if !f.DateTo.IsZero() {
		q = q.Where("bookings.date_booking <= ?", f.DateTo)
	}
	if f.RequestedBy > 0 {
		q = q.Where("bookings.requested_by = ?", f.RequestedBy)
	}

	var out []domain.Booking
	if err := q.Order("bookings.date_booking, bookings.start_datetime").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListBlockingForRoom returns the active pending/confirmed bookings for a
// room overlapping [from, to), ordered by start. Used for availability
// checks and free-slot computation.
func (r *BookingRepository) ListBlockingForRoom(ctx context.Context, roomID int64, from, to time.Time) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Where("active = ?", true).
		Where("status IN ?", blockingStatuses).
		Where("start_datetime < ? AND end_datetime > ?", to, from).
		Order("start_datetime").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
