package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"roomreserve/internal/bookingerr"
	"roomreserve/internal/database"
	"roomreserve/internal/domain"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Connect(":memory:")
	require.NoError(t, err)

	// a single connection keeps the in-memory database shared across uses
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	loc := &domain.Location{Name: "Predio A", Address: "Rua XYZ", City: "Marilia", Active: true}
	require.NoError(t, db.Create(loc).Error)
	room := &domain.Room{ID: 1, Name: "Sala 101", LocationID: loc.ID, Capacity: 10, Active: true}
	require.NoError(t, db.Create(room).Error)

	return db
}

func newBooking(roomID int64, start, end time.Time, requestedBy int64) *domain.Booking {
	return &domain.Booking{
		RoomID:        roomID,
		DateBooking:   time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		StartDatetime: start,
		EndDatetime:   end,
		Status:        domain.BookingPending,
		RequestedBy:   requestedBy,
		Active:        true,
	}
}

func TestReserve_NoOverlap(t *testing.T) {
	repo := NewBookingRepository(setupDB(t))
	ctx := context.Background()

	day := time.Date(2025, 11, 25, 0, 0, 0, 0, time.UTC)
	a := newBooking(1, day.Add(10*time.Hour), day.Add(12*time.Hour), 100)
	require.NoError(t, repo.Reserve(ctx, a))
	assert.NotZero(t, a.ID)

	// adjacent half-open interval is not a conflict
	b := newBooking(1, day.Add(12*time.Hour), day.Add(13*time.Hour), 101)
	assert.NoError(t, repo.Reserve(ctx, b))
}

func TestReserve_Conflict(t *testing.T) {
	repo := NewBookingRepository(setupDB(t))
	ctx := context.Background()

	day := time.Date(2025, 11, 25, 0, 0, 0, 0, time.UTC)
	a := newBooking(1, day.Add(10*time.Hour), day.Add(12*time.Hour), 100)
	require.NoError(t, repo.Reserve(ctx, a))

	b := newBooking(1, day.Add(11*time.Hour), day.Add(13*time.Hour), 101)
	err := repo.Reserve(ctx, b)

	var ce *bookingerr.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, a.ID, ce.ConflictingID)
	assert.Equal(t, a.StartDatetime, ce.Start)
	assert.Zero(t, b.ID, "loser must not be persisted")
}

func TestReserve_ConcurrentRace_OneWinner(t *testing.T) {
	repo := NewBookingRepository(setupDB(t))
	ctx := context.Background()

	day := time.Date(2025, 11, 25, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := newBooking(1, day.Add(10*time.Hour), day.Add(12*time.Hour), int64(100+i))
			errs[i] = repo.Reserve(ctx, b)
		}(i)
	}
	wg.Wait()

	winners := 0
	losers := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		var ce *bookingerr.ConflictError
		require.ErrorAs(t, err, &ce)
		losers++
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, 1, losers)
}

func TestReserve_CancelledFreesSlot(t *testing.T) {
	db := setupDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	day := time.Date(2025, 11, 25, 0, 0, 0, 0, time.UTC)
	a := newBooking(1, day.Add(10*time.Hour), day.Add(12*time.Hour), 100)
	require.NoError(t, repo.Reserve(ctx, a))

	require.NoError(t, a.Cancel(100, time.Now().UTC(), "adiada"))
	require.NoError(t, repo.ApplyTransition(ctx, a, domain.BookingPending))

	retry := newBooking(1, day.Add(10*time.Hour), day.Add(12*time.Hour), 101)
	assert.NoError(t, repo.Reserve(ctx, retry))
}

func TestReserve_DeactivatedFreesSlot(t *testing.T) {
	repo := NewBookingRepository(setupDB(t))
	ctx := context.Background()

	day := time.Date(2025, 11, 25, 0, 0, 0, 0, time.UTC)
	a := newBooking(1, day.Add(10*time.Hour), day.Add(12*time.Hour), 100)
	require.NoError(t, repo.Reserve(ctx, a))
	require.NoError(t, repo.Deactivate(ctx, a.ID))

	retry := newBooking(1, day.Add(10*time.Hour), day.Add(12*time.Hour), 101)
	assert.NoError(t, repo.Reserve(ctx, retry))
}

func TestApplyTransition_StaleStateRejected(t *testing.T) {
	repo := NewBookingRepository(setupDB(t))
	ctx := context.Background()

	day := time.Date(2025, 11, 25, 0, 0, 0, 0, time.UTC)
	a := newBooking(1, day.Add(10*time.Hour), day.Add(12*time.Hour), 100)
	require.NoError(t, repo.Reserve(ctx, a))

	// first transition wins
	confirmed := *a
	require.NoError(t, confirmed.Confirm(7, time.Now().UTC()))
	require.NoError(t, repo.ApplyTransition(ctx, &confirmed, domain.BookingPending))

	// a racing cancel built on the stale pending snapshot must lose
	cancelled := *a
	require.NoError(t, cancelled.Cancel(100, time.Now().UTC(), "mudou"))
	err := repo.ApplyTransition(ctx, &cancelled, domain.BookingPending)

	var te *bookingerr.InvalidTransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "confirmed", te.Current)
	assert.Equal(t, "cancelled", te.Requested)
}

func TestList_Filters(t *testing.T) {
	db := setupDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	day := time.Date(2025, 11, 25, 0, 0, 0, 0, time.UTC)
	a := newBooking(1, day.Add(10*time.Hour), day.Add(12*time.Hour), 100)
	require.NoError(t, repo.Reserve(ctx, a))
	b := newBooking(1, day.Add(14*time.Hour), day.Add(15*time.Hour), 101)
	require.NoError(t, repo.Reserve(ctx, b))

	mine, err := repo.List(ctx, Filters{RequestedBy: 100})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)

	all, err := repo.List(ctx, Filters{RoomID: 1})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	// ordered by start
	assert.True(t, all[0].StartDatetime.Before(all[1].StartDatetime))

	pending, err := repo.List(ctx, Filters{Status: string(domain.BookingPending)})
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestListBlockingForRoom(t *testing.T) {
	repo := NewBookingRepository(setupDB(t))
	ctx := context.Background()

	day := time.Date(2025, 11, 25, 0, 0, 0, 0, time.UTC)
	a := newBooking(1, day.Add(10*time.Hour), day.Add(12*time.Hour), 100)
	require.NoError(t, repo.Reserve(ctx, a))

	cancelled := newBooking(1, day.Add(14*time.Hour), day.Add(15*time.Hour), 100)
	require.NoError(t, repo.Reserve(ctx, cancelled))
	require.NoError(t, cancelled.Cancel(100, time.Now().UTC(), "sem quorum"))
	require.NoError(t, repo.ApplyTransition(ctx, cancelled, domain.BookingPending))

	busy, err := repo.ListBlockingForRoom(ctx, 1, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, busy, 1)
	assert.Equal(t, a.ID, busy[0].ID)
}
