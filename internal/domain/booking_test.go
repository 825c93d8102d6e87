package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"roomreserve/internal/bookingerr"
)

func mustInterval(startHour, endHour int) Interval {
	day := time.Date(2025, 11, 25, 0, 0, 0, 0, time.UTC)
	return Interval{
		Start: day.Add(time.Duration(startHour) * time.Hour),
		End:   day.Add(time.Duration(endHour) * time.Hour),
	}
}

func TestInterval_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", mustInterval(10, 12), mustInterval(10, 12), true},
		{"partial overlap", mustInterval(10, 12), mustInterval(11, 13), true},
		{"contained", mustInterval(10, 14), mustInterval(11, 12), true},
		{"adjacent half-open", mustInterval(10, 11), mustInterval(11, 12), false},
		{"disjoint", mustInterval(8, 9), mustInterval(10, 11), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			// overlap is symmetric
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestBooking_Confirm(t *testing.T) {
	now := time.Now().UTC()
	b := &Booking{Status: BookingPending, Active: true}

	err := b.Confirm(42, now)
	assert.NoError(t, err)
	assert.Equal(t, BookingConfirmed, b.Status)
	assert.Equal(t, int64(42), *b.ConfirmedBy)
	assert.Equal(t, now, *b.ConfirmedAt)
}

func TestBooking_Confirm_WriteOnce(t *testing.T) {
	first := time.Now().UTC()
	b := &Booking{Status: BookingPending, Active: true}
	assert.NoError(t, b.Confirm(42, first))

	err := b.Confirm(7, first.Add(time.Hour))
	var te *bookingerr.InvalidTransitionError
	assert.ErrorAs(t, err, &te)
	assert.Equal(t, "confirmed", te.Current)
	// the failed second confirm must not touch the audit fields
	assert.Equal(t, int64(42), *b.ConfirmedBy)
	assert.Equal(t, first, *b.ConfirmedAt)
}

func TestBooking_Cancel(t *testing.T) {
	now := time.Now().UTC()

	for _, from := range []BookingStatus{BookingPending, BookingConfirmed} {
		b := &Booking{Status: from, Active: true}
		err := b.Cancel(9, now, "adiada")
		assert.NoError(t, err)
		assert.Equal(t, BookingCancelled, b.Status)
		assert.Equal(t, "adiada", b.CancellationReason)
		assert.Equal(t, int64(9), *b.CancelledBy)
	}
}

func TestBooking_Cancel_TerminalRejected(t *testing.T) {
	now := time.Now().UTC()

	for _, from := range []BookingStatus{BookingCancelled, BookingCompleted} {
		b := &Booking{Status: from, Active: true}
		err := b.Cancel(9, now, "late")
		var te *bookingerr.InvalidTransitionError
		assert.ErrorAs(t, err, &te)
		assert.Equal(t, string(from), te.Current)
		assert.Equal(t, "cancelled", te.Requested)
	}
}

func TestBooking_Complete(t *testing.T) {
	b := &Booking{Status: BookingConfirmed, Active: true}
	assert.NoError(t, b.Complete())
	assert.Equal(t, BookingCompleted, b.Status)

	pending := &Booking{Status: BookingPending, Active: true}
	var te *bookingerr.InvalidTransitionError
	assert.ErrorAs(t, pending.Complete(), &te)
}

func TestBooking_Blocking(t *testing.T) {
	assert.True(t, (&Booking{Status: BookingPending, Active: true}).Blocking())
	assert.True(t, (&Booking{Status: BookingConfirmed, Active: true}).Blocking())
	assert.False(t, (&Booking{Status: BookingCancelled, Active: true}).Blocking())
	assert.False(t, (&Booking{Status: BookingCompleted, Active: true}).Blocking())
	// administrative purge frees the slot without touching status
	assert.False(t, (&Booking{Status: BookingConfirmed, Active: false}).Blocking())
}
