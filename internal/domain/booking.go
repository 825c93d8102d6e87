package domain

import (
	"time"

	"roomreserve/internal/bookingerr"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// Terminal reports whether no further transition is legal from s.
func (s BookingStatus) Terminal() bool {
	return s == BookingCancelled || s == BookingCompleted
}

// Interval is a half-open time range [Start, End). Adjacent intervals
// sharing only a boundary instant do not overlap.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// Before orders intervals by start for deterministic scanning.
func (i Interval) Before(o Interval) bool {
	return i.Start.Before(o.Start)
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

type Booking struct {
	ID                   int64         `json:"id" gorm:"column:id;primaryKey"`
	RoomID               int64         `json:"room_id" gorm:"column:room_id"`
	DateBooking          time.Time     `json:"date_booking" gorm:"column:date_booking"`
	StartDatetime        time.Time     `json:"start_datetime" gorm:"column:start_datetime"`
	EndDatetime          time.Time     `json:"end_datetime" gorm:"column:end_datetime"`
	Status               BookingStatus `json:"status" gorm:"column:status"`
	HasCoffeeBreak       bool          `json:"has_coffee_break" gorm:"column:has_coffee_break"`
	CoffeeBreakHeadcount int           `json:"coffee_break_headcount,omitempty" gorm:"column:coffee_break_headcount"`
	RequestedBy          int64         `json:"requested_by" gorm:"column:requested_by"`
	ConfirmedBy          *int64        `json:"confirmed_by,omitempty" gorm:"column:confirmed_by"`
	ConfirmedAt          *time.Time    `json:"confirmed_at,omitempty" gorm:"column:confirmed_at"`
	CancelledBy          *int64        `json:"cancelled_by,omitempty" gorm:"column:cancelled_by"`
	CancelledAt          *time.Time    `json:"cancelled_at,omitempty" gorm:"column:cancelled_at"`
	CancellationReason   string        `json:"cancellation_reason,omitempty" gorm:"column:cancellation_reason;type:text"`
	Notes                string        `json:"notes,omitempty" gorm:"column:notes;type:text"`
	Active               bool          `json:"active" gorm:"column:active"`
	CreatedAt            time.Time     `json:"created_at" gorm:"column:created_at"`
	UpdatedAt            time.Time     `json:"updated_at" gorm:"column:updated_at"`

	Room      *Room `json:"room,omitempty" gorm:"foreignKey:RoomID"`
	Requester *User `json:"requester,omitempty" gorm:"foreignKey:RequestedBy"`
}

func (Booking) TableName() string { return "bookings" }

func (b *Booking) Interval() Interval {
	return Interval{Start: b.StartDatetime, End: b.EndDatetime}
}

// Blocking reports whether this booking occupies its slot for the purpose of
// the overlap check. Cancelled and completed bookings free the room, and so
// do administratively purged rows.
func (b *Booking) Blocking() bool {
	return b.Active && !b.Status.Terminal()
}

// Confirm moves a pending booking to confirmed. Audit fields are write-once:
// a booking that already left pending keeps its original confirmation record.
func (b *Booking) Confirm(actorID int64, at time.Time) error {
	if b.Status != BookingPending {
		return &bookingerr.InvalidTransitionError{
			Current:   string(b.Status),
			Requested: string(BookingConfirmed),
		}
	}
	b.Status = BookingConfirmed
	b.ConfirmedBy = &actorID
	b.ConfirmedAt = &at
	return nil
}

// Cancel moves a pending or confirmed booking to cancelled. The reason is
// mandatory and recorded alongside the actor and timestamp.
func (b *Booking) Cancel(actorID int64, at time.Time, reason string) error {
	if b.Status.Terminal() {
		return &bookingerr.InvalidTransitionError{
			Current:   string(b.Status),
			Requested: string(BookingCancelled),
		}
	}
	b.Status = BookingCancelled
	b.CancelledBy = &actorID
	b.CancelledAt = &at
	b.CancellationReason = reason
	return nil
}

// Complete moves a confirmed booking to completed. No audit fields beyond
// the status change.
func (b *Booking) Complete() error {
	if b.Status != BookingConfirmed {
		return &bookingerr.InvalidTransitionError{
			Current:   string(b.Status),
			Requested: string(BookingCompleted),
		}
	}
	b.Status = BookingCompleted
	return nil
}
