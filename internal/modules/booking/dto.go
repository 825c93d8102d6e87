package booking

import "time"

type CreateBookingRequest struct {
	RoomID               int64     `json:"room_id" binding:"required"`
	StartDatetime        time.Time `json:"start_datetime" binding:"required"`
	EndDatetime          time.Time `json:"end_datetime" binding:"required"`
	HasCoffeeBreak       bool      `json:"has_coffee_break"`
	CoffeeBreakHeadcount int       `json:"coffee_break_headcount"`
	Notes                string    `json:"notes"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ListBookingsQuery struct {
	Status      string `form:"status"`
	RoomID      int64  `form:"room"`
	LocationID  int64  `form:"location"`
	Date        string `form:"date_booking"`
	DateFrom    string `form:"date_from"`
	DateTo      string `form:"date_to"`
	RequestedBy int64  `form:"requested_by"`
}

type ConflictInfo struct {
	ID            int64     `json:"id"`
	StartDatetime time.Time `json:"start_datetime"`
	EndDatetime   time.Time `json:"end_datetime"`
	Status        string    `json:"status"`
}

type SlotSuggestion struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type AvailabilityResponse struct {
	Available      bool             `json:"available"`
	RoomID         int64            `json:"room_id"`
	Date           string           `json:"date"`
	RequestedStart string           `json:"requested_start"`
	RequestedEnd   string           `json:"requested_end"`
	Conflicts      []ConflictInfo   `json:"conflicting_bookings,omitempty"`
	Suggestions    []SlotSuggestion `json:"suggestions,omitempty"`
}

type FreeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
