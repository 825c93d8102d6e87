package booking

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"roomreserve/internal/bookingerr"
	"roomreserve/internal/config"
	"roomreserve/internal/domain"
	"roomreserve/internal/repository"
)

const maxSuggestions = 3

// Policy carries the deployment-level scheduling knobs: whether complete is
// time-gated, and the business-day window used for slot suggestions.
type Policy struct {
	Completion string
	DayStart   string
	DayEnd     string
}

func DefaultPolicy() Policy {
	return Policy{
		Completion: config.CompletionAfterEnd,
		DayStart:   "08:00",
		DayEnd:     "18:00",
	}
}

type Service struct {
	bookings BookingRepository
	rooms    RoomRepository
	events   EventSink
	policy   Policy
	now      func() time.Time
}

func NewService(bookings BookingRepository, rooms RoomRepository, events EventSink, policy Policy) *Service {
	return &Service{
		bookings: bookings,
		rooms:    rooms,
		events:   events,
		policy:   policy,
		now:      time.Now,
	}
}

// Create validates the request, resolves the room, and delegates to the
// conflict guard. The booking date is derived from the start instant so the
// date/interval invariant cannot be violated by input.
func (s *Service) Create(ctx context.Context, actor domain.Actor, req CreateBookingRequest) (*domain.Booking, error) {
	start := req.StartDatetime.UTC()
	end := req.EndDatetime.UTC()

	if !end.After(start) {
		return nil, bookingerr.Validation("end_datetime", "must be after start_datetime")
	}
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	if sy != ey || sm != em || sd != ed {
		return nil, bookingerr.Validation("end_datetime", "booking must start and end on the same day")
	}
	if start.Before(s.now().UTC()) {
		return nil, bookingerr.Validation("start_datetime", "must not be in the past")
	}

	if req.HasCoffeeBreak {
		if req.CoffeeBreakHeadcount <= 0 {
			return nil, bookingerr.Validation("coffee_break_headcount", "required when has_coffee_break is set")
		}
	} else if req.CoffeeBreakHeadcount != 0 {
		return nil, bookingerr.Validation("coffee_break_headcount", "must be omitted without has_coffee_break")
	}

	exists, capacity, err := s.rooms.Exists(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &bookingerr.NotFoundError{Resource: "room", ID: req.RoomID}
	}
	if req.HasCoffeeBreak && req.CoffeeBreakHeadcount > capacity {
		return nil, bookingerr.Validation("coffee_break_headcount", "exceeds room capacity")
	}

	b := &domain.Booking{
		RoomID:               req.RoomID,
		DateBooking:          time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC),
		StartDatetime:        start,
		EndDatetime:          end,
		Status:               domain.BookingPending,
		HasCoffeeBreak:       req.HasCoffeeBreak,
		CoffeeBreakHeadcount: req.CoffeeBreakHeadcount,
		RequestedBy:          actor.ID,
		Notes:                req.Notes,
		Active:               true,
	}

	if err := s.reserve(ctx, b); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.BookingCreated(b)
	}
	return b, nil
}

// reserve retries once on a storage serialization failure. The guard
// re-checks and re-inserts, so the retry can never double-insert; a
// ConflictError is final and never retried.
func (s *Service) reserve(ctx context.Context, b *domain.Booking) error {
	err := s.bookings.Reserve(ctx, b)
	if err != nil && isRetryableStorage(err) {
		err = s.bookings.Reserve(ctx, b)
	}
	return err
}

func isRetryableStorage(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// serialization_failure, deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

func (s *Service) Confirm(ctx context.Context, actor domain.Actor, id int64) (*domain.Booking, error) {
	if !actor.CanConfirm() {
		return nil, &bookingerr.PermissionError{Operation: "confirm"}
	}

	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := b.Status
	if err := b.Confirm(actor.ID, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.bookings.ApplyTransition(ctx, b, from); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.BookingConfirmed(b)
	}
	return b, nil
}

func (s *Service) Cancel(ctx context.Context, actor domain.Actor, id int64, reason string) (*domain.Booking, error) {
	if reason == "" {
		return nil, bookingerr.Validation("reason", "cancellation reason is required")
	}

	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.visible(actor, b) {
		return nil, &bookingerr.NotFoundError{Resource: "booking", ID: id}
	}
	if !actor.CanCancel(b) {
		return nil, &bookingerr.PermissionError{Operation: "cancel"}
	}

	from := b.Status
	if err := b.Cancel(actor.ID, s.now().UTC(), reason); err != nil {
		return nil, err
	}
	if err := s.bookings.ApplyTransition(ctx, b, from); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.BookingCancelled(b)
	}
	return b, nil
}

func (s *Service) Complete(ctx context.Context, actor domain.Actor, id int64) (*domain.Booking, error) {
	if !actor.CanConfirm() {
		return nil, &bookingerr.PermissionError{Operation: "complete"}
	}

	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// transition legality first: completing a non-confirmed booking is an
	// invalid transition regardless of the completion policy
	from := b.Status
	if err := b.Complete(); err != nil {
		return nil, err
	}
	if s.policy.Completion == config.CompletionAfterEnd && s.now().UTC().Before(b.EndDatetime) {
		return nil, bookingerr.Validation("end_datetime", "booking interval has not elapsed")
	}
	if err := s.bookings.ApplyTransition(ctx, b, from); err != nil {
		return nil, err
	}

	if s.events != nil {
		s.events.BookingCompleted(b)
	}
	return b, nil
}

func (s *Service) Get(ctx context.Context, actor domain.Actor, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.visible(actor, b) {
		return nil, &bookingerr.NotFoundError{Resource: "booking", ID: id}
	}
	return b, nil
}

// List applies the visibility rule at the query boundary: an ordinary user
// only ever sees bookings they requested, whatever filters they pass.
func (s *Service) List(ctx context.Context, actor domain.Actor, q ListBookingsQuery) ([]domain.Booking, error) {
	f := repository.Filters{
		Status:      q.Status,
		RoomID:      q.RoomID,
		LocationID:  q.LocationID,
		RequestedBy: q.RequestedBy,
	}

	var err error
	if f.Date, err = parseDateFilter(q.Date, "date_booking"); err != nil {
		return nil, err
	}
	if f.DateFrom, err = parseDateFilter(q.DateFrom, "date_from"); err != nil {
		return nil, err
	}
	if f.DateTo, err = parseDateFilter(q.DateTo, "date_to"); err != nil {
		return nil, err
	}

	if !actor.CanSeeAll() {
		f.RequestedBy = actor.ID
	}
	return s.bookings.List(ctx, f)
}

// Deactivate is the administrative purge, distinct from cancellation.
func (s *Service) Deactivate(ctx context.Context, actor domain.Actor, id int64) error {
	if !actor.IsAdmin() {
		return &bookingerr.PermissionError{Operation: "deactivate"}
	}
	return s.bookings.Deactivate(ctx, id)
}

// CheckAvailability reports whether the room is free for the requested slot
// and, when it is not, which bookings block it plus up to three alternative
// same-day slots of the same duration.
func (s *Service) CheckAvailability(ctx context.Context, roomID int64, dateStr, startStr, endStr string) (*AvailabilityResponse, error) {
	day, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, bookingerr.Validation("date", "use YYYY-MM-DD")
	}
	start, err := timeOnDay(day, startStr)
	if err != nil {
		return nil, bookingerr.Validation("start_time", "use HH:MM")
	}
	end, err := timeOnDay(day, endStr)
	if err != nil {
		return nil, bookingerr.Validation("end_time", "use HH:MM")
	}
	if !end.After(start) {
		return nil, bookingerr.Validation("end_time", "must be after start_time")
	}

	exists, _, err := s.rooms.Exists(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &bookingerr.NotFoundError{Resource: "room", ID: roomID}
	}

	resp := &AvailabilityResponse{
		Available:      true,
		RoomID:         roomID,
		Date:           dateStr,
		RequestedStart: startStr,
		RequestedEnd:   endStr,
	}

	conflicts, err := s.bookings.ListBlockingForRoom(ctx, roomID, start, end)
	if err != nil {
		return nil, err
	}
	if len(conflicts) == 0 {
		return resp, nil
	}

	resp.Available = false
	for _, c := range conflicts {
		resp.Conflicts = append(resp.Conflicts, ConflictInfo{
			ID:            c.ID,
			StartDatetime: c.StartDatetime,
			EndDatetime:   c.EndDatetime,
			Status:        string(c.Status),
		})
	}

	suggestions, err := s.suggestAlternatives(ctx, roomID, day, end.Sub(start))
	if err != nil {
		return nil, err
	}
	resp.Suggestions = suggestions
	return resp, nil
}

// FreeSlots returns the unbooked intervals of the business day.
func (s *Service) FreeSlots(ctx context.Context, roomID int64, dateStr string) ([]FreeSlot, error) {
	day, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, bookingerr.Validation("date", "use YYYY-MM-DD")
	}

	exists, _, err := s.rooms.Exists(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &bookingerr.NotFoundError{Resource: "room", ID: roomID}
	}

	open, close := s.dayWindow(day)
	busy, err := s.bookings.ListBlockingForRoom(ctx, roomID, open, close)
	if err != nil {
		return nil, err
	}

	intervals := make([]domain.Interval, 0, len(busy))
	for _, b := range busy {
		intervals = append(intervals, b.Interval())
	}

	free := subtractBusy(open, close, intervals)
	out := make([]FreeSlot, 0, len(free))
	for _, f := range free {
		out = append(out, FreeSlot{Start: f.Start, End: f.End})
	}
	return out, nil
}

// suggestAlternatives walks the day's blocking bookings in start order and
// collects gaps wide enough for the requested duration.
func (s *Service) suggestAlternatives(ctx context.Context, roomID int64, day time.Time, duration time.Duration) ([]SlotSuggestion, error) {
	open, close := s.dayWindow(day)
	busy, err := s.bookings.ListBlockingForRoom(ctx, roomID, open, close)
	if err != nil {
		return nil, err
	}

	var out []SlotSuggestion
	cursor := open
	for _, b := range busy {
		if !cursor.Add(duration).After(b.StartDatetime) {
			out = append(out, SlotSuggestion{
				StartTime: cursor.Format("15:04"),
				EndTime:   cursor.Add(duration).Format("15:04"),
			})
		}
		if b.EndDatetime.After(cursor) {
			cursor = b.EndDatetime
		}
	}
	if !cursor.Add(duration).After(close) {
		out = append(out, SlotSuggestion{
			StartTime: cursor.Format("15:04"),
			EndTime:   cursor.Add(duration).Format("15:04"),
		})
	}
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out, nil
}

func (s *Service) dayWindow(day time.Time) (time.Time, time.Time) {
	open, _ := timeOnDay(day, s.policy.DayStart)
	close, _ := timeOnDay(day, s.policy.DayEnd)
	return open, close
}

func (s *Service) visible(actor domain.Actor, b *domain.Booking) bool {
	return actor.CanSeeAll() || b.RequestedBy == actor.ID
}

func timeOnDay(day time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

func parseDateFilter(value, field string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, bookingerr.Validation(field, "use YYYY-MM-DD")
	}
	return d, nil
}

func subtractBusy(open, close time.Time, busy []domain.Interval) []domain.Interval {
	if len(busy) == 0 {
		return []domain.Interval{{Start: open, End: close}}
	}

	merged := make([]domain.Interval, 0, len(busy))
	for _, b := range busy {
		if b.End.Before(open) || !b.Start.Before(close) {
			continue
		}
		if b.Start.Before(open) {
			b.Start = open
		}
		if b.End.After(close) {
			b.End = close
		}
		if !b.End.After(b.Start) {
			continue
		}

		if len(merged) == 0 {
			merged = append(merged, b)
			continue
		}
		last := merged[len(merged)-1]
		if !b.Start.After(last.End) {
			if b.End.After(last.End) {
				last.End = b.End
				merged[len(merged)-1] = last
			}
		} else {
			merged = append(merged, b)
		}
	}

	cursor := open
	out := make([]domain.Interval, 0)
	for _, b := range merged {
		if b.Start.After(cursor) {
			out = append(out, domain.Interval{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
		if !cursor.Before(close) {
			break
		}
	}
	if cursor.Before(close) {
		out = append(out, domain.Interval{Start: cursor, End: close})
	}
	return out
}
