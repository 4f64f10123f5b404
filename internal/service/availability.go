package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"instainstru/internal/availability"
	"instainstru/internal/model"
	"instainstru/internal/repository"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// WeekAvailability maps each date of a week to its windows.
type WeekAvailability struct {
	WeekStart string                           `json:"week_start"`
	Days      map[string][]availability.Window `json:"days"`
}

// Slot is a bookable lesson start.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AvailabilityService manages instructor schedules. Dates are calendar days
// in the marketplace time zone.
type AvailabilityService interface {
	GetWeek(ctx context.Context, instructorID string, weekStart time.Time) (*WeekAvailability, error)
	// SaveWeek replaces the week's days that are not in the past. Dates
	// missing from days are cleared.
	SaveWeek(ctx context.Context, instructorID string, weekStart time.Time, days map[string][]availability.Window) (*WeekAvailability, error)
	CopyWeek(ctx context.Context, instructorID string, from, to time.Time) (*WeekAvailability, error)
	// IsBookable reports whether [start, end) lies inside availability and
	// clear of active bookings other than excludeBookingID.
	IsBookable(ctx context.Context, instructorID string, start, end time.Time, excludeBookingID string) (bool, error)
	OpenSlots(ctx context.Context, instructorID string, date time.Time, durationMin int) ([]Slot, error)
}

type availabilityService struct {
	repo     repository.AvailabilityRepository
	bookings repository.BookingRepository
	loc      *time.Location
	log      zerolog.Logger
	now      func() time.Time
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(repo repository.AvailabilityRepository, bookings repository.BookingRepository, loc *time.Location, logger zerolog.Logger) AvailabilityService {
	if loc == nil {
		loc = time.UTC
	}
	return &availabilityService{repo: repo, bookings: bookings, loc: loc, log: logger, now: time.Now}
}

func (s *availabilityService) today() time.Time {
	return availability.DateOf(s.now(), s.loc)
}

func (s *availabilityService) weekDates(weekStart time.Time) ([]time.Time, error) {
	start := time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, s.loc)
	dates, err := availability.WeekDates(start)
	if err != nil {
		return nil, errorf(ErrValidation, "%s", err.Error())
	}
	return dates, nil
}

func (s *availabilityService) GetWeek(ctx context.Context, instructorID string, weekStart time.Time) (*WeekAvailability, error) {
	dates, err := s.weekDates(weekStart)
	if err != nil {
		return nil, err
	}
	stored, err := s.repo.ListDays(ctx, instructorID, dates[0], dates[6])
	if err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	out := &WeekAvailability{WeekStart: dates[0].Format(DateLayout), Days: make(map[string][]availability.Window, 7)}
	for _, d := range dates {
		out.Days[d.Format(DateLayout)] = []availability.Window{}
	}
	for _, day := range stored {
		bits, err := availability.ParseDayBits(day.Bits)
		if err != nil {
			s.log.Error().Err(err).Str("instructor_id", instructorID).Time("date", day.Date).Msg("corrupt availability row")
			continue
		}
		out.Days[day.Date.Format(DateLayout)] = availability.WindowsFromBits(bits)
	}
	return out, nil
}

func (s *availabilityService) SaveWeek(ctx context.Context, instructorID string, weekStart time.Time, days map[string][]availability.Window) (*WeekAvailability, error) {
	dates, err := s.weekDates(weekStart)
	if err != nil {
		return nil, err
	}
	inWeek := make(map[string]time.Time, 7)
	for _, d := range dates {
		inWeek[d.Format(DateLayout)] = d
	}
	today := s.today()

	rows := make([]model.AvailabilityDay, 0, len(days))
	for key, windows := range days {
		date, ok := inWeek[key]
		if !ok {
			return nil, errorf(ErrValidation, "date %s is not in the week of %s", key, dates[0].Format(DateLayout))
		}
		if date.Before(today) {
			if len(windows) > 0 {
				return nil, errorf(ErrValidation, "date %s is in the past", key)
			}
			continue
		}
		bits, err := availability.BitsFromWindows(windows)
		if err != nil {
			return nil, errorf(ErrValidation, "%s: %s", key, err.Error())
		}
		if bits.Empty() {
			continue
		}
		rows = append(rows, model.AvailabilityDay{
			InstructorID: instructorID,
			Date:         date,
			Bits:         bits.Bytes(),
			UpdatedAt:    s.now().UTC(),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	from := dates[0]
	if from.Before(today) {
		from = today
	}
	if from.After(dates[6]) {
		return nil, errorf(ErrValidation, "week of %s is in the past", dates[0].Format(DateLayout))
	}
	if err := s.repo.ReplaceDays(ctx, instructorID, from, dates[6], rows); err != nil {
		return nil, fmt.Errorf("replace days: %w", err)
	}
	return s.GetWeek(ctx, instructorID, dates[0])
}

func (s *availabilityService) CopyWeek(ctx context.Context, instructorID string, from, to time.Time) (*WeekAvailability, error) {
	src, err := s.weekDates(from)
	if err != nil {
		return nil, err
	}
	dst, err := s.weekDates(to)
	if err != nil {
		return nil, err
	}
	if src[0].Equal(dst[0]) {
		return nil, errorf(ErrValidation, "source and target week are the same")
	}
	week, err := s.GetWeek(ctx, instructorID, src[0])
	if err != nil {
		return nil, err
	}
	today := s.today()
	days := make(map[string][]availability.Window, 7)
	for i, d := range dst {
		if d.Before(today) {
			continue
		}
		days[d.Format(DateLayout)] = week.Days[src[i].Format(DateLayout)]
	}
	return s.SaveWeek(ctx, instructorID, dst[0], days)
}

// minuteSpan converts [start, end) to minutes of start's local day. end may
// be the following midnight.
func (s *availabilityService) minuteSpan(start, end time.Time) (time.Time, int, int, bool) {
	ls, le := start.In(s.loc), end.In(s.loc)
	date := availability.DateOf(ls, s.loc)
	startMin := availability.MinuteOfDay(ls)
	endMin := availability.MinuteOfDay(le)
	if !availability.DateOf(le, s.loc).Equal(date) {
		if endMin != 0 || !availability.DateOf(le, s.loc).Equal(date.AddDate(0, 0, 1)) {
			return date, 0, 0, false
		}
		endMin = 24 * 60
	}
	return date, startMin, endMin, startMin < endMin
}

func (s *availabilityService) dayBits(ctx context.Context, instructorID string, date time.Time) (availability.DayBits, error) {
	var bits availability.DayBits
	stored, err := s.repo.ListDays(ctx, instructorID, date, date)
	if err != nil {
		return bits, fmt.Errorf("list days: %w", err)
	}
	if len(stored) == 0 {
		return bits, nil
	}
	return availability.ParseDayBits(stored[0].Bits)
}

func (s *availabilityService) IsBookable(ctx context.Context, instructorID string, start, end time.Time, excludeBookingID string) (bool, error) {
	date, startMin, endMin, ok := s.minuteSpan(start, end)
	if !ok {
		return false, nil
	}
	bits, err := s.dayBits(ctx, instructorID, date)
	if err != nil {
		return false, err
	}
	if !bits.Covers(startMin, endMin) {
		return false, nil
	}
	overlapping, err := s.bookings.ListOverlapping(ctx, instructorID, start, end, excludeBookingID)
	if err != nil {
		return false, fmt.Errorf("list overlapping bookings: %w", err)
	}
	return len(overlapping) == 0, nil
}

func (s *availabilityService) OpenSlots(ctx context.Context, instructorID string, date time.Time, durationMin int) ([]Slot, error) {
	if durationMin <= 0 || durationMin%availability.SlotMinutes != 0 {
		return nil, errorf(ErrValidation, "duration must be a positive multiple of %d minutes", availability.SlotMinutes)
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.loc)
	bits, err := s.dayBits(ctx, instructorID, day)
	if err != nil {
		return nil, err
	}
	out := make([]Slot, 0)
	if bits.Empty() {
		return out, nil
	}
	next := day.AddDate(0, 0, 1)
	booked, err := s.bookings.ListOverlapping(ctx, instructorID, day, next, "")
	if err != nil {
		return nil, fmt.Errorf("list overlapping bookings: %w", err)
	}
	busy := make([]availability.Range, 0, len(booked))
	for _, b := range booked {
		r := availability.Range{Start: 0, End: 24 * 60}
		if b.StartAt.After(day) {
			r.Start = availability.MinuteOfDay(b.StartAt.In(s.loc))
		}
		if b.EndAt.Before(next) {
			r.End = availability.MinuteOfDay(b.EndAt.In(s.loc))
		}
		busy = append(busy, r)
	}
	earliest := s.now().Add(minLeadTimeHours * time.Hour)
	for _, m := range availability.OpenStarts(bits, durationMin, busy) {
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, m, 0, 0, s.loc)
		if start.Before(earliest) {
			continue
		}
		out = append(out, Slot{Start: start, End: start.Add(time.Duration(durationMin) * time.Minute)})
	}
	return out, nil
}
