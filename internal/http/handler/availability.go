package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"instainstru/internal/availability"
	"instainstru/internal/http/middleware"
	"instainstru/internal/service"
)

type saveWeekRequest struct {
	WeekStart string                           `json:"week_start"`
	Days      map[string][]availability.Window `json:"days"`
}

type copyWeekRequest struct {
	FromWeek string `json:"from_week"`
	ToWeek   string `json:"to_week"`
}

// mondayOf returns the Monday starting the week that contains t in loc.
func mondayOf(t time.Time, loc *time.Location) time.Time {
	d := availability.DateOf(t, loc)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// GetWeek returns the caller's availability for one week. week_start defaults
// to the current week.
//
// @Summary  My week availability
// @Tags     availability
// @Produce  json
// @Security BearerAuth
// @Param    week_start query string false "Monday of the week (YYYY-MM-DD)"
// @Success  200 {object} service.WeekAvailability
// @Router   /api/v1/instructors/me/availability/week [get]
func GetWeek(svc service.AvailabilityService, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		weekStart := mondayOf(time.Now(), loc)
		if v := c.Query("week_start"); v != "" {
			var ok bool
			if weekStart, ok = parseDate(c, "week_start", v, loc); !ok {
				return nil
			}
		}
		w, err := svc.GetWeek(c.UserContext(), middleware.UserID(c), weekStart)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(w)
	}
}

// SaveWeek replaces the caller's availability for one week.
//
// @Summary  Save my week availability
// @Tags     availability
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body saveWeekRequest true "Windows per date"
// @Success  200 {object} service.WeekAvailability
// @Router   /api/v1/instructors/me/availability/week [put]
func SaveWeek(svc service.AvailabilityService, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req saveWeekRequest
		if !bindJSON(c, &req) {
			return nil
		}
		weekStart, ok := parseDate(c, "week_start", req.WeekStart, loc)
		if !ok {
			return nil
		}
		w, err := svc.SaveWeek(c.UserContext(), middleware.UserID(c), weekStart, req.Days)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(w)
	}
}

// CopyWeek copies one week's availability onto another.
//
// @Summary  Copy a week
// @Tags     availability
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    body body copyWeekRequest true "Source and target weeks"
// @Success  200 {object} service.WeekAvailability
// @Router   /api/v1/instructors/me/availability/copy [post]
func CopyWeek(svc service.AvailabilityService, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req copyWeekRequest
		if !bindJSON(c, &req) {
			return nil
		}
		from, ok := parseDate(c, "from_week", req.FromWeek, loc)
		if !ok {
			return nil
		}
		to, ok := parseDate(c, "to_week", req.ToWeek, loc)
		if !ok {
			return nil
		}
		w, err := svc.CopyWeek(c.UserContext(), middleware.UserID(c), from, to)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(w)
	}
}

// OpenSlots lists bookable start times of an instructor on one date.
//
// @Summary  Open slots
// @Tags     availability
// @Produce  json
// @Param    id       path  string true  "Instructor ID"
// @Param    date     query string true  "Date (YYYY-MM-DD)"
// @Param    duration query int    false "Lesson minutes" default(60)
// @Success  200 {array} service.Slot
// @Router   /api/v1/instructors/{id}/availability/slots [get]
func OpenSlots(svc service.AvailabilityService, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c, "id")
		if !ok {
			return nil
		}
		date, ok := parseDate(c, "date", c.Query("date"), loc)
		if !ok {
			return nil
		}
		duration, err := strconv.Atoi(c.Query("duration", "60"))
		if err != nil || duration <= 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_DURATION", "duration must be a positive number of minutes")
		}
		slots, err := svc.OpenSlots(c.UserContext(), id, date, duration)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(fiber.Map{"data": slots})
	}
}
