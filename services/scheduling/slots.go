// Package scheduling holds the pure slot generation and overlap logic the
// booking engine is built on. Nothing here touches a datastore.
package scheduling

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"stitchtherapy/models"
)

// GenerateSlots expands a therapist's availability windows into concrete
// bookable slots for one calendar date. The date is a "2006-01-02" string
// interpreted in the therapist's timezone; recurring windows match by the
// weekday of that date computed in the same timezone. Identical slots
// produced by more than one window are emitted once, sorted by start.
func GenerateSlots(windows []models.AvailabilityWindow, date, timezone string, slotMinutes int) ([]models.SlotCandidate, error) {
	if slotMinutes <= 0 {
		return nil, models.NewValidationError("durationMinutes", "slot duration must be positive")
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, models.NewValidationError("timezone", fmt.Sprintf("unknown timezone %q", timezone))
	}
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return nil, models.NewValidationError("date", fmt.Sprintf("invalid date %q, want YYYY-MM-DD", date))
	}
	weekday := int(day.Weekday())

	seen := make(map[int64]bool)
	var slots []models.SlotCandidate

	for _, w := range windows {
		if !w.Active {
			continue
		}
		if !windowCoversDate(w, day, weekday, loc) {
			continue
		}

		start, end, err := anchorWindow(w, day, loc)
		if err != nil {
			return nil, err
		}

		dur := time.Duration(slotMinutes) * time.Minute
		for s := start; !s.Add(dur).After(end); s = s.Add(dur) {
			key := s.Unix()
			if seen[key] {
				continue
			}
			seen[key] = true
			slots = append(slots, models.SlotCandidate{
				Start: s,
				End:   s.Add(dur),
				Label: fmt.Sprintf("%s - %s", s.In(loc).Format("15:04"), s.Add(dur).In(loc).Format("15:04")),
			})
		}
	}

	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
	return slots, nil
}

// windowCoversDate reports whether the window applies to the target day.
func windowCoversDate(w models.AvailabilityWindow, day time.Time, weekday int, loc *time.Location) bool {
	switch w.EffectiveMode() {
	case models.WindowSpecific:
		if w.SpecificDate == nil {
			return false
		}
		return w.SpecificDate.In(loc).Format("2006-01-02") == day.Format("2006-01-02")
	default:
		// Recurring without a weekday cannot be anchored to any date.
		return w.DayOfWeek != nil && *w.DayOfWeek == weekday
	}
}

// anchorWindow converts the window's HH:MM boundaries into instants on the
// target day. An end at or before the start is taken to span past midnight.
func anchorWindow(w models.AvailabilityWindow, day time.Time, loc *time.Location) (time.Time, time.Time, error) {
	startHour, startMin, err := parseClock(w.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, models.NewValidationError("startTime", fmt.Sprintf("window %s: %v", w.ID, err))
	}
	endHour, endMin, err := parseClock(w.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, models.NewValidationError("endTime", fmt.Sprintf("window %s: %v", w.ID, err))
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), startHour, startMin, 0, 0, loc)
	end := time.Date(day.Year(), day.Month(), day.Day(), endHour, endMin, 0, 0, loc)
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}

// parseClock parses a strict "HH:MM" time-of-day string.
func parseClock(s string) (int, int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed time %q, want HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("malformed hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("malformed minute in %q", s)
	}
	return hour, minute, nil
}
