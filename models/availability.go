package models

import "time"

// Availability window modes. A recurring window repeats on a weekday; a
// specific window applies to a single calendar date.
const (
	WindowRecurring = "recurring"
	WindowSpecific  = "specific"
)

// AvailabilityWindow is a therapist-declared span of bookable time-of-day.
// StartTime/EndTime are "HH:MM" strings interpreted in the therapist's
// timezone. Exactly one of DayOfWeek / SpecificDate is meaningful,
// selected by Mode.
type AvailabilityWindow struct {
	ID           string     `bson:"id" json:"id"`
	TherapistID  string     `bson:"therapistId" json:"therapistId"`
	Mode         string     `bson:"mode" json:"mode"`
	DayOfWeek    *int       `bson:"dayOfWeek,omitempty" json:"dayOfWeek,omitempty"` // 0=Sunday .. 6=Saturday
	SpecificDate *time.Time `bson:"specificDate,omitempty" json:"specificDate,omitempty"`
	StartTime    string     `bson:"startTime" json:"startTime"`
	EndTime      string     `bson:"endTime" json:"endTime"`
	Active       bool       `bson:"active" json:"active"`
	CreatedAt    time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// NewRecurringWindow builds a weekday-repeating window.
func NewRecurringWindow(therapistID string, dayOfWeek int, startTime, endTime string) AvailabilityWindow {
	d := dayOfWeek
	return AvailabilityWindow{
		TherapistID: therapistID,
		Mode:        WindowRecurring,
		DayOfWeek:   &d,
		StartTime:   startTime,
		EndTime:     endTime,
		Active:      true,
	}
}

// NewOneOffWindow builds a single-date window.
func NewOneOffWindow(therapistID string, date time.Time, startTime, endTime string) AvailabilityWindow {
	return AvailabilityWindow{
		TherapistID:  therapistID,
		Mode:         WindowSpecific,
		SpecificDate: &date,
		StartTime:    startTime,
		EndTime:      endTime,
		Active:       true,
	}
}

// EffectiveMode resolves the window mode, defaulting legacy documents that
// carry neither discriminator to recurring so their slots stay visible.
func (w AvailabilityWindow) EffectiveMode() string {
	switch w.Mode {
	case WindowRecurring, WindowSpecific:
		return w.Mode
	}
	if w.SpecificDate != nil && w.DayOfWeek == nil {
		return WindowSpecific
	}
	return WindowRecurring
}
