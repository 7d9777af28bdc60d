package models

import "time"

// SlotCandidate is a concrete bookable interval derived from an availability
// window for a specific date, expressed as zone-aware instants.
type SlotCandidate struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"` // e.g. "09:00 - 10:00"
}

// SlotListing is the public response for a therapist's bookable slots on a date.
type SlotListing struct {
	TherapistID string          `json:"therapistId"`
	Date        string          `json:"date"` // "2006-01-02" in the therapist's timezone
	Timezone    string          `json:"timezone"`
	Slots       []SlotCandidate `json:"slots"`
}
