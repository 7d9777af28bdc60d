package booking

import (
	"sort"

	"stitchtherapy/models"
)

// ClientDirectory builds a therapist's view of the clients they have seen,
// derived from their booking history, newest session first.
func (s *DefaultBookingService) ClientDirectory(actor Actor) ([]models.ClientDirectoryEntry, error) {
	if actor.Role != models.RoleTherapist && actor.Role != models.RoleAdmin {
		return nil, models.NewAuthorizationError("only staff can list clients")
	}

	bookings, err := s.bookings.GetForActor(actor.ID, actor.Role)
	if err != nil {
		return nil, err
	}

	latest := make(map[string]models.Booking)
	for _, b := range bookings {
		if current, ok := latest[b.ClientID]; !ok || b.ScheduledAt.After(current.ScheduledAt) {
			latest[b.ClientID] = b
		}
	}

	entries := make([]models.ClientDirectoryEntry, 0, len(latest))
	for clientID, b := range latest {
		client, err := s.users.GetByID(clientID)
		if err != nil || client == nil {
			continue
		}
		entries = append(entries, models.ClientDirectoryEntry{
			ID:          client.ID,
			Name:        client.Name,
			Email:       client.Email,
			LastSession: b.ScheduledAt,
			Status:      b.Status,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastSession.After(entries[j].LastSession)
	})
	return entries, nil
}
