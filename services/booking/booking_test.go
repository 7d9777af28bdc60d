package booking

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingRepo "stitchtherapy/database/repository/booking"
	"stitchtherapy/models"
	"stitchtherapy/services/scheduling"
	"stitchtherapy/utils"
)

type mockBookingRepo struct {
	GetByIDFunc               func(id string) (*models.Booking, error)
	GetByRoomIDFunc           func(roomID string) (*models.Booking, error)
	GetForActorFunc           func(actorID, role string) ([]models.Booking, error)
	FindOverlapCandidatesFunc func(therapistID string, windowStart, windowEnd time.Time, excludeID string) ([]models.Booking, error)
	CreateExclusiveFunc       func(ctx context.Context, booking *models.Booking, check bookingRepo.ConflictCheck) error
	RescheduleExclusiveFunc   func(ctx context.Context, booking *models.Booking, newStart time.Time, check bookingRepo.ConflictCheck) error
	UpdateFunc                func(booking *models.Booking) error
	CountSummaryFunc          func(since time.Time) (models.BookingSummary, error)
}

func (m *mockBookingRepo) GetByID(id string) (*models.Booking, error) { return m.GetByIDFunc(id) }
func (m *mockBookingRepo) GetByRoomID(roomID string) (*models.Booking, error) {
	return m.GetByRoomIDFunc(roomID)
}
func (m *mockBookingRepo) GetForActor(actorID, role string) ([]models.Booking, error) {
	return m.GetForActorFunc(actorID, role)
}
func (m *mockBookingRepo) FindOverlapCandidates(therapistID string, windowStart, windowEnd time.Time, excludeID string) ([]models.Booking, error) {
	return m.FindOverlapCandidatesFunc(therapistID, windowStart, windowEnd, excludeID)
}
func (m *mockBookingRepo) CreateExclusive(ctx context.Context, booking *models.Booking, check bookingRepo.ConflictCheck) error {
	return m.CreateExclusiveFunc(ctx, booking, check)
}
func (m *mockBookingRepo) RescheduleExclusive(ctx context.Context, booking *models.Booking, newStart time.Time, check bookingRepo.ConflictCheck) error {
	return m.RescheduleExclusiveFunc(ctx, booking, newStart, check)
}
func (m *mockBookingRepo) Update(booking *models.Booking) error { return m.UpdateFunc(booking) }
func (m *mockBookingRepo) CountSummary(since time.Time) (models.BookingSummary, error) {
	return m.CountSummaryFunc(since)
}

type mockUserRepo struct {
	GetByIDFunc    func(id string) (*models.User, error)
	GetByEmailFunc func(email string) (*models.User, error)
	CreateFunc     func(user *models.User) error
}

func (m *mockUserRepo) GetByID(id string) (*models.User, error)       { return m.GetByIDFunc(id) }
func (m *mockUserRepo) GetByEmail(email string) (*models.User, error) { return m.GetByEmailFunc(email) }
func (m *mockUserRepo) GetAll(role string) ([]models.User, error)     { return nil, nil }
func (m *mockUserRepo) FindFirstByRole(role string) (*models.User, error) {
	return nil, nil
}
func (m *mockUserRepo) Create(user *models.User) error { return m.CreateFunc(user) }
func (m *mockUserRepo) Update(user *models.User) error { return nil }

type mockSettingsRepo struct{}

func (m *mockSettingsRepo) Get() (*models.PlatformSettings, error) {
	return &models.PlatformSettings{Key: "global", PlatformName: "Happiness Therapy"}, nil
}
func (m *mockSettingsRepo) Update(*models.PlatformSettings) error { return nil }

type mockAuditRepo struct {
	entries []models.AuditEntry
}

func (m *mockAuditRepo) Append(entry *models.AuditEntry) error {
	m.entries = append(m.entries, *entry)
	return nil
}
func (m *mockAuditRepo) Recent(int64) ([]models.AuditEntry, error) { return m.entries, nil }

func therapistFixture() *models.User {
	return &models.User{ID: "t1", Role: models.RoleTherapist, Timezone: "UTC"}
}

func newService(bookings *mockBookingRepo, users *mockUserRepo) *DefaultBookingService {
	return NewDefaultBookingService(Deps{
		Bookings: bookings,
		Users:    users,
		Settings: &mockSettingsRepo{},
		Audit:    &mockAuditRepo{},
	})
}

func futureStart() time.Time {
	return time.Now().Add(48 * time.Hour).Truncate(time.Minute)
}

func TestCreateBookingPendingWithRoom(t *testing.T) {
	bookings := &mockBookingRepo{
		CreateExclusiveFunc: func(_ context.Context, b *models.Booking, check bookingRepo.ConflictCheck) error {
			if check(nil) {
				return bookingRepo.ErrBookingConflict
			}
			return nil
		},
	}
	users := &mockUserRepo{
		GetByIDFunc: func(string) (*models.User, error) { return therapistFixture(), nil },
	}
	svc := newService(bookings, users)

	b, err := svc.Create(Actor{ID: "c1", Role: models.RoleClient}, CreateInput{
		TherapistID: "t1",
		ScheduledAt: futureStart(),
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, b.Status)
	assert.NotEmpty(t, b.RoomID)
	assert.Equal(t, "c1", b.ClientID)
}

func TestCreateBookingConflict(t *testing.T) {
	start := futureStart()
	existing := models.Booking{
		ID: "b0", TherapistID: "t1", ScheduledAt: start, Status: models.BookingScheduled,
	}
	bookings := &mockBookingRepo{
		CreateExclusiveFunc: func(_ context.Context, b *models.Booking, check bookingRepo.ConflictCheck) error {
			if check([]models.Booking{existing}) {
				return bookingRepo.ErrBookingConflict
			}
			return nil
		},
	}
	users := &mockUserRepo{
		GetByIDFunc: func(string) (*models.User, error) { return therapistFixture(), nil },
	}
	svc := newService(bookings, users)

	_, err := svc.Create(Actor{ID: "c1", Role: models.RoleClient}, CreateInput{
		TherapistID: "t1",
		ScheduledAt: start.Add(10 * time.Minute),
	})
	var conflict *models.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestCreateBookingBackToBackAllowed(t *testing.T) {
	start := futureStart()
	existing := models.Booking{
		ID: "b0", TherapistID: "t1", ScheduledAt: start,
		DurationMinutes: 50, Status: models.BookingScheduled,
	}
	bookings := &mockBookingRepo{
		CreateExclusiveFunc: func(_ context.Context, b *models.Booking, check bookingRepo.ConflictCheck) error {
			if check([]models.Booking{existing}) {
				return bookingRepo.ErrBookingConflict
			}
			return nil
		},
	}
	users := &mockUserRepo{
		GetByIDFunc: func(string) (*models.User, error) { return therapistFixture(), nil },
	}
	svc := newService(bookings, users)

	_, err := svc.Create(Actor{ID: "c1", Role: models.RoleClient}, CreateInput{
		TherapistID: "t1",
		ScheduledAt: start.Add(50 * time.Minute),
	})
	require.NoError(t, err)
}

func TestCreateRejectsPastStart(t *testing.T) {
	svc := newService(&mockBookingRepo{}, &mockUserRepo{})

	_, err := svc.Create(Actor{ID: "c1", Role: models.RoleClient}, CreateInput{
		TherapistID: "t1",
		ScheduledAt: time.Now().Add(-time.Hour),
	})
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestCreateRejectsExcessiveDuration(t *testing.T) {
	svc := newService(&mockBookingRepo{}, &mockUserRepo{})

	_, err := svc.Create(Actor{ID: "c1", Role: models.RoleClient}, CreateInput{
		TherapistID:     "t1",
		ScheduledAt:     futureStart(),
		DurationMinutes: maxSessionMinutes + 1,
	})
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestCreateRejectsUnknownTherapist(t *testing.T) {
	users := &mockUserRepo{
		GetByIDFunc: func(string) (*models.User, error) { return nil, nil },
	}
	svc := newService(&mockBookingRepo{}, users)

	_, err := svc.Create(Actor{ID: "c1", Role: models.RoleClient}, CreateInput{
		TherapistID: "ghost",
		ScheduledAt: futureStart(),
	})
	var nf *models.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestCreateGuestRequiresConsent(t *testing.T) {
	svc := newService(&mockBookingRepo{}, &mockUserRepo{})

	_, err := svc.CreateGuest(GuestInput{
		TherapistID: "t1",
		ScheduledAt: futureStart(),
		Name:        "Ada",
		Email:       "ada@example.com",
		Consent:     false,
	}, "203.0.113.9")
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestCreateGuestProvisionsClient(t *testing.T) {
	var created *models.User
	users := &mockUserRepo{
		GetByIDFunc:    func(string) (*models.User, error) { return therapistFixture(), nil },
		GetByEmailFunc: func(string) (*models.User, error) { return nil, nil },
		CreateFunc: func(u *models.User) error {
			created = u
			return nil
		},
	}
	bookings := &mockBookingRepo{
		CreateExclusiveFunc: func(_ context.Context, b *models.Booking, _ bookingRepo.ConflictCheck) error {
			return nil
		},
	}
	svc := newService(bookings, users)

	b, err := svc.CreateGuest(GuestInput{
		TherapistID: "t1",
		ScheduledAt: futureStart(),
		Name:        "Ada",
		Email:       "ada@example.com",
		Consent:     true,
	}, "203.0.113.9")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, models.RoleClient, created.Role)
	assert.Equal(t, created.ID, b.ClientID)
}

func verifiedBooking(start time.Time) *models.Booking {
	raw := "rawtoken"
	return &models.Booking{
		ID: "b1", ClientID: "c1", TherapistID: "t1",
		ScheduledAt: start, Status: models.BookingVerified, RoomID: "r1",
		SecureCall: &models.SecureCall{
			TokenHash: utils.HashToken(raw),
			ExpiresAt: start.Add(2 * time.Hour),
		},
	}
}

func TestVerifyPaymentMintsCallLink(t *testing.T) {
	start := futureStart()
	stored := &models.Booking{
		ID: "b1", ClientID: "c1", TherapistID: "t1",
		ScheduledAt: start, Status: models.BookingPending, RoomID: "r1",
	}
	bookings := &mockBookingRepo{
		GetByIDFunc: func(string) (*models.Booking, error) { return stored, nil },
		UpdateFunc:  func(*models.Booking) error { return nil },
	}
	users := &mockUserRepo{
		GetByIDFunc: func(string) (*models.User, error) {
			return &models.User{ID: "c1", Email: "c@example.com"}, nil
		},
	}
	svc := newService(bookings, users)

	b, err := svc.VerifyPayment(Actor{ID: "a1", Role: models.RoleAdmin}, "b1",
		models.PaymentInfo{Provider: "bank", Reference: "TX-1"}, false)
	require.NoError(t, err)
	assert.Equal(t, models.BookingVerified, b.Status)
	require.NotNil(t, b.SecureCall)
	assert.NotEmpty(t, b.SecureCall.TokenHash)
	assert.Contains(t, b.SecureCall.Link, "/meeting/r1?token=")
	// Raw token never equals its stored hash.
	assert.NotContains(t, b.SecureCall.Link, b.SecureCall.TokenHash)
	assert.Equal(t, start.Add(2*time.Hour), b.SecureCall.ExpiresAt)
}

func TestVerifyPaymentDoubleVerifyNeedsOverride(t *testing.T) {
	stored := verifiedBooking(futureStart())
	bookings := &mockBookingRepo{
		GetByIDFunc: func(string) (*models.Booking, error) { return stored, nil },
		UpdateFunc:  func(*models.Booking) error { return nil },
	}
	users := &mockUserRepo{
		GetByIDFunc: func(string) (*models.User, error) { return &models.User{ID: "c1"}, nil },
	}
	svc := newService(bookings, users)

	_, err := svc.VerifyPayment(Actor{ID: "a1", Role: models.RoleAdmin}, "b1", models.PaymentInfo{}, false)
	var conflict *models.ConflictError
	require.ErrorAs(t, err, &conflict)

	// Override is admin-only.
	_, err = svc.VerifyPayment(Actor{ID: "t1", Role: models.RoleTherapist}, "b1", models.PaymentInfo{}, true)
	var authErr *models.AuthorizationError
	require.ErrorAs(t, err, &authErr)

	// Admin override rotates the link.
	previousHash := stored.SecureCall.TokenHash
	b, err := svc.VerifyPayment(Actor{ID: "a1", Role: models.RoleAdmin}, "b1", models.PaymentInfo{}, true)
	require.NoError(t, err)
	assert.NotEqual(t, previousHash, b.SecureCall.TokenHash)
}

func TestVerifyPaymentClientForbidden(t *testing.T) {
	svc := newService(&mockBookingRepo{}, &mockUserRepo{})

	_, err := svc.VerifyPayment(Actor{ID: "c1", Role: models.RoleClient}, "b1", models.PaymentInfo{}, false)
	var authErr *models.AuthorizationError
	require.ErrorAs(t, err, &authErr)
}

func TestValidateCallToken(t *testing.T) {
	stored := verifiedBooking(time.Now().Add(time.Hour))
	bookings := &mockBookingRepo{
		GetByRoomIDFunc: func(string) (*models.Booking, error) { return stored, nil },
		UpdateFunc:      func(*models.Booking) error { return nil },
	}
	svc := newService(bookings, &mockUserRepo{})

	b, err := svc.ValidateCallToken("r1", "rawtoken")
	require.NoError(t, err)
	assert.True(t, b.SecureCall.Used)

	_, err = svc.ValidateCallToken("r1", "wrong")
	var authErr *models.AuthorizationError
	require.ErrorAs(t, err, &authErr)
}

func TestValidateCallTokenExpired(t *testing.T) {
	stored := verifiedBooking(time.Now().Add(-3 * time.Hour))
	bookings := &mockBookingRepo{
		GetByRoomIDFunc: func(string) (*models.Booking, error) { return stored, nil },
	}
	svc := newService(bookings, &mockUserRepo{})

	_, err := svc.ValidateCallToken("r1", "rawtoken")
	var authErr *models.AuthorizationError
	require.ErrorAs(t, err, &authErr)
}

func TestRescheduleTherapistOwnOnly(t *testing.T) {
	stored := &models.Booking{
		ID: "b1", ClientID: "c1", TherapistID: "t1",
		ScheduledAt: futureStart(), Status: models.BookingScheduled,
	}
	bookings := &mockBookingRepo{
		GetByIDFunc: func(string) (*models.Booking, error) { return stored, nil },
	}
	svc := newService(bookings, &mockUserRepo{})

	_, err := svc.Reschedule(Actor{ID: "t2", Role: models.RoleTherapist}, "b1", futureStart().Add(time.Hour))
	var authErr *models.AuthorizationError
	require.ErrorAs(t, err, &authErr)
}

func TestRescheduleVerifiedAdminOnly(t *testing.T) {
	stored := verifiedBooking(futureStart())
	bookings := &mockBookingRepo{
		GetByIDFunc: func(string) (*models.Booking, error) { return stored, nil },
	}
	svc := newService(bookings, &mockUserRepo{})

	_, err := svc.Reschedule(Actor{ID: "t1", Role: models.RoleTherapist}, "b1", futureStart().Add(time.Hour))
	var authErr *models.AuthorizationError
	require.ErrorAs(t, err, &authErr)
}

func TestRescheduleClientForbidden(t *testing.T) {
	svc := newService(&mockBookingRepo{}, &mockUserRepo{})

	_, err := svc.Reschedule(Actor{ID: "c1", Role: models.RoleClient}, "b1", futureStart().Add(time.Hour))
	var authErr *models.AuthorizationError
	require.ErrorAs(t, err, &authErr)
}

func TestRescheduleResetsToScheduled(t *testing.T) {
	stored := &models.Booking{
		ID: "b1", ClientID: "c1", TherapistID: "t1",
		ScheduledAt: futureStart(), Status: models.BookingPending,
	}
	var statusInTxn string
	bookings := &mockBookingRepo{
		GetByIDFunc: func(string) (*models.Booking, error) { return stored, nil },
		RescheduleExclusiveFunc: func(_ context.Context, b *models.Booking, newStart time.Time, check bookingRepo.ConflictCheck) error {
			if check(nil) {
				return bookingRepo.ErrBookingConflict
			}
			b.ScheduledAt = newStart
			statusInTxn = b.Status
			return nil
		},
	}
	svc := newService(bookings, &mockUserRepo{})

	newStart := futureStart().Add(2 * time.Hour)
	b, err := svc.Reschedule(Actor{ID: "t1", Role: models.RoleTherapist}, "b1", newStart)
	require.NoError(t, err)
	assert.Equal(t, models.BookingScheduled, b.Status)
	assert.Equal(t, newStart, b.ScheduledAt)
	// The reset must already be in place when the transactional write runs.
	assert.Equal(t, models.BookingScheduled, statusInTxn)
}

func TestRescheduleConflict(t *testing.T) {
	start := futureStart()
	stored := &models.Booking{
		ID: "b1", ClientID: "c1", TherapistID: "t1",
		ScheduledAt: start, Status: models.BookingScheduled, DurationMinutes: 50,
	}
	other := models.Booking{
		ID: "b2", TherapistID: "t1", ScheduledAt: start.Add(3 * time.Hour),
		DurationMinutes: 50, Status: models.BookingScheduled,
	}
	bookings := &mockBookingRepo{
		GetByIDFunc: func(string) (*models.Booking, error) { return stored, nil },
		RescheduleExclusiveFunc: func(_ context.Context, b *models.Booking, newStart time.Time, check bookingRepo.ConflictCheck) error {
			if check([]models.Booking{other}) {
				return bookingRepo.ErrBookingConflict
			}
			return nil
		},
	}
	svc := newService(bookings, &mockUserRepo{})

	_, err := svc.Reschedule(Actor{ID: "t1", Role: models.RoleTherapist}, "b1", start.Add(3*time.Hour).Add(10*time.Minute))
	var conflict *models.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestUpdateStatusTransitionTable(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{models.BookingPending, models.BookingScheduled, true},
		{models.BookingPending, models.BookingCancelled, true},
		{models.BookingScheduled, models.BookingVerified, true},
		{models.BookingVerified, models.BookingCompleted, true},
		{models.BookingCompleted, models.BookingScheduled, false},
		{models.BookingCancelled, models.BookingPending, false},
		{models.BookingPending, models.BookingCompleted, false},
	}

	for _, tc := range cases {
		stored := &models.Booking{ID: "b1", ClientID: "c1", TherapistID: "t1", Status: tc.from}
		bookings := &mockBookingRepo{
			GetByIDFunc: func(string) (*models.Booking, error) { return stored, nil },
			UpdateFunc:  func(*models.Booking) error { return nil },
		}
		svc := newService(bookings, &mockUserRepo{})

		_, err := svc.UpdateStatus(Actor{ID: "a1", Role: models.RoleAdmin}, "b1", tc.to)
		if tc.ok {
			assert.NoError(t, err, "%s -> %s", tc.from, tc.to)
		} else {
			var conflict *models.ConflictError
			assert.ErrorAs(t, err, &conflict, "%s -> %s", tc.from, tc.to)
		}
	}
}

func TestUpdateStatusClientCanOnlyCancel(t *testing.T) {
	stored := &models.Booking{ID: "b1", ClientID: "c1", TherapistID: "t1", Status: models.BookingPending}
	bookings := &mockBookingRepo{
		GetByIDFunc: func(string) (*models.Booking, error) { return stored, nil },
		UpdateFunc:  func(*models.Booking) error { return nil },
	}
	svc := newService(bookings, &mockUserRepo{})

	_, err := svc.UpdateStatus(Actor{ID: "c1", Role: models.RoleClient}, "b1", models.BookingVerified)
	var authErr *models.AuthorizationError
	require.ErrorAs(t, err, &authErr)

	_, err = svc.UpdateStatus(Actor{ID: "c1", Role: models.RoleClient}, "b1", models.BookingCancelled)
	require.NoError(t, err)
}

func TestUpdateNotesStaffOnly(t *testing.T) {
	stored := &models.Booking{ID: "b1", ClientID: "c1", TherapistID: "t1", Status: models.BookingVerified}
	bookings := &mockBookingRepo{
		GetByIDFunc: func(string) (*models.Booking, error) { return stored, nil },
		UpdateFunc:  func(*models.Booking) error { return nil },
	}
	svc := newService(bookings, &mockUserRepo{})

	_, err := svc.UpdateNotes(Actor{ID: "c1", Role: models.RoleClient}, "b1", "notes")
	var authErr *models.AuthorizationError
	require.ErrorAs(t, err, &authErr)

	b, err := svc.UpdateNotes(Actor{ID: "t1", Role: models.RoleTherapist}, "b1", "made progress")
	require.NoError(t, err)
	assert.Equal(t, "made progress", b.Notes)
}

func TestEndCallCompletesBooking(t *testing.T) {
	stored := verifiedBooking(futureStart())
	bookings := &mockBookingRepo{
		GetByIDFunc: func(string) (*models.Booking, error) { return stored, nil },
		UpdateFunc:  func(*models.Booking) error { return nil },
	}
	svc := newService(bookings, &mockUserRepo{})

	b, err := svc.EndCall(Actor{ID: "t1", Role: models.RoleTherapist}, "b1")
	require.NoError(t, err)
	assert.Equal(t, models.BookingCompleted, b.Status)
	require.NotNil(t, b.CallEndedAt)
}

func TestAvailableSlotsFiltersBooked(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) // Monday
	day := 1
	windows := []models.AvailabilityWindow{{
		ID: "w1", TherapistID: "t1", Mode: models.WindowRecurring,
		DayOfWeek: &day, StartTime: "09:00", EndTime: "12:00", Active: true,
	}}
	booked := models.Booking{
		ID: "b1", TherapistID: "t1", ScheduledAt: start.Add(time.Hour),
		DurationMinutes: 60, Status: models.BookingScheduled,
	}

	users := &mockUserRepo{
		GetByIDFunc: func(string) (*models.User, error) { return therapistFixture(), nil },
	}
	bookings := &mockBookingRepo{
		FindOverlapCandidatesFunc: func(string, time.Time, time.Time, string) ([]models.Booking, error) {
			return []models.Booking{booked}, nil
		},
	}
	svc := NewDefaultBookingService(Deps{
		Bookings: bookings,
		Users:    users,
		Availability: &mockAvailabilityRepo{
			GetActiveByTherapistFunc: func(string) ([]models.AvailabilityWindow, error) {
				return windows, nil
			},
		},
		Settings: &mockSettingsRepo{},
		Audit:    &mockAuditRepo{},
	})

	listing, err := svc.AvailableSlots("t1", "2026-03-02", 60)
	require.NoError(t, err)
	// 09:00, 11:00 remain; 10:00 is booked.
	require.Len(t, listing.Slots, 2)
	assert.Equal(t, "09:00 - 10:00", listing.Slots[0].Label)
	assert.Equal(t, "11:00 - 12:00", listing.Slots[1].Label)
}

func TestAvailableSlotsExcludesEarlierOverhangingBooking(t *testing.T) {
	day := 1
	windows := []models.AvailabilityWindow{{
		ID: "w1", TherapistID: "t1", Mode: models.WindowRecurring,
		DayOfWeek: &day, StartTime: "09:00", EndTime: "12:00", Active: true,
	}}
	// Starts an hour before the first slot and overhangs into it.
	booked := models.Booking{
		ID: "b1", TherapistID: "t1",
		ScheduledAt:     time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
		DurationMinutes: 90, Status: models.BookingScheduled,
	}

	users := &mockUserRepo{
		GetByIDFunc: func(string) (*models.User, error) { return therapistFixture(), nil },
	}
	// Matches on start instant only, the way the repository query does. The
	// booking is returned only if the requested window is padded wide enough
	// to reach its 08:00 start.
	bookings := &mockBookingRepo{
		FindOverlapCandidatesFunc: func(_ string, windowStart, windowEnd time.Time, _ string) ([]models.Booking, error) {
			if !booked.ScheduledAt.Before(windowStart) && !booked.ScheduledAt.After(windowEnd) {
				return []models.Booking{booked}, nil
			}
			return nil, nil
		},
	}
	svc := NewDefaultBookingService(Deps{
		Bookings: bookings,
		Users:    users,
		Availability: &mockAvailabilityRepo{
			GetActiveByTherapistFunc: func(string) ([]models.AvailabilityWindow, error) {
				return windows, nil
			},
		},
		Settings: &mockSettingsRepo{},
		Audit:    &mockAuditRepo{},
	})

	listing, err := svc.AvailableSlots("t1", "2026-03-02", 60)
	require.NoError(t, err)
	// 09:00 collides with the 08:00-09:30 booking; 10:00 and 11:00 remain.
	require.Len(t, listing.Slots, 2)
	assert.Equal(t, "10:00 - 11:00", listing.Slots[0].Label)
	assert.Equal(t, "11:00 - 12:00", listing.Slots[1].Label)
}

type mockAvailabilityRepo struct {
	GetActiveByTherapistFunc func(therapistID string) ([]models.AvailabilityWindow, error)
}

func (m *mockAvailabilityRepo) GetByID(string) (*models.AvailabilityWindow, error) { return nil, nil }
func (m *mockAvailabilityRepo) GetByTherapist(string) ([]models.AvailabilityWindow, error) {
	return nil, nil
}
func (m *mockAvailabilityRepo) GetActiveByTherapist(id string) ([]models.AvailabilityWindow, error) {
	return m.GetActiveByTherapistFunc(id)
}
func (m *mockAvailabilityRepo) GetAll() ([]models.AvailabilityWindow, error) { return nil, nil }
func (m *mockAvailabilityRepo) Create(*models.AvailabilityWindow) error      { return nil }
func (m *mockAvailabilityRepo) Update(*models.AvailabilityWindow) error      { return nil }
func (m *mockAvailabilityRepo) Delete(string) error                          { return nil }

func TestSummaryRanges(t *testing.T) {
	bookings := &mockBookingRepo{
		CountSummaryFunc: func(since time.Time) (models.BookingSummary, error) {
			return models.BookingSummary{Total: 3}, nil
		},
	}
	svc := newService(bookings, &mockUserRepo{})

	summary, err := svc.Summary("week")
	require.NoError(t, err)
	assert.Equal(t, "week", summary.Range)
	assert.Equal(t, int64(3), summary.Total)

	_, err = svc.Summary("decade")
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
}

type mockAnnouncer struct {
	room    string
	msgType string
}

func (m *mockAnnouncer) Announce(room, msgType string, _ json.RawMessage) {
	m.room = room
	m.msgType = msgType
}

func TestEndCallAnnouncesIntoRoom(t *testing.T) {
	stored := verifiedBooking(futureStart())
	bookings := &mockBookingRepo{
		GetByIDFunc: func(string) (*models.Booking, error) { return stored, nil },
		UpdateFunc:  func(*models.Booking) error { return nil },
	}
	announcer := &mockAnnouncer{}
	svc := NewDefaultBookingService(Deps{
		Bookings: bookings,
		Users:    &mockUserRepo{},
		Settings: &mockSettingsRepo{},
		Audit:    &mockAuditRepo{},
		Rooms:    announcer,
	})

	_, err := svc.EndCall(Actor{ID: "t1", Role: models.RoleTherapist}, "b1")
	require.NoError(t, err)
	assert.Equal(t, "r1", announcer.room)
	assert.Equal(t, "end-call", announcer.msgType)
}

func TestMuteStaffOnly(t *testing.T) {
	stored := verifiedBooking(futureStart())
	bookings := &mockBookingRepo{
		GetByIDFunc: func(string) (*models.Booking, error) { return stored, nil },
	}
	announcer := &mockAnnouncer{}
	svc := NewDefaultBookingService(Deps{
		Bookings: bookings,
		Users:    &mockUserRepo{},
		Settings: &mockSettingsRepo{},
		Audit:    &mockAuditRepo{},
		Rooms:    announcer,
	})

	err := svc.Mute(Actor{ID: "c1", Role: models.RoleClient}, "b1", "p1")
	var authErr *models.AuthorizationError
	require.ErrorAs(t, err, &authErr)

	require.NoError(t, svc.Mute(Actor{ID: "t1", Role: models.RoleTherapist}, "b1", "p1"))
	assert.Equal(t, "mute", announcer.msgType)
}

// Filter/reject consistency: the closure passed to the repository applies the
// same predicate the service uses for public slot filtering.
func TestConflictClosureMatchesOverlapGuard(t *testing.T) {
	start := futureStart()
	existing := []models.Booking{{
		ID: "b0", TherapistID: "t1", ScheduledAt: start, DurationMinutes: 50,
		Status: models.BookingScheduled,
	}}

	var captured bookingRepo.ConflictCheck
	bookings := &mockBookingRepo{
		CreateExclusiveFunc: func(_ context.Context, b *models.Booking, check bookingRepo.ConflictCheck) error {
			captured = check
			return nil
		},
	}
	users := &mockUserRepo{
		GetByIDFunc: func(string) (*models.User, error) { return therapistFixture(), nil },
	}
	svc := newService(bookings, users)

	candidate := start.Add(25 * time.Minute)
	_, err := svc.Create(Actor{ID: "c1", Role: models.RoleClient}, CreateInput{
		TherapistID: "t1", ScheduledAt: candidate, DurationMinutes: 50,
	})
	require.NoError(t, err)
	require.NotNil(t, captured)

	assert.Equal(t,
		scheduling.HasOverlap(candidate, candidate.Add(50*time.Minute), existing),
		captured(existing))
}
