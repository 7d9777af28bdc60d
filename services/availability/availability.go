// Package availability manages therapist availability windows.
package availability

import (
	"regexp"
	"time"

	availabilityRepo "stitchtherapy/database/repository/availability"
	"stitchtherapy/models"
	"stitchtherapy/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// WindowInput is the payload for creating or updating a window.
type WindowInput struct {
	Mode         string     `json:"mode" binding:"omitempty,oneof=recurring specific"`
	DayOfWeek    *int       `json:"dayOfWeek"`
	SpecificDate *time.Time `json:"specificDate"`
	StartTime    string     `json:"startTime" binding:"required,hhmm"`
	EndTime      string     `json:"endTime" binding:"required,hhmm"`
	Active       *bool      `json:"active"`
}

// AvailabilityService manages a therapist's declared windows.
type AvailabilityService interface {
	// Create adds a window for the therapist.
	Create(therapistID string, input WindowInput) (*models.AvailabilityWindow, error)
	// Update edits a window; only the owner or an admin may do so.
	Update(actorID, role, windowID string, input WindowInput) (*models.AvailabilityWindow, error)
	// Delete removes a window; only the owner or an admin may do so.
	Delete(actorID, role, windowID string) error
	// ListForTherapist returns all windows a therapist owns.
	ListForTherapist(therapistID string) ([]models.AvailabilityWindow, error)
	// ListAll returns every window (admin view).
	ListAll() ([]models.AvailabilityWindow, error)
}

// DefaultAvailabilityService is the production implementation.
type DefaultAvailabilityService struct {
	repo   availabilityRepo.AvailabilityRepository
	logger *zap.Logger
}

// NewDefaultAvailabilityService constructs the service.
func NewDefaultAvailabilityService(repo availabilityRepo.AvailabilityRepository) *DefaultAvailabilityService {
	return &DefaultAvailabilityService{repo: repo, logger: utils.GetLogger().Named("availability")}
}

func validateInput(input WindowInput) error {
	if !clockPattern.MatchString(input.StartTime) {
		return models.NewValidationError("startTime", "must be HH:MM")
	}
	if !clockPattern.MatchString(input.EndTime) {
		return models.NewValidationError("endTime", "must be HH:MM")
	}

	mode := input.Mode
	if mode == "" {
		if input.SpecificDate != nil && input.DayOfWeek == nil {
			mode = models.WindowSpecific
		} else {
			mode = models.WindowRecurring
		}
	}
	switch mode {
	case models.WindowRecurring:
		if input.DayOfWeek == nil || *input.DayOfWeek < 0 || *input.DayOfWeek > 6 {
			return models.NewValidationError("dayOfWeek", "recurring windows need a weekday 0-6")
		}
	case models.WindowSpecific:
		if input.SpecificDate == nil {
			return models.NewValidationError("specificDate", "specific windows need a date")
		}
	}
	return nil
}

// Create adds a window for the therapist.
func (s *DefaultAvailabilityService) Create(therapistID string, input WindowInput) (*models.AvailabilityWindow, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var window models.AvailabilityWindow
	if input.SpecificDate != nil && (input.Mode == models.WindowSpecific || input.DayOfWeek == nil) {
		window = models.NewOneOffWindow(therapistID, *input.SpecificDate, input.StartTime, input.EndTime)
	} else {
		window = models.NewRecurringWindow(therapistID, *input.DayOfWeek, input.StartTime, input.EndTime)
	}
	window.ID = uuid.NewString()
	if input.Active != nil {
		window.Active = *input.Active
	}

	if err := s.repo.Create(&window); err != nil {
		return nil, err
	}
	s.logger.Info("availability window created",
		zap.String("window", window.ID),
		zap.String("therapist", therapistID))
	return &window, nil
}

func (s *DefaultAvailabilityService) owned(actorID, role, windowID string) (*models.AvailabilityWindow, error) {
	window, err := s.repo.GetByID(windowID)
	if err != nil {
		return nil, err
	}
	if window == nil {
		return nil, models.NewNotFoundError("availability window", windowID)
	}
	if role != models.RoleAdmin && window.TherapistID != actorID {
		return nil, models.NewAuthorizationError("you do not own this availability window")
	}
	return window, nil
}

// Update edits a window, restricted to the owner or an admin.
func (s *DefaultAvailabilityService) Update(actorID, role, windowID string, input WindowInput) (*models.AvailabilityWindow, error) {
	window, err := s.owned(actorID, role, windowID)
	if err != nil {
		return nil, err
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	window.StartTime = input.StartTime
	window.EndTime = input.EndTime
	if input.Mode != "" {
		window.Mode = input.Mode
	}
	if input.DayOfWeek != nil {
		window.DayOfWeek = input.DayOfWeek
	}
	if input.SpecificDate != nil {
		window.SpecificDate = input.SpecificDate
	}
	if input.Active != nil {
		window.Active = *input.Active
	}

	if err := s.repo.Update(window); err != nil {
		return nil, err
	}
	return window, nil
}

// Delete removes a window, restricted to the owner or an admin.
func (s *DefaultAvailabilityService) Delete(actorID, role, windowID string) error {
	if _, err := s.owned(actorID, role, windowID); err != nil {
		return err
	}
	return s.repo.Delete(windowID)
}

// ListForTherapist returns all windows a therapist owns.
func (s *DefaultAvailabilityService) ListForTherapist(therapistID string) ([]models.AvailabilityWindow, error) {
	return s.repo.GetByTherapist(therapistID)
}

// ListAll returns every window.
func (s *DefaultAvailabilityService) ListAll() ([]models.AvailabilityWindow, error) {
	return s.repo.GetAll()
}
