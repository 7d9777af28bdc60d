// Package user implements authentication and account management.
package user

import (
	"errors"
	"time"

	"stitchtherapy/models"
	"stitchtherapy/utils"

	userRepo "stitchtherapy/database/repository/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

// AuthResult is what a successful login returns.
type AuthResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// UserService exposes account and authentication operations.
type UserService interface {
	// Login verifies credentials and returns a signed session token.
	Login(email, password string) (*AuthResult, error)
	// Register creates an account with the given role.
	Register(name, email, password, role string) (*models.User, error)
	// GetByID fetches a user by ID.
	GetByID(id string) (*models.User, error)
	// ListTherapists returns every therapist account.
	ListTherapists() ([]models.User, error)
	// ListByRole returns accounts for an admin view, optionally filtered.
	ListByRole(role string) ([]models.User, error)
	// FindOrCreateClient resolves a guest booking's email to an account,
	// provisioning a client with an unusable random password when new.
	FindOrCreateClient(name, email, phone string) (*models.User, error)
	// UpdateProfile applies profile fields a user may edit on themselves.
	UpdateProfile(id string, updates map[string]any) (*models.User, error)
}

// DefaultUserService is the production implementation.
type DefaultUserService struct {
	repo   userRepo.UserRepository
	logger *zap.Logger
}

// NewDefaultUserService constructs the service over a user repository.
func NewDefaultUserService(repo userRepo.UserRepository) *DefaultUserService {
	return &DefaultUserService{repo: repo, logger: utils.GetLogger().Named("users")}
}

// Login verifies the email/password pair and mints a session JWT carrying
// the user's role.
func (s *DefaultUserService) Login(email, password string) (*AuthResult, error) {
	account, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, models.NewAuthorizationError("invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		return nil, models.NewAuthorizationError("invalid email or password")
	}

	token, err := utils.GenerateToken(account.ID, account.Role, tokenTTL)
	if err != nil {
		return nil, err
	}

	account.TokenHash = utils.HashToken(token)
	if err := s.repo.Update(account); err != nil {
		s.logger.Warn("failed to persist session hash", zap.String("user", account.ID), zap.Error(err))
	}

	return &AuthResult{Token: token, User: *account}, nil
}

// Register creates a new account. Emails are unique; a duplicate surfaces
// as a conflict.
func (s *DefaultUserService) Register(name, email, password, role string) (*models.User, error) {
	if role != models.RoleClient && role != models.RoleTherapist && role != models.RoleAdmin {
		return nil, models.NewValidationError("role", "unknown role")
	}

	existing, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("an account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	account := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.repo.Create(account); err != nil {
		return nil, err
	}
	s.logger.Info("account created", zap.String("user", account.ID), zap.String("role", role))
	return account, nil
}

// GetByID fetches a user by ID.
func (s *DefaultUserService) GetByID(id string) (*models.User, error) {
	account, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, models.NewNotFoundError("user", id)
	}
	return account, nil
}

// ListTherapists returns every therapist account.
func (s *DefaultUserService) ListTherapists() ([]models.User, error) {
	return s.repo.GetAll(models.RoleTherapist)
}

// ListByRole returns accounts, optionally filtered by role.
func (s *DefaultUserService) ListByRole(role string) ([]models.User, error) {
	return s.repo.GetAll(role)
}

// FindOrCreateClient resolves a guest email to an account. New accounts get
// a random password hash so the guest can later use a password reset flow;
// the plaintext is never known to anyone.
func (s *DefaultUserService) FindOrCreateClient(name, email, phone string) (*models.User, error) {
	existing, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	randomPw, err := utils.RandomToken(16)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(randomPw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	account := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Phone:        phone,
		PasswordHash: string(hash),
		Role:         models.RoleClient,
	}
	if err := s.repo.Create(account); err != nil {
		return nil, err
	}
	s.logger.Info("guest client provisioned", zap.String("user", account.ID))
	return account, nil
}

// UpdateProfile applies self-editable fields.
func (s *DefaultUserService) UpdateProfile(id string, updates map[string]any) (*models.User, error) {
	account, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if v, ok := updates["name"].(string); ok && v != "" {
		account.Name = v
	}
	if v, ok := updates["phone"].(string); ok {
		account.Phone = v
	}
	if v, ok := updates["bio"].(string); ok {
		account.Bio = v
	}
	if v, ok := updates["timezone"].(string); ok && v != "" {
		if _, tzErr := time.LoadLocation(v); tzErr != nil {
			return nil, models.NewValidationError("timezone", "unknown timezone")
		}
		account.Timezone = v
	}
	if v, ok := updates["specialties"].([]string); ok {
		account.Specialties = v
	}

	if err := s.repo.Update(account); err != nil {
		return nil, err
	}
	return account, nil
}

// SeedAccounts creates the configured admin and therapist accounts on first
// boot. Missing passwords skip the seed rather than creating a guessable
// account.
func (s *DefaultUserService) SeedAccounts(adminEmail, adminPassword, therapistEmail, therapistPassword string) error {
	seed := func(email, password, role, name string) error {
		if email == "" || password == "" {
			return nil
		}
		existing, err := s.repo.GetByEmail(email)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}
		_, err = s.Register(name, email, password, role)
		var conflict *models.ConflictError
		if errors.As(err, &conflict) {
			return nil
		}
		return err
	}

	if err := seed(adminEmail, adminPassword, models.RoleAdmin, "Administrator"); err != nil {
		return err
	}
	return seed(therapistEmail, therapistPassword, models.RoleTherapist, "Therapist")
}
