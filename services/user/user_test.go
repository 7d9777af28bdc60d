package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"stitchtherapy/models"
)

type mockUserRepo struct {
	GetByIDFunc         func(id string) (*models.User, error)
	GetByEmailFunc      func(email string) (*models.User, error)
	GetAllFunc          func(role string) ([]models.User, error)
	FindFirstByRoleFunc func(role string) (*models.User, error)
	CreateFunc          func(user *models.User) error
	UpdateFunc          func(user *models.User) error
}

func (m *mockUserRepo) GetByID(id string) (*models.User, error) { return m.GetByIDFunc(id) }
func (m *mockUserRepo) GetByEmail(email string) (*models.User, error) {
	return m.GetByEmailFunc(email)
}
func (m *mockUserRepo) GetAll(role string) ([]models.User, error) { return m.GetAllFunc(role) }
func (m *mockUserRepo) FindFirstByRole(role string) (*models.User, error) {
	return m.FindFirstByRoleFunc(role)
}
func (m *mockUserRepo) Create(user *models.User) error { return m.CreateFunc(user) }
func (m *mockUserRepo) Update(user *models.User) error { return m.UpdateFunc(user) }

func hashed(password string) string {
	h, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(h)
}

func TestLoginSuccess(t *testing.T) {
	account := &models.User{
		ID:           "u1",
		Email:        "ada@example.com",
		PasswordHash: hashed("correct-horse"),
		Role:         models.RoleClient,
	}
	repo := &mockUserRepo{
		GetByEmailFunc: func(string) (*models.User, error) { return account, nil },
		UpdateFunc:     func(*models.User) error { return nil },
	}
	svc := NewDefaultUserService(repo)

	result, err := svc.Login("ada@example.com", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "u1", result.User.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	account := &models.User{ID: "u1", PasswordHash: hashed("correct-horse")}
	repo := &mockUserRepo{
		GetByEmailFunc: func(string) (*models.User, error) { return account, nil },
	}
	svc := NewDefaultUserService(repo)

	_, err := svc.Login("ada@example.com", "wrong")
	var authErr *models.AuthorizationError
	require.ErrorAs(t, err, &authErr)
}

func TestLoginUnknownEmail(t *testing.T) {
	repo := &mockUserRepo{
		GetByEmailFunc: func(string) (*models.User, error) { return nil, nil },
	}
	svc := NewDefaultUserService(repo)

	_, err := svc.Login("nobody@example.com", "whatever")
	var authErr *models.AuthorizationError
	require.ErrorAs(t, err, &authErr)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{
		GetByEmailFunc: func(string) (*models.User, error) {
			return &models.User{ID: "u1"}, nil
		},
	}
	svc := NewDefaultUserService(repo)

	_, err := svc.Register("Ada", "ada@example.com", "pw", models.RoleClient)
	var conflict *models.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	svc := NewDefaultUserService(&mockUserRepo{})

	_, err := svc.Register("Ada", "ada@example.com", "pw", "superuser")
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestFindOrCreateClientReturnsExisting(t *testing.T) {
	existing := &models.User{ID: "u1", Email: "ada@example.com", Role: models.RoleClient}
	repo := &mockUserRepo{
		GetByEmailFunc: func(string) (*models.User, error) { return existing, nil },
	}
	svc := NewDefaultUserService(repo)

	got, err := svc.FindOrCreateClient("Ada", "ada@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
}

func TestFindOrCreateClientProvisionsNewAccount(t *testing.T) {
	var created *models.User
	repo := &mockUserRepo{
		GetByEmailFunc: func(string) (*models.User, error) { return nil, nil },
		CreateFunc: func(u *models.User) error {
			created = u
			return nil
		},
	}
	svc := NewDefaultUserService(repo)

	got, err := svc.FindOrCreateClient("Ada", "ada@example.com", "+44 1234")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, models.RoleClient, got.Role)
	assert.NotEmpty(t, got.PasswordHash)
	assert.NotEqual(t, "ada@example.com", got.PasswordHash)
}

func TestUpdateProfileRejectsBadTimezone(t *testing.T) {
	repo := &mockUserRepo{
		GetByIDFunc: func(string) (*models.User, error) {
			return &models.User{ID: "u1"}, nil
		},
	}
	svc := NewDefaultUserService(repo)

	_, err := svc.UpdateProfile("u1", map[string]any{"timezone": "Mars/Olympus"})
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
}
