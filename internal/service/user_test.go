package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tripshare/internal/model"
)

// =============================================================================
// MOCK REPOSITORY
// =============================================================================
//
// UserService depends on the UserRepository interface, so tests swap in a
// mock whose behaviour each test defines through the fn fields.

type mockUserRepository struct {
	createFn           func(ctx context.Context, user *model.User) error
	getByIDFn          func(ctx context.Context, id string) (*model.User, error)
	findByUsernameFn   func(ctx context.Context, username string) (*model.User, error)
	existsByUsernameFn func(ctx context.Context, username string) (bool, error)
	existsByEmailFn    func(ctx context.Context, email string) (bool, error)
	updateFn           func(ctx context.Context, user *model.User) error

	createCalls []*model.User
	updateCalls []*model.User
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	m.createCalls = append(m.createCalls, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.findByUsernameFn != nil {
		return m.findByUsernameFn(ctx, username)
	}
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, model.ErrUserNotFound
}

func (m *mockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if m.existsByUsernameFn != nil {
		return m.existsByUsernameFn(ctx, username)
	}
	return false, nil
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailFn != nil {
		return m.existsByEmailFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *model.User) error {
	m.updateCalls = append(m.updateCalls, user)
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return nil
}

func validRegisterInput() model.RegisterInput {
	return model.RegisterInput{
		Username: "noa_hikes",
		Email:    "noa@example.com",
		Password: "secret123",
		FullName: "Noa Bar",
	}
}

// =============================================================================
// REGISTER TESTS
// =============================================================================

func TestUserService_Register_Success(t *testing.T) {
	mockRepo := &mockUserRepository{}
	svc := NewUserService(mockRepo, nil).WithHashCost(bcrypt.MinCost)

	in := validRegisterInput()
	in.Username = "  noa_hikes "
	user, err := svc.Register(context.Background(), in)
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "noa_hikes", user.Username)
	assert.Equal(t, "Noa Bar", user.FullName)
	require.NotNil(t, user.ProfileImage)
	assert.Equal(t, "https://api.dicebear.com/7.x/avataaars/svg?seed=noa_hikes", *user.ProfileImage)
	assert.NotEqual(t, "secret123", user.PasswordHash, "password must be hashed")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret123")))

	require.Len(t, mockRepo.createCalls, 1)
	assert.Same(t, user, mockRepo.createCalls[0])
}

func TestUserService_Register_DefaultCost(t *testing.T) {
	svc := NewUserService(&mockUserRepository{}, nil)
	user, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(user.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, model.PasswordHashCost, cost)
}

func TestUserService_Register_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *model.RegisterInput)
	}{
		{"empty username", func(in *model.RegisterInput) { in.Username = "" }},
		{"blank email", func(in *model.RegisterInput) { in.Email = "   " }},
		{"empty password", func(in *model.RegisterInput) { in.Password = "" }},
		{"whitespace-only password", func(in *model.RegisterInput) { in.Password = "   " }},
		{"blank full name", func(in *model.RegisterInput) { in.FullName = "\t" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockUserRepository{}
			svc := NewUserService(mockRepo, nil).WithHashCost(bcrypt.MinCost)

			in := validRegisterInput()
			tt.mutate(&in)
			_, err := svc.Register(context.Background(), in)

			assert.ErrorIs(t, err, model.ErrMissingFields)
			assert.Empty(t, mockRepo.createCalls, "Create should not be called")
		})
	}
}

func TestUserService_Register_PasswordLength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"at the bcrypt limit", strings.Repeat("p", model.MaxPasswordBytes), nil},
		{"one byte over", strings.Repeat("p", model.MaxPasswordBytes+1), model.ErrPasswordTooLong},
		{"multibyte runes count as bytes", strings.Repeat("é", 37), model.ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &mockUserRepository{}
			svc := NewUserService(mockRepo, nil).WithHashCost(bcrypt.MinCost)

			in := validRegisterInput()
			in.Password = tt.password
			user, err := svc.Register(context.Background(), in)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, mockRepo.createCalls, "Create should not be called")
				return
			}
			require.NoError(t, err)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(tt.password)))
		})
	}
}

func TestUserService_Register_UsernameCheckedBeforeEmail(t *testing.T) {
	mockRepo := &mockUserRepository{
		existsByUsernameFn: func(ctx context.Context, username string) (bool, error) { return true, nil },
		existsByEmailFn:    func(ctx context.Context, email string) (bool, error) { return true, nil },
	}
	svc := NewUserService(mockRepo, nil).WithHashCost(bcrypt.MinCost)

	_, err := svc.Register(context.Background(), validRegisterInput())
	assert.ErrorIs(t, err, model.ErrUsernameTaken)
	assert.Empty(t, mockRepo.createCalls)
}

func TestUserService_Register_EmailTaken(t *testing.T) {
	mockRepo := &mockUserRepository{
		existsByEmailFn: func(ctx context.Context, email string) (bool, error) { return true, nil },
	}
	svc := NewUserService(mockRepo, nil).WithHashCost(bcrypt.MinCost)

	_, err := svc.Register(context.Background(), validRegisterInput())
	assert.ErrorIs(t, err, model.ErrEmailTaken)
}

func TestUserService_Register_StoreRaceMapsToTaken(t *testing.T) {
	mockRepo := &mockUserRepository{
		createFn: func(ctx context.Context, user *model.User) error { return model.ErrUsernameTaken },
	}
	svc := NewUserService(mockRepo, nil).WithHashCost(bcrypt.MinCost)

	_, err := svc.Register(context.Background(), validRegisterInput())
	assert.ErrorIs(t, err, model.ErrUsernameTaken)
}

func TestUserService_Register_RepositoryError(t *testing.T) {
	dbErr := errors.New("database connection failed")
	mockRepo := &mockUserRepository{
		existsByUsernameFn: func(ctx context.Context, username string) (bool, error) { return false, dbErr },
	}
	svc := NewUserService(mockRepo, nil).WithHashCost(bcrypt.MinCost)

	_, err := svc.Register(context.Background(), validRegisterInput())
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, model.ErrUsernameTaken)
}

func TestUserService_Register_ExistingDemoUsername(t *testing.T) {
	store := seededStore(t)
	svc := NewUserService(store.Users(), nil).WithHashCost(bcrypt.MinCost)

	_, err := svc.Register(context.Background(), model.RegisterInput{
		Username: "dana_explorer",
		Email:    "brand-new@example.com",
		Password: "pw",
		FullName: "Another Dana",
	})
	assert.ErrorIs(t, err, model.ErrUsernameTaken)
}

// =============================================================================
// PROFILE TESTS
// =============================================================================

func TestUserService_GetProfile_WithStats(t *testing.T) {
	store := seededStore(t)
	feedSvc := NewFeedService(nil, nil, store.Experiences())
	svc := NewUserService(store.Users(), feedSvc)

	profile, err := svc.GetProfile(context.Background(), "1")
	require.NoError(t, err)

	assert.Equal(t, "yael_travel", profile.User.Username)
	assert.Equal(t, model.ProfileStats{ExperienceCount: 1, CommentCount: 1, AverageRating: 5}, profile.Stats)

	_, err = svc.GetProfile(context.Background(), "404")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestUserService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	strp := func(s string) *string { return &s }

	t.Run("only the owner may edit", func(t *testing.T) {
		svc := NewUserService(seededStore(t).Users(), nil)
		_, err := svc.UpdateProfile(ctx, "2", "1", model.UpdateProfileInput{FullName: strp("Hacker")})
		assert.ErrorIs(t, err, model.ErrForbidden)
	})

	t.Run("email taken by another user", func(t *testing.T) {
		svc := NewUserService(seededStore(t).Users(), nil)
		_, err := svc.UpdateProfile(ctx, "1", "1", model.UpdateProfileInput{Email: strp("omer@example.com")})
		assert.ErrorIs(t, err, model.ErrEmailTaken)
	})

	t.Run("blank full name rejected", func(t *testing.T) {
		svc := NewUserService(seededStore(t).Users(), nil)
		_, err := svc.UpdateProfile(ctx, "1", "1", model.UpdateProfileInput{FullName: strp("  ")})
		assert.ErrorIs(t, err, model.ErrMissingFields)
	})

	t.Run("edits persist and blank bio clears", func(t *testing.T) {
		store := seededStore(t)
		svc := NewUserService(store.Users(), nil)

		updated, err := svc.UpdateProfile(ctx, "1", "1", model.UpdateProfileInput{
			FullName: strp("Yael C."),
			Email:    strp("yael@example.com"),
			Bio:      strp(""),
		})
		require.NoError(t, err)
		assert.Equal(t, "Yael C.", updated.FullName)
		assert.Nil(t, updated.Bio)

		stored, err := store.Users().GetByID(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, "Yael C.", stored.FullName)
		assert.Nil(t, stored.Bio)
	})

	t.Run("set profile image", func(t *testing.T) {
		svc := NewUserService(seededStore(t).Users(), nil)
		updated, err := svc.SetProfileImage(ctx, "3", "https://cdn.example.com/avatars/x.jpg")
		require.NoError(t, err)
		require.NotNil(t, updated.ProfileImage)
		assert.Equal(t, "https://cdn.example.com/avatars/x.jpg", *updated.ProfileImage)
	})
}
