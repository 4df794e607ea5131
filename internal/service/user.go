package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"tripshare/internal/logger"
	"tripshare/internal/model"
	"tripshare/internal/repository"
)

const defaultAvatarBase = "https://api.dicebear.com/7.x/avataaars/svg?seed="

// StatsProvider computes a user's profile statistics. *FeedService implements it.
type StatsProvider interface {
	Stats(ctx context.Context, userID string) (model.ProfileStats, error)
}

// UserService handles signup and profile management.
type UserService struct {
	repo  repository.UserRepository
	stats StatsProvider
	cost  int
	log   zerolog.Logger
}

func NewUserService(repo repository.UserRepository, stats StatsProvider) *UserService {
	return &UserService{
		repo:  repo,
		stats: stats,
		cost:  model.PasswordHashCost,
		log:   logger.For("UserService"),
	}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *UserService) WithHashCost(cost int) *UserService {
	s.cost = cost
	return s
}

// DefaultAvatarURL is the generated avatar assigned on signup.
func DefaultAvatarURL(username string) string {
	return defaultAvatarBase + url.QueryEscape(username)
}

// Register validates the signup candidate and persists a new user.
// Username conflicts are reported before email conflicts.
func (s *UserService) Register(ctx context.Context, in model.RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	fullName := strings.TrimSpace(in.FullName)

	if username == "" || email == "" || fullName == "" || strings.TrimSpace(in.Password) == "" {
		return nil, model.ErrMissingFields
	}
	if len(in.Password) > model.MaxPasswordBytes {
		return nil, model.ErrPasswordTooLong
	}

	exists, err := s.repo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, model.ErrUsernameTaken
	}

	exists, err = s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, model.ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	avatar := DefaultAvatarURL(username)
	user := &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hashed),
		ProfileImage: &avatar,
	}

	// a concurrent signup can still win the race; the store reports it
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrUsernameTaken) || errors.Is(err, model.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info().Str("user", user.ID).Str("username", user.Username).Msg("Register OK")
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetProfile returns the user together with their experience statistics.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*model.ProfileResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &model.ProfileResponse{User: user}
	if s.stats != nil {
		stats, err := s.stats.Stats(ctx, userID)
		if err != nil {
			return nil, err
		}
		profile.Stats = stats
	}
	return profile, nil
}

// UpdateProfile edits the owner's profile fields. Only the owner may edit.
func (s *UserService) UpdateProfile(ctx context.Context, actorID, userID string, in model.UpdateProfileInput) (*model.User, error) {
	if actorID != userID {
		return nil, model.ErrForbidden
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return nil, model.ErrMissingFields
		}
		user.FullName = name
	}

	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email == "" {
			return nil, model.ErrMissingFields
		}
		if email != user.Email {
			exists, err := s.repo.ExistsByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			if exists {
				return nil, model.ErrEmailTaken
			}
		}
		user.Email = email
	}

	if in.Bio != nil {
		user.Bio = optionalString(*in.Bio)
	}
	if in.ProfileImage != nil {
		user.ProfileImage = optionalString(*in.ProfileImage)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, model.ErrEmailTaken) || errors.Is(err, model.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// SetProfileImage replaces the avatar URL after an upload.
func (s *UserService) SetProfileImage(ctx context.Context, userID, imageURL string) (*model.User, error) {
	return s.UpdateProfile(ctx, userID, userID, model.UpdateProfileInput{ProfileImage: &imageURL})
}

// optionalString maps blank input to nil so the column is cleared.
func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
