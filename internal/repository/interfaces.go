package repository

import (
	"context"
	"time"

	"tripshare/internal/cache"
	"tripshare/internal/model"
)

type UserRepository interface {
	// Create inserts u as given (ID included). Uniqueness violations surface
	// as model.ErrUsernameTaken or model.ErrEmailTaken.
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Update persists the editable profile fields.
	Update(ctx context.Context, u *model.User) error
}

type ExperienceRepository interface {
	// Create inserts the experience and its images.
	Create(ctx context.Context, e *model.Experience) error
	// GetByID returns the experience with images, comments and creator.
	GetByID(ctx context.Context, id string) (*model.Experience, error)
	// GetByIDs hydrates experiences in the order of ids, skipping missing ones.
	GetByIDs(ctx context.Context, ids []string) ([]model.Experience, error)
	// List returns every experience, newest first.
	List(ctx context.Context) ([]model.Experience, error)
	ListByCreator(ctx context.Context, creatorID string) ([]model.Experience, error)
	// Count is the total number of experiences.
	Count(ctx context.Context) (int, error)
	// ListRecentIDs feeds cache warming, newest first.
	ListRecentIDs(ctx context.Context, limit int) ([]cache.ExperienceScore, error)
	GetCreatorID(ctx context.Context, id string) (string, error)
	// Delete removes the experience if creatorID owns it.
	Delete(ctx context.Context, id, creatorID string) error
}

type CommentRepository interface {
	// Create appends a comment. CreatedAt is set by the store if zero.
	Create(ctx context.Context, c *model.Comment) error
	// ListByExperience returns comments in insertion order.
	ListByExperience(ctx context.Context, experienceID string) ([]model.Comment, error)
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id string, replacedBy *string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}
