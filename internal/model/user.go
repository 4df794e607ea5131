package model

import (
	"errors"
	"time"
)

// PasswordHashCost is the bcrypt cost used for every stored password.
const PasswordHashCost = 12

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// User is a registered traveller.
type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	FullName     string    `db:"full_name" json:"full_name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"` // never serialised
	ProfileImage *string   `db:"profile_image" json:"profile_image,omitempty"`
	Bio          *string   `db:"bio" json:"bio,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Summary returns the public projection embedded in experiences and comments.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:           u.ID,
		Username:     u.Username,
		FullName:     u.FullName,
		ProfileImage: u.ProfileImage,
	}
}

// Identity returns the claim set produced by a successful credential check.
func (u *User) Identity() *Identity {
	return &Identity{
		ID:           u.ID,
		Username:     u.Username,
		FullName:     u.FullName,
		Email:        u.Email,
		ProfileImage: u.ProfileImage,
	}
}

// UserSummary is a lightweight user reference.
type UserSummary struct {
	ID           string  `db:"id" json:"id"`
	Username     string  `db:"username" json:"username"`
	FullName     string  `db:"full_name" json:"full_name"`
	ProfileImage *string `db:"profile_image" json:"profile_image,omitempty"`
}

// Identity is what a session is built from after credentials check out.
type Identity struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	FullName     string  `json:"full_name"`
	Email        string  `json:"email"`
	ProfileImage *string `json:"profile_image,omitempty"`
}

// RegisterInput is the signup candidate.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UpdateProfileInput carries the editable profile fields. Nil means unchanged.
type UpdateProfileInput struct {
	FullName     *string `json:"full_name"`
	Email        *string `json:"email"`
	Bio          *string `json:"bio"`
	ProfileImage *string `json:"profile_image"`
}

// ProfileResponse is a user together with their experience statistics.
type ProfileResponse struct {
	User  *User        `json:"user"`
	Stats ProfileStats `json:"stats"`
}

var (
	ErrUserNotFound = errors.New("user not found")

	// ErrMissingCredentials is returned when username or password is empty.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrInvalidCredentials covers unknown users and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrMissingFields   = errors.New("missing required fields")
	ErrPasswordTooLong = errors.New("password too long")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrEmailTaken      = errors.New("email already taken")

	ErrForbidden = errors.New("forbidden")
)
