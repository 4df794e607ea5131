package model

import (
	"errors"
	"time"
)

// RefreshToken is one login session. Only the SHA-256 digest of the raw
// token is stored; a rotated token points at its successor via ReplacedBy.
type RefreshToken struct {
	ID         string     `db:"id" json:"id"`
	UserID     string     `db:"user_id" json:"user_id"`
	TokenHash  string     `db:"token_hash" json:"-"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	RevokedAt  *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	ReplacedBy *string    `db:"replaced_by" json:"replaced_by,omitempty"`
	DeviceInfo *string    `db:"device_info" json:"device_info,omitempty"`
	IPAddress  *string    `db:"ip_address" json:"ip_address,omitempty"`
}

// Revoked reports whether the session was ended or rotated.
func (t *RefreshToken) Revoked() bool { return t.RevokedAt != nil }

// ExpiredAt reports whether the token is past its lifetime at now.
func (t *RefreshToken) ExpiredAt(now time.Time) bool { return !now.Before(t.ExpiresAt) }

// Active reports whether the token can still be exchanged at now.
func (t *RefreshToken) Active(now time.Time) bool {
	return !t.Revoked() && !t.ExpiredAt(now)
}

var (
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenExpired  = errors.New("refresh token expired")
	// ErrRefreshTokenReused means a rotated token was presented again; the
	// whole session family has been revoked.
	ErrRefreshTokenReused = errors.New("refresh token reuse detected")
)

// Codes sent with 401 responses so clients know whether to refresh or log in.
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
	CodeTokenReused  = "TOKEN_REUSED"
)

// AccessClaims are the identity claims carried by an access token.
type AccessClaims struct {
	UserID   string
	Username string
}

// TokenPair is returned by login and refresh. ExpiresIn is the access
// token lifetime in seconds.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type LoginResponse struct {
	User         *Identity `json:"user"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int       `json:"expires_in"`
}

// RefreshRequest is the body of POST /auth/refresh and POST /auth/logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest = RefreshRequest
