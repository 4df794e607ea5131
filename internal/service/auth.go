package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tripshare/internal/config"
	"tripshare/internal/logger"
	"tripshare/internal/model"
	"tripshare/internal/repository"
)

// TokenService issues sessions for verified identities, with refresh token
// rotation and reuse detection.
type TokenService struct {
	refreshTokenRepo repository.RefreshTokenRepository
	userRepo         repository.UserRepository
	config           *config.Config
	log              zerolog.Logger
}

func NewTokenService(refreshTokenRepo repository.RefreshTokenRepository, userRepo repository.UserRepository, cfg *config.Config) *TokenService {
	return &TokenService{
		refreshTokenRepo: refreshTokenRepo,
		userRepo:         userRepo,
		config:           cfg,
		log:              logger.For("Tokens"),
	}
}

// Issue creates an access token carrying the identity claim and persists a
// hashed refresh token.
func (s *TokenService) Issue(ctx context.Context, identity *model.Identity, deviceInfo, ipAddress string) (*model.TokenPair, error) {
	pair, _, err := s.issue(ctx, identity, deviceInfo, ipAddress)
	return pair, err
}

func (s *TokenService) issue(ctx context.Context, identity *model.Identity, deviceInfo, ipAddress string) (*model.TokenPair, *model.RefreshToken, error) {
	accessToken, err := s.generateAccessToken(identity.ID, identity.Username)
	if err != nil {
		return nil, nil, fmt.Errorf("sign access token: %w", err)
	}

	raw := uuid.NewString()
	stored := &model.RefreshToken{
		UserID:     identity.ID,
		TokenHash:  hashToken(raw),
		ExpiresAt:  time.Now().Add(time.Duration(s.config.RefreshTokenMaxAge) * time.Second),
		DeviceInfo: optionalString(deviceInfo),
		IPAddress:  optionalString(ipAddress),
	}
	if err := s.refreshTokenRepo.Create(ctx, stored); err != nil {
		return nil, nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: raw,
		ExpiresIn:    s.config.AccessTokenMaxAge,
	}, stored, nil
}

// Refresh exchanges a refresh token for a new pair and retires the old one.
// Presenting a retired token revokes every session of its user.
func (s *TokenService) Refresh(ctx context.Context, raw, deviceInfo, ipAddress string) (*model.TokenPair, *model.Identity, error) {
	current, err := s.refreshTokenRepo.FindByTokenHash(ctx, hashToken(raw))
	if err != nil {
		if errors.Is(err, model.ErrRefreshTokenNotFound) {
			return nil, nil, model.ErrRefreshTokenNotFound
		}
		return nil, nil, fmt.Errorf("find refresh token: %w", err)
	}

	if current.Revoked() {
		s.log.Warn().Str("user", current.UserID).Msg("Refresh: reuse detected, revoking all sessions")
		if err := s.refreshTokenRepo.RevokeAllForUser(ctx, current.UserID); err != nil {
			s.log.Error().Err(err).Str("user", current.UserID).Msg("Refresh: revoke all FAILED")
		}
		return nil, nil, model.ErrRefreshTokenReused
	}
	if current.ExpiredAt(time.Now()) {
		return nil, nil, model.ErrRefreshTokenExpired
	}

	// the owner may have been removed since login
	user, err := s.userRepo.GetByID(ctx, current.UserID)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, nil, model.ErrRefreshTokenNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load token owner: %w", err)
	}
	identity := user.Identity()

	pair, next, err := s.issue(ctx, identity, deviceInfo, ipAddress)
	if err != nil {
		return nil, nil, err
	}
	if err := s.refreshTokenRepo.Revoke(ctx, current.ID, &next.ID); err != nil {
		s.log.Error().Err(err).Str("token", current.ID).Msg("Refresh: retire old token FAILED")
	}

	s.log.Debug().Str("user", identity.ID).Msg("Refresh OK")
	return pair, identity, nil
}

func (s *TokenService) Revoke(ctx context.Context, refreshTokenRaw string) error {
	token, err := s.refreshTokenRepo.FindByTokenHash(ctx, hashToken(refreshTokenRaw))
	if err != nil {
		return err
	}
	return s.refreshTokenRepo.Revoke(ctx, token.ID, nil)
}

func (s *TokenService) RevokeAll(ctx context.Context, userID string) error {
	return s.refreshTokenRepo.RevokeAllForUser(ctx, userID)
}

// PruneExpired deletes refresh tokens that expired more than grace ago.
func (s *TokenService) PruneExpired(ctx context.Context, grace time.Duration) (int64, error) {
	n, err := s.refreshTokenRepo.DeleteExpired(ctx, grace)
	if err != nil {
		s.log.Error().Err(err).Msg("PruneExpired FAILED")
		return 0, err
	}
	s.log.Info().Int64("deleted", n).Dur("grace", grace).Msg("PruneExpired OK")
	return n, nil
}

// ParseAccessToken validates signature and expiry and returns the claims.
func (s *TokenService) ParseAccessToken(tokenString string) (*model.AccessClaims, error) {
	return ParseAccessToken(tokenString, s.config.JWTSecret)
}

// ParseAccessToken is shared with the auth middleware.
func ParseAccessToken(tokenString, secret string) (*model.AccessClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return nil, errors.New("missing user_id claim")
	}
	username, _ := claims["username"].(string)

	return &model.AccessClaims{UserID: userID, Username: username}, nil
}

func (s *TokenService) generateAccessToken(userID, username string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"exp":      now.Add(time.Duration(s.config.AccessTokenMaxAge) * time.Second).Unix(),
		"iat":      now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
