package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"tripshare/internal/logger"
	"tripshare/internal/model"
	"tripshare/internal/repository"
)

// dummyPassword only exists to build a hash for the unknown-user path.
const dummyPassword = "tripshare-timing-equaliser"

// CredentialVerifier checks a username/password pair against stored hashes.
// It has no side effects: no attempt counters, no lockout.
type CredentialVerifier struct {
	users repository.UserRepository
	log   zerolog.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

func NewCredentialVerifier(users repository.UserRepository) *CredentialVerifier {
	return &CredentialVerifier{
		users: users,
		log:   logger.For("Credentials"),
	}
}

// Verify returns the identity for a valid pair. Unknown users and wrong
// passwords both yield model.ErrInvalidCredentials after one bcrypt
// comparison each.
func (v *CredentialVerifier) Verify(ctx context.Context, username, password string) (*model.Identity, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, model.ErrMissingCredentials
	}

	user, err := v.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			v.burnComparison(password)
			return nil, model.ErrInvalidCredentials
		}
		v.log.Error().Err(err).Msg("Verify FAILED: user lookup")
		return nil, fmt.Errorf("verify credentials: %w", err)
	}

	if user.PasswordHash == "" {
		v.burnComparison(password)
		return nil, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, model.ErrInvalidCredentials
		}
		// an unreadable stored hash is a data problem, not a bad password
		v.log.Error().Err(err).Str("user", user.ID).Msg("Verify FAILED: stored hash")
		return nil, fmt.Errorf("verify credentials: %w", err)
	}

	return user.Identity(), nil
}

// burnComparison spends the same bcrypt work as a real check.
func (v *CredentialVerifier) burnComparison(password string) {
	v.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(dummyPassword), model.PasswordHashCost)
		if err != nil {
			v.log.Error().Err(err).Msg("dummy hash generation failed")
			return
		}
		v.dummyHash = hash
	})
	if v.dummyHash != nil {
		_ = bcrypt.CompareHashAndPassword(v.dummyHash, []byte(password))
	}
}
