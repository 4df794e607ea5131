package repository

import (
	"errors"

	"github.com/lib/pq"

	"tripshare/internal/model"
)

const uniqueViolation = "23505"

// uniqueViolationError maps a unique-constraint failure on users to the
// matching domain error. It returns nil for anything else.
func uniqueViolationError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return nil
	}
	switch pqErr.Constraint {
	case "users_username_key":
		return model.ErrUsernameTaken
	case "users_email_key":
		return model.ErrEmailTaken
	}
	return nil
}
