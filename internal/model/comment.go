package model

import (
	"errors"
	"time"
)

// Comment is an append-only remark on an experience.
type Comment struct {
	ID           string       `db:"id" json:"id"`
	ExperienceID string       `db:"experience_id" json:"experience_id"`
	CommenterID  string       `db:"commenter_id" json:"commenter_id"`
	Content      string       `db:"content" json:"content"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	Commenter    *UserSummary `db:"-" json:"commenter,omitempty"`
}

// CreateCommentRequest is the request body for creating a comment.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// CommentListResponse lists comments in insertion order.
type CommentListResponse struct {
	Comments []Comment `json:"comments"`
	Count    int       `json:"count"`
}

const (
	MaxCommentLength = 2200
)

var (
	ErrContentRequired = errors.New("comment content is required")
	ErrContentTooLong  = errors.New("comment content too long")
)
