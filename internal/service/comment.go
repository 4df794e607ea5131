package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tripshare/internal/logger"
	"tripshare/internal/model"
	"tripshare/internal/queue"
	"tripshare/internal/repository"
)

// CommentService appends comments to experiences. Comments are never edited
// or reordered.
type CommentService struct {
	commentRepo    repository.CommentRepository
	experienceRepo repository.ExperienceRepository
	publisher      queue.Publisher
	log            zerolog.Logger
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	experienceRepo repository.ExperienceRepository,
	publisher queue.Publisher,
) *CommentService {
	return &CommentService{
		commentRepo:    commentRepo,
		experienceRepo: experienceRepo,
		publisher:      publisher,
		log:            logger.For("CommentService"),
	}
}

// Add trims and validates the content, then appends it to the experience.
func (s *CommentService) Add(ctx context.Context, experienceID, commenterID, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, model.ErrContentRequired
	}
	if utf8.RuneCountInString(content) > model.MaxCommentLength {
		return nil, model.ErrContentTooLong
	}

	creatorID, err := s.experienceRepo.GetCreatorID(ctx, experienceID)
	if err != nil {
		if errors.Is(err, model.ErrExperienceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("check experience exists: %w", err)
	}

	comment := &model.Comment{
		ID:           uuid.NewString(),
		ExperienceID: experienceID,
		CommenterID:  commenterID,
		Content:      content,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		if errors.Is(err, model.ErrExperienceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.log.Info().Str("experience", experienceID).Str("commenter", commenterID).Msg("Add OK")

	if s.publisher != nil {
		event := queue.NewCommentAddedEvent(experienceID, creatorID, comment.ID, commenterID)
		if _, err := s.publisher.Publish(ctx, queue.StreamExperiences, event); err != nil {
			s.log.Warn().Err(err).Str("comment", comment.ID).Msg("publish CommentAdded FAILED")
		}
	}

	return s.withCommenter(ctx, experienceID, comment), nil
}

// List returns the experience's comments in insertion order.
func (s *CommentService) List(ctx context.Context, experienceID string) ([]model.Comment, error) {
	if _, err := s.experienceRepo.GetCreatorID(ctx, experienceID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByExperience(ctx, experienceID)
}

// withCommenter returns the stored read model, falling back to the bare comment.
func (s *CommentService) withCommenter(ctx context.Context, experienceID string, c *model.Comment) *model.Comment {
	comments, err := s.commentRepo.ListByExperience(ctx, experienceID)
	if err != nil {
		return c
	}
	for i := range comments {
		if comments[i].ID == c.ID {
			return &comments[i]
		}
	}
	return c
}
