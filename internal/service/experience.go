package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tripshare/internal/logger"
	"tripshare/internal/model"
	"tripshare/internal/queue"
	"tripshare/internal/repository"
)

// ExperienceService creates, reads and deletes experiences.
type ExperienceService struct {
	repo      repository.ExperienceRepository
	publisher queue.Publisher
	log       zerolog.Logger
}

// NewExperienceService accepts a nil publisher when no stream is configured.
func NewExperienceService(repo repository.ExperienceRepository, publisher queue.Publisher) *ExperienceService {
	return &ExperienceService{
		repo:      repo,
		publisher: publisher,
		log:       logger.For("ExperienceService"),
	}
}

// Create validates the input and stores a new experience owned by creatorID.
func (s *ExperienceService) Create(ctx context.Context, creatorID string, in model.CreateExperienceInput) (*model.Experience, error) {
	category, err := in.Normalize()
	if err != nil {
		return nil, err
	}

	exp := &model.Experience{
		ID:            uuid.NewString(),
		CreatorID:     creatorID,
		PlaceName:     in.PlaceName,
		Type:          category,
		Location:      in.Location,
		Coordinates:   in.Coordinates,
		Description:   in.Description,
		Tips:          in.Tips,
		Rating:        in.Rating,
		Images:        in.Images,
		FeaturedImage: in.FeaturedImage,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, exp); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("create experience: %w", err)
	}

	created, err := s.repo.GetByID(ctx, exp.ID)
	if err != nil {
		return nil, fmt.Errorf("reload experience: %w", err)
	}

	s.log.Info().Str("experience", exp.ID).Str("creator", creatorID).Str("type", string(category)).Msg("Create OK")
	s.publish(ctx, queue.NewExperienceCreatedEvent(exp.ID, creatorID, exp.CreatedAt))
	return created, nil
}

func (s *ExperienceService) Get(ctx context.Context, id string) (*model.Experience, error) {
	return s.repo.GetByID(ctx, id)
}

// Delete removes the experience and its comments. Only the creator may delete.
func (s *ExperienceService) Delete(ctx context.Context, id, actorID string) error {
	if err := s.repo.Delete(ctx, id, actorID); err != nil {
		return err
	}

	s.log.Info().Str("experience", id).Str("creator", actorID).Msg("Delete OK")
	s.publish(ctx, queue.NewExperienceDeletedEvent(id, actorID))
	return nil
}

// publish is best effort; the cache converges on the next warm anyway.
func (s *ExperienceService) publish(ctx context.Context, event queue.Event) {
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.Publish(ctx, queue.StreamExperiences, event); err != nil {
		s.log.Warn().Err(err).Str("type", event.Type).Str("experience", event.ExperienceID).Msg("publish FAILED")
	}
}
