package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the experience stream
const (
	EventExperienceCreated = "experience_created"
	EventExperienceDeleted = "experience_deleted"
	EventCommentAdded      = "comment_added"
)

const (
	StreamExperiences = "stream:experiences"

	ConsumerGroupExperiences = "experience_workers"
)

// Event is published to the experience stream. All event types share it.
type Event struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // unix seconds when the event occurred

	ExperienceID string `json:"experience_id"`
	CreatorID    string `json:"creator_id"`
	// CreatedAt is the experience creation time in unix millis, used as feed score.
	CreatedAt int64 `json:"created_at,omitempty"`

	// CommentAdded
	CommentID   string `json:"comment_id,omitempty"`
	CommenterID string `json:"commenter_id,omitempty"`
}

func NewExperienceCreatedEvent(experienceID, creatorID string, createdAt time.Time) Event {
	return Event{
		Type:         EventExperienceCreated,
		Timestamp:    time.Now().Unix(),
		ExperienceID: experienceID,
		CreatorID:    creatorID,
		CreatedAt:    createdAt.UnixMilli(),
	}
}

func NewExperienceDeletedEvent(experienceID, creatorID string) Event {
	return Event{
		Type:         EventExperienceDeleted,
		Timestamp:    time.Now().Unix(),
		ExperienceID: experienceID,
		CreatorID:    creatorID,
	}
}

func NewCommentAddedEvent(experienceID, creatorID, commentID, commenterID string) Event {
	return Event{
		Type:         EventCommentAdded,
		Timestamp:    time.Now().Unix(),
		ExperienceID: experienceID,
		CreatorID:    creatorID,
		CommentID:    commentID,
		CommenterID:  commenterID,
	}
}

// ToMap converts the event for XADD. The JSON payload lives in the "data" field.
func (e Event) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseEvent parses an Event from stream message values.
func ParseEvent(values map[string]interface{}) (Event, error) {
	data, ok := values["data"].(string)
	if !ok {
		return Event{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return Event{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
