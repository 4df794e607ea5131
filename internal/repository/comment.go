package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"tripshare/internal/model"
)

const commentSelect = `
	SELECT c.id, c.experience_id, c.commenter_id, c.content, c.created_at,
	       u.username AS commenter_username, u.full_name AS commenter_full_name,
	       u.profile_image AS commenter_profile_image
	FROM comments c
	JOIN users u ON u.id = c.commenter_id
`

// insertion order: seq breaks created_at ties
const commentOrder = ` ORDER BY c.created_at ASC, c.seq ASC`

type commentRow struct {
	model.Comment
	CommenterUsername     string  `db:"commenter_username"`
	CommenterFullName     string  `db:"commenter_full_name"`
	CommenterProfileImage *string `db:"commenter_profile_image"`
}

func (row commentRow) toModel() model.Comment {
	c := row.Comment
	c.Commenter = &model.UserSummary{
		ID:           row.CommenterID,
		Username:     row.CommenterUsername,
		FullName:     row.CommenterFullName,
		ProfileImage: row.CommenterProfileImage,
	}
	return c
}

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, c *model.Comment) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO comments (id, experience_id, commenter_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.ExperienceID, c.CommenterID, c.Content, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *commentRepository) ListByExperience(ctx context.Context, experienceID string) ([]model.Comment, error) {
	var rows []commentRow
	if err := r.db.SelectContext(ctx, &rows, commentSelect+` WHERE c.experience_id = $1`+commentOrder, experienceID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	comments := make([]model.Comment, len(rows))
	for i, row := range rows {
		comments[i] = row.toModel()
	}
	return comments, nil
}

// selectComments loads the comments of several experiences in one query.
func selectComments(ctx context.Context, q sqlx.QueryerContext, experienceIDs []string) (map[string][]model.Comment, error) {
	var rows []commentRow
	err := sqlx.SelectContext(ctx, q, &rows,
		commentSelect+` WHERE c.experience_id = ANY($1)`+commentOrder, pq.Array(experienceIDs))
	if err != nil {
		return nil, fmt.Errorf("get comments: %w", err)
	}

	out := make(map[string][]model.Comment, len(experienceIDs))
	for _, row := range rows {
		out[row.ExperienceID] = append(out[row.ExperienceID], row.toModel())
	}
	return out, nil
}
