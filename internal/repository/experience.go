package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"tripshare/internal/cache"
	"tripshare/internal/model"
)

const experienceSelect = `
	SELECT e.id, e.creator_id, e.place_name, e.type, e.location, e.latitude, e.longitude,
	       e.description, e.tips, e.rating, e.featured_image, e.created_at,
	       u.username AS creator_username, u.full_name AS creator_full_name,
	       u.profile_image AS creator_profile_image
	FROM experiences e
	JOIN users u ON u.id = e.creator_id
`

// experienceRow is the flat shape of experienceSelect.
type experienceRow struct {
	ID                  string          `db:"id"`
	CreatorID           string          `db:"creator_id"`
	PlaceName           string          `db:"place_name"`
	Type                string          `db:"type"`
	Location            string          `db:"location"`
	Latitude            sql.NullFloat64 `db:"latitude"`
	Longitude           sql.NullFloat64 `db:"longitude"`
	Description         string          `db:"description"`
	Tips                string          `db:"tips"`
	Rating              int             `db:"rating"`
	FeaturedImage       string          `db:"featured_image"`
	CreatedAt           time.Time       `db:"created_at"`
	CreatorUsername     string          `db:"creator_username"`
	CreatorFullName     string          `db:"creator_full_name"`
	CreatorProfileImage *string         `db:"creator_profile_image"`
}

func (row experienceRow) toModel() model.Experience {
	exp := model.Experience{
		ID:            row.ID,
		CreatorID:     row.CreatorID,
		PlaceName:     row.PlaceName,
		Type:          model.Category(row.Type),
		Location:      row.Location,
		Description:   row.Description,
		Tips:          row.Tips,
		Rating:        row.Rating,
		FeaturedImage: row.FeaturedImage,
		CreatedAt:     row.CreatedAt,
		Images:        []string{},
		Comments:      []model.Comment{},
		Creator: &model.UserSummary{
			ID:           row.CreatorID,
			Username:     row.CreatorUsername,
			FullName:     row.CreatorFullName,
			ProfileImage: row.CreatorProfileImage,
		},
	}
	if row.Latitude.Valid && row.Longitude.Valid {
		exp.Coordinates = &model.Coordinates{Lat: row.Latitude.Float64, Lng: row.Longitude.Float64}
	}
	return exp
}

type experienceRepository struct {
	db *sqlx.DB
}

func NewExperienceRepository(db *sqlx.DB) ExperienceRepository {
	return &experienceRepository{db: db}
}

// Create inserts the experience and its ordered images in one transaction.
func (r *experienceRepository) Create(ctx context.Context, e *model.Experience) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	var lat, lng *float64
	if e.Coordinates != nil {
		lat, lng = &e.Coordinates.Lat, &e.Coordinates.Lng
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO experiences (id, creator_id, place_name, type, location, latitude, longitude,
		                         description, tips, rating, featured_image, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, e.ID, e.CreatorID, e.PlaceName, string(e.Type), e.Location, lat, lng,
		e.Description, e.Tips, e.Rating, e.FeaturedImage, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert experience: %w", err)
	}

	for i, url := range e.Images {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO experience_images (experience_id, url, position) VALUES ($1, $2, $3)`,
			e.ID, url, i)
		if err != nil {
			return fmt.Errorf("insert image %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	if e.Comments == nil {
		e.Comments = []model.Comment{}
	}
	return nil
}

func (r *experienceRepository) GetByID(ctx context.Context, id string) (*model.Experience, error) {
	var row experienceRow
	err := r.db.GetContext(ctx, &row, experienceSelect+` WHERE e.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrExperienceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get experience: %w", err)
	}

	exps, err := r.hydrate(ctx, []experienceRow{row})
	if err != nil {
		return nil, err
	}
	return &exps[0], nil
}

// GetByIDs keeps the order of ids, which comes from the feed cache.
func (r *experienceRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Experience, error) {
	if len(ids) == 0 {
		return []model.Experience{}, nil
	}

	var rows []experienceRow
	if err := r.db.SelectContext(ctx, &rows, experienceSelect+` WHERE e.id = ANY($1)`, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("get experiences by ids: %w", err)
	}

	exps, err := r.hydrate(ctx, rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.Experience, len(exps))
	for _, e := range exps {
		byID[e.ID] = e
	}
	ordered := make([]model.Experience, 0, len(ids))
	for _, id := range ids {
		if e, ok := byID[id]; ok {
			ordered = append(ordered, e)
		}
	}
	return ordered, nil
}

func (r *experienceRepository) List(ctx context.Context) ([]model.Experience, error) {
	var rows []experienceRow
	if err := r.db.SelectContext(ctx, &rows, experienceSelect+` ORDER BY e.created_at DESC, e.id DESC`); err != nil {
		return nil, fmt.Errorf("list experiences: %w", err)
	}
	return r.hydrate(ctx, rows)
}

func (r *experienceRepository) ListByCreator(ctx context.Context, creatorID string) ([]model.Experience, error) {
	var rows []experienceRow
	err := r.db.SelectContext(ctx, &rows,
		experienceSelect+` WHERE e.creator_id = $1 ORDER BY e.created_at DESC, e.id DESC`, creatorID)
	if err != nil {
		return nil, fmt.Errorf("list experiences by creator: %w", err)
	}
	return r.hydrate(ctx, rows)
}

func (r *experienceRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM experiences`); err != nil {
		return 0, fmt.Errorf("count experiences: %w", err)
	}
	return n, nil
}

func (r *experienceRepository) ListRecentIDs(ctx context.Context, limit int) ([]cache.ExperienceScore, error) {
	query := `
		SELECT id, (EXTRACT(EPOCH FROM created_at) * 1000)::BIGINT AS ts
		FROM experiences
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`
	var scores []cache.ExperienceScore
	if err := r.db.SelectContext(ctx, &scores, query, limit); err != nil {
		return nil, fmt.Errorf("list recent experience ids: %w", err)
	}
	return scores, nil
}

func (r *experienceRepository) GetCreatorID(ctx context.Context, id string) (string, error) {
	var creatorID string
	err := r.db.GetContext(ctx, &creatorID, `SELECT creator_id FROM experiences WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", model.ErrExperienceNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get creator id: %w", err)
	}
	return creatorID, nil
}

// Delete removes the experience; images and comments cascade.
func (r *experienceRepository) Delete(ctx context.Context, id, creatorID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM experiences WHERE id = $1 AND creator_id = $2`, id, creatorID)
	if err != nil {
		return fmt.Errorf("delete experience: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM experiences WHERE id = $1)`, id); err != nil {
			return fmt.Errorf("check experience exists: %w", err)
		}
		if exists {
			return model.ErrNotExperienceOwner
		}
		return model.ErrExperienceNotFound
	}
	return nil
}

// hydrate batch-loads images and comments for rows, avoiding N+1 queries.
func (r *experienceRepository) hydrate(ctx context.Context, rows []experienceRow) ([]model.Experience, error) {
	exps := make([]model.Experience, len(rows))
	if len(rows) == 0 {
		return exps, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		exps[i] = row.toModel()
		ids[i] = row.ID
	}

	images, err := r.getImages(ctx, ids)
	if err != nil {
		return nil, err
	}
	comments, err := selectComments(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}

	for i := range exps {
		if imgs, ok := images[exps[i].ID]; ok {
			exps[i].Images = imgs
		}
		if cs, ok := comments[exps[i].ID]; ok {
			exps[i].Comments = cs
		}
	}
	return exps, nil
}

func (r *experienceRepository) getImages(ctx context.Context, ids []string) (map[string][]string, error) {
	var rows []struct {
		ExperienceID string `db:"experience_id"`
		URL          string `db:"url"`
	}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT experience_id, url
		FROM experience_images
		WHERE experience_id = ANY($1)
		ORDER BY experience_id, position
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get experience images: %w", err)
	}

	out := make(map[string][]string, len(ids))
	for _, row := range rows {
		out[row.ExperienceID] = append(out[row.ExperienceID], row.URL)
	}
	return out, nil
}
