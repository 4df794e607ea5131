package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripshare/internal/model"
)

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(mockDB, "postgres")
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var experienceColumns = []string{
	"id", "creator_id", "place_name", "type", "location", "latitude", "longitude",
	"description", "tips", "rating", "featured_image", "created_at",
	"creator_username", "creator_full_name", "creator_profile_image",
}

var commentColumns = []string{
	"id", "experience_id", "commenter_id", "content", "created_at",
	"commenter_username", "commenter_full_name", "commenter_profile_image",
}

// =============================================================================
// USERS
// =============================================================================

func TestUserRepository_Create_UniqueViolation(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{"users_username_key", model.ErrUsernameTaken},
		{"users_email_key", model.ErrEmailTaken},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := NewUserRepository(db)

			mock.ExpectQuery("INSERT INTO users").
				WillReturnError(&pq.Error{Code: "23505", Constraint: tt.constraint})

			err := repo.Create(context.Background(), &model.User{ID: "u1", Username: "dana_explorer"})
			assert.ErrorIs(t, err, tt.want)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_Create_OtherErrorIsWrapped(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	connErr := errors.New("connection reset by peer")
	mock.ExpectQuery("INSERT INTO users").WillReturnError(connErr)

	err := repo.Create(context.Background(), &model.User{ID: "u1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, connErr)
	assert.NotErrorIs(t, err, model.ErrUsernameTaken)
}

func TestUserRepository_FindByUsername(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username = \\$1").
		WithArgs("yael_travel").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "full_name", "email", "password_hash", "profile_image", "bio", "created_at", "updated_at",
		}).AddRow("1", "yael_travel", "Yael Cohen", "yael@example.com", "$2a$hash", nil, nil, now, now))

	u, err := repo.FindByUsername(context.Background(), "yael_travel")
	require.NoError(t, err)
	assert.Equal(t, "1", u.ID)
	assert.Equal(t, "$2a$hash", u.PasswordHash)
	assert.Nil(t, u.ProfileImage)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE username = \\$1").
		WithArgs("nouser").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.FindByUsername(context.Background(), "nouser")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ExistsByEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("omer@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByEmail(context.Background(), "omer@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

// =============================================================================
// EXPERIENCES
// =============================================================================

func TestExperienceRepository_GetByIDs_KeepsRequestedOrder(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewExperienceRepository(db)
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	mock.ExpectQuery("FROM experiences e").
		WillReturnRows(sqlmock.NewRows(experienceColumns).
			AddRow("2", "u1", "Dead Sea Beach", "nature", "Dead Sea", 31.5, 35.4, "Float", "", 4, "b.jpg", t1, "yael_travel", "Yael", nil).
			AddRow("3", "u2", "Corner Cafe", "cafe", "Tel Aviv", nil, nil, "Coffee", "Cake", 4, "c.jpg", t2, "omer_foodie", "Omer", nil))
	mock.ExpectQuery("FROM experience_images").
		WillReturnRows(sqlmock.NewRows([]string{"experience_id", "url"}).
			AddRow("2", "b.jpg").
			AddRow("3", "c.jpg").
			AddRow("3", "d.jpg"))
	mock.ExpectQuery("FROM comments c").
		WillReturnRows(sqlmock.NewRows(commentColumns).
			AddRow("c1", "3", "u1", "first", t1, "yael_travel", "Yael", nil).
			AddRow("c2", "3", "u2", "second", t2, "omer_foodie", "Omer", nil))

	exps, err := repo.GetByIDs(context.Background(), []string{"3", "missing", "2"})
	require.NoError(t, err)
	require.Len(t, exps, 2)

	assert.Equal(t, "3", exps[0].ID)
	assert.Equal(t, []string{"c.jpg", "d.jpg"}, exps[0].Images)
	assert.Nil(t, exps[0].Coordinates)
	require.Len(t, exps[0].Comments, 2)
	assert.Equal(t, "first", exps[0].Comments[0].Content)
	assert.Equal(t, "omer_foodie", exps[0].Comments[1].Commenter.Username)

	assert.Equal(t, "2", exps[1].ID)
	assert.Equal(t, model.CategoryNature, exps[1].Type)
	require.NotNil(t, exps[1].Coordinates)
	assert.Equal(t, 31.5, exps[1].Coordinates.Lat)
	assert.Empty(t, exps[1].Comments)
	assert.Equal(t, "yael_travel", exps[1].Creator.Username)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExperienceRepository_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewExperienceRepository(db)

	mock.ExpectQuery("FROM experiences e").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, model.ErrExperienceNotFound)
}

func TestExperienceRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewExperienceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO experiences").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO experience_images").WithArgs("e1", "a.jpg", 0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO experience_images").WithArgs("e1", "b.jpg", 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	exp := &model.Experience{
		ID: "e1", CreatorID: "u1", PlaceName: "Market", Type: model.CategoryShopping,
		Location: "Jerusalem", Description: "Spices", Rating: 5,
		Images: []string{"a.jpg", "b.jpg"}, FeaturedImage: "a.jpg",
	}
	require.NoError(t, repo.Create(context.Background(), exp))
	assert.False(t, exp.CreatedAt.IsZero())
	assert.NotNil(t, exp.Comments)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExperienceRepository_Delete(t *testing.T) {
	tests := []struct {
		name    string
		deleted int64
		exists  bool
		want    error
	}{
		{name: "owner deletes", deleted: 1},
		{name: "not owner", deleted: 0, exists: true, want: model.ErrNotExperienceOwner},
		{name: "missing", deleted: 0, exists: false, want: model.ErrExperienceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := NewExperienceRepository(db)

			mock.ExpectExec("DELETE FROM experiences").
				WithArgs("e1", "u1").
				WillReturnResult(sqlmock.NewResult(0, tt.deleted))
			if tt.deleted == 0 {
				mock.ExpectQuery("SELECT EXISTS").
					WithArgs("e1").
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.exists))
			}

			err := repo.Delete(context.Background(), "e1", "u1")
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestExperienceRepository_ListRecentIDs(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewExperienceRepository(db)

	mock.ExpectQuery("SELECT id, \\(EXTRACT").
		WithArgs(500).
		WillReturnRows(sqlmock.NewRows([]string{"id", "ts"}).
			AddRow("3", int64(3000)).
			AddRow("1", int64(1000)))

	scores, err := repo.ListRecentIDs(context.Background(), 500)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "3", scores[0].ExperienceID)
	assert.Equal(t, int64(3000), scores[0].Timestamp)
}

func TestExperienceRepository_Count(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewExperienceRepository(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM experiences").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(501))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 501, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// =============================================================================
// COMMENTS
// =============================================================================

func TestCommentRepository_ListByExperience(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)
	now := time.Now()

	mock.ExpectQuery("FROM comments c").
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows(commentColumns).
			AddRow("c1", "e1", "u2", "same second A", now, "omer_foodie", "Omer", nil).
			AddRow("c2", "e1", "u3", "same second B", now, "dana_explorer", "Dana", nil))

	comments, err := repo.ListByExperience(context.Background(), "e1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "c1", comments[0].ID)
	assert.Equal(t, "c2", comments[1].ID)
	assert.Equal(t, "dana_explorer", comments[1].Commenter.Username)
}

func TestCommentRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCommentRepository(db)

	mock.ExpectExec("INSERT INTO comments").WillReturnResult(sqlmock.NewResult(0, 1))

	c := &model.Comment{ID: "c1", ExperienceID: "e1", CommenterID: "u1", Content: "hi"}
	require.NoError(t, repo.Create(context.Background(), c))
	assert.False(t, c.CreatedAt.IsZero())
}

// =============================================================================
// REFRESH TOKENS
// =============================================================================

func TestRefreshTokenRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRefreshTokenRepository(db)

	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO refresh_tokens").
		WithArgs("1", "digest", sqlmock.AnyArg(), nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("tok-1", created))

	token := &model.RefreshToken{UserID: "1", TokenHash: "digest", ExpiresAt: created.Add(time.Hour)}
	require.NoError(t, repo.Create(context.Background(), token))
	assert.Equal(t, "tok-1", token.ID)
	assert.Equal(t, created, token.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_FindByTokenHash_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRefreshTokenRepository(db)

	mock.ExpectQuery("FROM refresh_tokens WHERE token_hash").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByTokenHash(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrRefreshTokenNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_Revoke_KeepsFirstReplacement(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRefreshTokenRepository(db)

	next := "tok-2"
	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at = NOW\\(\\), replaced_by = \\$2 WHERE id = \\$1 AND revoked_at IS NULL").
		WithArgs("tok-1", &next).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Revoke(context.Background(), "tok-1", &next))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_DeleteExpired(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRefreshTokenRepository(db)

	mock.ExpectExec("DELETE FROM refresh_tokens").
		WithArgs(float64(86400)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteExpired(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_RevokeAllForUser_Error(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRefreshTokenRepository(db)

	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at = NOW\\(\\) WHERE user_id").
		WithArgs("3").
		WillReturnError(errors.New("connection reset"))

	err := repo.RevokeAllForUser(context.Background(), "3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revoke refresh tokens of 3")
}
