package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripshare/internal/model"
)

func TestTokenService_IssueCarriesIdentityClaim(t *testing.T) {
	store := seededStore(t)
	svc := NewTokenService(store.RefreshTokens(), store.Users(), testConfig())

	pair, err := svc.Issue(context.Background(), &model.Identity{ID: "1", Username: "yael_travel"}, "ios", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 900, pair.ExpiresIn)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := svc.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "1", claims.UserID)
	assert.Equal(t, "yael_travel", claims.Username)

	// only the hash is stored
	_, err = store.RefreshTokens().FindByTokenHash(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, model.ErrRefreshTokenNotFound)
}

func TestParseAccessToken_Rejects(t *testing.T) {
	sign := func(claims jwt.MapClaims, method jwt.SigningMethod, key interface{}) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	future := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"wrong secret", sign(jwt.MapClaims{"user_id": "1", "exp": future}, jwt.SigningMethodHS256, []byte("other"))},
		{"expired", sign(jwt.MapClaims{"user_id": "1", "exp": time.Now().Add(-time.Minute).Unix()}, jwt.SigningMethodHS256, []byte("test-secret"))},
		{"numeric user id", sign(jwt.MapClaims{"user_id": 1, "exp": future}, jwt.SigningMethodHS256, []byte("test-secret"))},
		{"none algorithm", sign(jwt.MapClaims{"user_id": "1", "exp": future}, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAccessToken(tt.token, "test-secret")
			assert.Error(t, err)
		})
	}
}

func TestTokenService_RefreshRotates(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	svc := NewTokenService(store.RefreshTokens(), store.Users(), testConfig())

	first, err := svc.Issue(ctx, &model.Identity{ID: "2", Username: "omer_foodie"}, "", "")
	require.NoError(t, err)

	second, identity, err := svc.Refresh(ctx, first.RefreshToken, "", "")
	require.NoError(t, err)
	assert.Equal(t, "2", identity.ID)
	assert.Equal(t, "omer_foodie", identity.Username)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	old, err := store.RefreshTokens().FindByTokenHash(ctx, hashToken(first.RefreshToken))
	require.NoError(t, err)
	assert.True(t, old.Revoked())
	require.NotNil(t, old.ReplacedBy)

	next, err := store.RefreshTokens().FindByTokenHash(ctx, hashToken(second.RefreshToken))
	require.NoError(t, err)
	assert.Equal(t, next.ID, *old.ReplacedBy)
	assert.True(t, next.Active(time.Now()))
}

func TestTokenService_ReuseRevokesFamily(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	svc := NewTokenService(store.RefreshTokens(), store.Users(), testConfig())

	first, err := svc.Issue(ctx, &model.Identity{ID: "3", Username: "dana_explorer"}, "", "")
	require.NoError(t, err)
	second, _, err := svc.Refresh(ctx, first.RefreshToken, "", "")
	require.NoError(t, err)

	_, _, err = svc.Refresh(ctx, first.RefreshToken, "", "")
	assert.ErrorIs(t, err, model.ErrRefreshTokenReused)

	// the legitimately rotated token is revoked too
	_, _, err = svc.Refresh(ctx, second.RefreshToken, "", "")
	assert.ErrorIs(t, err, model.ErrRefreshTokenReused)
}

func TestTokenService_RefreshUnknownAndExpired(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	cfg := testConfig()
	cfg.RefreshTokenMaxAge = -1
	svc := NewTokenService(store.RefreshTokens(), store.Users(), cfg)

	_, _, err := svc.Refresh(ctx, "never-issued", "", "")
	assert.ErrorIs(t, err, model.ErrRefreshTokenNotFound)

	pair, err := svc.Issue(ctx, &model.Identity{ID: "1", Username: "yael_travel"}, "", "")
	require.NoError(t, err)
	_, _, err = svc.Refresh(ctx, pair.RefreshToken, "", "")
	assert.ErrorIs(t, err, model.ErrRefreshTokenExpired)
}

func TestTokenService_RevokeAll(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)
	svc := NewTokenService(store.RefreshTokens(), store.Users(), testConfig())

	a, err := svc.Issue(ctx, &model.Identity{ID: "1", Username: "yael_travel"}, "", "")
	require.NoError(t, err)
	b, err := svc.Issue(ctx, &model.Identity{ID: "1", Username: "yael_travel"}, "", "")
	require.NoError(t, err)

	require.NoError(t, svc.RevokeAll(ctx, "1"))

	for _, raw := range []string{a.RefreshToken, b.RefreshToken} {
		tok, err := store.RefreshTokens().FindByTokenHash(ctx, hashToken(raw))
		require.NoError(t, err)
		assert.True(t, tok.Revoked())
	}
}

func TestTokenService_PruneExpired(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t)

	expired := testConfig()
	expired.RefreshTokenMaxAge = -7200
	_, err := NewTokenService(store.RefreshTokens(), store.Users(), expired).
		Issue(ctx, &model.Identity{ID: "1", Username: "yael_travel"}, "", "")
	require.NoError(t, err)

	svc := NewTokenService(store.RefreshTokens(), store.Users(), testConfig())
	live, err := svc.Issue(ctx, &model.Identity{ID: "1", Username: "yael_travel"}, "", "")
	require.NoError(t, err)

	n, err := svc.PruneExpired(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.RefreshTokens().FindByTokenHash(ctx, hashToken(live.RefreshToken))
	assert.NoError(t, err)
}
