// Package memory holds the repositories in process memory. It backs the
// demo mode (STORE_DRIVER=memory) and service/handler tests.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"tripshare/internal/cache"
	"tripshare/internal/model"
	"tripshare/internal/repository"
)

// Store is shared by the repositories it hands out. One mutex guards all of
// it, which also makes username/email uniqueness checks atomic with inserts.
type Store struct {
	mu sync.RWMutex

	users       map[string]*model.User
	experiences map[string]*model.Experience
	images      map[string][]string
	comments    map[string][]model.Comment // by experience, insertion order
	tokens      map[string]*model.RefreshToken
	tokenSeq    int
}

func NewStore() *Store {
	return &Store{
		users:       make(map[string]*model.User),
		experiences: make(map[string]*model.Experience),
		images:      make(map[string][]string),
		comments:    make(map[string][]model.Comment),
		tokens:      make(map[string]*model.RefreshToken),
	}
}

func (s *Store) Users() *UserRepository             { return &UserRepository{s: s} }
func (s *Store) Experiences() *ExperienceRepository { return &ExperienceRepository{s: s} }
func (s *Store) Comments() *CommentRepository       { return &CommentRepository{s: s} }
func (s *Store) RefreshTokens() *RefreshTokenRepository {
	return &RefreshTokenRepository{s: s}
}

// =============================================================================
// Users
// =============================================================================

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Username == u.Username {
			return model.ErrUsernameTaken
		}
	}
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return model.ErrEmailTaken
		}
	}

	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if u, ok := r.s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, model.ErrUserNotFound
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Username == username })
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.find(func(u *model.User) bool { return u.Email == email })
}

func (r *UserRepository) find(match func(*model.User) bool) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.FindByUsername(ctx, username)
	return err == nil, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *UserRepository) Update(ctx context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[u.ID]
	if !ok {
		return model.ErrUserNotFound
	}
	for id, other := range r.s.users {
		if id != u.ID && other.Email == u.Email {
			return model.ErrEmailTaken
		}
	}

	stored.FullName = u.FullName
	stored.Email = u.Email
	stored.Bio = u.Bio
	stored.ProfileImage = u.ProfileImage
	stored.UpdatedAt = time.Now().UTC()
	u.UpdatedAt = stored.UpdatedAt
	return nil
}

// =============================================================================
// Experiences
// =============================================================================

type ExperienceRepository struct{ s *Store }

func (r *ExperienceRepository) Create(ctx context.Context, e *model.Experience) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[e.CreatorID]; !ok {
		return model.ErrUserNotFound
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Comments == nil {
		e.Comments = []model.Comment{}
	}

	cp := *e
	cp.Comments = nil
	cp.Creator = nil
	cp.Images = nil
	if e.Coordinates != nil {
		coords := *e.Coordinates
		cp.Coordinates = &coords
	}
	r.s.experiences[e.ID] = &cp
	r.s.images[e.ID] = append([]string(nil), e.Images...)
	return nil
}

func (r *ExperienceRepository) GetByID(ctx context.Context, id string) (*model.Experience, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.experiences[id]
	if !ok {
		return nil, model.ErrExperienceNotFound
	}
	exp := r.s.hydrate(e)
	return &exp, nil
}

func (r *ExperienceRepository) GetByIDs(ctx context.Context, ids []string) ([]model.Experience, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]model.Experience, 0, len(ids))
	for _, id := range ids {
		if e, ok := r.s.experiences[id]; ok {
			out = append(out, r.s.hydrate(e))
		}
	}
	return out, nil
}

func (r *ExperienceRepository) List(ctx context.Context) ([]model.Experience, error) {
	return r.list(func(*model.Experience) bool { return true }), nil
}

func (r *ExperienceRepository) ListByCreator(ctx context.Context, creatorID string) ([]model.Experience, error) {
	return r.list(func(e *model.Experience) bool { return e.CreatorID == creatorID }), nil
}

func (r *ExperienceRepository) Count(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.experiences), nil
}

func (r *ExperienceRepository) ListRecentIDs(ctx context.Context, limit int) ([]cache.ExperienceScore, error) {
	exps := r.list(func(*model.Experience) bool { return true })
	if limit > 0 && len(exps) > limit {
		exps = exps[:limit]
	}
	scores := make([]cache.ExperienceScore, len(exps))
	for i, e := range exps {
		scores[i] = cache.ExperienceScore{ExperienceID: e.ID, Timestamp: e.CreatedAt.UnixMilli()}
	}
	return scores, nil
}

// list returns matching experiences newest first, ties broken by ID descending.
func (r *ExperienceRepository) list(match func(*model.Experience) bool) []model.Experience {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]model.Experience, 0, len(r.s.experiences))
	for _, e := range r.s.experiences {
		if match(e) {
			out = append(out, r.s.hydrate(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *ExperienceRepository) GetCreatorID(ctx context.Context, id string) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if e, ok := r.s.experiences[id]; ok {
		return e.CreatorID, nil
	}
	return "", model.ErrExperienceNotFound
}

func (r *ExperienceRepository) Delete(ctx context.Context, id, creatorID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.experiences[id]
	if !ok {
		return model.ErrExperienceNotFound
	}
	if e.CreatorID != creatorID {
		return model.ErrNotExperienceOwner
	}
	delete(r.s.experiences, id)
	delete(r.s.images, id)
	delete(r.s.comments, id)
	return nil
}

// hydrate builds a detached copy with images, comments and creator. Caller holds the lock.
func (s *Store) hydrate(e *model.Experience) model.Experience {
	exp := *e
	if e.Coordinates != nil {
		coords := *e.Coordinates
		exp.Coordinates = &coords
	}
	exp.Images = append([]string{}, s.images[e.ID]...)

	exp.Comments = make([]model.Comment, 0, len(s.comments[e.ID]))
	for _, c := range s.comments[e.ID] {
		exp.Comments = append(exp.Comments, s.withCommenter(c))
	}

	if u, ok := s.users[e.CreatorID]; ok {
		summary := u.Summary()
		exp.Creator = &summary
	}
	return exp
}

func (s *Store) withCommenter(c model.Comment) model.Comment {
	if u, ok := s.users[c.CommenterID]; ok {
		summary := u.Summary()
		c.Commenter = &summary
	}
	return c
}

// =============================================================================
// Comments
// =============================================================================

type CommentRepository struct{ s *Store }

func (r *CommentRepository) Create(ctx context.Context, c *model.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.experiences[c.ExperienceID]; !ok {
		return model.ErrExperienceNotFound
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	stored := *c
	stored.Commenter = nil
	r.s.comments[c.ExperienceID] = append(r.s.comments[c.ExperienceID], stored)
	return nil
}

func (r *CommentRepository) ListByExperience(ctx context.Context, experienceID string) ([]model.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]model.Comment, 0, len(r.s.comments[experienceID]))
	for _, c := range r.s.comments[experienceID] {
		out = append(out, r.s.withCommenter(c))
	}
	return out, nil
}

// =============================================================================
// Refresh tokens
// =============================================================================

type RefreshTokenRepository struct{ s *Store }

func (r *RefreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.tokenSeq++
	token.ID = "rt-" + strconv.Itoa(r.s.tokenSeq)
	token.CreatedAt = time.Now().UTC()

	cp := *token
	r.s.tokens[token.ID] = &cp
	return nil
}

func (r *RefreshTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, t := range r.s.tokens {
		if t.TokenHash == tokenHash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, model.ErrRefreshTokenNotFound
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, id string, replacedBy *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if t, ok := r.s.tokens[id]; ok && t.RevokedAt == nil {
		now := time.Now().UTC()
		t.RevokedAt = &now
		t.ReplacedBy = replacedBy
	}
	return nil
}

func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now().UTC()
	for _, t := range r.s.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			revokedAt := now
			t.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	var n int64
	for id, t := range r.s.tokens {
		if t.ExpiresAt.Before(cutoff) {
			delete(r.s.tokens, id)
			n++
		}
	}
	return n, nil
}

// compile-time interface checks
var (
	_ repository.UserRepository         = (*UserRepository)(nil)
	_ repository.ExperienceRepository   = (*ExperienceRepository)(nil)
	_ repository.CommentRepository      = (*CommentRepository)(nil)
	_ repository.RefreshTokenRepository = (*RefreshTokenRepository)(nil)
)
