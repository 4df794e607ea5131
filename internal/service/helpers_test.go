package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tripshare/internal/config"
	"tripshare/internal/queue"
	"tripshare/internal/repository/memory"
	"tripshare/internal/seed"
)

// seededStore returns a memory store holding the demo dataset.
func seededStore(t *testing.T) *memory.Store {
	t.Helper()

	d, err := seed.Build(bcrypt.MinCost)
	require.NoError(t, err)

	store := memory.NewStore()
	require.NoError(t, seed.Load(context.Background(), d, store.Users(), store.Experiences(), store.Comments()))
	return store
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:          "test-secret",
		AccessTokenMaxAge:  900,
		RefreshTokenMaxAge: 3600,
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, stream string, event queue.Event) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, event)
	return "1-0", nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}
