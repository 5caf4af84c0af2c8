package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/triketime/internal/db"
	"github.com/Skotchmaster/triketime/internal/events"
	"github.com/Skotchmaster/triketime/internal/repo"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Now().UTC().Truncate(time.Second)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	repo   *repo.GormRepo
	clock  *fakeClock
	events *recorder
	tokens *TokenService
	auth   *AuthService
	shifts *ShiftService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), db.GormConfig())
	require.NoError(t, err)
	require.NoError(t, db.PrepareSQLite(gdb))
	require.NoError(t, db.Migrate(gdb))

	f := &fixture{
		repo:   &repo.GormRepo{DB: gdb},
		clock:  newFakeClock(),
		events: &recorder{},
	}
	f.tokens = &TokenService{
		Repo:       f.repo,
		Secret:     []byte("test-secret"),
		AccessTTL:  20 * time.Minute,
		RefreshTTL: 14 * 24 * time.Hour,
		Now:        f.clock.Now,
	}
	f.auth = &AuthService{Repo: f.repo, Tokens: f.tokens, Events: f.events, Now: f.clock.Now}
	f.shifts = &ShiftService{Repo: f.repo, Events: f.events, Now: f.clock.Now}
	return f
}
