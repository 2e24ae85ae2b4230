package denylist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThanhLuuv/user-management-backend/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	Memory
	calls int
}

func (f *failingStore) Prune(context.Context, time.Time) (int64, error) {
	f.calls++
	return 0, errors.New("prune failed")
}

func TestSweeper_SweepOnce(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	_, _ = m.Revoke(ctx, "old", now.Add(-time.Second))
	_, _ = m.Revoke(ctx, "new", now.Add(time.Hour))

	s := NewSweeper(m, time.Minute, logging.Nop{})
	s.now = func() time.Time { return now }
	s.SweepOnce(ctx)

	assert.Equal(t, 1, m.Len())
}

func TestSweeper_PruneErrorIsLoggedNotFatal(t *testing.T) {
	store := &failingStore{}
	s := NewSweeper(store, time.Minute, logging.Nop{})
	s.SweepOnce(context.Background())
	assert.Equal(t, 1, store.calls)
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	m := NewMemory()
	_, _ = m.Revoke(context.Background(), "old", time.Now().Add(-time.Hour))

	s := NewSweeper(m, 5*time.Millisecond, logging.Nop{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSweeper_DisabledInterval(t *testing.T) {
	s := NewSweeper(NewMemory(), 0, logging.Nop{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, s.Run(ctx))
}
