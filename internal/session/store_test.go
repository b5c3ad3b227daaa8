package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justinabrahms/clickchess/internal/chess"
)

func TestCreateGetDelete(t *testing.T) {
	store := NewStore(10, time.Hour)

	game, err := store.Create(chess.NewEngine(chess.DefaultRules()))
	require.NoError(t, err)
	assert.NotEmpty(t, game.ID)

	got, err := store.Get(game.ID)
	require.NoError(t, err)
	assert.Same(t, game, got)

	assert.True(t, store.Delete(game.ID))
	assert.False(t, store.Delete(game.ID))

	_, err = store.Get(game.ID)
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestGamesAreIndependent(t *testing.T) {
	store := NewStore(10, time.Hour)

	first, err := store.Create(chess.NewEngine(chess.DefaultRules()))
	require.NoError(t, err)
	second, err := store.Create(chess.NewEngine(chess.DefaultRules()))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	err = first.Do(func(e *chess.Engine) error {
		_, err := e.MakeMove("e2", "e4")
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, chess.Black, first.Snapshot().Turn)
	assert.Equal(t, chess.White, second.Snapshot().Turn)
}

func TestMaxGames(t *testing.T) {
	store := NewStore(1, time.Hour)

	_, err := store.Create(chess.NewEngine(chess.DefaultRules()))
	require.NoError(t, err)

	_, err = store.Create(chess.NewEngine(chess.DefaultRules()))
	assert.ErrorIs(t, err, ErrTooManyGames)
	assert.Equal(t, 1, store.Len())
}

func TestCleanupRemovesIdleGames(t *testing.T) {
	store := NewStore(10, time.Hour)
	now := time.Now()
	store.now = func() time.Time { return now }

	stale, err := store.Create(chess.NewEngine(chess.DefaultRules()))
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	fresh, err := store.Create(chess.NewEngine(chess.DefaultRules()))
	require.NoError(t, err)

	removed := store.Cleanup()
	assert.Equal(t, []string{stale.ID}, removed)

	_, err = store.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestActivityUsesStoreClock(t *testing.T) {
	store := NewStore(10, time.Hour)
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start
	store.now = func() time.Time { return now }

	game, err := store.Create(chess.NewEngine(chess.DefaultRules()))
	require.NoError(t, err)
	assert.Equal(t, start, game.CreatedAt)

	now = start.Add(50 * time.Minute)
	require.NoError(t, game.Do(func(e *chess.Engine) error {
		_, err := e.MakeMove("e2", "e4")
		return err
	}))
	assert.Equal(t, now, game.idleSince())

	// an hour after creation but only ten minutes after the last move
	now = start.Add(time.Hour + 10*time.Minute)
	assert.Empty(t, store.Cleanup())

	now = start.Add(2 * time.Hour)
	assert.Equal(t, []string{game.ID}, store.Cleanup())
}
