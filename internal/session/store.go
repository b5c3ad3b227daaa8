package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/justinabrahms/clickchess/internal/chess"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrTooManyGames = errors.New("too many games")
)

// Game is one engine plus the lock that serializes access to it.
type Game struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	engine     *chess.Engine
	lastActive time.Time
	now        func() time.Time
}

// Do runs fn with exclusive access to the game's engine.
func (g *Game) Do(fn func(e *chess.Engine) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.lastActive = g.now()
	return fn(g.engine)
}

// Snapshot returns the current state of the game.
func (g *Game) Snapshot() chess.Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.engine.Snapshot()
}

func (g *Game) idleSince() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.lastActive
}

// Store manages the games being played
type Store struct {
	games    map[string]*Game
	mu       sync.RWMutex
	maxGames int
	idle     time.Duration
	now      func() time.Time
}

// NewStore creates a store holding at most maxGames games. Games untouched
// for longer than idle are removed by Cleanup.
func NewStore(maxGames int, idle time.Duration) *Store {
	return &Store{
		games:    make(map[string]*Game),
		maxGames: maxGames,
		idle:     idle,
		now:      time.Now,
	}
}

// Create stores a new game around engine and returns it.
func (s *Store) Create(engine *chess.Engine) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxGames > 0 && len(s.games) >= s.maxGames {
		return nil, fmt.Errorf("%w: limit is %d", ErrTooManyGames, s.maxGames)
	}

	now := s.now()
	game := &Game{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		engine:     engine,
		lastActive: now,
		now:        s.now,
	}
	s.games[game.ID] = game

	return game, nil
}

// Get retrieves a game by ID
func (s *Store) Get(id string) (*Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	game, exists := s.games[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}

	return game, nil
}

// Delete removes a game
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.games[id]
	delete(s.games, id)
	return exists
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.games)
}

// Cleanup removes every game idle for longer than the store's timeout and
// returns the removed IDs.
func (s *Store) Cleanup() []string {
	if s.idle <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.idle)
	var removed []string
	for id, game := range s.games {
		if game.idleSince().Before(cutoff) {
			delete(s.games, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// StartCleanupRoutine runs Cleanup every interval until ctx is done.
func (s *Store) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.Cleanup(); len(removed) > 0 {
					log.Info().Strs("gameIDs", removed).Msg("Removed idle games")
				}
			}
		}
	}()
}
