package game

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"side-stacker-server/internal/domain"
	"side-stacker-server/pkg/uid"
)

// Options tunes session behavior; zero values fall back to defaults.
type Options struct {
	AIDelay     time.Duration
	LockTimeout time.Duration
}

const (
	defaultAIDelay     = 2 * time.Second
	defaultLockTimeout = 5 * time.Second

	finishedLinger = 1 * time.Hour
	staleAfter     = 24 * time.Hour
)

// SessionManager maps game ids to their live sessions. Sessions for games
// not in memory are rehydrated from the repository on demand.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*GameSession

	repo        GameRepository
	cache       SnapshotCache
	broadcaster Broadcaster
	policy      MovePolicy
	opts        Options
}

func NewSessionManager(repo GameRepository, cache SnapshotCache, b Broadcaster, policy MovePolicy, opts Options) *SessionManager {
	if opts.AIDelay == 0 {
		opts.AIDelay = defaultAIDelay
	}
	if opts.LockTimeout == 0 {
		opts.LockTimeout = defaultLockTimeout
	}
	return &SessionManager{
		sessions:    make(map[string]*GameSession),
		repo:        repo,
		cache:       cache,
		broadcaster: b,
		policy:      policy,
		opts:        opts,
	}
}

// CreateGame creates a game with the creator bound to slot 1, registers
// its session, and persists the initial state.
func (m *SessionManager) CreateGame(ctx context.Context, mode domain.GameMode, difficulty domain.Difficulty, creatorName string) (*GameSession, domain.Snapshot, error) {
	g := domain.NewGame(uid.GenerateGameID(), mode, difficulty, creatorName)

	session := newSession(g, m.repo, m.cache, m.broadcaster, m.policy, m.opts.AIDelay, m.opts.LockTimeout)

	m.mu.Lock()
	m.sessions[g.ID] = session
	m.mu.Unlock()

	snap := g.Snapshot()
	if err := m.repo.Save(ctx, g); err != nil {
		m.RemoveSession(g.ID)
		return nil, domain.Snapshot{}, err
	}

	log.Printf("[SESSION] Created game %s (mode=%s difficulty=%s creator=%q)", g.ID, mode, difficulty, creatorName)
	return session, snap, nil
}

// GetSession returns the live session for a game, loading the stored
// state into a fresh session when none is live. Two concurrent loads of
// the same game converge on one session.
func (m *SessionManager) GetSession(ctx context.Context, gameID string) (*GameSession, error) {
	m.mu.RLock()
	session, ok := m.sessions[gameID]
	m.mu.RUnlock()
	if ok {
		return session, nil
	}

	g, err := m.repo.Load(ctx, gameID)
	if err != nil {
		if errors.Is(err, domain.ErrGameNotFound) {
			return nil, domain.ErrGameNotFound
		}
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[gameID]; ok {
		return existing, nil
	}
	session = newSession(g, m.repo, m.cache, m.broadcaster, m.policy, m.opts.AIDelay, m.opts.LockTimeout)
	m.sessions[gameID] = session
	return session, nil
}

func (m *SessionManager) RemoveSession(gameID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, gameID)
}

// CleanupStale evicts finished sessions past their linger window and
// sessions untouched for a day. Evicted games stay loadable from the
// repository. Returns the number of evictions.
func (m *SessionManager) CleanupStale(ctx context.Context) int {
	m.mu.RLock()
	candidates := make([]*GameSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		candidates = append(candidates, s)
	}
	m.mu.RUnlock()

	now := time.Now()
	count := 0
	for _, s := range candidates {
		status, updated, err := s.state(ctx)
		if err != nil {
			continue
		}
		evict := (status == domain.StatusFinished && now.Sub(updated) > finishedLinger) ||
			now.Sub(updated) > staleAfter
		if evict {
			m.RemoveSession(s.ID())
			count++
		}
	}
	if count > 0 {
		log.Printf("[SESSION] Memory cleanup: removed %d stale game sessions", count)
	}
	return count
}
