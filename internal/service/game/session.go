package game

import (
	"context"
	"log"
	"sync"
	"time"

	"side-stacker-server/internal/domain"
)

// GameRepository persists whole game states. The session treats it as the
// source of truth at start and as a sink after every mutation; it is never
// the locking mechanism.
type GameRepository interface {
	Save(ctx context.Context, g *domain.Game) error
	Load(ctx context.Context, gameID string) (*domain.Game, error)
}

// SnapshotCache keeps the latest snapshot per game for cheap reads.
// Optional; a nil cache is skipped.
type SnapshotCache interface {
	SetSnapshot(ctx context.Context, snap domain.Snapshot) error
	GetSnapshot(ctx context.Context, gameID string) (domain.Snapshot, bool)
}

// Broadcaster delivers session-emitted snapshots to connected clients.
// Delivery is at-least-once and best-effort; payloads are whole snapshots
// so duplicates are harmless.
type Broadcaster interface {
	Publish(gameID string, event string, snap domain.Snapshot)
}

// MovePolicy decides the bot's move. Implemented by the bot engine.
type MovePolicy interface {
	ChooseMove(ctx context.Context, board domain.Board, moves []domain.Move, botPlayer domain.PlayerID, tier domain.Difficulty) domain.Move
}

const (
	EventGameUpdate       = "game_update"
	EventPlayerJoined     = "player_joined"
	EventPlayerAssignment = "player_assignment"
	EventError            = "error"
)

// GameSession owns the single authoritative in-memory copy of one game.
// All state transitions form a strict serial history: every mutating
// operation holds the session's exclusivity token, acquired with a bound
// so a stuck session surfaces as a retryable error instead of piling up
// goroutines. Operations on different games never contend.
type GameSession struct {
	gameID string

	// capacity-1 token channel; holding the token is holding the lock
	lock chan struct{}
	game *domain.Game

	// seq numbers mutations while the lock is held; saveMu plus savedSeq
	// keep the save goroutines from landing a stale state over a newer one
	seq      uint64
	saveMu   sync.Mutex
	savedSeq uint64

	repo        GameRepository
	cache       SnapshotCache
	broadcaster Broadcaster
	policy      MovePolicy

	aiDelay     time.Duration
	lockTimeout time.Duration
}

func newSession(g *domain.Game, repo GameRepository, cache SnapshotCache, b Broadcaster, policy MovePolicy, aiDelay, lockTimeout time.Duration) *GameSession {
	return &GameSession{
		gameID:      g.ID,
		lock:        make(chan struct{}, 1),
		game:        g,
		repo:        repo,
		cache:       cache,
		broadcaster: b,
		policy:      policy,
		aiDelay:     aiDelay,
		lockTimeout: lockTimeout,
	}
}

func (s *GameSession) ID() string {
	return s.gameID
}

// acquire blocks until the session's exclusivity token is available or the
// bound elapses.
func (s *GameSession) acquire(ctx context.Context) error {
	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()
	select {
	case s.lock <- struct{}{}:
		return nil
	case <-timer.C:
		return domain.ErrConcurrencyTimeout
	case <-ctx.Done():
		// The caller gave up; that is not a busy session.
		return ctx.Err()
	}
}

func (s *GameSession) release() {
	<-s.lock
}

// SubmitMove authenticates the acting player against the slot bindings and
// applies the move under exclusivity. Persistence and broadcast happen
// after release as fire-and-forget side effects. If the move hands the
// turn to the bot, a deferred AI turn is scheduled.
func (s *GameSession) SubmitMove(ctx context.Context, playerName string, actingPlayer domain.PlayerID, row int, side domain.Side) (domain.Snapshot, error) {
	if err := s.acquire(ctx); err != nil {
		return domain.Snapshot{}, err
	}

	if slot := s.game.SlotFor(playerName); slot != int(actingPlayer) {
		s.release()
		return domain.Snapshot{}, domain.ErrWrongTurn
	}

	_, err := s.game.ApplyMove(row, side, actingPlayer)
	snap := s.game.Snapshot()
	seq := s.nextSeq()
	scheduleBot := err == nil && s.game.IsBotTurn()
	s.release()

	if err != nil {
		return domain.Snapshot{}, err
	}

	s.persistAndBroadcast(snap, EventGameUpdate, seq)
	if scheduleBot {
		s.scheduleAITurn()
	}
	return snap, nil
}

// scheduleAITurn defers the bot's reply so it feels human-paced. The delay
// is a design parameter, not a correctness requirement; the deferred turn
// re-validates applicability under exclusivity when it fires.
func (s *GameSession) scheduleAITurn() {
	time.AfterFunc(s.aiDelay, func() {
		s.RunAITurn(context.Background())
	})
}

// RunAITurn computes and applies the bot's move. A turn that is no longer
// applicable (game finished, turn changed, another trigger won the race)
// is silently dropped. Faults are logged and dropped rather than crashing
// the session.
func (s *GameSession) RunAITurn(ctx context.Context) {
	if err := s.acquire(ctx); err != nil {
		log.Printf("[BOT] Game %s: could not acquire session for AI turn: %v", s.gameID, err)
		return
	}

	if !s.game.IsBotTurn() {
		s.release()
		return
	}
	moves := s.game.Board.AvailableMoves()
	if len(moves) == 0 {
		s.release()
		return
	}

	move := s.policy.ChooseMove(ctx, s.game.Board, moves, domain.Player2, s.game.Difficulty)
	_, err := s.game.ApplyMove(move.Row, move.Side, domain.Player2)
	snap := s.game.Snapshot()
	seq := s.nextSeq()
	s.release()

	if err != nil {
		log.Printf("[BOT] Game %s: AI move (%d, %s) rejected: %v", s.gameID, move.Row, move.Side, err)
		return
	}
	s.persistAndBroadcast(snap, EventGameUpdate, seq)
}

// ClaimSlot binds a display name to a slot under the game's claim rules.
// A newly filled slot 2 is announced to the room; reconnections are not.
func (s *GameSession) ClaimSlot(ctx context.Context, playerName string, role domain.SlotRole) (int, domain.Snapshot, error) {
	if err := s.acquire(ctx); err != nil {
		return 0, domain.Snapshot{}, err
	}

	joinedBefore := s.game.Player2Name != ""
	slot, err := s.game.ClaimSlot(playerName, role)
	snap := s.game.Snapshot()
	seq := s.nextSeq()
	s.release()

	if err != nil {
		return 0, domain.Snapshot{}, err
	}

	if slot == 2 && !joinedBefore {
		s.persistAndBroadcast(snap, EventPlayerJoined, seq)
	}
	return slot, snap, nil
}

// Snapshot returns a read-only copy of the current state for a single
// requester without emitting anything to the room.
func (s *GameSession) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	if err := s.acquire(ctx); err != nil {
		return domain.Snapshot{}, err
	}
	snap := s.game.Snapshot()
	s.release()
	return snap, nil
}

// finished reads the lifecycle state without contending with a held lock
// longer than the bound; used by cleanup.
func (s *GameSession) state(ctx context.Context) (domain.GameStatus, time.Time, error) {
	if err := s.acquire(ctx); err != nil {
		return "", time.Time{}, err
	}
	status, updated := s.game.Status, s.game.UpdatedAt
	s.release()
	return status, updated, nil
}

// nextSeq numbers a mutation. Callers must hold the session lock.
func (s *GameSession) nextSeq() uint64 {
	s.seq++
	return s.seq
}

// persistAndBroadcast runs the post-mutation side effects outside the
// exclusivity window. Broadcast payloads are idempotent whole snapshots, so
// duplication across goroutines is harmless; the store is order-sensitive,
// so persistSnapshot drops any save overtaken by a newer mutation.
func (s *GameSession) persistAndBroadcast(snap domain.Snapshot, event string, seq uint64) {
	go s.persistSnapshot(snap, seq)
	if s.broadcaster != nil {
		s.broadcaster.Publish(s.gameID, event, snap)
	}
}

// persistSnapshot writes a snapshot to the repository and cache unless a
// higher-numbered mutation already got there first. Saves are serialized
// per session so seq order is also arrival order at the store.
func (s *GameSession) persistSnapshot(snap domain.Snapshot, seq uint64) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if seq < s.savedSeq {
		return
	}
	s.savedSeq = seq

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.repo.Save(ctx, s.gameFromSnapshot(snap)); err != nil {
		log.Printf("[SESSION] Game %s: save failed: %v", s.gameID, err)
	}
	if s.cache != nil {
		if err := s.cache.SetSnapshot(ctx, snap); err != nil {
			log.Printf("[SESSION] Game %s: snapshot cache write failed: %v", s.gameID, err)
		}
	}
}

// gameFromSnapshot rebuilds a persistable game value from an emitted
// snapshot so the save goroutine never touches session-owned state.
func (s *GameSession) gameFromSnapshot(snap domain.Snapshot) *domain.Game {
	return &domain.Game{
		ID:            snap.ID,
		Player1Name:   snap.Player1Name,
		Player2Name:   snap.Player2Name,
		CurrentPlayer: domain.PlayerID(snap.CurrentPlayer),
		Status:        snap.Status,
		Mode:          snap.Mode,
		Difficulty:    snap.Difficulty,
		Winner:        domain.PlayerID(snap.Winner),
		Board:         snap.Board,
		MoveCount:     snap.MoveCount,
		CreatedAt:     snap.CreatedAt,
		UpdatedAt:     snap.UpdatedAt,
	}
}
