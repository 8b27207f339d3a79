package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"side-stacker-server/internal/domain"
)

type fakeRepo struct {
	mu    sync.Mutex
	games map[string]*domain.Game
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{games: make(map[string]*domain.Game)}
}

func (r *fakeRepo) Save(ctx context.Context, g *domain.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[g.ID] = g
	return nil
}

func (r *fakeRepo) Load(ctx context.Context, gameID string) (*domain.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[gameID]
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	return g, nil
}

func (r *fakeRepo) saved(gameID string) (*domain.Game, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.games[gameID]
	return g, ok
}

type publishedEvent struct {
	gameID string
	event  string
	snap   domain.Snapshot
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (b *fakeBroadcaster) Publish(gameID string, event string, snap domain.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, publishedEvent{gameID: gameID, event: event, snap: snap})
}

func (b *fakeBroadcaster) all() []publishedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]publishedEvent(nil), b.events...)
}

func (b *fakeBroadcaster) count(event string) int {
	n := 0
	for _, e := range b.all() {
		if e.event == event {
			n++
		}
	}
	return n
}

// firstMovePolicy always plays the first available move.
type firstMovePolicy struct{}

func (firstMovePolicy) ChooseMove(ctx context.Context, board domain.Board, moves []domain.Move, botPlayer domain.PlayerID, tier domain.Difficulty) domain.Move {
	return moves[0]
}

func newTestManager(repo *fakeRepo, b *fakeBroadcaster) *SessionManager {
	return NewSessionManager(repo, nil, b, firstMovePolicy{}, Options{
		AIDelay:     time.Millisecond,
		LockTimeout: time.Second,
	})
}

func activePvPSession(t *testing.T, m *SessionManager) *GameSession {
	t.Helper()
	session, _, err := m.CreateGame(context.Background(), domain.ModePvP, domain.DifficultyEasy, "alice")
	require.NoError(t, err)
	slot, _, err := session.ClaimSlot(context.Background(), "bob", domain.RoleJoiner)
	require.NoError(t, err)
	require.Equal(t, 2, slot)
	return session
}

func TestSubmitMoveUpdatesStateAndBroadcasts(t *testing.T) {
	repo := newFakeRepo()
	broadcaster := &fakeBroadcaster{}
	session := activePvPSession(t, newTestManager(repo, broadcaster))

	snap, err := session.SubmitMove(context.Background(), "alice", domain.Player1, 3, domain.SideLeft)
	require.NoError(t, err)
	assert.Equal(t, domain.Player1, snap.Board[3][0])
	assert.Equal(t, 2, snap.CurrentPlayer)
	assert.Equal(t, 1, snap.MoveCount)

	assert.Equal(t, 1, broadcaster.count(EventGameUpdate))

	require.Eventually(t, func() bool {
		g, ok := repo.saved(session.ID())
		return ok && g.MoveCount == 1
	}, time.Second, 5*time.Millisecond)

	g, _ := repo.saved(session.ID())
	assert.False(t, g.CreatedAt.IsZero())
}

func TestDelayedSaveCannotRegressStoredState(t *testing.T) {
	repo := newFakeRepo()
	session := activePvPSession(t, newTestManager(repo, &fakeBroadcaster{}))

	stale, err := session.SubmitMove(context.Background(), "alice", domain.Player1, 0, domain.SideLeft)
	require.NoError(t, err)
	_, err = session.SubmitMove(context.Background(), "bob", domain.Player2, 1, domain.SideLeft)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		g, ok := repo.saved(session.ID())
		return ok && g.MoveCount == 2
	}, time.Second, 5*time.Millisecond)

	// Replay the first move's save as if its goroutine was delayed past
	// the second move's; it must be dropped, not stored.
	session.persistSnapshot(stale, 2)

	g, ok := repo.saved(session.ID())
	require.True(t, ok)
	assert.Equal(t, 2, g.MoveCount)
	assert.Equal(t, domain.Player1, g.Board[1][0])
}

func TestSubmitMoveRejectsUnboundName(t *testing.T) {
	session := activePvPSession(t, newTestManager(newFakeRepo(), &fakeBroadcaster{}))

	_, err := session.SubmitMove(context.Background(), "mallory", domain.Player1, 0, domain.SideLeft)
	assert.ErrorIs(t, err, domain.ErrWrongTurn)

	// Impersonating the other slot is also a turn violation.
	_, err = session.SubmitMove(context.Background(), "bob", domain.Player1, 0, domain.SideLeft)
	assert.ErrorIs(t, err, domain.ErrWrongTurn)
}

func TestSubmitMoveConcurrentDuplicatesOneWinner(t *testing.T) {
	repo := newFakeRepo()
	broadcaster := &fakeBroadcaster{}
	session := activePvPSession(t, newTestManager(repo, broadcaster))

	const callers = 16
	var wg sync.WaitGroup
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := session.SubmitMove(context.Background(), "alice", domain.Player1, 0, domain.SideLeft)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrWrongTurn)
		}
	}
	assert.Equal(t, 1, succeeded)

	snap, err := session.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.MoveCount)
	assert.Equal(t, domain.Player1, snap.Board[0][0])
	assert.Equal(t, 2, snap.CurrentPlayer)
}

func TestSubmitMoveTimesOutWhenSessionHeld(t *testing.T) {
	g := domain.NewGame("held", domain.ModePvP, domain.DifficultyEasy, "alice")
	g.ClaimSlot("bob", domain.RoleJoiner)
	session := newSession(g, newFakeRepo(), nil, nil, firstMovePolicy{}, time.Millisecond, 20*time.Millisecond)

	require.NoError(t, session.acquire(context.Background()))
	defer session.release()

	_, err := session.SubmitMove(context.Background(), "alice", domain.Player1, 0, domain.SideLeft)
	assert.ErrorIs(t, err, domain.ErrConcurrencyTimeout)
	assert.True(t, domain.Retryable(err))
}

func TestSubmitMoveReportsCallerCancellation(t *testing.T) {
	g := domain.NewGame("held", domain.ModePvP, domain.DifficultyEasy, "alice")
	g.ClaimSlot("bob", domain.RoleJoiner)
	session := newSession(g, newFakeRepo(), nil, nil, firstMovePolicy{}, time.Millisecond, time.Second)

	require.NoError(t, session.acquire(context.Background()))
	defer session.release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := session.SubmitMove(ctx, "alice", domain.Player1, 0, domain.SideLeft)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrConcurrencyTimeout)
	assert.False(t, domain.Retryable(err))
}

func TestBotRepliesAfterHumanMove(t *testing.T) {
	repo := newFakeRepo()
	broadcaster := &fakeBroadcaster{}
	m := newTestManager(repo, broadcaster)

	session, _, err := m.CreateGame(context.Background(), domain.ModePvA, domain.DifficultyEasy, "alice")
	require.NoError(t, err)

	_, err = session.SubmitMove(context.Background(), "alice", domain.Player1, 3, domain.SideLeft)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snap, err := session.Snapshot(context.Background())
		return err == nil && snap.MoveCount == 2
	}, time.Second, 5*time.Millisecond)

	snap, err := session.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.CurrentPlayer)
	assert.GreaterOrEqual(t, broadcaster.count(EventGameUpdate), 2)
}

func TestRunAITurnDroppedWhenNotApplicable(t *testing.T) {
	repo := newFakeRepo()
	broadcaster := &fakeBroadcaster{}
	m := newTestManager(repo, broadcaster)

	session, _, err := m.CreateGame(context.Background(), domain.ModePvA, domain.DifficultyEasy, "alice")
	require.NoError(t, err)

	// It is still the human's turn; a stray trigger must do nothing.
	session.RunAITurn(context.Background())

	snap, err := session.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, snap.MoveCount)
	assert.Equal(t, 0, broadcaster.count(EventGameUpdate))
}

func TestClaimSlotAnnouncesOnlyNewJoins(t *testing.T) {
	repo := newFakeRepo()
	broadcaster := &fakeBroadcaster{}
	m := newTestManager(repo, broadcaster)

	session, _, err := m.CreateGame(context.Background(), domain.ModePvP, domain.DifficultyEasy, "alice")
	require.NoError(t, err)

	slot, snap, err := session.ClaimSlot(context.Background(), "bob", domain.RoleJoiner)
	require.NoError(t, err)
	assert.Equal(t, 2, slot)
	assert.Equal(t, domain.StatusActive, snap.Status)
	assert.Equal(t, 1, broadcaster.count(EventPlayerJoined))

	// Reconnection resolves the slot without a second announcement.
	slot, _, err = session.ClaimSlot(context.Background(), "bob", domain.RoleJoiner)
	require.NoError(t, err)
	assert.Equal(t, 2, slot)
	assert.Equal(t, 1, broadcaster.count(EventPlayerJoined))

	_, _, err = session.ClaimSlot(context.Background(), "carol", domain.RoleJoiner)
	assert.ErrorIs(t, err, domain.ErrSlotAlreadyClaimed)
}

func TestGetSessionRehydratesFromRepository(t *testing.T) {
	repo := newFakeRepo()
	g := domain.NewGame("stored", domain.ModePvP, domain.DifficultyEasy, "alice")
	require.NoError(t, repo.Save(context.Background(), g))

	m := newTestManager(repo, &fakeBroadcaster{})
	session, err := m.GetSession(context.Background(), "stored")
	require.NoError(t, err)

	snap, err := session.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stored", snap.ID)

	again, err := m.GetSession(context.Background(), "stored")
	require.NoError(t, err)
	assert.Same(t, session, again)
}

func TestGetSessionUnknownGame(t *testing.T) {
	m := newTestManager(newFakeRepo(), &fakeBroadcaster{})
	_, err := m.GetSession(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrGameNotFound)
}

func TestCleanupStaleEvictsFinishedSessions(t *testing.T) {
	repo := newFakeRepo()
	m := newTestManager(repo, &fakeBroadcaster{})

	fresh, _, err := m.CreateGame(context.Background(), domain.ModePvP, domain.DifficultyEasy, "alice")
	require.NoError(t, err)
	stale, _, err := m.CreateGame(context.Background(), domain.ModePvP, domain.DifficultyEasy, "carol")
	require.NoError(t, err)

	stale.game.Status = domain.StatusFinished
	stale.game.UpdatedAt = time.Now().Add(-2 * time.Hour)

	assert.Equal(t, 1, m.CleanupStale(context.Background()))

	// The evicted game reloads from storage; the live one is untouched.
	_, err = m.GetSession(context.Background(), stale.ID())
	require.NoError(t, err)
	live, err := m.GetSession(context.Background(), fresh.ID())
	require.NoError(t, err)
	assert.Same(t, fresh, live)
}
