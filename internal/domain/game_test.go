package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"side-stacker-server/internal/domain"
)

func newActivePvP(t *testing.T) *domain.Game {
	t.Helper()
	g := domain.NewGame("g1", domain.ModePvP, domain.DifficultyEasy, "alice")
	slot, err := g.ClaimSlot("bob", domain.RoleJoiner)
	require.NoError(t, err)
	require.Equal(t, 2, slot)
	require.Equal(t, domain.StatusActive, g.Status)
	return g
}

func TestNewGamePvPStartsWaiting(t *testing.T) {
	g := domain.NewGame("g1", domain.ModePvP, domain.DifficultyEasy, "alice")
	assert.Equal(t, domain.StatusWaiting, g.Status)
	assert.Equal(t, domain.Player1, g.CurrentPlayer)
	assert.Empty(t, g.Player2Name)
	assert.False(t, g.IsBotTurn())
}

func TestNewGamePvAStartsActiveWithBot(t *testing.T) {
	g := domain.NewGame("g1", domain.ModePvA, domain.DifficultyMedium, "alice")
	assert.Equal(t, domain.StatusActive, g.Status)
	assert.Equal(t, domain.GetBotName(domain.DifficultyMedium), g.Player2Name)
	assert.False(t, g.IsBotTurn())

	_, err := g.ApplyMove(3, domain.SideLeft, domain.Player1)
	require.NoError(t, err)
	assert.True(t, g.IsBotTurn())
}

func TestApplyMoveRejectsBeforeActive(t *testing.T) {
	g := domain.NewGame("g1", domain.ModePvP, domain.DifficultyEasy, "alice")
	_, err := g.ApplyMove(0, domain.SideLeft, domain.Player1)
	assert.ErrorIs(t, err, domain.ErrGameNotActive)
}

func TestApplyMoveValidation(t *testing.T) {
	g := newActivePvP(t)

	_, err := g.ApplyMove(-1, domain.SideLeft, domain.Player1)
	assert.ErrorIs(t, err, domain.ErrInvalidRow)

	_, err = g.ApplyMove(domain.Rows, domain.SideLeft, domain.Player1)
	assert.ErrorIs(t, err, domain.ErrInvalidRow)

	_, err = g.ApplyMove(0, domain.Side("X"), domain.Player1)
	assert.ErrorIs(t, err, domain.ErrInvalidSide)

	_, err = g.ApplyMove(0, domain.SideLeft, domain.Player2)
	assert.ErrorIs(t, err, domain.ErrWrongTurn)
	assert.Equal(t, 0, g.MoveCount)
}

func TestApplyMoveAlternatesTurns(t *testing.T) {
	g := newActivePvP(t)

	col, err := g.ApplyMove(0, domain.SideLeft, domain.Player1)
	require.NoError(t, err)
	assert.Equal(t, 0, col)
	assert.Equal(t, domain.Player2, g.CurrentPlayer)
	assert.Equal(t, 1, g.MoveCount)

	col, err = g.ApplyMove(0, domain.SideRight, domain.Player2)
	require.NoError(t, err)
	assert.Equal(t, 6, col)
	assert.Equal(t, domain.Player1, g.CurrentPlayer)
}

func TestApplyMoveWinFinishesGame(t *testing.T) {
	g := newActivePvP(t)
	g.Board[5][0], g.Board[5][1], g.Board[5][2] = domain.Player1, domain.Player1, domain.Player1

	_, err := g.ApplyMove(5, domain.SideLeft, domain.Player1)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFinished, g.Status)
	assert.Equal(t, domain.Player1, g.Winner)
	// Turn does not advance once the game is decided.
	assert.Equal(t, domain.Player1, g.CurrentPlayer)

	_, err = g.ApplyMove(0, domain.SideLeft, domain.Player2)
	assert.ErrorIs(t, err, domain.ErrGameNotActive)
}

// drawPattern fills a board so that no four equal cells line up in any
// direction: cell (r, c) belongs to player 1 when (r + 2c) mod 4 < 2.
func drawPattern() domain.Board {
	b := domain.NewBoard()
	for r := 0; r < domain.Rows; r++ {
		for c := 0; c < domain.Columns; c++ {
			if (r+2*c)%4 < 2 {
				b[r][c] = domain.Player1
			} else {
				b[r][c] = domain.Player2
			}
		}
	}
	return b
}

func TestApplyMoveDrawOnFullBoard(t *testing.T) {
	g := newActivePvP(t)
	g.Board = drawPattern()
	g.Board[6][6] = domain.Empty
	g.CurrentPlayer = domain.Player2

	sim, col, ok := domain.SimulateMove(g.Board, domain.Move{Row: 6, Side: domain.SideRight}, domain.Player2)
	require.True(t, ok)
	require.False(t, domain.CheckWin(sim, 6, col, domain.Player2))

	_, err := g.ApplyMove(6, domain.SideRight, domain.Player2)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFinished, g.Status)
	assert.Equal(t, domain.Empty, g.Winner)
	assert.False(t, domain.HasWin(g.Board, domain.Player1))
	assert.False(t, domain.HasWin(g.Board, domain.Player2))
}

func TestClaimSlotCreator(t *testing.T) {
	g := domain.NewGame("g1", domain.ModePvP, domain.DifficultyEasy, "")

	slot, err := g.ClaimSlot("alice", domain.RoleCreator)
	require.NoError(t, err)
	assert.Equal(t, 1, slot)

	// Reconnect by the same name is idempotent.
	slot, err = g.ClaimSlot("alice", domain.RoleCreator)
	require.NoError(t, err)
	assert.Equal(t, 1, slot)

	_, err = g.ClaimSlot("mallory", domain.RoleCreator)
	assert.ErrorIs(t, err, domain.ErrSlotAlreadyClaimed)
}

func TestClaimSlotJoiner(t *testing.T) {
	g := domain.NewGame("g1", domain.ModePvP, domain.DifficultyEasy, "alice")

	slot, err := g.ClaimSlot("bob", domain.RoleJoiner)
	require.NoError(t, err)
	assert.Equal(t, 2, slot)
	assert.Equal(t, domain.StatusActive, g.Status)

	// Reconnections resolve to the already-bound slot.
	slot, err = g.ClaimSlot("bob", domain.RoleJoiner)
	require.NoError(t, err)
	assert.Equal(t, 2, slot)

	slot, err = g.ClaimSlot("alice", domain.RoleJoiner)
	require.NoError(t, err)
	assert.Equal(t, 1, slot)

	_, err = g.ClaimSlot("carol", domain.RoleJoiner)
	assert.ErrorIs(t, err, domain.ErrSlotAlreadyClaimed)
}

func TestClaimSlotJoinerRejectedInPvA(t *testing.T) {
	g := domain.NewGame("g1", domain.ModePvA, domain.DifficultyHard, "alice")
	_, err := g.ClaimSlot("bob", domain.RoleJoiner)
	assert.ErrorIs(t, err, domain.ErrSlotClaimRejected)
}

func TestClaimSlotJoinerCannotImpersonateBot(t *testing.T) {
	for _, difficulty := range []domain.Difficulty{domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard} {
		g := domain.NewGame("g1", domain.ModePvA, difficulty, "alice")
		_, err := g.ClaimSlot(domain.GetBotName(difficulty), domain.RoleJoiner)
		assert.ErrorIs(t, err, domain.ErrSlotClaimRejected, "difficulty %s", difficulty)
	}

	// The creator still rejoins by name even when it collides with a bot's.
	g := domain.NewGame("g1", domain.ModePvA, domain.DifficultyEasy, "Alice")
	slot, err := g.ClaimSlot("Alice", domain.RoleJoiner)
	require.NoError(t, err)
	assert.Equal(t, 1, slot)
}

func TestSlotFor(t *testing.T) {
	g := newActivePvP(t)
	assert.Equal(t, 1, g.SlotFor("alice"))
	assert.Equal(t, 2, g.SlotFor("bob"))
	assert.Equal(t, 0, g.SlotFor("carol"))
	assert.Equal(t, 0, g.SlotFor(""))
}

func TestSnapshotIsDetachedFromGame(t *testing.T) {
	g := newActivePvP(t)
	snap := g.Snapshot()
	assert.Equal(t, g.CreatedAt, snap.CreatedAt)

	_, err := g.ApplyMove(0, domain.SideLeft, domain.Player1)
	require.NoError(t, err)

	assert.Equal(t, domain.Empty, snap.Board[0][0])
	assert.Equal(t, 0, snap.MoveCount)
	assert.Equal(t, 1, g.MoveCount)
}
