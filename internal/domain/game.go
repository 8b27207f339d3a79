package domain

import "time"

// Game is the authoritative state of a single side-stacker game. It is
// owned by exactly one session; nothing else mutates it.
type Game struct {
	ID            string     `json:"id"`
	Player1Name   string     `json:"player1_name"`
	Player2Name   string     `json:"player2_name"`
	CurrentPlayer PlayerID   `json:"current_player"`
	Status        GameStatus `json:"status"`
	Mode          GameMode   `json:"mode"`
	Difficulty    Difficulty `json:"difficulty"`
	Winner        PlayerID   `json:"winner"` // Empty means none (draw when finished)
	Board         Board      `json:"board"`
	MoveCount     int        `json:"move_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewGame creates a game in its initial lifecycle state: pvp games wait
// for a second player, pva games start active with the bot bound to
// slot 2.
func NewGame(id string, mode GameMode, difficulty Difficulty, creatorName string) *Game {
	now := time.Now()
	g := &Game{
		ID:            id,
		Player1Name:   creatorName,
		CurrentPlayer: Player1,
		Status:        StatusWaiting,
		Mode:          mode,
		Difficulty:    difficulty,
		Winner:        Empty,
		Board:         NewBoard(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if mode == ModePvA {
		g.Player2Name = GetBotName(difficulty)
		g.Status = StatusActive
	}
	return g
}

func (g *Game) IsFinished() bool {
	return g.Status == StatusFinished
}

// IsBotTurn reports whether the bot (always slot 2 in pva mode) moves next.
func (g *Game) IsBotTurn() bool {
	return g.Mode == ModePvA && g.Status == StatusActive && g.CurrentPlayer == Player2
}

// ApplyMove validates and applies a move for actingPlayer, then runs win
// and draw detection. The board is replaced, not mutated in place, so
// snapshots taken before the call stay consistent. Returns the landing
// column.
func (g *Game) ApplyMove(row int, side Side, actingPlayer PlayerID) (int, error) {
	move := Move{Row: row, Side: side}
	if err := move.Validate(); err != nil {
		return -1, err
	}
	if g.Status != StatusActive {
		return -1, ErrGameNotActive
	}
	if actingPlayer != g.CurrentPlayer {
		return -1, ErrWrongTurn
	}

	next := g.Board.Copy()
	col, err := next.Place(row, side, actingPlayer)
	if err != nil {
		return -1, err
	}

	g.Board = next
	g.MoveCount++
	g.UpdatedAt = time.Now()

	if CheckWin(next, row, col, actingPlayer) {
		g.Status = StatusFinished
		g.Winner = actingPlayer
		return col, nil
	}
	if next.IsFull() {
		g.Status = StatusFinished
		g.Winner = Empty
		return col, nil
	}

	g.CurrentPlayer = Opponent(actingPlayer)
	return col, nil
}

// ClaimSlot binds a display name to a player slot. Reconnections are
// recognized by name and return the prior slot idempotently.
func (g *Game) ClaimSlot(name string, role SlotRole) (int, error) {
	switch role {
	case RoleCreator:
		if g.Player1Name == "" {
			g.Player1Name = name
			g.UpdatedAt = time.Now()
			return 1, nil
		}
		if g.Player1Name == name {
			return 1, nil
		}
		return 0, ErrSlotAlreadyClaimed
	case RoleJoiner:
		if g.Player1Name == name {
			return 1, nil
		}
		// Slot 2 belongs to the bot in pva mode; a joiner presenting the
		// bot's display name must not be handed its seat.
		if g.Mode == ModePvA {
			return 0, ErrSlotClaimRejected
		}
		if g.Player2Name == name {
			return 2, nil
		}
		if g.Status != StatusWaiting {
			if g.Player2Name != "" {
				return 0, ErrSlotAlreadyClaimed
			}
			return 0, ErrSlotClaimRejected
		}
		g.Player2Name = name
		g.Status = StatusActive
		g.UpdatedAt = time.Now()
		return 2, nil
	}
	return 0, ErrSlotClaimRejected
}

// SlotFor returns the slot number bound to a display name, or 0.
func (g *Game) SlotFor(name string) int {
	if name == "" {
		return 0
	}
	if g.Player1Name == name {
		return 1
	}
	if g.Player2Name == name {
		return 2
	}
	return 0
}

// Snapshot is a complete, self-describing copy of a game state suitable
// for idempotent broadcast; duplicated or reordered delivery of whole
// snapshots cannot corrupt client state.
type Snapshot struct {
	ID            string     `json:"id"`
	Board         Board      `json:"board"`
	CurrentPlayer int        `json:"current_player"`
	Status        GameStatus `json:"status"`
	Mode          GameMode   `json:"mode"`
	Difficulty    Difficulty `json:"difficulty"`
	Winner        int        `json:"winner"`
	Player1Name   string     `json:"player1_name"`
	Player2Name   string     `json:"player2_name"`
	MoveCount     int        `json:"move_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Snapshot returns a read-only copy of the current state. The board is
// deep-copied so later mutations never show through.
func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		ID:            g.ID,
		Board:         g.Board.Copy(),
		CurrentPlayer: int(g.CurrentPlayer),
		Status:        g.Status,
		Mode:          g.Mode,
		Difficulty:    g.Difficulty,
		Winner:        int(g.Winner),
		Player1Name:   g.Player1Name,
		Player2Name:   g.Player2Name,
		MoveCount:     g.MoveCount,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
}
