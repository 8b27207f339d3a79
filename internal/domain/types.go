package domain

type PlayerID int

const (
	Empty   PlayerID = 0
	Player1 PlayerID = 1
	Player2 PlayerID = 2
)

const (
	Rows    = 7
	Columns = 7
	ToWin   = 4
)

// Side is the edge a piece is inserted from.
type Side string

const (
	SideLeft  Side = "L"
	SideRight Side = "R"
)

// Move is a row plus an insertion side; the landing column is resolved
// from the current row occupancy, never stored.
type Move struct {
	Row  int  `json:"row"`
	Side Side `json:"side"`
}

func (m Move) Validate() error {
	if m.Row < 0 || m.Row >= Rows {
		return ErrInvalidRow
	}
	if m.Side != SideLeft && m.Side != SideRight {
		return ErrInvalidSide
	}
	return nil
}

type GameStatus string

const (
	StatusWaiting  GameStatus = "waiting"
	StatusActive   GameStatus = "active"
	StatusFinished GameStatus = "finished"
)

type GameMode string

const (
	ModePvP GameMode = "pvp"
	ModePvA GameMode = "pva"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// SlotRole distinguishes the game creator (slot 1) from a joiner (slot 2).
type SlotRole string

const (
	RoleCreator SlotRole = "creator"
	RoleJoiner  SlotRole = "joiner"
)

var BotNames = map[Difficulty]string{
	DifficultyEasy:   "Alice",
	DifficultyMedium: "Bob",
	DifficultyHard:   "Charles",
}

func GetBotName(difficulty Difficulty) string {
	if name, ok := BotNames[difficulty]; ok {
		return name
	}
	return "BOT"
}

func Opponent(p PlayerID) PlayerID {
	if p == Player1 {
		return Player2
	}
	return Player1
}
