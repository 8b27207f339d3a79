package domain

// Board is a 7x7 grid. Row invariant: occupied cells always form a left
// prefix plus a right suffix with a single empty gap in between, because
// pieces only ever enter at the nearest empty cell to an edge.
type Board [][]PlayerID

func NewBoard() Board {
	board := make(Board, Rows)
	for i := range board {
		board[i] = make([]PlayerID, Columns)
	}
	return board
}

// Copy creates a deep copy of the board.
func (b Board) Copy() Board {
	newBoard := make(Board, len(b))
	for i := range b {
		newBoard[i] = make([]PlayerID, len(b[i]))
		copy(newBoard[i], b[i])
	}
	return newBoard
}

// TargetColumn resolves where a piece inserted into row from side would
// land. Returns -1 when the row is full.
func (b Board) TargetColumn(row int, side Side) int {
	if side == SideLeft {
		for col := 0; col < Columns; col++ {
			if b[row][col] == Empty {
				return col
			}
		}
		return -1
	}
	for col := Columns - 1; col >= 0; col-- {
		if b[row][col] == Empty {
			return col
		}
	}
	return -1
}

// Place inserts a piece into row from side and returns the landing column.
func (b Board) Place(row int, side Side, player PlayerID) (int, error) {
	col := b.TargetColumn(row, side)
	if col == -1 {
		return -1, ErrRowFull
	}
	b[row][col] = player
	return col, nil
}

func (b Board) IsFull() bool {
	for row := 0; row < Rows; row++ {
		if b.TargetColumn(row, SideLeft) != -1 {
			return false
		}
	}
	return true
}

// AvailableMoves enumerates legal moves row-major, left side before right.
// A row with one empty cell yields both sides even though they land on the
// same column.
func (b Board) AvailableMoves() []Move {
	moves := []Move{}
	for row := 0; row < Rows; row++ {
		if b.TargetColumn(row, SideLeft) != -1 {
			moves = append(moves, Move{Row: row, Side: SideLeft})
		}
		if b.TargetColumn(row, SideRight) != -1 {
			moves = append(moves, Move{Row: row, Side: SideRight})
		}
	}
	return moves
}

// SimulateMove applies a move on a copy of the board. The original is
// untouched. Returns the new board with the landing column, or ok=false
// when the row is full.
func SimulateMove(b Board, m Move, player PlayerID) (Board, int, bool) {
	newBoard := b.Copy()
	col, err := newBoard.Place(m.Row, m.Side, player)
	if err != nil {
		return nil, -1, false
	}
	return newBoard, col, true
}

// CountInDirection counts consecutive pieces of player walking from
// (row,col) exclusive in the (deltaRow,deltaCol) direction.
func (b Board) CountInDirection(row, col, deltaRow, deltaCol int, player PlayerID) int {
	count := 0
	r, c := row+deltaRow, col+deltaCol
	for r >= 0 && r < Rows && c >= 0 && c < Columns && b[r][c] == player {
		count++
		r += deltaRow
		c += deltaCol
	}
	return count
}
