package domain

var directions = [4][2]int{
	{0, 1},  // horizontal
	{1, 0},  // vertical
	{1, 1},  // diagonal \
	{1, -1}, // diagonal /
}

// CheckWin reports whether player has four in a row through (row, col).
// Only lines passing through that cell are scanned; a win can only newly
// appear through the most recently placed piece, so callers pass the
// landing cell of the last move.
func CheckWin(b Board, row, col int, player PlayerID) bool {
	if b[row][col] != player {
		return false
	}
	for _, dir := range directions {
		count := 1 +
			b.CountInDirection(row, col, dir[0], dir[1], player) +
			b.CountInDirection(row, col, -dir[0], -dir[1], player)
		if count >= ToWin {
			return true
		}
	}
	return false
}

// HasWin scans the whole board for four in a row belonging to player.
// Agrees with CheckWin by construction; used where no single placed cell
// is known.
func HasWin(b Board, player PlayerID) bool {
	for row := 0; row < Rows; row++ {
		for col := 0; col < Columns; col++ {
			if b[row][col] == player && CheckWin(b, row, col, player) {
				return true
			}
		}
	}
	return false
}
