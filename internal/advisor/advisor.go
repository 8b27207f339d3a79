// Package advisor provides strategic move suggestion sources consulted by
// the medium and hard bot tiers. An advisor may be slow, absent, or wrong;
// outcomes are an explicit (move, ok) pair so callers fall back with a
// plain branch instead of catching errors.
package advisor

import (
	"context"
	"fmt"
	"strings"

	"side-stacker-server/internal/domain"
)

type Advisor interface {
	// Suggest proposes a move for player 2. ok=false means no usable
	// suggestion (unavailable, timed out, or unparseable). A returned
	// move is not guaranteed to be legal; callers must validate
	// membership in their available-move set.
	Suggest(ctx context.Context, board domain.Board, moves []domain.Move) (domain.Move, bool)
}

// FormatBoard renders the board for a text prompt: X for player 1,
// O for player 2 (the advisor's side), _ for empty.
func FormatBoard(board domain.Board) string {
	var sb strings.Builder
	for i, row := range board {
		fmt.Fprintf(&sb, "Row %d: ", i)
		for _, cell := range row {
			switch cell {
			case domain.Player1:
				sb.WriteString("X ")
			case domain.Player2:
				sb.WriteString("O ")
			default:
				sb.WriteString("_ ")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatMoves renders available moves as "(row, side)" pairs.
func FormatMoves(moves []domain.Move) string {
	parts := make([]string, 0, len(moves))
	for _, m := range moves {
		parts = append(parts, fmt.Sprintf("(%d, %s)", m.Row, m.Side))
	}
	return strings.Join(parts, ", ")
}

// MoveIndex maps a move onto [0, 14): two entries per row, left then right.
func MoveIndex(m domain.Move) int {
	idx := m.Row * 2
	if m.Side == domain.SideRight {
		idx++
	}
	return idx
}
