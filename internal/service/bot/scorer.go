package bot

import (
	"math/rand"
	"sort"

	"side-stacker-server/internal/domain"
)

const (
	connectionWeight = 5
	opponentPenalty  = 2
	invalidMoveScore = -1000
)

// topMoveWeights picks among the best three candidates so the fallback
// stays strong without becoming perfectly predictable.
var topMoveWeights = []int{3, 2, 1}

type scoredMove struct {
	move  domain.Move
	score int
}

// StrategicMove is the heuristic fallback used when an advisor yields
// nothing usable. Candidates are scored by center preference and by the
// piece runs the move would join, then one of the top three is picked
// with 3:2:1 weighting.
func StrategicMove(board domain.Board, moves []domain.Move, botPlayer domain.PlayerID) domain.Move {
	scored := make([]scoredMove, 0, len(moves))
	for _, move := range moves {
		scored = append(scored, scoredMove{move: move, score: scoreMove(board, move, botPlayer)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	top := len(scored)
	if top > len(topMoveWeights) {
		top = len(topMoveWeights)
	}

	total := 0
	for i := 0; i < top; i++ {
		total += topMoveWeights[i]
	}
	pick := rand.Intn(total)
	for i := 0; i < top; i++ {
		pick -= topMoveWeights[i]
		if pick < 0 {
			return scored[i].move
		}
	}
	return scored[0].move
}

func scoreMove(board domain.Board, move domain.Move, botPlayer domain.PlayerID) int {
	testBoard, col, ok := domain.SimulateMove(board, move, botPlayer)
	if !ok {
		return invalidMoveScore
	}

	score := centerBonus(move.Row)
	score += connectionWeight * countConnections(testBoard, move.Row, col, botPlayer)
	score -= opponentPenalty * countConnections(testBoard, move.Row, col, domain.Opponent(botPlayer))
	return score
}

// centerBonus prefers rows near the middle of the board.
func centerBonus(row int) int {
	dist := row - domain.Rows/2
	if dist < 0 {
		dist = -dist
	}
	return domain.Rows - dist
}

// countConnections sums, over the four axis directions, the run of
// matching pieces through (row, col). Runs shorter than 2 contribute
// nothing.
func countConnections(board domain.Board, row, col int, player domain.PlayerID) int {
	dirs := [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}
	total := 0
	for _, dir := range dirs {
		count := 1 +
			board.CountInDirection(row, col, dir[0], dir[1], player) +
			board.CountInDirection(row, col, -dir[0], -dir[1], player)
		if count >= 2 {
			total += count
		}
	}
	return total
}
