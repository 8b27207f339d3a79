package bot

import (
	"context"
	"log"
	"math/rand"
	"time"

	"side-stacker-server/internal/advisor"
	"side-stacker-server/internal/domain"
)

// Engine is the three-tier move decision procedure. The medium tier
// consults a remote advisor, the hard tier a learned one; both tolerate
// the advisor being nil, slow, or wrong by falling back to the strategic
// scorer. Advisor failures never reach the caller.
type Engine struct {
	remote         advisor.Advisor
	learned        advisor.Advisor
	advisorTimeout time.Duration
}

func New(remote, learned advisor.Advisor, advisorTimeout time.Duration) *Engine {
	return &Engine{
		remote:         remote,
		learned:        learned,
		advisorTimeout: advisorTimeout,
	}
}

// ChooseMove picks a move for botPlayer from moves, which must be
// non-empty. All tiers take an immediate win first, then block an
// immediate opponent win, before the per-tier policy runs.
func (e *Engine) ChooseMove(ctx context.Context, board domain.Board, moves []domain.Move, botPlayer domain.PlayerID, tier domain.Difficulty) domain.Move {
	if move, ok := findWinningMove(board, moves, botPlayer); ok {
		return move
	}
	if move, ok := findWinningMove(board, moves, domain.Opponent(botPlayer)); ok {
		return move
	}

	switch tier {
	case domain.DifficultyEasy:
		return moves[rand.Intn(len(moves))]
	case domain.DifficultyMedium:
		return e.consult(ctx, e.remote, board, moves, botPlayer)
	case domain.DifficultyHard:
		return e.consult(ctx, e.learned, board, moves, botPlayer)
	default:
		return moves[rand.Intn(len(moves))]
	}
}

// consult asks an advisor under a bounded timeout and validates that the
// suggestion is one of the legal moves; anything else falls through to
// the strategic scorer.
func (e *Engine) consult(ctx context.Context, adv advisor.Advisor, board domain.Board, moves []domain.Move, botPlayer domain.PlayerID) domain.Move {
	if adv != nil {
		advisorCtx, cancel := context.WithTimeout(ctx, e.advisorTimeout)
		defer cancel()

		if move, ok := adv.Suggest(advisorCtx, board, moves); ok {
			if containsMove(moves, move) {
				return move
			}
			log.Printf("[BOT] Advisor suggested illegal move (%d, %s), falling back", move.Row, move.Side)
		}
	}
	return StrategicMove(board, moves, botPlayer)
}

// findWinningMove sweeps moves in the given order (row-major, left before
// right as produced by AvailableMoves) and returns the first one that
// completes four in a row for player.
func findWinningMove(board domain.Board, moves []domain.Move, player domain.PlayerID) (domain.Move, bool) {
	for _, move := range moves {
		testBoard, col, ok := domain.SimulateMove(board, move, player)
		if ok && domain.CheckWin(testBoard, move.Row, col, player) {
			return move, true
		}
	}
	return domain.Move{}, false
}

func containsMove(moves []domain.Move, move domain.Move) bool {
	for _, m := range moves {
		if m == move {
			return true
		}
	}
	return false
}
