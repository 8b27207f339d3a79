package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"side-stacker-server/internal/domain"
)

// GameRepo persists whole game states as JSON blobs, one row per game.
// Saves race against each other only per game, and the session already
// serializes those, so a plain upsert is enough.
type GameRepo struct {
	DB *sql.DB
}

func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{DB: db}
}

func (r *GameRepo) Save(ctx context.Context, g *domain.Game) error {
	state, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to serialize game %s: %w", g.ID, err)
	}

	// The WHERE clause makes the upsert monotonic in updated_at, so a
	// delayed save of an older state never clobbers a newer row.
	query := `
	INSERT INTO games (game_id, status, mode, state, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (game_id) DO UPDATE SET
		status = EXCLUDED.status,
		mode = EXCLUDED.mode,
		state = EXCLUDED.state,
		updated_at = EXCLUDED.updated_at
	WHERE games.updated_at <= EXCLUDED.updated_at;
	`

	if _, err := r.DB.ExecContext(ctx, query, g.ID, string(g.Status), string(g.Mode), state, g.CreatedAt, g.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert game %s: %w", g.ID, err)
	}
	return nil
}

func (r *GameRepo) Load(ctx context.Context, gameID string) (*domain.Game, error) {
	var state []byte
	err := r.DB.QueryRowContext(ctx, `SELECT state FROM games WHERE game_id = $1`, gameID).Scan(&state)
	if err == sql.ErrNoRows {
		return nil, domain.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game %s: %w", gameID, err)
	}

	var g domain.Game
	if err := json.Unmarshal(state, &g); err != nil {
		return nil, fmt.Errorf("failed to deserialize game %s: %w", gameID, err)
	}
	return &g, nil
}

// PruneFinished deletes finished games older than the retention window.
func (r *GameRepo) PruneFinished(ctx context.Context, olderThan time.Duration) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM games WHERE status = $1 AND updated_at < $2`,
		string(domain.StatusFinished), time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to prune finished games: %w", err)
	}
	return res.RowsAffected()
}
