package cleanup

import (
	"context"
	"log"
	"time"

	"side-stacker-server/internal/repository/postgres"
	"side-stacker-server/internal/service/game"
)

const retention = 30 * 24 * time.Hour

// Worker periodically evicts stale sessions from memory and prunes old
// finished games from the database.
type Worker struct {
	SessionManager *game.SessionManager
	GameRepo       *postgres.GameRepo
}

func NewWorker(sm *game.SessionManager, gr *postgres.GameRepo) *Worker {
	return &Worker{SessionManager: sm, GameRepo: gr}
}

// Start runs one cleanup immediately, then hourly.
func (w *Worker) Start() {
	go w.runCleanup()

	ticker := time.NewTicker(1 * time.Hour)
	go func() {
		for range ticker.C {
			w.runCleanup()
		}
	}()
	log.Println("[CLEANUP] Background worker started")
}

func (w *Worker) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	w.SessionManager.CleanupStale(ctx)

	deleted, err := w.GameRepo.PruneFinished(ctx, retention)
	if err != nil {
		log.Printf("[CLEANUP] Error pruning finished games: %v", err)
	} else if deleted > 0 {
		log.Printf("[CLEANUP] Removed %d old finished games from database", deleted)
	}
}
