package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"side-stacker-server/internal/domain"
	"side-stacker-server/internal/service/game"
	"side-stacker-server/pkg/auth"
)

// GameHandler exposes game creation, lookup, and joining over REST. The
// websocket transport covers the in-game traffic; these endpoints exist
// so a client can set up a game before opening its socket.
type GameHandler struct {
	Manager *game.SessionManager
	Cache   game.SnapshotCache
	Tokens  *auth.TokenManager
}

func NewGameHandler(manager *game.SessionManager, cache game.SnapshotCache, tokens *auth.TokenManager) *GameHandler {
	return &GameHandler{Manager: manager, Cache: cache, Tokens: tokens}
}

type createGameRequest struct {
	Mode        string `json:"mode"`
	Difficulty  string `json:"difficulty"`
	Player1Name string `json:"player1_name"`
}

type joinGameRequest struct {
	PlayerName string `json:"player_name" binding:"required"`
}

// CreateGame handles POST /api/games.
func (h *GameHandler) CreateGame(c *gin.Context) {
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": err.Error()})
		return
	}

	mode := domain.GameMode(req.Mode)
	if mode != domain.ModePvP && mode != domain.ModePvA {
		mode = domain.ModePvP
	}
	difficulty := domain.Difficulty(req.Difficulty)
	if !difficulty.Valid() {
		difficulty = domain.DifficultyEasy
	}
	creatorName := req.Player1Name
	if creatorName == "" {
		creatorName = "Player 1"
	}

	session, snap, err := h.Manager.CreateGame(c.Request.Context(), mode, difficulty, creatorName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": domain.Code(err), "error": "failed to create game"})
		return
	}

	token, err := h.Tokens.Issue(session.ID(), 1, creatorName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "internal_error", "error": "failed to issue claim token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"game_id":     session.ID(),
		"game_data":   snap,
		"slot":        1,
		"claim_token": token,
	})
}

// GetGame handles GET /api/games/:id. Reads prefer the live session, then
// the snapshot cache, then storage.
func (h *GameHandler) GetGame(c *gin.Context) {
	gameID := c.Param("id")

	if h.Cache != nil {
		if snap, ok := h.Cache.GetSnapshot(c.Request.Context(), gameID); ok {
			c.JSON(http.StatusOK, snap)
			return
		}
	}

	session, err := h.Manager.GetSession(c.Request.Context(), gameID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	snap, err := session.Snapshot(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// JoinGame handles POST /api/games/:id/join, claiming slot 2 (or
// re-claiming a prior slot by name).
func (h *GameHandler) JoinGame(c *gin.Context) {
	var req joinGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "error": err.Error()})
		return
	}

	session, err := h.Manager.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	slot, snap, err := session.ClaimSlot(c.Request.Context(), req.PlayerName, domain.RoleJoiner)
	if err != nil {
		h.writeError(c, err)
		return
	}

	token, err := h.Tokens.Issue(session.ID(), slot, req.PlayerName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"code": "internal_error", "error": "failed to issue claim token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"slot":        slot,
		"game_data":   snap,
		"claim_token": token,
	})
}

func (h *GameHandler) writeError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, domain.ErrGameNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrSlotAlreadyClaimed), errors.Is(err, domain.ErrSlotClaimRejected):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrConcurrencyTimeout):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"code": domain.Code(err), "error": err.Error()})
}
