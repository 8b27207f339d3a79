package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"side-stacker-server/internal/domain"
	"side-stacker-server/internal/service/game"
	"side-stacker-server/pkg/auth"
)

type clientMessage struct {
	Action     string `json:"action"`
	PlayerName string `json:"player_name"`
	Role       string `json:"role"`
	ClaimToken string `json:"claim_token"`
	Row        int    `json:"row"`
	Side       string `json:"side"`
}

// Handler upgrades inbound connections and translates socket messages
// into session operations. The session layer does all the real work; this
// is a thin adapter.
type Handler struct {
	Hub      *Hub
	Manager  *game.SessionManager
	Tokens   *auth.TokenManager
	Upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, manager *game.SessionManager, tokens *auth.TokenManager) *Handler {
	return &Handler{
		Hub:     hub,
		Manager: manager,
		Tokens:  tokens,
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Serve handles GET /ws/:id.
func (h *Handler) Serve(c *gin.Context) {
	gameID := c.Param("id")

	session, err := h.Manager.GetSession(c.Request.Context(), gameID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": domain.Code(err), "error": err.Error()})
		return
	}

	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	h.handleConnection(conn, session)
}

func (h *Handler) handleConnection(conn *websocket.Conn, session *game.GameSession) {
	cl := &client{conn: conn, gameID: session.ID()}
	h.Hub.join(cl)

	defer func() {
		h.Hub.leave(cl)
		conn.Close()
		log.Printf("[WS] Connection closed for game %s (player %q)", cl.gameID, cl.name)
	}()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cl.writeMu.Lock()
				err := conn.WriteMessage(websocket.PingMessage, nil)
				cl.writeMu.Unlock()
				if err != nil {
					return
				}
			case <-stop:
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			cl.send(serverMessage{Type: game.EventError, Code: "bad_request", Message: "invalid JSON payload"})
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		switch msg.Action {
		case "claim_slot":
			h.handleClaim(ctx, cl, session, msg)
		case "submit_move":
			h.handleMove(ctx, cl, session, msg)
		case "get_snapshot":
			h.handleSnapshot(ctx, cl, session)
		default:
			cl.send(serverMessage{Type: game.EventError, Code: "bad_request", Message: "unknown action"})
		}
		cancel()
	}
}

func (h *Handler) handleClaim(ctx context.Context, cl *client, session *game.GameSession, msg clientMessage) {
	name := msg.PlayerName
	role := domain.SlotRole(msg.Role)
	if role != domain.RoleCreator && role != domain.RoleJoiner {
		role = domain.RoleJoiner
	}

	// A valid claim token short-circuits name matching: the bearer gets
	// back whatever slot it proves, no matter what name came along.
	if msg.ClaimToken != "" {
		if claims, err := h.Tokens.Parse(msg.ClaimToken); err == nil && claims.GameID == session.ID() {
			name = claims.Name
			if claims.Slot == 1 {
				role = domain.RoleCreator
			} else {
				role = domain.RoleJoiner
			}
		}
	}

	if name == "" {
		cl.send(serverMessage{Type: game.EventError, Code: "bad_request", Message: "player_name is required"})
		return
	}

	slot, snap, err := session.ClaimSlot(ctx, name, role)
	if err != nil {
		h.sendError(cl, err)
		return
	}

	cl.name = name
	cl.slot = slot

	token, err := h.Tokens.Issue(session.ID(), slot, name)
	if err != nil {
		log.Printf("[WS] Game %s: failed to issue claim token: %v", session.ID(), err)
	}

	cl.send(serverMessage{Type: game.EventPlayerAssignment, PlayerNumber: slot, ClaimToken: token})
	cl.send(serverMessage{Type: game.EventGameUpdate, GameData: &snap})
}

func (h *Handler) handleMove(ctx context.Context, cl *client, session *game.GameSession, msg clientMessage) {
	if cl.slot == 0 {
		cl.send(serverMessage{Type: game.EventError, Code: "slot_claim_rejected", Message: "claim a slot before moving"})
		return
	}

	_, err := session.SubmitMove(ctx, cl.name, domain.PlayerID(cl.slot), msg.Row, domain.Side(msg.Side))
	if err != nil {
		h.sendError(cl, err)
	}
	// The session broadcasts the new snapshot to the whole room,
	// this socket included; nothing more to send here.
}

func (h *Handler) handleSnapshot(ctx context.Context, cl *client, session *game.GameSession) {
	snap, err := session.Snapshot(ctx)
	if err != nil {
		h.sendError(cl, err)
		return
	}
	cl.send(serverMessage{Type: game.EventGameUpdate, GameData: &snap})
}

func (h *Handler) sendError(cl *client, err error) {
	msg := serverMessage{Type: game.EventError, Code: domain.Code(err), Message: err.Error()}
	if sendErr := cl.send(msg); sendErr != nil && !errors.Is(sendErr, websocket.ErrCloseSent) {
		log.Printf("[WS] Game %s: error delivery failed: %v", cl.gameID, sendErr)
	}
}
