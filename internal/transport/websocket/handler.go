package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/iamasit07/connect4-engine/internal/domain"
	"github.com/iamasit07/connect4-engine/internal/service/game"
	"github.com/iamasit07/connect4-engine/pkg/auth"
	"github.com/iamasit07/connect4-engine/pkg/uid"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
)

// Handler plays human-vs-computer games over a WebSocket, one game per
// connection at a time.
type Handler struct {
	ConnManager    *ConnectionManager
	SessionManager *game.SessionManager
	RequireAuth    bool
	Upgrader       websocket.Upgrader
	logger         zerolog.Logger
}

func NewHandler(cm *ConnectionManager, sm *game.SessionManager, requireAuth bool, allowedOrigins []string, logger zerolog.Logger) *Handler {
	return &Handler{
		ConnManager:    cm,
		SessionManager: sm,
		RequireAuth:    requireAuth,
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.With().Str("component", "ws").Logger(),
	}
}

// HandleWebSocket upgrades the request and serves the connection until the
// client goes away.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("upgrade error")
		return
	}
	h.handleConnection(conn)
}

func (h *Handler) handleConnection(conn *websocket.Conn) {
	connID := uid.GenerateConnectionID()
	logger := h.logger.With().Str("conn_id", connID).Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.ConnManager.AddConnection(connID, conn)
	defer func() {
		if gameID, ok := h.ConnManager.RemoveConnection(connID); ok {
			_ = h.SessionManager.RemoveSession(gameID)
		}
		logger.Debug().Msg("connection closed")
	}()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	go h.keepAlive(ctx, connID)

	if h.RequireAuth {
		if !h.authenticate(conn, connID, logger) {
			return
		}
	}
	h.ConnManager.SendMessage(connID, ServerMessage{Type: MsgReady})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug().Err(err).Msg("client disconnected unexpectedly")
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.sendError(connID, "invalid message format")
			continue
		}
		h.processMessage(ctx, connID, msg)
	}
}

// authenticate expects an init message carrying a valid token.
func (h *Handler) authenticate(conn *websocket.Conn, connID string, logger zerolog.Logger) bool {
	_, data, err := conn.ReadMessage()
	if err != nil {
		logger.Debug().Err(err).Msg("read error during init")
		return false
	}

	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != MsgInit || msg.JWT == "" {
		h.sendError(connID, "expected init message with token")
		return false
	}
	claims, err := auth.ValidateAccessToken(msg.JWT)
	if err != nil {
		logger.Info().Err(err).Msg("invalid token during init")
		h.sendError(connID, "invalid token")
		return false
	}
	logger.Info().Str("client", claims.ClientName).Msg("connection initialized")
	return true
}

func (h *Handler) keepAlive(ctx context.Context, connID string) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.ConnManager.Ping(connID); err != nil {
				return
			}
		}
	}
}

// processMessage routes client actions
func (h *Handler) processMessage(ctx context.Context, connID string, msg ClientMessage) {
	switch msg.Type {
	case MsgNewGame:
		rules, err := domain.RulesByName(msg.Rules)
		if err != nil {
			h.sendError(connID, err.Error())
			return
		}
		humanFirst := msg.HumanFirst == nil || *msg.HumanFirst

		if previous, ok := h.ConnManager.GameOf(connID); ok {
			_ = h.SessionManager.RemoveSession(previous)
		}
		st, err := h.SessionManager.CreateSession(ctx, rules, msg.Difficulty, humanFirst)
		if err != nil {
			h.sendError(connID, err.Error())
			return
		}
		h.ConnManager.SetGame(connID, st.GameID)
		h.sendState(connID, st)

	case MsgMove:
		gameID, ok := h.ConnManager.GameOf(connID)
		if !ok {
			h.sendError(connID, "no game in progress")
			return
		}
		st, err := h.SessionManager.HandleMove(ctx, gameID, msg.Column)
		if err != nil {
			h.sendError(connID, err.Error())
			return
		}
		h.sendState(connID, st)

	case MsgLeave:
		if gameID, ok := h.ConnManager.GameOf(connID); ok {
			_ = h.SessionManager.RemoveSession(gameID)
			h.ConnManager.ClearGame(connID)
		}
		h.ConnManager.SendMessage(connID, ServerMessage{Type: MsgReady})

	default:
		h.sendError(connID, "unknown message type")
	}
}

func (h *Handler) sendState(connID string, st game.State) {
	msgType := MsgState
	if st.Status != domain.StatusActive {
		msgType = MsgGameOver
	}
	h.ConnManager.SendMessage(connID, ServerMessage{Type: msgType, State: &st})
}

func (h *Handler) sendError(connID, message string) {
	h.ConnManager.SendMessage(connID, ServerMessage{Type: MsgError, Message: message})
}
