package websocket

import (
	"github.com/iamasit07/connect4-engine/internal/domain"
	"github.com/iamasit07/connect4-engine/internal/service/game"
)

// ClientMessage is anything a client sends. Type selects the fields used.
type ClientMessage struct {
	Type       string            `json:"type"`
	JWT        string            `json:"jwt,omitempty"`
	Rules      string            `json:"rules,omitempty"`
	Difficulty domain.Difficulty `json:"difficulty,omitempty"`
	HumanFirst *bool             `json:"human_first,omitempty"`
	Column     int               `json:"column"`
}

type ServerMessage struct {
	Type    string      `json:"type"`
	Message string      `json:"message,omitempty"`
	State   *game.State `json:"state,omitempty"`
}

const (
	MsgInit    = "init"
	MsgNewGame = "new_game"
	MsgMove    = "move"
	MsgLeave   = "leave"

	MsgReady    = "ready"
	MsgState    = "state"
	MsgGameOver = "game_over"
	MsgError    = "error"
)
