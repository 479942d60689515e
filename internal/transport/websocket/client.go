package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ConnectionManager tracks open sockets and the game each one is playing.
type ConnectionManager struct {
	connections map[string]*websocket.Conn
	games       map[string]string // connID → gameID

	// gorilla connections allow one concurrent writer only
	writeMu map[string]*sync.Mutex

	mu sync.RWMutex
}

func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*websocket.Conn),
		games:       make(map[string]string),
		writeMu:     make(map[string]*sync.Mutex),
	}
}

func (cm *ConnectionManager) AddConnection(connID string, conn *websocket.Conn) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.connections[connID] = conn
	cm.writeMu[connID] = &sync.Mutex{}
}

// RemoveConnection closes the socket and returns the game it was playing,
// if any.
func (cm *ConnectionManager) RemoveConnection(connID string) (string, bool) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if conn, exists := cm.connections[connID]; exists {
		conn.Close()
	}
	gameID, playing := cm.games[connID]
	delete(cm.connections, connID)
	delete(cm.writeMu, connID)
	delete(cm.games, connID)
	return gameID, playing
}

func (cm *ConnectionManager) SetGame(connID, gameID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.games[connID] = gameID
}

func (cm *ConnectionManager) ClearGame(connID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	delete(cm.games, connID)
}

func (cm *ConnectionManager) GameOf(connID string) (string, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	gameID, ok := cm.games[connID]
	return gameID, ok
}

func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// SendMessage writes a JSON message to one connection. Unknown connections
// are ignored.
func (cm *ConnectionManager) SendMessage(connID string, message ServerMessage) error {
	cm.mu.RLock()
	conn, exists := cm.connections[connID]
	mu, muExists := cm.writeMu[connID]
	cm.mu.RUnlock()

	if !exists || !muExists {
		return nil
	}

	mu.Lock()
	defer mu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(message)
}

// Ping sends a keep-alive ping under the connection's write lock.
func (cm *ConnectionManager) Ping(connID string) error {
	cm.mu.RLock()
	conn, exists := cm.connections[connID]
	mu, muExists := cm.writeMu[connID]
	cm.mu.RUnlock()

	if !exists || !muExists {
		return websocket.ErrCloseSent
	}

	mu.Lock()
	defer mu.Unlock()
	return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second))
}
