package websocket

import (
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// Hub tracks live connections and fans events out to them. Every method is
// non-blocking, so the room manager may call it while holding its locks.
type Hub struct {
	logger *slog.Logger

	mu          sync.RWMutex
	connections map[string]*Connection
	subscribers map[string]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:      logger.With("component", "hub"),
		connections: make(map[string]*Connection),
		subscribers: make(map[string]struct{}),
	}
}

func (that *Hub) register(conn *Connection) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.connections[conn.ID] = conn
}

func (that *Hub) unregister(conn *Connection) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.connections[conn.ID] == conn {
		delete(that.connections, conn.ID)
		delete(that.subscribers, conn.ID)
	}
}

// Notify queues event for every listed connection that is still live.
func (that *Hub) Notify(connIDs []string, event entity.Event) {
	data, err := encodeEvent(event)
	if err != nil {
		that.logger.Error("failed to encode event", "action", event.Action, "error", err)
		return
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	for _, id := range connIDs {
		if conn, ok := that.connections[id]; ok {
			conn.enqueue(data)
		}
	}
}

// SubscribeRoomList makes connID receive every later room-list push.
func (that *Hub) SubscribeRoomList(connID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.connections[connID]; ok {
		that.subscribers[connID] = struct{}{}
	}
}

func (that *Hub) NotifyRoomList(rooms []string) {
	data, err := encodeEvent(entity.NewRoomListEvent(rooms))
	if err != nil {
		that.logger.Error("failed to encode room list", "error", err)
		return
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	for id := range that.subscribers {
		if conn, ok := that.connections[id]; ok {
			conn.enqueue(data)
		}
	}
}

// Close disconnects every client.
func (that *Hub) Close() {
	that.mu.RLock()
	defer that.mu.RUnlock()

	for _, conn := range that.connections {
		conn.Close()
	}
}
