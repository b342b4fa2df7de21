package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const DefaultSendBuffer = 64

type roomService interface {
	CreateRoom(roomID, conn string) (entity.Room, error)
	JoinRoom(roomID, conn string) (entity.Room, error)
	MakeMove(conn string, cell int) error
	SendChat(conn, text string) error
	Leave(conn string)
	RequestRoomList(conn string)
	RoomOf(conn string) (string, bool)
}

type Server struct {
	logger     *slog.Logger
	hub        *Hub
	rooms      roomService
	upgrader   ws.Upgrader
	sendBuffer int
	srv        *http.Server

	handlers map[string]func(conn *Connection, message *Message) error
}

func New(logger *slog.Logger, hub *Hub, rooms roomService, port string, sendBuffer int) *Server {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}

	server := &Server{
		logger:     logger.With("component", "websocket"),
		hub:        hub,
		rooms:      rooms,
		sendBuffer: sendBuffer,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},

		handlers: make(map[string]func(*Connection, *Message) error),
	}

	server.srv = &http.Server{
		Addr:         ":" + port,
		Handler:      server.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	server.handlers[actionRequestRoomList] = server.handleRequestRoomList
	server.handlers[actionCreateRoom] = server.handleCreateRoom
	server.handlers[actionJoinRoom] = server.handleJoinRoom
	server.handlers[actionMakeMove] = server.handleMakeMove
	server.handlers[actionChatMessage] = server.handleChatMessage
	server.handlers[actionLeaveRoom] = server.handleLeaveRoom

	return server
}

func (that *Server) Handler() http.Handler {
	router := httprouter.New()
	router.GET("/ws", that.upgradeToWebSocket)

	return router
}

// Start - starts WebSocket server. It returns nil after Shutdown.
func (that *Server) Start() error {
	that.logger.Info("Starting WebSocket server", "addr", that.srv.Addr)

	if err := that.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown stops accepting upgrades and disconnects every client.
func (that *Server) Shutdown(ctx context.Context) error {
	err := that.srv.Shutdown(ctx)
	that.hub.Close()

	if err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket and serves it until it closes.
func (that *Server) upgradeToWebSocket(writer http.ResponseWriter, req *http.Request, _ httprouter.Params) {
	log := that.logger.With("method", "upgradeToWebSocket")

	socket, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	conn := newConnection(that.logger, uuid.NewString(), socket, that.sendBuffer)
	that.hub.register(conn)

	go conn.writePump()

	that.hub.Notify([]string{conn.ID}, entity.Event{
		Action:  entity.ActionConnected,
		Payload: entity.ConnectedPayload{ID: conn.ID},
	})

	log.Info("WebSocket connection established", "conn", conn.ID)

	conn.readPump(func(data []byte) {
		that.handleMessage(conn, data)
	})

	that.handleDisconnect(conn)
}

// handleMessage - decodes one frame and dispatches it. Nothing a client sends may escape as a panic.
func (that *Server) handleMessage(conn *Connection, data []byte) {
	log := that.logger.With("method", "handleMessage", "conn", conn.ID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("recovered from panic in handler", "panic", r)
		}
	}()

	var message Message
	if err := json.Unmarshal(data, &message); err != nil {
		log.Warn("failed to unmarshal message", "error", err)
		return
	}

	handler, ok := that.handlers[message.Action]
	if !ok {
		log.Warn("unknown action", "action", message.Action)
		return
	}

	if err := handler(conn, &message); err != nil {
		log.Debug("message discarded", "action", message.Action, "error", err)
	}
}

func (that *Server) handleDisconnect(conn *Connection) {
	that.hub.unregister(conn)
	conn.Close()

	that.rooms.Leave(conn.ID)

	that.logger.Info("player disconnected", "conn", conn.ID)
}
