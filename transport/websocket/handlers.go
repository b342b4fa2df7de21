package websocket

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

var errEmptyPayload = errors.New("payload is required")

func (that *Server) handleRequestRoomList(conn *Connection, _ *Message) error {
	that.rooms.RequestRoomList(conn.ID)
	return nil
}

func (that *Server) handleCreateRoom(conn *Connection, msg *Message) error {
	var req RoomRequest
	if err := decodePayload(msg, &req); err != nil {
		return err
	}

	if _, err := that.rooms.CreateRoom(req.Room, conn.ID); err != nil {
		return that.reject(conn, err)
	}

	return nil
}

func (that *Server) handleJoinRoom(conn *Connection, msg *Message) error {
	var req RoomRequest
	if err := decodePayload(msg, &req); err != nil {
		return err
	}

	if _, err := that.rooms.JoinRoom(req.Room, conn.ID); err != nil {
		return that.reject(conn, err)
	}

	return nil
}

// handleMakeMove - protocol violations are dropped without telling anyone.
func (that *Server) handleMakeMove(conn *Connection, msg *Message) error {
	if _, ok := that.rooms.RoomOf(conn.ID); !ok {
		return apperror.ErrNotInRoom
	}

	var req MoveRequest
	if err := decodePayload(msg, &req); err != nil {
		return err
	}

	if req.Cell == nil {
		return fmt.Errorf("%w: cell is required", apperror.ErrInvalidCell)
	}

	return that.rooms.MakeMove(conn.ID, *req.Cell)
}

func (that *Server) handleChatMessage(conn *Connection, msg *Message) error {
	if _, ok := that.rooms.RoomOf(conn.ID); !ok {
		return apperror.ErrNotInRoom
	}

	var req ChatRequest
	if err := decodePayload(msg, &req); err != nil {
		return err
	}

	return that.rooms.SendChat(conn.ID, req.Text)
}

func (that *Server) handleLeaveRoom(conn *Connection, _ *Message) error {
	that.rooms.Leave(conn.ID)
	return nil
}

// reject tells the requester why a create or join failed. Errors outside the
// user-facing set are only logged.
func (that *Server) reject(conn *Connection, err error) error {
	text, ok := rejectionText(err)
	if !ok {
		return err
	}

	that.hub.Notify([]string{conn.ID}, entity.NewSystemMessage(text))

	return nil
}

func rejectionText(err error) (string, bool) {
	switch {
	case errors.Is(err, apperror.ErrRoomAlreadyExists):
		return "A room with this name already exists", true
	case errors.Is(err, apperror.ErrRoomNotFound):
		return "Room not found", true
	case errors.Is(err, apperror.ErrRoomFull):
		return "Room is full", true
	case errors.Is(err, apperror.ErrAlreadyInRoom):
		return "You are already in a room", true
	case errors.Is(err, apperror.ErrInvalidRoomID):
		return fmt.Sprintf("Room name must be 1 to %d characters", entity.MaxRoomIDLen), true
	default:
		return "", false
	}
}
