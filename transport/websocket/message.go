package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// Inbound actions.
const (
	actionRequestRoomList = "request-room-list"
	actionCreateRoom      = "create-room"
	actionJoinRoom        = "join-room"
	actionMakeMove        = "make-move"
	actionChatMessage     = "chat-message"
	actionLeaveRoom       = "leave-room"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type RoomRequest struct {
	Room string `json:"room"`
}

// MoveRequest carries a pointer so a missing cell is told apart from cell 0.
type MoveRequest struct {
	Cell *int `json:"cell"`
}

type ChatRequest struct {
	Text string `json:"text"`
}

func encodeEvent(event entity.Event) ([]byte, error) {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	data, err := json.Marshal(Message{
		Action:  event.Action,
		Payload: payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	return data, nil
}

func decodePayload(message *Message, target any) error {
	if len(message.Payload) == 0 {
		return fmt.Errorf("%s: %w", message.Action, errEmptyPayload)
	}

	if err := json.Unmarshal(message.Payload, target); err != nil {
		return fmt.Errorf("failed to unmarshal %s payload: %w", message.Action, err)
	}

	return nil
}
