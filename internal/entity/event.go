package entity

// Outbound actions.
const (
	ActionConnected   = "connected"
	ActionRoomList    = "room-list"
	ActionRoomCreated = "room-created"
	ActionInit        = "init"
	ActionStartGame   = "start-game"
	ActionUpdateGame  = "update-game"
	ActionGameOver    = "game-over"
	ActionMessage     = "message"
)

// Event is one server-to-client notification.
type Event struct {
	Action  string
	Payload any
}

type ConnectedPayload struct {
	ID string `json:"id"`
}

type RoomListPayload struct {
	Rooms []string `json:"rooms"`
}

type RoomCreatedPayload struct {
	Room   string `json:"room"`
	Status Status `json:"status"`
}

type InitPayload struct {
	Symbol       Mark `json:"symbol"`
	StartingTurn bool `json:"startingTurn"`
}

type GamePayload struct {
	Board Board `json:"board"`
	Turn  Mark  `json:"turn"`
}

type GameOverPayload struct {
	Winner string `json:"winner"`
	Reason string `json:"reason"`
}

type MessagePayload struct {
	Text   string `json:"text"`
	System bool   `json:"system,omitempty"`
}

func NewGameEvent(action string, room *Room) Event {
	return Event{
		Action:  action,
		Payload: GamePayload{Board: room.Board, Turn: room.Turn},
	}
}

func NewRoomListEvent(rooms []string) Event {
	return Event{
		Action:  ActionRoomList,
		Payload: RoomListPayload{Rooms: rooms},
	}
}

func NewGameOverEvent(room *Room) Event {
	return Event{
		Action:  ActionGameOver,
		Payload: GameOverPayload{Winner: room.Winner, Reason: room.Reason},
	}
}

func NewSystemMessage(text string) Event {
	return Event{
		Action:  ActionMessage,
		Payload: MessagePayload{Text: text, System: true},
	}
}
