package entity

import (
	"fmt"
	"slices"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

const (
	WinnerDraw     = "Draw"
	WinnerOpponent = "Opponent"
)

const (
	ReasonWin        = "win"
	ReasonDraw       = "draw"
	ReasonTimeout    = "timeout"
	ReasonDisconnect = "disconnect"
	ReasonRemoved    = "removed"
)

const (
	MaxPlayers   = 2
	MaxRoomIDLen = 64
)

// Room is the authoritative state of one match. Players holds connection ids
// in join order: the first plays X, the second O.
type Room struct {
	ID      string   `json:"id"`
	Players []string `json:"players"`
	Board   Board    `json:"board"`
	Turn    Mark     `json:"turn,omitempty"`
	Status  Status   `json:"status"`
	Winner  string   `json:"winner,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

func NewRoom(id, creator string) *Room {
	return &Room{
		ID:      id,
		Players: []string{creator},
		Status:  StatusWaiting,
		Turn:    MarkNone,
	}
}

func ValidateRoomID(id string) error {
	if id == "" || len(id) > MaxRoomIDLen {
		return fmt.Errorf("%w: %q", apperror.ErrInvalidRoomID, id)
	}

	return nil
}

func (that *Room) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Room) IsActive() bool {
	return that.Status == StatusActive
}

func (that *Room) IsFinished() bool {
	return that.Status == StatusFinished
}

// IsOpen reports whether the room can still be joined.
func (that *Room) IsOpen() bool {
	return that.IsWaiting() && len(that.Players) < MaxPlayers
}

// Join seats the second player and starts the match with X to move.
func (that *Room) Join(conn string) error {
	if that.IsFinished() {
		return fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, that.ID)
	}

	if len(that.Players) >= MaxPlayers {
		return fmt.Errorf("%w: %s", apperror.ErrRoomFull, that.ID)
	}

	if slices.Contains(that.Players, conn) {
		return fmt.Errorf("%w: %s", apperror.ErrAlreadyInRoom, that.ID)
	}

	that.Players = append(that.Players, conn)

	if len(that.Players) == MaxPlayers {
		that.Status = StatusActive
		that.Turn = PlayerX
	}

	return nil
}

func (that *Room) MarkOf(conn string) (Mark, error) {
	switch slices.Index(that.Players, conn) {
	case 0:
		return PlayerX, nil
	case 1:
		return PlayerO, nil
	default:
		return MarkNone, apperror.ErrNotAPlayer
	}
}

// MakeMove validates and commits a move. Nothing changes when an error is returned.
func (that *Room) MakeMove(conn string, cell int) (Outcome, error) {
	if !that.IsActive() {
		return Outcome{}, apperror.ErrGameIsNotActive
	}

	mark, err := that.MarkOf(conn)
	if err != nil {
		return Outcome{}, err
	}

	if mark != that.Turn {
		return Outcome{}, fmt.Errorf("%w: %s to move", apperror.ErrNotYourTurn, that.Turn)
	}

	board, err := ApplyMove(that.Board, cell, mark)
	if err != nil {
		return Outcome{}, err
	}

	that.Board = board
	that.Turn = mark.Opponent()

	outcome := Evaluate(that.Board)
	switch outcome.Result {
	case Win:
		that.Finish(string(outcome.Winner), ReasonWin)
	case Draw:
		that.Finish(WinnerDraw, ReasonDraw)
	default:
		// game continues
	}

	return outcome, nil
}

// Finish moves the room to its terminal state. Finishing twice keeps the first verdict.
func (that *Room) Finish(winner, reason string) bool {
	if that.IsFinished() {
		return false
	}

	that.Status = StatusFinished
	that.Winner = winner
	that.Reason = reason
	that.Turn = MarkNone

	return true
}

func (that *Room) RemovePlayer(conn string) bool {
	idx := slices.Index(that.Players, conn)
	if idx < 0 {
		return false
	}

	that.Players = slices.Delete(that.Players, idx, idx+1)

	return true
}

// Snapshot returns a deep copy safe to hand to another goroutine.
func (that *Room) Snapshot() Room {
	snapshot := *that
	snapshot.Players = slices.Clone(that.Players)

	return snapshot
}
