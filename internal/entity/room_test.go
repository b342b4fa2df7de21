package entity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

func activeRoom(t *testing.T) *Room {
	t.Helper()

	room := NewRoom("r1", "a")
	require.NoError(t, room.Join("b"))

	return room
}

func TestValidateRoomID(t *testing.T) {
	assert.NoError(t, ValidateRoomID("r1"))
	assert.NoError(t, ValidateRoomID(strings.Repeat("x", MaxRoomIDLen)))
	assert.ErrorIs(t, ValidateRoomID(""), apperror.ErrInvalidRoomID)
	assert.ErrorIs(t, ValidateRoomID(strings.Repeat("x", MaxRoomIDLen+1)), apperror.ErrInvalidRoomID)
}

func TestRoom_Join(t *testing.T) {
	t.Run("Second player starts the match with X to move", func(t *testing.T) {
		// Given: a waiting room
		room := NewRoom("r1", "a")
		assert.True(t, room.IsOpen())

		// When: another connection joins
		err := room.Join("b")

		// Then: the room is active and closed for joining
		require.NoError(t, err)
		assert.True(t, room.IsActive())
		assert.False(t, room.IsOpen())
		assert.Equal(t, PlayerX, room.Turn)
		assert.Equal(t, []string{"a", "b"}, room.Players)
	})

	t.Run("Third player is rejected and nothing changes", func(t *testing.T) {
		// Given: a full room
		room := activeRoom(t)

		// When: a third connection joins
		err := room.Join("c")

		// Then: the room is full and keeps two players
		require.ErrorIs(t, err, apperror.ErrRoomFull)
		assert.Equal(t, []string{"a", "b"}, room.Players)
		assert.True(t, room.IsActive())
	})

	t.Run("Creator cannot join twice", func(t *testing.T) {
		room := NewRoom("r1", "a")

		err := room.Join("a")

		require.ErrorIs(t, err, apperror.ErrAlreadyInRoom)
		assert.Len(t, room.Players, 1)
	})

	t.Run("Finished room cannot be joined", func(t *testing.T) {
		room := NewRoom("r1", "a")
		room.Finish(WinnerOpponent, ReasonDisconnect)

		err := room.Join("b")

		require.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})
}

func TestRoom_MarkOf(t *testing.T) {
	room := activeRoom(t)

	mark, err := room.MarkOf("a")
	require.NoError(t, err)
	assert.Equal(t, PlayerX, mark)

	mark, err = room.MarkOf("b")
	require.NoError(t, err)
	assert.Equal(t, PlayerO, mark)

	_, err = room.MarkOf("c")
	require.ErrorIs(t, err, apperror.ErrNotAPlayer)
}

func TestRoom_MakeMove(t *testing.T) {
	t.Run("Accepted move commits the board and flips the turn", func(t *testing.T) {
		// Given: an active room
		room := activeRoom(t)

		// When: X plays cell 0
		outcome, err := room.MakeMove("a", 0)

		// Then: the cell is set and O moves next
		require.NoError(t, err)
		assert.Equal(t, InProgress, outcome.Result)
		assert.Equal(t, PlayerX, room.Board[0])
		assert.Equal(t, PlayerO, room.Turn)
	})

	t.Run("Out of turn move changes nothing", func(t *testing.T) {
		// Given: an active room where X is to move
		room := activeRoom(t)

		// When: O tries to move
		_, err := room.MakeMove("b", 4)

		// Then: the move is refused and the board is empty
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Equal(t, 0, room.Board.Filled())
		assert.Equal(t, PlayerX, room.Turn)
	})

	t.Run("Occupied cell changes nothing", func(t *testing.T) {
		// Given: X has taken cell 0
		room := activeRoom(t)
		_, err := room.MakeMove("a", 0)
		require.NoError(t, err)

		// When: O plays cell 0 again
		_, err = room.MakeMove("b", 0)

		// Then: the move is illegal and it is still O's turn
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, PlayerX, room.Board[0])
		assert.Equal(t, 1, room.Board.Filled())
		assert.Equal(t, PlayerO, room.Turn)
	})

	t.Run("Move from a stranger is refused", func(t *testing.T) {
		room := activeRoom(t)

		_, err := room.MakeMove("c", 0)

		require.ErrorIs(t, err, apperror.ErrNotAPlayer)
	})

	t.Run("Move in a waiting room is refused", func(t *testing.T) {
		room := NewRoom("r1", "a")

		_, err := room.MakeMove("a", 0)

		require.ErrorIs(t, err, apperror.ErrGameIsNotActive)
	})

	t.Run("Winning line finishes the room", func(t *testing.T) {
		// Given: X holds 0 and 1, O holds 3 and 4
		room := activeRoom(t)
		for _, move := range []struct {
			conn string
			cell int
		}{{"a", 0}, {"b", 3}, {"a", 1}, {"b", 4}} {
			_, err := room.MakeMove(move.conn, move.cell)
			require.NoError(t, err)
		}

		// When: X completes the top row
		outcome, err := room.MakeMove("a", 2)

		// Then: X wins and the room is finished with no turn
		require.NoError(t, err)
		assert.Equal(t, Outcome{Result: Win, Winner: PlayerX}, outcome)
		assert.True(t, room.IsFinished())
		assert.Equal(t, "X", room.Winner)
		assert.Equal(t, ReasonWin, room.Reason)
		assert.Equal(t, MarkNone, room.Turn)

		// And: no more moves are accepted
		_, err = room.MakeMove("b", 8)
		require.ErrorIs(t, err, apperror.ErrGameIsNotActive)
	})

	t.Run("Full board without a line is a draw", func(t *testing.T) {
		// Given: a sequence that fills the board as XOXXOOOXX
		room := activeRoom(t)
		cells := []int{0, 1, 2, 4, 3, 5, 7, 6}
		for i, cell := range cells {
			conn := "a"
			if i%2 == 1 {
				conn = "b"
			}

			_, err := room.MakeMove(conn, cell)
			require.NoError(t, err)
		}

		// When: X fills the last cell
		outcome, err := room.MakeMove("a", 8)

		// Then: the game is drawn
		require.NoError(t, err)
		assert.Equal(t, Draw, outcome.Result)
		assert.Equal(t, WinnerDraw, room.Winner)
		assert.Equal(t, ReasonDraw, room.Reason)
	})
}

func TestRoom_Finish(t *testing.T) {
	// Given: an active room
	room := activeRoom(t)

	// When: it is finished twice
	first := room.Finish(WinnerOpponent, ReasonTimeout)
	second := room.Finish("X", ReasonWin)

	// Then: the first verdict sticks
	assert.True(t, first)
	assert.False(t, second)
	assert.Equal(t, WinnerOpponent, room.Winner)
	assert.Equal(t, ReasonTimeout, room.Reason)
}

func TestRoom_Snapshot(t *testing.T) {
	// Given: an active room and a snapshot of it
	room := activeRoom(t)
	snapshot := room.Snapshot()

	// When: the room changes afterwards
	room.RemovePlayer("b")
	_, _ = room.MakeMove("a", 0)

	// Then: the snapshot keeps the old state
	assert.Equal(t, []string{"a", "b"}, snapshot.Players)
	assert.Equal(t, 0, snapshot.Board.Filled())
	assert.Equal(t, []string{"a"}, room.Players)
}
