package entity

import (
	"encoding/json"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

type Mark string

const (
	MarkNone Mark = ""
	PlayerX  Mark = "X"
	PlayerO  Mark = "O"
)

// Opponent returns the other mark; MarkNone has no opponent.
func (that Mark) Opponent() Mark {
	switch that {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return MarkNone
	}
}

func (that Mark) IsValid() bool {
	return that == PlayerX || that == PlayerO
}

type Result int

const (
	InProgress Result = iota
	Win
	Draw
)

func (that Result) String() string {
	switch that {
	case Win:
		return "win"
	case Draw:
		return "draw"
	default:
		return "in_progress"
	}
}

// Outcome is the verdict on a board. Winner is set only when Result is Win.
type Outcome struct {
	Result Result
	Winner Mark
}

const BoardSize = 9

var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Board is a 3x3 grid in row-major order.
type Board [BoardSize]Mark

// ApplyMove returns a copy of the board with cell set to mark.
func ApplyMove(board Board, cell int, mark Mark) (Board, error) {
	if !mark.IsValid() {
		return board, fmt.Errorf("%w: unknown mark %q", apperror.ErrIllegalMove, mark)
	}

	if cell < 0 || cell >= BoardSize {
		return board, fmt.Errorf("%w: %w: cell %d", apperror.ErrIllegalMove, apperror.ErrInvalidCell, cell)
	}

	if board[cell] != MarkNone {
		return board, fmt.Errorf("%w: %w: cell %d", apperror.ErrIllegalMove, apperror.ErrCellOccupied, cell)
	}

	board[cell] = mark

	return board, nil
}

// Evaluate reports a win, a draw or a game still in progress.
func Evaluate(board Board) Outcome {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != MarkNone && a == b && b == c {
			return Outcome{Result: Win, Winner: a}
		}
	}

	if board.IsFull() {
		return Outcome{Result: Draw}
	}

	return Outcome{Result: InProgress}
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == MarkNone {
			return false
		}
	}

	return true
}

func (that Board) Filled() int {
	var n int
	for _, cell := range that {
		if cell != MarkNone {
			n++
		}
	}

	return n
}

// MarshalJSON encodes empty cells as null.
func (that Board) MarshalJSON() ([]byte, error) {
	cells := make([]*string, BoardSize)
	for i, cell := range that {
		if cell == MarkNone {
			continue
		}

		value := string(cell)
		cells[i] = &value
	}

	return json.Marshal(cells)
}

// UnmarshalJSON accepts only null, "X" or "O" cells.
func (that *Board) UnmarshalJSON(data []byte) error {
	var cells []*string
	if err := json.Unmarshal(data, &cells); err != nil {
		return fmt.Errorf("failed to unmarshal board: %w", err)
	}

	if len(cells) != BoardSize {
		return fmt.Errorf("%w: board has %d cells", apperror.ErrInvalidCell, len(cells))
	}

	var board Board
	for i, cell := range cells {
		if cell == nil {
			continue
		}

		mark := Mark(*cell)
		if !mark.IsValid() {
			return fmt.Errorf("%w: cell %d holds %q", apperror.ErrInvalidCell, i, *cell)
		}

		board[i] = mark
	}

	*that = board

	return nil
}
