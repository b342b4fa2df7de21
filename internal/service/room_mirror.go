package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const (
	DefaultMirrorBuffer = 1024
	mirrorWriteTimeout  = 2 * time.Second
)

type roomRepo interface {
	CreateOrUpdate(ctx context.Context, room *entity.Room) error
	DeleteByID(ctx context.Context, id string) error
}

type mirrorOp struct {
	room     *entity.Room
	deleteID string
}

// RoomMirror copies room state into storage from a single goroutine, so writes
// for one room land in the order they were queued. Callers never block: when
// the queue is full the update is dropped.
type RoomMirror struct {
	logger *slog.Logger
	repo   roomRepo
	ops    chan mirrorOp
}

// NewRoomMirror returns a mirror writing to repo. A nil repo disables mirroring.
func NewRoomMirror(logger *slog.Logger, repo roomRepo, buffer int) *RoomMirror {
	if buffer <= 0 {
		buffer = DefaultMirrorBuffer
	}

	return &RoomMirror{
		logger: logger.With("component", "room_mirror"),
		repo:   repo,
		ops:    make(chan mirrorOp, buffer),
	}
}

func (that *RoomMirror) Enabled() bool {
	return that.repo != nil
}

func (that *RoomMirror) Save(room entity.Room) {
	that.enqueue(mirrorOp{room: &room})
}

func (that *RoomMirror) Delete(roomID string) {
	that.enqueue(mirrorOp{deleteID: roomID})
}

func (that *RoomMirror) enqueue(op mirrorOp) {
	if !that.Enabled() {
		return
	}

	select {
	case that.ops <- op:
	default:
		that.logger.Warn("mirror queue is full, dropping update")
	}
}

// Run applies queued updates until ctx is done, then drains what is left.
// Each write gets its own timeout so the last updates survive shutdown.
func (that *RoomMirror) Run(ctx context.Context) {
	if !that.Enabled() {
		return
	}

	for {
		select {
		case op := <-that.ops:
			that.apply(op)
		case <-ctx.Done():
			that.drain()
			return
		}
	}
}

func (that *RoomMirror) drain() {
	for {
		select {
		case op := <-that.ops:
			that.apply(op)
		default:
			return
		}
	}
}

func (that *RoomMirror) apply(op mirrorOp) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorWriteTimeout)
	defer cancel()

	if op.room != nil {
		if err := that.repo.CreateOrUpdate(ctx, op.room); err != nil {
			that.logger.Error("failed to save room", "roomID", op.room.ID, "error", err)
		}

		return
	}

	err := that.repo.DeleteByID(ctx, op.deleteID)
	if err != nil && !errors.Is(err, apperror.ErrRoomNotFound) {
		that.logger.Error("failed to delete room", "roomID", op.deleteID, "error", err)
	}
}
