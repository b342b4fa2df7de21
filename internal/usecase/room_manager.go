package usecase

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

type notifier interface {
	Notify(connIDs []string, event entity.Event)
	NotifyRoomList(rooms []string)
	SubscribeRoomList(connID string)
}

type roomMirror interface {
	Save(room entity.Room)
	Delete(roomID string)
}

// roomSession is a room plus everything that must change under its lock.
type roomSession struct {
	mu       sync.Mutex
	room     *entity.Room
	deadline deadline
	closed   bool

	// guarded by RoomManager.mu
	listed bool
}

func (that *roomSession) isClosed() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.closed
}

// RoomManager is the room registry. Lock order is always manager, then room.
type RoomManager struct {
	logger   *slog.Logger
	notifier notifier
	mirror   roomMirror
	watchdog *Watchdog

	mu       sync.Mutex
	rooms    map[string]*roomSession
	connRoom map[string]*roomSession
}

func NewRoomManager(logger *slog.Logger, notifier notifier, mirror roomMirror, watchdog *Watchdog) *RoomManager {
	return &RoomManager{
		logger:   logger.With("component", "room_manager"),
		notifier: notifier,
		mirror:   mirror,
		watchdog: watchdog,

		rooms:    make(map[string]*roomSession),
		connRoom: make(map[string]*roomSession),
	}
}

// CreateRoom opens a waiting room with conn as its only player.
func (that *RoomManager) CreateRoom(roomID, conn string) (entity.Room, error) {
	if err := entity.ValidateRoomID(roomID); err != nil {
		return entity.Room{}, err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.occupies(conn) {
		return entity.Room{}, apperror.ErrAlreadyInRoom
	}

	if existing, ok := that.rooms[roomID]; ok && !existing.isClosed() {
		return entity.Room{}, fmt.Errorf("%w: %s", apperror.ErrRoomAlreadyExists, roomID)
	}

	session := &roomSession{
		room:   entity.NewRoom(roomID, conn),
		listed: true,
	}

	that.rooms[roomID] = session
	that.connRoom[conn] = session

	that.notifier.Notify([]string{conn}, entity.Event{
		Action:  entity.ActionRoomCreated,
		Payload: entity.RoomCreatedPayload{Room: roomID, Status: entity.StatusWaiting},
	})

	snapshot := session.room.Snapshot()
	that.mirror.Save(snapshot)
	that.publishRoomList()

	that.logger.Info("room created", "roomID", roomID, "conn", conn)

	return snapshot, nil
}

// JoinRoom seats conn as the second player, starts the match and arms the watchdog.
func (that *RoomManager) JoinRoom(roomID, conn string) (entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.occupies(conn) {
		return entity.Room{}, apperror.ErrAlreadyInRoom
	}

	session, ok := that.rooms[roomID]
	if !ok {
		return entity.Room{}, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, roomID)
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.closed {
		return entity.Room{}, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, roomID)
	}

	room := session.room
	if err := room.Join(conn); err != nil {
		return entity.Room{}, err
	}

	that.connRoom[conn] = session
	session.listed = room.IsOpen()

	if room.IsActive() {
		that.watchdog.Arm(&session.deadline, func(generation uint64) {
			that.expire(session, generation)
		})

		for _, player := range room.Players {
			mark, _ := room.MarkOf(player)
			that.notifier.Notify([]string{player}, entity.Event{
				Action:  entity.ActionInit,
				Payload: entity.InitPayload{Symbol: mark, StartingTurn: mark == room.Turn},
			})
		}

		that.notifier.Notify(room.Players, entity.NewGameEvent(entity.ActionStartGame, room))
	}

	snapshot := room.Snapshot()
	that.mirror.Save(snapshot)
	that.publishRoomList()

	that.logger.Info("player joined room", "roomID", roomID, "conn", conn, "status", room.Status)

	return snapshot, nil
}

// MakeMove applies conn's move to its room. Any error leaves the room untouched.
func (that *RoomManager) MakeMove(conn string, cell int) error {
	session, err := that.sessionOf(conn)
	if err != nil {
		return err
	}

	session.mu.Lock()

	if session.closed {
		session.mu.Unlock()
		return apperror.ErrNotInRoom
	}

	room := session.room

	outcome, err := room.MakeMove(conn, cell)
	if err != nil {
		session.mu.Unlock()
		return fmt.Errorf("room %s: %w", room.ID, err)
	}

	that.notifier.Notify(room.Players, entity.NewGameEvent(entity.ActionUpdateGame, room))

	if outcome.Result == entity.InProgress {
		that.watchdog.Arm(&session.deadline, func(generation uint64) {
			that.expire(session, generation)
		})

		that.mirror.Save(room.Snapshot())
		session.mu.Unlock()

		return nil
	}

	players := that.finishLocked(session)
	session.mu.Unlock()

	that.destroy(session, players)

	that.logger.Info("game finished", "roomID", room.ID, "winner", room.Winner, "reason", room.Reason)

	return nil
}

// SendChat relays text to every player of conn's room.
func (that *RoomManager) SendChat(conn, text string) error {
	session, err := that.sessionOf(conn)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.closed {
		return apperror.ErrNotInRoom
	}

	that.notifier.Notify(session.room.Players, entity.Event{
		Action:  entity.ActionMessage,
		Payload: entity.MessagePayload{Text: text},
	})

	return nil
}

// Leave takes conn out of its room. An active match ends in the opponent's
// favour; a waiting room left empty is dropped. Leaving without a room is a no-op.
func (that *RoomManager) Leave(conn string) {
	session, err := that.sessionOf(conn)
	if err != nil {
		return
	}

	session.mu.Lock()

	if session.closed {
		session.mu.Unlock()
		return
	}

	room := session.room
	players := slices.Clone(room.Players)

	if room.IsActive() {
		room.Finish(entity.WinnerOpponent, entity.ReasonDisconnect)
		room.RemovePlayer(conn)
		that.finishLocked(session)
		session.mu.Unlock()

		that.destroy(session, players)

		that.logger.Info("game abandoned", "roomID", room.ID, "conn", conn)

		return
	}

	// a waiting room only ever holds its creator
	room.RemovePlayer(conn)
	session.closed = true
	session.mu.Unlock()

	that.destroy(session, players)

	that.logger.Info("waiting room abandoned", "roomID", room.ID, "conn", conn)
}

// RemoveRoom drops roomID from the registry. An active match is called off as a
// draw so both players hear that it ended. Removing an unknown room is a no-op.
func (that *RoomManager) RemoveRoom(roomID string) {
	that.mu.Lock()
	session, ok := that.rooms[roomID]
	that.mu.Unlock()

	if !ok {
		return
	}

	session.mu.Lock()

	if session.closed {
		session.mu.Unlock()
		return
	}

	var players []string

	if session.room.IsActive() {
		session.room.Finish(entity.WinnerDraw, entity.ReasonRemoved)
		players = that.finishLocked(session)
	} else {
		that.watchdog.Cancel(&session.deadline)
		session.closed = true
		players = slices.Clone(session.room.Players)
	}

	session.mu.Unlock()

	that.destroy(session, players)
}

// RequestRoomList replies to conn with the open rooms and keeps it subscribed
// to every later change of the listing.
func (that *RoomManager) RequestRoomList(conn string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.notifier.SubscribeRoomList(conn)
	that.notifier.Notify([]string{conn}, entity.NewRoomListEvent(that.openRoomIDs()))
}

func (that *RoomManager) ListOpenRooms() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.openRoomIDs()
}

// RoomOf returns the id of the room conn currently occupies.
func (that *RoomManager) RoomOf(conn string) (string, bool) {
	session, err := that.sessionOf(conn)
	if err != nil {
		return "", false
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.closed {
		return "", false
	}

	return session.room.ID, true
}

// Room returns a copy of a registered room.
func (that *RoomManager) Room(roomID string) (entity.Room, bool) {
	that.mu.Lock()
	session, ok := that.rooms[roomID]
	that.mu.Unlock()

	if !ok {
		return entity.Room{}, false
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.closed {
		return entity.Room{}, false
	}

	return session.room.Snapshot(), true
}

// Close stops every pending inactivity timer.
func (that *RoomManager) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	for _, session := range that.rooms {
		session.mu.Lock()
		that.watchdog.Cancel(&session.deadline)
		session.mu.Unlock()
	}
}

// expire runs when an inactivity timer fires. Stale timers fall through.
func (that *RoomManager) expire(session *roomSession, generation uint64) {
	session.mu.Lock()

	if session.closed || !session.room.IsActive() || !that.watchdog.IsCurrent(&session.deadline, generation) {
		session.mu.Unlock()
		return
	}

	room := session.room
	room.Finish(entity.WinnerOpponent, entity.ReasonTimeout)
	players := that.finishLocked(session)
	session.mu.Unlock()

	that.destroy(session, players)

	that.logger.Info("game timed out", "roomID", room.ID, "timeout", that.watchdog.Timeout())
}

// finishLocked announces the verdict of a finished room and marks it closed.
// The caller holds session.mu.
func (that *RoomManager) finishLocked(session *roomSession) []string {
	room := session.room

	that.watchdog.Cancel(&session.deadline)
	that.notifier.Notify(room.Players, entity.NewGameOverEvent(room))
	that.mirror.Save(room.Snapshot())

	session.closed = true

	return slices.Clone(room.Players)
}

// destroy unregisters a closed room and its players, then pushes the new listing.
func (that *RoomManager) destroy(session *roomSession, players []string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	session.listed = false

	for _, player := range players {
		if that.connRoom[player] == session {
			delete(that.connRoom, player)
		}
	}

	roomID := session.room.ID
	if that.rooms[roomID] == session {
		delete(that.rooms, roomID)
		that.mirror.Delete(roomID)
	}

	that.publishRoomList()
}

func (that *RoomManager) sessionOf(conn string) (*roomSession, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	session, ok := that.connRoom[conn]
	if !ok {
		return nil, apperror.ErrNotInRoom
	}

	return session, nil
}

// occupies reports whether conn sits in a live room. The caller holds that.mu.
func (that *RoomManager) occupies(conn string) bool {
	session, ok := that.connRoom[conn]
	return ok && !session.isClosed()
}

// openRoomIDs lists joinable rooms. The caller holds that.mu.
func (that *RoomManager) openRoomIDs() []string {
	ids := make([]string, 0, len(that.rooms))
	for id, session := range that.rooms {
		if session.listed {
			ids = append(ids, id)
		}
	}

	sort.Strings(ids)

	return ids
}

// publishRoomList pushes the listing to subscribers. The caller holds that.mu.
func (that *RoomManager) publishRoomList() {
	that.notifier.NotifyRoomList(that.openRoomIDs())
}
