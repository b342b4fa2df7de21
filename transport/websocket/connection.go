package websocket

import (
	"log/slog"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Connection is one client socket. Only writePump writes to conn; everything
// else hands frames over through send.
type Connection struct {
	ID string

	logger *slog.Logger
	conn   *ws.Conn
	send   chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func newConnection(logger *slog.Logger, id string, conn *ws.Conn, buffer int) *Connection {
	return &Connection{
		ID:     id,
		logger: logger.With("conn", id),
		conn:   conn,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

// enqueue never blocks. A client too slow to drain its buffer is disconnected.
func (that *Connection) enqueue(data []byte) {
	select {
	case <-that.done:
		return
	default:
	}

	select {
	case that.send <- data:
	default:
		that.logger.Warn("send buffer is full, closing connection")
		that.Close()
	}
}

// Close asks writePump to say goodbye and drop the socket. Safe to call many times.
func (that *Connection) Close() {
	that.closeOnce.Do(func() {
		close(that.done)
	})
}

// readPump delivers text frames to handle until the socket fails or closes.
func (that *Connection) readPump(handle func(data []byte)) {
	that.conn.SetReadLimit(maxMessageSize)

	if err := that.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		that.logger.Error("failed to set read deadline", "error", err)
	}

	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := that.conn.ReadMessage()
		if err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseGoingAway, ws.CloseNormalClosure, ws.CloseNoStatusReceived) {
				that.logger.Warn("unexpected close", "error", err)
			}

			return
		}

		if messageType != ws.TextMessage {
			continue
		}

		handle(data)
	}
}

// writePump owns every write to the socket, including keepalive pings.
func (that *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case data := <-that.send:
			if err := that.write(ws.TextMessage, data); err != nil {
				that.logger.Debug("failed to write message", "error", err)
				that.Close()

				return
			}

		case <-ticker.C:
			if err := that.write(ws.PingMessage, nil); err != nil {
				that.Close()
				return
			}

		case <-that.done:
			that.flush()
			_ = that.write(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseNormalClosure, ""))

			return
		}
	}
}

// flush writes whatever is still queued before the socket goes away.
func (that *Connection) flush() {
	for {
		select {
		case data := <-that.send:
			if err := that.write(ws.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (that *Connection) write(messageType int, data []byte) error {
	if err := that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}

	return that.conn.WriteMessage(messageType, data)
}
