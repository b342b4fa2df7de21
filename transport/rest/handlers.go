package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const (
	qrSize        = 256
	healthTimeout = 2 * time.Second
)

type Handlers interface {
	PingHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params)
	HealthHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params)

	ListRooms(w http.ResponseWriter, r *http.Request, _ httprouter.Params)
	GetRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params)
	RoomQRCode(w http.ResponseWriter, r *http.Request, ps httprouter.Params)
}

type roomRegistry interface {
	ListOpenRooms() []string
	Room(roomID string) (entity.Room, bool)
}

type roomStore interface {
	GetByID(ctx context.Context, id string) (*entity.Room, error)
}

// HealthCheck reports whether a backing service answers.
type HealthCheck func(ctx context.Context) error

type handlers struct {
	logger    *slog.Logger
	registry  roomRegistry
	store     roomStore
	health    HealthCheck
	publicURL string
}

// NewHandlers builds the REST handlers. A nil store serves rooms from the
// registry alone, and a nil health check always reports healthy.
func NewHandlers(logger *slog.Logger, registry roomRegistry, store roomStore, health HealthCheck, publicURL string) Handlers {
	return &handlers{
		logger:    logger.With("component", "rest"),
		registry:  registry,
		store:     store,
		health:    health,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

func (that *handlers) PingHandler(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func (that *handlers) HealthHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if that.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := that.health(ctx); err != nil {
			that.logger.Warn("health check failed", "error", err)
			http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Ok\n"))
}

func (that *handlers) ListRooms(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	that.writeJSON(w, entity.RoomListPayload{Rooms: that.registry.ListOpenRooms()})
}

// GetRoom serves live rooms from the registry. The store only answers for
// rooms the registry no longer holds, such as a match that just finished.
func (that *handlers) GetRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	roomID := ps.ByName("id")

	if room, ok := that.registry.Room(roomID); ok {
		that.writeJSON(w, room)
		return
	}

	if that.store == nil {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}

	room, err := that.store.GetByID(r.Context(), roomID)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}

	if err != nil {
		that.logger.Error("failed to get room", "roomID", roomID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	that.writeJSON(w, room)
}

// RoomQRCode returns a PNG that opens the client with the room preselected.
func (that *handlers) RoomQRCode(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	roomID := ps.ByName("id")
	if err := entity.ValidateRoomID(roomID); err != nil {
		http.Error(w, "Invalid room id", http.StatusBadRequest)
		return
	}

	link := that.publicURL + "/?room=" + url.QueryEscape(roomID)

	png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
	if err != nil {
		that.logger.Error("failed to encode qr code", "roomID", roomID, "error", err)
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

func (that *handlers) writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}
