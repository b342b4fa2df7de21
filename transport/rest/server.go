package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
)

type Server struct {
	logger *slog.Logger
	srv    *http.Server
}

func New(logger *slog.Logger, handlers Handlers, port string) *Server {
	return &Server{
		logger: logger.With("component", "rest"),
		srv: &http.Server{
			Addr:         ":" + port,
			Handler:      NewRouter(handlers),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  30 * time.Second,
		},
	}
}

func NewRouter(handlers Handlers) *httprouter.Router {
	router := httprouter.New()

	router.GET("/ping", handlers.PingHandler)
	router.GET("/healthz", handlers.HealthHandler)
	router.GET("/rooms", handlers.ListRooms)
	router.GET("/rooms/:id", handlers.GetRoom)
	router.GET("/rooms/:id/qr", handlers.RoomQRCode)

	router.PanicHandler = func(w http.ResponseWriter, _ *http.Request, _ any) {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}

	return router
}

// Start - starts HTTP server. It returns nil after Shutdown.
func (that *Server) Start() error {
	that.logger.Info("Starting HTTP server", "addr", that.srv.Addr)

	if err := that.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) Shutdown(ctx context.Context) error {
	if err := that.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
