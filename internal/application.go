package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/config"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/service"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/rest"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/websocket"
)

const shutdownTimeout = 5 * time.Second

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application until SIGINT or SIGTERM.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		roomRepo    repository.RoomRepository
		healthCheck rest.HealthCheck
	)

	if conf.Redis.Enabled {
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return ErrAddrNotFound
		}

		redisStorage, err := storage.New(ctx, redisAddrString)
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		roomRepo = repository.NewRoomRepository(redisStorage, conf.Redis.SnapshotTTL)
		healthCheck = func(ctx context.Context) error {
			return redisStorage.Ping(ctx).Err()
		}
	}

	mirror := service.NewRoomMirror(logger, roomRepo, service.DefaultMirrorBuffer)

	mirrorCtx, stopMirror := context.WithCancel(context.Background())
	var mirrorWG sync.WaitGroup

	mirrorWG.Add(1)
	go func() {
		defer mirrorWG.Done()
		mirror.Run(mirrorCtx)
	}()

	hub := websocket.NewHub(logger)
	watchdog := usecase.NewWatchdog(conf.InactivityTimeout)
	roomManager := usecase.NewRoomManager(logger, hub, mirror, watchdog)

	restHandlers := rest.NewHandlers(logger, roomManager, roomRepo, healthCheck, conf.PublicURL)
	httpServer := rest.New(logger, restHandlers, conf.HTTPPort)
	wsServer := websocket.New(logger, hub, roomManager, conf.SocketPort, conf.SendBuffer)

	errCh := make(chan error, 2)

	go func() {
		if httpErr := httpServer.Start(); httpErr != nil {
			errCh <- fmt.Errorf("HTTP server error: %w", httpErr)
		}
	}()

	go func() {
		if wsErr := wsServer.Start(); wsErr != nil {
			errCh <- fmt.Errorf("WebSocket server error: %w", wsErr)
		}
	}()

	var runErr error

	select {
	case runErr = <-errCh:
		log.Error("server failed, shutting down", "error", runErr)
	case <-ctx.Done():
		log.Info("Received signal, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("could not shutdown HTTP server", "error", err)
	}

	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.Error("could not shutdown WebSocket server", "error", err)
	}

	roomManager.Close()

	stopMirror()
	mirrorWG.Wait()

	return runErr
}
