// Command ratrace runs the Rat Race game server.
//
// It supports two commands:
//  1. "server" (default) – runs the HTTP server exposing the REST API, the
//     websocket event surface and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server against an existing API, or against
//     an internal one started on a loopback port
//
// Settings come from the environment (optionally a .env file) and can be
// overridden with flags. An ngrok tunnel can expose the server during
// development.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/rat-race-game/api"
	"github.com/wricardo/rat-race-game/game/config"
	"github.com/wricardo/rat-race-game/game/lobby"
	"github.com/wricardo/rat-race-game/game/service"
	"github.com/wricardo/rat-race-game/game/session"
	"github.com/wricardo/rat-race-game/game/storage/postgres"
	"github.com/wricardo/rat-race-game/game/storage/sqlite"
	platformconfig "github.com/wricardo/rat-race-game/internal/platform/config"
	"github.com/wricardo/rat-race-game/transport/mcp"
	"github.com/wricardo/rat-race-game/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Rat Race Game Server"
)

// Waiting rooms untouched for idleRoomAge are removed every cleanupInterval.
const (
	cleanupInterval = time.Hour
	idleRoomAge     = 24 * time.Hour
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:           "ratrace",
		Usage:          AppName,
		Version:        Version,
		DefaultCommand: "server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Usage: "HTTP server host (HOST)"},
			&cli.IntFlag{Name: "port", Usage: "HTTP server port (PORT)"},
			&cli.StringFlag{Name: "config-dir", Usage: "Directory containing rulesets (CONFIG_DIR)"},
			&cli.StringFlag{Name: "storage", Usage: "Room storage: file, sqlite, postgres or memory (STORAGE_DRIVER)"},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
		},
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run the HTTP server with REST API, websocket and MCP endpoint",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel (NGROK_ENABLED)"},
					&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token (NGROK_AUTHTOKEN)"},
					&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (NGROK_DOMAIN)"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					settings, err := loadSettings(cmd)
					if err != nil {
						return err
					}
					return runServer(ctx, settings, newLogger(settings, os.Stderr))
				},
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run an MCP stdio server playing as one user",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "api-url", Usage: "REST API to proxy; an internal server is started when empty"},
					&cli.StringFlag{Name: "user-id", Value: "mcp-agent", Usage: "User id to play as"},
					&cli.StringFlag{Name: "name", Value: "Agent", Usage: "Display name"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					settings, err := loadSettings(cmd)
					if err != nil {
						return err
					}
					// stdout carries the MCP protocol
					logger := newLogger(settings, os.Stderr)
					return runMCP(ctx, settings, logger, cmd.String("api-url"), cmd.String("user-id"), cmd.String("name"))
				},
			},
		},
	}
}

// loadSettings reads the environment and applies flag overrides.
func loadSettings(cmd *cli.Command) (platformconfig.Settings, error) {
	s, err := platformconfig.LoadSettings()
	if err != nil {
		return s, err
	}

	if cmd.IsSet("host") {
		s.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		s.Port = cmd.Int("port")
	}
	if cmd.IsSet("config-dir") {
		s.ConfigDir = cmd.String("config-dir")
	}
	if cmd.IsSet("storage") {
		s.StorageDriver = cmd.String("storage")
	}
	if cmd.Bool("debug") {
		s.LogLevel = "debug"
	}
	if cmd.IsSet("ngrok") {
		s.NgrokEnabled = cmd.Bool("ngrok")
	}
	if cmd.IsSet("ngrok-auth") {
		s.NgrokAuthToken = cmd.String("ngrok-auth")
	}
	if cmd.IsSet("ngrok-domain") {
		s.NgrokDomain = cmd.String("ngrok-domain")
	}
	return s, nil
}

func newLogger(s platformconfig.Settings, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(s.LogFormat, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// openStore opens the room store selected by STORAGE_DRIVER. The returned
// close function releases it.
func openStore(ctx context.Context, s platformconfig.Settings, logger *slog.Logger) (session.RoomPersistence, func(), error) {
	noop := func() {}
	switch s.StorageDriver {
	case "", "file":
		store, err := session.NewFilePersistence(s.SessionsDir)
		return store, noop, err
	case "sqlite":
		store, err := sqlite.Open(s.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close sqlite store", "error", err)
			}
		}, nil
	case "postgres":
		store, err := postgres.Connect(ctx, s.DatabaseURL, logger)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	case "memory":
		return session.NewMemoryPersistence(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage driver %q", s.StorageDriver)
	}
}

// app holds the wired game server.
type app struct {
	sessions   *session.Manager
	service    service.GameService
	hub        *websocket.Hub
	api        *api.Server
	closeStore func()
}

// newApp wires rulesets, storage, sessions, the game service and its
// transports, and recovers in-flight games before anything is served.
func newApp(ctx context.Context, s platformconfig.Settings, logger *slog.Logger) (*app, error) {
	configManager, err := config.NewManager(s.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	store, closeStore, err := openStore(ctx, s, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", s.StorageDriver, err)
	}

	sessions := session.NewManager(lobby.NewDirectory(), configManager,
		session.WithStore(store),
		session.WithLogger(logger))

	recovered, err := sessions.Recover(ctx)
	if err != nil {
		sessions.Close(ctx)
		closeStore()
		return nil, fmt.Errorf("failed to recover rooms: %w", err)
	}
	logger.Info("rooms recovered", "count", recovered, "storage", s.StorageDriver)

	hub := websocket.NewHub(logger)
	gameService := service.NewGameService(sessions, configManager,
		service.WithNotifier(hub),
		service.WithLogger(logger))
	hub.SetService(gameService)

	return &app{
		sessions:   sessions,
		service:    gameService,
		hub:        hub,
		api:        api.NewServer(gameService, hub, logger),
		closeStore: closeStore,
	}, nil
}

// close flushes pending snapshots and releases the store.
func (a *app) close(ctx context.Context) error {
	err := a.sessions.Close(ctx)
	a.closeStore()
	return err
}

// runBackground runs the turn clock and idle room cleanup until ctx ends.
func (a *app) runBackground(ctx context.Context, s platformconfig.Settings, logger *slog.Logger) error {
	tick, err := time.ParseDuration(s.TurnTick)
	if err != nil || tick <= 0 {
		return fmt.Errorf("invalid TURN_TICK %q", s.TurnTick)
	}

	go a.service.RunTurnClock(ctx, tick)
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := a.service.CleanupIdleRooms(ctx, idleRoomAge); removed > 0 {
					logger.Info("cleaned up idle rooms", "count", removed)
				}
			}
		}
	}()
	return nil
}

// runServer starts the HTTP server with REST API, websocket hub and an /mcp
// endpoint. If ngrok is enabled it also provisions a public tunnel.
func runServer(ctx context.Context, s platformconfig.Settings, logger *slog.Logger) error {
	a, err := newApp(ctx, s, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := a.runBackground(ctx, s, logger); err != nil {
		a.close(context.Background())
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", a.api)
	mainRouter.Handle("/mcp", mcp.NewHTTPHandler("http://"+addr))

	httpServer := &http.Server{
		Addr:        addr,
		Handler:     mainRouter,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("HTTP server listening",
			"addr", addr,
			"api", "http://"+addr+"/api",
			"websocket", "ws://"+addr+"/ws",
			"mcp", "http://"+addr+"/mcp")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	if s.NgrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, s, mainRouter, logger)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-serveErr:
		logger.Error("HTTP server failed", "error", err)
	}
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("HTTP server shutdown error", "error", shutdownErr)
	}
	wg.Wait()

	if closeErr := a.close(shutdownCtx); closeErr != nil {
		logger.Warn("failed to flush room snapshots", "error", closeErr)
	}
	logger.Info("server stopped")
	return err
}

// runNgrok serves handler through an ngrok tunnel until ctx ends.
func runNgrok(ctx context.Context, s platformconfig.Settings, handler http.Handler, logger *slog.Logger) {
	if s.NgrokAuthToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if s.NgrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(s.NgrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(s.NgrokAuthToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", "error", err)
		return
	}

	tunnelServer := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		tunnelServer.Close()
	}()

	url := tun.URL()
	logger.Info("ngrok tunnel established",
		"url", url,
		"api", url+"/api",
		"websocket", strings.Replace(url, "https://", "wss://", 1)+"/ws")

	if err := tunnelServer.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("ngrok server error", "error", err)
	}
	logger.Info("ngrok tunnel closed")
}

// runMCP runs an MCP stdio server. Without apiURL it starts the full game
// server on a random loopback port and targets that.
func runMCP(ctx context.Context, s platformconfig.Settings, logger *slog.Logger, apiURL, userID, name string) error {
	if apiURL == "" {
		a, err := newApp(ctx, s, logger)
		if err != nil {
			return err
		}
		defer a.close(context.Background())

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := a.runBackground(ctx, s, logger); err != nil {
			return err
		}

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		httpServer := &http.Server{Handler: a.api}
		go func() {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("internal HTTP server error", "error", err)
			}
		}()
		defer httpServer.Close()

		apiURL = "http://" + listener.Addr().String()
		logger.Info("started internal HTTP server for MCP", "url", apiURL)
	}

	logger.Info("MCP stdio server ready", "api", apiURL, "user_id", userID)
	return mcp.NewClient(apiURL, userID, name).ServeStdio()
}
