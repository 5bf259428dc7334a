// Command kinarow starts the k-in-a-row session server.
//
// It has three modes:
//  1. "serve" (default)  runs the HTTP server exposing the REST API, the
//     WebSocket endpoint and an /mcp HTTP endpoint
//  2. "mcp"  runs an MCP stdio server backed by an internal HTTP API
//  3. "replay"  rebuilds an archived game from its action log and prints it
//
// Flags control host/port, the preset directory, the archive directory and
// debug logging. A .env file in the working directory is honored.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/statefulgames/kinarow/api"
	"github.com/statefulgames/kinarow/game/config"
	"github.com/statefulgames/kinarow/game/engine"
	"github.com/statefulgames/kinarow/game/matchmaking"
	"github.com/statefulgames/kinarow/game/service"
	"github.com/statefulgames/kinarow/game/session"
	"github.com/statefulgames/kinarow/transport/mcp"
	"github.com/statefulgames/kinarow/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "K-in-a-Row Session Server"
)

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
	}

	cmd := &cli.Command{
		Name:    "kinarow",
		Usage:   "authoritative session server for two-player k-in-a-row games",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   8080,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory containing rules presets",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "logs-dir",
				Value:   "logs",
				Usage:   "directory for archived game logs",
				Sources: cli.EnvVars("LOGS_DIR"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server (default)",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "run an MCP stdio server backed by an internal HTTP API",
				Action: runStdioMCP,
			},
			{
				Name:      "replay",
				Usage:     "rebuild an archived game from its action log",
				ArgsUsage: "<game-id>",
				Action:    runReplay,
			},
		},
		DefaultCommand: "serve",
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// services bundles everything initializeServices wires up.
type services struct {
	game   service.GameService
	hub    *websocket.Hub
	queue  *matchmaking.Queue
	logger *zap.Logger
}

// initializeServices wires the preset manager, session registry, archive,
// websocket hub, matchmaking queue and game service together.
func initializeServices(cmd *cli.Command) (*services, error) {
	logger, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	presets, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return nil, fmt.Errorf("failed to create preset manager: %w", err)
	}

	store, err := session.NewFileStore(cmd.String("logs-dir"))
	if err != nil {
		return nil, fmt.Errorf("failed to create log store: %w", err)
	}

	sessions := session.NewManagerWithArchive(store, logger)

	hub := websocket.NewHub(logger)
	go hub.Run()

	svc := service.NewGameService(sessions, presets, hub, logger)
	hub.SetService(svc)

	queue := matchmaking.NewQueue(svc, logger)

	return &services{
		game:   svc,
		hub:    hub,
		queue:  queue,
		logger: logger,
	}, nil
}

// runServe starts the HTTP server with the REST API, the websocket endpoint
// and an /mcp proxy endpoint, then blocks until a shutdown signal.
func runServe(ctx context.Context, cmd *cli.Command) error {
	svcs, err := initializeServices(cmd)
	if err != nil {
		return err
	}
	logger := svcs.logger
	defer logger.Sync()

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))
	apiServer := api.NewServer(svcs.game, svcs.queue, svcs.hub, logger)
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHTTPHandler(mcpClient))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			zap.String("addr", addr),
			zap.String("api", fmt.Sprintf("http://%s/api", addr)),
			zap.String("websocket", fmt.Sprintf("ws://%s/ws?gameId=<game_id>", addr)),
			zap.String("mcp", fmt.Sprintf("http://%s/mcp", addr)))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}

// mcpHTTPHandler exposes the MCP server over plain HTTP POST.
func mcpHTTPHandler(client *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := client.GetMCPServer().HandleMessage(r.Context(), body)

		data, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}
}

// runStdioMCP serves MCP over stdio, backed by an internal HTTP API on a
// random loopback port.
func runStdioMCP(ctx context.Context, cmd *cli.Command) error {
	svcs, err := initializeServices(cmd)
	if err != nil {
		return err
	}
	logger := svcs.logger
	defer logger.Sync()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to get available port: %w", err)
	}
	internalAddr := listener.Addr().String()

	apiServer := api.NewServer(svcs.game, svcs.queue, svcs.hub, logger)
	httpServer := &http.Server{Handler: apiServer}
	go func() {
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("internal HTTP server error", zap.Error(err))
		}
	}()

	// Give the internal server a moment to accept connections.
	time.Sleep(100 * time.Millisecond)

	logger.Info("MCP stdio server ready", zap.String("internal_api", internalAddr))

	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", internalAddr))
	if err := mcpserver.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// runReplay loads an archived record and prints the state its log replays
// to, verifying the log is self-contained along the way.
func runReplay(ctx context.Context, cmd *cli.Command) error {
	gameID := cmd.Args().First()
	if gameID == "" {
		return fmt.Errorf("usage: kinarow replay <game-id>")
	}

	store, err := session.NewFileStore(cmd.String("logs-dir"))
	if err != nil {
		return err
	}

	record, err := store.Load(gameID)
	if err != nil {
		return fmt.Errorf("failed to load record %s: %w", gameID, err)
	}
	entries, err := record.Entries()
	if err != nil {
		return err
	}
	state, err := engine.Replay(gameID, entries)
	if err != nil {
		return fmt.Errorf("log does not replay cleanly: %w", err)
	}

	fmt.Printf("Game %s: %s vs %s (%d actions)\n\n",
		record.GameID, record.Players[0], record.Players[1], record.ActionCount)
	printBoard(state.Board)
	fmt.Printf("\nPhase: %s\n", state.Phase)
	if state.Result != nil {
		if state.Result.Winner == nil {
			fmt.Printf("Result: draw (%s)\n", state.Result.Reason)
		} else {
			fmt.Printf("Result: %s wins by %s\n", *state.Result.Winner, state.Result.Reason)
		}
	}
	return nil
}

func printBoard(board *engine.Board) {
	for _, row := range board.Grid() {
		for x, cell := range row {
			if x > 0 {
				fmt.Print(" ")
			}
			switch cell {
			case engine.Slot0:
				fmt.Print("X")
			case engine.Slot1:
				fmt.Print("O")
			default:
				fmt.Print(".")
			}
		}
		fmt.Println()
	}
}
