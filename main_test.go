package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/statefulgames/kinarow/game/engine"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName == "" {
		t.Error("AppName should not be empty")
	}
}

func TestInitializeServices(t *testing.T) {
	configDir := t.TempDir()
	logsDir := filepath.Join(t.TempDir(), "logs")

	preset := `{
  "name": "Classic",
  "board_size": 3,
  "run_length": 3,
  "turn_timeout_ms": 30000
}`
	if err := os.WriteFile(filepath.Join(configDir, "classic.json"), []byte(preset), 0644); err != nil {
		t.Fatalf("Failed to write preset: %v", err)
	}

	var svcs *services
	cmd := &cli.Command{
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: configDir},
			&cli.StringFlag{Name: "logs-dir", Value: logsDir},
			&cli.BoolFlag{Name: "debug"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			var err error
			svcs, err = initializeServices(c)
			return err
		},
	}

	if err := cmd.Run(context.Background(), []string{"test"}); err != nil {
		t.Fatalf("initializeServices failed: %v", err)
	}

	// Prove the wiring end to end: create and start a game through the
	// assembled service.
	ctx := context.Background()
	info, err := svcs.game.CreateGame(ctx, "alice", "bob", "classic")
	if err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}
	started, err := svcs.game.StartGame(ctx, info.ID)
	if err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	if started.Phase != engine.PhaseActive {
		t.Errorf("Expected active phase, got %s", started.Phase)
	}

	if _, err := os.Stat(logsDir); err != nil {
		t.Errorf("Logs directory was not created: %v", err)
	}
}

func TestInitializeServices_MissingConfigDir(t *testing.T) {
	cmd := &cli.Command{
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "/nonexistent/kinarow-configs"},
			&cli.StringFlag{Name: "logs-dir", Value: t.TempDir()},
			&cli.BoolFlag{Name: "debug"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			_, err := initializeServices(c)
			if err == nil {
				t.Error("Expected error for missing config directory")
			}
			return nil
		},
	}
	if err := cmd.Run(context.Background(), []string{"test"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
}
