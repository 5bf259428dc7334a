package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/statefulgames/kinarow/game/engine"
	"github.com/statefulgames/kinarow/game/service"
	"github.com/statefulgames/kinarow/game/session"
)

type fixedPresets struct{}

func (fixedPresets) LoadPreset(name string) (engine.Rules, error) {
	return engine.Rules{Name: name, BoardSize: 3, RunLength: 3, TurnTimeoutMs: 30000}, nil
}

func (fixedPresets) ListPresets() ([]*service.PresetInfo, error) { return nil, nil }

func (fixedPresets) GetDefault() engine.Rules {
	return engine.Rules{Name: "classic", BoardSize: 3, RunLength: 3, TurnTimeoutMs: 30000}
}

// testSetup wires a hub, a service using it as sink and an httptest server
// exposing /ws.
func testSetup(t *testing.T) (*Hub, service.GameService, *httptest.Server) {
	t.Helper()

	hub := NewHub(zap.NewNop())
	go hub.Run()

	mgr := session.NewManager(zap.NewNop())
	svc := service.NewGameService(mgr, fixedPresets{}, hub, zap.NewNop())
	hub.SetService(svc)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r)
	}))
	t.Cleanup(srv.Close)

	return hub, svc, srv
}

func dial(t *testing.T, srv *httptest.Server, gameID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?gameId=" + gameID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readEvents collects event messages until one of the wanted type arrives or
// the deadline passes. A single frame may batch several newline-separated
// messages.
func readEvents(t *testing.T, conn *websocket.Conn, want engine.EventType) engine.Event {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	conn.SetReadDeadline(deadline)

	for time.Now().Before(deadline) {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage failed waiting for %s: %v", want, err)
		}
		for _, line := range strings.Split(string(raw), "\n") {
			if line == "" {
				continue
			}
			var event engine.Event
			if err := json.Unmarshal([]byte(line), &event); err != nil {
				continue
			}
			if event.Type == want {
				return event
			}
		}
	}
	t.Fatalf("Never received %s", want)
	return engine.Event{}
}

func TestHub_DeliversGameEvents(t *testing.T) {
	_, svc, srv := testSetup(t)
	ctx := context.Background()

	info, err := svc.CreateGame(ctx, "alice", "bob", "")
	if err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}

	conn := dial(t, srv, info.ID)
	// Give the register message time to reach the Run loop.
	time.Sleep(50 * time.Millisecond)

	if _, err := svc.StartGame(ctx, info.ID); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}

	event := readEvents(t, conn, engine.EventGameStarted)
	if event.GameID != info.ID {
		t.Errorf("Event for wrong game: %s", event.GameID)
	}
}

func TestHub_SubmitMoveCommand(t *testing.T) {
	_, svc, srv := testSetup(t)
	ctx := context.Background()

	info, err := svc.CreateGame(ctx, "alice", "bob", "")
	if err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}
	started, err := svc.StartGame(ctx, info.ID)
	if err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}

	conn := dial(t, srv, info.ID)
	time.Sleep(50 * time.Millisecond)

	cmd := map[string]any{
		"command": "submit_move",
		"data": map[string]any{
			"player": started.CurrentPlayer,
			"x":      1,
			"y":      1,
		},
	}
	if err := conn.WriteJSON(cmd); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	event := readEvents(t, conn, engine.EventMoveAccepted)
	if event.GameID != info.ID {
		t.Errorf("Event for wrong game: %s", event.GameID)
	}

	final, err := svc.GetGame(ctx, info.ID)
	if err != nil {
		t.Fatalf("GetGame failed: %v", err)
	}
	if final.Board[1][1] == engine.SlotNone {
		t.Error("Move over websocket did not reach the board")
	}
}

func TestHub_RejectionReachesSubscriber(t *testing.T) {
	_, svc, srv := testSetup(t)
	ctx := context.Background()

	info, err := svc.CreateGame(ctx, "alice", "bob", "")
	if err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}
	started, err := svc.StartGame(ctx, info.ID)
	if err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}

	wrong := started.Players[0]
	if wrong == started.CurrentPlayer {
		wrong = started.Players[1]
	}

	conn := dial(t, srv, info.ID)
	time.Sleep(50 * time.Millisecond)

	if _, err := svc.SubmitMove(ctx, info.ID, service.MoveRequest{Player: wrong, X: 0, Y: 0}); err != nil {
		t.Fatalf("SubmitMove failed: %v", err)
	}

	event := readEvents(t, conn, engine.EventMoveRejected)
	payload, ok := event.Payload.(map[string]any)
	if !ok {
		t.Fatalf("Unexpected payload shape: %T", event.Payload)
	}
	if payload["code"] != string(engine.CodeNotYourTurn) {
		t.Errorf("Expected not_your_turn, got %v", payload["code"])
	}
}

func TestHub_IgnoresOtherGames(t *testing.T) {
	_, svc, srv := testSetup(t)
	ctx := context.Background()

	a, err := svc.CreateGame(ctx, "alice", "bob", "")
	if err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}
	b, err := svc.CreateGame(ctx, "carol", "dave", "")
	if err != nil {
		t.Fatalf("CreateGame failed: %v", err)
	}

	conn := dial(t, srv, a.ID)
	time.Sleep(50 * time.Millisecond)

	if _, err := svc.StartGame(ctx, b.ID); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("Received an event for a game the connection is not watching")
	}
}

func TestHub_RequiresGameID(t *testing.T) {
	_, _, srv := testSetup(t)

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 without gameId, got %d", resp.StatusCode)
	}
}
