// Package mcp exposes the game over the Model Context Protocol by proxying
// the REST API.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/statefulgames/kinarow/game/engine"
	"github.com/statefulgames/kinarow/game/matchmaking"
	"github.com/statefulgames/kinarow/game/service"
)

// Client exposes the game over MCP by translating tool calls into REST
// requests against the session server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient builds an MCP tool server backed by the REST API at baseURL.
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"K-in-a-Row Session Server",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`K-in-a-Row - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME RULES:
Two players alternate placing marks on an NxN board. The first player to
complete a run of K marks in a row, column or diagonal wins. A full board
with no run is a draw, and letting the turn clock expire forfeits the game.

AVAILABLE TOOLS:
- create_game: Create a new game for two players
- start_game: Start a pending game (assigns the first mover)
- submit_move: Place a mark at (x, y)
- get_game_state: Current board, phase and whose turn it is
- get_action_log: The game's append-only action log
- replay_game: Rebuild a game's state purely from its log
- list_games: List all live games
- list_presets: List available rules presets
- join_matchmaking: Queue for an opponent instead of naming one`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_game",
		Description: "Create a new game session for two named players",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"player0": map[string]interface{}{
					"type":        "string",
					"description": "First player identity",
				},
				"player1": map[string]interface{}{
					"type":        "string",
					"description": "Second player identity",
				},
				"preset": map[string]interface{}{
					"type":        "string",
					"description": "Rules preset ID (optional, defaults to classic)",
				},
			},
			Required: []string{"player0", "player1"},
		},
	}, c.handleCreateGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_game",
		Description: "Start a pending game; the engine assigns the first mover",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID to start",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleStartGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "submit_move",
		Description: "Place a mark at (x, y) for the given player",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
				"player": map[string]interface{}{
					"type":        "string",
					"description": "Player identity making the move",
				},
				"x": map[string]interface{}{
					"type":        "number",
					"description": "Column, zero-based",
				},
				"y": map[string]interface{}{
					"type":        "number",
					"description": "Row, zero-based",
				},
			},
			Required: []string{"game_id", "player", "x", "y"},
		},
	}, c.handleSubmitMove)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_game_state",
		Description: "Get the current board, phase and whose turn it is",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_action_log",
		Description: "Get a game's append-only action log",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleActionLog)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "replay_game",
		Description: "Rebuild a game's state purely from its action log",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleReplay)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_games",
		Description: "List all live games",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListGames)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_presets",
		Description: "List available rules presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListPresets)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "join_matchmaking",
		Description: "Queue for an opponent on a preset instead of naming one",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"player": map[string]interface{}{
					"type":        "string",
					"description": "Player identity",
				},
				"preset": map[string]interface{}{
					"type":        "string",
					"description": "Rules preset ID (optional)",
				},
			},
			Required: []string{"player"},
		},
	}, c.handleJoinMatchmaking)
}

// GetMCPServer returns the underlying MCP server for transport hookup.
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall performs one REST request against the game server.
func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		// Conflict responses may carry a full move result rather than a
		// bare error; let the caller decode those.
		if resp.StatusCode == http.StatusConflict && result != nil {
			if decodeErr := json.Unmarshal(raw, result); decodeErr == nil {
				return nil
			}
		}
		var errResp map[string]string
		json.Unmarshal(raw, &errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.Unmarshal(raw, result)
	}
	return nil
}

// Tool handlers

func (c *Client) handleCreateGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	player0, _ := args["player0"].(string)
	player1, _ := args["player1"].(string)
	preset, _ := args["preset"].(string)

	body := map[string]string{"player0": player0, "player1": player1}
	if preset != "" {
		body["preset"] = preset
	}

	var info service.GameInfo
	if err := c.apiCall("POST", "/api/games", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created game %s\nPlayers: %s vs %s\nRules: %dx%d board, %d in a row, %dms per turn\nStart it with start_game.",
		info.ID, info.Players[0], info.Players[1],
		info.Rules.BoardSize, info.Rules.BoardSize, info.Rules.RunLength, info.Rules.TurnTimeoutMs)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleStartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	gameID, _ := args["game_id"].(string)

	var info service.GameInfo
	if err := c.apiCall("POST", fmt.Sprintf("/api/games/%s/start", gameID), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameInfo(&info)), nil
}

func (c *Client) handleSubmitMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	gameID, _ := args["game_id"].(string)
	player, _ := args["player"].(string)
	x, _ := args["x"].(float64)
	y, _ := args["y"].(float64)

	body := map[string]interface{}{
		"player": player,
		"x":      int(x),
		"y":      int(y),
	}

	var result service.MoveResult
	if err := c.apiCall("POST", fmt.Sprintf("/api/games/%s/moves", gameID), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	gameID, _ := args["game_id"].(string)

	var info service.GameInfo
	if err := c.apiCall("GET", fmt.Sprintf("/api/games/%s", gameID), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameInfo(&info)), nil
}

func (c *Client) handleActionLog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	gameID, _ := args["game_id"].(string)

	var log service.ActionLogInfo
	if err := c.apiCall("GET", fmt.Sprintf("/api/games/%s/log", gameID), nil, &log); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Action log for %s (%d entries):\n\n", log.GameID, log.ActionCount)
	for _, a := range log.Actions {
		fmt.Fprintf(&sb, "%3d  %-8s %s\n", a.Seq, a.Kind, a.Timestamp.Format(time.RFC3339))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleReplay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	gameID, _ := args["game_id"].(string)

	var replay service.ReplayInfo
	if err := c.apiCall("GET", fmt.Sprintf("/api/games/%s/replay", gameID), nil, &replay); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Replay of %s (%d actions", replay.GameID, replay.ActionCount)
	if replay.FromArchive {
		sb.WriteString(", from archive")
	}
	sb.WriteString("):\n\n")
	sb.WriteString(formatBoard(replay.Board))
	fmt.Fprintf(&sb, "\nPhase: %s\n", replay.Phase)
	if replay.Result != nil {
		sb.WriteString(formatResult(replay.Result))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleListGames(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int                `json:"count"`
		Games []service.GameInfo `json:"games"`
	}
	if err := c.apiCall("GET", "/api/games", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Live games (%d):\n\n", response.Count)
	for _, g := range response.Games {
		fmt.Fprintf(&sb, "- %s: %s vs %s (%s, %d actions)\n",
			g.ID, g.Players[0], g.Players[1], g.Phase, g.ActionCount)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleListPresets(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var presets []service.PresetInfo
	if err := c.apiCall("GET", "/api/presets", nil, &presets); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Available presets (%d):\n\n", len(presets))
	for _, p := range presets {
		fmt.Fprintf(&sb, "- %s: %dx%d board, %d in a row, %dms per turn\n",
			p.PresetID, p.BoardSize, p.BoardSize, p.RunLength, p.TurnTimeoutMs)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleJoinMatchmaking(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	player, _ := args["player"].(string)
	preset, _ := args["preset"].(string)

	body := map[string]string{"player": player}
	if preset != "" {
		body["preset"] = preset
	}

	var result matchmaking.JoinResult
	if err := c.apiCall("POST", "/api/matchmaking/join", body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if result.Matched {
		return mcp.NewToolResultText(fmt.Sprintf("Matched! Game %s is active.", result.GameID)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Queued. Ticket %s, poll /api/matchmaking/tickets/%s for a match.",
		result.Ticket.ID, result.Ticket.ID)), nil
}

// Formatting helpers

func formatBoard(board [][]engine.Slot) string {
	var sb strings.Builder
	for _, row := range board {
		for x, cell := range row {
			if x > 0 {
				sb.WriteByte(' ')
			}
			switch cell {
			case engine.Slot0:
				sb.WriteByte('X')
			case engine.Slot1:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func formatResult(result *engine.Result) string {
	if result.Winner == nil {
		return fmt.Sprintf("Result: draw (%s)\n", result.Reason)
	}
	return fmt.Sprintf("Result: %s wins by %s\n", *result.Winner, result.Reason)
}

func formatGameInfo(info *service.GameInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Game %s: %s vs %s\nPhase: %s\n",
		info.ID, info.Players[0], info.Players[1], info.Phase)
	if info.CurrentPlayer != "" {
		fmt.Fprintf(&sb, "Current turn: %s\n", info.CurrentPlayer)
	}
	sb.WriteByte('\n')
	sb.WriteString(formatBoard(info.Board))
	if info.Result != nil {
		sb.WriteByte('\n')
		sb.WriteString(formatResult(info.Result))
	}
	return sb.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var sb strings.Builder
	if result.Accepted {
		fmt.Fprintf(&sb, "Move accepted (seq %d).\n\n", result.Action.Seq)
	} else {
		fmt.Fprintf(&sb, "Move rejected: %s", result.Rejection.Message)
		if result.Rejection.Expected != "" {
			fmt.Fprintf(&sb, " (expected %s)", result.Rejection.Expected)
		}
		sb.WriteString("\n\n")
	}
	if result.Game != nil {
		sb.WriteString(formatGameInfo(result.Game))
	}
	return sb.String()
}
