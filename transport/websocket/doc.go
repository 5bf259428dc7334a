// Package websocket provides the real-time transport for game sessions.
//
// The package uses a hub-and-spoke model: a central Hub tracks every
// connection grouped by game ID and fans engine events out to the clients
// watching that game. Each connection runs a read and a write goroutine.
//
// Message Protocol:
//
// Outbound messages are the engine's typed events, JSON-encoded:
//
//	{type: "move_accepted", game_id: "…", payload: {…}}
//
// Inbound messages are commands:
//
//	{command: "submit_move", data: {player: "alice", x: 1, y: 2}}
//
// Clients bind to one game at connect time via the gameId query parameter
// (?gameId=…). Commands apply to that game; events from other games are
// never delivered to the connection.
//
// The Hub implements service.EventSink, so wiring it as the service's sink
// is all the delivery setup a server needs:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run()
//	svc := service.NewGameService(sessions, presets, hub, logger)
//	hub.SetService(svc)
package websocket
