// Package api exposes the game service over REST plus the websocket
// endpoint for live event delivery.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/statefulgames/kinarow/game/engine"
	"github.com/statefulgames/kinarow/game/matchmaking"
	"github.com/statefulgames/kinarow/game/service"
	"github.com/statefulgames/kinarow/game/session"
	"github.com/statefulgames/kinarow/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	queue   *matchmaking.Queue
	hub     *websocket.Hub
	router  *mux.Router
	logger  *zap.Logger
}

// NewServer creates a new API server. hub and queue may be nil for offline
// or test configurations; the corresponding routes then return 404.
func NewServer(gameService service.GameService, queue *matchmaking.Queue, hub *websocket.Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service: gameService,
		queue:   queue,
		hub:     hub,
		router:  mux.NewRouter(),
		logger:  logger,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Game lifecycle
	api.HandleFunc("/games", s.handleCreateGame).Methods("POST")
	api.HandleFunc("/games", s.handleListGames).Methods("GET")
	api.HandleFunc("/games/{id}", s.handleGetGame).Methods("GET")
	api.HandleFunc("/games/{id}", s.handleDeleteGame).Methods("DELETE")
	api.HandleFunc("/games/{id}/start", s.handleStartGame).Methods("POST")

	// Play
	api.HandleFunc("/games/{id}/moves", s.handleSubmitMove).Methods("POST")
	api.HandleFunc("/games/{id}/log", s.handleGetActionLog).Methods("GET")
	api.HandleFunc("/games/{id}/replay", s.handleReplayGame).Methods("GET")

	// Matchmaking
	if s.queue != nil {
		api.HandleFunc("/matchmaking", s.handleMatchmakingInfo).Methods("GET")
		api.HandleFunc("/matchmaking/join", s.handleMatchmakingJoin).Methods("POST")
		api.HandleFunc("/matchmaking/tickets/{id}", s.handleMatchmakingStatus).Methods("GET")
		api.HandleFunc("/matchmaking/tickets/{id}", s.handleMatchmakingLeave).Methods("DELETE")
	}

	// Presets
	api.HandleFunc("/presets", s.handleListPresets).Methods("GET")

	// WebSocket
	if s.hub != nil {
		s.router.HandleFunc("/ws", s.hub.ServeWS)
	}

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusForError maps service errors onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, session.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrGameStillLive),
		errors.Is(err, session.ErrGameAlreadyExists),
		errors.Is(err, engine.ErrAlreadyStarted):
		return http.StatusConflict
	case errors.Is(err, matchmaking.ErrTicketNotFound):
		return http.StatusNotFound
	case errors.Is(err, matchmaking.ErrAlreadyQueued):
		return http.StatusConflict
	default:
		if _, ok := engine.AsMoveError(err); ok {
			return http.StatusConflict
		}
		return http.StatusInternalServerError
	}
}

// Game Handlers

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Player0 string `json:"player0"`
		Player1 string `json:"player1"`
		Preset  string `json:"preset,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	info, err := s.service.CreateGame(r.Context(), req.Player0, req.Player1, req.Preset)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.service.ListGames(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	query := r.URL.Query()
	if phase := query.Get("phase"); phase != "" {
		filtered := games[:0]
		for _, g := range games {
			if string(g.Phase) == phase {
				filtered = append(filtered, g)
			}
		}
		games = filtered
	}

	sort.Slice(games, func(i, j int) bool {
		return games[i].CreatedAt.After(games[j].CreatedAt)
	})

	limit := len(games)
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(games) {
			limit = l
		}
	}
	games = games[:limit]

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(games),
		"games": games,
	})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	info, err := s.service.GetGame(r.Context(), gameID)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	if err := s.service.DeleteGame(r.Context(), gameID); err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Game %s deleted", gameID),
	})
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	info, err := s.service.StartGame(r.Context(), gameID)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleSubmitMove(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	var req service.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.SubmitMove(r.Context(), gameID, req)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	// A rejection is a well-formed outcome, delivered with a conflict
	// status so blind clients notice.
	if !result.Accepted {
		respondJSON(w, http.StatusConflict, result)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetActionLog(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	log, err := s.service.GetActionLog(r.Context(), gameID)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, log)
}

func (s *Server) handleReplayGame(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	replay, err := s.service.ReplayGame(r.Context(), gameID)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, replay)
}

// Matchmaking Handlers

func (s *Server) handleMatchmakingInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]int{"waiting": s.queue.Waiting()})
}

func (s *Server) handleMatchmakingJoin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Player string `json:"player"`
		Preset string `json:"preset,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.queue.Join(r.Context(), req.Player, req.Preset)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	status := http.StatusAccepted
	if result.Matched {
		status = http.StatusOK
	}
	respondJSON(w, status, result)
}

func (s *Server) handleMatchmakingStatus(w http.ResponseWriter, r *http.Request) {
	ticketID := mux.Vars(r)["id"]

	ticket, err := s.queue.Status(ticketID)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, ticket)
}

func (s *Server) handleMatchmakingLeave(w http.ResponseWriter, r *http.Request) {
	ticketID := mux.Vars(r)["id"]

	if err := s.queue.Leave(ticketID); err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Ticket %s withdrawn", ticketID),
	})
}

// Preset Handlers

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := s.service.ListPresets(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, presets)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
