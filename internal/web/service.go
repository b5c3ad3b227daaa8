package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/justinabrahms/clickchess/internal/chess"
	"github.com/justinabrahms/clickchess/internal/config"
	"github.com/justinabrahms/clickchess/internal/session"
)

type Service struct {
	store  *session.Store
	hub    *Hub
	config *config.Config
}

func NewService(store *session.Store, hub *Hub, config *config.Config) *Service {
	return &Service{
		store:  store,
		hub:    hub,
		config: config,
	}
}

// Router wires every API route, the websocket endpoint and the static board
// page.
func (s *Service) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)
	// preflight requests for any path
	router.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.HealthHandler).Methods("GET")
	api.HandleFunc("/games", s.CreateGameHandler).Methods("POST")
	api.HandleFunc("/games/{id}", s.GetGameHandler).Methods("GET")
	api.HandleFunc("/games/{id}", s.DeleteGameHandler).Methods("DELETE")
	api.HandleFunc("/games/{id}/clicks", s.ClickHandler).Methods("POST")
	api.HandleFunc("/games/{id}/moves", s.MakeMoveHandler).Methods("POST")
	api.HandleFunc("/games/{id}/reset", s.ResetGameHandler).Methods("POST")

	router.HandleFunc("/ws", s.WebSocketHandler(s.hub))

	if s.config != nil && s.config.Server.StaticDir != "" {
		router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.config.Server.StaticDir)))
	}

	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusFor maps engine and store errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, chess.ErrOutOfRange),
		errors.Is(err, chess.ErrInvalidSquare),
		errors.Is(err, chess.ErrInvalidFEN):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, chess.ErrGameOver), errors.Is(err, chess.ErrIllegalMove):
		return http.StatusConflict
	case errors.Is(err, session.ErrTooManyGames):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Service) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"games":  s.store.Len(),
	})
}

// GameResponse is returned by every endpoint that changes or reads a game.
type GameResponse struct {
	GameID        string             `json:"gameId"`
	Snapshot      chess.Snapshot     `json:"snapshot"`
	Click         *chess.ClickResult `json:"click,omitempty"`
	Outcome       *chess.MoveOutcome `json:"outcome,omitempty"`
	Notifications []string           `json:"notifications,omitempty"`
	// Viewers counts open websockets on the game.
	Viewers int `json:"viewers,omitempty"`
}

type CreateGameRequest struct {
	FEN string `json:"fen,omitempty"`
}

func (s *Service) CreateGameHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	// an empty body starts from the standard position
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rules := chess.DefaultRules()
	if s.config != nil {
		rules = s.config.Rules.Engine()
	}

	engine := chess.NewEngine(rules)
	if req.FEN != "" {
		var err error
		engine, err = chess.NewEngineFromFEN(req.FEN, rules)
		if err != nil {
			log.Error().Err(err).Str("fen", req.FEN).Msg("Invalid FEN")
			http.Error(w, "Invalid FEN", http.StatusBadRequest)
			return
		}
	}

	game, err := s.store.Create(engine)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create game")
		http.Error(w, "Failed to create game", statusFor(err))
		return
	}

	log.Info().Str("gameID", game.ID).Str("fen", engine.FEN()).Msg("Game created")

	writeJSON(w, http.StatusCreated, GameResponse{
		GameID:   game.ID,
		Snapshot: game.Snapshot(),
	})
}

func (s *Service) lookup(w http.ResponseWriter, r *http.Request) (*session.Game, bool) {
	gameID := mux.Vars(r)["id"]
	if gameID == "" {
		http.Error(w, "Missing game ID", http.StatusBadRequest)
		return nil, false
	}

	game, err := s.store.Get(gameID)
	if err != nil {
		log.Warn().Err(err).Str("gameID", gameID).Msg("Game lookup failed")
		http.Error(w, "Game not found", http.StatusNotFound)
		return nil, false
	}
	return game, true
}

func (s *Service) GetGameHandler(w http.ResponseWriter, r *http.Request) {
	game, ok := s.lookup(w, r)
	if !ok {
		return
	}

	resp := GameResponse{
		GameID:   game.ID,
		Snapshot: game.Snapshot(),
	}
	if s.hub != nil {
		resp.Viewers = s.hub.ClientCount(game.ID)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) DeleteGameHandler(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]
	if !s.store.Delete(gameID) {
		http.Error(w, "Game not found", http.StatusNotFound)
		return
	}

	log.Info().Str("gameID", gameID).Msg("Game deleted")
	w.WriteHeader(http.StatusNoContent)
}

type ClickRequest struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (s *Service) ClickHandler(w http.ResponseWriter, r *http.Request) {
	game, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req ClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := s.click(game, req.Row, req.Col)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// click is the single entry point for a square click, shared by the HTTP
// and websocket transports. Every viewer of the game is sent the result.
func (s *Service) click(game *session.Game, row, col int) (*GameResponse, error) {
	sq, err := chess.NewSquare(row, col)
	if err != nil {
		log.Warn().Err(err).Str("gameID", game.ID).Msg("Click rejected")
		return nil, err
	}

	resp := &GameResponse{GameID: game.ID}
	err = game.Do(func(e *chess.Engine) error {
		result, err := e.Click(sq)
		if err != nil {
			return err
		}
		resp.Click = result
		resp.Outcome = result.Outcome
		resp.Snapshot = e.Snapshot()
		if result.Outcome != nil {
			board := e.Board()
			log.Debug().Str("gameID", game.ID).Str("board", board.Draw()).Msg("Position after move")
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("gameID", game.ID).Str("square", sq.String()).Msg("Click failed")
		return nil, err
	}

	if resp.Outcome != nil {
		resp.Notifications = resp.Outcome.Notifications()
		log.Info().
			Str("gameID", game.ID).
			Str("from", resp.Outcome.From).
			Str("to", resp.Outcome.To).
			Bool("checkmate", resp.Outcome.Checkmate).
			Str("fen", resp.Outcome.FEN).
			Msg("Move executed successfully")
	}

	s.publish(resp)
	return resp, nil
}

type MakeMoveRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (s *Service) MakeMoveHandler(w http.ResponseWriter, r *http.Request) {
	game, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req MakeMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp := &GameResponse{GameID: game.ID}
	err := game.Do(func(e *chess.Engine) error {
		outcome, err := e.MakeMove(req.From, req.To)
		if err != nil {
			return err
		}
		resp.Outcome = outcome
		resp.Snapshot = e.Snapshot()
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("gameID", game.ID).Str("from", req.From).Str("to", req.To).Msg("Invalid move")
		http.Error(w, "Invalid move: "+err.Error(), statusFor(err))
		return
	}

	resp.Notifications = resp.Outcome.Notifications()
	log.Info().Str("gameID", game.ID).Str("from", req.From).Str("to", req.To).Bool("checkmate", resp.Outcome.Checkmate).Msg("Move executed successfully")

	s.publish(resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) ResetGameHandler(w http.ResponseWriter, r *http.Request) {
	game, ok := s.lookup(w, r)
	if !ok {
		return
	}

	resp := &GameResponse{GameID: game.ID}
	_ = game.Do(func(e *chess.Engine) error {
		e.Reset()
		resp.Snapshot = e.Snapshot()
		return nil
	})

	log.Info().Str("gameID", game.ID).Msg("Game reset")

	s.publish(resp)
	writeJSON(w, http.StatusOK, resp)
}

// publish fans a game response out to websocket viewers: the new snapshot,
// the move itself, and one update per notification.
func (s *Service) publish(resp *GameResponse) {
	if s.hub == nil {
		return
	}

	if resp.Outcome == nil {
		s.hub.BroadcastGameUpdate(GameUpdate{GameID: resp.GameID, Type: UpdateSnapshot, Data: resp.Snapshot})
		return
	}

	s.hub.BroadcastGameUpdate(GameUpdate{GameID: resp.GameID, Type: UpdateMove, Data: resp})
	if resp.Outcome.Check != chess.NoColor && !resp.Outcome.Checkmate {
		s.hub.BroadcastGameUpdate(GameUpdate{GameID: resp.GameID, Type: UpdateCheck, Data: resp.Notifications})
	}
	if resp.Outcome.Checkmate {
		s.hub.BroadcastGameUpdate(GameUpdate{GameID: resp.GameID, Type: UpdateCheckmate, Data: resp.Notifications})
	}
	if resp.Outcome.KingCaptured {
		s.hub.BroadcastGameUpdate(GameUpdate{GameID: resp.GameID, Type: UpdateGameOver, Data: resp.Notifications})
	}
}
