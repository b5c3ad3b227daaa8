package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// WebSocket upgrader with reasonable settings
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type UpdateType string

const (
	UpdateSnapshot  UpdateType = "snapshot"
	UpdateMove      UpdateType = "move"
	UpdateCheck     UpdateType = "check"
	UpdateCheckmate UpdateType = "checkmate"
	UpdateGameOver  UpdateType = "gameover"
	UpdateError     UpdateType = "error"
	UpdatePong      UpdateType = "pong"
)

// GameUpdate represents an update to broadcast
type GameUpdate struct {
	GameID string      `json:"gameId"`
	Type   UpdateType  `json:"type"`
	Data   interface{} `json:"data,omitempty"`
}

// ClientMessage is what a browser sends over the socket.
type ClientMessage struct {
	Type string `json:"type"` // "click", "snapshot", "ping"
	Row  int    `json:"row"`
	Col  int    `json:"col"`
}

// Hub maintains active WebSocket connections
type Hub struct {
	// Registered clients by game ID
	gameClients map[string]map[*Client]bool

	// Broadcast channel for game updates
	broadcast chan GameUpdate

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	mu sync.RWMutex
}

// Client represents a WebSocket connection
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	gameID string
	handle func(c *Client, msg ClientMessage)
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		gameClients: make(map[string]map[*Client]bool),
		broadcast:   make(chan GameUpdate, 256),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		done:        make(chan struct{}),
	}
}

// Run starts the hub's main event loop. It returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.gameClients[client.gameID] == nil {
				h.gameClients[client.gameID] = make(map[*Client]bool)
			}
			h.gameClients[client.gameID][client] = true
			h.mu.Unlock()

			log.Info().Str("gameID", client.gameID).Msg("Client connected to game")

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.gameClients[client.gameID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)

					// Clean up empty game rooms
					if len(clients) == 0 {
						delete(h.gameClients, client.gameID)
					}
				}
			}
			h.mu.Unlock()

			log.Info().Str("gameID", client.gameID).Msg("Client disconnected from game")

		case update := <-h.broadcast:
			message, err := json.Marshal(update)
			if err != nil {
				log.Error().Err(err).Msg("Failed to marshal game update")
				continue
			}

			h.mu.Lock()
			for client := range h.gameClients[update.GameID] {
				select {
				case client.send <- message:
				default:
					// Client is not keeping up; drop it and let its pumps exit
					delete(h.gameClients[update.GameID], client)
					client.conn.Close()
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastGameUpdate sends an update to all clients watching a game
func (h *Hub) BroadcastGameUpdate(update GameUpdate) {
	select {
	case h.broadcast <- update:
	default:
		log.Warn().Str("gameID", update.GameID).Msg("Broadcast channel full, dropping update")
	}
}

// ClientCount returns how many sockets are watching a game.
func (h *Hub) ClientCount(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.gameClients[gameID])
}

// WebSocketHandler handles WebSocket upgrade requests
func (s *Service) WebSocketHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Get game ID from query params
		gameID := r.URL.Query().Get("gameId")
		if gameID == "" {
			http.Error(w, "Missing gameId parameter", http.StatusBadRequest)
			return
		}

		game, err := s.store.Get(gameID)
		if err != nil {
			http.Error(w, "Game not found", http.StatusNotFound)
			return
		}

		// Upgrade connection
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
			return
		}

		client := &Client{
			hub:    hub,
			conn:   conn,
			send:   make(chan []byte, 256),
			gameID: gameID,
			handle: s.handleSocketMessage,
		}

		select {
		case client.hub.register <- client:
		case <-client.hub.done:
			conn.Close()
			return
		}
		client.sendUpdate(GameUpdate{GameID: gameID, Type: UpdateSnapshot, Data: game.Snapshot()})

		go client.writePump()
		go client.readPump()
	}
}

// handleSocketMessage routes one client message into the game.
func (s *Service) handleSocketMessage(c *Client, msg ClientMessage) {
	switch msg.Type {
	case "ping":
		c.sendUpdate(GameUpdate{GameID: c.gameID, Type: UpdatePong})

	case "snapshot":
		game, err := s.store.Get(c.gameID)
		if err != nil {
			c.sendUpdate(GameUpdate{GameID: c.gameID, Type: UpdateError, Data: err.Error()})
			return
		}
		c.sendUpdate(GameUpdate{GameID: c.gameID, Type: UpdateSnapshot, Data: game.Snapshot()})

	case "click":
		game, err := s.store.Get(c.gameID)
		if err == nil {
			_, err = s.click(game, msg.Row, msg.Col)
		}
		if err != nil {
			c.sendUpdate(GameUpdate{GameID: c.gameID, Type: UpdateError, Data: err.Error()})
		}

	default:
		log.Debug().Str("gameID", c.gameID).Str("type", msg.Type).Msg("Ignoring unknown socket message")
	}
}

// sendUpdate queues an update for this client only.
func (c *Client) sendUpdate(update GameUpdate) {
	data, err := json.Marshal(update)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal game update")
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// readPump handles incoming messages from the WebSocket
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Msg("WebSocket error")
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendUpdate(GameUpdate{GameID: c.gameID, Type: UpdateError, Data: "invalid message"})
			continue
		}
		c.handle(c, msg)
	}
}

// writePump handles sending messages to the WebSocket. Each update goes out
// as its own text frame.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
