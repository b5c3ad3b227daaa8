package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justinabrahms/clickchess/internal/chess"
)

type rawUpdate struct {
	GameID string          `json:"gameId"`
	Type   UpdateType      `json:"type"`
	Data   json.RawMessage `json:"data"`
}

func dial(t *testing.T, srv *httptest.Server, gameID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?gameId=" + gameID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readUpdate(t *testing.T, conn *websocket.Conn) rawUpdate {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var update rawUpdate
	require.NoError(t, conn.ReadJSON(&update))
	return update
}

func readSnapshot(t *testing.T, conn *websocket.Conn) chess.Snapshot {
	t.Helper()

	update := readUpdate(t, conn)
	require.Equal(t, UpdateSnapshot, update.Type)
	var snap chess.Snapshot
	require.NoError(t, json.Unmarshal(update.Data, &snap))
	return snap
}

func TestWebSocketRejectsUnknownGame(t *testing.T) {
	srv := httptest.NewServer(newTestService(t).Router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?gameId=missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	url = "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err = websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocketSendsInitialSnapshot(t *testing.T) {
	svc := newTestService(t)
	srv := httptest.NewServer(svc.Router())
	defer srv.Close()

	game, err := svc.store.Create(chess.NewEngine(chess.DefaultRules()))
	require.NoError(t, err)

	conn := dial(t, srv, game.ID)
	snap := readSnapshot(t, conn)
	assert.Equal(t, chess.White, snap.Turn)
	assert.Equal(t, game.Snapshot().FEN, snap.FEN)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "ping"}))
	assert.Equal(t, UpdatePong, readUpdate(t, conn).Type)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "snapshot"}))
	assert.Equal(t, snap, readSnapshot(t, conn))

	// registration happened before the first snapshot was queued
	resp, err := http.Get(srv.URL + "/api/games/" + game.ID)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body GameResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.Viewers)
}

func TestWebSocketClicksAreBroadcastToGameViewers(t *testing.T) {
	svc := newTestService(t)
	srv := httptest.NewServer(svc.Router())
	defer srv.Close()

	game, err := svc.store.Create(chess.NewEngine(chess.DefaultRules()))
	require.NoError(t, err)
	other, err := svc.store.Create(chess.NewEngine(chess.DefaultRules()))
	require.NoError(t, err)

	player := dial(t, srv, game.ID)
	viewer := dial(t, srv, game.ID)
	outsider := dial(t, srv, other.ID)
	readSnapshot(t, player)
	readSnapshot(t, viewer)
	readSnapshot(t, outsider)

	// select e2
	require.NoError(t, player.WriteJSON(ClientMessage{Type: "click", Row: 6, Col: 4}))
	for _, conn := range []*websocket.Conn{player, viewer} {
		snap := readSnapshot(t, conn)
		require.NotNil(t, snap.Selection)
		assert.Equal(t, chess.Square{Row: 6, Col: 4}, *snap.Selection)
	}

	// move to e4
	require.NoError(t, player.WriteJSON(ClientMessage{Type: "click", Row: 4, Col: 4}))
	for _, conn := range []*websocket.Conn{player, viewer} {
		update := readUpdate(t, conn)
		require.Equal(t, UpdateMove, update.Type)

		var resp GameResponse
		require.NoError(t, json.Unmarshal(update.Data, &resp))
		assert.Equal(t, game.ID, resp.GameID)
		assert.Equal(t, "e2", resp.Outcome.From)
		assert.Equal(t, "e4", resp.Outcome.To)
		assert.Equal(t, chess.Black, resp.Snapshot.Turn)
	}

	// nothing from the other game reaches this socket
	require.NoError(t, outsider.WriteJSON(ClientMessage{Type: "ping"}))
	assert.Equal(t, UpdatePong, readUpdate(t, outsider).Type)
	assert.Equal(t, chess.White, other.Snapshot().Turn)
}

func TestWebSocketClickErrorsGoToSenderOnly(t *testing.T) {
	svc := newTestService(t)
	srv := httptest.NewServer(svc.Router())
	defer srv.Close()

	game, err := svc.store.Create(chess.NewEngine(chess.DefaultRules()))
	require.NoError(t, err)

	player := dial(t, srv, game.ID)
	readSnapshot(t, player)

	require.NoError(t, player.WriteJSON(ClientMessage{Type: "click", Row: 9, Col: 9}))
	update := readUpdate(t, player)
	assert.Equal(t, UpdateError, update.Type)

	require.NoError(t, player.WriteMessage(websocket.TextMessage, []byte("{not json")))
	update = readUpdate(t, player)
	assert.Equal(t, UpdateError, update.Type)
}

func TestWebSocketAnnouncesCheckmate(t *testing.T) {
	svc := newTestService(t)
	srv := httptest.NewServer(svc.Router())
	defer srv.Close()

	engine, err := chess.NewEngineFromFEN("rnbqkbnr/pppp1ppp/8/4p3/6P1/5P2/PPPPP2P/RNBQKBNR b KQkq - 0 2", chess.DefaultRules())
	require.NoError(t, err)
	game, err := svc.store.Create(engine)
	require.NoError(t, err)

	conn := dial(t, srv, game.ID)
	readSnapshot(t, conn)

	// Qd8-h4
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "click", Row: 0, Col: 3}))
	readSnapshot(t, conn)
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "click", Row: 4, Col: 7}))

	assert.Equal(t, UpdateMove, readUpdate(t, conn).Type)
	update := readUpdate(t, conn)
	require.Equal(t, UpdateCheckmate, update.Type)

	var notes []string
	require.NoError(t, json.Unmarshal(update.Data, &notes))
	assert.Equal(t, []string{"White is in check", "Black wins by checkmate"}, notes)
}

func TestHubStopsWithContext(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	hub.BroadcastGameUpdate(GameUpdate{GameID: "nobody", Type: UpdateSnapshot})
	cancel()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("hub did not stop")
	}
	assert.Equal(t, 0, hub.ClientCount("nobody"))
}
