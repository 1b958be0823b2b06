package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yourusername/bgrules/pkg/engine"
)

const startingPositionID = "4HPwATDgc/ABMA"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewServer(cfg, "test-version")
	t.Cleanup(s.sessions.CloseAll)
	return s
}

// do sends a JSON request through the full handler chain.
func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			r = strings.NewReader(b)
		default:
			data, err := json.Marshal(b)
			if err != nil {
				t.Fatalf("Marshal error: %v", err)
			}
			r = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("Decode error: %v (body %q)", err, w.Body.String())
	}
	return v
}

// createGame starts a game whose dice replay rolls.
func createGame(t *testing.T, h http.Handler, rolls ...[2]int) GameResponse {
	t.Helper()
	w := do(t, h, "POST", "/api/games", NewGameRequest{Rolls: rolls})
	if w.Code != http.StatusCreated {
		t.Fatalf("Create status = %d, want %d (body %s)", w.Code, http.StatusCreated, w.Body)
	}
	return decode[GameResponse](t, w)
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) ErrorResponse {
	t.Helper()
	if w.Code != status {
		t.Fatalf("Status = %d, want %d (body %s)", w.Code, status, w.Body)
	}
	e := decode[ErrorResponse](t, w)
	if e.Code != code {
		t.Errorf("Code = %q, want %q", e.Code, code)
	}
	return e
}

func TestHealthHandler(t *testing.T) {
	h := NewHandlers(NewSessionManager(0, time.Minute, nil, nil), "test-version")

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()

	h.Health(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Health status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("Decode error: %v", err)
	}

	if health.Status != "ok" {
		t.Errorf("Status = %q, want %q", health.Status, "ok")
	}
	if health.Version != "test-version" {
		t.Errorf("Version = %q, want %q", health.Version, "test-version")
	}
	if health.Pool != nil {
		t.Error("Pool stats reported without a pool")
	}
}

func TestCreateGame(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	w := do(t, h, "POST", "/api/games", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusCreated)
	}
	game := decode[GameResponse](t, w)

	if game.ID == "" {
		t.Fatal("Game has no id")
	}
	if got := w.Header().Get("Location"); got != "/api/games/"+game.ID {
		t.Errorf("Location = %q", got)
	}
	if game.PositionID != startingPositionID {
		t.Errorf("PositionID = %q, want %q", game.PositionID, startingPositionID)
	}
	if game.Player != engine.White || game.State != engine.AwaitingRoll {
		t.Errorf("Player/State = %s/%s, want white/awaiting_roll", game.Player, game.State)
	}

	w = do(t, h, "GET", "/api/games/"+game.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Get status = %d", w.Code)
	}
	if got := decode[GameResponse](t, w); got.ID != game.ID {
		t.Errorf("Get returned %q, want %q", got.ID, game.ID)
	}

	w = do(t, h, "GET", "/api/health", nil)
	if health := decode[HealthResponse](t, w); health.Sessions != 1 || health.Pool == nil {
		t.Errorf("Health = %+v, want 1 session and pool stats", health)
	}
}

func TestCreateGameOptions(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	w := do(t, h, "POST", "/api/games", NewGameRequest{Layout: "bearoff", First: engine.Black, Doubles: "four"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Status = %d (body %s)", w.Code, w.Body)
	}
	game := decode[GameResponse](t, w)
	if game.Player != engine.Black {
		t.Errorf("Player = %s, want black", game.Player)
	}
	for _, p := range game.Points[6:18] {
		if p.Count != 0 {
			t.Errorf("Point %d holds %d stones in a bear-off layout", p.Point, p.Count)
		}
	}

	w = do(t, h, "POST", "/api/games", NewGameRequest{Position: startingPositionID})
	if w.Code != http.StatusCreated {
		t.Fatalf("Position status = %d (body %s)", w.Code, w.Body)
	}
	if game := decode[GameResponse](t, w); game.PositionID != startingPositionID {
		t.Errorf("PositionID = %q, want %q", game.PositionID, startingPositionID)
	}
}

func TestCreateGameInvalid(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	tests := []struct {
		name string
		body any
		code string
	}{
		{"malformed json", `{"layout":`, "INVALID_JSON"},
		{"unknown layout", NewGameRequest{Layout: "nackgammon"}, "INVALID_GAME"},
		{"bad position", NewGameRequest{Position: "not-an-id"}, "INVALID_GAME"},
		{"bad doubles rule", NewGameRequest{Doubles: "eight"}, "INVALID_GAME"},
		{"bad scripted roll", NewGameRequest{Rolls: [][2]int{{7, 1}}}, "INVALID_GAME"},
		{"short stones", NewGameRequest{Stones: engine.Layout{{Color: engine.White, At: engine.PointAt(6), Count: 3}}}, "INVALID_GAME"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, "POST", "/api/games", tt.body)
			expectError(t, w, http.StatusBadRequest, tt.code)
		})
	}
	if n := s.Sessions().Len(); n != 0 {
		t.Errorf("Sessions = %d after rejected creates, want 0", n)
	}
}

func TestPlayTurn(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	game := createGame(t, h, [2]int{6, 5}, [2]int{3, 1})
	base := "/api/games/" + game.ID

	// Moving or selecting before the roll is a rejected move, not a protocol error.
	e := expectError(t, do(t, h, "POST", base+"/move", MoveRequest{Move: "24/18"}), http.StatusUnprocessableEntity, "NO_DICE")
	if e.Reason == "" {
		t.Error("Move before roll carries no reason")
	}
	expectError(t, do(t, h, "POST", base+"/select", `{"at":"13"}`), http.StatusUnprocessableEntity, "NO_DICE")

	w := do(t, h, "POST", base+"/roll", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Roll status = %d (body %s)", w.Code, w.Body)
	}
	roll := decode[RollResponse](t, w)
	if roll.Roll != [2]int{6, 5} {
		t.Errorf("Roll = %v, want [6 5]", roll.Roll)
	}
	if roll.Game.State != engine.TurnActive {
		t.Errorf("State = %s, want turn_active", roll.Game.State)
	}

	expectError(t, do(t, h, "POST", base+"/roll", nil), http.StatusConflict, "ALREADY_ROLLED")

	e = expectError(t, do(t, h, "POST", base+"/move", MoveRequest{Move: "24/19"}), http.StatusUnprocessableEntity, "BLOCKED")
	if e.Reason == "" {
		t.Error("Rejected move carries no reason")
	}

	w = do(t, h, "POST", base+"/move", MoveRequest{Move: "24/18"})
	if w.Code != http.StatusOK {
		t.Fatalf("Move status = %d (body %s)", w.Code, w.Body)
	}
	after := decode[GameResponse](t, w)
	if len(after.Dice) != 1 || after.Dice[0] != 5 {
		t.Errorf("Dice = %v, want [5]", after.Dice)
	}
	if !after.CanUndo {
		t.Error("CanUndo = false after a move")
	}

	w = do(t, h, "GET", base+"/destinations?from=13", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Destinations status = %d", w.Code)
	}
	dests := decode[DestinationsResponse](t, w)
	if len(dests.Destinations) != 1 || dests.Destinations[0] != engine.PointAt(8) {
		t.Errorf("Destinations from 13 = %v, want [8]", dests.Destinations)
	}

	expectError(t, do(t, h, "GET", base+"/destinations?from=25", nil), http.StatusBadRequest, "INVALID_LOCATION")

	// from/to form finishes the turn
	from, to := engine.PointAt(13), engine.PointAt(8)
	w = do(t, h, "POST", base+"/move", MoveRequest{From: &from, To: &to})
	if w.Code != http.StatusOK {
		t.Fatalf("Move status = %d (body %s)", w.Code, w.Body)
	}
	done := decode[GameResponse](t, w)
	if done.Player != engine.Black || done.State != engine.AwaitingRoll {
		t.Errorf("After turn: player %s state %s, want black awaiting_roll", done.Player, done.State)
	}
}

func TestUndoRedo(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	game := createGame(t, h, [2]int{6, 5})
	base := "/api/games/" + game.ID

	expectError(t, do(t, h, "POST", base+"/undo", nil), http.StatusConflict, "NOTHING_TO_UNDO")

	do(t, h, "POST", base+"/roll", nil)
	moved := decode[GameResponse](t, do(t, h, "POST", base+"/move", MoveRequest{Move: "24/18"}))

	w := do(t, h, "POST", base+"/undo", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Undo status = %d (body %s)", w.Code, w.Body)
	}
	undone := decode[GameResponse](t, w)
	if undone.Points[23].Count != 2 || !undone.CanRedo || undone.CanUndo {
		t.Errorf("After undo: 24 holds %d, can_redo %v, can_undo %v", undone.Points[23].Count, undone.CanRedo, undone.CanUndo)
	}

	w = do(t, h, "POST", base+"/redo", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Redo status = %d (body %s)", w.Code, w.Body)
	}
	if redone := decode[GameResponse](t, w); redone.PositionID != moved.PositionID {
		t.Errorf("Redo PositionID = %q, want %q", redone.PositionID, moved.PositionID)
	}

	expectError(t, do(t, h, "POST", base+"/redo", nil), http.StatusConflict, "NOTHING_TO_REDO")
}

func TestSelectHandler(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	game := createGame(t, h, [2]int{6, 5})
	base := "/api/games/" + game.ID

	do(t, h, "POST", base+"/roll", nil)
	w := do(t, h, "POST", base+"/select", `{"at":"13"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Select status = %d (body %s)", w.Code, w.Body)
	}
	sel := decode[SelectResponse](t, w)
	if sel.From == nil || *sel.From != engine.PointAt(13) {
		t.Fatalf("Select from = %v, want 13", sel.From)
	}
	if len(sel.Destinations) != 2 {
		t.Errorf("Destinations = %v, want 7 and 8", sel.Destinations)
	}
	if sel.Game.Selected == nil {
		t.Error("Snapshot does not show the selection")
	}
}

func TestMoveRequestValidation(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	game := createGame(t, h, [2]int{6, 5})
	base := "/api/games/" + game.ID
	do(t, h, "POST", base+"/roll", nil)

	expectError(t, do(t, h, "POST", base+"/move", MoveRequest{}), http.StatusBadRequest, "INVALID_MOVE")
	expectError(t, do(t, h, "POST", base+"/move", MoveRequest{Move: "24"}), http.StatusBadRequest, "INVALID_MOVE")
	expectError(t, do(t, h, "POST", base+"/move", `{"from":"31","to":"5"}`), http.StatusBadRequest, "INVALID_JSON")
	expectError(t, do(t, h, "POST", base+"/move", MoveRequest{Move: "6/off"}), http.StatusUnprocessableEntity, "CANNOT_BEAR_OFF")
}

func TestGameNotFound(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	for _, tc := range []struct{ method, path string }{
		{"GET", "/api/games/missing"},
		{"POST", "/api/games/missing/roll"},
		{"POST", "/api/games/missing/undo"},
		{"GET", "/api/games/missing/destinations?from=13"},
		{"DELETE", "/api/games/missing"},
	} {
		expectError(t, do(t, h, tc.method, tc.path, nil), http.StatusNotFound, "GAME_NOT_FOUND")
	}
}

func TestDeleteGame(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	game := createGame(t, h)

	w := do(t, h, "DELETE", "/api/games/"+game.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Delete status = %d, want %d", w.Code, http.StatusNoContent)
	}
	expectError(t, do(t, h, "GET", "/api/games/"+game.ID, nil), http.StatusNotFound, "GAME_NOT_FOUND")
}

func TestTooManySessions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg.MaxSessions = 1
	s := NewServer(cfg, "test")
	h := s.Handler()

	createGame(t, h)
	expectError(t, do(t, h, "POST", "/api/games", nil), http.StatusServiceUnavailable, "TOO_MANY_SESSIONS")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()
	game := createGame(t, h, [2]int{6, 5})
	base := "/api/games/" + game.ID

	do(t, h, "POST", base+"/roll", nil)
	do(t, h, "POST", base+"/move", MoveRequest{Move: "24/19"})
	do(t, h, "POST", base+"/move", MoveRequest{Move: "24/18"})

	w := do(t, h, "GET", "/metrics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Metrics status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`bgrules_moves_total{result="ok"} 1`,
		`bgrules_moves_total{result="BLOCKED"} 1`,
		`bgrules_rolls_total 1`,
		`bgrules_sessions_active 1`,
		`bgrules_http_request_duration_seconds_count{route="POST /api/games/{id}/move"} 2`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Metrics missing %q", want)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s.Handler(), "OPTIONS", "/api/games", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Preflight status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

// ============================================================================
// Stream Tests
// ============================================================================

// readSSE returns the next event name and data line.
func readSSE(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("Read SSE: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "" && event != "":
			return event, data
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestEventsStream(t *testing.T) {
	s := newTestServer(t)
	server := httptest.NewServer(s.Handler())
	defer server.Close()
	game := createGame(t, s.Handler(), [2]int{6, 5})

	resp, err := http.Get(server.URL + "/api/games/" + game.ID + "/events")
	if err != nil {
		t.Fatalf("GET events: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
	r := bufio.NewReader(resp.Body)

	event, data := readSSE(t, r)
	if event != "state" || !strings.Contains(data, game.ID) {
		t.Fatalf("First event = %s %s, want state", event, data)
	}

	do(t, s.Handler(), "POST", "/api/games/"+game.ID+"/roll", nil)

	event, data = readSSE(t, r)
	if event != "rolled" {
		t.Fatalf("Event = %q, want rolled", event)
	}
	var ev engine.Event
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		t.Fatalf("Decode event: %v", err)
	}
	if ev.Roll != [2]int{6, 5} || ev.Player != engine.White {
		t.Errorf("Rolled event = %+v", ev)
	}

	s.Sessions().Delete(game.ID)
	if event, _ = readSSE(t, r); event != "closed" {
		t.Errorf("Event after delete = %q, want closed", event)
	}
}

// ============================================================================
// WebSocket Tests
// ============================================================================

func dialGame(t *testing.T, server *httptest.Server, id string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/games/" + id + "/ws"
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("WebSocket dial failed: %v", err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Errorf("Status = %d, want %d", resp.StatusCode, http.StatusSwitchingProtocols)
	}
	return ws
}

// readUntil reads messages until one satisfies match.
func readUntil(t *testing.T, ws *websocket.Conn, match func(WSResponse) bool) WSResponse {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var resp WSResponse
		if err := ws.ReadJSON(&resp); err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if match(resp) {
			return resp
		}
	}
}

func TestWebSocketPlay(t *testing.T) {
	s := newTestServer(t)
	server := httptest.NewServer(s.Handler())
	defer server.Close()
	game := createGame(t, s.Handler(), [2]int{6, 5})

	ws := dialGame(t, server, game.ID)
	defer ws.Close()

	first := readUntil(t, ws, func(r WSResponse) bool { return true })
	if first.Type != "state" || first.Game == nil || first.Game.ID != game.ID {
		t.Fatalf("First message = %+v, want state", first)
	}

	ws.WriteJSON(WSMessage{Type: "roll", ID: "r1"})
	reply := readUntil(t, ws, func(r WSResponse) bool { return r.ID == "r1" })
	if reply.Type != "state" || reply.Game.State != engine.TurnActive {
		t.Fatalf("Roll reply = %+v", reply)
	}

	ws.WriteJSON(WSMessage{Type: "move", ID: "m1", Move: "24/19"})
	reply = readUntil(t, ws, func(r WSResponse) bool { return r.ID == "m1" })
	if reply.Type != "error" || reply.Code != "BLOCKED" {
		t.Errorf("Blocked move reply = %+v", reply)
	}

	ws.WriteJSON(WSMessage{Type: "move", ID: "m2", Move: "24/18"})
	ev := readUntil(t, ws, func(r WSResponse) bool { return r.Type == "event" && r.Event.Kind == engine.EventMoved })
	if ev.Event.Move.String() != "24/18" {
		t.Errorf("Moved event = %+v", ev.Event)
	}

	ws.WriteJSON(WSMessage{Type: "select"})
	reply = readUntil(t, ws, func(r WSResponse) bool { return r.Type == "error" })
	if reply.Code != "INVALID_LOCATION" {
		t.Errorf("Select without location = %+v", reply)
	}
}

func TestWebSocketPing(t *testing.T) {
	s := newTestServer(t)
	server := httptest.NewServer(s.Handler())
	defer server.Close()
	game := createGame(t, s.Handler())

	ws := dialGame(t, server, game.ID)
	defer ws.Close()

	if err := ws.WriteJSON(WSMessage{Type: "ping", ID: "test-ping-1"}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	resp := readUntil(t, ws, func(r WSResponse) bool { return r.Type != "state" })
	if resp.Type != "pong" {
		t.Errorf("Response type = %q, want %q", resp.Type, "pong")
	}
	if resp.ID != "test-ping-1" {
		t.Errorf("Response ID = %q, want %q", resp.ID, "test-ping-1")
	}

	ws.WriteJSON(WSMessage{Type: "resign", ID: "x"})
	resp = readUntil(t, ws, func(r WSResponse) bool { return r.ID == "x" })
	if resp.Type != "error" || resp.Code != "UNKNOWN_TYPE" {
		t.Errorf("Unknown type reply = %+v", resp)
	}
}

func TestWebSocketUnknownGame(t *testing.T) {
	s := newTestServer(t)
	server := httptest.NewServer(s.Handler())
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/games/missing/ws"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("Dial succeeded for a missing game")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("Response = %v, want 404", resp)
	}
}
