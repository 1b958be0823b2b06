package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/yourusername/bgrules/pkg/engine"
)

const maxBodyBytes = 64 << 10

// GameDefaults are applied to new games whose request leaves a setting
// out.
type GameDefaults struct {
	Layout    engine.Layout        // nil means the standard layout
	Rules     engine.Rules         // doubles rule
	NewRoller func() engine.Roller // nil means a time-seeded roller
}

// Handlers holds the HTTP handlers and the sessions they act on.
type Handlers struct {
	sessions *SessionManager
	version  string
	pool     *WorkerPool
	metrics  *Metrics
	logger   *slog.Logger
	defaults GameDefaults
}

// NewHandlers creates a new Handlers instance without a worker pool.
func NewHandlers(sessions *SessionManager, version string) *Handlers {
	return &Handlers{
		sessions: sessions,
		version:  version,
		logger:   slog.Default(),
		defaults: GameDefaults{Rules: engine.DefaultRules()},
	}
}

// NewHandlersWithPool creates a new Handlers instance with a worker pool.
func NewHandlersWithPool(sessions *SessionManager, version string, pool *WorkerPool) *Handlers {
	h := NewHandlers(sessions, version)
	h.pool = pool
	return h
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, msg string, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: msg,
		Code:  code,
	})
}

// classify maps an engine error to an HTTP status and error body.
func classify(err error) (int, ErrorResponse) {
	var me *engine.MoveError
	switch {
	case errors.As(err, &me):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: me.Reason.Code(), Reason: me.Reason.String()}
	case errors.Is(err, engine.ErrInvariant):
		return http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "INVARIANT_VIOLATION"}
	case errors.Is(err, engine.ErrInvalidState):
		return http.StatusConflict, ErrorResponse{Error: err.Error(), Code: stateCode(err)}
	case errors.Is(err, ErrTooManySessions):
		return http.StatusServiceUnavailable, ErrorResponse{Error: err.Error(), Code: "TOO_MANY_SESSIONS"}
	}
	return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "BAD_REQUEST"}
}

func stateCode(err error) string {
	switch {
	case errors.Is(err, engine.ErrAlreadyRolled):
		return "ALREADY_ROLLED"
	case errors.Is(err, engine.ErrNotRolled):
		return "NOT_ROLLED"
	case errors.Is(err, engine.ErrNothingToUndo):
		return "NOTHING_TO_UNDO"
	case errors.Is(err, engine.ErrNothingToRedo):
		return "NOTHING_TO_REDO"
	case errors.Is(err, engine.ErrGameOver):
		return "GAME_OVER"
	}
	return "INVALID_STATE"
}

func (h *Handlers) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, body)
}

// acquire takes a request slot when a pool is configured. The returned
// release func is never nil.
func (h *Handlers) acquire(w http.ResponseWriter, r *http.Request) (func(), bool) {
	if h.pool == nil {
		return func() {}, true
	}
	if err := h.pool.Acquire(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "server busy", "SERVER_BUSY")
		return nil, false
	}
	return h.pool.Release, true
}

// session resolves the {id} path value.
func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := r.PathValue("id")
	s, ok := h.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("game %q not found", id), "GAME_NOT_FOUND")
	}
	return s, ok
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", "INVALID_JSON")
		return false
	}
	return true
}

func gameResponse(s *Session) GameResponse {
	return GameResponse{ID: s.ID, Snapshot: s.Game.Snapshot()}
}

// Health handles GET /api/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Version:  h.version,
		Sessions: h.sessions.Len(),
	}
	if h.pool != nil {
		stats := h.pool.Stats()
		resp.Pool = &stats
	}
	writeJSON(w, http.StatusOK, resp)
}

// gameOptions turns a creation request into engine options.
func (h *Handlers) gameOptions(req NewGameRequest) ([]engine.Option, error) {
	rules := h.defaults.Rules
	if req.Doubles != "" {
		d, err := engine.ParseDoublesRule(req.Doubles)
		if err != nil {
			return nil, err
		}
		rules.Doubles = d
	}

	first := engine.White
	if req.First.Valid() {
		first = req.First
	}

	var l engine.Layout
	switch {
	case len(req.Stones) > 0:
		l = req.Stones
	case req.Position != "":
		var err error
		if l, err = engine.LayoutFromPositionID(req.Position, first); err != nil {
			return nil, err
		}
	case req.Layout != "":
		preset, ok := engine.Presets[req.Layout]
		if !ok {
			return nil, fmt.Errorf("unknown layout %q", req.Layout)
		}
		l = preset()
	case h.defaults.Layout != nil:
		l = h.defaults.Layout
	default:
		l = engine.StandardLayout()
	}

	var roller engine.Roller
	switch {
	case len(req.Rolls) > 0:
		for _, roll := range req.Rolls {
			if roll[0] < 1 || roll[0] > 6 || roll[1] < 1 || roll[1] > 6 {
				return nil, fmt.Errorf("invalid scripted roll %v", roll)
			}
		}
		roller = engine.NewSequenceRoller(req.Rolls...)
	case req.Seed != 0:
		roller = engine.NewRandomRoller(req.Seed)
	case h.defaults.NewRoller != nil:
		roller = h.defaults.NewRoller()
	}

	opts := []engine.Option{
		engine.WithRules(rules),
		engine.WithLayout(l),
		engine.WithFirstPlayer(first),
	}
	if roller != nil {
		opts = append(opts, engine.WithRoller(roller))
	}
	return opts, nil
}

// CreateGame handles POST /api/games
func (h *Handlers) CreateGame(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer release()

	var req NewGameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	opts, err := h.gameOptions(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_GAME")
		return
	}
	s, err := h.sessions.Create(opts...)
	if err != nil {
		if errors.Is(err, ErrTooManySessions) {
			h.writeEngineError(w, r, err)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_GAME")
		return
	}
	w.Header().Set("Location", "/api/games/"+s.ID)
	writeJSON(w, http.StatusCreated, gameResponse(s))
}

// GetGame handles GET /api/games/{id}
func (h *Handlers) GetGame(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, gameResponse(s))
}

// DeleteGame handles DELETE /api/games/{id}
func (h *Handlers) DeleteGame(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Delete(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "game not found", "GAME_NOT_FOUND")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Roll handles POST /api/games/{id}/roll
func (h *Handlers) Roll(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer release()
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	roll, err := s.Game.RequestRoll()
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	h.metrics.observeRoll()
	writeJSON(w, http.StatusOK, RollResponse{Roll: roll, Game: gameResponse(s)})
}

// parseMove reads either notation of a MoveRequest.
func parseMove(req MoveRequest) (engine.Move, error) {
	if req.Move != "" {
		return engine.ParseMove(req.Move)
	}
	if req.From == nil || req.To == nil {
		return engine.Move{}, errors.New("move requires either \"move\" or both \"from\" and \"to\"")
	}
	return engine.Move{From: *req.From, To: *req.To}, nil
}

// Move handles POST /api/games/{id}/move
func (h *Handlers) Move(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer release()
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req MoveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	mv, err := parseMove(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_MOVE")
		return
	}

	err = s.Game.SubmitMove(mv.From, mv.To)
	h.metrics.observeMove(err)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gameResponse(s))
}

// Select handles POST /api/games/{id}/select
func (h *Handlers) Select(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer release()
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SelectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sel, err := s.Game.Select(req.At)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	resp := SelectResponse{Destinations: sel.Destinations, Game: gameResponse(s)}
	if resp.Destinations == nil {
		resp.Destinations = []engine.Location{}
	}
	if len(sel.Destinations) > 0 {
		from := sel.From
		resp.From = &from
	}
	writeJSON(w, http.StatusOK, resp)
}

// Undo handles POST /api/games/{id}/undo
func (h *Handlers) Undo(w http.ResponseWriter, r *http.Request) {
	h.history(w, r, "undo", (*engine.Game).RequestUndo)
}

// Redo handles POST /api/games/{id}/redo
func (h *Handlers) Redo(w http.ResponseWriter, r *http.Request) {
	h.history(w, r, "redo", (*engine.Game).RequestRedo)
}

func (h *Handlers) history(w http.ResponseWriter, r *http.Request, op string, fn func(*engine.Game) error) {
	release, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer release()
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := fn(s.Game); err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	h.metrics.observeHistory(op)
	writeJSON(w, http.StatusOK, gameResponse(s))
}

// Destinations handles GET /api/games/{id}/destinations?from=13
func (h *Handlers) Destinations(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	from, err := engine.ParseLocation(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_LOCATION")
		return
	}
	dests := s.Game.Destinations(from)
	if dests == nil {
		dests = []engine.Location{}
	}
	writeJSON(w, http.StatusOK, DestinationsResponse{From: from, Destinations: dests})
}
