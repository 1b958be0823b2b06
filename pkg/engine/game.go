package engine

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Game is the engine's outer surface: one board, one state machine and
// one history behind a single mutex. Every method is safe for concurrent
// use; events are delivered after the lock is released.
type Game struct {
	mu         sync.Mutex
	board      *Board
	state      *GameState
	ctrl       *Controller
	logger     *slog.Logger
	checks     bool
	halted     error
	pending    []Event
	listeners  map[int]func(Event)
	nextListen int
}

type gameOptions struct {
	rules  Rules
	roller Roller
	layout Layout
	first  Color
	logger *slog.Logger
	checks bool
}

// Option configures a new Game.
type Option func(*gameOptions)

// WithRules selects the rule variant.
func WithRules(r Rules) Option { return func(o *gameOptions) { o.rules = r } }

// WithRoller sets the dice source.
func WithRoller(r Roller) Option { return func(o *gameOptions) { o.roller = r } }

// WithLayout sets the starting arrangement.
func WithLayout(l Layout) Option { return func(o *gameOptions) { o.layout = l } }

// WithFirstPlayer sets who rolls first.
func WithFirstPlayer(c Color) Option { return func(o *gameOptions) { o.first = c } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(o *gameOptions) { o.logger = l } }

// WithInvariantChecks turns the full board verification after every
// mutation on or off. It is on by default.
func WithInvariantChecks(on bool) Option { return func(o *gameOptions) { o.checks = on } }

// NewGame sets up a game. Without options it uses the standard layout,
// the reference rules, white first and a time-seeded roller.
func NewGame(opts ...Option) (*Game, error) {
	o := gameOptions{
		rules:  DefaultRules(),
		layout: StandardLayout(),
		first:  White,
		checks: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.roller == nil {
		o.roller = NewRandomRoller(uint64(time.Now().UnixNano()))
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	board, err := NewBoardFromLayout(o.layout)
	if err != nil {
		return nil, err
	}
	state := NewGameState(o.first)
	g := &Game{
		board:     board,
		state:     state,
		ctrl:      NewController(board, state, o.rules, o.roller),
		logger:    o.logger,
		checks:    o.checks,
		listeners: make(map[int]func(Event)),
	}
	g.ctrl.emit = func(ev Event) { g.pending = append(g.pending, ev) }
	g.logger.Debug("game created", "first", state.CurrentPlayer(), "doubles", o.rules.Doubles, "position", board.PositionID(state.CurrentPlayer()))
	return g, nil
}

// Subscribe registers fn to receive every event. The returned function
// removes it.
func (g *Game) Subscribe(fn func(Event)) (cancel func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextListen
	g.nextListen++
	g.listeners[id] = fn
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.listeners, id)
	}
}

// do runs one mutating request under the lock, verifies the board
// afterwards and publishes the events it produced.
func (g *Game) do(op string, fn func() error) error {
	g.mu.Lock()
	if g.halted != nil {
		err := g.halted
		g.mu.Unlock()
		return err
	}
	err := fn()
	if err == nil && g.checks {
		err = g.board.Verify()
	}
	if errors.Is(err, ErrInvariant) {
		g.halted = err
		g.logger.Error("game halted", "op", op, "error", err)
	}
	events := g.pending
	g.pending = nil
	listeners := make([]func(Event), 0, len(g.listeners))
	for _, fn := range g.listeners {
		listeners = append(listeners, fn)
	}
	g.mu.Unlock()

	for _, ev := range events {
		g.logger.Debug("event", "kind", ev.Kind, "player", ev.Player, "detail", ev.String())
		for _, fn := range listeners {
			fn(ev)
		}
	}
	return err
}

// RequestRoll rolls the dice for the player on roll.
func (g *Game) RequestRoll() ([2]int, error) {
	var roll [2]int
	err := g.do("roll", func() error {
		var err error
		roll, err = g.ctrl.Roll()
		return err
	})
	if err != nil {
		g.logger.Info("roll refused", "error", err)
	}
	return roll, err
}

// SubmitMove plays one stone. A rejected move returns a *MoveError whose
// Reason is suitable for display; the game is unchanged.
func (g *Game) SubmitMove(from, to Location) error {
	err := g.do("move", func() error {
		_, err := g.ctrl.Move(from, to)
		return err
	})
	if err != nil {
		g.logger.Info("move rejected", "from", from, "to", to, "error", err)
	}
	return err
}

// Select feeds a "select location" intent to the turn controller and
// returns the resulting selection.
func (g *Game) Select(at Location) (Selection, error) {
	var sel Selection
	err := g.do("select", func() error {
		var err error
		sel, _, err = g.ctrl.Select(at)
		return err
	})
	return sel, err
}

// RequestUndo takes back the latest move.
func (g *Game) RequestUndo() error {
	return g.do("undo", func() error {
		_, err := g.ctrl.Undo()
		return err
	})
}

// RequestRedo replays the latest undone move.
func (g *Game) RequestRedo() error {
	return g.do("redo", func() error {
		_, err := g.ctrl.Redo()
		return err
	})
}

// Halted returns the invariant violation that stopped the game, if any.
func (g *Game) Halted() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.halted
}

// Snapshot returns the full read-only view of the game.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ctrl.snapshot()
}

// CurrentPlayer returns the color on roll.
func (g *Game) CurrentPlayer() Color {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.CurrentPlayer()
}

// Dice returns the pips left this turn.
func (g *Game) Dice() []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Dice()
}

// State returns the turn phase.
func (g *Game) State() TurnState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ctrl.State()
}

// Winner returns the winner, or NoColor.
func (g *Game) Winner() Color {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Winner()
}

// Point returns the color and count on point n.
func (g *Game) Point(n int) PointView {
	g.mu.Lock()
	defer g.mu.Unlock()
	return PointView{Point: n, Color: g.board.StackColor(n), Count: g.board.PointCount(n)}
}

// BarCount returns how many of c's stones wait on the bar.
func (g *Game) BarCount(c Color) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board.BarCount(c)
}

// HomeCount returns how many of c's stones are borne off.
func (g *Game) HomeCount(c Color) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board.HomeCount(c)
}

// Destinations lists the legal destinations from a location for the
// player on roll with the remaining dice.
func (g *Game) Destinations(from Location) []Location {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ctrl.mediator.Destinations(from)
}

// PositionID returns the gnubg position ID with the current player on
// roll.
func (g *Game) PositionID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board.PositionID(g.state.CurrentPlayer())
}

// Layout returns the current arrangement of stones.
func (g *Game) Layout() Layout {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.board.Layout()
}
