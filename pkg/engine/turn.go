package engine

import (
	"fmt"
	"slices"
)

// TurnState is the phase of the turn cycle.
type TurnState uint8

const (
	AwaitingRoll TurnState = iota
	TurnActive
	TurnEnding
	GameOver
)

func (t TurnState) String() string {
	switch t {
	case AwaitingRoll:
		return "awaiting_roll"
	case TurnActive:
		return "turn_active"
	case TurnEnding:
		return "turn_ending"
	case GameOver:
		return "game_over"
	default:
		return fmt.Sprintf("TurnState(%d)", uint8(t))
	}
}

// MarshalText encodes the state name.
func (t TurnState) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText decodes a state name.
func (t *TurnState) UnmarshalText(text []byte) error {
	for s := AwaitingRoll; s <= GameOver; s++ {
		if s.String() == string(text) {
			*t = s
			return nil
		}
	}
	return fmt.Errorf("unknown turn state %q", text)
}

// Selection is the pending source chosen by the input layer and the
// destinations it may move to.
type Selection struct {
	From         Location
	Destinations []Location
}

// Controller drives one game through its turns: roll, forced re-entry,
// automatic passing when nothing is playable, pip bookkeeping and the
// hand-off to the opponent.
type Controller struct {
	board    *Board
	state    *GameState
	mediator *Mediator
	history  *History
	rules    Rules
	roller   Roller

	phase    TurnState
	selected *Selection
	emit     func(Event)
}

// NewController wires a controller over an existing board and state.
func NewController(b *Board, s *GameState, rules Rules, roller Roller) *Controller {
	c := &Controller{
		board:    b,
		state:    s,
		mediator: NewMediator(b, s),
		history:  NewHistory(),
		rules:    rules,
		roller:   roller,
		emit:     func(Event) {},
	}
	if s.CheckWinner(b) != NoColor {
		c.phase = GameOver
	} else if s.HasRolled() {
		c.phase = TurnActive
	}
	return c
}

// State returns the current phase.
func (c *Controller) State() TurnState { return c.phase }

// Mediator returns the legality oracle used by the controller.
func (c *Controller) Mediator() *Mediator { return c.mediator }

// History returns the undo/redo history.
func (c *Controller) History() *History { return c.history }

// Selection returns the pending selection, if any.
func (c *Controller) Selection() (Selection, bool) {
	if c.selected == nil {
		return Selection{}, false
	}
	return Selection{From: c.selected.From, Destinations: slices.Clone(c.selected.Destinations)}, true
}

// Roll rolls for the player on roll and enters TurnActive. If the roll
// leaves nothing to play the turn passes straight to the opponent.
func (c *Controller) Roll() ([2]int, error) {
	switch c.phase {
	case GameOver:
		return [2]int{}, ErrGameOver
	case TurnActive, TurnEnding:
		return [2]int{}, ErrAlreadyRolled
	}
	roll, err := c.state.RollDice(c.roller, c.rules)
	if err != nil {
		return roll, err
	}
	c.history.Clear()
	c.phase = TurnActive
	c.emit(Event{Kind: EventRolled, Player: c.state.CurrentPlayer(), Roll: roll, Dice: c.state.Dice()})
	c.enterTurn()
	return roll, nil
}

// enterTurn runs the entry actions of TurnActive: forced re-entry and the
// no-legal-move pass.
func (c *Controller) enterTurn() {
	player := c.state.CurrentPlayer()
	c.selected = nil
	if c.board.BarCount(player) > 0 {
		entries := c.mediator.BarEntries()
		if len(entries) == 0 {
			c.pass()
			return
		}
		c.selected = &Selection{From: BarOf(player), Destinations: entries}
		c.emit(Event{Kind: EventForcedEntry, Player: player, Destinations: slices.Clone(entries)})
		return
	}
	if !c.mediator.AnyLegalMove() {
		c.pass()
	}
}

// pass ends a turn in which nothing can be played.
func (c *Controller) pass() {
	c.emit(Event{Kind: EventPassed, Player: c.state.CurrentPlayer(), Dice: c.state.Dice()})
	c.endTurn()
}

// endTurn walks TurnEnding and hands the dice over.
func (c *Controller) endTurn() {
	c.phase = TurnEnding
	player := c.state.CurrentPlayer()
	c.selected = nil
	c.state.clearDice()
	c.state.NextTurn()
	c.phase = AwaitingRoll
	c.emit(Event{Kind: EventTurnEnded, Player: player})
}

// Move plays one stone. Rejections come back as *MoveError and change
// nothing.
func (c *Controller) Move(from, to Location) (*MoveCommand, error) {
	player := c.state.CurrentPlayer()
	switch c.phase {
	case GameOver:
		return nil, reject(from, to, player, ReasonGameOver)
	case AwaitingRoll, TurnEnding:
		return nil, reject(from, to, player, ReasonNoDice)
	}
	cmd := NewMoveCommand(c.mediator, from, to)
	if err := c.history.Execute(cmd); err != nil {
		return nil, err
	}
	c.announce(EventMoved, cmd)
	c.afterMove()
	return cmd, nil
}

func (c *Controller) announce(kind EventKind, cmd *MoveCommand) {
	ev := Event{Kind: kind, Player: cmd.Player(), Move: cmd.Played(), Pip: cmd.Pip(), Dice: c.state.Dice()}
	if hit, ok := cmd.Hit(); ok {
		ev.Hit = true
		ev.HitStone = hit.ID()
	}
	ev.BearOff = cmd.BearOff()
	c.emit(ev)
}

// afterMove checks for a winner and ends the turn when the dice are spent
// or nothing else is playable.
func (c *Controller) afterMove() {
	c.selected = nil
	if w := c.state.CheckWinner(c.board); w != NoColor {
		c.state.clearDice()
		c.phase = GameOver
		c.emit(Event{Kind: EventWon, Player: w, Winner: w})
		return
	}
	if len(c.state.dice) == 0 || !c.mediator.AnyLegalMove() {
		c.endTurn()
		return
	}
	player := c.state.CurrentPlayer()
	if c.board.BarCount(player) > 0 {
		c.selected = &Selection{From: BarOf(player), Destinations: c.mediator.BarEntries()}
	}
}

// Undo takes back the latest move of the current or just-finished turn.
func (c *Controller) Undo() (*MoveCommand, error) {
	if c.phase == GameOver {
		return nil, ErrGameOver
	}
	if err := nextMove(c.history.done); err != nil {
		return nil, err
	}
	cmd, err := c.history.Undo()
	if err != nil {
		return nil, err
	}
	mc, ok := cmd.(*MoveCommand)
	if !ok {
		return nil, notAMove(cmd)
	}
	c.phase = TurnActive
	c.selected = nil
	if player := c.state.CurrentPlayer(); c.board.BarCount(player) > 0 {
		c.selected = &Selection{From: BarOf(player), Destinations: c.mediator.BarEntries()}
	}
	c.announce(EventUndone, mc)
	return mc, nil
}

// Redo replays the latest undone move.
func (c *Controller) Redo() (*MoveCommand, error) {
	if c.phase == GameOver {
		return nil, ErrGameOver
	}
	if err := nextMove(c.history.undone); err != nil {
		return nil, err
	}
	cmd, err := c.history.Redo()
	if err != nil {
		return nil, err
	}
	mc, ok := cmd.(*MoveCommand)
	if !ok {
		return nil, notAMove(cmd)
	}
	c.phase = TurnActive
	c.announce(EventRedone, mc)
	c.afterMove()
	return mc, nil
}

// nextMove refuses a stack whose top is not a move, so nothing is popped
// that the controller cannot announce. An empty stack is left to History.
func nextMove(stack []Command) error {
	if len(stack) == 0 {
		return nil
	}
	if top := stack[len(stack)-1]; !isMove(top) {
		return notAMove(top)
	}
	return nil
}

func isMove(cmd Command) bool {
	_, ok := cmd.(*MoveCommand)
	return ok
}

func notAMove(cmd Command) error {
	return fmt.Errorf("%w: history holds a %T, not a move", ErrInvalidState, cmd)
}

// Select handles a "select location" intent. With nothing selected it
// picks a source and returns its destinations. With a source selected,
// choosing one of its destinations plays the move; choosing anything else
// clears the selection. While stones wait on the bar, every selection is
// a re-entry attempt.
func (c *Controller) Select(at Location) (Selection, *MoveCommand, error) {
	player := c.state.CurrentPlayer()
	at = at.resolve(player)
	if c.phase != TurnActive {
		if c.phase == GameOver {
			return Selection{}, nil, reject(at, at, player, ReasonGameOver)
		}
		return Selection{}, nil, reject(at, at, player, ReasonNoDice)
	}

	if c.board.BarCount(player) > 0 {
		cmd, err := c.Move(BarOf(player), at)
		if err != nil {
			return c.currentSelection(), nil, err
		}
		return c.currentSelection(), cmd, nil
	}

	if c.selected == nil {
		dests := c.mediator.Destinations(at)
		if !at.IsPoint() || c.board.StackColor(at.Point) != player || len(dests) == 0 {
			return Selection{}, nil, reject(at, at, player, ReasonNoDestinations)
		}
		c.selected = &Selection{From: at, Destinations: dests}
		return c.currentSelection(), nil, nil
	}

	from := c.selected.From
	dests := c.selected.Destinations
	c.selected = nil
	if at == from {
		return Selection{}, nil, nil
	}
	if !slices.Contains(dests, at) {
		err := c.mediator.Validate(from, at)
		if err == nil {
			err = reject(from, at, player, ReasonNoDestinations)
		}
		return Selection{}, nil, err
	}
	cmd, err := c.Move(from, at)
	if err != nil {
		return Selection{}, nil, err
	}
	return c.currentSelection(), cmd, nil
}

func (c *Controller) currentSelection() Selection {
	s, _ := c.Selection()
	return s
}
