package engine

import "slices"

// Command is an undoable unit of work.
type Command interface {
	Execute() error
	Undo() error
}

// MoveCommand plays one stone through the mediator and remembers enough
// to reverse it without asking the validator again.
type MoveCommand struct {
	mediator *Mediator
	move     Move

	executed bool
	moved    Stone
	hit      *Stone
	origin   Location
	dest     Location
	pip      int
	bearOff  bool
	before   turnSnapshot
}

// NewMoveCommand prepares a move; nothing happens until Execute.
func NewMoveCommand(m *Mediator, from, to Location) *MoveCommand {
	return &MoveCommand{mediator: m, move: Move{From: from, To: to}}
}

// Execute performs the move and spends its pip. On failure nothing
// changes.
func (c *MoveCommand) Execute() error {
	state := c.mediator.state
	before := state.save()

	res, err := c.mediator.ExecuteMove(c.move.From, c.move.To)
	if err != nil {
		return err
	}
	pip, err := state.Consume(res.Distance)
	if err != nil {
		return err
	}

	c.executed = true
	c.before = before
	c.moved = res.Stone
	c.hit = res.Hit
	c.origin = res.From
	c.dest = res.To
	c.pip = pip
	c.bearOff = res.BearOff
	return nil
}

// Undo moves the stone back to where it came from, returns a hit stone
// from the bar to the point it was hit on and restores the dice and the
// player on roll.
func (c *MoveCommand) Undo() error {
	if !c.executed {
		return ErrNotExecuted
	}
	board := c.mediator.board
	if err := board.MoveStone(c.moved, c.dest, c.origin); err != nil {
		return err
	}
	if c.hit != nil {
		if err := board.MoveStone(*c.hit, BarOf(c.hit.Color()), c.dest); err != nil {
			return err
		}
	}
	c.mediator.state.restore(c.before)
	return nil
}

// Move returns the intent as submitted.
func (c *MoveCommand) Move() Move { return c.move }

// Played returns the move with bar and home resolved to the mover's color.
func (c *MoveCommand) Played() Move { return Move{From: c.origin, To: c.dest} }

// Stone returns the stone that moved.
func (c *MoveCommand) Stone() Stone { return c.moved }

// Hit returns the stone sent to the bar, if any.
func (c *MoveCommand) Hit() (Stone, bool) {
	if c.hit == nil {
		return Stone{}, false
	}
	return *c.hit, true
}

// Pip returns the die value the move consumed.
func (c *MoveCommand) Pip() int { return c.pip }

// BearOff reports whether the move bore a stone off.
func (c *MoveCommand) BearOff() bool { return c.bearOff }

// Player returns the color that made the move.
func (c *MoveCommand) Player() Color { return c.before.player }

// History keeps executed commands for undo and undone ones for redo.
type History struct {
	done   []Command
	undone []Command
}

// NewHistory returns an empty history.
func NewHistory() *History { return &History{} }

// Execute runs cmd, records it and discards the redo branch.
func (h *History) Execute(cmd Command) error {
	if err := cmd.Execute(); err != nil {
		return err
	}
	h.done = append(h.done, cmd)
	h.undone = h.undone[:0]
	return nil
}

// Undo reverses the latest command.
func (h *History) Undo() (Command, error) {
	if len(h.done) == 0 {
		return nil, ErrNothingToUndo
	}
	cmd := h.done[len(h.done)-1]
	if err := cmd.Undo(); err != nil {
		return nil, err
	}
	h.done = h.done[:len(h.done)-1]
	h.undone = append(h.undone, cmd)
	return cmd, nil
}

// Redo re-applies the latest undone command.
func (h *History) Redo() (Command, error) {
	if len(h.undone) == 0 {
		return nil, ErrNothingToRedo
	}
	cmd := h.undone[len(h.undone)-1]
	if err := cmd.Execute(); err != nil {
		return nil, err
	}
	h.undone = h.undone[:len(h.undone)-1]
	h.done = append(h.done, cmd)
	return cmd, nil
}

// Clear forgets every command.
func (h *History) Clear() {
	h.done = nil
	h.undone = nil
}

// Len returns the number of commands that can be undone.
func (h *History) Len() int { return len(h.done) }

// RedoLen returns the number of commands that can be redone.
func (h *History) RedoLen() int { return len(h.undone) }

// Commands returns the undo stack, oldest first.
func (h *History) Commands() []Command { return slices.Clone(h.done) }

// RedoCommands returns the redo stack, oldest first.
func (h *History) RedoCommands() []Command { return slices.Clone(h.undone) }
