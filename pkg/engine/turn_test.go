package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []Event
}

func (r *recorder) record(ev Event) { r.events = append(r.events, ev) }

func (r *recorder) kinds() []EventKind {
	out := make([]EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func newTestController(t *testing.T, l Layout, first Color, rolls ...[2]int) (*Controller, *recorder) {
	t.Helper()
	var roller Roller = NewRandomRoller(1)
	if len(rolls) > 0 {
		roller = NewSequenceRoller(rolls...)
	}
	c := NewController(newTestBoard(t, l), NewGameState(first), DefaultRules(), roller)
	rec := &recorder{}
	c.emit = rec.record
	return c, rec
}

func TestRollOncePerTurn(t *testing.T) {
	c, rec := newTestController(t, StandardLayout(), White, [2]int{6, 5})
	require.Equal(t, AwaitingRoll, c.State())

	roll, err := c.Roll()
	require.NoError(t, err)
	assert.Equal(t, [2]int{6, 5}, roll)
	assert.Equal(t, TurnActive, c.State())
	assert.Equal(t, []int{6, 5}, c.state.Dice())

	_, err = c.Roll()
	assert.ErrorIs(t, err, ErrAlreadyRolled)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, []EventKind{EventRolled}, rec.kinds())
}

func TestMoveBeforeRoll(t *testing.T) {
	c, _ := newTestController(t, StandardLayout(), White)
	_, err := c.Move(PointAt(24), PointAt(18))
	assert.Equal(t, ReasonNoDice, ReasonOf(err))
	assert.ErrorIs(t, err, ErrIllegalMove)
	assert.NotErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 2, c.board.PointCount(24))

	_, _, err = c.Select(PointAt(13))
	assert.Equal(t, ReasonNoDice, ReasonOf(err))
	assert.Nil(t, c.selected)
}

func TestTurnEndsWhenDiceAreSpent(t *testing.T) {
	c, rec := newTestController(t, StandardLayout(), White, [2]int{6, 5}, [2]int{3, 1})
	_, err := c.Roll()
	require.NoError(t, err)

	_, err = c.Move(PointAt(24), PointAt(18))
	require.NoError(t, err)
	assert.Equal(t, White, c.state.CurrentPlayer())
	assert.Equal(t, []int{5}, c.state.Dice())

	_, err = c.Move(PointAt(13), PointAt(8))
	require.NoError(t, err)
	assert.Equal(t, AwaitingRoll, c.State())
	assert.Equal(t, Black, c.state.CurrentPlayer())
	assert.Empty(t, c.state.Dice())
	assert.False(t, c.state.HasRolled())
	assert.Equal(t, []EventKind{EventRolled, EventMoved, EventMoved, EventTurnEnded}, rec.kinds())

	_, err = c.Roll()
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1}, c.state.Dice())
}

func TestBlockedRollPasses(t *testing.T) {
	c, rec := newTestController(t, closedBoardLayout(), White, [2]int{4, 2})
	before := c.board.Layout()

	_, err := c.Roll()
	require.NoError(t, err)
	assert.Equal(t, before, c.board.Layout(), "a pass does not touch the board")
	assert.Equal(t, Black, c.state.CurrentPlayer())
	assert.Equal(t, AwaitingRoll, c.State())
	assert.Empty(t, c.state.Dice())
	assert.Equal(t, []EventKind{EventRolled, EventPassed, EventTurnEnded}, rec.kinds())
	assert.Zero(t, c.history.Len())
}

func TestForcedEntrySelectsBar(t *testing.T) {
	l := Layout{
		{At: BarOf(White), Count: 1, Color: White},
		{At: PointAt(24), Count: 1, Color: White},
		{At: PointAt(13), Count: 5, Color: White},
		{At: PointAt(19), Count: 5, Color: Black},
		{At: PointAt(12), Count: 5, Color: Black},
	}
	c, rec := newTestController(t, l, White, [2]int{5, 3})

	_, err := c.Roll()
	require.NoError(t, err)
	sel, ok := c.Selection()
	require.True(t, ok)
	assert.Equal(t, BarOf(White), sel.From)
	assert.ElementsMatch(t, []Location{PointAt(20), PointAt(22)}, sel.Destinations)
	assert.Equal(t, []EventKind{EventRolled, EventForcedEntry}, rec.kinds())

	_, err = c.Move(PointAt(13), PointAt(8))
	assert.Equal(t, ReasonMustEnterFromBar, ReasonOf(err))

	_, cmd, err := c.Select(PointAt(20))
	require.NoError(t, err)
	require.NotNil(t, cmd)
	assert.Equal(t, Move{From: BarOf(White), To: PointAt(20)}, cmd.Played())
	assert.Zero(t, c.board.BarCount(White))
	_, ok = c.Selection()
	assert.False(t, ok)
}

func TestSelectFlow(t *testing.T) {
	c, _ := newTestController(t, StandardLayout(), White, [2]int{6, 5})
	_, err := c.Roll()
	require.NoError(t, err)

	_, _, err = c.Select(PointAt(1))
	assert.Equal(t, ReasonNoDestinations, ReasonOf(err), "black's point")

	sel, cmd, err := c.Select(PointAt(24))
	require.NoError(t, err)
	assert.Nil(t, cmd)
	assert.Equal(t, PointAt(24), sel.From)
	assert.Equal(t, []Location{PointAt(18)}, sel.Destinations)

	// Selecting the source again clears the selection.
	sel, cmd, err = c.Select(PointAt(24))
	require.NoError(t, err)
	assert.Nil(t, cmd)
	assert.Equal(t, Selection{}, sel)

	_, _, err = c.Select(PointAt(24))
	require.NoError(t, err)
	_, _, err = c.Select(PointAt(19))
	assert.Equal(t, ReasonBlocked, ReasonOf(err))
	_, ok := c.Selection()
	assert.False(t, ok, "a rejected destination clears the selection")

	_, _, err = c.Select(PointAt(24))
	require.NoError(t, err)
	_, cmd, err = c.Select(PointAt(18))
	require.NoError(t, err)
	require.NotNil(t, cmd)
	assert.Equal(t, 6, cmd.Pip())
	assert.Equal(t, []int{5}, c.state.Dice())
}

func TestWinEndsGame(t *testing.T) {
	c, rec := newTestController(t, Layout{
		{At: PointAt(2), Count: 1, Color: White},
		{At: PointAt(19), Count: 2, Color: Black},
	}, White, [2]int{6, 3})
	_, err := c.Roll()
	require.NoError(t, err)

	_, err = c.Move(PointAt(2), Off())
	require.NoError(t, err)
	assert.Equal(t, GameOver, c.State())
	assert.Equal(t, White, c.state.Winner())
	assert.Empty(t, c.state.Dice())
	assert.Equal(t, EventWon, rec.events[len(rec.events)-1].Kind)
	assert.Equal(t, 1, c.history.Len(), "the winning move stays in history")

	_, err = c.Roll()
	assert.ErrorIs(t, err, ErrGameOver)
	_, err = c.Undo()
	assert.ErrorIs(t, err, ErrGameOver)
	_, err = c.Redo()
	assert.ErrorIs(t, err, ErrGameOver)
	_, err = c.Move(PointAt(19), PointAt(20))
	assert.Equal(t, ReasonGameOver, ReasonOf(err))
}

func TestControllerOnFinishedGame(t *testing.T) {
	c, _ := newTestController(t, Layout{{At: PointAt(19), Count: 1, Color: Black}}, Black)
	assert.Equal(t, GameOver, c.State())
	_, err := c.Roll()
	assert.ErrorIs(t, err, ErrGameOver)
}

// markCommand is a history entry that is not a move.
type markCommand struct{ undone, redone int }

func (m *markCommand) Execute() error { m.redone++; return nil }
func (m *markCommand) Undo() error    { m.undone++; return nil }

func TestUndoRedoRefuseForeignCommand(t *testing.T) {
	c, rec := newTestController(t, StandardLayout(), White, [2]int{6, 5})
	_, err := c.Roll()
	require.NoError(t, err)

	mark := &markCommand{}
	require.NoError(t, c.History().Execute(mark))

	var mc *MoveCommand
	assert.NotPanics(t, func() { mc, err = c.Undo() })
	assert.Nil(t, mc)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Zero(t, mark.undone)
	assert.Equal(t, 1, c.History().Len())

	// Pop the mark directly to put it on the redo stack.
	_, err = c.History().Undo()
	require.NoError(t, err)
	assert.NotPanics(t, func() { mc, err = c.Redo() })
	assert.Nil(t, mc)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 1, mark.redone)
	assert.Equal(t, 1, c.History().RedoLen())

	assert.Equal(t, TurnActive, c.State())
	assert.Equal(t, []EventKind{EventRolled}, rec.kinds())
}
