package engine

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUndoRestoresHitStone(t *testing.T) {
	c, rec := newTestController(t, Layout{
		{At: PointAt(3), Count: 1, Color: Black},
		{At: PointAt(19), Count: 5, Color: Black},
		{At: PointAt(8), Count: 1, Color: White},
		{At: PointAt(6), Count: 5, Color: White},
	}, Black, [2]int{5, 2})
	_, err := c.Roll()
	require.NoError(t, err)
	blot, _ := c.board.Top(8)
	before := c.board.Layout()

	cmd, err := c.Move(PointAt(3), PointAt(8))
	require.NoError(t, err)
	hit, ok := cmd.Hit()
	require.True(t, ok)
	assert.Equal(t, blot, hit)
	assert.Equal(t, 1, c.board.BarCount(White))

	undone, err := c.Undo()
	require.NoError(t, err)
	assert.Same(t, cmd, undone)
	assert.Equal(t, before, c.board.Layout())
	loc, _ := c.board.StoneLocation(blot)
	assert.Equal(t, PointAt(8), loc, "the hit stone returns to its point, not the bar")
	assert.Equal(t, []int{5, 2}, c.state.Dice())
	assert.Equal(t, Black, c.state.CurrentPlayer())
	assert.NoError(t, c.board.Verify())

	last := rec.events[len(rec.events)-1]
	assert.Equal(t, EventUndone, last.Kind)
	assert.True(t, last.Hit, "the undone event flags the hit it reverses")
	assert.Equal(t, hit.ID(), last.HitStone)
}

func TestUndoAcrossTurnEnd(t *testing.T) {
	c, _ := newTestController(t, StandardLayout(), White, [2]int{6, 5})
	_, err := c.Roll()
	require.NoError(t, err)
	_, err = c.Move(PointAt(24), PointAt(18))
	require.NoError(t, err)
	_, err = c.Move(PointAt(13), PointAt(8))
	require.NoError(t, err)
	require.Equal(t, Black, c.state.CurrentPlayer())

	_, err = c.Undo()
	require.NoError(t, err)
	assert.Equal(t, White, c.state.CurrentPlayer())
	assert.Equal(t, TurnActive, c.State())
	assert.Equal(t, []int{5}, c.state.Dice())
	assert.True(t, c.state.HasRolled())
	assert.Equal(t, 5, c.board.PointCount(13))
	assert.Equal(t, 3, c.board.PointCount(8))
	assert.Equal(t, 1, c.board.PointCount(18))

	_, err = c.Undo()
	require.NoError(t, err)
	assert.Equal(t, []int{6, 5}, c.state.Dice())
	assert.Equal(t, 2, c.board.PointCount(24))
	assert.Equal(t, NewStandardBoard().Layout(), c.board.Layout())

	_, err = c.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)
}

func TestRedoReplaysAndNewMoveClearsRedo(t *testing.T) {
	c, rec := newTestController(t, StandardLayout(), White, [2]int{6, 5})
	_, err := c.Roll()
	require.NoError(t, err)
	_, err = c.Move(PointAt(24), PointAt(18))
	require.NoError(t, err)

	_, err = c.Undo()
	require.NoError(t, err)
	assert.Equal(t, 1, c.history.RedoLen())

	cmd, err := c.Redo()
	require.NoError(t, err)
	assert.Equal(t, Move{From: PointAt(24), To: PointAt(18)}, cmd.Played())
	assert.Equal(t, 1, c.board.PointCount(18))
	assert.Equal(t, []int{5}, c.state.Dice())
	assert.Zero(t, c.history.RedoLen())

	_, err = c.Redo()
	assert.ErrorIs(t, err, ErrNothingToRedo)

	_, err = c.Undo()
	require.NoError(t, err)
	_, err = c.Move(PointAt(13), PointAt(7))
	require.NoError(t, err)
	assert.Zero(t, c.history.RedoLen(), "a fresh move discards the redo branch")

	assert.Equal(t,
		[]EventKind{EventRolled, EventMoved, EventUndone, EventRedone, EventUndone, EventMoved},
		rec.kinds())
}

func TestHistoryClearedOnRoll(t *testing.T) {
	c, _ := newTestController(t, StandardLayout(), White, [2]int{6, 5}, [2]int{4, 2})
	_, err := c.Roll()
	require.NoError(t, err)
	_, err = c.Move(PointAt(24), PointAt(18))
	require.NoError(t, err)
	_, err = c.Move(PointAt(13), PointAt(8))
	require.NoError(t, err)
	require.Equal(t, 2, c.history.Len())

	_, err = c.Roll()
	require.NoError(t, err)
	assert.Zero(t, c.history.Len())
	assert.Zero(t, c.history.RedoLen())
	_, err = c.Undo()
	assert.ErrorIs(t, err, ErrNothingToUndo)
}

func TestUndoBearOff(t *testing.T) {
	c, _ := newTestController(t, Layout{
		{At: PointAt(4), Count: 2, Color: White},
		{At: PointAt(19), Count: 2, Color: Black},
	}, White, [2]int{6, 1})
	_, err := c.Roll()
	require.NoError(t, err)

	cmd, err := c.Move(PointAt(4), Off())
	require.NoError(t, err)
	assert.True(t, cmd.BearOff())
	assert.Equal(t, 6, cmd.Pip(), "overshoot spends the largest die")
	assert.Equal(t, 14, c.board.HomeCount(White))

	_, err = c.Undo()
	require.NoError(t, err)
	assert.Equal(t, 13, c.board.HomeCount(White))
	assert.Equal(t, 2, c.board.PointCount(4))
	assert.Equal(t, []int{6, 1}, c.state.Dice())
}

func TestCommandUndoBeforeExecute(t *testing.T) {
	m := NewMediator(NewStandardBoard(), NewGameState(White))
	cmd := NewMoveCommand(m, PointAt(24), PointAt(18))
	assert.ErrorIs(t, cmd.Undo(), ErrNotExecuted)

	h := NewHistory()
	err := h.Execute(cmd)
	assert.Equal(t, ReasonNoDice, ReasonOf(err))
	assert.Zero(t, h.Len(), "failed commands are not recorded")
}

func TestExactPipPreferred(t *testing.T) {
	c, _ := newTestController(t, Layout{
		{At: PointAt(5), Count: 1, Color: White},
		{At: PointAt(2), Count: 1, Color: White},
		{At: PointAt(19), Count: 2, Color: Black},
	}, White, [2]int{6, 5})
	_, err := c.Roll()
	require.NoError(t, err)

	cmd, err := c.Move(PointAt(5), Off())
	require.NoError(t, err)
	assert.Equal(t, 5, cmd.Pip())
	assert.Equal(t, []int{6}, c.state.Dice())

	cmd, err = c.Move(PointAt(2), Off())
	require.NoError(t, err)
	assert.Equal(t, 6, cmd.Pip())
	assert.Equal(t, White, c.state.Winner())
}

// legalMoves lists every move the player on roll can make right now.
func legalMoves(c *Controller) []Move {
	player := c.state.CurrentPlayer()
	var sources []Location
	if c.board.BarCount(player) > 0 {
		sources = append(sources, BarOf(player))
	} else {
		for n := 1; n <= NumPoints; n++ {
			if c.board.StackColor(n) == player {
				sources = append(sources, PointAt(n))
			}
		}
	}
	var out []Move
	for _, from := range sources {
		for _, to := range c.mediator.Destinations(from) {
			out = append(out, Move{From: from, To: to})
		}
	}
	return out
}

func TestRandomGamesKeepInvariants(t *testing.T) {
	for _, rules := range []Rules{DefaultRules(), {Doubles: DoublesFourMoves}} {
		for seed := uint64(1); seed <= 20; seed++ {
			rng := rand.New(rand.NewPCG(seed, 7))
			c := NewController(NewStandardBoard(), NewGameState(White), rules, NewRandomRoller(seed))

			for step := 0; step < 4000 && c.State() != GameOver; step++ {
				if c.State() == AwaitingRoll {
					_, err := c.Roll()
					require.NoError(t, err)
					continue
				}
				moves := legalMoves(c)
				require.NotEmpty(t, moves, "active turn with nothing to play (seed %d)", seed)

				mv := moves[rng.IntN(len(moves))]
				_, err := c.Move(mv.From, mv.To)
				require.NoError(t, err, "seed %d move %s", seed, mv)

				// Occasionally take a move back and replay it.
				if rng.IntN(10) == 0 && c.State() != GameOver {
					_, err := c.Undo()
					require.NoError(t, err)
					require.NoError(t, c.board.Verify())
					_, err = c.Redo()
					require.NoError(t, err)
				}
				require.NoError(t, c.board.Verify(), "seed %d", seed)
				for _, col := range Colors {
					require.Equal(t, NumStones, c.board.Count(col))
				}
			}
		}
	}
}
