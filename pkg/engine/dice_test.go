package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomRollerIsSeeded(t *testing.T) {
	a, b := NewRandomRoller(42), NewRandomRoller(42)
	for i := 0; i < 100; i++ {
		a1, a2 := a.Roll()
		b1, b2 := b.Roll()
		require.Equal(t, [2]int{a1, a2}, [2]int{b1, b2})
		assert.True(t, a1 >= 1 && a1 <= 6 && a2 >= 1 && a2 <= 6)
	}
}

func TestSequenceRollerWraps(t *testing.T) {
	r := NewSequenceRoller([2]int{3, 1}, [2]int{6, 6})
	var got [][2]int
	for i := 0; i < 3; i++ {
		x, y := r.Roll()
		got = append(got, [2]int{x, y})
	}
	assert.Equal(t, [][2]int{{3, 1}, {6, 6}, {3, 1}}, got)
	assert.Panics(t, func() { NewSequenceRoller([2]int{0, 7}) })
	assert.PanicsWithValue(t, "no scripted rolls", func() { NewSequenceRoller() })
}

func TestDoublesRule(t *testing.T) {
	s := NewGameState(White)
	_, err := s.RollDice(NewSequenceRoller([2]int{4, 4}), DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, []int{4, 4}, s.Dice())

	s = NewGameState(White)
	_, err = s.RollDice(NewSequenceRoller([2]int{4, 4}), Rules{Doubles: DoublesFourMoves})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 4, 4, 4}, s.Dice())

	for in, want := range map[string]DoublesRule{"": DoublesAsRolled, "two": DoublesAsRolled, "four": DoublesFourMoves} {
		got, err := ParseDoublesRule(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err = ParseDoublesRule("eight")
	assert.Error(t, err)
}

func TestConsume(t *testing.T) {
	s := NewGameState(White)
	_, err := s.Consume(3)
	assert.ErrorIs(t, err, ErrNotRolled)

	s.SetDice(6, 3)
	pip, err := s.Consume(3)
	require.NoError(t, err)
	assert.Equal(t, 3, pip)
	assert.Equal(t, []int{6}, s.Dice())

	s.SetDice(6, 5)
	pip, err = s.Consume(2)
	require.NoError(t, err)
	assert.Equal(t, 6, pip, "without an exact pip the largest is spent")
}

func TestRollDiceGate(t *testing.T) {
	s := NewGameState(Black)
	roll, err := s.RollDice(NewSequenceRoller([2]int{2, 5}), DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, [2]int{2, 5}, roll)
	assert.Equal(t, roll, s.LastRoll())

	_, err = s.RollDice(NewSequenceRoller([2]int{1, 1}), DefaultRules())
	assert.ErrorIs(t, err, ErrAlreadyRolled)

	s.NextTurn()
	assert.Equal(t, White, s.CurrentPlayer())
	assert.False(t, s.HasRolled())
	assert.Empty(t, s.Dice())
}
