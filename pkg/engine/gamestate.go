package engine

import "slices"

// GameState tracks whose turn it is, the pips left to play, the
// once-per-turn roll gate and the winner.
type GameState struct {
	current  Color
	dice     []int
	rolled   bool
	lastRoll [2]int
	winner   Color
}

// NewGameState returns a state with first on roll and no dice.
func NewGameState(first Color) *GameState {
	if !first.Valid() {
		first = White
	}
	return &GameState{current: first}
}

// CurrentPlayer returns the color on roll.
func (s *GameState) CurrentPlayer() Color { return s.current }

// Dice returns the pips not yet consumed this turn.
func (s *GameState) Dice() []int { return slices.Clone(s.dice) }

// HasRolled reports whether the current player rolled this turn.
func (s *GameState) HasRolled() bool { return s.rolled }

// LastRoll returns the faces of the most recent roll.
func (s *GameState) LastRoll() [2]int { return s.lastRoll }

// Winner returns the winning color, or NoColor while the game runs.
func (s *GameState) Winner() Color { return s.winner }

// RollDice rolls once for the current turn and loads the resulting pips.
func (s *GameState) RollDice(r Roller, rules Rules) ([2]int, error) {
	if s.winner != NoColor {
		return [2]int{}, ErrGameOver
	}
	if s.rolled {
		return [2]int{}, ErrAlreadyRolled
	}
	a, b := r.Roll()
	s.lastRoll = [2]int{a, b}
	s.dice = rules.expand(a, b)
	s.rolled = true
	return s.lastRoll, nil
}

// SetDice loads pips directly and closes the roll gate, as if the
// current player had rolled them.
func (s *GameState) SetDice(pips ...int) {
	s.dice = slices.Clone(pips)
	s.rolled = true
}

// hasPip reports whether d is among the remaining pips.
func (s *GameState) hasPip(d int) bool { return slices.Contains(s.dice, d) }

// maxPip returns the largest remaining pip, or 0.
func (s *GameState) maxPip() int {
	if len(s.dice) == 0 {
		return 0
	}
	return slices.Max(s.dice)
}

// Consume spends the pip for a move of the given distance: the matching
// pip when there is one, otherwise the largest (an overshoot bear-off).
// It returns the pip removed.
func (s *GameState) Consume(distance int) (int, error) {
	if len(s.dice) == 0 {
		return 0, ErrNotRolled
	}
	pip := distance
	if !s.hasPip(pip) {
		pip = s.maxPip()
	}
	i := slices.Index(s.dice, pip)
	s.dice = slices.Delete(s.dice, i, i+1)
	return pip, nil
}

// NextTurn hands the dice to the opponent.
func (s *GameState) NextTurn() {
	s.current = s.current.Opponent()
	s.dice = nil
	s.rolled = false
}

// clearDice drops any unplayed pips without changing the player.
func (s *GameState) clearDice() { s.dice = nil }

// CheckWinner records and returns the color whose home holds all stones.
func (s *GameState) CheckWinner(b *Board) Color {
	for _, c := range Colors {
		if b.HomeCount(c) == NumStones {
			s.winner = c
			return c
		}
	}
	return s.winner
}

// turnSnapshot is the part of GameState a command restores on undo.
type turnSnapshot struct {
	player   Color
	dice     []int
	rolled   bool
	lastRoll [2]int
	winner   Color
}

func (s *GameState) save() turnSnapshot {
	return turnSnapshot{
		player:   s.current,
		dice:     slices.Clone(s.dice),
		rolled:   s.rolled,
		lastRoll: s.lastRoll,
		winner:   s.winner,
	}
}

func (s *GameState) restore(t turnSnapshot) {
	s.current = t.player
	s.dice = slices.Clone(t.dice)
	s.rolled = t.rolled
	s.lastRoll = t.lastRoll
	s.winner = t.winner
}
