package engine

import (
	"fmt"
	"math/rand/v2"
	"sync"
)

// Roller produces a pair of die faces in 1..6.
type Roller interface {
	Roll() (int, int)
}

// RandomRoller rolls with a seeded PCG source.
type RandomRoller struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomRoller returns a roller seeded with seed. The same seed yields
// the same sequence of rolls.
func NewRandomRoller(seed uint64) *RandomRoller {
	return &RandomRoller{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Roll returns two independent faces.
func (r *RandomRoller) Roll() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(6) + 1, r.rng.IntN(6) + 1
}

// SequenceRoller replays fixed rolls in order and wraps around. It is
// meant for tests and scripted games.
type SequenceRoller struct {
	mu    sync.Mutex
	rolls [][2]int
	next  int
}

// NewSequenceRoller returns a roller that yields rolls in order. It
// panics on an empty script or a die outside 1-6.
func NewSequenceRoller(rolls ...[2]int) *SequenceRoller {
	if len(rolls) == 0 {
		panic("no scripted rolls")
	}
	for _, r := range rolls {
		if r[0] < 1 || r[0] > 6 || r[1] < 1 || r[1] > 6 {
			panic(fmt.Sprintf("invalid roll %v", r))
		}
	}
	return &SequenceRoller{rolls: rolls}
}

// Roll returns the next scripted roll.
func (r *SequenceRoller) Roll() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	roll := r.rolls[r.next%len(r.rolls)]
	r.next++
	return roll[0], roll[1]
}

// DoublesRule decides how many pips a double yields.
type DoublesRule uint8

const (
	// DoublesAsRolled plays a double as the two rolled faces, like any
	// other roll. This is the default.
	DoublesAsRolled DoublesRule = iota
	// DoublesFourMoves plays a double four times, the tournament rule.
	DoublesFourMoves
)

func (d DoublesRule) String() string {
	if d == DoublesFourMoves {
		return "four"
	}
	return "two"
}

// ParseDoublesRule parses "two" or "four".
func ParseDoublesRule(s string) (DoublesRule, error) {
	switch s {
	case "", "two", "as-rolled":
		return DoublesAsRolled, nil
	case "four", "standard":
		return DoublesFourMoves, nil
	}
	return DoublesAsRolled, fmt.Errorf("unknown doubles rule %q", s)
}

// Rules holds the variant switches of a game.
type Rules struct {
	Doubles DoublesRule
}

// DefaultRules returns the reference rules.
func DefaultRules() Rules {
	return Rules{Doubles: DoublesAsRolled}
}

// expand turns two faces into the list of pips to play.
func (r Rules) expand(a, b int) []int {
	if a == b && r.Doubles == DoublesFourMoves {
		return []int{a, a, a, a}
	}
	return []int{a, b}
}
