package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"github.com/yourusername/bgrules/pkg/engine"
)

// renderer draws snapshots as a text board. White stones are "W",
// black stones "B"; the selected point and its destinations are
// highlighted.
type renderer struct {
	out *termenv.Output
}

func newRenderer(w io.Writer, color bool) *renderer {
	opts := []termenv.OutputOption{}
	if !color {
		opts = append(opts, termenv.WithProfile(termenv.Ascii))
	}
	return &renderer{out: termenv.NewOutput(w, opts...)}
}

func (r *renderer) stone(c engine.Color, text string) string {
	switch c {
	case engine.White:
		return r.out.String(text).Foreground(r.out.Color("#f5f5f4")).Bold().String()
	case engine.Black:
		return r.out.String(text).Foreground(r.out.Color("#f87171")).Bold().String()
	}
	return r.out.String(text).Faint().String()
}

func (r *renderer) cell(s engine.Snapshot, n int) string {
	p := s.Points[n-1]
	text := "  ."
	if p.Count > 0 {
		text = fmt.Sprintf("%2s%d", strings.ToUpper(p.Color.String()[:1]), p.Count)
	}
	styled := r.stone(p.Color, text)

	at := engine.PointAt(n)
	if s.Selected != nil && *s.Selected == at {
		return r.out.String(text).Reverse().String()
	}
	for _, d := range s.Destinations {
		if d == at {
			return r.out.String(text).Underline().String()
		}
	}
	return styled
}

func (r *renderer) row(s engine.Snapshot, points []int) string {
	var b strings.Builder
	for i, n := range points {
		if i == 6 {
			b.WriteString(" |")
		}
		b.WriteString(r.cell(s, n))
	}
	return b.String()
}

func labels(points []int) string {
	var b strings.Builder
	for i, n := range points {
		if i == 6 {
			b.WriteString(" |")
		}
		fmt.Fprintf(&b, "%3d", n)
	}
	return b.String()
}

var (
	topPoints    = []int{13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23, 24}
	bottomPoints = []int{12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
)

// Board writes the full board and status line for s.
func (r *renderer) Board(w io.Writer, s engine.Snapshot) {
	fmt.Fprintln(w, labels(topPoints))
	fmt.Fprintln(w, r.row(s, topPoints))
	fmt.Fprintf(w, "%s   bar: %s %s\n",
		strings.Repeat("-", 19)+"+"+strings.Repeat("-", 18),
		r.stone(engine.White, fmt.Sprintf("W%d", s.Bar[engine.White])),
		r.stone(engine.Black, fmt.Sprintf("B%d", s.Bar[engine.Black])),
	)
	fmt.Fprintln(w, r.row(s, bottomPoints))
	fmt.Fprintln(w, labels(bottomPoints))
	fmt.Fprintf(w, "off: white %d  black %d\n", s.Home[engine.White], s.Home[engine.Black])
	fmt.Fprintln(w, status(s))
}

func status(s engine.Snapshot) string {
	if s.State == engine.GameOver {
		return fmt.Sprintf("game over: %s wins", s.Winner)
	}
	line := fmt.Sprintf("%s to play, %s", s.Player, strings.ReplaceAll(s.State.String(), "_", " "))
	if s.Rolled {
		line += fmt.Sprintf(", rolled %d-%d", s.Roll[0], s.Roll[1])
		if len(s.Dice) > 0 {
			line += fmt.Sprintf(", dice left %v", s.Dice)
		}
	}
	if s.Selected != nil {
		line += fmt.Sprintf(", selected %s -> %v", s.Selected, s.Destinations)
	}
	return line
}
