package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourusername/bgrules/internal/layout"
	"github.com/yourusername/bgrules/pkg/engine"
)

const playHelp = `commands:
  roll            roll the dice
  24/18           move a stone (bar/20, 6/off)
  select 13       select a stack, then select a destination
  undo, redo      take back or replay a move
  board           show the board
  quit            leave the game`

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a hot-seat game in the terminal",
	Long: `Play a two-player game on one terminal. Both players type their
intents in turn; the board is printed after each one.

` + playHelp,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("layout") {
			cfg.Layout, _ = flags.GetString("layout")
		}
		if flags.Changed("doubles") {
			cfg.Doubles, _ = flags.GetString("doubles")
		}
		if flags.Changed("seed") {
			cfg.Seed, _ = flags.GetUint64("seed")
		}

		f, err := layout.Resolve(cfg.Layout)
		if err != nil {
			return err
		}
		l, err := f.Layout()
		if err != nil {
			return err
		}
		rules, err := cfg.Rules()
		if err != nil {
			return err
		}
		if f.Doubles != "" && !flags.Changed("doubles") {
			if rules, err = f.Rules(); err != nil {
				return err
			}
		}

		first := engine.White
		if f.First.Valid() {
			first = f.First
		}
		if flags.Changed("first") {
			s, _ := flags.GetString("first")
			if first, err = engine.ParseColor(s); err != nil {
				return err
			}
		}

		logger := slog.New(slog.DiscardHandler)
		if verbose, _ := flags.GetBool("verbose"); verbose {
			logger = cfg.Logger(os.Stderr)
		}

		g, err := engine.NewGame(
			engine.WithLayout(l),
			engine.WithRules(rules),
			engine.WithRoller(cfg.Roller()),
			engine.WithFirstPlayer(first),
			engine.WithLogger(logger),
		)
		if err != nil {
			return err
		}
		noColor, _ := flags.GetBool("no-color")
		return play(g, cmd.InOrStdin(), cmd.OutOrStdout(), !noColor)
	},
}

func init() {
	playCmd.Flags().String("layout", "standard", "Preset name or YAML/JSON layout file")
	playCmd.Flags().String("doubles", "two", "Doubles rule: two (as rolled) or four")
	playCmd.Flags().Uint64("seed", 0, "Dice seed (0 seeds from the clock)")
	playCmd.Flags().String("first", "white", "Player to roll first")
	playCmd.Flags().Bool("no-color", false, "Disable colored output")
	playCmd.Flags().BoolP("verbose", "v", false, "Log engine activity to stderr")
	rootCmd.AddCommand(playCmd)
}

// play reads one intent per line from in until quit or EOF.
func play(g *engine.Game, in io.Reader, out io.Writer, color bool) error {
	r := newRenderer(out, color)
	cancel := g.Subscribe(func(ev engine.Event) {
		fmt.Fprintf(out, "* %s\n", ev)
	})
	defer cancel()

	r.Board(out, g.Snapshot())
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		quit, err := dispatch(g, out, line)
		if quit {
			return nil
		}
		if err != nil {
			fmt.Fprintln(out, describe(err))
			if errors.Is(err, engine.ErrInvariant) {
				return err
			}
			continue
		}
		r.Board(out, g.Snapshot())
	}
}

// dispatch runs one intent. Output other than errors and the board comes
// from the event subscription.
func dispatch(g *engine.Game, out io.Writer, line string) (quit bool, err error) {
	fields := strings.Fields(strings.ToLower(line))
	switch fields[0] {
	case "quit", "q", "exit":
		return true, nil
	case "help", "?":
		fmt.Fprintln(out, playHelp)
		return false, nil
	case "board", "b":
		return false, nil
	case "roll", "r":
		_, err = g.RequestRoll()
		return false, err
	case "undo", "u":
		return false, g.RequestUndo()
	case "redo":
		return false, g.RequestRedo()
	case "select", "s":
		if len(fields) != 2 {
			return false, errors.New("usage: select <point|bar|off>")
		}
		at, err := engine.ParseLocation(fields[1])
		if err != nil {
			return false, err
		}
		sel, err := g.Select(at)
		if err == nil && len(sel.Destinations) > 0 {
			fmt.Fprintf(out, "%s can go to %v\n", sel.From, sel.Destinations)
		}
		return false, err
	}

	mv, err := engine.ParseMove(line)
	if err != nil {
		return false, fmt.Errorf("unknown command %q (type help)", line)
	}
	return false, g.SubmitMove(mv.From, mv.To)
}

func describe(err error) string {
	var me *engine.MoveError
	if errors.As(err, &me) {
		return fmt.Sprintf("illegal move %s: %s", me.Move, me.Reason)
	}
	return err.Error()
}
