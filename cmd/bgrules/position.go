package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourusername/bgrules/internal/layout"
	"github.com/yourusername/bgrules/pkg/engine"
)

var positionCmd = &cobra.Command{
	Use:   "position",
	Short: "Convert layouts to and from gnubg position IDs",
}

var positionEncodeCmd = &cobra.Command{
	Use:   "encode [layout]",
	Short: "Print the position ID of a preset or layout file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ref := ""
		if len(args) == 1 {
			ref = args[0]
		}
		onRoll, err := playerFlag(cmd)
		if err != nil {
			return err
		}
		f, err := layout.Resolve(ref)
		if err != nil {
			return err
		}
		l, err := f.Layout()
		if err != nil {
			return err
		}
		b, err := engine.NewBoardFromLayout(l)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), b.PositionID(onRoll))
		return nil
	},
}

var positionDecodeCmd = &cobra.Command{
	Use:   "decode <position-id>",
	Short: "Show the board and layout encoded by a position ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		onRoll, err := playerFlag(cmd)
		if err != nil {
			return err
		}
		// gnubg writes "positionID:matchID"; only the position matters.
		id, _, _ := strings.Cut(args[0], ":")

		l, err := engine.LayoutFromPositionID(id, onRoll)
		if err != nil {
			return err
		}
		g, err := engine.NewGame(engine.WithLayout(l), engine.WithFirstPlayer(onRoll))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		noColor, _ := cmd.Flags().GetBool("no-color")
		newRenderer(out, !noColor).Board(out, g.Snapshot())

		data, err := layout.Marshal(layout.File{Description: "decoded from " + id, First: onRoll, Stones: g.Layout()})
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		fmt.Fprint(out, string(data))
		return nil
	},
}

func playerFlag(cmd *cobra.Command) (engine.Color, error) {
	s, _ := cmd.Flags().GetString("player")
	return engine.ParseColor(s)
}

func init() {
	positionCmd.PersistentFlags().String("player", "white", "Player on roll")
	positionDecodeCmd.Flags().Bool("no-color", false, "Disable colored output")
	positionCmd.AddCommand(positionEncodeCmd, positionDecodeCmd)
	rootCmd.AddCommand(positionCmd)
}
