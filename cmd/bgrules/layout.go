package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yourusername/bgrules/internal/layout"
	"github.com/yourusername/bgrules/pkg/engine"
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "List preset layouts or print one as YAML",
}

var layoutListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the preset layouts",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range layout.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

var layoutShowCmd = &cobra.Command{
	Use:   "show <preset|file>",
	Short: "Validate a layout and print it as YAML",
	Long: `Validate a preset or layout file and print the resulting stones as
YAML. The output can be edited and passed back with --layout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := layout.Resolve(args[0])
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

		out := layout.FromBoard(f.Name, b)
		out.Description = f.Description
		out.First = f.First
		out.Doubles = f.Doubles
		data, err := layout.Marshal(out)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	layoutCmd.AddCommand(layoutListCmd, layoutShowCmd)
	rootCmd.AddCommand(layoutCmd)
}
