package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/yourusername/bgrules/internal/dicestats"
	"github.com/yourusername/bgrules/pkg/engine"
)

var rollstatsCmd = &cobra.Command{
	Use:   "rollstats",
	Short: "Roll the dice many times and test them for fairness",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		n, _ := flags.GetInt("rolls")
		alpha, _ := flags.GetFloat64("alpha")
		if flags.Changed("seed") {
			cfg.Seed, _ = flags.GetUint64("seed")
		}
		if flags.Changed("doubles") {
			cfg.Doubles, _ = flags.GetString("doubles")
		}
		rules, err := cfg.Rules()
		if err != nil {
			return err
		}

		report, err := dicestats.Collect(cfg.Roller(), rules, n)
		if err != nil {
			return err
		}
		printReport(cmd.OutOrStdout(), report, rules, alpha)
		return nil
	},
}

func init() {
	rollstatsCmd.Flags().IntP("rolls", "n", 36000, "Number of rolls")
	rollstatsCmd.Flags().Uint64("seed", 0, "Dice seed (0 seeds from the clock)")
	rollstatsCmd.Flags().String("doubles", "two", "Doubles rule used for the pip count: two or four")
	rollstatsCmd.Flags().Float64("alpha", 0.01, "Significance level of the fairness tests")
	rootCmd.AddCommand(rollstatsCmd)
}

func printReport(w io.Writer, r dicestats.Report, rules engine.Rules, alpha float64) {
	p := message.NewPrinter(language.English)
	dice := float64(r.Rolls * 2)

	p.Fprintf(w, "Rolled %d pairs of dice.\n", r.Rolls)
	p.Fprintf(w, "Doubles: %d (%.1f%%, expected 16.7%%).\n", r.Doubles, r.DoublesRate()*100)
	for face, count := range r.Faces {
		p.Fprintf(w, "%ds: %d (%.1f%%)\n", face+1, count, float64(count)/dice*100)
	}
	p.Fprintf(w, "Totals:")
	for i, count := range r.Sums {
		p.Fprintf(w, " %d:%d", i+2, count)
	}
	p.Fprintln(w)
	p.Fprintf(w, "Mean total %.3f (expected 7), standard deviation %.3f.\n", r.MeanSum, r.StdDevSum)
	p.Fprintf(w, "Pips per roll with doubles played %s: %.2f.\n", rules.Doubles, r.PipsPerRoll())
	p.Fprintf(w, "Faces chi-square %.2f (p=%.4f), totals chi-square %.2f (p=%.4f).\n",
		r.ChiSquare, r.PValue, r.SumChiSquare, r.SumPValue)

	verdict := "consistent with fair dice"
	if !r.Fair(alpha) {
		verdict = "NOT consistent with fair dice"
	}
	fmt.Fprintf(w, "At alpha=%g the rolls are %s.\n", alpha, verdict)
}
