// Package dicestats checks a dice source for fairness.
package dicestats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/yourusername/bgrules/pkg/engine"
)

// Report summarises a sample of rolls.
type Report struct {
	Rolls   int
	Faces   [6]int  // occurrences of each face over both dice
	Sums    [11]int // occurrences of each total, 2..12
	Doubles int
	Pips    int // pips to play under the sampled rules

	MeanSum   float64
	StdDevSum float64

	// Chi-square goodness of fit of the face counts against a uniform
	// distribution, with five degrees of freedom.
	ChiSquare float64
	PValue    float64

	// Same test for the totals against the two-dice distribution.
	SumChiSquare float64
	SumPValue    float64
}

// Collect rolls r n times and tallies the results.
func Collect(r engine.Roller, rules engine.Rules, n int) (Report, error) {
	if n <= 0 {
		return Report{}, fmt.Errorf("sample size must be positive, got %d", n)
	}
	rep := Report{Rolls: n}
	sums := make([]float64, n)
	for i := 0; i < n; i++ {
		a, b := r.Roll()
		if a < 1 || a > 6 || b < 1 || b > 6 {
			return Report{}, fmt.Errorf("roll %d: faces %d-%d out of range", i+1, a, b)
		}
		rep.Faces[a-1]++
		rep.Faces[b-1]++
		rep.Sums[a+b-2]++
		sums[i] = float64(a + b)
		if a == b {
			rep.Doubles++
			if rules.Doubles == engine.DoublesFourMoves {
				rep.Pips += 4 * a
				continue
			}
		}
		rep.Pips += a + b
	}
	rep.MeanSum, rep.StdDevSum = stat.MeanStdDev(sums, nil)

	faceObs := counts(rep.Faces[:])
	faceExp := make([]float64, 6)
	floats.AddConst(floats.Sum(faceObs)/6, faceExp)
	rep.ChiSquare = stat.ChiSquare(faceObs, faceExp)
	rep.PValue = distuv.ChiSquared{K: 5}.Survival(rep.ChiSquare)

	sumObs := counts(rep.Sums[:])
	sumExp := make([]float64, 11)
	for i := range sumExp {
		sumExp[i] = float64(n) * SumProbability(i+2)
	}
	rep.SumChiSquare = stat.ChiSquare(sumObs, sumExp)
	rep.SumPValue = distuv.ChiSquared{K: 10}.Survival(rep.SumChiSquare)
	return rep, nil
}

func counts(c []int) []float64 {
	out := make([]float64, len(c))
	for i, v := range c {
		out[i] = float64(v)
	}
	return out
}

// SumProbability is the chance that two fair dice total s.
func SumProbability(s int) float64 {
	if s < 2 || s > 12 {
		return 0
	}
	return float64(6-int(math.Abs(float64(s-7)))) / 36
}

// DoublesRate is the share of rolls that were doubles.
func (r Report) DoublesRate() float64 {
	if r.Rolls == 0 {
		return 0
	}
	return float64(r.Doubles) / float64(r.Rolls)
}

// PipsPerRoll is the average number of pips each roll provided.
func (r Report) PipsPerRoll() float64 {
	if r.Rolls == 0 {
		return 0
	}
	return float64(r.Pips) / float64(r.Rolls)
}

// Fair reports whether neither test rejects uniformity at level alpha.
func (r Report) Fair(alpha float64) bool {
	return r.PValue >= alpha && r.SumPValue >= alpha
}
