package equity

import (
	"fmt"
	"math"

	"github.com/sunnuls/TPb-sub002/poker"
)

// Result holds the outcome counts for one hand of a request. Every deal
// lands in exactly one of Wins, Ties or Losses; TieShare accumulates the
// fractional pot (1/k for a k-way tie) won on tied deals.
type Result struct {
	Wins     int64
	Ties     int64
	Losses   int64
	TieShare float64
	Samples  int64
	Exact    bool
}

// WinProbability returns the fraction of deals won outright.
func (r Result) WinProbability() float64 {
	if r.Samples == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.Samples)
}

// TieProbability returns the fraction of deals that split the pot.
func (r Result) TieProbability() float64 {
	if r.Samples == 0 {
		return 0
	}
	return float64(r.Ties) / float64(r.Samples)
}

// LossProbability returns the fraction of deals lost.
func (r Result) LossProbability() float64 {
	if r.Samples == 0 {
		return 0
	}
	return float64(r.Losses) / float64(r.Samples)
}

// Equity is the expected share of the pot: wins plus the fractional tie share.
func (r Result) Equity() float64 {
	if r.Samples == 0 {
		return 0
	}
	return (float64(r.Wins) + r.TieShare) / float64(r.Samples)
}

// Confidence describes how the numbers were produced: "exact" for an
// exhaustive enumeration, otherwise the realized sample count.
func (r Result) Confidence() string {
	if r.Exact {
		return "exact"
	}
	return fmt.Sprintf("%d samples", r.Samples)
}

// ConfidenceInterval returns the 95% confidence interval for equity. Exact
// results have a zero-width interval.
func (r Result) ConfidenceInterval() (lower, upper float64) {
	equity := r.Equity()
	if r.Exact {
		return equity, equity
	}
	n := float64(r.Samples)
	if n == 0 {
		return 0, 0
	}

	se := math.Sqrt((equity * (1.0 - equity)) / n)
	margin := 1.96 * se

	return math.Max(0.0, equity-margin), math.Min(1.0, equity+margin)
}

// tally accumulates per-hand outcomes for a batch of deals.
type tally struct {
	wins    []int64
	ties    []int64
	losses  []int64
	share   []float64
	samples int64
	ranks   []poker.HandRank
}

func newTally(hands int) *tally {
	return &tally{
		wins:   make([]int64, hands),
		ties:   make([]int64, hands),
		losses: make([]int64, hands),
		share:  make([]float64, hands),
		ranks:  make([]poker.HandRank, hands),
	}
}

// record scores one complete deal. hands[i] must hold exactly two cards and
// board exactly five.
func (t *tally) record(hands []poker.Hand, board poker.Hand) {
	best := poker.WorstHand
	for i, h := range hands {
		t.ranks[i] = poker.Evaluate7Cards(h | board)
		if t.ranks[i] < best {
			best = t.ranks[i]
		}
	}

	winners := 0
	for _, r := range t.ranks {
		if r == best {
			winners++
		}
	}
	share := 1.0 / float64(winners)
	for i, r := range t.ranks {
		switch {
		case r != best:
			t.losses[i]++
		case winners == 1:
			t.wins[i]++
		default:
			t.ties[i]++
			t.share[i] += share
		}
	}
	t.samples++
}

// merge folds another tally into t.
func (t *tally) merge(o *tally) {
	for i := range t.wins {
		t.wins[i] += o.wins[i]
		t.ties[i] += o.ties[i]
		t.losses[i] += o.losses[i]
		t.share[i] += o.share[i]
	}
	t.samples += o.samples
}

func (t *tally) results(exact bool) []Result {
	out := make([]Result, len(t.wins))
	for i := range out {
		out[i] = Result{
			Wins:     t.wins[i],
			Ties:     t.ties[i],
			Losses:   t.losses[i],
			TieShare: t.share[i],
			Samples:  t.samples,
			Exact:    exact,
		}
	}
	return out
}
