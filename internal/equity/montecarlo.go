package equity

import (
	"context"
	rand "math/rand/v2"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/sunnuls/TPb-sub002/internal/randutil"
	"github.com/sunnuls/TPb-sub002/poker"
)

// batchSize is the number of samples a worker draws between checks of the
// context and the time budget.
const batchSize = 256

// simulate splits iterations across workers. Worker i always draws
// iterations/workers samples (plus one of the remainder) from the stream
// randutil.Derive(seed, i), so a fixed seed and worker count reproduce the
// same counts.
func (e *Engine) simulate(ctx context.Context, p *problem, iterations int, seed int64) ([]Result, error) {
	workers := max(1, min(e.cfg.Workers, iterations/batchSize))

	var expired atomic.Bool
	if e.cfg.MaxDuration > 0 {
		timer := e.clock.AfterFunc(e.cfg.MaxDuration, func() { expired.Store(true) }, "equity", "budget")
		defer timer.Stop()
	}

	perWorker := iterations / workers
	remainder := iterations % workers
	tallies := make([]*tally, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := range workers {
		samples := perWorker
		if w < remainder {
			samples++
		}
		g.Go(func() error {
			t, err := runWorker(gctx, p, samples, randutil.Derive(seed, w), &expired)
			tallies[w] = t
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	total := newTally(len(p.hands))
	for _, t := range tallies {
		total.merge(t)
	}
	if expired.Load() {
		e.logger.Debug("equity budget exhausted", "samples", total.samples, "requested", iterations)
	}
	return total.results(false), nil
}

func runWorker(ctx context.Context, p *problem, samples int, rng *rand.Rand, expired *atomic.Bool) (*tally, error) {
	t := newTally(len(p.hands))
	deck := poker.NewDeckExcluding(p.used, rng)
	hands := append([]poker.Hand(nil), p.hands...)
	draw := 2*len(p.unknown) + p.need

	for i := 0; i < samples; i++ {
		if i%batchSize == 0 && i > 0 {
			if err := ctx.Err(); err != nil {
				return t, err
			}
			if expired.Load() {
				break
			}
		}

		cards := deck.Sample(draw)
		for n, idx := range p.unknown {
			hands[idx] = poker.NewHand(cards[2*n], cards[2*n+1])
		}
		board := p.board
		for _, c := range cards[2*len(p.unknown):] {
			board.AddCard(c)
		}
		t.record(hands, board)
	}
	return t, nil
}
