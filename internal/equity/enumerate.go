package equity

import (
	"context"

	"github.com/sunnuls/TPb-sub002/poker"
)

// ctxCheckInterval is how many deals run between cancellation checks.
const ctxCheckInterval = 4096

// enumerate visits every distinct completion of the deal exactly once.
func (e *Engine) enumerate(ctx context.Context, p *problem) ([]Result, error) {
	t := newTally(len(p.hands))
	hands := append([]poker.Hand(nil), p.hands...)

	var visited int
	var cancelled error
	var deal func(slot int, used poker.Hand) bool
	deal = func(slot int, used poker.Hand) bool {
		pool := (poker.FullDeck &^ used).Cards()
		if slot == len(p.unknown) {
			return forEachCombination(pool, p.need, func(runout poker.Hand) bool {
				t.record(hands, p.board|runout)
				visited++
				if visited%ctxCheckInterval == 0 {
					if err := ctx.Err(); err != nil {
						cancelled = err
						return false
					}
				}
				return true
			})
		}

		idx := p.unknown[slot]
		for i := 0; i < len(pool); i++ {
			for j := i + 1; j < len(pool); j++ {
				h := poker.NewHand(pool[i], pool[j])
				hands[idx] = h
				if !deal(slot+1, used|h) {
					return false
				}
			}
		}
		hands[idx] = 0
		return true
	}

	deal(0, p.used)
	if cancelled != nil {
		return nil, cancelled
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t.results(true), nil
}

// forEachCombination calls fn with every k-card subset of cards as a mask,
// stopping early when fn returns false. It reports whether it ran to
// completion.
func forEachCombination(cards []poker.Card, k int, fn func(poker.Hand) bool) bool {
	if k == 0 {
		return fn(0)
	}
	if k > len(cards) {
		return true
	}

	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	for {
		var h poker.Hand
		for _, i := range idx {
			h.AddCard(cards[i])
		}
		if !fn(h) {
			return false
		}

		// Advance to the next combination in lexicographic order.
		i := k - 1
		for i >= 0 && idx[i] == len(cards)-k+i {
			i--
		}
		if i < 0 {
			return true
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
