// Package equity computes multi-way win/tie/loss probabilities for hold'em
// hands. Small problems are enumerated exhaustively; larger ones are sampled
// by a pool of Monte Carlo workers, each with its own seeded RNG.
package equity

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/sunnuls/TPb-sub002/internal/randutil"
	"github.com/sunnuls/TPb-sub002/poker"
)

const (
	// DefaultIterations is the Monte Carlo sample count when neither the
	// request nor the configuration sets one.
	DefaultIterations = 20000
	// DefaultExhaustiveThreshold is the largest deal count that is
	// enumerated instead of sampled.
	DefaultExhaustiveThreshold = 50000
)

// Config tunes the engine.
type Config struct {
	Iterations          int
	Workers             int
	ExhaustiveThreshold int
	// MaxDuration bounds Monte Carlo sampling; when it elapses the workers
	// stop and the partial counts are returned. Zero means no budget.
	MaxDuration time.Duration
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Iterations:          DefaultIterations,
		Workers:             min(runtime.NumCPU(), 8),
		ExhaustiveThreshold: DefaultExhaustiveThreshold,
	}
}

// Request describes one equity problem. An empty entry in Hands is an
// unknown hand dealt from the unseen cards; known entries hold two cards.
type Request struct {
	Hands      []poker.Hand
	Board      []poker.Card
	Dead       []poker.Card
	Iterations int
	Seed       *int64
}

// Engine is stateless between calls and safe for concurrent use.
type Engine struct {
	cfg    Config
	logger *log.Logger
	clock  quartz.Clock
}

// NewEngine creates an engine. Zero config fields fall back to defaults.
func NewEngine(cfg Config, logger *log.Logger, clock quartz.Clock) *Engine {
	def := DefaultConfig()
	if cfg.Iterations <= 0 {
		cfg.Iterations = def.Iterations
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.ExhaustiveThreshold <= 0 {
		cfg.ExhaustiveThreshold = def.ExhaustiveThreshold
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Engine{
		cfg:    cfg,
		logger: logger.WithPrefix("equity"),
		clock:  clock,
	}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// problem is a validated request.
type problem struct {
	hands   []poker.Hand
	unknown []int
	board   poker.Hand
	need    int // board cards still to come
	used    poker.Hand
}

func (p *problem) unseen() int {
	return 52 - p.used.CountCards()
}

// deals returns the number of distinct ways to finish the deal.
func (p *problem) deals() float64 {
	pool := p.unseen()
	count := 1.0
	for range p.unknown {
		count *= binomial(pool, 2)
		pool -= 2
	}
	return count * binomial(pool, p.need)
}

// Calculate returns one Result per request hand, in request order. If ctx is
// cancelled before the work finishes it returns ctx.Err() and no results.
func (e *Engine) Calculate(ctx context.Context, req Request) ([]Result, error) {
	p, err := newProblem(req)
	if err != nil {
		return nil, err
	}

	start := e.clock.Now()
	deals := p.deals()
	exhaustive := deals <= float64(e.cfg.ExhaustiveThreshold) || (len(p.unknown) == 0 && p.need <= 1)

	var results []Result
	if exhaustive {
		results, err = e.enumerate(ctx, p)
	} else {
		iterations := req.Iterations
		if iterations <= 0 {
			iterations = e.cfg.Iterations
		}
		seed := randutil.TimeSeed()
		if req.Seed != nil {
			seed = *req.Seed
		}
		results, err = e.simulate(ctx, p, iterations, seed)
	}
	if err != nil {
		return nil, err
	}

	e.logger.Debug("equity calculated",
		"hands", len(p.hands),
		"unknown", len(p.unknown),
		"board", len(req.Board),
		"exact", exhaustive,
		"samples", results[0].Samples,
		"duration", e.clock.Since(start))
	return results, nil
}

func newProblem(req Request) (*problem, error) {
	if len(req.Hands) < 2 {
		return nil, ErrTooFewHands
	}
	switch len(req.Board) {
	case 0, 3, 4, 5:
	default:
		return nil, fmt.Errorf("%w: board holds %d cards", ErrInvalidInput, len(req.Board))
	}

	p := &problem{
		hands: make([]poker.Hand, len(req.Hands)),
		need:  5 - len(req.Board),
	}
	claim := func(c poker.Card) error {
		if !c.Valid() {
			return fmt.Errorf("%w: invalid card %#x", ErrInvalidInput, uint64(c))
		}
		if p.used.HasCard(c) {
			return &CardConflictError{Card: c}
		}
		p.used.AddCard(c)
		return nil
	}

	for i, h := range req.Hands {
		if h&^poker.FullDeck != 0 {
			return nil, fmt.Errorf("%w: hand %d holds invalid cards", ErrInvalidInput, i)
		}
		switch n := h.CountCards(); n {
		case 0:
			p.unknown = append(p.unknown, i)
		case 2:
			for _, c := range h.Cards() {
				if err := claim(c); err != nil {
					return nil, err
				}
			}
			p.hands[i] = h
		default:
			return nil, fmt.Errorf("%w: hand %d holds %d cards", ErrInvalidInput, i, n)
		}
	}
	for _, c := range req.Board {
		if err := claim(c); err != nil {
			return nil, err
		}
		p.board.AddCard(c)
	}
	for _, c := range req.Dead {
		if err := claim(c); err != nil {
			return nil, err
		}
	}

	if p.unseen() < 2*len(p.unknown)+p.need {
		return nil, fmt.Errorf("%w: not enough unseen cards to complete the deal", ErrInvalidInput)
	}
	return p, nil
}

func binomial(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	result := 1.0
	for i := range k {
		result = result * float64(n-i) / float64(i+1)
	}
	return result
}
