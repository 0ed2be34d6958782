package advisor

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/sunnuls/TPb-sub002/internal/equity"
	"github.com/sunnuls/TPb-sub002/internal/game"
	"github.com/sunnuls/TPb-sub002/internal/rangebook"
	"github.com/sunnuls/TPb-sub002/poker"
)

// ErrHeroCardsUnknown is returned when the hero's hole cards have not been
// revealed to the tracker.
var ErrHeroCardsUnknown = errors.New("hero hole cards unknown")

const (
	DefaultRaiseMargin       = 0.15
	DefaultFallbackFrequency = 0.7
	DefaultMarginalBand      = 0.05
)

// Config tunes the heuristic.
type Config struct {
	// RaiseMargin is the equity above the call threshold needed to raise.
	RaiseMargin float64
	// FallbackFrequency is the primary frequency when no chart applies.
	FallbackFrequency float64
	// MarginalBand is how close equity must be to a threshold for the spot
	// to count as marginal.
	MarginalBand float64
	// Iterations passed to the equity engine; 0 uses the engine default.
	Iterations int
	// Seed fixes the equity sampler; 0 draws a fresh seed per call.
	Seed int64
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		RaiseMargin:       DefaultRaiseMargin,
		FallbackFrequency: DefaultFallbackFrequency,
		MarginalBand:      DefaultMarginalBand,
	}
}

// Option is one suggested action.
type Option struct {
	Action    game.ActionKind `json:"action"`
	Frequency float64         `json:"frequency"`
	// Amount is the raise-to total for bets and raises, the chips for a
	// call, and zero otherwise.
	Amount int     `json:"amount,omitempty"`
	SizeBB float64 `json:"sizeBB,omitempty"`
	EV     float64 `json:"ev"`
}

// RangeUsed identifies the chart behind a preflop recommendation.
type RangeUsed struct {
	Position    string           `json:"position"`
	Action      rangebook.Action `json:"action"`
	Vs          string           `json:"vs,omitempty"`
	Notation    string           `json:"notation"`
	Frequency   float64          `json:"frequency"`
	Description string           `json:"description"`
}

// Recommendation is the advice for one seat at one point in the hand.
type Recommendation struct {
	Hero         int        `json:"hero"`
	Primary      Option     `json:"primary"`
	Alternatives []Option   `json:"alternatives,omitempty"`
	EVDelta      float64    `json:"evDelta"` // primary EV minus the best alternative's, in chips
	PotOdds      float64    `json:"potOdds"`
	Equity       float64    `json:"equity"`
	Confidence   string     `json:"confidence"`
	Range        *RangeUsed `json:"range,omitempty"`
	Reason       string     `json:"reason"`
}

// Advisor combines the equity engine and the range book.
type Advisor struct {
	engine *equity.Engine
	book   *rangebook.Book
	cfg    Config
	logger *log.Logger
}

// New creates an advisor. Zero tuning values take their defaults.
func New(engine *equity.Engine, book *rangebook.Book, cfg Config, logger *log.Logger) *Advisor {
	def := DefaultConfig()
	if cfg.RaiseMargin <= 0 {
		cfg.RaiseMargin = def.RaiseMargin
	}
	if cfg.FallbackFrequency <= 0 || cfg.FallbackFrequency > 1 {
		cfg.FallbackFrequency = def.FallbackFrequency
	}
	if cfg.MarginalBand < 0 {
		cfg.MarginalBand = def.MarginalBand
	}
	return &Advisor{
		engine: engine,
		book:   book,
		cfg:    cfg,
		logger: logger.WithPrefix("advisor"),
	}
}

// spot is everything the decision needs about the hero's situation.
type spot struct {
	snap    game.Snapshot
	hero    int
	player  game.Player
	toCall  int
	potOdds float64
	equity  float64
	live    int
}

// Recommend computes the advice for seat hero in snap.
func (a *Advisor) Recommend(ctx context.Context, snap game.Snapshot, hero int) (Recommendation, error) {
	player, ok := snap.Player(hero)
	if !ok {
		return Recommendation{}, fmt.Errorf("hero %d: %w", hero, game.ErrUnknownPlayer)
	}
	if player.Folded {
		return Recommendation{}, fmt.Errorf("hero %d has folded: %w", hero, game.ErrHandNotInProgress)
	}
	if !player.HasHoleCards() {
		return Recommendation{}, fmt.Errorf("hero %d: %w", hero, ErrHeroCardsUnknown)
	}

	s := spot{
		snap:   snap,
		hero:   hero,
		player: player,
		toCall: snap.ToCall(hero),
		live:   len(snap.Live()),
	}
	if s.toCall > 0 {
		s.potOdds = float64(s.toCall) / float64(snap.Pot+s.toCall)
	}

	result, err := a.heroEquity(ctx, snap, hero)
	if err != nil {
		return Recommendation{}, err
	}
	s.equity = result.Equity()

	rec := Recommendation{
		Hero:       hero,
		PotOdds:    s.potOdds,
		Equity:     s.equity,
		Confidence: result.Confidence(),
	}
	if snap.Street == game.Preflop && a.fromChart(&s, &rec) {
		a.logger.Debug("chart recommendation", "hero", hero, "action", rec.Primary.Action, "range", rec.Range.Description)
		return rec, nil
	}
	a.fromHeuristic(&s, &rec)
	a.logger.Debug("heuristic recommendation", "hero", hero, "action", rec.Primary.Action, "equity", s.equity, "potOdds", s.potOdds)
	return rec, nil
}

// heroEquity runs the engine for the hero against every other live hand.
// Unknown opponents are drawn from the unseen cards. A hero alone in the
// hand has all the equity without simulating.
func (a *Advisor) heroEquity(ctx context.Context, snap game.Snapshot, hero int) (equity.Result, error) {
	hands := []poker.Hand{snap.Players[hero].Hole()}
	for _, i := range snap.Live() {
		if i != hero {
			hands = append(hands, snap.Players[i].Hole())
		}
	}
	if len(hands) == 1 {
		return equity.Result{Wins: 1, Samples: 1, Exact: true}, nil
	}

	req := equity.Request{Hands: hands, Board: snap.Board, Iterations: a.cfg.Iterations}
	if a.cfg.Seed != 0 {
		seed := a.cfg.Seed
		req.Seed = &seed
	}
	results, err := a.engine.Calculate(ctx, req)
	if err != nil {
		return equity.Result{}, fmt.Errorf("hero equity: %w", err)
	}
	return results[0], nil
}

// chartLookup is one chart to try, in order of preference.
type chartLookup struct {
	action rangebook.Action
	vs     string
}

// fromChart applies the preflop charts. It reports false when no chart
// covers the spot or the hand is outside every applicable chart.
func (a *Advisor) fromChart(s *spot, rec *Recommendation) bool {
	position := string(s.player.Position)
	hole := s.player.HoleCards

	raisers := preflopRaisers(s.snap.Ledger)
	var lookups []chartLookup
	switch {
	case len(raisers) == 0:
		lookups = []chartLookup{{rangebook.ActionOpen, ""}}
	case len(raisers) == 1 && raisers[0] != s.hero:
		vs := string(s.snap.PositionOf(raisers[0]))
		lookups = []chartLookup{{rangebook.Action3Bet, vs}, {rangebook.ActionCall, vs}}
	default:
		return false
	}

	for _, l := range lookups {
		entry, ok := a.book.Lookup(position, l.action, l.vs)
		if !ok {
			continue
		}
		rng, err := entry.Range()
		if err != nil {
			a.logger.Warn("broken chart", "position", position, "action", l.action, "vs", l.vs, "error", err)
			continue
		}
		if !rng.Contains(hole[0], hole[1]) {
			continue
		}

		options := a.legalOptions(s)
		var primary Option
		switch l.action {
		case rangebook.ActionCall:
			primary, ok = find(options, game.Call)
		default:
			primary, ok = aggressive(options)
		}
		if !ok {
			continue
		}
		primary.Frequency = entry.Frequency
		rec.Range = &RangeUsed{
			Position:    position,
			Action:      l.action,
			Vs:          l.vs,
			Notation:    entry.Notation,
			Frequency:   entry.Frequency,
			Description: entry.Description,
		}
		rec.Reason = fmt.Sprintf("%s is in the %s chart", poker.HandClass(hole[0], hole[1]), entry.Description)
		a.finish(s, rec, primary, options, false)
		return true
	}
	return false
}

// fromHeuristic compares equity with pot odds, or with a fair share of the
// pot when there is nothing to call.
func (a *Advisor) fromHeuristic(s *spot, rec *Recommendation) {
	options := a.legalOptions(s)
	raise, canRaise := aggressive(options)

	var (
		primary   Option
		threshold float64
	)
	if s.toCall > 0 {
		threshold = s.potOdds
		call, _ := find(options, game.Call)
		switch {
		case canRaise && s.equity >= s.potOdds+a.cfg.RaiseMargin:
			primary = raise
			rec.Reason = fmt.Sprintf("equity %.2f clears pot odds %.2f by the raise margin", s.equity, s.potOdds)
			threshold = s.potOdds + a.cfg.RaiseMargin
		case s.equity >= s.potOdds:
			primary = call
			rec.Reason = fmt.Sprintf("equity %.2f covers pot odds %.2f", s.equity, s.potOdds)
		default:
			primary, _ = find(options, game.Fold)
			rec.Reason = fmt.Sprintf("equity %.2f is below pot odds %.2f", s.equity, s.potOdds)
		}
	} else {
		fair := 1 / float64(max(s.live, 1))
		threshold = fair + a.cfg.RaiseMargin
		check, _ := find(options, game.Check)
		if canRaise && s.equity >= threshold {
			primary = raise
			rec.Reason = fmt.Sprintf("equity %.2f beats a fair share of %.2f by the raise margin", s.equity, fair)
		} else {
			primary = check
			rec.Reason = fmt.Sprintf("equity %.2f against a fair share of %.2f, check", s.equity, fair)
		}
	}

	primary.Frequency = a.cfg.FallbackFrequency
	marginal := math.Abs(s.equity-threshold) <= a.cfg.MarginalBand
	a.finish(s, rec, primary, options, marginal)
}

// finish ranks the alternatives by chip EV and fills in the frequencies.
func (a *Advisor) finish(s *spot, rec *Recommendation, primary Option, options []Option, marginal bool) {
	var rest []Option
	for _, o := range options {
		if o.Action != primary.Action {
			rest = append(rest, o)
		}
	}
	slices.SortStableFunc(rest, func(x, y Option) int { return cmp.Compare(y.EV, x.EV) })

	rec.Primary = primary
	rec.Alternatives = nil
	if len(rest) > 0 {
		rec.EVDelta = primary.EV - rest[0].EV
		first := rest[0]
		first.Frequency = 1 - primary.Frequency
		rec.Alternatives = append(rec.Alternatives, first)
	}
	if marginal && len(rest) > 1 {
		second := rest[1]
		second.Frequency = (1 - primary.Frequency) / 2
		rec.Alternatives = append(rec.Alternatives, second)
	}
}

// legalOptions lists what the hero may do, with sizing and chip EV. A raise
// that would commit the whole stack is offered as all-in.
func (a *Advisor) legalOptions(s *spot) []Option {
	snap := s.snap
	p := s.player
	pot := float64(snap.Pot)
	eq := s.equity
	var options []Option

	if s.toCall > 0 {
		options = append(options,
			Option{Action: game.Fold},
			Option{
				Action: game.Call,
				Amount: s.toCall,
				EV:     eq*(pot+float64(s.toCall)) - float64(s.toCall),
			},
		)
	} else {
		options = append(options, Option{Action: game.Check, EV: eq * pot})
	}

	if p.Stack <= s.toCall {
		return options
	}
	raiseTo := a.raiseSize(s)
	kind := game.Raise
	if snap.CurrentBet == 0 {
		kind = game.Bet
	}
	allIn := p.Bet + p.Stack
	if raiseTo >= allIn {
		raiseTo = allIn
		kind = game.AllIn
	}
	chips := raiseTo - p.Bet
	// A single caller matches the raise.
	called := float64(raiseTo - snap.CurrentBet)
	options = append(options, Option{
		Action: kind,
		Amount: raiseTo,
		SizeBB: float64(raiseTo) / float64(snap.BigBlind),
		EV:     eq*(pot+float64(chips)+called) - float64(chips),
	})
	return options
}

// raiseSize picks a raise-to total: 2.5 big blinds plus one per limper to
// open, three times the bet when facing one, and two thirds of the pot to
// lead postflop.
func (a *Advisor) raiseSize(s *spot) int {
	snap := s.snap
	bb := snap.BigBlind
	var size int
	switch {
	case snap.Street == game.Preflop && len(preflopRaisers(snap.Ledger)) == 0:
		size = bb*5/2 + bb*limpers(snap.Ledger)
	case snap.CurrentBet > 0:
		size = 3 * snap.CurrentBet
	default:
		size = max(bb, snap.Pot*2/3)
	}
	return max(size, snap.CurrentBet+bb)
}

func preflopRaisers(ledger []game.Action) []int {
	var raisers []int
	for _, action := range ledger {
		if action.Street == game.Preflop && action.Kind.Submittable() && action.Raised {
			raisers = append(raisers, action.Player)
		}
	}
	return raisers
}

func limpers(ledger []game.Action) int {
	n := 0
	for _, action := range ledger {
		if action.Street == game.Preflop && action.Kind == game.Call {
			n++
		}
	}
	return n
}

func find(options []Option, kind game.ActionKind) (Option, bool) {
	for _, o := range options {
		if o.Action == kind {
			return o, true
		}
	}
	return Option{}, false
}

func aggressive(options []Option) (Option, bool) {
	for _, o := range options {
		if o.Action == game.Bet || o.Action == game.Raise || o.Action == game.AllIn {
			return o, true
		}
	}
	return Option{}, false
}

// Code returns "hero_cards_unknown" for ErrHeroCardsUnknown and defers to
// the equity and game packages otherwise.
func Code(err error) string {
	if errors.Is(err, ErrHeroCardsUnknown) {
		return "hero_cards_unknown"
	}
	if code := equity.Code(err); code != "" {
		return code
	}
	return game.Code(err)
}
