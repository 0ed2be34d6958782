package advisor

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunnuls/TPb-sub002/internal/equity"
	"github.com/sunnuls/TPb-sub002/internal/game"
	"github.com/sunnuls/TPb-sub002/internal/rangebook"
	"github.com/sunnuls/TPb-sub002/poker"
)

func testAdvisor(t *testing.T, cfg Config) *Advisor {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	engine := equity.NewEngine(equity.Config{Iterations: 3000, Workers: 2}, logger, quartz.NewReal())
	if cfg.Seed == 0 {
		cfg.Seed = 7
	}
	return New(engine, rangebook.DefaultBook(), cfg, logger)
}

func newSession(t *testing.T, players int) *game.Session {
	t.Helper()
	cfg := game.Config{SmallBlind: 5, BigBlind: 10}
	for i := range players {
		cfg.Players = append(cfg.Players, game.PlayerConfig{Name: string(rune('a' + i)), Stack: 1000})
	}
	s, _, err := game.NewSession(cfg, quartz.NewMock(t))
	require.NoError(t, err)
	return s
}

func act(t *testing.T, s *game.Session, player int, kind game.ActionKind, amount int) {
	t.Helper()
	_, err := s.RecordAction(player, kind, amount)
	require.NoError(t, err)
}

func hole(t *testing.T, s *game.Session, player int, cards string) {
	t.Helper()
	_, err := s.UpdateHoleCards(player, poker.MustParseCards(cards))
	require.NoError(t, err)
}

func TestRecommendValidatesHero(t *testing.T) {
	t.Parallel()

	a := testAdvisor(t, DefaultConfig())
	ctx := context.Background()
	s := newSession(t, 3)

	_, err := a.Recommend(ctx, s.Snapshot(), 0)
	require.ErrorIs(t, err, ErrHeroCardsUnknown)
	assert.Equal(t, "hero_cards_unknown", Code(err))

	_, err = a.Recommend(ctx, s.Snapshot(), 5)
	require.ErrorIs(t, err, game.ErrUnknownPlayer)

	hole(t, s, 0, "AsAd")
	act(t, s, 0, game.Fold, 0)
	_, err = a.Recommend(ctx, s.Snapshot(), 0)
	require.ErrorIs(t, err, game.ErrHandNotInProgress)
}

func TestOpenChart(t *testing.T) {
	t.Parallel()

	a := testAdvisor(t, DefaultConfig())
	s := newSession(t, 6)
	hole(t, s, 3, "AsAh")

	rec, err := a.Recommend(context.Background(), s.Snapshot(), 3)
	require.NoError(t, err)

	require.NotNil(t, rec.Range)
	assert.Equal(t, "UTG", rec.Range.Position)
	assert.Equal(t, rangebook.ActionOpen, rec.Range.Action)
	assert.Equal(t, game.Raise, rec.Primary.Action)
	assert.Equal(t, 25, rec.Primary.Amount)
	assert.InDelta(t, 2.5, rec.Primary.SizeBB, 1e-9)
	assert.InDelta(t, 1.0, rec.Primary.Frequency, 1e-9)
	assert.InDelta(t, 10.0/25.0, rec.PotOdds, 1e-9)
	require.NotEmpty(t, rec.Alternatives)
	assert.InDelta(t, 0.0, rec.Alternatives[0].Frequency, 1e-9)
	assert.Contains(t, rec.Reason, "AA")
}

func TestThreeBetAndCallCharts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cards  string
		action rangebook.Action
		want   game.ActionKind
		amount int
	}{
		{"premium three-bets", "AhKd", rangebook.Action3Bet, game.Raise, 90},
		{"medium pair calls", "8s8d", rangebook.ActionCall, game.Call, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := testAdvisor(t, DefaultConfig())
			s := newSession(t, 6)
			act(t, s, 3, game.Raise, 30)
			hole(t, s, 4, tt.cards)

			rec, err := a.Recommend(context.Background(), s.Snapshot(), 4)
			require.NoError(t, err)
			require.NotNil(t, rec.Range)
			assert.Equal(t, "HJ", rec.Range.Position)
			assert.Equal(t, "UTG", rec.Range.Vs)
			assert.Equal(t, tt.action, rec.Range.Action)
			assert.Equal(t, tt.want, rec.Primary.Action)
			assert.Equal(t, tt.amount, rec.Primary.Amount)
		})
	}
}

func TestOutsideChartFallsBackToEquity(t *testing.T) {
	t.Parallel()

	a := testAdvisor(t, DefaultConfig())
	s := newSession(t, 6)
	hole(t, s, 3, "7c2d")

	rec, err := a.Recommend(context.Background(), s.Snapshot(), 3)
	require.NoError(t, err)
	assert.Nil(t, rec.Range)
	assert.Equal(t, game.Fold, rec.Primary.Action)
	assert.InDelta(t, DefaultFallbackFrequency, rec.Primary.Frequency, 1e-9)
	assert.Less(t, rec.Equity, rec.PotOdds)
	assert.Contains(t, rec.Reason, "below pot odds")
}

// postflop sets up a heads-up flop where seat 1 holds quad aces against
// seat 0's 7-2, both hands known, so equity is enumerated exactly.
func postflop(t *testing.T) *game.Session {
	t.Helper()
	s := newSession(t, 2)
	hole(t, s, 0, "7c2h")
	hole(t, s, 1, "AsAd")
	act(t, s, 0, game.Call, 0)
	act(t, s, 1, game.Check, 0)
	_, err := s.UpdateBoard(poker.MustParseCards("AhAcKd"), game.Flop)
	require.NoError(t, err)
	return s
}

func TestHeuristicBetsWithNothingToCall(t *testing.T) {
	t.Parallel()

	a := testAdvisor(t, DefaultConfig())
	s := postflop(t)

	rec, err := a.Recommend(context.Background(), s.Snapshot(), 1)
	require.NoError(t, err)
	assert.Equal(t, "exact", rec.Confidence)
	assert.InDelta(t, 1.0, rec.Equity, 1e-9)
	assert.Zero(t, rec.PotOdds)

	assert.Equal(t, game.Bet, rec.Primary.Action)
	assert.Equal(t, 13, rec.Primary.Amount)
	assert.InDelta(t, 0.7, rec.Primary.Frequency, 1e-9)
	require.Len(t, rec.Alternatives, 1)
	assert.Equal(t, game.Check, rec.Alternatives[0].Action)
	assert.InDelta(t, 0.3, rec.Alternatives[0].Frequency, 1e-9)
	// Bet 13 called: 46 in the pot, 33 net; checking wins 20.
	assert.InDelta(t, 13.0, rec.EVDelta, 1e-9)
}

func TestHeuristicFoldsFacingBet(t *testing.T) {
	t.Parallel()

	a := testAdvisor(t, DefaultConfig())
	s := postflop(t)
	act(t, s, 1, game.Bet, 13)

	rec, err := a.Recommend(context.Background(), s.Snapshot(), 0)
	require.NoError(t, err)
	assert.InDelta(t, 13.0/46.0, rec.PotOdds, 1e-9)
	assert.Zero(t, rec.Equity)
	assert.Equal(t, game.Fold, rec.Primary.Action)
	require.Len(t, rec.Alternatives, 1, "clear spot lists one alternative")
	assert.Equal(t, game.Call, rec.Alternatives[0].Action)
	assert.InDelta(t, 13.0, rec.EVDelta, 1e-9)
}

func TestMarginalSpotListsSecondAlternative(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.MarginalBand = 1
	a := testAdvisor(t, cfg)
	s := postflop(t)
	act(t, s, 1, game.Bet, 13)

	rec, err := a.Recommend(context.Background(), s.Snapshot(), 0)
	require.NoError(t, err)
	require.Len(t, rec.Alternatives, 2)
	assert.Equal(t, game.Call, rec.Alternatives[0].Action)
	assert.Equal(t, game.Raise, rec.Alternatives[1].Action)
	assert.Equal(t, 39, rec.Alternatives[1].Amount)

	// The frequencies are informational and do not form a distribution.
	sum := rec.Primary.Frequency
	for _, alt := range rec.Alternatives {
		sum += alt.Frequency
	}
	assert.Greater(t, sum, 1.0)
}

func TestLoneSurvivorHasFullEquity(t *testing.T) {
	t.Parallel()

	a := testAdvisor(t, DefaultConfig())
	s := newSession(t, 3)
	hole(t, s, 2, "7c2d")
	act(t, s, 0, game.Fold, 0)
	act(t, s, 1, game.Fold, 0)

	rec, err := a.Recommend(context.Background(), s.Snapshot(), 2)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rec.Equity, 1e-9)
	assert.Equal(t, "exact", rec.Confidence)
}

func TestCancelledContext(t *testing.T) {
	t.Parallel()

	a := testAdvisor(t, Config{Iterations: 5_000_000})
	s := newSession(t, 6)
	hole(t, s, 3, "AsAh")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Recommend(ctx, s.Snapshot(), 3)
	require.ErrorIs(t, err, context.Canceled)
}
