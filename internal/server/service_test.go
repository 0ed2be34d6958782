package server

import (
	"context"
	"encoding/json"
	"io"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunnuls/TPb-sub002/internal/advisor"
	"github.com/sunnuls/TPb-sub002/internal/equity"
	"github.com/sunnuls/TPb-sub002/internal/game"
	"github.com/sunnuls/TPb-sub002/internal/rangebook"
	"github.com/sunnuls/TPb-sub002/poker"
)

// recordingPublisher captures every published message.
type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*Message
}

func (p *recordingPublisher) Publish(msg *Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
}

func (p *recordingPublisher) types() []MessageType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]MessageType, len(p.msgs))
	for i, m := range p.msgs {
		types[i] = m.Type
	}
	return types
}

func (p *recordingPublisher) analyses(t *testing.T) []AnalysisData {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []AnalysisData
	for _, m := range p.msgs {
		if m.Type != MessageTypeAnalysis {
			continue
		}
		var data AnalysisData
		require.NoError(t, json.Unmarshal(m.Data, &data))
		out = append(out, data)
	}
	return out
}

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func newTestService(t *testing.T, cfg ServiceConfig, eq equity.Config, clock quartz.Clock) (*Service, *recordingPublisher) {
	t.Helper()
	logger := testLogger()
	if eq.Iterations == 0 {
		eq = equity.Config{Iterations: 2000, Workers: 2, ExhaustiveThreshold: equity.DefaultExhaustiveThreshold}
	}
	engine := equity.NewEngine(eq, logger, quartz.NewReal())
	adv := advisor.New(engine, rangebook.DefaultBook(), advisor.Config{Seed: 11}, logger)
	pub := &recordingPublisher{}
	if clock == nil {
		clock = quartz.NewMock(t)
	}
	s := NewService(NewDirectory(logger), engine, adv, NewPlayerTracker(), pub, cfg, logger, clock)
	t.Cleanup(s.Wait)
	return s, pub
}

func gameConfig(names ...string) game.Config {
	cfg := game.Config{SmallBlind: 5, BigBlind: 10}
	for _, name := range names {
		cfg.Players = append(cfg.Players, game.PlayerConfig{Name: name, Stack: 1000})
	}
	return cfg
}

func TestInitGamePublishesEvents(t *testing.T) {
	t.Parallel()

	s, pub := newTestService(t, ServiceConfig{HeroSeat: -1}, equity.Config{}, nil)
	snap, err := s.InitGame("t1", gameConfig("alice", "bob", "carol"))
	require.NoError(t, err)

	assert.Equal(t, "t1", snap.TableID)
	assert.Equal(t, 15, snap.Pot)
	assert.Equal(t, []MessageType{MessageType(game.EventTypeSessionInitialized)}, pub.types())

	pub.mu.Lock()
	assert.Equal(t, "t1", pub.msgs[0].Table)
	pub.mu.Unlock()

	got, err := s.Snapshot("t1")
	require.NoError(t, err)
	assert.Equal(t, snap.ID, got.ID)
}

func TestInitGameDefaultTable(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t, ServiceConfig{HeroSeat: -1}, equity.Config{}, nil)
	_, err := s.InitGame("", gameConfig("alice", "bob"))
	require.NoError(t, err)

	snap, err := s.Snapshot(DefaultTable)
	require.NoError(t, err)
	assert.Equal(t, DefaultTable, snap.TableID)
}

func TestInitGameRejectsBadConfig(t *testing.T) {
	t.Parallel()

	s, pub := newTestService(t, ServiceConfig{HeroSeat: -1}, equity.Config{}, nil)
	_, err := s.InitGame("t1", gameConfig("alice"))
	require.Error(t, err)
	assert.Equal(t, "invalid_config", ErrorCode(err))
	assert.Empty(t, pub.types())

	_, err = s.Snapshot("t1")
	require.ErrorIs(t, err, ErrNoActiveGame)
}

func TestCommandsWithoutSession(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t, ServiceConfig{HeroSeat: -1}, equity.Config{}, nil)

	_, err := s.RecordAction("nope", 0, game.Call, 0)
	require.ErrorIs(t, err, ErrNoActiveGame)
	assert.Equal(t, "no_active_game", ErrorCode(err))

	_, err = s.UpdateBoard("nope", poker.MustParseCards("AsKsQs"), game.Flop)
	require.ErrorIs(t, err, ErrNoActiveGame)

	require.ErrorIs(t, s.EndSession("nope"), ErrNoActiveGame)

	_, err = s.RequestRecommendation(context.Background(), "nope", 0)
	require.ErrorIs(t, err, ErrNoActiveGame)
}

func TestRejectedCommandPublishesNothing(t *testing.T) {
	t.Parallel()

	s, pub := newTestService(t, ServiceConfig{HeroSeat: -1}, equity.Config{}, nil)
	_, err := s.InitGame("t1", gameConfig("alice", "bob", "carol"))
	require.NoError(t, err)
	before := len(pub.types())

	_, err = s.RecordAction("t1", 1, game.Call, 0)
	require.Error(t, err)
	assert.Equal(t, "wrong_turn", ErrorCode(err))
	assert.Len(t, pub.types(), before)
}

// headsUpFlop plays a heads-up hand with both hands known to the flop.
func headsUpFlop(t *testing.T, s *Service) game.Snapshot {
	t.Helper()
	_, err := s.InitGame("t1", gameConfig("alice", "bob"))
	require.NoError(t, err)
	_, err = s.UpdateHoleCards("t1", 0, poker.MustParseCards("7c2h"))
	require.NoError(t, err)
	_, err = s.UpdateHoleCards("t1", 1, poker.MustParseCards("AsAd"))
	require.NoError(t, err)

	_, err = s.RecordAction("t1", 0, game.Call, 0)
	require.NoError(t, err)
	_, err = s.RecordAction("t1", 1, game.Check, 0)
	require.NoError(t, err)
	s.Wait()

	snap, err := s.UpdateBoard("t1", poker.MustParseCards("AhAcKd"), game.Flop)
	require.NoError(t, err)
	s.Wait()
	return snap
}

func TestAnalysisAfterRoundAndBoard(t *testing.T) {
	t.Parallel()

	s, pub := newTestService(t, ServiceConfig{HeroSeat: 1}, equity.Config{}, nil)
	snap := headsUpFlop(t, s)

	analyses := pub.analyses(t)
	require.Len(t, analyses, 2, "closed preflop round and flop each trigger one analysis")
	assert.Equal(t, 0, analyses[0].BoardVersion)

	flop := analyses[1]
	assert.Equal(t, snap.ID, flop.SessionID)
	assert.Equal(t, 1, flop.BoardVersion)
	assert.Equal(t, game.Flop, flop.Street)
	require.Len(t, flop.Equities, 2)
	assert.Equal(t, "bob", flop.Equities[1].Name)
	assert.InDelta(t, 1.0, flop.Equities[1].Equity, 1e-9)
	assert.Equal(t, "exact", flop.Equities[1].Confidence)
	assert.Zero(t, flop.Equities[0].Equity)

	require.NotNil(t, flop.Recommendation)
	assert.Equal(t, 1, flop.Recommendation.Hero)
	assert.Equal(t, game.Bet, flop.Recommendation.Primary.Action)
}

func TestAnalysisWithoutHero(t *testing.T) {
	t.Parallel()

	s, pub := newTestService(t, ServiceConfig{HeroSeat: -1}, equity.Config{}, nil)
	headsUpFlop(t, s)

	for _, a := range pub.analyses(t) {
		assert.Nil(t, a.Recommendation)
	}
}

func TestSupersededAnalysisIsDiscarded(t *testing.T) {
	t.Parallel()

	s, pub := newTestService(t, ServiceConfig{HeroSeat: -1}, equity.Config{}, nil)
	_, err := s.InitGame("t1", gameConfig("alice", "bob"))
	require.NoError(t, err)
	_, err = s.RecordAction("t1", 0, game.Call, 0)
	require.NoError(t, err)
	_, err = s.RecordAction("t1", 1, game.Check, 0)
	require.NoError(t, err)
	s.Wait()

	preflop, err := s.Snapshot("t1")
	require.NoError(t, err)
	flop, err := s.UpdateBoard("t1", poker.MustParseCards("AhAcKd"), game.Flop)
	require.NoError(t, err)
	s.Wait()
	before := len(pub.analyses(t))

	// Only the analysis started last publishes.
	err = s.dir.withTable("t1", func(tbl *table) error {
		s.analyze("t1", tbl, preflop)
		s.analyze("t1", tbl, flop)
		return nil
	})
	require.NoError(t, err)
	s.Wait()
	analyses := pub.analyses(t)
	require.Len(t, analyses, before+1)
	assert.Equal(t, 1, analyses[len(analyses)-1].BoardVersion)

	// A replaced session is never analyzed.
	old, err := s.dir.lock("t1")
	require.NoError(t, err)
	old.mu.Unlock()
	_, err = s.InitGame("t1", gameConfig("alice", "bob"))
	require.NoError(t, err)

	old.mu.Lock()
	s.analyze("t1", old, flop)
	old.mu.Unlock()
	s.Wait()
	assert.Len(t, pub.analyses(t), before+1)
}

func TestBoardAnalysisSurvivesRacingCommands(t *testing.T) {
	t.Parallel()

	for range 20 {
		s, pub := newTestService(t, ServiceConfig{HeroSeat: -1}, equity.Config{}, nil)
		_, err := s.InitGame("t1", gameConfig("alice", "bob"))
		require.NoError(t, err)
		_, err = s.RecordAction("t1", 0, game.Call, 0)
		require.NoError(t, err)

		// The flop is retried until the check that closes preflop lands, so
		// the two commands race for the table.
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := s.RecordAction("t1", 1, game.Check, 0)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			for {
				if _, err := s.UpdateBoard("t1", poker.MustParseCards("AhAcKd"), game.Flop); err == nil {
					return
				}
				runtime.Gosched()
			}
		}()
		wg.Wait()
		s.Wait()

		analyses := pub.analyses(t)
		require.NotEmpty(t, analyses)
		assert.Equal(t, 1, analyses[len(analyses)-1].BoardVersion, "the current board is always analyzed")
	}
}

func TestAnalysisAfterFoldClosesRound(t *testing.T) {
	t.Parallel()

	s, pub := newTestService(t, ServiceConfig{HeroSeat: -1}, equity.Config{}, nil)
	_, err := s.InitGame("t1", gameConfig("alice", "bob", "carol"))
	require.NoError(t, err)
	_, err = s.RecordAction("t1", 0, game.Call, 0)
	require.NoError(t, err)
	_, err = s.RecordAction("t1", 1, game.Call, 0)
	require.NoError(t, err)
	_, err = s.RecordAction("t1", 2, game.Check, 0)
	require.NoError(t, err)

	// The flop analysis may still be running when the fold closes the round.
	_, err = s.UpdateBoard("t1", poker.MustParseCards("AhAcKd"), game.Flop)
	require.NoError(t, err)
	_, err = s.RecordAction("t1", 1, game.Check, 0)
	require.NoError(t, err)
	_, err = s.RecordAction("t1", 2, game.Check, 0)
	require.NoError(t, err)
	_, err = s.RecordAction("t1", 0, game.Fold, 0)
	require.NoError(t, err)
	s.Wait()

	analyses := pub.analyses(t)
	require.NotEmpty(t, analyses)
	last := analyses[len(analyses)-1]
	require.Len(t, last.Equities, 2)
	for _, eq := range last.Equities {
		assert.NotEqual(t, 0, eq.Player, "folded player is not analyzed")
	}
}

func TestReplacedSessionPublishesNothingAfterInit(t *testing.T) {
	t.Parallel()

	s, pub := newTestService(t, ServiceConfig{HeroSeat: -1}, equity.Config{}, nil)
	first, err := s.InitGame("t1", gameConfig("alice", "bob"))
	require.NoError(t, err)
	_, err = s.RecordAction("t1", 0, game.Call, 0)
	require.NoError(t, err)
	_, err = s.RecordAction("t1", 1, game.Check, 0)
	require.NoError(t, err)
	_, err = s.UpdateBoard("t1", poker.MustParseCards("AhAcKd"), game.Flop)
	require.NoError(t, err)

	_, err = s.InitGame("t1", gameConfig("alice", "bob"))
	require.NoError(t, err)
	s.Wait()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	initialized := 0
	for _, m := range pub.msgs {
		switch m.Type {
		case MessageType(game.EventTypeSessionInitialized):
			initialized++
		case MessageTypeAnalysis:
			if initialized < 2 {
				continue
			}
			var data AnalysisData
			require.NoError(t, json.Unmarshal(m.Data, &data))
			assert.NotEqual(t, first.ID, data.SessionID)
		}
	}
	assert.Equal(t, 2, initialized)
}

func TestSingleSurvivorAnalysis(t *testing.T) {
	t.Parallel()

	s, pub := newTestService(t, ServiceConfig{HeroSeat: 2}, equity.Config{}, nil)
	_, err := s.InitGame("t1", gameConfig("alice", "bob", "carol"))
	require.NoError(t, err)
	_, err = s.RecordAction("t1", 0, game.Fold, 0)
	require.NoError(t, err)
	_, err = s.RecordAction("t1", 1, game.Fold, 0)
	require.NoError(t, err)
	s.Wait()

	types := pub.types()
	assert.Contains(t, types, MessageType(game.EventTypeHandCompleted))

	analyses := pub.analyses(t)
	require.Len(t, analyses, 1)
	require.Len(t, analyses[0].Equities, 1)
	eq := analyses[0].Equities[0]
	assert.Equal(t, 2, eq.Player)
	assert.InDelta(t, 1.0, eq.Equity, 1e-9)
	assert.Equal(t, "exact", eq.Confidence)
	assert.Nil(t, analyses[0].Recommendation, "no advice once the hand is over")

	stats, ok := s.Tracker().Stats("carol")
	require.True(t, ok)
	assert.Equal(t, 1, stats.Hands)
	assert.Equal(t, 1, stats.HandsWon)
}

func TestAnalysisTimeout(t *testing.T) {
	t.Parallel()

	s, pub := newTestService(t,
		ServiceConfig{HeroSeat: -1, AnalysisTimeout: 5 * time.Millisecond},
		equity.Config{Iterations: 50_000_000, Workers: 2},
		quartz.NewReal())
	_, err := s.InitGame("t1", gameConfig("alice", "bob"))
	require.NoError(t, err)
	_, err = s.RecordAction("t1", 0, game.Call, 0)
	require.NoError(t, err)
	_, err = s.RecordAction("t1", 1, game.Check, 0)
	require.NoError(t, err)
	s.Wait()

	assert.Empty(t, pub.analyses(t))
}

func TestEndSession(t *testing.T) {
	t.Parallel()

	s, pub := newTestService(t, ServiceConfig{HeroSeat: -1}, equity.Config{}, nil)
	snap, err := s.InitGame("t1", gameConfig("alice", "bob"))
	require.NoError(t, err)

	require.NoError(t, s.EndSession("t1"))
	types := pub.types()
	assert.Equal(t, MessageTypeSessionEnded, types[len(types)-1])

	pub.mu.Lock()
	var data SessionEndedData
	require.NoError(t, json.Unmarshal(pub.msgs[len(pub.msgs)-1].Data, &data))
	pub.mu.Unlock()
	assert.Equal(t, snap.ID, data.SessionID)

	_, err = s.Snapshot("t1")
	require.ErrorIs(t, err, ErrNoActiveGame)
}

func TestPauseStopsCommands(t *testing.T) {
	t.Parallel()

	s, pub := newTestService(t, ServiceConfig{HeroSeat: -1}, equity.Config{}, nil)
	_, err := s.InitGame("t1", gameConfig("alice", "bob", "carol"))
	require.NoError(t, err)

	snap, err := s.Pause("t1")
	require.NoError(t, err)
	assert.Equal(t, game.StatePaused, snap.State)
	assert.Contains(t, pub.types(), MessageType(game.EventTypeSessionPaused))

	_, err = s.RecordAction("t1", 0, game.Call, 0)
	require.Error(t, err)
	assert.Equal(t, "hand_not_in_progress", ErrorCode(err))
}

func TestRequestEquity(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t, ServiceConfig{HeroSeat: -1}, equity.Config{}, nil)
	req, err := requestFromData(RequestEquityData{
		Hands: [][]poker.Card{poker.MustParseCards("AsAd"), poker.MustParseCards("7c2h")},
		Board: poker.MustParseCards("AhAcKd"),
	})
	require.NoError(t, err)

	results, err := s.RequestEquity(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.InDelta(t, 1.0, results[0].Equity(), 1e-9)
	assert.True(t, results[0].Exact)

	_, err = requestFromData(RequestEquityData{Hands: [][]poker.Card{poker.MustParseCards("AsAdKd")}})
	require.ErrorIs(t, err, equity.ErrInvalidInput)
}

func TestRequestRecommendation(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t, ServiceConfig{HeroSeat: -1}, equity.Config{}, nil)
	_, err := s.InitGame("t1", gameConfig("alice", "bob", "carol"))
	require.NoError(t, err)

	_, err = s.RequestRecommendation(context.Background(), "t1", 0)
	require.ErrorIs(t, err, advisor.ErrHeroCardsUnknown)
	assert.Equal(t, "hero_cards_unknown", ErrorCode(err))

	_, err = s.UpdateHoleCards("t1", 0, poker.MustParseCards("AsAh"))
	require.NoError(t, err)
	rec, err := s.RequestRecommendation(context.Background(), "t1", 0)
	require.NoError(t, err)
	assert.Equal(t, game.Raise, rec.Primary.Action)
}

func TestErrorCode(t *testing.T) {
	t.Parallel()

	var syntaxErr *json.SyntaxError
	err := json.Unmarshal([]byte("{"), &struct{}{})
	require.ErrorAs(t, err, &syntaxErr)

	assert.Equal(t, "invalid_message", ErrorCode(err))
	assert.Equal(t, "invalid_message", ErrorCode(ErrInvalidMessage))
	assert.Equal(t, "unknown_message_type", ErrorCode(ErrUnknownMessageType))
	assert.Equal(t, "card_conflict", ErrorCode(&equity.CardConflictError{}))
	assert.Equal(t, "internal_error", ErrorCode(io.ErrUnexpectedEOF))
}
