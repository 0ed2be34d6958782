package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/sunnuls/TPb-sub002/internal/advisor"
	"github.com/sunnuls/TPb-sub002/internal/equity"
	"github.com/sunnuls/TPb-sub002/internal/game"
	"github.com/sunnuls/TPb-sub002/poker"
)

// ErrInvalidMessage is returned for messages that cannot be decoded.
var ErrInvalidMessage = errors.New("invalid message")

// Publisher delivers outbound messages to whoever is listening. Publish
// must not block; it is called while the table is locked so that events
// go out in the order they happened.
type Publisher interface {
	Publish(msg *Message)
}

// ServiceConfig tunes the command service.
type ServiceConfig struct {
	// HeroSeat receives a recommendation with every analysis; -1 disables.
	HeroSeat int
	// AnalysisTimeout abandons an analysis that runs longer; 0 disables.
	AnalysisTimeout time.Duration
}

// Service executes commands against the directory, publishes the resulting
// events and runs the equity analysis that follows board changes and closed
// betting rounds.
type Service struct {
	dir     *Directory
	engine  *equity.Engine
	advisor *advisor.Advisor
	tracker *PlayerTracker
	pub     Publisher
	cfg     ServiceConfig
	logger  *log.Logger
	clock   quartz.Clock
	wg      sync.WaitGroup
}

// NewService wires the command service.
func NewService(dir *Directory, engine *equity.Engine, adv *advisor.Advisor, tracker *PlayerTracker, pub Publisher, cfg ServiceConfig, logger *log.Logger, clock quartz.Clock) *Service {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Service{
		dir:     dir,
		engine:  engine,
		advisor: adv,
		tracker: tracker,
		pub:     pub,
		cfg:     cfg,
		logger:  logger.WithPrefix("service"),
		clock:   clock,
	}
}

func tableOrDefault(tableID string) string {
	if tableID == "" {
		return DefaultTable
	}
	return tableID
}

// InitGame starts a new hand on tableID, replacing any session there. Its
// events go out after everything the replaced session published.
func (s *Service) InitGame(tableID string, cfg game.Config) (game.Snapshot, error) {
	tableID = tableOrDefault(tableID)
	cfg.TableID = tableID
	session, events, err := game.NewSession(cfg, s.clock)
	if err != nil {
		return game.Snapshot{}, err
	}
	snap := session.Snapshot()
	s.dir.Create(tableID, session, func() {
		s.publish(tableID, events)
	})
	return snap, nil
}

// apply runs one session command under the table lock, publishes its
// events and records completed hands. When trigger reports true for the
// resulting snapshot, an analysis starts before the table is released.
func (s *Service) apply(tableID string, command func(*game.Session) ([]game.Event, error), trigger func(game.Snapshot) bool) (game.Snapshot, []game.Event, error) {
	var (
		snap   game.Snapshot
		events []game.Event
	)
	err := s.dir.withTable(tableID, func(t *table) error {
		var err error
		events, err = command(t.session)
		if err != nil {
			return err
		}
		snap = t.session.Snapshot()
		s.publish(tableID, events)
		if trigger != nil && trigger(snap) {
			s.analyze(tableID, t, snap)
		}
		return nil
	})
	if err != nil {
		return game.Snapshot{}, nil, err
	}

	for _, event := range events {
		if completed, ok := event.(game.HandCompletedEvent); ok && s.tracker.Record(completed.Snapshot) {
			s.logger.Info("Hand completed", "table", tableID, "session", snap.ID, "reason", completed.Reason, "pot", snap.Pot)
		}
	}
	return snap, events, nil
}

func roundClosed(snap game.Snapshot) bool {
	return snap.ToAct == -1 && snap.State != game.StatePaused
}

func always(game.Snapshot) bool { return true }

// RecordAction records an action and, when it closes the betting round,
// starts an analysis.
func (s *Service) RecordAction(tableID string, player int, kind game.ActionKind, amount int) (game.Action, error) {
	_, events, err := s.apply(tableOrDefault(tableID), func(session *game.Session) ([]game.Event, error) {
		return session.RecordAction(player, kind, amount)
	}, roundClosed)
	if err != nil {
		return game.Action{}, err
	}
	return events[0].(game.ActionRecordedEvent).Action, nil
}

// UpdateBoard deals the next street and starts an analysis.
func (s *Service) UpdateBoard(tableID string, cards []poker.Card, street game.Street) (game.Snapshot, error) {
	snap, _, err := s.apply(tableOrDefault(tableID), func(session *game.Session) ([]game.Event, error) {
		return session.UpdateBoard(cards, street)
	}, always)
	return snap, err
}

// UpdateHoleCards reveals a player's hole cards.
func (s *Service) UpdateHoleCards(tableID string, player int, cards []poker.Card) (game.Snapshot, error) {
	snap, _, err := s.apply(tableOrDefault(tableID), func(session *game.Session) ([]game.Event, error) {
		return session.UpdateHoleCards(player, cards)
	}, nil)
	return snap, err
}

// Pause pauses the session of tableID.
func (s *Service) Pause(tableID string) (game.Snapshot, error) {
	snap, _, err := s.apply(tableOrDefault(tableID), func(session *game.Session) ([]game.Event, error) {
		return session.Pause()
	}, nil)
	return snap, err
}

// Snapshot returns the current state of tableID.
func (s *Service) Snapshot(tableID string) (game.Snapshot, error) {
	return s.dir.Get(tableOrDefault(tableID))
}

// EndSession discards the session of tableID.
func (s *Service) EndSession(tableID string) error {
	tableID = tableOrDefault(tableID)
	_, err := s.dir.Clear(tableID, func(session *game.Session) {
		msg, err := NewMessage(MessageTypeSessionEnded, tableID, SessionEndedData{SessionID: session.ID()}, s.clock.Now())
		if err != nil {
			s.logger.Error("Failed to create session ended message", "error", err)
			return
		}
		s.pub.Publish(msg)
	})
	return err
}

// RequestEquity runs the equity engine on an ad-hoc request.
func (s *Service) RequestEquity(ctx context.Context, req equity.Request) ([]equity.Result, error) {
	return s.engine.Calculate(ctx, req)
}

// RequestRecommendation advises hero on the current state of tableID. The
// snapshot is copied first, so the table is not locked while equity runs.
func (s *Service) RequestRecommendation(ctx context.Context, tableID string, hero int) (advisor.Recommendation, error) {
	snap, err := s.dir.Get(tableOrDefault(tableID))
	if err != nil {
		return advisor.Recommendation{}, err
	}
	return s.advisor.Recommend(ctx, snap, hero)
}

// Tracker returns the player tracker.
func (s *Service) Tracker() *PlayerTracker {
	return s.tracker
}

// Wait blocks until every analysis in flight has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) publish(tableID string, events []game.Event) {
	for _, event := range events {
		msg, err := EventMessage(tableID, event)
		if err != nil {
			s.logger.Error("Failed to create event message", "type", event.EventType(), "error", err)
			continue
		}
		s.pub.Publish(msg)
	}
}

// analyze computes equity for every live hand of snap, plus a hero
// recommendation, in the background. t.mu must be held. Starting a newer
// analysis of t cancels this one, and a result is published only while it
// is still the latest analysis of the open table.
func (s *Service) analyze(tableID string, t *table, snap game.Snapshot) {
	ctx, cancel, seq := t.startAnalysis()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		if s.cfg.AnalysisTimeout > 0 {
			timer := s.clock.AfterFunc(s.cfg.AnalysisTimeout, cancel, "analysis")
			defer timer.Stop()
		}

		data, err := s.runAnalysis(ctx, snap)
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Debug("Analysis abandoned", "table", tableID, "session", snap.ID, "boardVersion", snap.BoardVersion)
				return
			}
			s.logger.Warn("Analysis failed", "table", tableID, "session", snap.ID, "error", err)
			return
		}

		msg, err := NewMessage(MessageTypeAnalysis, tableID, data, s.clock.Now())
		if err != nil {
			s.logger.Error("Failed to create analysis message", "error", err)
			return
		}
		if !t.finishAnalysis(seq, func() { s.pub.Publish(msg) }) {
			s.logger.Debug("Discarding stale analysis", "table", tableID, "session", snap.ID, "boardVersion", snap.BoardVersion)
		}
	}()
}

func (s *Service) runAnalysis(ctx context.Context, snap game.Snapshot) (AnalysisData, error) {
	data := AnalysisData{
		SessionID:    snap.ID,
		BoardVersion: snap.BoardVersion,
		Street:       snap.Street,
		Board:        snap.Board,
	}

	live := snap.Live()
	if len(live) == 1 {
		p := snap.Players[live[0]]
		data.Equities = []PlayerEquity{{
			Player: p.Index,
			Name:   p.Name,
			HandEquity: HandEquity{
				Hand:       p.HoleCards,
				Win:        1,
				Equity:     1,
				Samples:    1,
				Confidence: "exact",
			},
		}}
		return data, nil
	}

	hands := make([]poker.Hand, len(live))
	for i, idx := range live {
		hands[i] = snap.Players[idx].Hole()
	}
	results, err := s.engine.Calculate(ctx, equity.Request{Hands: hands, Board: snap.Board})
	if err != nil {
		return AnalysisData{}, err
	}
	for i, idx := range live {
		data.Equities = append(data.Equities, PlayerEquity{
			Player:     idx,
			Name:       snap.Players[idx].Name,
			HandEquity: handEquity(hands[i], results[i]),
		})
	}

	data.Recommendation = s.recommend(ctx, snap)
	return data, nil
}

// recommend advises the configured hero when they are still in a betting
// street with known cards.
func (s *Service) recommend(ctx context.Context, snap game.Snapshot) *advisor.Recommendation {
	hero, ok := snap.Player(s.cfg.HeroSeat)
	if !ok || !snap.State.Betting() || hero.Folded || !hero.HasHoleCards() {
		return nil
	}
	rec, err := s.advisor.Recommend(ctx, snap, hero.Index)
	if err != nil {
		s.logger.Debug("No recommendation", "hero", hero.Index, "error", err)
		return nil
	}
	return &rec
}

// ErrorCode maps any service error onto its stable code.
func ErrorCode(err error) string {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.Is(err, ErrNoActiveGame):
		return "no_active_game"
	case errors.Is(err, ErrUnknownMessageType):
		return "unknown_message_type"
	case errors.Is(err, ErrInvalidMessage), errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return "invalid_message"
	}
	if code := advisor.Code(err); code != "" {
		return code
	}
	return "internal_error"
}

// requestFromData converts a wire equity request.
func requestFromData(data RequestEquityData) (equity.Request, error) {
	req := equity.Request{
		Board:      data.Board,
		Dead:       data.Dead,
		Iterations: data.Iterations,
		Seed:       data.Seed,
	}
	for i, cards := range data.Hands {
		if len(cards) != 0 && len(cards) != 2 {
			return equity.Request{}, fmt.Errorf("hand %d has %d cards: %w", i, len(cards), equity.ErrInvalidInput)
		}
		req.Hands = append(req.Hands, poker.NewHand(cards...))
	}
	return req, nil
}
