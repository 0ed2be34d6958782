package server

import (
	"encoding/json"
	"time"

	"github.com/sunnuls/TPb-sub002/internal/advisor"
	"github.com/sunnuls/TPb-sub002/internal/equity"
	"github.com/sunnuls/TPb-sub002/internal/game"
	"github.com/sunnuls/TPb-sub002/poker"
)

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
const (
	// Client to server messages
	MessageTypeInitGame              MessageType = "init_game"
	MessageTypeRecordAction          MessageType = "record_action"
	MessageTypeUpdateBoard           MessageType = "update_board"
	MessageTypeUpdateHoleCards       MessageType = "update_hole_cards"
	MessageTypePause                 MessageType = "pause"
	MessageTypeEndSession            MessageType = "end_session"
	MessageTypeGetState              MessageType = "get_state"
	MessageTypeRequestEquity         MessageType = "request_equity"
	MessageTypeRequestRecommendation MessageType = "request_recommendation"
	MessageTypeGetStats              MessageType = "get_stats"

	// Server to client messages. Session events use their game.EventType
	// name as the message type.
	MessageTypeAnalysis       MessageType = "analysis"
	MessageTypeEquityResult   MessageType = "equity_result"
	MessageTypeRecommendation MessageType = "recommendation"
	MessageTypeState          MessageType = "state"
	MessageTypeStats          MessageType = "stats"
	MessageTypeSessionEnded   MessageType = "session_ended"
	MessageTypeError          MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Table     string          `json:"table,omitempty"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message stamped with ts
func NewMessage(messageType MessageType, table string, data any, ts time.Time) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Table:     table,
		Data:      dataBytes,
		Timestamp: ts,
	}, nil
}

// EventMessage wraps a session event for broadcast.
func EventMessage(table string, event game.Event) (*Message, error) {
	return NewMessage(MessageType(event.EventType()), table, event, event.Timestamp())
}

// Client → Server Messages. The table a command applies to travels in the
// envelope; an empty table means DefaultTable.

type InitGameData struct {
	Players    []game.PlayerConfig `json:"players"`
	Button     int                 `json:"button"`
	SmallBlind int                 `json:"smallBlind"`
	BigBlind   int                 `json:"bigBlind"`
	Ante       int                 `json:"ante,omitempty"`
}

type RecordActionData struct {
	Player int             `json:"player"`
	Action game.ActionKind `json:"action"`
	Amount int             `json:"amount,omitempty"`
}

type UpdateBoardData struct {
	Cards  []poker.Card `json:"cards"`
	Street game.Street  `json:"street"`
}

type UpdateHoleCardsData struct {
	Player int          `json:"player"`
	Cards  []poker.Card `json:"cards"`
}

type RequestEquityData struct {
	// Hands holds two cards per known hand; an empty entry is an unknown hand.
	Hands      [][]poker.Card `json:"hands"`
	Board      []poker.Card   `json:"board,omitempty"`
	Dead       []poker.Card   `json:"dead,omitempty"`
	Iterations int            `json:"iterations,omitempty"`
	Seed       *int64         `json:"seed,omitempty"`
}

type RequestRecommendationData struct {
	Hero int `json:"hero"`
}

type GetStatsData struct {
	Player string `json:"player,omitempty"` // empty for every tracked player
}

// Server → Client Messages

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HandEquity is the equity of one request hand.
type HandEquity struct {
	Hand       []poker.Card `json:"hand,omitempty"`
	Win        float64      `json:"win"`
	Tie        float64      `json:"tie"`
	Loss       float64      `json:"loss"`
	Equity     float64      `json:"equity"`
	Samples    int64        `json:"samples"`
	Confidence string       `json:"confidence"`
}

func handEquity(hand poker.Hand, r equity.Result) HandEquity {
	he := HandEquity{
		Win:        r.WinProbability(),
		Tie:        r.TieProbability(),
		Loss:       r.LossProbability(),
		Equity:     r.Equity(),
		Samples:    r.Samples,
		Confidence: r.Confidence(),
	}
	if hand != 0 {
		he.Hand = hand.Cards()
	}
	return he
}

type EquityResultData struct {
	Results []HandEquity `json:"results"`
}

// PlayerEquity is the equity of one live player in an analysis.
type PlayerEquity struct {
	Player int    `json:"player"`
	Name   string `json:"name"`
	HandEquity
}

// AnalysisData is the equity and recommendation bundle computed after a
// board update or a closed betting round. SessionID and BoardVersion
// identify the state it was computed for.
type AnalysisData struct {
	SessionID      string                  `json:"sessionId"`
	BoardVersion   int                     `json:"boardVersion"`
	Street         game.Street             `json:"street"`
	Board          []poker.Card            `json:"board"`
	Equities       []PlayerEquity          `json:"equities"`
	Recommendation *advisor.Recommendation `json:"recommendation,omitempty"`
}

type StatsData struct {
	Players []PlayerStats `json:"players"`
}

type SessionEndedData struct {
	SessionID string `json:"sessionId"`
}
