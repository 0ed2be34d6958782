package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/sunnuls/TPb-sub002/internal/game"
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	tableID   string
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	service   *Service
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, service *Service) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:    conn,
		send:    make(chan *Message, 256),
		logger:  logger.WithPrefix("conn"),
		ctx:     ctx,
		cancel:  cancel,
		service: service,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client. It never blocks: a client
// whose buffer is full is disconnected.
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// SetTable subscribes this connection to the events of a table
func (c *Connection) SetTable(tableID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tableID = tableID
}

// GetTable returns the table this connection follows
func (c *Connection) GetTable() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tableID
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent

	// ErrUnknownMessageType is returned for messages of a type the server
	// does not handle.
	ErrUnknownMessageType = errors.New("unknown message type")
)

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendError(&Message{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err))
			continue
		}
		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage executes one request and answers it. Every request also
// subscribes the connection to its table's events.
func (c *Connection) handleMessage(msg *Message) {
	table := tableOrDefault(msg.Table)
	c.logger.Debug("Received message", "type", msg.Type, "table", table, "requestId", msg.RequestID)
	c.SetTable(table)

	reply, err := c.dispatch(table, msg)
	if err != nil {
		c.logger.Debug("Request failed", "type", msg.Type, "table", table, "error", err)
		c.sendError(msg, err)
		return
	}
	reply.RequestID = msg.RequestID
	_ = c.SendMessage(reply)
}

// decode unmarshals the payload of msg. An absent payload decodes to the
// zero value.
func decode[T any](msg *Message) (T, error) {
	var data T
	if len(msg.Data) == 0 || string(msg.Data) == "null" {
		return data, nil
	}
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		return data, fmt.Errorf("%w: %s data: %v", ErrInvalidMessage, msg.Type, err)
	}
	return data, nil
}

func (c *Connection) dispatch(table string, msg *Message) (*Message, error) {
	s := c.service
	switch msg.Type {
	case MessageTypeInitGame:
		data, err := decode[InitGameData](msg)
		if err != nil {
			return nil, err
		}
		snap, err := s.InitGame(table, game.Config{
			Players:    data.Players,
			Button:     data.Button,
			SmallBlind: data.SmallBlind,
			BigBlind:   data.BigBlind,
			Ante:       data.Ante,
		})
		return c.reply(MessageTypeState, table, snap, err)

	case MessageTypeRecordAction:
		data, err := decode[RecordActionData](msg)
		if err != nil {
			return nil, err
		}
		if _, err := s.RecordAction(table, data.Player, data.Action, data.Amount); err != nil {
			return nil, err
		}
		snap, err := s.Snapshot(table)
		return c.reply(MessageTypeState, table, snap, err)

	case MessageTypeUpdateBoard:
		data, err := decode[UpdateBoardData](msg)
		if err != nil {
			return nil, err
		}
		snap, err := s.UpdateBoard(table, data.Cards, data.Street)
		return c.reply(MessageTypeState, table, snap, err)

	case MessageTypeUpdateHoleCards:
		data, err := decode[UpdateHoleCardsData](msg)
		if err != nil {
			return nil, err
		}
		snap, err := s.UpdateHoleCards(table, data.Player, data.Cards)
		return c.reply(MessageTypeState, table, snap, err)

	case MessageTypePause:
		snap, err := s.Pause(table)
		return c.reply(MessageTypeState, table, snap, err)

	case MessageTypeEndSession:
		if err := s.EndSession(table); err != nil {
			return nil, err
		}
		return c.reply(MessageTypeSessionEnded, table, struct{}{}, nil)

	case MessageTypeGetState:
		snap, err := s.Snapshot(table)
		return c.reply(MessageTypeState, table, snap, err)

	case MessageTypeRequestEquity:
		data, err := decode[RequestEquityData](msg)
		if err != nil {
			return nil, err
		}
		req, err := requestFromData(data)
		if err != nil {
			return nil, err
		}
		results, err := s.RequestEquity(c.ctx, req)
		if err != nil {
			return nil, err
		}
		out := EquityResultData{Results: make([]HandEquity, len(results))}
		for i, r := range results {
			out.Results[i] = handEquity(req.Hands[i], r)
		}
		return c.reply(MessageTypeEquityResult, table, out, nil)

	case MessageTypeRequestRecommendation:
		data, err := decode[RequestRecommendationData](msg)
		if err != nil {
			return nil, err
		}
		rec, err := s.RequestRecommendation(c.ctx, table, data.Hero)
		return c.reply(MessageTypeRecommendation, table, rec, err)

	case MessageTypeGetStats:
		data, err := decode[GetStatsData](msg)
		if err != nil {
			return nil, err
		}
		if data.Player == "" {
			return c.reply(MessageTypeStats, table, StatsData{Players: s.Tracker().All()}, nil)
		}
		stats, ok := s.Tracker().Stats(data.Player)
		if !ok {
			return nil, fmt.Errorf("%w: %s", game.ErrUnknownPlayer, data.Player)
		}
		return c.reply(MessageTypeStats, table, StatsData{Players: []PlayerStats{stats}}, nil)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessageType, msg.Type)
	}
}

func (c *Connection) reply(messageType MessageType, table string, data any, err error) (*Message, error) {
	if err != nil {
		return nil, err
	}
	return NewMessage(messageType, table, data, c.service.clock.Now())
}

// sendError answers msg with an error message
func (c *Connection) sendError(msg *Message, cause error) {
	errorMsg, err := NewMessage(MessageTypeError, msg.Table, ErrorData{
		Code:    ErrorCode(cause),
		Message: cause.Error(),
	}, c.service.clock.Now())
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}
	errorMsg.RequestID = msg.RequestID

	_ = c.SendMessage(errorMsg)
}
