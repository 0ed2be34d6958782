package server

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/sunnuls/TPb-sub002/internal/game"
)

// DefaultTable is used by callers that track a single table.
const DefaultTable = "default"

// ErrNoActiveGame is returned for commands on a table without a session.
var ErrNoActiveGame = errors.New("no active game")

// table is the live session of one table. mu serializes every command on
// the session; ctx lives as long as the session and parents its analysis.
// A table is closed once its session is replaced or cleared.
type table struct {
	mu          sync.Mutex
	session     *game.Session
	ctx         context.Context
	cancel      context.CancelFunc
	closed      bool
	analysis    context.CancelFunc
	analysisSeq uint64
}

// close retires t. t.mu must be held.
func (t *table) close() {
	t.closed = true
	t.cancel()
}

// startAnalysis cancels the running analysis of t and returns the context
// and sequence number of a new one. t.mu must be held, so analyses start
// in the order of the commands that trigger them.
func (t *table) startAnalysis() (context.Context, context.CancelFunc, uint64) {
	if t.analysis != nil {
		t.analysis()
	}
	ctx, cancel := context.WithCancel(t.ctx)
	t.analysis = cancel
	t.analysisSeq++
	return ctx, cancel, t.analysisSeq
}

// Directory holds at most one live session per table id.
type Directory struct {
	logger *log.Logger
	mu     sync.RWMutex
	tables map[string]*table
}

// NewDirectory constructs an empty directory.
func NewDirectory(logger *log.Logger) *Directory {
	return &Directory{
		logger: logger.WithPrefix("directory"),
		tables: make(map[string]*table),
	}
}

// Create installs s as the session of tableID, replacing any previous one.
// The replaced session's in-flight analysis is cancelled. fn, if not nil,
// runs once s is installed and before any command can reach it; nothing
// from the replaced session runs after fn starts.
func (d *Directory) Create(tableID string, s *game.Session, fn func()) {
	ctx, cancel := context.WithCancel(context.Background())
	t := &table{session: s, ctx: ctx, cancel: cancel}
	t.mu.Lock()
	defer t.mu.Unlock()

	d.mu.Lock()
	previous := d.tables[tableID]
	if previous != nil {
		previous.mu.Lock()
		defer previous.mu.Unlock()
		previous.close()
	}
	d.tables[tableID] = t
	d.mu.Unlock()

	if previous != nil {
		d.logger.Info("Replaced session", "table", tableID, "previous", previous.session.ID(), "session", s.ID())
	} else {
		d.logger.Info("Created session", "table", tableID, "session", s.ID())
	}
	if fn != nil {
		fn()
	}
}

// lock returns the open table of tableID with its mutex held. A table
// closed while the caller waited is looked up again.
func (d *Directory) lock(tableID string) (*table, error) {
	for {
		d.mu.RLock()
		t, ok := d.tables[tableID]
		d.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("table %q: %w", tableID, ErrNoActiveGame)
		}
		t.mu.Lock()
		if !t.closed {
			return t, nil
		}
		t.mu.Unlock()
	}
}

func (d *Directory) withTable(tableID string, fn func(*table) error) error {
	t, err := d.lock(tableID)
	if err != nil {
		return err
	}
	defer t.mu.Unlock()
	return fn(t)
}

// With runs fn with exclusive access to the session of tableID.
func (d *Directory) With(tableID string, fn func(*game.Session) error) error {
	return d.withTable(tableID, func(t *table) error {
		return fn(t.session)
	})
}

// Get returns a snapshot of the session of tableID.
func (d *Directory) Get(tableID string) (game.Snapshot, error) {
	var snap game.Snapshot
	err := d.With(tableID, func(s *game.Session) error {
		snap = s.Snapshot()
		return nil
	})
	return snap, err
}

// Clear removes the session of tableID and cancels its analysis. fn, if
// not nil, runs with the removed session before the table can be created
// again. It returns the removed session id.
func (d *Directory) Clear(tableID string, fn func(*game.Session)) (string, error) {
	d.mu.Lock()
	t, ok := d.tables[tableID]
	if !ok {
		d.mu.Unlock()
		return "", fmt.Errorf("table %q: %w", tableID, ErrNoActiveGame)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(d.tables, tableID)
	t.close()
	if fn != nil {
		fn(t.session)
	}
	d.mu.Unlock()

	d.logger.Info("Cleared session", "table", tableID, "session", t.session.ID())
	return t.session.ID(), nil
}

// Tables lists the tables with a live session.
func (d *Directory) Tables() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]string, 0, len(d.tables))
	for id := range d.tables {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// finishAnalysis runs publish with t locked if analysis seq is still the
// latest of the open table. It reports whether publish ran.
func (t *table) finishAnalysis(seq uint64, publish func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.analysisSeq != seq {
		return false
	}
	publish()
	return true
}
