package server

import (
	"context"
	"testing"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunnuls/TPb-sub002/internal/game"
)

func newSession(t *testing.T, tableID string) *game.Session {
	t.Helper()
	cfg := gameConfig("alice", "bob", "carol")
	cfg.TableID = tableID
	s, _, err := game.NewSession(cfg, quartz.NewMock(t))
	require.NoError(t, err)
	return s
}

// startAnalysis starts an analysis on the open table of tableID.
func startAnalysis(t *testing.T, d *Directory, tableID string) (*table, context.Context, uint64) {
	t.Helper()
	tbl, err := d.lock(tableID)
	require.NoError(t, err)
	defer tbl.mu.Unlock()
	ctx, cancel, seq := tbl.startAnalysis()
	t.Cleanup(cancel)
	return tbl, ctx, seq
}

func TestDirectoryLifecycle(t *testing.T) {
	t.Parallel()

	d := NewDirectory(testLogger())
	assert.Empty(t, d.Tables())

	first := newSession(t, "a")
	installed := false
	d.Create("a", first, func() { installed = true })
	assert.True(t, installed)
	d.Create("b", newSession(t, "b"), nil)
	assert.Equal(t, []string{"a", "b"}, d.Tables())

	snap, err := d.Get("a")
	require.NoError(t, err)
	assert.Equal(t, first.ID(), snap.ID)

	var removed string
	cleared, err := d.Clear("a", func(s *game.Session) { removed = s.ID() })
	require.NoError(t, err)
	assert.Equal(t, first.ID(), cleared)
	assert.Equal(t, first.ID(), removed)
	assert.Equal(t, []string{"b"}, d.Tables())

	_, err = d.Get("a")
	require.ErrorIs(t, err, ErrNoActiveGame)
	_, err = d.Clear("a", nil)
	require.ErrorIs(t, err, ErrNoActiveGame)
}

func TestDirectoryReplaceCancelsAnalysis(t *testing.T) {
	t.Parallel()

	d := NewDirectory(testLogger())
	first := newSession(t, "a")
	d.Create("a", first, nil)
	old, ctx, seq := startAnalysis(t, d, "a")

	second := newSession(t, "a")
	d.Create("a", second, nil)
	assert.Error(t, ctx.Err(), "replacing the session cancels its analysis")
	assert.False(t, old.finishAnalysis(seq, func() { t.Error("published for a replaced session") }))

	snap, err := d.Get("a")
	require.NoError(t, err)
	assert.Equal(t, second.ID(), snap.ID)
}

func TestDirectoryNewAnalysisCancelsPrevious(t *testing.T) {
	t.Parallel()

	d := NewDirectory(testLogger())
	d.Create("a", newSession(t, "a"), nil)

	tbl, first, firstSeq := startAnalysis(t, d, "a")
	_, second, secondSeq := startAnalysis(t, d, "a")

	assert.Error(t, first.Err())
	assert.NoError(t, second.Err())
	assert.False(t, tbl.finishAnalysis(firstSeq, func() { t.Error("superseded analysis published") }))

	published := false
	assert.True(t, tbl.finishAnalysis(secondSeq, func() { published = true }))
	assert.True(t, published)

	_, err := d.Clear("a", nil)
	require.NoError(t, err)
	assert.Error(t, second.Err(), "clearing the table cancels its analysis")
	assert.False(t, tbl.finishAnalysis(secondSeq, func() { t.Error("published for a cleared table") }))
}

func TestDirectoryReplacementClosesOldTable(t *testing.T) {
	t.Parallel()

	d := NewDirectory(testLogger())
	d.Create("a", newSession(t, "a"), nil)
	old, err := d.lock("a")
	require.NoError(t, err)
	old.mu.Unlock()

	second := newSession(t, "a")
	d.Create("a", second, func() {
		// The replaced table is already closed while the new one installs.
		assert.True(t, old.closed)
	})

	err = d.With("a", func(s *game.Session) error {
		assert.Equal(t, second.ID(), s.ID())
		return nil
	})
	require.NoError(t, err)
}

func TestDirectoryWithSerializesCommands(t *testing.T) {
	t.Parallel()

	d := NewDirectory(testLogger())
	d.Create("a", newSession(t, "a"), nil)

	err := d.With("a", func(s *game.Session) error {
		_, err := s.RecordAction(0, game.Call, 0)
		return err
	})
	require.NoError(t, err)

	snap, err := d.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.ToAct)
	assert.Equal(t, 25, snap.Pot)
}
