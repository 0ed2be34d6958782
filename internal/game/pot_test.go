package game

import (
	"testing"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunnuls/TPb-sub002/poker"
)

func TestSidePots(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		players []Player
		want    []Pot
	}{
		{
			name: "single pot",
			players: []Player{
				{Index: 0, Committed: 30},
				{Index: 1, Committed: 30},
				{Index: 2, Committed: 10, Folded: true},
			},
			want: []Pot{{Amount: 70, Eligible: []int{0, 1}, Cap: 30}},
		},
		{
			name: "short all-in",
			players: []Player{
				{Index: 0, Committed: 50, AllIn: true},
				{Index: 1, Committed: 100},
				{Index: 2, Committed: 100},
				{Index: 3, Committed: 20, Folded: true},
			},
			want: []Pot{
				{Amount: 170, Eligible: []int{0, 1, 2}, Cap: 50},
				{Amount: 100, Eligible: []int{1, 2}, Cap: 100},
			},
		},
		{
			name: "folded above live money",
			players: []Player{
				{Index: 0, Committed: 50, AllIn: true},
				{Index: 1, Committed: 100, AllIn: true},
				{Index: 2, Committed: 150, Folded: true},
			},
			want: []Pot{
				{Amount: 150, Eligible: []int{0, 1}, Cap: 50},
				{Amount: 150, Eligible: []int{1}, Cap: 100},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pots := SidePots(tt.players)
			assert.Equal(t, tt.want, pots)

			total, committed := 0, 0
			for _, p := range pots {
				total += p.Amount
			}
			for _, p := range tt.players {
				committed += p.Committed
			}
			assert.Equal(t, committed, total)
		})
	}
}

func TestSettleSplitsSidePots(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, testConfig(50, 200, 200))
	for i, hole := range []string{"AsAd", "KsKd", "QsQd"} {
		_, err := s.UpdateHoleCards(i, poker.MustParseCards(hole))
		require.NoError(t, err)
	}

	record(t, s, 0, AllIn, 0)
	record(t, s, 1, Raise, 150)
	record(t, s, 2, Call, 0)
	require.Equal(t, -1, s.Snapshot().ToAct)

	for _, step := range []struct {
		cards  string
		street Street
	}{{"2c7h9d", Flop}, {"Jc", Turn}, {"3s", River}} {
		_, err := s.UpdateBoard(poker.MustParseCards(step.cards), step.street)
		require.NoError(t, err)
		if step.street != River {
			record(t, s, 1, Check, 0)
			record(t, s, 2, Check, 0)
		}
	}
	record(t, s, 1, Check, 0)
	record(t, s, 2, Check, 0)

	snap := s.Snapshot()
	require.Equal(t, StateCompleted, snap.State)

	settlement, ok := Settle(snap)
	require.True(t, ok)
	// Aces take the main pot, kings the side pot.
	assert.Equal(t, []int{150, 200, 0}, settlement.Winnings)
	assert.Equal(t, []int{0, 1}, settlement.Winners)
}

func TestSettleSplitPot(t *testing.T) {
	t.Parallel()

	s, _, err := NewSession(Config{
		Players:    []PlayerConfig{{Name: "a", Stack: 100}, {Name: "b", Stack: 100}, {Name: "c", Stack: 100}},
		SmallBlind: 5,
		BigBlind:   10,
	}, quartz.NewMock(t))
	require.NoError(t, err)
	for i, hole := range []string{"2c3d", "AsKd", "AhKc"} {
		_, err := s.UpdateHoleCards(i, poker.MustParseCards(hole))
		require.NoError(t, err)
	}

	record(t, s, 0, Fold, 0)
	record(t, s, 1, Call, 0)
	record(t, s, 2, Check, 0)
	for _, step := range []struct {
		cards  string
		street Street
	}{{"QsJh4d", Flop}, {"8c", Turn}, {"7s", River}} {
		_, err := s.UpdateBoard(poker.MustParseCards(step.cards), step.street)
		require.NoError(t, err)
		record(t, s, 1, Check, 0)
		record(t, s, 2, Check, 0)
	}

	settlement, ok := Settle(s.Snapshot())
	require.True(t, ok)
	assert.Equal(t, CompletedByShowdown, settlement.Reason)
	assert.Equal(t, 20, settlement.Winnings[1]+settlement.Winnings[2])
	assert.Equal(t, 10, settlement.Winnings[1])
	assert.Equal(t, 10, settlement.Winnings[2])
}
