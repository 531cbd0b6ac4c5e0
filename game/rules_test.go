package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTurnOrder_AfterExpiry(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		desc     string
		state    State
		expected Status
	}{
		{desc: "solo, round 1 of 3", state: State{Mode: ModeSolo, CurrentRound: 1, TotalRounds: 3}, expected: StatusRoundEnd},
		{desc: "solo, round 3 of 3", state: State{Mode: ModeSolo, CurrentRound: 3, TotalRounds: 3}, expected: StatusEnded},
		{desc: "solo, past the limit", state: State{Mode: ModeSolo, CurrentRound: 4, TotalRounds: 3}, expected: StatusEnded},
		{desc: "solo, unbounded", state: State{Mode: ModeSolo, CurrentRound: 99, TotalRounds: Unbounded}, expected: StatusRoundEnd},
		{desc: "team, first team last round", state: State{Mode: ModeTeam, Teams: make([]Team, 3), CurrentTeamIndex: 0, CurrentRound: 5, TotalRounds: 5}, expected: StatusRoundEnd},
		{desc: "team, middle team last round", state: State{Mode: ModeTeam, Teams: make([]Team, 3), CurrentTeamIndex: 1, CurrentRound: 5, TotalRounds: 5}, expected: StatusRoundEnd},
		{desc: "team, last team earlier round", state: State{Mode: ModeTeam, Teams: make([]Team, 3), CurrentTeamIndex: 2, CurrentRound: 4, TotalRounds: 5}, expected: StatusRoundEnd},
		{desc: "team, last team last round", state: State{Mode: ModeTeam, Teams: make([]Team, 3), CurrentTeamIndex: 2, CurrentRound: 5, TotalRounds: 5}, expected: StatusEnded},
		{desc: "team, last team unbounded", state: State{Mode: ModeTeam, Teams: make([]Team, 2), CurrentTeamIndex: 1, CurrentRound: 40, TotalRounds: Unbounded}, expected: StatusRoundEnd},
		{desc: "team, single team", state: State{Mode: ModeTeam, Teams: make([]Team, 1), CurrentRound: 1, TotalRounds: Unbounded}, expected: StatusEnded},
		{desc: "team, no teams", state: State{Mode: ModeTeam, CurrentRound: 1, TotalRounds: 3}, expected: StatusEnded},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			got := turnOrderOf(&tc.state).afterExpiry(tc.state.CurrentRound, tc.state.TotalRounds)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestTurnOrder_Advance(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		desc          string
		state         State
		expectedIndex int
		expectedRound int
	}{
		{desc: "solo", state: State{Mode: ModeSolo, CurrentRound: 2}, expectedIndex: 0, expectedRound: 3},
		{desc: "team, next team same round", state: State{Mode: ModeTeam, Teams: make([]Team, 3), CurrentTeamIndex: 0, CurrentRound: 2}, expectedIndex: 1, expectedRound: 2},
		{desc: "team, wrap counts a round", state: State{Mode: ModeTeam, Teams: make([]Team, 3), CurrentTeamIndex: 2, CurrentRound: 2}, expectedIndex: 0, expectedRound: 3},
		{desc: "single team", state: State{Mode: ModeTeam, Teams: make([]Team, 1), CurrentRound: 1}, expectedIndex: 0, expectedRound: 2},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			index, round := turnOrderOf(&tc.state).advance(tc.state.CurrentRound)
			assert.Equal(t, tc.expectedIndex, index)
			assert.Equal(t, tc.expectedRound, round)
		})
	}
}
