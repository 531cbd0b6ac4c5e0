package game

// turnOrder decides what happens when a turn's countdown expires and who plays
// next. Every game is exactly one of the cases below.
type turnOrder interface {
	afterExpiry(round int, limit Rounds) Status
	advance(round int) (teamIndex int, nextRound int)
}

type soloTurns struct{}

func (soloTurns) afterExpiry(round int, limit Rounds) Status {
	if limit.Reached(round) {
		return StatusEnded
	}
	return StatusRoundEnd
}

func (soloTurns) advance(round int) (int, int) {
	return 0, round + 1
}

// teamTurns rotates between two or more teams. A round is complete once every
// team has played.
type teamTurns struct {
	count int
	index int
}

func (t teamTurns) afterExpiry(round int, limit Rounds) Status {
	if t.index == t.count-1 && limit.Reached(round) {
		return StatusEnded
	}
	return StatusRoundEnd
}

func (t teamTurns) advance(round int) (int, int) {
	next := (t.index + 1) % t.count
	if next == 0 {
		return 0, round + 1
	}
	return next, round
}

// noRotation is team mode with a single team (or none): there is nobody to hand
// over to, so an expired countdown ends the game.
type noRotation struct{}

func (noRotation) afterExpiry(int, Rounds) Status {
	return StatusEnded
}

func (noRotation) advance(round int) (int, int) {
	return 0, round + 1
}

func turnOrderOf(s *State) turnOrder {
	if s.Mode != ModeTeam {
		return soloTurns{}
	}
	if len(s.Teams) > 1 {
		return teamTurns{count: len(s.Teams), index: s.CurrentTeamIndex}
	}
	return noRotation{}
}
