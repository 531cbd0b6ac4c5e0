package game

type Status string

const (
	StatusWelcome        Status = "welcome"
	StatusCategorySelect Status = "category-select"
	StatusTeamSetup      Status = "team-setup"
	StatusPlaying        Status = "playing"
	StatusPaused         Status = "paused"
	StatusRoundEnd       Status = "round-end"
	StatusEnded          Status = "ended"
)

type Mode string

const (
	ModeSolo Mode = "solo"
	ModeTeam Mode = "team"
)

type Team struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Color string `json:"color"`
}

// State is a snapshot of a running game. The engine hands out copies only.
type State struct {
	Status           Status   `json:"status"`
	Score            int      `json:"score"`
	CurrentWord      string   `json:"currentWord"`
	CurrentCategory  string   `json:"currentCategory"`
	TimeRemaining    int      `json:"timeRemaining"`
	WordsGuessed     []string `json:"wordsGuessed"`
	CurrentRound     int      `json:"currentRound"`
	TotalRounds      Rounds   `json:"totalRounds"`
	Mode             Mode     `json:"gameMode"`
	Teams            []Team   `json:"teams"`
	CurrentTeamIndex int      `json:"currentTeamIndex"`
	ActiveCategories []string `json:"activeCategories"`
}

func (s State) clone() State {
	s.WordsGuessed = cloneOrEmpty(s.WordsGuessed)
	s.Teams = cloneOrEmpty(s.Teams)
	s.ActiveCategories = cloneOrEmpty(s.ActiveCategories)
	return s
}

func cloneOrEmpty[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
