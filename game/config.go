package game

import (
	"encoding/json"
	"slices"
	"strconv"
)

// Rounds is the number of rounds in a game. Unbounded means the game only ends
// when a player ends it. The zero value is not a valid round count.
type Rounds int

const Unbounded Rounds = -1

const infiniteRounds = "infinite"

var (
	TimerLengths = []int{30, 60, 90}
	RoundCounts  = []Rounds{3, 5, 10, Unbounded}
)

// Reached reports whether round is the last round (or past it).
func (r Rounds) Reached(round int) bool {
	return r != Unbounded && round >= int(r)
}

func ParseRounds(s string) (Rounds, error) {
	if s == infiniteRounds {
		return Unbounded, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, ErrInvalidRounds
	}
	return Rounds(n), nil
}

func (r Rounds) String() string {
	if r == Unbounded {
		return infiniteRounds
	}
	return strconv.Itoa(int(r))
}

func (r Rounds) MarshalJSON() ([]byte, error) {
	if r == Unbounded {
		return json.Marshal(infiniteRounds)
	}
	return json.Marshal(int(r))
}

// UnmarshalJSON accepts 5, "5" and "infinite".
func (r *Rounds) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if n <= 0 {
			return ErrInvalidRounds
		}
		*r = Rounds(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return ErrInvalidRounds
	}
	parsed, err := ParseRounds(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Config is what a player picks before a game. The engine copies it, so later
// changes by the caller never leak into a running game.
type Config struct {
	TimerLength  int      `json:"timerLength"`
	Rounds       Rounds   `json:"numberOfRounds"`
	SoundEnabled bool     `json:"soundEnabled"`
	Mode         Mode     `json:"gameMode"`
	Categories   []string `json:"selectedCategories"`
}

func DefaultConfig(categories []string) Config {
	return Config{
		TimerLength:  60,
		Rounds:       5,
		SoundEnabled: true,
		Mode:         ModeSolo,
		Categories:   slices.Clone(categories),
	}
}

func (c Config) Validate() error {
	if !slices.Contains(TimerLengths, c.TimerLength) {
		return ErrInvalidTimerLength
	}
	if !slices.Contains(RoundCounts, c.Rounds) {
		return ErrInvalidRounds
	}
	if c.Mode != ModeSolo && c.Mode != ModeTeam {
		return ErrInvalidMode
	}
	if len(c.Categories) == 0 {
		return ErrNoCategories
	}
	return nil
}

func (c Config) clone() Config {
	c.Categories = slices.Clone(c.Categories)
	return c
}
