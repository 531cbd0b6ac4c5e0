package game

import (
	"charades/domain"
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	tickInterval  = time.Second
	recordTimeout = 5 * time.Second
)

// Recorder stores the summary of a finished game.
type Recorder interface {
	RecordGame(ctx context.Context, record domain.GameRecord) error
}

type EngineDeps struct {
	Bank     WordBank
	Notifier Notifier
	Recorder Recorder
	Listener Listener
	Tickers  TickerFactory
	Logger   zerolog.Logger
}

type command struct {
	apply   func()
	publish bool
	reply   chan State
}

// Engine runs one charades game. All state lives in the goroutine started by
// Run; operations are queued to it and return the resulting snapshot.
type Engine struct {
	cfg    Config
	state  State
	picker *wordPicker

	notifier Notifier
	recorder Recorder
	listener Listener
	tickers  TickerFactory
	logger   zerolog.Logger

	ticker Ticker
	tickC  <-chan time.Time

	inbox     chan command
	done      chan struct{}
	closeOnce sync.Once

	lastLock sync.RWMutex
	last     State
}

func NewEngine(cfg Config, deps EngineDeps) *Engine {
	tickers := deps.Tickers
	if tickers == nil {
		gen := NewTickerGen()
		tickers = &gen
	}

	e := &Engine{
		cfg:      cfg.clone(),
		picker:   newWordPicker(deps.Bank, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))),
		notifier: deps.Notifier,
		recorder: deps.Recorder,
		listener: deps.Listener,
		tickers:  tickers,
		logger:   deps.Logger,
		inbox:    make(chan command, 64),
		done:     make(chan struct{}),
	}
	e.state = e.welcomeState()
	e.last = e.state.clone()
	return e
}

// Run processes operations and timer ticks until ctx is cancelled or Close is
// called. It must be started exactly once.
func (e *Engine) Run(ctx context.Context) {
	defer e.Close()
	defer e.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.done:
			return
		case cmd := <-e.inbox:
			prev := e.state.Status
			cmd.apply()
			cmd.reply <- e.settle(prev, cmd.publish)
		case <-e.tickC:
			prev := e.state.Status
			e.tick()
			e.settle(prev, true)
		}
	}
}

func (e *Engine) Close() {
	e.closeOnce.Do(func() { close(e.done) })
}

// Done is closed once the engine stops accepting operations.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

func (e *Engine) State() State {
	return e.do(func() {}, false)
}

// Observe runs fn on the engine goroutine with the current state. Every state
// published afterwards is ordered after it. fn must not block or call back
// into the engine. It reports false when the engine has stopped.
func (e *Engine) Observe(fn func(State)) bool {
	ran := false
	e.do(func() {
		ran = true
		fn(e.state.clone())
	}, false)
	return ran
}

// StartGame begins a new game from the welcome or end screen. A non-nil
// override becomes the engine's configuration. Team games without teams go to
// team setup first.
func (e *Engine) StartGame(teams []Team, override *Config) State {
	return e.mutate(func() {
		if !e.in(StatusWelcome, StatusEnded) {
			return
		}
		if override != nil {
			e.cfg = override.clone()
		}
		e.newGame(e.cfg.Mode, teams)
		if e.cfg.Mode == ModeTeam && len(teams) == 0 {
			e.state.Status = StatusTeamSetup
		} else {
			e.state.Status = StatusCategorySelect
		}
	})
}

// StartWithTeams begins a team game with confirmed teams.
func (e *Engine) StartWithTeams(teams []Team, override *Config) State {
	return e.mutate(func() {
		if !e.in(StatusWelcome, StatusTeamSetup, StatusEnded) || len(teams) == 0 {
			return
		}
		if override != nil {
			e.cfg = override.clone()
		}
		e.newGame(ModeTeam, teams)
		e.state.Status = StatusCategorySelect
	})
}

// NextWord draws a new word. categories, when non-nil, replaces the active
// categories. initial restarts the countdown; skips leave it running.
func (e *Engine) NextWord(categories []string, initial bool) State {
	return e.mutate(func() {
		if !e.in(StatusCategorySelect, StatusPlaying) {
			return
		}

		ids := e.state.ActiveCategories
		if categories != nil {
			ids = categories
		}

		drawn, ok := e.picker.pick(ids)
		if !ok {
			e.logger.Warn().Strs("categories", ids).Msg("no word available, back to welcome")
			e.state.Status = StatusWelcome
			return
		}

		skipped := e.state.Status == StatusPlaying
		e.state.Status = StatusPlaying
		e.state.CurrentWord = drawn.word
		e.state.CurrentCategory = drawn.category
		if categories != nil {
			e.state.ActiveCategories = cloneOrEmpty(categories)
		}

		switch {
		case initial:
			e.stopTimer()
			e.notify(EventRoundStart)
		case skipped:
			e.notify(EventSkip)
		}
	})
}

func (e *Engine) CorrectGuess() State {
	return e.mutate(func() {
		if e.state.Status != StatusPlaying {
			return
		}

		drawn, ok := e.picker.pick(e.state.ActiveCategories)
		if !ok {
			return
		}

		if e.state.Mode == ModeTeam && len(e.state.Teams) > 0 {
			e.state.Teams[e.state.CurrentTeamIndex].Score++
		}
		e.state.Score++
		e.state.WordsGuessed = append(e.state.WordsGuessed, e.state.CurrentWord)
		e.state.CurrentWord = drawn.word
		e.state.CurrentCategory = drawn.category
		e.notify(EventCorrect)
	})
}

func (e *Engine) PauseGame() State {
	return e.mutate(func() {
		if !e.in(StatusPlaying, StatusPaused) {
			return
		}
		e.stopTimer()
		e.state.Status = StatusPaused
	})
}

func (e *Engine) ResumeGame() State {
	return e.mutate(func() {
		if e.state.Status != StatusPaused {
			return
		}
		e.state.Status = StatusPlaying
	})
}

func (e *Engine) EndGame() State {
	return e.mutate(func() {
		if !e.in(StatusPlaying, StatusPaused, StatusRoundEnd) {
			return
		}
		e.stopTimer()
		e.state.Status = StatusEnded
	})
}

// ResetGame drops the current game and returns to the welcome screen using
// the last known configuration.
func (e *Engine) ResetGame() State {
	return e.mutate(func() {
		e.stopTimer()
		e.picker.reset()
		e.state = e.welcomeState()
	})
}

// NextTeam ends the current turn early so the next team can take over.
func (e *Engine) NextTeam() State {
	return e.mutate(func() {
		if !e.in(StatusPlaying, StatusPaused) {
			return
		}
		e.stopTimer()
		e.state.TimeRemaining = 0
		e.state.Status = StatusRoundEnd
	})
}

func (e *Engine) ContinueNextRound() State {
	return e.mutate(func() {
		if e.state.Status != StatusRoundEnd {
			return
		}
		e.picker.reset()

		teamIndex, round := turnOrderOf(&e.state).advance(e.state.CurrentRound)
		e.state.CurrentTeamIndex = teamIndex
		e.state.CurrentRound = round
		e.state.TimeRemaining = e.cfg.TimerLength
		e.state.Status = StatusPlaying

		e.stopTimer()
		e.notify(EventRoundStart)
	})
}

// AddTime extends the current countdown. Callers decide who may do this.
func (e *Engine) AddTime(seconds int) State {
	return e.mutate(func() {
		if seconds <= 0 {
			return
		}
		e.state.TimeRemaining += seconds
	})
}

// UpdateConfig replaces the stored configuration. A running game keeps its
// rounds and categories; the next round picks up the new timer length.
func (e *Engine) UpdateConfig(cfg Config) State {
	return e.mutate(func() {
		e.cfg = cfg.clone()
	})
}

func (e *Engine) Config() Config {
	var cfg Config
	e.do(func() { cfg = e.cfg.clone() }, false)
	return cfg
}

func (e *Engine) mutate(apply func()) State {
	return e.do(apply, true)
}

func (e *Engine) do(apply func(), publish bool) State {
	select {
	case <-e.done:
		return e.lastState()
	default:
	}

	cmd := command{apply: apply, publish: publish, reply: make(chan State, 1)}
	select {
	case e.inbox <- cmd:
	case <-e.done:
		return e.lastState()
	}

	select {
	case s := <-cmd.reply:
		return s
	case <-e.done:
		return e.lastState()
	}
}

func (e *Engine) tick() {
	if e.state.Status != StatusPlaying {
		return
	}

	if e.state.TimeRemaining <= 1 {
		e.notify(EventTimeout)
		e.state.TimeRemaining = 0
		e.state.Status = turnOrderOf(&e.state).afterExpiry(e.state.CurrentRound, e.state.TotalRounds)
		return
	}

	if e.state.TimeRemaining == expiringSoonAt {
		e.notify(EventTimeExpiringSoon)
	}
	e.state.TimeRemaining--
}

// settle runs after every state change: the timer runs iff the game is
// playing, and entering ended records the game.
func (e *Engine) settle(prev Status, publish bool) State {
	e.syncTimer()

	if prev != StatusEnded && e.state.Status == StatusEnded {
		e.record()
	}
	if prev != e.state.Status {
		e.logger.Debug().Str("from", string(prev)).Str("to", string(e.state.Status)).Msg("transition")
	}

	snapshot := e.state.clone()
	e.lastLock.Lock()
	e.last = snapshot
	e.lastLock.Unlock()

	if publish && e.listener != nil {
		e.listener.StateChanged(snapshot.clone())
	}
	return snapshot
}

func (e *Engine) syncTimer() {
	if e.state.Status != StatusPlaying {
		e.stopTimer()
		return
	}
	if e.ticker == nil {
		e.ticker = e.tickers.NewTicker(tickInterval)
		e.tickC = e.ticker.C()
	}
}

func (e *Engine) stopTimer() {
	if e.ticker == nil {
		return
	}
	e.ticker.Stop()
	e.ticker = nil
	e.tickC = nil
}

func (e *Engine) lastState() State {
	e.lastLock.RLock()
	defer e.lastLock.RUnlock()
	return e.last.clone()
}

func (e *Engine) in(statuses ...Status) bool {
	for _, s := range statuses {
		if e.state.Status == s {
			return true
		}
	}
	return false
}

func (e *Engine) newGame(mode Mode, teams []Team) {
	e.stopTimer()
	e.picker.reset()

	e.state = e.welcomeState()
	e.state.Mode = mode
	if mode == ModeTeam {
		e.state.Teams = make([]Team, len(teams))
		for i, t := range teams {
			e.state.Teams[i] = Team{Name: t.Name, Color: t.Color}
		}
	}
}

func (e *Engine) welcomeState() State {
	mode := e.cfg.Mode
	if mode == "" {
		mode = ModeSolo
	}
	return State{
		Status:           StatusWelcome,
		TimeRemaining:    e.cfg.TimerLength,
		WordsGuessed:     []string{},
		CurrentRound:     1,
		TotalRounds:      e.cfg.Rounds,
		Mode:             mode,
		Teams:            []Team{},
		ActiveCategories: cloneOrEmpty(e.cfg.Categories),
	}
}

func (e *Engine) notify(ev Event) {
	if e.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Interface("panic", r).Str("event", string(ev)).Msg("notifier panicked")
		}
	}()
	e.notifier.Notify(ev)
}

func (e *Engine) record() {
	if e.recorder == nil {
		return
	}

	duration := max(e.cfg.TimerLength-e.state.TimeRemaining, 0)
	record := domain.GameRecord{
		Mode:         string(e.state.Mode),
		FinalScore:   e.state.Score,
		Duration:     duration,
		Categories:   cloneOrEmpty(e.state.ActiveCategories),
		WordsGuessed: len(e.state.WordsGuessed),
	}
	if e.state.Mode == ModeTeam {
		record.TeamCount = len(e.state.Teams)
		for i, t := range e.state.Teams {
			record.Teams = append(record.Teams, domain.TeamRecord{
				Name:       t.Name,
				Score:      t.Score,
				Color:      t.Color,
				OrderIndex: i,
			})
		}
	}

	recorder := e.recorder
	logger := e.logger
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := recorder.RecordGame(ctx, record); err != nil {
			logger.Error().Err(err).Int("score", record.FinalScore).Msg("failed to record game")
		}
	}()
}
