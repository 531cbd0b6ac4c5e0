package game

import (
	"charades/entitlement"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	ActionStart          = "start"
	ActionStartWithTeams = "start-with-teams"
	ActionNextWord       = "next-word"
	ActionCorrect        = "correct"
	ActionSkip           = "skip"
	ActionPause          = "pause"
	ActionResume         = "resume"
	ActionEnd            = "end"
	ActionReset          = "reset"
	ActionNextTeam       = "next-team"
	ActionContinue       = "continue"
	ActionAddTime        = "add-time"
	ActionSettings       = "settings"
)

// ActionRequest carries the optional arguments of an action. Each action reads
// only the fields it needs. Initial applies to next-word and defaults to true;
// false draws a word without restarting the turn.
type ActionRequest struct {
	Teams      []Team   `json:"teams"`
	Config     *Config  `json:"config"`
	Categories []string `json:"categories"`
	Seconds    int      `json:"seconds"`
	Initial    *bool    `json:"initial"`
}

type clientMessage struct {
	Action string `json:"action"`
	ActionRequest
}

type serverMessage struct {
	Type  string `json:"type"`
	State *State `json:"state,omitempty"`
	Event Event  `json:"event,omitempty"`
	Error string `json:"error,omitempty"`
}

type sessionDeps struct {
	bank     WordBank
	recorder Recorder
	tickers  TickerFactory
	policy   entitlement.Policy
	logger   zerolog.Logger
}

// Session is a game hosted for one device. It owns the engine and fans its
// state and events out to websocket subscribers.
type Session struct {
	id       string
	deviceId string
	engine   *Engine
	bank     WordBank
	policy   entitlement.Policy
	logger   zerolog.Logger

	locker      sync.Mutex
	subscribers map[*Subscriber]struct{}

	extLock    sync.Mutex
	extensions int

	sound      atomic.Bool
	lastActive atomic.Int64
}

func newSession(id, deviceId string, cfg Config, deps sessionDeps) *Session {
	s := &Session{
		id:          id,
		deviceId:    deviceId,
		bank:        deps.bank,
		policy:      deps.policy,
		logger:      deps.logger.With().Str("session", id).Logger(),
		subscribers: map[*Subscriber]struct{}{},
	}
	s.sound.Store(cfg.SoundEnabled)
	s.touch()

	s.engine = NewEngine(cfg, EngineDeps{
		Bank:     deps.bank,
		Notifier: s,
		Recorder: deps.recorder,
		Listener: s,
		Tickers:  deps.tickers,
		Logger:   s.logger,
	})
	return s
}

func (s *Session) run(ctx context.Context) {
	go s.engine.Run(ctx)
}

func (s *Session) Id() string {
	return s.id
}

func (s *Session) DeviceId() string {
	return s.deviceId
}

func (s *Session) State() State {
	s.touch()
	return s.engine.State()
}

// Apply runs a named action on behalf of a caller.
func (s *Session) Apply(action string, req ActionRequest, ent entitlement.Entitlement) (State, error) {
	s.touch()

	switch action {
	case ActionStart:
		override, err := s.admitOverride(req.Config, ent)
		if err != nil {
			return State{}, err
		}
		return s.freshGame(s.engine.StartGame(req.Teams, override)), nil

	case ActionStartWithTeams:
		if err := validateTeams(req.Teams); err != nil {
			return State{}, err
		}
		override, err := s.admitOverride(req.Config, ent)
		if err != nil {
			return State{}, err
		}
		return s.freshGame(s.engine.StartWithTeams(req.Teams, override)), nil

	case ActionNextWord:
		initial := req.Initial == nil || *req.Initial
		return s.engine.NextWord(allowedCategories(s.bank, req.Categories, ent), initial), nil
	case ActionSkip:
		return s.engine.NextWord(nil, false), nil
	case ActionCorrect:
		return s.engine.CorrectGuess(), nil
	case ActionPause:
		return s.engine.PauseGame(), nil
	case ActionResume:
		return s.engine.ResumeGame(), nil
	case ActionEnd:
		return s.engine.EndGame(), nil
	case ActionReset:
		s.resetExtensions()
		return s.engine.ResetGame(), nil
	case ActionNextTeam:
		return s.engine.NextTeam(), nil
	case ActionContinue:
		return s.engine.ContinueNextRound(), nil
	case ActionAddTime:
		return s.addTime(req.Seconds, ent)

	case ActionSettings:
		if req.Config == nil {
			return State{}, ErrMissingConfig
		}
		cfg, err := admitConfig(s.bank, *req.Config, ent)
		if err != nil {
			return State{}, err
		}
		s.sound.Store(cfg.SoundEnabled)
		return s.engine.UpdateConfig(cfg), nil
	}

	return State{}, ErrUnknownAction
}

func (s *Session) freshGame(st State) State {
	if st.Status == StatusCategorySelect || st.Status == StatusTeamSetup {
		s.resetExtensions()
	}
	return st
}

func (s *Session) addTime(seconds int, ent entitlement.Entitlement) (State, error) {
	if seconds == 0 {
		seconds = s.policy.ExtensionSeconds
	}

	s.extLock.Lock()
	defer s.extLock.Unlock()

	if !s.policy.AllowExtension(ent, s.extensions) {
		return State{}, ErrTimeExtensionNotAllowed
	}
	st := s.engine.AddTime(seconds)
	// Time added outside a running turn is overwritten when the next turn
	// starts, so it does not use up the allowance.
	if seconds > 0 && (st.Status == StatusPlaying || st.Status == StatusPaused) {
		s.extensions++
	}
	return st, nil
}

func (s *Session) resetExtensions() {
	s.extLock.Lock()
	s.extensions = 0
	s.extLock.Unlock()
}

func (s *Session) admitOverride(cfg *Config, ent entitlement.Entitlement) (*Config, error) {
	if cfg == nil {
		return nil, nil
	}
	admitted, err := admitConfig(s.bank, *cfg, ent)
	if err != nil {
		return nil, err
	}
	s.sound.Store(admitted.SoundEnabled)
	return &admitted, nil
}

// admitConfig strips categories the caller may not play and validates the
// rest.
func admitConfig(bank WordBank, cfg Config, ent entitlement.Entitlement) (Config, error) {
	cfg = cfg.clone()
	cfg.Categories = allowedCategories(bank, cfg.Categories, ent)
	return cfg, cfg.Validate()
}

// allowedCategories drops premium categories unless ent is premium.
func allowedCategories(bank WordBank, ids []string, ent entitlement.Entitlement) []string {
	if ids == nil || ent.Premium || bank == nil {
		return ids
	}

	premium := map[string]struct{}{}
	for _, c := range bank.Categories(ids) {
		if c.Premium {
			premium[c.ID] = struct{}{}
		}
	}

	allowed := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := premium[id]; !ok {
			allowed = append(allowed, id)
		}
	}
	return allowed
}

func validateTeams(teams []Team) error {
	if len(teams) == 0 {
		return ErrNoTeams
	}
	for _, t := range teams {
		if strings.TrimSpace(t.Name) == "" {
			return ErrInvalidTeamName
		}
	}
	return nil
}

// Subscribe attaches a websocket client. It receives the current state right
// away and every published state and event afterwards; its inbound messages
// are actions run with ent.
func (s *Session) Subscribe(socket WebsocketConnection, ent entitlement.Entitlement) *Subscriber {
	sub := NewSubscriber(socket)
	s.touch()

	// The snapshot and the registration happen on the engine goroutine so no
	// broadcast can reach the subscriber ahead of its first state.
	attach := func(st State) {
		if data, err := json.Marshal(serverMessage{Type: "state", State: &st}); err == nil {
			sub.Send(data)
		}
		s.locker.Lock()
		s.subscribers[sub] = struct{}{}
		s.locker.Unlock()
	}
	if !s.engine.Observe(attach) {
		attach(s.engine.State())
	}

	go sub.WritePump()
	go func() {
		sub.ReadPump(func(data []byte) { s.handleMessage(sub, ent, data) })
		s.unsubscribe(sub, "")
	}()

	return sub
}

func (s *Session) handleMessage(sub *Subscriber, ent entitlement.Entitlement, data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(sub, "bad-request-format")
		return
	}

	if _, err := s.Apply(msg.Action, msg.ActionRequest, ent); err != nil {
		s.sendError(sub, err.Error())
	}
}

func (s *Session) sendError(sub *Subscriber, code string) {
	data, err := json.Marshal(serverMessage{Type: "error", Error: code})
	if err != nil {
		return
	}
	sub.Send(data)
}

func (s *Session) unsubscribe(sub *Subscriber, code string) {
	s.locker.Lock()
	delete(s.subscribers, sub)
	s.locker.Unlock()
	sub.Close(code)
}

// StateChanged runs on the engine goroutine and must not block.
func (s *Session) StateChanged(st State) {
	s.broadcast(serverMessage{Type: "state", State: &st})
}

func (s *Session) Notify(ev Event) {
	if !s.sound.Load() {
		return
	}
	s.broadcast(serverMessage{Type: "event", Event: ev})
}

func (s *Session) broadcast(msg serverMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error().Err(err).Str("type", msg.Type).Msg("failed to encode message")
		return
	}

	s.locker.Lock()
	defer s.locker.Unlock()
	for sub := range s.subscribers {
		err := sub.Send(data)
		if errors.Is(err, ErrSendBufferFull) || errors.Is(err, ErrSubscriberClosed) {
			delete(s.subscribers, sub)
			go sub.Close("too-slow")
		}
	}
}

func (s *Session) PingSubscribers() {
	s.locker.Lock()
	defer s.locker.Unlock()
	for sub := range s.subscribers {
		sub.RequestPing()
	}
}

func (s *Session) SubscriberCount() int {
	s.locker.Lock()
	defer s.locker.Unlock()
	return len(s.subscribers)
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) Done() <-chan struct{} {
	return s.engine.Done()
}

// Close stops the engine and disconnects every subscriber.
func (s *Session) Close() {
	s.engine.Close()

	s.locker.Lock()
	subs := make([]*Subscriber, 0, len(s.subscribers))
	for sub := range s.subscribers {
		subs = append(subs, sub)
	}
	clear(s.subscribers)
	s.locker.Unlock()

	for _, sub := range subs {
		sub.Close("session-closed")
	}
}
