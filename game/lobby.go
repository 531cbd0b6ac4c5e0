package game

import (
	"charades/entitlement"
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	sweepInterval = time.Minute
	pingInterval  = 30 * time.Second
)

// BankProvider resolves the words a device may play: built-in categories plus
// its own custom ones.
type BankProvider interface {
	BankFor(ctx context.Context, deviceId string) (WordBank, error)
}

type LobbyDeps struct {
	IdGen    UniqueIdGenerator
	Banks    BankProvider
	Recorder Recorder
	Tickers  TickerFactory
	Policy   entitlement.Policy
	IdleTTL  time.Duration
	Logger   zerolog.Logger
}

type createSessionRequest struct {
	deviceId string
	cfg      Config
	bank     WordBank
	reply    chan *Session
}

type getSessionRequest struct {
	id    string
	reply chan *Session
}

type removeSessionRequest struct {
	id    string
	reply chan bool
}

// Lobby owns every live session. All bookkeeping happens on the goroutine
// running LobbyActor.
type Lobby struct {
	deps     LobbyDeps
	sessions map[string]*Session

	createReqs chan createSessionRequest
	getReqs    chan getSessionRequest
	removeReqs chan removeSessionRequest
	closed     chan struct{}
}

func NewLobby(deps LobbyDeps) *Lobby {
	if deps.Tickers == nil {
		gen := NewTickerGen()
		deps.Tickers = &gen
	}
	if deps.IdGen == nil {
		deps.IdGen = NewIdGen()
	}
	return &Lobby{
		deps:       deps,
		sessions:   map[string]*Session{},
		createReqs: make(chan createSessionRequest, 32),
		getReqs:    make(chan getSessionRequest, 256),
		removeReqs: make(chan removeSessionRequest, 32),
		closed:     make(chan struct{}),
	}
}

// LobbyActor serves lobby requests until ctx is cancelled. started is closed
// once the actor is ready.
func (l *Lobby) LobbyActor(ctx context.Context, started chan struct{}) {
	defer close(l.closed)
	sweepTicker := l.deps.Tickers.NewTicker(sweepInterval)
	pingTicker := l.deps.Tickers.NewTicker(pingInterval)
	defer sweepTicker.Stop()
	defer pingTicker.Stop()

	close(started)

	for {
		select {
		case <-ctx.Done():
			for id, s := range l.sessions {
				s.Close()
				delete(l.sessions, id)
			}
			return

		case now := <-sweepTicker.C():
			l.sweep(now)

		case <-pingTicker.C():
			for _, s := range l.sessions {
				s.PingSubscribers()
			}

		case req := <-l.createReqs:
			req.reply <- l.handleCreate(ctx, req)

		case req := <-l.getReqs:
			s := l.sessions[req.id]
			if s != nil && isClosed(s.Done()) {
				delete(l.sessions, req.id)
				s = nil
			}
			req.reply <- s

		case req := <-l.removeReqs:
			s, ok := l.sessions[req.id]
			if ok {
				delete(l.sessions, req.id)
				s.Close()
			}
			req.reply <- ok
		}
	}
}

func (l *Lobby) handleCreate(ctx context.Context, req createSessionRequest) *Session {
	id := l.deps.IdGen.Generate()
	s := newSession(id, req.deviceId, req.cfg, sessionDeps{
		bank:     req.bank,
		recorder: l.deps.Recorder,
		tickers:  l.deps.Tickers,
		policy:   l.deps.Policy,
		logger:   l.deps.Logger,
	})
	l.sessions[id] = s
	s.run(ctx)
	l.deps.Logger.Info().Str("session", id).Str("device", req.deviceId).Int("live", len(l.sessions)).Msg("session created")
	return s
}

// sweep drops sessions whose engine stopped and sessions nobody touched for
// longer than the idle TTL while no client is connected.
func (l *Lobby) sweep(now time.Time) {
	for id, s := range l.sessions {
		stopped := isClosed(s.Done())
		idle := l.deps.IdleTTL > 0 && now.Sub(s.idleSince()) > l.deps.IdleTTL && s.SubscriberCount() == 0
		if !stopped && !idle {
			continue
		}
		delete(l.sessions, id)
		s.Close()
		l.deps.Logger.Info().Str("session", id).Bool("idle", idle).Msg("session swept")
	}
}

// CreateSession starts a game session for a device. Premium categories are
// dropped from cfg unless ent allows them.
func (l *Lobby) CreateSession(ctx context.Context, deviceId string, cfg Config, ent entitlement.Entitlement) (*Session, error) {
	var bank WordBank
	if l.deps.Banks != nil {
		b, err := l.deps.Banks.BankFor(ctx, deviceId)
		if err != nil {
			return nil, err
		}
		bank = b
	}

	admitted, err := admitConfig(bank, cfg, ent)
	if err != nil {
		return nil, err
	}

	req := createSessionRequest{deviceId: deviceId, cfg: admitted, bank: bank, reply: make(chan *Session, 1)}
	select {
	case l.createReqs <- req:
	case <-l.closed:
		return nil, ErrLobbyClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case s := <-req.reply:
		return s, nil
	case <-l.closed:
		return nil, ErrLobbyClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Lobby) Session(ctx context.Context, id string) (*Session, error) {
	req := getSessionRequest{id: id, reply: make(chan *Session, 1)}
	select {
	case l.getReqs <- req:
	case <-l.closed:
		return nil, ErrLobbyClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case s := <-req.reply:
		if s == nil {
			return nil, ErrSessionNotFound
		}
		return s, nil
	case <-l.closed:
		return nil, ErrLobbyClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Lobby) RemoveSession(ctx context.Context, id string) error {
	req := removeSessionRequest{id: id, reply: make(chan bool, 1)}
	select {
	case l.removeReqs <- req:
	case <-l.closed:
		return ErrLobbyClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case ok := <-req.reply:
		if !ok {
			return ErrSessionNotFound
		}
		return nil
	case <-l.closed:
		return ErrLobbyClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the lobby actor has stopped and closed every session.
func (l *Lobby) Done() <-chan struct{} {
	return l.closed
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
