package game

import (
	"charades/domain"
	"charades/entitlement"
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- WebsocketConnection ---

type MockWebsocketConnection struct {
	mock.Mock
}

func (m *MockWebsocketConnection) Close(code string) {
	m.Called(code)
}

func (m *MockWebsocketConnection) Write(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockWebsocketConnection) Read() ([]byte, error) {
	args := m.Called()
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockWebsocketConnection) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// --- Recorder ---

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordGame(ctx context.Context, record domain.GameRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// --- BankProvider ---

type MockBankProvider struct {
	mock.Mock
}

func (m *MockBankProvider) BankFor(ctx context.Context, deviceId string) (WordBank, error) {
	args := m.Called(ctx, deviceId)
	bank, _ := args.Get(0).(WordBank)
	return bank, args.Error(1)
}

// --- SessionStore ---

type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) CreateSession(ctx context.Context, deviceId string, cfg Config, ent entitlement.Entitlement) (*Session, error) {
	args := m.Called(ctx, deviceId, cfg, ent)
	s, _ := args.Get(0).(*Session)
	return s, args.Error(1)
}

func (m *MockSessionStore) Session(ctx context.Context, id string) (*Session, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*Session)
	return s, args.Error(1)
}

func (m *MockSessionStore) RemoveSession(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- UniqueIdGenerator ---

type MockUniqueIdGenerator struct {
	mock.Mock
}

func (m *MockUniqueIdGenerator) Generate() string {
	args := m.Called()
	return args.String(0)
}

// --- WordBank ---

type staticBank []domain.Category

// Categories maps every id to its category, repeats included, so the picker
// sees whatever a bank hands it.
func (b staticBank) Categories(ids []string) []domain.Category {
	res := []domain.Category{}
	for _, id := range ids {
		i := slices.IndexFunc(b, func(c domain.Category) bool { return c.ID == id })
		if i >= 0 {
			res = append(res, b[i])
		}
	}
	return res
}

// --- Tickers ---

type fakeTicker struct {
	ch      chan time.Time
	locker  sync.Mutex
	stopped bool
}

func (ft *fakeTicker) C() <-chan time.Time { return ft.ch }

func (ft *fakeTicker) Stop() {
	ft.locker.Lock()
	ft.stopped = true
	ft.locker.Unlock()
}

func (ft *fakeTicker) isStopped() bool {
	ft.locker.Lock()
	defer ft.locker.Unlock()
	return ft.stopped
}

// fire blocks until the owning loop has received the tick.
func (ft *fakeTicker) fire() {
	ft.ch <- time.Now()
}

func (ft *fakeTicker) fireAt(now time.Time) {
	ft.ch <- now
}

type fakeTickerFactory struct {
	locker  sync.Mutex
	created []*fakeTicker
}

func (f *fakeTickerFactory) NewTicker(d time.Duration) Ticker {
	f.locker.Lock()
	defer f.locker.Unlock()
	t := &fakeTicker{ch: make(chan time.Time)}
	f.created = append(f.created, t)
	return t
}

func (f *fakeTickerFactory) count() int {
	f.locker.Lock()
	defer f.locker.Unlock()
	return len(f.created)
}

func (f *fakeTickerFactory) last() *fakeTicker {
	f.locker.Lock()
	defer f.locker.Unlock()
	if len(f.created) == 0 {
		return nil
	}
	return f.created[len(f.created)-1]
}

func (f *fakeTickerFactory) at(i int) *fakeTicker {
	f.locker.Lock()
	defer f.locker.Unlock()
	return f.created[i]
}

func (f *fakeTickerFactory) running() []*fakeTicker {
	f.locker.Lock()
	defer f.locker.Unlock()
	res := []*fakeTicker{}
	for _, t := range f.created {
		if !t.isStopped() {
			res = append(res, t)
		}
	}
	return res
}

// --- Notifier ---

type recordingNotifier struct {
	locker sync.Mutex
	events []Event
}

func (rn *recordingNotifier) Notify(ev Event) {
	rn.locker.Lock()
	rn.events = append(rn.events, ev)
	rn.locker.Unlock()
}

func (rn *recordingNotifier) all() []Event {
	rn.locker.Lock()
	defer rn.locker.Unlock()
	return slices.Clone(rn.events)
}

// --- Websocket ---

var errSocketClosed = errors.New("socket closed")

// fakeSocket is an in-memory websocket: tests push client messages into
// incoming and read what the server wrote from written.
type fakeSocket struct {
	incoming  chan []byte
	written   chan []byte
	pings     chan struct{}
	closed    chan struct{}
	closeCode string
	closeOnce sync.Once
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{
		incoming: make(chan []byte, 16),
		written:  make(chan []byte, 256),
		pings:    make(chan struct{}, 16),
		closed:   make(chan struct{}),
	}
}

func (fs *fakeSocket) Read() ([]byte, error) {
	select {
	case data := <-fs.incoming:
		return data, nil
	case <-fs.closed:
		return nil, errSocketClosed
	}
}

func (fs *fakeSocket) Write(data []byte) error {
	select {
	case <-fs.closed:
		return errSocketClosed
	case fs.written <- data:
		return nil
	}
}

func (fs *fakeSocket) Ping() error {
	select {
	case fs.pings <- struct{}{}:
	default:
	}
	return nil
}

func (fs *fakeSocket) Close(code string) {
	fs.closeOnce.Do(func() {
		fs.closeCode = code
		close(fs.closed)
	})
}

func (fs *fakeSocket) next(t *testing.T) serverMessage {
	t.Helper()
	select {
	case data := <-fs.written:
		var msg serverMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("nothing written to the socket")
		return serverMessage{}
	}
}

// nextState skips events until a state with the given status arrives.
func (fs *fakeSocket) nextState(t *testing.T, status Status) State {
	t.Helper()
	for {
		msg := fs.next(t)
		if msg.Type == "state" && msg.State != nil && msg.State.Status == status {
			return *msg.State
		}
	}
}
