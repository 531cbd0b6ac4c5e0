package game

import (
	"sync"

	"golang.org/x/time/rate"
)

const subscriberInboxSize = 256

// Subscriber is one websocket client watching a session. Outbound messages go
// through a buffered inbox drained by WritePump; a client that cannot keep up
// is dropped rather than slowing the game down.
type Subscriber struct {
	socket    WebsocketConnection
	limiter   *rate.Limiter
	inbox     chan []byte
	pingChan  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func NewSubscriber(socket WebsocketConnection) *Subscriber {
	return &Subscriber{
		socket:   socket,
		limiter:  rate.NewLimiter(5, 10),
		inbox:    make(chan []byte, subscriberInboxSize),
		pingChan: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

func (s *Subscriber) Send(data []byte) error {
	select {
	case <-s.done:
		return ErrSubscriberClosed
	default:
	}

	select {
	case s.inbox <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (s *Subscriber) RequestPing() {
	select {
	case s.pingChan <- struct{}{}:
	default:
	}
}

// ReadPump hands every inbound message to handle until the socket fails.
// Messages over the rate limit are dropped.
func (s *Subscriber) ReadPump(handle func(data []byte)) {
	for {
		data, err := s.socket.Read()
		if err != nil {
			return
		}
		if !s.limiter.Allow() {
			continue
		}
		handle(data)
	}
}

func (s *Subscriber) WritePump() {
	for {
		select {
		case <-s.done:
			return
		case data := <-s.inbox:
			if err := s.socket.Write(data); err != nil {
				s.Close("")
				return
			}
		case <-s.pingChan:
			if err := s.socket.Ping(); err != nil {
				s.Close("")
				return
			}
		}
	}
}

func (s *Subscriber) Close(code string) {
	s.closeOnce.Do(func() {
		close(s.done)
		s.socket.Close(code)
	})
}

func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}
