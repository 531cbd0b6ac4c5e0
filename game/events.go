package game

type Event string

const (
	EventRoundStart       Event = "round-start"
	EventCorrect          Event = "correct"
	EventSkip             Event = "skip"
	EventTimeExpiringSoon Event = "time-expiring-soon"
	EventTimeout          Event = "timeout"
)

// expiringSoonAt is the remaining-seconds mark that triggers EventTimeExpiringSoon.
const expiringSoonAt = 10

// Notifier receives sound/haptic cues. Implementations must return quickly.
type Notifier interface {
	Notify(ev Event)
}

type NotifierFunc func(ev Event)

func (f NotifierFunc) Notify(ev Event) { f(ev) }

// Listener is told about every state the engine publishes. Implementations
// must not block.
type Listener interface {
	StateChanged(s State)
}
