package game

import "time"

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory hands out periodic tickers. Tests swap it for hand-driven channels.
type TickerFactory interface {
	NewTicker(d time.Duration) Ticker
}

type tickerGen struct{}

type timeTicker struct {
	ticker *time.Ticker
}

func (t *timeTicker) C() <-chan time.Time { return t.ticker.C }

func (t *timeTicker) Stop() { t.ticker.Stop() }

func (tg *tickerGen) NewTicker(d time.Duration) Ticker {
	return &timeTicker{ticker: time.NewTicker(d)}
}

func NewTickerGen() tickerGen {
	return tickerGen{}
}
