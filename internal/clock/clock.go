package clock

import "time"

// Clock - источник времени. В проде Real(), в тестах Fake() с ручным Advance.
// Свипер и клиентский цикл не вызывают time.Now/time.NewTicker напрямую.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) *Ticker
}

// Ticker - периодический таймер. C имеет буфер 1, лишние тики теряются.
type Ticker struct {
	C <-chan time.Time

	stop func()
}

// Stop останавливает тикер. Канал C не закрывается.
func (t *Ticker) Stop() { t.stop() }

// Real возвращает часы на основе пакета time.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) *Ticker {
	ticker := time.NewTicker(d)
	return &Ticker{C: ticker.C, stop: ticker.Stop}
}
