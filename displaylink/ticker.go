// SPDX-License-Identifier: Unlicense OR MIT

package displaylink

import (
	"errors"
	"sync"
	"time"
)

// ticker is a software Source for platforms without a hardware refresh
// clock.
type ticker struct {
	period time.Duration
	tick   func()

	mu       sync.Mutex
	stop     chan struct{}
	done     chan struct{}
	released bool
}

var errReleased = errors.New("displaylink: source released")

// NewTicker returns a Factory for software sources firing every period.
func NewTicker(period time.Duration) Factory {
	return func(tick func()) (Source, error) {
		if period <= 0 {
			return nil, errors.New("displaylink: non-positive ticker period")
		}
		return &ticker{period: period, tick: tick}, nil
	}
}

// RefreshPeriod converts a refresh rate in Hz to a ticker period.
func RefreshPeriod(hz float64) time.Duration {
	if hz <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / hz)
}

func (t *ticker) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return errReleased
	}
	if t.stop != nil {
		return nil
	}
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	go t.run(t.stop, t.done)
	return nil
}

func (t *ticker) run(stop, done chan struct{}) {
	defer close(done)
	tk := time.NewTicker(t.period)
	defer tk.Stop()
	for {
		select {
		case <-stop:
			return
		case <-tk.C:
			t.tick()
		}
	}
}

// Stop waits for the ticker goroutine to exit.
func (t *ticker) Stop() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (t *ticker) Release() {
	t.Stop()
	t.mu.Lock()
	t.released = true
	t.mu.Unlock()
}
