// SPDX-License-Identifier: Unlicense OR MIT

// Package pacing throttles buffer swaps that arrive faster than the
// configured swap interval.
//
// When a window is fully occluded the system stops honouring the swap
// interval and the render loop spins at full speed. The Governor detects
// a run of suspiciously short intervals and sleeps the render thread to
// bring the interval back up.
package pacing

import (
	"time"

	"glview.org/internal/clock"
)

const (
	// toleranceMs is subtracted from the minimum interval before a swap
	// counts as an underrun.
	toleranceMs = 3
	// maxUnderruns is the number of consecutive underruns tolerated
	// before the Governor starts sleeping.
	maxUnderruns = 3
	// refreshRate is the reference rate used to turn frames into time.
	refreshRate = 60
)

// Governor tracks swap timestamps for a single render thread. It is not
// safe for concurrent use.
type Governor struct {
	now   func() float64
	sleep func(time.Duration)

	lastSwap    float64
	minInterval int
	underruns   int
}

// New returns a Governor reading time from now and sleeping with sleep.
// Nil arguments select the process clock.
func New(now func() float64, sleep func(time.Duration)) *Governor {
	if now == nil {
		now = clock.Millis
	}
	if sleep == nil {
		sleep = clock.Sleep
	}
	return &Governor{now: now, sleep: sleep}
}

// IntervalForFrames converts a swap interval in frames to milliseconds,
// assuming a 60 Hz display.
func IntervalForFrames(frames int) int {
	return frames * 1000 / refreshRate
}

// SetMinInterval sets the minimum time between swaps. Zero or less
// disables pacing.
func (g *Governor) SetMinInterval(ms int) {
	g.minInterval = ms
}

// MinInterval returns the minimum time between swaps in milliseconds.
func (g *Governor) MinInterval() int {
	return g.minInterval
}

// Underruns returns the current count of consecutive fast swaps.
func (g *Governor) Underruns() int {
	return g.underruns
}

// Pace records a swap and sleeps if the swaps have been arriving too
// fast. It returns the time slept.
func (g *Governor) Pace() time.Duration {
	if g.minInterval <= 0 {
		return 0
	}
	now := g.now()
	elapsed := int(now - g.lastSwap)
	g.lastSwap = now

	if elapsed < 0 || elapsed >= g.minInterval-toleranceMs {
		g.underruns = 0
		return 0
	}
	if g.underruns <= maxUnderruns {
		g.underruns++
	}
	if g.underruns <= maxUnderruns {
		return 0
	}
	d := time.Duration(g.minInterval-elapsed) * time.Millisecond
	g.sleep(d)
	return d
}
