// SPDX-License-Identifier: Unlicense OR MIT

// Package clock provides the process wide monotonic millisecond counter
// used to pace buffer swaps.
package clock

import "time"

// Millis returns a monotonic, high resolution millisecond count. Only
// differences between two readings are meaningful.
func Millis() float64 {
	return millis()
}

// Sleep blocks the calling goroutine for d. It cannot be
// interrupted.
func Sleep(d time.Duration) {
	time.Sleep(d)
}

var start = time.Now()

func fallbackMillis() float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
