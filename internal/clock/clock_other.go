// SPDX-License-Identifier: Unlicense OR MIT

//go:build !darwin && !linux && !freebsd && !netbsd && !openbsd

package clock

func millis() float64 {
	return fallbackMillis()
}
