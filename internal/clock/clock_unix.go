// SPDX-License-Identifier: Unlicense OR MIT

//go:build darwin || linux || freebsd || netbsd || openbsd

package clock

import (
	syscall "golang.org/x/sys/unix"
)

func millis() float64 {
	var ts syscall.Timespec
	if err := syscall.ClockGettime(syscall.CLOCK_MONOTONIC, &ts); err != nil {
		return fallbackMillis()
	}
	return float64(ts.Sec)*1e3 + float64(ts.Nsec)/1e6
}
