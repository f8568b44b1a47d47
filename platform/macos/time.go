// SPDX-License-Identifier: Unlicense OR MIT

package macos

import (
	"math"
	"time"
)

// secondsToDuration converts an AppKit timestamp, in seconds since
// boot, to a Duration.
func secondsToDuration(s float64) time.Duration {
	if math.IsNaN(s) || s < 0 {
		return 0
	}
	return time.Duration(math.Round(s * float64(time.Second)))
}
