// SPDX-License-Identifier: Unlicense OR MIT

package macos

import (
	"math"
	"testing"
	"time"
)

func TestSecondsToDuration(t *testing.T) {
	tests := []struct {
		s    float64
		want time.Duration
	}{
		{0, 0},
		{1.5, 1500 * time.Millisecond},
		{0.000001, time.Microsecond},
		{-1, 0},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		if got := secondsToDuration(tt.s); got != tt.want {
			t.Errorf("secondsToDuration(%v) = %v, want %v", tt.s, got, tt.want)
		}
	}
}
