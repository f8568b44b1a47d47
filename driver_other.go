// SPDX-License-Identifier: Unlicense OR MIT

//go:build !darwin || ios || !cgo

package glview

import (
	"sync"

	"glview.org/platform"
	"glview.org/platform/headless"
)

var defaultDriver = sync.OnceValue(func() platform.Driver {
	return headless.New()
})
