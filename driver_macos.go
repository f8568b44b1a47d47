// SPDX-License-Identifier: Unlicense OR MIT

//go:build darwin && !ios && cgo

package glview

import (
	"sync"

	"glview.org/platform"
	"glview.org/platform/macos"
)

var defaultDriver = sync.OnceValue(func() platform.Driver {
	return macos.New()
})
