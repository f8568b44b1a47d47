// SPDX-License-Identifier: Unlicense OR MIT

//go:build darwin && !ios && cgo

package macos

/*
#include <CoreFoundation/CoreFoundation.h>
#include <stdint.h>

__attribute__ ((visibility ("hidden"))) CFTypeRef glview_newDisplayLink(CFTypeRef ctx, CFTypeRef pf, uintptr_t handle);
__attribute__ ((visibility ("hidden"))) int glview_startDisplayLink(CFTypeRef dl);
__attribute__ ((visibility ("hidden"))) void glview_stopDisplayLink(CFTypeRef dl);
__attribute__ ((visibility ("hidden"))) void glview_releaseDisplayLink(CFTypeRef dl);
*/
import "C"

import (
	"errors"
	"fmt"
	"runtime/cgo"
	"sync"
)

// displayLink is a CVDisplayLink following the display of a context.
type displayLink struct {
	mu      sync.Mutex
	dl      C.CFTypeRef
	tick    cgo.Handle
	running bool
}

func newDisplayLink(ctx, pf C.CFTypeRef, tick func()) (*displayLink, error) {
	h := cgo.NewHandle(tick)
	dl := C.glview_newDisplayLink(ctx, pf, C.uintptr_t(h))
	if dl == 0 {
		h.Delete()
		return nil, errors.New("macos: failed to create CVDisplayLink")
	}
	return &displayLink{dl: dl, tick: h}, nil
}

func (d *displayLink) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dl == 0 {
		return errors.New("macos: display link released")
	}
	if d.running {
		return nil
	}
	if ret := C.glview_startDisplayLink(d.dl); ret != 0 {
		return fmt.Errorf("macos: CVDisplayLinkStart failed: %d", int(ret))
	}
	d.running = true
	return nil
}

// Stop stops the display link. CVDisplayLinkStop waits for a running
// callback to return.
func (d *displayLink) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dl == 0 || !d.running {
		return
	}
	C.glview_stopDisplayLink(d.dl)
	d.running = false
}

func (d *displayLink) Release() {
	d.Stop()
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dl == 0 {
		return
	}
	C.glview_releaseDisplayLink(d.dl)
	d.dl = 0
	d.tick.Delete()
}

//export glview_onDisplayLink
func glview_onDisplayLink(h C.uintptr_t) {
	cgo.Handle(h).Value().(func())()
}
