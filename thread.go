// SPDX-License-Identifier: Unlicense OR MIT

package glview

import (
	"runtime"
	"sync/atomic"

	"glview.org/platform"
)

// Thread is the binding slot for the context current on one thread.
// Goroutines migrate between OS threads, so a render loop obtains its
// Thread from LockThread and uses it for every call that depends on
// the current context.
type Thread struct {
	id      uint64
	pinned  bool
	current atomic.Pointer[Context]
	// driver is the driver of the last context bound to t. It is only
	// used by t's own goroutine.
	driver platform.Driver
}

var threadIDs atomic.Uint64

// LockThread wires the calling goroutine to its OS thread and returns
// the Thread representing it. Call Unlock when the goroutine is done
// with GL.
func LockThread() *Thread {
	runtime.LockOSThread()
	t := NewThread()
	t.pinned = true
	return t
}

// NewThread returns a Thread that is not tied to an OS thread. It is
// useful for driving contexts from a simulated thread.
func NewThread() *Thread {
	return &Thread{id: threadIDs.Add(1)}
}

// Unlock undoes LockThread. Any context still bound to t is
// deactivated first.
func (t *Thread) Unlock() {
	DeactivateCurrentContext(t)
	if t.pinned {
		t.pinned = false
		runtime.UnlockOSThread()
	}
}

// ID returns a process unique identifier for t.
func (t *Thread) ID() uint64 {
	return t.id
}

// Current returns the context bound to t, or nil.
func (t *Thread) Current() *Context {
	return t.current.Load()
}

// bind makes c the context of t, evicting whatever t had before and
// any other thread c was bound to.
func (t *Thread) bind(c *Context) {
	t.driver = c.driver
	if prev := t.current.Swap(c); prev != nil && prev != c {
		prev.owner.CompareAndSwap(t, nil)
	}
	if other := c.owner.Swap(t); other != nil && other != t {
		other.current.CompareAndSwap(c, nil)
	}
}

// unbind clears t's binding and returns the context it held.
func (t *Thread) unbind() *Context {
	c := t.current.Swap(nil)
	if c != nil {
		c.owner.CompareAndSwap(t, nil)
	}
	return c
}

// DeactivateCurrentContext clears whatever context is current on t,
// whichever Context owns it, and clears the native binding of the
// calling OS thread.
func DeactivateCurrentContext(t *Thread) {
	t.unbind()
	t.nativeDriver().ClearCurrent()
}

// IsContextActive reports whether any GL context is current on the
// calling OS thread, whether or not a Context made it current.
func IsContextActive() bool {
	return defaultDriver().CurrentContext() != 0
}

// nativeDriver returns the driver t last bound a context with.
func (t *Thread) nativeDriver() platform.Driver {
	if t.driver != nil {
		return t.driver
	}
	return defaultDriver()
}
