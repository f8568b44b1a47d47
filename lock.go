// SPDX-License-Identifier: Unlicense OR MIT

package glview

import (
	"sync"

	"glview.org/platform"
)

// Locker holds the native lock of a context. Threads that use the
// context without making it current, such as a refresh target, take it
// to serialise against the render thread.
type Locker struct {
	d    platform.Driver
	ctx  platform.Handle
	once sync.Once
}

// Lock acquires the native context lock. The returned Locker must be
// unlocked, usually with defer. Locking an inert context returns a
// Locker that holds nothing.
func (c *Context) Lock() *Locker {
	l := &Locker{d: c.driver, ctx: c.ctx}
	if l.ctx != 0 {
		l.d.LockContext(l.ctx)
	}
	return l
}

// Unlock releases the lock. Calls after the first do nothing.
func (l *Locker) Unlock() {
	l.once.Do(func() {
		if l.ctx != 0 {
			l.d.UnlockContext(l.ctx)
		}
	})
}

// WithLock runs f while holding the context lock. The lock is released
// however f returns, including by panicking.
func (c *Context) WithLock(f func()) {
	l := c.Lock()
	defer l.Unlock()
	f()
}
