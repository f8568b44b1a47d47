// SPDX-License-Identifier: Unlicense OR MIT

package headless

import (
	"time"

	"glview.org/pixfmt"
	"glview.org/platform"
)

// ContextState is a snapshot of a context's native state.
type ContextState struct {
	PixelFormat  platform.Handle
	Share        platform.Handle
	View         platform.Handle
	Opaque       bool
	Drawable     bool
	SwapInterval int
	Updates      int

	// RefreshPeriod is the tick period of display links created for
	// the context.
	RefreshPeriod time.Duration
}

// Context returns the state of ctx, and whether it exists.
func (d *Driver) Context(ctx platform.Handle) (ContextState, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.contexts[ctx]
	if !ok {
		return ContextState{}, false
	}
	return ContextState{
		PixelFormat:  c.pf,
		Share:        c.share,
		View:         c.view,
		Opaque:       c.opaque,
		Drawable:     c.drawable,
		SwapInterval: c.interval,
		Updates:      c.updates,

		RefreshPeriod: d.periodLocked(c),
	}, true
}

// PixelFormat returns the attributes pf was created with.
func (d *Driver) PixelFormat(pf platform.Handle) ([]pixfmt.Attribute, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.formats[pf]
	return a, ok
}

// Live returns the number of pixel formats, views and contexts not yet
// released.
func (d *Driver) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.formats) + len(d.views) + len(d.contexts)
}

// Flushes returns the number of buffer flushes.
func (d *Driver) Flushes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flushes
}

// FrameChanged simulates a global frame change of view, notifying its
// observers.
func (d *Driver) FrameChanged(view platform.Handle) {
	d.mu.Lock()
	var fs []func()
	for _, f := range d.observers[view] {
		fs = append(fs, f)
	}
	d.mu.Unlock()
	for _, f := range fs {
		f()
	}
}

// RightMouseDown delivers a right mouse down event to view.
func (d *Driver) RightMouseDown(view platform.Handle, e platform.MouseEvent) {
	if del := d.delegate(view); del != nil {
		del.RightMouseDown(e)
	}
}

// RightMouseUp delivers a right mouse up event to view.
func (d *Driver) RightMouseUp(view platform.Handle, e platform.MouseEvent) {
	if del := d.delegate(view); del != nil {
		del.RightMouseUp(e)
	}
}

// AcceptsFirstMouse asks view whether it takes the first click in an
// inactive window.
func (d *Driver) AcceptsFirstMouse(view platform.Handle, e platform.MouseEvent) bool {
	if del := d.delegate(view); del != nil {
		return del.AcceptsFirstMouse(e)
	}
	return false
}

func (d *Driver) delegate(view platform.Handle) platform.ViewDelegate {
	d.mu.Lock()
	defer d.mu.Unlock()
	if v, ok := d.views[view]; ok {
		return v.delegate
	}
	return nil
}
