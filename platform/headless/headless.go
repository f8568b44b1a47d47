// SPDX-License-Identifier: Unlicense OR MIT

// Package headless implements a platform.Driver without a display. It
// keeps every native object in memory and records the calls made on it,
// which makes it suitable for tests and for running the context
// machinery on systems without NSOpenGL.
package headless

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"glview.org/displaylink"
	"glview.org/pixfmt"
	"glview.org/platform"
)

// Driver is an in-memory platform.Driver. The zero value is not usable;
// call New.
type Driver struct {
	// FailPixelFormat, FailView and FailContext make the corresponding
	// constructor fail.
	FailPixelFormat bool
	FailView        bool
	FailContext     bool
	// RefreshPeriod is the tick period of display links of contexts
	// without a rate of their own. Defaults to 60 Hz.
	RefreshPeriod time.Duration

	mu        sync.Mutex
	next      platform.Handle
	formats   map[platform.Handle][]pixfmt.Attribute
	views     map[platform.Handle]*view
	contexts  map[platform.Handle]*glContext
	current   platform.Handle
	flushes   int
	observers map[platform.Handle]map[int]func()
	nextObs   int
}

type view struct {
	pf       platform.Handle
	frame    image.Rectangle
	delegate platform.ViewDelegate
	ctx      platform.Handle
}

type glContext struct {
	pf       platform.Handle
	share    platform.Handle
	view     platform.Handle
	opaque   bool
	drawable bool
	interval int
	updates  int
	period   time.Duration
	lock     sync.Mutex
}

var (
	errPixelFormat = errors.New("headless: pixel format not supported")
	errView        = errors.New("headless: view allocation failed")
	errContext     = errors.New("headless: context allocation failed")
	errAttribs     = errors.New("headless: attribute list not terminated")
)

// New returns a Driver with no objects.
func New() *Driver {
	return &Driver{
		RefreshPeriod: displaylink.RefreshPeriod(60),
		formats:       make(map[platform.Handle][]pixfmt.Attribute),
		views:         make(map[platform.Handle]*view),
		contexts:      make(map[platform.Handle]*glContext),
		observers:     make(map[platform.Handle]map[int]func()),
	}
}

func (d *Driver) alloc() platform.Handle {
	d.next++
	return d.next
}

func (d *Driver) NewPixelFormat(attribs []pixfmt.Attribute) (platform.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailPixelFormat {
		return 0, errPixelFormat
	}
	if n := len(attribs); n == 0 || attribs[n-1] != pixfmt.AttrTerminator {
		return 0, errAttribs
	}
	h := d.alloc()
	d.formats[h] = append([]pixfmt.Attribute(nil), attribs...)
	return h, nil
}

func (d *Driver) ReleasePixelFormat(pf platform.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.formats, pf)
}

func (d *Driver) NewView(pf platform.Handle, frame image.Rectangle, del platform.ViewDelegate) (platform.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailView {
		return 0, errView
	}
	if _, ok := d.formats[pf]; !ok {
		return 0, fmt.Errorf("headless: unknown pixel format %d", pf)
	}
	h := d.alloc()
	d.views[h] = &view{pf: pf, frame: frame, delegate: del}
	return h, nil
}

func (d *Driver) ReleaseView(v platform.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.views, v)
	delete(d.observers, v)
}

func (d *Driver) ObserveFrameChanges(v platform.Handle, f func()) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	obs := d.observers[v]
	if obs == nil {
		obs = make(map[int]func())
		d.observers[v] = obs
	}
	id := d.nextObs
	d.nextObs++
	obs[id] = f
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.observers[v], id)
	}
}

func (d *Driver) NewContext(pf, share platform.Handle) (platform.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailContext {
		return 0, errContext
	}
	if _, ok := d.formats[pf]; !ok {
		return 0, fmt.Errorf("headless: unknown pixel format %d", pf)
	}
	if share != 0 {
		if _, ok := d.contexts[share]; !ok {
			return 0, fmt.Errorf("headless: unknown share context %d", share)
		}
	}
	h := d.alloc()
	d.contexts[h] = &glContext{pf: pf, share: share}
	return h, nil
}

func (d *Driver) ReleaseContext(ctx platform.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.contexts, ctx)
	if d.current == ctx {
		d.current = 0
	}
}

func (d *Driver) SetSurfaceOpacity(ctx platform.Handle, opaque bool) {
	d.withContext(ctx, func(c *glContext) { c.opaque = opaque })
}

func (d *Driver) ContextView(ctx platform.Handle) platform.Handle {
	var v platform.Handle
	d.withContext(ctx, func(c *glContext) { v = c.view })
	return v
}

func (d *Driver) SetContextView(ctx, v platform.Handle) {
	d.withContext(ctx, func(c *glContext) {
		c.view = v
		c.drawable = v != 0
	})
}

func (d *Driver) ViewContext(v platform.Handle) platform.Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	if vw, ok := d.views[v]; ok {
		return vw.ctx
	}
	return 0
}

func (d *Driver) SetViewContext(v, ctx platform.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	vw, ok := d.views[v]
	if !ok {
		return
	}
	// Like NSOpenGLView, the context only learns about the view once it
	// is explicitly attached to it.
	vw.ctx = ctx
}

func (d *Driver) ClearDrawable(ctx platform.Handle) {
	d.withContext(ctx, func(c *glContext) { c.drawable = false })
}

func (d *Driver) UpdateContext(ctx platform.Handle) {
	d.withContext(ctx, func(c *glContext) { c.updates++ })
}

func (d *Driver) MakeCurrent(ctx platform.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.contexts[ctx]; ok {
		d.current = ctx
	}
}

func (d *Driver) ClearCurrent() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current = 0
}

// CurrentContext returns the most recently made current context. The
// headless driver has a single, process wide binding.
func (d *Driver) CurrentContext() platform.Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

func (d *Driver) FlushBuffer(ctx platform.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.contexts[ctx]; ok {
		d.flushes++
	}
}

func (d *Driver) SetSwapInterval(ctx platform.Handle, frames int) {
	d.withContext(ctx, func(c *glContext) { c.interval = frames })
}

func (d *Driver) SwapInterval(ctx platform.Handle) int {
	var n int
	d.withContext(ctx, func(c *glContext) { n = c.interval })
	return n
}

func (d *Driver) LockContext(ctx platform.Handle) {
	if c := d.lookup(ctx); c != nil {
		c.lock.Lock()
	}
}

func (d *Driver) UnlockContext(ctx platform.Handle) {
	if c := d.lookup(ctx); c != nil {
		c.lock.Unlock()
	}
}

func (d *Driver) NewDisplayLink(ctx, pf platform.Handle, tick func()) (displaylink.Source, error) {
	d.mu.Lock()
	c, ok := d.contexts[ctx]
	var period time.Duration
	if ok {
		period = d.periodLocked(c)
	}
	d.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("headless: unknown context %d", ctx)
	}
	return displaylink.NewTicker(period)(tick)
}

// SetRefreshRate sets RefreshPeriod, the rate of every context without
// a rate of its own, from a rate in Hz.
func (d *Driver) SetRefreshRate(hz float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.RefreshPeriod = displaylink.RefreshPeriod(hz)
}

// SetContextRefreshRate sets the rate in Hz of display links created
// for ctx from now on. Zero or less reverts to RefreshPeriod.
func (d *Driver) SetContextRefreshRate(ctx platform.Handle, hz float64) {
	d.withContext(ctx, func(c *glContext) {
		c.period = displaylink.RefreshPeriod(hz)
	})
}

func (d *Driver) periodLocked(c *glContext) time.Duration {
	if c.period > 0 {
		return c.period
	}
	return d.RefreshPeriod
}

func (d *Driver) lookup(ctx platform.Handle) *glContext {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.contexts[ctx]
}

func (d *Driver) withContext(ctx platform.Handle, f func(c *glContext)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.contexts[ctx]; ok {
		f(c)
	}
}
